package domain

import "time"

// WeeklyPeriod is one Monday-to-Monday (UTC) reward week. Its pool is the
// treasury share of fees from games settled in the week, paid out to the
// top players once the week is over.
type WeeklyPeriod struct {
	WeekStart     time.Time      `json:"week_start"`
	WeekEnd       time.Time      `json:"week_end"`
	Pool          uint64         `json:"pool"`
	Distributed   bool           `json:"distributed"`
	DistributedAt *time.Time     `json:"distributed_at,omitempty"`
	Rewards       []WeeklyReward `json:"rewards"`
}

type WeeklyReward struct {
	Rank       int        `json:"rank"`
	Player     Identity   `json:"player"`
	Points     uint64     `json:"points"`
	Winnings   uint64     `json:"winnings"`
	MatchesWon int        `json:"matches_won"`
	Amount     uint64     `json:"amount"`
	Claimed    bool       `json:"claimed"`
	ClaimedAt  *time.Time `json:"claimed_at,omitempty"`
}

// RewardOf returns the player's reward in the period, or nil.
func (p *WeeklyPeriod) RewardOf(player Identity) *WeeklyReward {
	for i := range p.Rewards {
		if p.Rewards[i].Player == player {
			return &p.Rewards[i]
		}
	}
	return nil
}

func (p *WeeklyPeriod) Clone() *WeeklyPeriod {
	if p == nil {
		return nil
	}
	c := *p
	if p.DistributedAt != nil {
		v := *p.DistributedAt
		c.DistributedAt = &v
	}
	if p.Rewards != nil {
		c.Rewards = make([]WeeklyReward, len(p.Rewards))
		for i, r := range p.Rewards {
			if r.ClaimedAt != nil {
				v := *r.ClaimedAt
				r.ClaimedAt = &v
			}
			c.Rewards[i] = r
		}
	}
	return &c
}
