package domain

import (
	"encoding/hex"
	"errors"
	"time"
)

var (
	ErrInvalidGameID    = errors.New("game id must be 8 bytes hex encoded")
	ErrInvalidHash      = errors.New("commitment must be 32 bytes hex encoded")
	ErrInvalidSaltBytes = errors.New("salt must be 32 bytes hex encoded")
)

// Identity is an authenticated public identifier of a player.
type Identity string

// GameID is the 8-byte key of a match.
type GameID [8]byte

func ParseGameID(s string) (GameID, error) {
	var id GameID
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(id) {
		return id, ErrInvalidGameID
	}
	copy(id[:], b)
	return id, nil
}

func (id GameID) String() string {
	return hex.EncodeToString(id[:])
}

func (id GameID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *GameID) UnmarshalText(b []byte) error {
	parsed, err := ParseGameID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Commitment is a 256-bit hash binding a player to moves and salt.
type Commitment [32]byte

func ParseCommitment(s string) (Commitment, error) {
	var c Commitment
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(c) {
		return c, ErrInvalidHash
	}
	copy(c[:], b)
	return c, nil
}

func (c Commitment) String() string {
	return hex.EncodeToString(c[:])
}

func (c Commitment) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Commitment) UnmarshalText(b []byte) error {
	parsed, err := ParseCommitment(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Salt is the 32 random bytes mixed into a commitment.
type Salt [32]byte

func ParseSalt(s string) (Salt, error) {
	var salt Salt
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(salt) {
		return salt, ErrInvalidSaltBytes
	}
	copy(salt[:], b)
	return salt, nil
}

func (s Salt) String() string {
	return hex.EncodeToString(s[:])
}

type Move uint8

const (
	MoveRock     Move = 1
	MovePaper    Move = 2
	MoveScissors Move = 3
)

func (m Move) Valid() bool {
	return m >= MoveRock && m <= MoveScissors
}

func (m Move) String() string {
	switch m {
	case MoveRock:
		return "rock"
	case MovePaper:
		return "paper"
	case MoveScissors:
		return "scissors"
	default:
		return "invalid"
	}
}

// MovesFromBytes converts raw wire bytes to moves without validating them.
func MovesFromBytes(b []byte) []Move {
	if b == nil {
		return nil
	}
	moves := make([]Move, len(b))
	for i, v := range b {
		moves[i] = Move(v)
	}
	return moves
}

// MovesToBytes is the inverse of MovesFromBytes.
func MovesToBytes(moves []Move) []byte {
	if moves == nil {
		return nil
	}
	b := make([]byte, len(moves))
	for i, m := range moves {
		b[i] = byte(m)
	}
	return b
}

type GameStatus string

const (
	StatusWaitingForChallenger GameStatus = "waiting_for_challenger"
	StatusWaitingForReveals    GameStatus = "waiting_for_reveals"
	StatusCreatorRevealed      GameStatus = "creator_revealed"
	StatusChallengerRevealed   GameStatus = "challenger_revealed"
	StatusComplete             GameStatus = "complete"
	StatusForfeited            GameStatus = "forfeited"
)

// Settled reports whether no further lifecycle transition is possible.
func (s GameStatus) Settled() bool {
	return s == StatusComplete || s == StatusForfeited
}

// Side names one party of a match. It doubles as the per-round winner,
// where SideDraw means neither party took the round.
type Side string

const (
	SideCreator    Side = "creator"
	SideChallenger Side = "challenger"
	SideDraw       Side = "draw"
)

type RoundResult struct {
	CreatorMove    Move `json:"creator_move"`
	ChallengerMove Move `json:"challenger_move"`
	Winner         Side `json:"winner"`
}

// Game is the persisted record of a single match.
type Game struct {
	ID                   GameID
	Creator              Identity
	Challenger           *Identity
	Rounds               uint8
	StakePerRound        uint64
	TotalPot             uint64
	CreatorCommitment    Commitment
	ChallengerCommitment *Commitment
	CreatorMoves         []Move
	ChallengerMoves      []Move
	Status               GameStatus
	CreatedAt            time.Time
	JoinedAt             *time.Time
	RevealDeadline       *time.Time
	SettledAt            *time.Time
	Winner               *Identity
	RoundResults         []RoundResult
	FeesCollected        uint64

	// Settlement guards. Claims are repeatable; transfers are not.
	FeesDistributed   bool
	CreatorClaimed    bool
	ChallengerClaimed bool
}

// SideOf resolves which party id plays. ok is false for outsiders.
func (g *Game) SideOf(id Identity) (Side, bool) {
	if id == g.Creator {
		return SideCreator, true
	}
	if g.Challenger != nil && id == *g.Challenger {
		return SideChallenger, true
	}
	return "", false
}

func (g *Game) IsParty(id Identity) bool {
	_, ok := g.SideOf(id)
	return ok
}

// Stalled reports a game where the reveal window closed with neither side
// revealed. Such a game holds its escrow indefinitely.
func (g *Game) Stalled(now time.Time) bool {
	return g.Status == StatusWaitingForReveals &&
		g.RevealDeadline != nil && now.After(*g.RevealDeadline)
}

// Clone returns a deep copy so stores never hand out shared references.
func (g *Game) Clone() *Game {
	if g == nil {
		return nil
	}
	c := *g
	if g.Challenger != nil {
		v := *g.Challenger
		c.Challenger = &v
	}
	if g.ChallengerCommitment != nil {
		v := *g.ChallengerCommitment
		c.ChallengerCommitment = &v
	}
	if g.JoinedAt != nil {
		v := *g.JoinedAt
		c.JoinedAt = &v
	}
	if g.RevealDeadline != nil {
		v := *g.RevealDeadline
		c.RevealDeadline = &v
	}
	if g.SettledAt != nil {
		v := *g.SettledAt
		c.SettledAt = &v
	}
	if g.Winner != nil {
		v := *g.Winner
		c.Winner = &v
	}
	if g.CreatorMoves != nil {
		c.CreatorMoves = append([]Move(nil), g.CreatorMoves...)
	}
	if g.ChallengerMoves != nil {
		c.ChallengerMoves = append([]Move(nil), g.ChallengerMoves...)
	}
	if g.RoundResults != nil {
		c.RoundResults = append([]RoundResult(nil), g.RoundResults...)
	}
	return &c
}

// LeaderboardEntry aggregates settled matches for one player.
type LeaderboardEntry struct {
	Rank          int      `json:"rank"`
	Player        Identity `json:"player"`
	Winnings      uint64   `json:"winnings"`
	MatchesWon    int      `json:"matches_won"`
	MatchesPlayed int      `json:"matches_played"`
	WinRate       float64  `json:"win_rate"`
}
