package game

import "rps_arena/internal/domain"

// Beats reports whether a defeats b under the cyclic relation
// rock(1) < paper(2) < scissors(3) < rock(1).
func Beats(a, b domain.Move) bool {
	switch a {
	case domain.MoveRock:
		return b == domain.MoveScissors
	case domain.MovePaper:
		return b == domain.MoveRock
	case domain.MoveScissors:
		return b == domain.MovePaper
	}
	return false
}

func decide(creator, challenger domain.Move) domain.Side {
	switch {
	case Beats(creator, challenger):
		return domain.SideCreator
	case Beats(challenger, creator):
		return domain.SideChallenger
	default:
		return domain.SideDraw
	}
}

// Resolution is the outcome of all rounds of one match.
type Resolution struct {
	Results        []domain.RoundResult
	CreatorWins    int
	ChallengerWins int
	// Winner is SideDraw when neither side took strictly more rounds.
	Winner domain.Side
}

// ResolveRounds pairs the two move sequences round by round. Both
// sequences are expected to be validated and of equal length.
func ResolveRounds(creator, challenger []domain.Move) Resolution {
	res := Resolution{Results: make([]domain.RoundResult, 0, len(creator))}
	for i := range creator {
		w := decide(creator[i], challenger[i])
		switch w {
		case domain.SideCreator:
			res.CreatorWins++
		case domain.SideChallenger:
			res.ChallengerWins++
		}
		res.Results = append(res.Results, domain.RoundResult{
			CreatorMove:    creator[i],
			ChallengerMove: challenger[i],
			Winner:         w,
		})
	}

	switch {
	case res.CreatorWins > res.ChallengerWins:
		res.Winner = domain.SideCreator
	case res.ChallengerWins > res.CreatorWins:
		res.Winner = domain.SideChallenger
	default:
		res.Winner = domain.SideDraw
	}
	return res
}
