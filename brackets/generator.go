package brackets

import (
	"context"
	"errors"
	"fmt"

	"github.com/arenaline/chess-arena/models"
)

var (
	ErrNotEnoughSeeds    = errors.New("not enough participants to generate pairings (minimum 2)")
	ErrUnsupportedFormat = errors.New("unsupported tournament format")
	ErrDuplicateSeed     = errors.New("duplicate competitor in seed list")
)

// Seed is one entry in the ordered input list. Order carries no ranking
// significance for elimination formats; callers must shuffle beforehand if
// fairness matters. Score is the running tournament score, consumed only by
// the swiss generator.
type Seed struct {
	CompetitorID int
	Score        float64
}

// Pairing is either a two-player match or a bye that advances one player
// without a game.
type Pairing struct {
	Player1ID int
	Player2ID int
	IsBye     bool
}

// Generator produces the pairings for one round of a tournament. Given the
// same seed order the output is deterministic; randomness is the caller's
// responsibility.
type Generator interface {
	Generate(ctx context.Context, seeds []Seed) ([]Pairing, error)
	Name() string
}

// ForFormat returns the generator for a tournament format. Double elimination
// has no pairing algorithm yet and is reported as unsupported rather than
// silently degrading to single elimination.
func ForFormat(format models.TournamentFormat) (Generator, error) {
	switch format {
	case models.FormatSingleElimination:
		return NewSingleEliminationGenerator(), nil
	case models.FormatRoundRobin:
		return NewRoundRobinGenerator(), nil
	case models.FormatSwiss:
		return NewSwissGenerator(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func validateSeeds(seeds []Seed) error {
	if len(seeds) < 2 {
		return ErrNotEnoughSeeds
	}
	seen := make(map[int]struct{}, len(seeds))
	for _, s := range seeds {
		if _, ok := seen[s.CompetitorID]; ok {
			return fmt.Errorf("%w: competitor %d", ErrDuplicateSeed, s.CompetitorID)
		}
		seen[s.CompetitorID] = struct{}{}
	}
	return nil
}
