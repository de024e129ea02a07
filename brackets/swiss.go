package brackets

import (
	"context"
	"sort"
)

type SwissGenerator struct{}

func NewSwissGenerator() Generator {
	return &SwissGenerator{}
}

func (g *SwissGenerator) Name() string {
	return "Swiss"
}

// Generate pairs competitors with similar running scores: seeds are stably
// sorted by score descending and adjacent entries are paired. Ties keep the
// caller's input order, so a shuffled input still randomizes pairings within
// a score group. An odd participant at the bottom of the standings gets the bye.
func (g *SwissGenerator) Generate(ctx context.Context, seeds []Seed) ([]Pairing, error) {
	if err := validateSeeds(seeds); err != nil {
		return nil, err
	}

	sorted := make([]Seed, len(seeds))
	copy(sorted, seeds)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	pairings := make([]Pairing, 0, (len(sorted)+1)/2)
	for i := 0; i+1 < len(sorted); i += 2 {
		pairings = append(pairings, Pairing{
			Player1ID: sorted[i].CompetitorID,
			Player2ID: sorted[i+1].CompetitorID,
		})
	}
	if len(sorted)%2 == 1 {
		pairings = append(pairings, Pairing{
			Player1ID: sorted[len(sorted)-1].CompetitorID,
			IsBye:     true,
		})
	}
	return pairings, nil
}
