package brackets

import "context"

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() Generator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) Name() string {
	return "RoundRobin"
}

// Generate emits every unordered pair exactly once, n*(n-1)/2 matches for n
// participants, in one call. Callers needing turn-based round robin play must
// layer their own round partitioning on top of the full pairing set.
func (g *RoundRobinGenerator) Generate(ctx context.Context, seeds []Seed) ([]Pairing, error) {
	if err := validateSeeds(seeds); err != nil {
		return nil, err
	}

	n := len(seeds)
	pairings := make([]Pairing, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairings = append(pairings, Pairing{
				Player1ID: seeds[i].CompetitorID,
				Player2ID: seeds[j].CompetitorID,
			})
		}
	}
	return pairings, nil
}
