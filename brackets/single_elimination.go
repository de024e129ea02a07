package brackets

import "context"

type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() Generator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) Name() string {
	return "SingleElimination"
}

// Generate pairs consecutive seeds two at a time. An odd participant at the
// end receives a bye and advances without a match, so a round produces
// floor(n/2) matches and at most one bye.
func (g *SingleEliminationGenerator) Generate(ctx context.Context, seeds []Seed) ([]Pairing, error) {
	if err := validateSeeds(seeds); err != nil {
		return nil, err
	}

	pairings := make([]Pairing, 0, (len(seeds)+1)/2)
	for i := 0; i+1 < len(seeds); i += 2 {
		pairings = append(pairings, Pairing{
			Player1ID: seeds[i].CompetitorID,
			Player2ID: seeds[i+1].CompetitorID,
		})
	}
	if len(seeds)%2 == 1 {
		pairings = append(pairings, Pairing{
			Player1ID: seeds[len(seeds)-1].CompetitorID,
			IsBye:     true,
		})
	}
	return pairings, nil
}
