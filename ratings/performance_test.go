package ratings

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arenaline/chess-arena/models"
)

func TestPerformanceRating(t *testing.T) {
	t.Run("empty results give zero", func(t *testing.T) {
		assert.Zero(t, PerformanceRating(nil))
	})

	t.Run("even score equals average opponent rating", func(t *testing.T) {
		results := []GameResult{
			{OpponentRating: 1600, Outcome: models.OutcomePlayer1Wins},
			{OpponentRating: 1600, Outcome: models.OutcomePlayer2Wins},
		}
		assert.Equal(t, 1600, PerformanceRating(results))
	})

	t.Run("all draws equal average opponent rating", func(t *testing.T) {
		results := []GameResult{
			{OpponentRating: 1400, Outcome: models.OutcomeDraw},
			{OpponentRating: 1800, Outcome: models.OutcomeDraw},
		}
		assert.Equal(t, 1600, PerformanceRating(results))
	})

	t.Run("perfect score caps at average plus 400", func(t *testing.T) {
		results := []GameResult{
			{OpponentRating: 1500, Outcome: models.OutcomePlayer1Wins},
			{OpponentRating: 1700, Outcome: models.OutcomePlayer1Wins},
		}
		assert.Equal(t, 2000, PerformanceRating(results))
	})

	t.Run("zero score caps at average minus 400", func(t *testing.T) {
		results := []GameResult{
			{OpponentRating: 1500, Outcome: models.OutcomePlayer2Wins},
			{OpponentRating: 1700, Outcome: models.OutcomePlayer2Wins},
		}
		assert.Equal(t, 1200, PerformanceRating(results))
	})

	t.Run("three of four points against 1600 average", func(t *testing.T) {
		results := []GameResult{
			{OpponentRating: 1600, Outcome: models.OutcomePlayer1Wins},
			{OpponentRating: 1600, Outcome: models.OutcomePlayer1Wins},
			{OpponentRating: 1600, Outcome: models.OutcomePlayer1Wins},
			{OpponentRating: 1600, Outcome: models.OutcomePlayer2Wins},
		}
		want := 1600 + int(math.Round(400*math.Log10(3)))
		assert.Equal(t, want, PerformanceRating(results))
	})
}

func TestRequiredRating(t *testing.T) {
	t.Run("fifty percent target equals opponent rating", func(t *testing.T) {
		required, err := RequiredRating(1600, 0.5)
		require.NoError(t, err)
		assert.Equal(t, 1600, required)
	})

	t.Run("seventy five percent target", func(t *testing.T) {
		required, err := RequiredRating(1600, 0.75)
		require.NoError(t, err)
		want := 1600 + int(math.Round(400*math.Log10(3)))
		assert.Equal(t, want, required)
	})

	t.Run("inverts the expected score formula", func(t *testing.T) {
		for _, target := range []float64{0.1, 0.25, 0.5, 0.75, 0.9} {
			required, err := RequiredRating(1500, target)
			require.NoError(t, err)
			assert.InDelta(t, target, ExpectedScore(required, 1500), 0.01, "target %v", target)
		}
	})

	t.Run("rejects targets outside the open interval", func(t *testing.T) {
		for _, target := range []float64{0, 1, -0.2, 1.3} {
			_, err := RequiredRating(1500, target)
			assert.ErrorIs(t, err, ErrInvalidTargetScore, "target %v", target)
		}
	})
}

func TestRatingReliability(t *testing.T) {
	t.Run("scales linearly with games up to one hundred", func(t *testing.T) {
		assert.InDelta(t, 0.25, RatingReliability(25, 0).Reliability, 1e-9)
		assert.InDelta(t, 1.0, RatingReliability(100, 0).Reliability, 1e-9)
		assert.InDelta(t, 1.0, RatingReliability(500, 0).Reliability, 1e-9)
	})

	t.Run("variance discounts up to thirty percent", func(t *testing.T) {
		steady := RatingReliability(100, 0).Reliability
		volatile := RatingReliability(100, 200).Reliability
		assert.InDelta(t, steady*0.7, volatile, 1e-9)

		// The discount saturates past a variance of 200.
		extreme := RatingReliability(100, 1000).Reliability
		assert.InDelta(t, volatile, extreme, 1e-9)
	})

	t.Run("category buckets", func(t *testing.T) {
		tests := []struct {
			games int
			want  ReliabilityCategory
		}{
			{0, ReliabilityProvisional},
			{9, ReliabilityProvisional},
			{10, ReliabilityEstablished},
			{49, ReliabilityEstablished},
			{50, ReliabilityReliable},
			{99, ReliabilityReliable},
			{100, ReliabilityHighlyReliable},
		}
		for _, tt := range tests {
			assert.Equal(t, tt.want, RatingReliability(tt.games, 0).Category, "games %d", tt.games)
		}
	})
}
