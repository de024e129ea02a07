package ratings

import (
	"errors"
	"math"

	"github.com/arenaline/chess-arena/models"
)

var ErrInvalidTargetScore = errors.New("target score must be inside the open interval (0, 1)")

// GameResult is a single game against one opponent, used for performance
// rating calculations.
type GameResult struct {
	OpponentRating int                 `json:"opponent_rating"`
	Outcome        models.MatchOutcome `json:"outcome"`
}

// PerformanceRating returns the rating the given results imply the competitor
// effectively played at: average opponent rating plus 400*log10(p/(1-p)) for
// fractional score p. Perfect and zero scores are defined as a flat +-400
// offset to avoid the logarithm blowing up.
func PerformanceRating(results []GameResult) int {
	if len(results) == 0 {
		return 0
	}

	var ratingSum int
	var score float64
	for _, r := range results {
		ratingSum += r.OpponentRating
		switch r.Outcome {
		case models.OutcomePlayer1Wins:
			score += 1
		case models.OutcomeDraw:
			score += 0.5
		}
	}

	avg := float64(ratingSum) / float64(len(results))
	p := score / float64(len(results))

	switch {
	case p >= 1:
		return int(math.Round(avg + 400))
	case p <= 0:
		return int(math.Round(avg - 400))
	default:
		return int(math.Round(avg + 400*math.Log10(p/(1-p))))
	}
}

// RequiredRating inverts the expected-score formula: the rating needed to
// score targetScore on average against opponentRating.
func RequiredRating(opponentRating int, targetScore float64) (int, error) {
	if targetScore <= 0 || targetScore >= 1 {
		return 0, ErrInvalidTargetScore
	}
	return opponentRating + int(math.Round(400*math.Log10(targetScore/(1-targetScore)))), nil
}

type ReliabilityCategory string

const (
	ReliabilityProvisional    ReliabilityCategory = "provisional"
	ReliabilityEstablished    ReliabilityCategory = "established"
	ReliabilityReliable       ReliabilityCategory = "reliable"
	ReliabilityHighlyReliable ReliabilityCategory = "highly_reliable"
)

type Reliability struct {
	Reliability float64             `json:"reliability"`
	Category    ReliabilityCategory `json:"category"`
}

// RatingReliability estimates how trustworthy a rating is from the number of
// recorded games, discounted by up to 30% proportional to recent variance.
func RatingReliability(gamesPlayed int, recentVariance float64) Reliability {
	reliability := math.Min(1, float64(gamesPlayed)/100.0)
	if recentVariance > 0 {
		discount := math.Min(recentVariance/200.0, 1) * 0.3
		reliability *= 1 - discount
	}

	var category ReliabilityCategory
	switch {
	case gamesPlayed < 10:
		category = ReliabilityProvisional
	case gamesPlayed < 50:
		category = ReliabilityEstablished
	case gamesPlayed < 100:
		category = ReliabilityReliable
	default:
		category = ReliabilityHighlyReliable
	}

	return Reliability{Reliability: reliability, Category: category}
}
