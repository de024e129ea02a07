// Package ratings implements the ELO rating math used across the service.
// Every function is pure: no I/O, no shared state. Callers persist the
// results through the repositories.
package ratings

import (
	"math"

	"github.com/arenaline/chess-arena/models"
)

const (
	DefaultFloor   = 100
	DefaultCeiling = 3000

	// Competitors with fewer games than this get the provisional K-factor
	// regardless of rating.
	ProvisionalGames = 30

	KProvisional = 40
	KDefault     = 32
	KMid         = 24
	KTop         = 16

	midBandRating = 2100
	topBandRating = 2400
)

// Options overrides the engine defaults. Zero values mean "use the default".
type Options struct {
	KFactor          int
	Floor            int
	Ceiling          int
	ProvisionalGames int
}

func (o Options) floor() int {
	if o.Floor != 0 {
		return o.Floor
	}
	return DefaultFloor
}

func (o Options) ceiling() int {
	if o.Ceiling != 0 {
		return o.Ceiling
	}
	return DefaultCeiling
}

func (o Options) provisionalGames() int {
	if o.ProvisionalGames != 0 {
		return o.ProvisionalGames
	}
	return ProvisionalGames
}

// ExpectedScore returns the probability-weighted predicted outcome for a
// player rated ratingA against ratingB. ExpectedScore(a, b) + ExpectedScore(b, a)
// always sums to 1.
func ExpectedScore(ratingA, ratingB int) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(ratingB-ratingA)/400.0))
}

// KFactor selects the sensitivity constant for one side of a game. An explicit
// override wins; otherwise the provisional check takes precedence over the
// rating bands.
func KFactor(rating, gamesPlayed int, opts Options) int {
	if opts.KFactor != 0 {
		return opts.KFactor
	}
	if gamesPlayed < opts.provisionalGames() {
		return KProvisional
	}
	switch {
	case rating >= topBandRating:
		return KTop
	case rating >= midBandRating:
		return KMid
	default:
		return KDefault
	}
}

// Result holds both sides of a rating update. Because each side may use a
// different K-factor and clamping is applied independently, DeltaA and DeltaB
// are not required to be exact negatives of each other.
type Result struct {
	NewRatingA int `json:"new_rating_a"`
	NewRatingB int `json:"new_rating_b"`
	DeltaA     int `json:"delta_a"`
	DeltaB     int `json:"delta_b"`
}

// ApplyResult computes the post-game ratings for both competitors.
func ApplyResult(ratingA, ratingB, gamesA, gamesB int, outcome models.MatchOutcome, opts Options) Result {
	expectedA := ExpectedScore(ratingA, ratingB)
	expectedB := ExpectedScore(ratingB, ratingA)

	var actualA, actualB float64
	switch outcome {
	case models.OutcomePlayer1Wins:
		actualA, actualB = 1, 0
	case models.OutcomePlayer2Wins:
		actualA, actualB = 0, 1
	case models.OutcomeDraw:
		actualA, actualB = 0.5, 0.5
	}

	kA := KFactor(ratingA, gamesA, opts)
	kB := KFactor(ratingB, gamesB, opts)

	deltaA := int(math.Round(float64(kA) * (actualA - expectedA)))
	deltaB := int(math.Round(float64(kB) * (actualB - expectedB)))

	newA := clamp(ratingA+deltaA, opts.floor(), opts.ceiling())
	newB := clamp(ratingB+deltaB, opts.floor(), opts.ceiling())

	return Result{
		NewRatingA: newA,
		NewRatingB: newB,
		DeltaA:     newA - ratingA,
		DeltaB:     newB - ratingB,
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
