package models

import "time"

type MatchStatus string

const (
	MatchStatusScheduled MatchStatus = "scheduled"
	MatchStatusCompleted MatchStatus = "completed"
	MatchStatusCanceled  MatchStatus = "canceled"
)

type MatchOutcome string

const (
	OutcomePlayer1Wins MatchOutcome = "player1_wins"
	OutcomePlayer2Wins MatchOutcome = "player2_wins"
	OutcomeDraw        MatchOutcome = "draw"
)

// Valid reports whether o is one of the three recognized outcome values.
func (o MatchOutcome) Valid() bool {
	switch o {
	case OutcomePlayer1Wins, OutcomePlayer2Wins, OutcomeDraw:
		return true
	}
	return false
}

// Match is immutable once its status reaches completed: the recorded outcome
// and rating deltas are never re-derived.
type Match struct {
	ID           int           `json:"id"`
	TournamentID *int          `json:"tournament_id,omitempty"`
	Round        *int          `json:"round,omitempty"`
	Player1ID    int           `json:"player1_id"`
	Player2ID    int           `json:"player2_id"`
	Outcome      *MatchOutcome `json:"outcome,omitempty"`
	Status       MatchStatus   `json:"status"`
	Rated        bool          `json:"rated"`
	RatingDelta1 *int          `json:"rating_delta1,omitempty"`
	RatingDelta2 *int          `json:"rating_delta2,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
}
