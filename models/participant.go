package models

import "time"

// Participant records a competitor's membership in a tournament. Only the
// elimination flag, running score and final rank mutate after creation.
type Participant struct {
	ID           int       `json:"id"`
	TournamentID int       `json:"tournament_id"`
	CompetitorID int       `json:"competitor_id"`
	Eliminated   bool      `json:"eliminated"`
	Score        float64   `json:"score"`
	FinalRank    *int      `json:"final_rank,omitempty"`
	JoinedAt     time.Time `json:"joined_at"`

	// Optional nested entity, populated by list queries when requested.
	Competitor *Competitor `json:"competitor,omitempty"`
}
