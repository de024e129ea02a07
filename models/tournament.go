package models

import (
	"errors"
	"time"
)

// TournamentStatus represents the lifecycle states, matching the ENUM in the DB.
type TournamentStatus string

const (
	StatusUpcoming  TournamentStatus = "upcoming"
	StatusActive    TournamentStatus = "active"
	StatusCompleted TournamentStatus = "completed"
	StatusCancelled TournamentStatus = "cancelled"
)

type TournamentFormat string

const (
	FormatSingleElimination TournamentFormat = "single_elimination"
	FormatDoubleElimination TournamentFormat = "double_elimination"
	FormatSwiss             TournamentFormat = "swiss"
	FormatRoundRobin        TournamentFormat = "round_robin"
)

var (
	ErrSettingsInvalidCapacity    = errors.New("max participants must be at least 2")
	ErrSettingsInvalidFormat      = errors.New("unknown tournament format")
	ErrSettingsInvalidTimeControl = errors.New("time control must not be empty")
)

// TournamentSettings is the closed configuration accepted at creation time.
// Every supported option is an explicit field so that unknown or misspelled
// options fail at decode time instead of being silently ignored.
type TournamentSettings struct {
	MaxParticipants int              `json:"max_participants"`
	Format          TournamentFormat `json:"format"`
	TimeControl     string           `json:"time_control"`
	IsRated         bool             `json:"is_rated"`
	AutoStart       bool             `json:"auto_start"`
	AutoAdvance     bool             `json:"auto_advance"`
}

func (s TournamentSettings) Validate() error {
	if s.MaxParticipants < 2 {
		return ErrSettingsInvalidCapacity
	}
	switch s.Format {
	case FormatSingleElimination, FormatDoubleElimination, FormatSwiss, FormatRoundRobin:
	default:
		return ErrSettingsInvalidFormat
	}
	if s.TimeControl == "" {
		return ErrSettingsInvalidTimeControl
	}
	return nil
}

// Elimination reports whether the format knocks losers out of the tournament.
func (f TournamentFormat) Elimination() bool {
	return f == FormatSingleElimination || f == FormatDoubleElimination
}

// Tournament is never physically deleted: terminal states archive it.
type Tournament struct {
	ID                  int                `json:"id"`
	Name                string             `json:"name"`
	CreatorID           int                `json:"creator_id"`
	Status              TournamentStatus   `json:"status"`
	Settings            TournamentSettings `json:"settings"`
	CurrentParticipants int                `json:"current_participants"`
	CurrentRound        int                `json:"current_round"`
	ScheduledStart      *time.Time         `json:"scheduled_start,omitempty"`
	WinnerID            *int               `json:"winner_id,omitempty"`
	CreatedAt           time.Time          `json:"created_at"`
	StartedAt           *time.Time         `json:"started_at,omitempty"`
	EndedAt             *time.Time         `json:"ended_at,omitempty"`
}
