package services

import "errors"

// Sentinel errors shared across services and the HTTP error mapping. All of
// them are recoverable: handlers translate them into user-facing responses.
var (
	// Not found
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrCompetitorNotFound = errors.New("competitor not found")
	ErrMatchNotFound      = errors.New("match not found")

	// Lifecycle violations
	ErrInvalidTournamentState   = errors.New("operation not allowed in the tournament's current state")
	ErrTournamentFull           = errors.New("tournament registration is full")
	ErrInsufficientParticipants = errors.New("at least 2 participants are required to start")
	ErrAlreadyJoined            = errors.New("competitor is already registered for this tournament")
	ErrMatchAlreadyCompleted    = errors.New("match outcome has already been recorded")

	// Invalid arguments
	ErrInvalidOutcome     = errors.New("invalid match outcome value")
	ErrDrawNotAllowed     = errors.New("draws are not allowed in elimination matches")
	ErrInvalidTargetScore = errors.New("target score must be inside the open interval (0, 1)")

	// Auth
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email address is already in use")
	ErrUsernameTaken      = errors.New("username is already in use")
	ErrPasswordTooShort   = errors.New("password is too short")
)
