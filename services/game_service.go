package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/arenaline/chess-arena/engine"
	"github.com/arenaline/chess-arena/models"
	"github.com/arenaline/chess-arena/repositories"
	"github.com/arenaline/chess-arena/sessions"
)

var ErrSessionNotFound = errors.New("game session not found")

const startingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// GameService runs ad-hoc games outside tournaments: live sessions in an
// injected store, engine hints and evaluations, and a rated-match record when
// the game finishes. Tournament play never passes through here.
type GameService interface {
	StartGame(ctx context.Context, player1ID, player2ID int, rated bool) (*sessions.Session, error)
	UpdatePosition(ctx context.Context, sessionID, fen string) error
	Hint(ctx context.Context, sessionID string) (string, error)
	Evaluate(ctx context.Context, sessionID string) (float64, error)
	FinishGame(ctx context.Context, sessionID string, outcome models.MatchOutcome) (*models.Match, error)
}

type gameService struct {
	store          sessions.Store
	analysisEngine engine.Engine
	matchRepo      repositories.MatchRepository
	tournaments    TournamentService
	logger         *slog.Logger
}

func NewGameService(
	store sessions.Store,
	analysisEngine engine.Engine,
	matchRepo repositories.MatchRepository,
	tournaments TournamentService,
	logger *slog.Logger,
) GameService {
	return &gameService{
		store:          store,
		analysisEngine: analysisEngine,
		matchRepo:      matchRepo,
		tournaments:    tournaments,
		logger:         logger,
	}
}

func (s *gameService) StartGame(ctx context.Context, player1ID, player2ID int, rated bool) (*sessions.Session, error) {
	session := s.store.Create(player1ID, player2ID, rated, startingFEN)
	s.logger.InfoContext(ctx, "game session started",
		slog.String("session_id", session.ID),
		slog.Int("player1_id", player1ID),
		slog.Int("player2_id", player2ID),
		slog.Bool("rated", rated))
	return session, nil
}

func (s *gameService) UpdatePosition(ctx context.Context, sessionID, fen string) error {
	if !s.store.SetPosition(sessionID, fen) {
		return ErrSessionNotFound
	}
	return nil
}

func (s *gameService) Hint(ctx context.Context, sessionID string) (string, error) {
	session, ok := s.store.Get(sessionID)
	if !ok {
		return "", ErrSessionNotFound
	}
	return s.analysisEngine.BestMove(ctx, session.FEN)
}

func (s *gameService) Evaluate(ctx context.Context, sessionID string) (float64, error) {
	session, ok := s.store.Get(sessionID)
	if !ok {
		return 0, ErrSessionNotFound
	}
	return s.analysisEngine.Evaluate(ctx, session.FEN)
}

// FinishGame records the concluded game as a match and applies ratings (for
// rated sessions) through the same outcome path tournaments use, then drops
// the session.
func (s *gameService) FinishGame(ctx context.Context, sessionID string, outcome models.MatchOutcome) (*models.Match, error) {
	if !outcome.Valid() {
		return nil, ErrInvalidOutcome
	}
	session, ok := s.store.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	match := &models.Match{
		Player1ID: session.Player1ID,
		Player2ID: session.Player2ID,
		Status:    models.MatchStatusScheduled,
		Rated:     session.Rated,
	}
	if err := s.matchRepo.Create(ctx, nil, match); err != nil {
		return nil, err
	}

	recorded, err := s.tournaments.RecordMatchOutcome(ctx, match.ID, outcome)
	if err != nil {
		return nil, err
	}

	s.store.Delete(sessionID)
	s.logger.InfoContext(ctx, "game session finished",
		slog.String("session_id", sessionID),
		slog.Int("match_id", recorded.ID),
		slog.String("outcome", string(outcome)))
	return recorded, nil
}
