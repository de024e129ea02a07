package services

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arenaline/chess-arena/models"
	"github.com/arenaline/chess-arena/sessions"
)

type stubEngine struct {
	bestMove string
	score    float64
	lastFEN  string
}

func (e *stubEngine) BestMove(ctx context.Context, fen string) (string, error) {
	e.lastFEN = fen
	return e.bestMove, nil
}

func (e *stubEngine) Evaluate(ctx context.Context, fen string) (float64, error) {
	e.lastFEN = fen
	return e.score, nil
}

type gameEnv struct {
	store       sessions.Store
	engine      *stubEngine
	competitors *fakeCompetitorRepo
	matches     *fakeMatchRepo
	service     GameService
}

func newGameEnv(t *testing.T) *gameEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	competitors := newFakeCompetitorRepo()
	participants := newFakeParticipantRepo(competitors)
	tournaments := newFakeTournamentRepo()
	matches := newFakeMatchRepo()
	store := sessions.NewMemoryStore()
	analysisEngine := &stubEngine{bestMove: "e2e4", score: 0.3}

	tournamentService := NewTournamentService(
		newFakeDB(t), tournaments, participants, matches, competitors,
		NewSlogNotifier(logger), &capturePublisher{}, logger,
		rand.New(rand.NewSource(1)),
	)
	service := NewGameService(store, analysisEngine, matches, tournamentService, logger)
	return &gameEnv{
		store:       store,
		engine:      analysisEngine,
		competitors: competitors,
		matches:     matches,
		service:     service,
	}
}

func TestGameLifecycle(t *testing.T) {
	ctx := context.Background()
	env := newGameEnv(t)
	white := env.competitors.add("white", 1500, 100)
	black := env.competitors.add("black", 1500, 100)

	session, err := env.service.StartGame(ctx, white.ID, black.ID, true)
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.True(t, session.Rated)

	nextFEN := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1"
	require.NoError(t, env.service.UpdatePosition(ctx, session.ID, nextFEN))

	hint, err := env.service.Hint(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "e2e4", hint)
	assert.Equal(t, nextFEN, env.engine.lastFEN, "analysis must run on the current position")

	score, err := env.service.Evaluate(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.3, score)

	match, err := env.service.FinishGame(ctx, session.ID, models.OutcomePlayer1Wins)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusCompleted, match.Status)
	assert.Nil(t, match.TournamentID)

	// The session is gone and ratings moved for the rated game.
	_, ok := env.store.Get(session.ID)
	assert.False(t, ok)

	winner, err := env.competitors.GetByID(ctx, white.ID)
	require.NoError(t, err)
	assert.Greater(t, winner.Rating, 1500)
	assert.Equal(t, 101, winner.GamesPlayed)
}

func TestGameSessionErrors(t *testing.T) {
	ctx := context.Background()
	env := newGameEnv(t)

	assert.ErrorIs(t, env.service.UpdatePosition(ctx, "missing", "fen"), ErrSessionNotFound)

	_, err := env.service.Hint(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = env.service.Evaluate(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = env.service.FinishGame(ctx, "missing", models.OutcomeDraw)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = env.service.FinishGame(ctx, "missing", models.MatchOutcome("resignation"))
	assert.ErrorIs(t, err, ErrInvalidOutcome)
}
