package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arenaline/chess-arena/models"
	"github.com/arenaline/chess-arena/repositories"
)

// The service manages transactions through *sql.DB, but the in-memory fakes
// below ignore the executor they are handed. A no-op driver gives the service
// real transaction objects whose Begin/Commit/Rollback always succeed.
type noopDriver struct{}

func (noopDriver) Open(string) (driver.Conn, error) { return &noopConn{}, nil }

type noopConn struct{}

func (*noopConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (*noopConn) Close() error                        { return nil }
func (*noopConn) Begin() (driver.Tx, error)           { return noopTx{}, nil }

type noopTx struct{}

func (noopTx) Commit() error   { return nil }
func (noopTx) Rollback() error { return nil }

var registerDriverOnce sync.Once

func newFakeDB(t *testing.T) *sql.DB {
	t.Helper()
	registerDriverOnce.Do(func() { sql.Register("noop", noopDriver{}) })
	db, err := sql.Open("noop", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type fakeCompetitorRepo struct {
	mu          sync.Mutex
	seq         int
	competitors map[int]*models.Competitor
	lockedReads int
}

func newFakeCompetitorRepo() *fakeCompetitorRepo {
	return &fakeCompetitorRepo{competitors: make(map[int]*models.Competitor)}
}

func (r *fakeCompetitorRepo) add(username string, rating, gamesPlayed int) *models.Competitor {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	c := &models.Competitor{
		ID:          r.seq,
		Username:    username,
		Email:       username + "@example.com",
		Rating:      rating,
		GamesPlayed: gamesPlayed,
		CreatedAt:   time.Now(),
	}
	r.competitors[c.ID] = c
	return c
}

func (r *fakeCompetitorRepo) Create(ctx context.Context, c *models.Competitor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.competitors {
		if existing.Email == c.Email {
			return repositories.ErrCompetitorEmailConflict
		}
		if existing.Username == c.Username {
			return repositories.ErrCompetitorUsernameConflict
		}
	}
	r.seq++
	c.ID = r.seq
	copied := *c
	r.competitors[c.ID] = &copied
	return nil
}

func (r *fakeCompetitorRepo) GetByID(ctx context.Context, id int) (*models.Competitor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.competitors[id]
	if !ok {
		return nil, repositories.ErrCompetitorNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *fakeCompetitorRepo) GetForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Competitor, error) {
	r.mu.Lock()
	if exec != nil {
		r.lockedReads++
	}
	r.mu.Unlock()
	return r.GetByID(ctx, id)
}

func (r *fakeCompetitorRepo) GetByEmail(ctx context.Context, email string) (*models.Competitor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.competitors {
		if c.Email == email {
			copied := *c
			return &copied, nil
		}
	}
	return nil, repositories.ErrCompetitorNotFound
}

func (r *fakeCompetitorRepo) ListByRating(ctx context.Context, limit, offset int) ([]models.Competitor, error) {
	return nil, nil
}

func (r *fakeCompetitorRepo) ApplyGameResult(ctx context.Context, exec repositories.SQLExecutor, id int, newRating int, counters repositories.GameCounters) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.competitors[id]
	if !ok {
		return repositories.ErrCompetitorNotFound
	}
	c.Rating = newRating
	c.GamesPlayed++
	c.Wins += counters.Wins
	c.Losses += counters.Losses
	c.Draws += counters.Draws
	return nil
}

func (r *fakeCompetitorRepo) UpdateAvatarKey(ctx context.Context, id int, avatarKey *string) error {
	return nil
}

type fakeTournamentRepo struct {
	mu          sync.Mutex
	seq         int
	tournaments map[int]*models.Tournament
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{tournaments: make(map[int]*models.Tournament)}
}

func (r *fakeTournamentRepo) Create(ctx context.Context, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	t.ID = r.seq
	t.CreatedAt = time.Now()
	copied := *t
	r.tournaments[t.ID] = &copied
	return nil
}

func (r *fakeTournamentRepo) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTournamentRepo) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Tournament, 0)
	for _, t := range r.tournaments {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.Format != nil && t.Settings.Format != *filter.Format {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (r *fakeTournamentRepo) IncrementParticipants(ctx context.Context, exec repositories.SQLExecutor, id int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok || t.Status != models.StatusUpcoming || t.CurrentParticipants >= t.Settings.MaxParticipants {
		return 0, repositories.ErrCapacityGuardFailed
	}
	t.CurrentParticipants++
	return t.CurrentParticipants, nil
}

func (r *fakeTournamentRepo) MarkStarted(ctx context.Context, exec repositories.SQLExecutor, id int, startedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	if t.Status != models.StatusUpcoming {
		return repositories.ErrStatusGuardFailed
	}
	t.Status = models.StatusActive
	t.StartedAt = &startedAt
	t.CurrentRound = 1
	return nil
}

func (r *fakeTournamentRepo) SetCurrentRound(ctx context.Context, exec repositories.SQLExecutor, id int, round int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.CurrentRound = round
	return nil
}

func (r *fakeTournamentRepo) MarkCompleted(ctx context.Context, exec repositories.SQLExecutor, id int, winnerID *int, endedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	if t.Status != models.StatusActive {
		return repositories.ErrStatusGuardFailed
	}
	t.Status = models.StatusCompleted
	t.WinnerID = winnerID
	t.EndedAt = &endedAt
	return nil
}

func (r *fakeTournamentRepo) MarkCancelled(ctx context.Context, id int, endedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	if t.Status != models.StatusUpcoming && t.Status != models.StatusActive {
		return repositories.ErrStatusGuardFailed
	}
	t.Status = models.StatusCancelled
	t.EndedAt = &endedAt
	return nil
}

type fakeParticipantRepo struct {
	mu           sync.Mutex
	seq          int
	participants []*models.Participant
	competitors  *fakeCompetitorRepo
}

func newFakeParticipantRepo(competitors *fakeCompetitorRepo) *fakeParticipantRepo {
	return &fakeParticipantRepo{competitors: competitors}
}

func (r *fakeParticipantRepo) find(tournamentID, competitorID int) *models.Participant {
	for _, p := range r.participants {
		if p.TournamentID == tournamentID && p.CompetitorID == competitorID {
			return p
		}
	}
	return nil
}

func (r *fakeParticipantRepo) Create(ctx context.Context, exec repositories.SQLExecutor, p *models.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.find(p.TournamentID, p.CompetitorID) != nil {
		return repositories.ErrParticipantConflict
	}
	r.seq++
	p.ID = r.seq
	p.JoinedAt = time.Now()
	copied := *p
	r.participants = append(r.participants, &copied)
	return nil
}

func (r *fakeParticipantRepo) FindByTournamentAndCompetitor(ctx context.Context, tournamentID, competitorID int) (*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.find(tournamentID, competitorID)
	if p == nil {
		return nil, repositories.ErrParticipantNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *fakeParticipantRepo) ListByTournament(ctx context.Context, tournamentID int, includeCompetitor bool) ([]*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Participant, 0)
	for _, p := range r.participants {
		if p.TournamentID != tournamentID {
			continue
		}
		copied := *p
		if includeCompetitor {
			if c, err := r.competitors.GetByID(ctx, p.CompetitorID); err == nil {
				copied.Competitor = c
			}
		}
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeParticipantRepo) ListSurvivors(ctx context.Context, tournamentID int) ([]*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Participant, 0)
	for _, p := range r.participants {
		if p.TournamentID == tournamentID && !p.Eliminated {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeParticipantRepo) MarkEliminated(ctx context.Context, exec repositories.SQLExecutor, tournamentID, competitorID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.find(tournamentID, competitorID)
	if p == nil {
		return repositories.ErrParticipantNotFound
	}
	p.Eliminated = true
	return nil
}

func (r *fakeParticipantRepo) AddScore(ctx context.Context, exec repositories.SQLExecutor, tournamentID, competitorID int, points float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.find(tournamentID, competitorID)
	if p == nil {
		return repositories.ErrParticipantNotFound
	}
	p.Score += points
	return nil
}

func (r *fakeParticipantRepo) SetFinalRank(ctx context.Context, exec repositories.SQLExecutor, tournamentID, competitorID, rank int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.find(tournamentID, competitorID)
	if p == nil {
		return repositories.ErrParticipantNotFound
	}
	p.FinalRank = &rank
	return nil
}

type fakeMatchRepo struct {
	mu      sync.Mutex
	seq     int
	matches map[int]*models.Match
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{matches: make(map[int]*models.Match)}
}

func (r *fakeMatchRepo) Create(ctx context.Context, exec repositories.SQLExecutor, m *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	m.ID = r.seq
	m.CreatedAt = time.Now()
	copied := *m
	r.matches[m.ID] = &copied
	return nil
}

func (r *fakeMatchRepo) GetByID(ctx context.Context, id int) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	copied := *m
	return &copied, nil
}

func (r *fakeMatchRepo) ListByTournament(ctx context.Context, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Match, 0)
	for id := 1; id <= r.seq; id++ {
		m, ok := r.matches[id]
		if !ok || m.TournamentID == nil || *m.TournamentID != tournamentID {
			continue
		}
		if round != nil && (m.Round == nil || *m.Round != *round) {
			continue
		}
		if status != nil && m.Status != *status {
			continue
		}
		copied := *m
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeMatchRepo) CountIncomplete(ctx context.Context, tournamentID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, m := range r.matches {
		if m.TournamentID != nil && *m.TournamentID == tournamentID && m.Status == models.MatchStatusScheduled {
			count++
		}
	}
	return count, nil
}

func (r *fakeMatchRepo) Complete(ctx context.Context, exec repositories.SQLExecutor, id int, outcome models.MatchOutcome, delta1, delta2 *int, completedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	if m.Status != models.MatchStatusScheduled {
		return repositories.ErrMatchAlreadyCompleted
	}
	m.Status = models.MatchStatusCompleted
	m.Outcome = &outcome
	m.RatingDelta1 = delta1
	m.RatingDelta2 = delta2
	m.CompletedAt = &completedAt
	return nil
}

type publishedEvent struct {
	TournamentID int
	Type         string
}

type capturePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *capturePublisher) Publish(tournamentID int, eventType string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{TournamentID: tournamentID, Type: eventType})
}

func (p *capturePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}
