package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/arenaline/chess-arena/models"
)

var (
	ErrTournamentNotFound = errors.New("tournament not found")
	// ErrCapacityGuardFailed reports that the conditional participant
	// increment matched no row: the tournament is missing, not open for
	// registration, or already at capacity. Callers re-read the row to tell
	// the cases apart.
	ErrCapacityGuardFailed = errors.New("participant increment guard matched no row")
	// ErrStatusGuardFailed reports that a status-guarded transition matched no
	// row because the tournament is no longer in the required status, e.g. a
	// concurrent caller already started it.
	ErrStatusGuardFailed = errors.New("tournament status guard matched no row")
)

type ListTournamentsFilter struct {
	Status *models.TournamentStatus
	Format *models.TournamentFormat
	Limit  int
	Offset int
}

type TournamentRepository interface {
	Create(ctx context.Context, t *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	// IncrementParticipants performs the atomic check-and-increment guarding
	// the participant cap. It returns the new participant count, or
	// ErrCapacityGuardFailed without mutating anything.
	IncrementParticipants(ctx context.Context, exec SQLExecutor, id int) (int, error)
	MarkStarted(ctx context.Context, exec SQLExecutor, id int, startedAt time.Time) error
	SetCurrentRound(ctx context.Context, exec SQLExecutor, id int, round int) error
	MarkCompleted(ctx context.Context, exec SQLExecutor, id int, winnerID *int, endedAt time.Time) error
	MarkCancelled(ctx context.Context, id int, endedAt time.Time) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `
	id, name, creator_id, status,
	max_participants, format, time_control, is_rated, auto_start, auto_advance,
	current_participants, current_round, scheduled_start, winner_id,
	created_at, started_at, ended_at`

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (
			name, creator_id, status,
			max_participants, format, time_control, is_rated, auto_start, auto_advance,
			scheduled_start
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		t.Name, t.CreatorID, t.Status,
		t.Settings.MaxParticipants, t.Settings.Format, t.Settings.TimeControl,
		t.Settings.IsRated, t.Settings.AutoStart, t.Settings.AutoAdvance,
		t.ScheduledStart,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create tournament: %w", err)
	}
	return nil
}

func scanTournament(scanner interface{ Scan(dest ...interface{}) error }, t *models.Tournament) error {
	return scanner.Scan(
		&t.ID, &t.Name, &t.CreatorID, &t.Status,
		&t.Settings.MaxParticipants, &t.Settings.Format, &t.Settings.TimeControl,
		&t.Settings.IsRated, &t.Settings.AutoStart, &t.Settings.AutoAdvance,
		&t.CurrentParticipants, &t.CurrentRound, &t.ScheduledStart, &t.WinnerID,
		&t.CreatedAt, &t.StartedAt, &t.EndedAt,
	)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	t := &models.Tournament{}
	if err := scanTournament(r.db.QueryRowContext(ctx, query, id), t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament %d: %w", id, err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE 1=1`
	args := []interface{}{}
	argID := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}
	if filter.Format != nil {
		query += fmt.Sprintf(" AND format = $%d", argID)
		args = append(args, *filter.Format)
		argID++
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if scanErr := scanTournament(rows, &t); scanErr != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", scanErr)
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tournament rows: %w", err)
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) IncrementParticipants(ctx context.Context, exec SQLExecutor, id int) (int, error) {
	executor := r.getExecutor(exec)
	// Single conditional read-modify-write: concurrent joins serialize on the
	// row and the guard keeps current_participants <= max_participants.
	query := `
		UPDATE tournaments
		SET current_participants = current_participants + 1
		WHERE id = $1
		  AND status = $2
		  AND current_participants < max_participants
		RETURNING current_participants`

	var count int
	err := executor.QueryRowContext(ctx, query, id, models.StatusUpcoming).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrCapacityGuardFailed
		}
		return 0, fmt.Errorf("failed to increment participants for tournament %d: %w", id, err)
	}
	return count, nil
}

func (r *postgresTournamentRepository) MarkStarted(ctx context.Context, exec SQLExecutor, id int, startedAt time.Time) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE tournaments
		SET status = $1, started_at = $2, current_round = 1
		WHERE id = $3 AND status = $4`

	result, err := executor.ExecContext(ctx, query, models.StatusActive, startedAt, id, models.StatusUpcoming)
	if err != nil {
		return fmt.Errorf("failed to mark tournament %d started: %w", id, err)
	}
	return r.checkStatusGuard(ctx, result, id)
}

// checkStatusGuard tells a missing tournament apart from a lost status race
// after a status-guarded update matched no row.
func (r *postgresTournamentRepository) checkStatusGuard(ctx context.Context, result sql.Result, id int) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return ErrStatusGuardFailed
	}
	return nil
}

func (r *postgresTournamentRepository) SetCurrentRound(ctx context.Context, exec SQLExecutor, id int, round int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournaments SET current_round = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, round, id)
	if err != nil {
		return fmt.Errorf("failed to set current round for tournament %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) MarkCompleted(ctx context.Context, exec SQLExecutor, id int, winnerID *int, endedAt time.Time) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE tournaments
		SET status = $1, winner_id = $2, ended_at = $3
		WHERE id = $4 AND status = $5`

	result, err := executor.ExecContext(ctx, query, models.StatusCompleted, winnerID, endedAt, id, models.StatusActive)
	if err != nil {
		return fmt.Errorf("failed to mark tournament %d completed: %w", id, err)
	}
	return r.checkStatusGuard(ctx, result, id)
}

func (r *postgresTournamentRepository) MarkCancelled(ctx context.Context, id int, endedAt time.Time) error {
	query := `
		UPDATE tournaments
		SET status = $1, ended_at = $2
		WHERE id = $3 AND status IN ($4, $5)`

	result, err := r.db.ExecContext(ctx, query,
		models.StatusCancelled, endedAt, id, models.StatusUpcoming, models.StatusActive)
	if err != nil {
		return fmt.Errorf("failed to mark tournament %d cancelled: %w", id, err)
	}
	return r.checkStatusGuard(ctx, result, id)
}
