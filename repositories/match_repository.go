package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/arenaline/chess-arena/models"
)

var (
	ErrMatchNotFound = errors.New("match not found")
	// ErrMatchAlreadyCompleted is the idempotency guard: completing an
	// already-completed match matches no row and must never re-apply deltas.
	ErrMatchAlreadyCompleted = errors.New("match is already completed")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, m *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error)
	CountIncomplete(ctx context.Context, tournamentID int) (int, error)
	// Complete records the outcome, deltas and completion flag in a single
	// conditional statement guarded on the current status.
	Complete(ctx context.Context, exec SQLExecutor, id int, outcome models.MatchOutcome, delta1, delta2 *int, completedAt time.Time) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `id, tournament_id, round, player1_id, player2_id, outcome, status, rated, rating_delta1, rating_delta2, created_at, completed_at`

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO matches (tournament_id, round, player1_id, player2_id, status, rated)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		m.TournamentID, m.Round, m.Player1ID, m.Player2ID, m.Status, m.Rated,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create match: %w", err)
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	m := &models.Match{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&m.ID, &m.TournamentID, &m.Round, &m.Player1ID, &m.Player2ID,
		&m.Outcome, &m.Status, &m.Rated, &m.RatingDelta1, &m.RatingDelta2,
		&m.CreatedAt, &m.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match %d: %w", id, err)
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1`)

	args := []interface{}{tournamentID}
	placeholderIndex := 2

	if round != nil {
		queryBuilder.WriteString(" AND round = $" + strconv.Itoa(placeholderIndex))
		args = append(args, *round)
		placeholderIndex++
	}
	if status != nil {
		queryBuilder.WriteString(" AND status = $" + strconv.Itoa(placeholderIndex))
		args = append(args, *status)
	}
	queryBuilder.WriteString(" ORDER BY round ASC, id ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		var m models.Match
		if scanErr := rows.Scan(
			&m.ID, &m.TournamentID, &m.Round, &m.Player1ID, &m.Player2ID,
			&m.Outcome, &m.Status, &m.Rated, &m.RatingDelta1, &m.RatingDelta2,
			&m.CreatedAt, &m.CompletedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, &m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match rows: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) CountIncomplete(ctx context.Context, tournamentID int) (int, error) {
	query := `SELECT COUNT(*) FROM matches WHERE tournament_id = $1 AND status = $2`
	var count int
	if err := r.db.QueryRowContext(ctx, query, tournamentID, models.MatchStatusScheduled).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count incomplete matches for tournament %d: %w", tournamentID, err)
	}
	return count, nil
}

func (r *postgresMatchRepository) Complete(ctx context.Context, exec SQLExecutor, id int, outcome models.MatchOutcome, delta1, delta2 *int, completedAt time.Time) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE matches
		SET outcome = $1, status = $2, rating_delta1 = $3, rating_delta2 = $4, completed_at = $5
		WHERE id = $6 AND status = $7`

	result, err := executor.ExecContext(ctx, query,
		outcome, models.MatchStatusCompleted, delta1, delta2, completedAt,
		id, models.MatchStatusScheduled,
	)
	if err != nil {
		return fmt.Errorf("failed to complete match %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		// Distinguish a replay from an unknown match id.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return ErrMatchAlreadyCompleted
	}
	return nil
}
