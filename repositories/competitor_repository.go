package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/arenaline/chess-arena/models"
	"github.com/lib/pq"
)

var (
	ErrCompetitorNotFound         = errors.New("competitor not found")
	ErrCompetitorEmailConflict    = errors.New("email address is already in use")
	ErrCompetitorUsernameConflict = errors.New("username is already in use")
)

// GameCounters describes which win/loss/draw counter a finished game bumps.
type GameCounters struct {
	Wins   int
	Losses int
	Draws  int
}

type CompetitorRepository interface {
	Create(ctx context.Context, c *models.Competitor) error
	GetByID(ctx context.Context, id int) (*models.Competitor, error)
	// GetForUpdate reads a competitor through the transaction executor with a
	// row lock, so concurrent rating writes for the same competitor serialize
	// instead of overwriting each other.
	GetForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Competitor, error)
	GetByEmail(ctx context.Context, email string) (*models.Competitor, error)
	ListByRating(ctx context.Context, limit, offset int) ([]models.Competitor, error)
	// ApplyGameResult writes the new rating and bumps games_played plus the
	// matching outcome counter in a single statement.
	ApplyGameResult(ctx context.Context, exec SQLExecutor, id int, newRating int, counters GameCounters) error
	UpdateAvatarKey(ctx context.Context, id int, avatarKey *string) error
}

type postgresCompetitorRepository struct {
	db *sql.DB
}

func NewPostgresCompetitorRepository(db *sql.DB) CompetitorRepository {
	return &postgresCompetitorRepository{db: db}
}

func (r *postgresCompetitorRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const competitorColumns = `id, username, email, password_hash, rating, games_played, wins, losses, draws, avatar_key, created_at`

func (r *postgresCompetitorRepository) Create(ctx context.Context, c *models.Competitor) error {
	query := `
		INSERT INTO competitors (username, email, password_hash, rating, games_played, wins, losses, draws)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		c.Username, c.Email, c.PasswordHash, c.Rating, c.GamesPlayed, c.Wins, c.Losses, c.Draws,
	).Scan(&c.ID, &c.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			switch pqErr.Constraint {
			case "competitors_email_key":
				return ErrCompetitorEmailConflict
			case "competitors_username_key":
				return ErrCompetitorUsernameConflict
			}
		}
		return fmt.Errorf("failed to create competitor: %w", err)
	}
	return nil
}

func (r *postgresCompetitorRepository) scanCompetitor(row *sql.Row) (*models.Competitor, error) {
	c := &models.Competitor{}
	err := row.Scan(
		&c.ID, &c.Username, &c.Email, &c.PasswordHash,
		&c.Rating, &c.GamesPlayed, &c.Wins, &c.Losses, &c.Draws,
		&c.AvatarKey, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCompetitorNotFound
		}
		return nil, fmt.Errorf("failed to scan competitor: %w", err)
	}
	return c, nil
}

func (r *postgresCompetitorRepository) GetByID(ctx context.Context, id int) (*models.Competitor, error) {
	query := `SELECT ` + competitorColumns + ` FROM competitors WHERE id = $1`
	return r.scanCompetitor(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresCompetitorRepository) GetForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Competitor, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + competitorColumns + ` FROM competitors WHERE id = $1 FOR UPDATE`
	return r.scanCompetitor(executor.QueryRowContext(ctx, query, id))
}

func (r *postgresCompetitorRepository) GetByEmail(ctx context.Context, email string) (*models.Competitor, error) {
	query := `SELECT ` + competitorColumns + ` FROM competitors WHERE email = $1`
	return r.scanCompetitor(r.db.QueryRowContext(ctx, query, email))
}

func (r *postgresCompetitorRepository) ListByRating(ctx context.Context, limit, offset int) ([]models.Competitor, error) {
	query := `SELECT ` + competitorColumns + `
		FROM competitors
		ORDER BY rating DESC, games_played DESC, id ASC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitors by rating: %w", err)
	}
	defer rows.Close()

	competitors := make([]models.Competitor, 0)
	for rows.Next() {
		var c models.Competitor
		if scanErr := rows.Scan(
			&c.ID, &c.Username, &c.Email, &c.PasswordHash,
			&c.Rating, &c.GamesPlayed, &c.Wins, &c.Losses, &c.Draws,
			&c.AvatarKey, &c.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan competitor row: %w", scanErr)
		}
		competitors = append(competitors, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating competitor rows: %w", err)
	}
	return competitors, nil
}

func (r *postgresCompetitorRepository) ApplyGameResult(ctx context.Context, exec SQLExecutor, id int, newRating int, counters GameCounters) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE competitors
		SET rating = $1,
		    games_played = games_played + 1,
		    wins = wins + $2,
		    losses = losses + $3,
		    draws = draws + $4
		WHERE id = $5`

	result, err := executor.ExecContext(ctx, query, newRating, counters.Wins, counters.Losses, counters.Draws, id)
	if err != nil {
		return fmt.Errorf("failed to apply game result for competitor %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrCompetitorNotFound)
}

func (r *postgresCompetitorRepository) UpdateAvatarKey(ctx context.Context, id int, avatarKey *string) error {
	query := `UPDATE competitors SET avatar_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, avatarKey, id)
	if err != nil {
		return fmt.Errorf("failed to update competitor avatar key: %w", err)
	}
	return checkAffectedRows(result, ErrCompetitorNotFound)
}
