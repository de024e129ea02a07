package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/arenaline/chess-arena/models"
	"github.com/lib/pq"
)

var (
	ErrParticipantNotFound = errors.New("participant not found")
	ErrParticipantConflict = errors.New("competitor is already registered for this tournament")
)

type ParticipantRepository interface {
	Create(ctx context.Context, exec SQLExecutor, p *models.Participant) error
	FindByTournamentAndCompetitor(ctx context.Context, tournamentID, competitorID int) (*models.Participant, error)
	ListByTournament(ctx context.Context, tournamentID int, includeCompetitor bool) ([]*models.Participant, error)
	// ListSurvivors returns the non-eliminated participants: the set the next
	// round is generated over.
	ListSurvivors(ctx context.Context, tournamentID int) ([]*models.Participant, error)
	MarkEliminated(ctx context.Context, exec SQLExecutor, tournamentID, competitorID int) error
	AddScore(ctx context.Context, exec SQLExecutor, tournamentID, competitorID int, points float64) error
	SetFinalRank(ctx context.Context, exec SQLExecutor, tournamentID, competitorID, rank int) error
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresParticipantRepository) Create(ctx context.Context, exec SQLExecutor, p *models.Participant) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO participants (tournament_id, competitor_id)
		VALUES ($1, $2)
		RETURNING id, joined_at`

	err := executor.QueryRowContext(ctx, query, p.TournamentID, p.CompetitorID).Scan(&p.ID, &p.JoinedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrParticipantConflict
		}
		return fmt.Errorf("failed to create participant: %w", err)
	}
	return nil
}

func (r *postgresParticipantRepository) FindByTournamentAndCompetitor(ctx context.Context, tournamentID, competitorID int) (*models.Participant, error) {
	query := `
		SELECT id, tournament_id, competitor_id, eliminated, score, final_rank, joined_at
		FROM participants
		WHERE tournament_id = $1 AND competitor_id = $2`

	p := &models.Participant{}
	err := r.db.QueryRowContext(ctx, query, tournamentID, competitorID).Scan(
		&p.ID, &p.TournamentID, &p.CompetitorID, &p.Eliminated, &p.Score, &p.FinalRank, &p.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to find participant: %w", err)
	}
	return p, nil
}

func (r *postgresParticipantRepository) list(ctx context.Context, tournamentID int, onlySurvivors, includeCompetitor bool) ([]*models.Participant, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT p.id, p.tournament_id, p.competitor_id, p.eliminated, p.score, p.final_rank, p.joined_at`)
	if includeCompetitor {
		queryBuilder.WriteString(`,
			c.id, c.username, c.rating, c.games_played, c.wins, c.losses, c.draws`)
	}
	queryBuilder.WriteString(`
		FROM participants p`)
	if includeCompetitor {
		queryBuilder.WriteString(`
		JOIN competitors c ON p.competitor_id = c.id`)
	}
	queryBuilder.WriteString(` WHERE p.tournament_id = $1`)
	if onlySurvivors {
		queryBuilder.WriteString(` AND p.eliminated = FALSE`)
	}
	queryBuilder.WriteString(` ORDER BY p.joined_at ASC, p.id ASC`)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	participants := make([]*models.Participant, 0)
	for rows.Next() {
		var p models.Participant
		scanDest := []interface{}{&p.ID, &p.TournamentID, &p.CompetitorID, &p.Eliminated, &p.Score, &p.FinalRank, &p.JoinedAt}
		var c models.Competitor
		if includeCompetitor {
			scanDest = append(scanDest, &c.ID, &c.Username, &c.Rating, &c.GamesPlayed, &c.Wins, &c.Losses, &c.Draws)
		}
		if scanErr := rows.Scan(scanDest...); scanErr != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", scanErr)
		}
		if includeCompetitor {
			p.Competitor = &c
		}
		participants = append(participants, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participant rows: %w", err)
	}
	return participants, nil
}

func (r *postgresParticipantRepository) ListByTournament(ctx context.Context, tournamentID int, includeCompetitor bool) ([]*models.Participant, error) {
	return r.list(ctx, tournamentID, false, includeCompetitor)
}

func (r *postgresParticipantRepository) ListSurvivors(ctx context.Context, tournamentID int) ([]*models.Participant, error) {
	return r.list(ctx, tournamentID, true, false)
}

func (r *postgresParticipantRepository) MarkEliminated(ctx context.Context, exec SQLExecutor, tournamentID, competitorID int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE participants SET eliminated = TRUE WHERE tournament_id = $1 AND competitor_id = $2`
	result, err := executor.ExecContext(ctx, query, tournamentID, competitorID)
	if err != nil {
		return fmt.Errorf("failed to mark participant eliminated: %w", err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) AddScore(ctx context.Context, exec SQLExecutor, tournamentID, competitorID int, points float64) error {
	executor := r.getExecutor(exec)
	query := `UPDATE participants SET score = score + $1 WHERE tournament_id = $2 AND competitor_id = $3`
	result, err := executor.ExecContext(ctx, query, points, tournamentID, competitorID)
	if err != nil {
		return fmt.Errorf("failed to add participant score: %w", err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) SetFinalRank(ctx context.Context, exec SQLExecutor, tournamentID, competitorID, rank int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE participants SET final_rank = $1 WHERE tournament_id = $2 AND competitor_id = $3`
	result, err := executor.ExecContext(ctx, query, rank, tournamentID, competitorID)
	if err != nil {
		return fmt.Errorf("failed to set participant final rank: %w", err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}
