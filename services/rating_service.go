package services

import (
	"context"
	"errors"

	"github.com/arenaline/chess-arena/models"
	"github.com/arenaline/chess-arena/ratings"
	"github.com/arenaline/chess-arena/repositories"
)

// RatingPreview answers "what would my rating become if this game ended with
// this outcome" without touching any persisted state.
type RatingPreview struct {
	CompetitorRating int            `json:"competitor_rating"`
	OpponentRating   int            `json:"opponent_rating"`
	ExpectedScore    float64        `json:"expected_score"`
	Result           ratings.Result `json:"result"`
}

type RatingService interface {
	Preview(ctx context.Context, competitorID, opponentID int, outcome models.MatchOutcome) (*RatingPreview, error)
	Reliability(ctx context.Context, competitorID int, recentVariance float64) (*ratings.Reliability, error)
	RequiredRating(opponentRating int, targetScore float64) (int, error)
	Performance(results []ratings.GameResult) int
}

type ratingService struct {
	competitorRepo repositories.CompetitorRepository
}

func NewRatingService(competitorRepo repositories.CompetitorRepository) RatingService {
	return &ratingService{competitorRepo: competitorRepo}
}

func (s *ratingService) Preview(ctx context.Context, competitorID, opponentID int, outcome models.MatchOutcome) (*RatingPreview, error) {
	if !outcome.Valid() {
		return nil, ErrInvalidOutcome
	}

	competitor, err := s.getCompetitor(ctx, competitorID)
	if err != nil {
		return nil, err
	}
	opponent, err := s.getCompetitor(ctx, opponentID)
	if err != nil {
		return nil, err
	}

	result := ratings.ApplyResult(
		competitor.Rating, opponent.Rating,
		competitor.GamesPlayed, opponent.GamesPlayed,
		outcome, ratings.Options{},
	)
	return &RatingPreview{
		CompetitorRating: competitor.Rating,
		OpponentRating:   opponent.Rating,
		ExpectedScore:    ratings.ExpectedScore(competitor.Rating, opponent.Rating),
		Result:           result,
	}, nil
}

func (s *ratingService) Reliability(ctx context.Context, competitorID int, recentVariance float64) (*ratings.Reliability, error) {
	competitor, err := s.getCompetitor(ctx, competitorID)
	if err != nil {
		return nil, err
	}
	reliability := ratings.RatingReliability(competitor.GamesPlayed, recentVariance)
	return &reliability, nil
}

func (s *ratingService) RequiredRating(opponentRating int, targetScore float64) (int, error) {
	required, err := ratings.RequiredRating(opponentRating, targetScore)
	if err != nil {
		if errors.Is(err, ratings.ErrInvalidTargetScore) {
			return 0, ErrInvalidTargetScore
		}
		return 0, err
	}
	return required, nil
}

func (s *ratingService) Performance(results []ratings.GameResult) int {
	return ratings.PerformanceRating(results)
}

func (s *ratingService) getCompetitor(ctx context.Context, id int) (*models.Competitor, error) {
	competitor, err := s.competitorRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitorNotFound) {
			return nil, ErrCompetitorNotFound
		}
		return nil, err
	}
	return competitor, nil
}
