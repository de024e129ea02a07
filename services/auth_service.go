package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/arenaline/chess-arena/models"
	"github.com/arenaline/chess-arena/repositories"
	"golang.org/x/crypto/bcrypt"
)

// New accounts start at the conventional ELO midpoint.
const initialRating = 1200

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.Competitor, error)
	Login(ctx context.Context, credentials models.Credentials) (*models.Competitor, error)
}

type authService struct {
	competitorRepo repositories.CompetitorRepository
}

func NewAuthService(competitorRepo repositories.CompetitorRepository) AuthService {
	return &authService{competitorRepo: competitorRepo}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.Competitor, error) {
	if len(input.Password) < 8 {
		return nil, ErrPasswordTooShort
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	competitor := &models.Competitor{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		Rating:       initialRating,
	}
	if err := s.competitorRepo.Create(ctx, competitor); err != nil {
		switch {
		case errors.Is(err, repositories.ErrCompetitorEmailConflict):
			return nil, ErrEmailTaken
		case errors.Is(err, repositories.ErrCompetitorUsernameConflict):
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create competitor: %w", err)
	}

	competitor.PasswordHash = ""
	return competitor, nil
}

func (s *authService) Login(ctx context.Context, credentials models.Credentials) (*models.Competitor, error) {
	competitor, err := s.competitorRepo.GetByEmail(ctx, credentials.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitorNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find competitor by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(competitor.PasswordHash), []byte(credentials.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to compare password hash: %w", err)
	}

	competitor.PasswordHash = ""
	return competitor, nil
}
