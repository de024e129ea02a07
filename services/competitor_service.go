package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/arenaline/chess-arena/models"
	"github.com/arenaline/chess-arena/repositories"
	"github.com/arenaline/chess-arena/storage"
)

var ErrUnsupportedAvatarType = errors.New("unsupported avatar content type")

type CompetitorService interface {
	Get(ctx context.Context, id int) (*models.Competitor, error)
	Leaderboard(ctx context.Context, limit, offset int) ([]models.Competitor, error)
	UploadAvatar(ctx context.Context, id int, contentType string, reader io.Reader) (*models.Competitor, error)
}

type competitorService struct {
	competitorRepo repositories.CompetitorRepository
	uploader       storage.FileUploader
}

func NewCompetitorService(competitorRepo repositories.CompetitorRepository, uploader storage.FileUploader) CompetitorService {
	return &competitorService{competitorRepo: competitorRepo, uploader: uploader}
}

func (s *competitorService) Get(ctx context.Context, id int) (*models.Competitor, error) {
	competitor, err := s.competitorRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitorNotFound) {
			return nil, ErrCompetitorNotFound
		}
		return nil, err
	}
	competitor.PasswordHash = ""
	s.populateAvatarURL(competitor)
	return competitor, nil
}

func (s *competitorService) Leaderboard(ctx context.Context, limit, offset int) ([]models.Competitor, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	competitors, err := s.competitorRepo.ListByRating(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	for i := range competitors {
		competitors[i].PasswordHash = ""
		s.populateAvatarURL(&competitors[i])
	}
	return competitors, nil
}

func (s *competitorService) UploadAvatar(ctx context.Context, id int, contentType string, reader io.Reader) (*models.Competitor, error) {
	competitor, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	ext, err := extensionForContentType(contentType)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("avatars/%d%s", id, ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, reader); err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	if err := s.competitorRepo.UpdateAvatarKey(ctx, id, &key); err != nil {
		return nil, err
	}
	competitor.AvatarKey = &key
	s.populateAvatarURL(competitor)
	return competitor, nil
}

func (s *competitorService) populateAvatarURL(c *models.Competitor) {
	if c.AvatarKey == nil || *c.AvatarKey == "" || s.uploader == nil {
		return
	}
	if url := s.uploader.GetPublicURL(*c.AvatarKey); url != "" {
		c.AvatarURL = &url
	}
}

func extensionForContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/webp":
		return ".webp", nil
	default:
		if strings.HasPrefix(contentType, "image/") {
			parts := strings.SplitN(contentType, "/", 2)
			return "." + strings.Split(parts[1], "+")[0], nil
		}
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAvatarType, contentType)
	}
}
