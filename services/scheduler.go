package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arenaline/chess-arena/models"
	"github.com/arenaline/chess-arena/repositories"
	"github.com/go-co-op/gocron/v2"
)

// SchedulerConfig describes the recurring tournament the scheduler creates
// and how often it sweeps active tournaments for missed round completions.
type SchedulerConfig struct {
	SweepInterval time.Duration
	// DailyCron is a 5-field cron expression for recurring tournament
	// creation, e.g. "0 18 * * *" for 18:00 every day.
	DailyCron     string
	DailySettings models.TournamentSettings
	CreatorID     int
}

// Scheduler is a pure trigger source: it owns no domain state and only calls
// the tournament service's public operations on its ticks.
type Scheduler struct {
	cfg         SchedulerConfig
	tournaments TournamentService
	logger      *slog.Logger
	sched       gocron.Scheduler
}

func NewScheduler(cfg SchedulerConfig, tournaments TournamentService, logger *slog.Logger) (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Scheduler{
		cfg:         cfg,
		tournaments: tournaments,
		logger:      logger,
		sched:       sched,
	}, nil
}

func (s *Scheduler) Start() error {
	if _, err := s.sched.NewJob(
		gocron.DurationJob(s.cfg.SweepInterval),
		gocron.NewTask(func() { s.Sweep(context.Background()) }),
	); err != nil {
		return fmt.Errorf("failed to register sweep job: %w", err)
	}

	if s.cfg.DailyCron != "" {
		if _, err := s.sched.NewJob(
			gocron.CronJob(s.cfg.DailyCron, false),
			gocron.NewTask(func() { s.CreateRecurring(context.Background()) }),
		); err != nil {
			return fmt.Errorf("failed to register recurring tournament job: %w", err)
		}
	}

	s.sched.Start()
	s.logger.Info("scheduler started",
		slog.Duration("sweep_interval", s.cfg.SweepInterval),
		slog.String("daily_cron", s.cfg.DailyCron))
	return nil
}

func (s *Scheduler) Shutdown() error {
	return s.sched.Shutdown()
}

// Sweep starts due scheduled tournaments and re-checks round completion for
// every active one, as a fallback in case match-completion events were missed.
func (s *Scheduler) Sweep(ctx context.Context) {
	upcoming := models.StatusUpcoming
	due, err := s.tournaments.List(ctx, repositories.ListTournamentsFilter{Status: &upcoming})
	if err != nil {
		s.logger.Error("sweep: failed to list upcoming tournaments", slog.Any("error", err))
	} else {
		now := time.Now()
		for _, t := range due {
			if !t.Settings.AutoStart || t.ScheduledStart == nil || t.ScheduledStart.After(now) {
				continue
			}
			if err := s.tournaments.Start(ctx, t.ID); err != nil &&
				!errors.Is(err, ErrInsufficientParticipants) && !errors.Is(err, ErrInvalidTournamentState) {
				s.logger.Error("sweep: failed to start scheduled tournament",
					slog.Int("tournament_id", t.ID), slog.Any("error", err))
			}
		}
	}

	active := models.StatusActive
	tournaments, err := s.tournaments.List(ctx, repositories.ListTournamentsFilter{Status: &active})
	if err != nil {
		s.logger.Error("sweep: failed to list active tournaments", slog.Any("error", err))
		return
	}
	for _, t := range tournaments {
		if err := s.tournaments.CheckRoundCompletion(ctx, t.ID); err != nil &&
			!errors.Is(err, ErrInvalidTournamentState) {
			s.logger.Error("sweep: round completion check failed",
				slog.Int("tournament_id", t.ID), slog.Any("error", err))
		}
	}
}

// CreateRecurring creates the preconfigured daily tournament.
func (s *Scheduler) CreateRecurring(ctx context.Context) {
	name := fmt.Sprintf("Daily Arena %s", time.Now().Format("2006-01-02"))
	if _, err := s.tournaments.Create(ctx, CreateTournamentInput{
		Name:      name,
		CreatorID: s.cfg.CreatorID,
		Settings:  s.cfg.DailySettings,
	}); err != nil {
		s.logger.Error("failed to create recurring tournament",
			slog.String("name", name), slog.Any("error", err))
		return
	}
	s.logger.Info("recurring tournament created", slog.String("name", name))
}
