package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arenaline/chess-arena/brackets"
	"github.com/arenaline/chess-arena/models"
	"github.com/arenaline/chess-arena/ratings"
	"github.com/arenaline/chess-arena/repositories"
)

// Websocket event types published on tournament rooms.
const (
	EventTournamentStarted   = "TOURNAMENT_STARTED"
	EventMatchCompleted      = "MATCH_COMPLETED"
	EventRoundAdvanced       = "ROUND_ADVANCED"
	EventTournamentCompleted = "TOURNAMENT_COMPLETED"
	EventTournamentCancelled = "TOURNAMENT_CANCELLED"
)

// EventPublisher pushes live updates to connected clients. Satisfied by
// *brackets.Hub; a no-op implementation is fine for tests.
type EventPublisher interface {
	Publish(tournamentID int, eventType string, payload interface{})
}

type CreateTournamentInput struct {
	Name           string                    `json:"name"`
	CreatorID      int                       `json:"creator_id"`
	Settings       models.TournamentSettings `json:"settings"`
	ScheduledStart *time.Time                `json:"scheduled_start,omitempty"`
}

type StandingsEntry struct {
	CompetitorID int     `json:"competitor_id"`
	Username     string  `json:"username"`
	Rating       int     `json:"rating"`
	Score        float64 `json:"score"`
	Eliminated   bool    `json:"eliminated"`
	FinalRank    *int    `json:"final_rank,omitempty"`
}

type Standings struct {
	Tournament *models.Tournament `json:"tournament"`
	Entries    []StandingsEntry   `json:"entries"`
	Matches    []*models.Match    `json:"matches"`
}

type TournamentService interface {
	Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	Get(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error)
	Join(ctx context.Context, tournamentID, competitorID int) error
	Start(ctx context.Context, tournamentID int) error
	RecordMatchOutcome(ctx context.Context, matchID int, outcome models.MatchOutcome) (*models.Match, error)
	CheckRoundCompletion(ctx context.Context, tournamentID int) error
	Cancel(ctx context.Context, tournamentID int) error
	GetStandings(ctx context.Context, tournamentID int) (*Standings, error)
}

type tournamentService struct {
	db              *sql.DB
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	competitorRepo  repositories.CompetitorRepository
	notifier        Notifier
	publisher       EventPublisher
	logger          *slog.Logger

	// Seedable source for pairing randomization; guarded because lifecycle
	// operations run concurrently (API calls plus scheduler ticks).
	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewTournamentService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	competitorRepo repositories.CompetitorRepository,
	notifier Notifier,
	publisher EventPublisher,
	logger *slog.Logger,
	rng *rand.Rand,
) TournamentService {
	return &tournamentService{
		db:              db,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		competitorRepo:  competitorRepo,
		notifier:        notifier,
		publisher:       publisher,
		logger:          logger,
		rng:             rng,
	}
}

func (s *tournamentService) Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	if err := input.Settings.Validate(); err != nil {
		return nil, err
	}
	if _, err := brackets.ForFormat(input.Settings.Format); err != nil {
		return nil, err
	}

	tournament := &models.Tournament{
		Name:           input.Name,
		CreatorID:      input.CreatorID,
		Status:         models.StatusUpcoming,
		Settings:       input.Settings,
		ScheduledStart: input.ScheduledStart,
	}
	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "tournament created",
		slog.Int("tournament_id", tournament.ID),
		slog.String("format", string(tournament.Settings.Format)))

	// Auto-start with no scheduled start (or one already past) kicks in as
	// soon as enough competitors have joined; with zero participants the
	// start attempt here can only report insufficient participants.
	if input.Settings.AutoStart && (input.ScheduledStart == nil || input.ScheduledStart.Before(time.Now())) {
		if err := s.Start(ctx, tournament.ID); err != nil && !errors.Is(err, ErrInsufficientParticipants) {
			return nil, err
		}
	}
	return tournament, nil
}

func (s *tournamentService) Get(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	return s.tournamentRepo.List(ctx, filter)
}

func (s *tournamentService) Join(ctx context.Context, tournamentID, competitorID int) error {
	if _, err := s.competitorRepo.GetByID(ctx, competitorID); err != nil {
		if errors.Is(err, repositories.ErrCompetitorNotFound) {
			return ErrCompetitorNotFound
		}
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	newCount, err := s.tournamentRepo.IncrementParticipants(ctx, tx, tournamentID)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, repositories.ErrCapacityGuardFailed) {
			return s.classifyJoinFailure(ctx, tournamentID)
		}
		return err
	}

	participant := &models.Participant{TournamentID: tournamentID, CompetitorID: competitorID}
	if err := s.participantRepo.Create(ctx, tx, participant); err != nil {
		_ = tx.Rollback()
		if errors.Is(err, repositories.ErrParticipantConflict) {
			return ErrAlreadyJoined
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit join transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "competitor joined tournament",
		slog.Int("tournament_id", tournamentID),
		slog.Int("competitor_id", competitorID),
		slog.Int("participants", newCount))

	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return err
	}
	if tournament.Settings.AutoStart && newCount >= tournament.Settings.MaxParticipants {
		if err := s.Start(ctx, tournamentID); err != nil && !errors.Is(err, ErrInvalidTournamentState) {
			return err
		}
	}
	return nil
}

// classifyJoinFailure re-reads the tournament to turn the generic capacity
// guard failure into the precise typed error.
func (s *tournamentService) classifyJoinFailure(ctx context.Context, tournamentID int) error {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}
	if tournament.Status != models.StatusUpcoming {
		return ErrInvalidTournamentState
	}
	return ErrTournamentFull
}

func (s *tournamentService) Start(ctx context.Context, tournamentID int) error {
	tournament, err := s.Get(ctx, tournamentID)
	if err != nil {
		return err
	}
	if tournament.Status != models.StatusUpcoming {
		return ErrInvalidTournamentState
	}

	participants, err := s.participantRepo.ListByTournament(ctx, tournamentID, false)
	if err != nil {
		return err
	}
	if len(participants) < 2 {
		return ErrInsufficientParticipants
	}

	seeds := s.shuffledSeeds(participants)
	generator, err := brackets.ForFormat(tournament.Settings.Format)
	if err != nil {
		return err
	}
	pairings, err := generator.Generate(ctx, seeds)
	if err != nil {
		return err
	}

	now := time.Now()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := s.tournamentRepo.MarkStarted(ctx, tx, tournamentID, now); err != nil {
		_ = tx.Rollback()
		// A concurrent caller won the start race between our status read and
		// the guarded update.
		if errors.Is(err, repositories.ErrStatusGuardFailed) {
			return ErrInvalidTournamentState
		}
		return err
	}
	created, err := s.createRoundMatches(ctx, tx, tournament, 1, pairings)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit start transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "tournament started",
		slog.Int("tournament_id", tournamentID),
		slog.Int("participants", len(participants)),
		slog.Int("round1_matches", created))

	ids := competitorIDs(participants)
	if err := s.notifier.Notify(ctx, ids,
		fmt.Sprintf("Tournament %q has started", tournament.Name),
		fmt.Sprintf("Round 1 is underway with %d players. Good luck!", len(participants)),
		map[string]string{"tournament_id": fmt.Sprint(tournamentID)},
	); err != nil {
		s.logger.WarnContext(ctx, "start notification failed", slog.Any("error", err))
	}
	s.publisher.Publish(tournamentID, EventTournamentStarted, map[string]int{"round": 1, "matches": created})
	return nil
}

// createRoundMatches persists one match per playable pairing. Byes create no
// match; the bye player simply stays alive for the next round. Returns the
// number of playable matches created.
func (s *tournamentService) createRoundMatches(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament, round int, pairings []brackets.Pairing) (int, error) {
	created := 0
	for _, pairing := range pairings {
		if pairing.IsBye {
			s.logger.DebugContext(ctx, "bye awarded",
				slog.Int("tournament_id", tournament.ID),
				slog.Int("round", round),
				slog.Int("competitor_id", pairing.Player1ID))
			continue
		}
		tid := tournament.ID
		r := round
		match := &models.Match{
			TournamentID: &tid,
			Round:        &r,
			Player1ID:    pairing.Player1ID,
			Player2ID:    pairing.Player2ID,
			Status:       models.MatchStatusScheduled,
			Rated:        tournament.Settings.IsRated,
		}
		if err := s.matchRepo.Create(ctx, exec, match); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func (s *tournamentService) RecordMatchOutcome(ctx context.Context, matchID int, outcome models.MatchOutcome) (*models.Match, error) {
	if !outcome.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOutcome, outcome)
	}

	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	if match.Status == models.MatchStatusCompleted {
		return nil, ErrMatchAlreadyCompleted
	}

	var tournament *models.Tournament
	if match.TournamentID != nil {
		tournament, err = s.Get(ctx, *match.TournamentID)
		if err != nil {
			return nil, err
		}
		if outcome == models.OutcomeDraw && tournament.Settings.Format.Elimination() {
			return nil, ErrDrawNotAllowed
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	// The conditional completion update is the idempotency guard: a replay
	// aborts here, before any rating delta is written, so the delta and the
	// completion flag always commit together.
	var delta1, delta2 *int
	if match.Rated {
		delta1, delta2, err = s.applyRatings(ctx, tx, match, outcome)
		if err != nil {
			_ = tx.Rollback()
			return nil, err
		}
	}
	if err := s.matchRepo.Complete(ctx, tx, matchID, outcome, delta1, delta2, time.Now()); err != nil {
		_ = tx.Rollback()
		if errors.Is(err, repositories.ErrMatchAlreadyCompleted) {
			return nil, ErrMatchAlreadyCompleted
		}
		return nil, err
	}

	if tournament != nil {
		if err := s.applyTournamentProgress(ctx, tx, tournament, match, outcome); err != nil {
			_ = tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit match outcome: %w", err)
	}

	updated, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}

	if tournament != nil {
		s.publisher.Publish(tournament.ID, EventMatchCompleted, updated)
		if tournament.Settings.AutoAdvance {
			if err := s.CheckRoundCompletion(ctx, tournament.ID); err != nil {
				s.logger.ErrorContext(ctx, "round completion check failed after match",
					slog.Int("tournament_id", tournament.ID), slog.Any("error", err))
			}
		}
	}
	return updated, nil
}

// applyRatings computes and persists both competitors' new ratings inside the
// caller's transaction. Returns the per-side deltas for the match record.
func (s *tournamentService) applyRatings(ctx context.Context, tx repositories.SQLExecutor, match *models.Match, outcome models.MatchOutcome) (*int, *int, error) {
	// Both rows are read under lock so simultaneous games sharing a player
	// serialize instead of losing a rating write. Ascending id order keeps
	// two such transactions from deadlocking.
	firstID, secondID := match.Player1ID, match.Player2ID
	if secondID < firstID {
		firstID, secondID = secondID, firstID
	}
	first, err := s.competitorRepo.GetForUpdate(ctx, tx, firstID)
	if err != nil {
		return nil, nil, err
	}
	second, err := s.competitorRepo.GetForUpdate(ctx, tx, secondID)
	if err != nil {
		return nil, nil, err
	}
	player1, player2 := first, second
	if player1.ID != match.Player1ID {
		player1, player2 = second, first
	}

	result := ratings.ApplyResult(
		player1.Rating, player2.Rating,
		player1.GamesPlayed, player2.GamesPlayed,
		outcome, ratings.Options{},
	)

	counters1, counters2 := outcomeCounters(outcome)
	if err := s.competitorRepo.ApplyGameResult(ctx, tx, player1.ID, result.NewRatingA, counters1); err != nil {
		return nil, nil, err
	}
	if err := s.competitorRepo.ApplyGameResult(ctx, tx, player2.ID, result.NewRatingB, counters2); err != nil {
		return nil, nil, err
	}
	return &result.DeltaA, &result.DeltaB, nil
}

func outcomeCounters(outcome models.MatchOutcome) (repositories.GameCounters, repositories.GameCounters) {
	switch outcome {
	case models.OutcomePlayer1Wins:
		return repositories.GameCounters{Wins: 1}, repositories.GameCounters{Losses: 1}
	case models.OutcomePlayer2Wins:
		return repositories.GameCounters{Losses: 1}, repositories.GameCounters{Wins: 1}
	default:
		return repositories.GameCounters{Draws: 1}, repositories.GameCounters{Draws: 1}
	}
}

// applyTournamentProgress updates participant scores and, for elimination
// formats, knocks the loser out.
func (s *tournamentService) applyTournamentProgress(ctx context.Context, tx repositories.SQLExecutor, tournament *models.Tournament, match *models.Match, outcome models.MatchOutcome) error {
	switch outcome {
	case models.OutcomePlayer1Wins:
		if err := s.participantRepo.AddScore(ctx, tx, tournament.ID, match.Player1ID, 1); err != nil {
			return err
		}
		if tournament.Settings.Format.Elimination() {
			return s.participantRepo.MarkEliminated(ctx, tx, tournament.ID, match.Player2ID)
		}
	case models.OutcomePlayer2Wins:
		if err := s.participantRepo.AddScore(ctx, tx, tournament.ID, match.Player2ID, 1); err != nil {
			return err
		}
		if tournament.Settings.Format.Elimination() {
			return s.participantRepo.MarkEliminated(ctx, tx, tournament.ID, match.Player1ID)
		}
	case models.OutcomeDraw:
		if err := s.participantRepo.AddScore(ctx, tx, tournament.ID, match.Player1ID, 0.5); err != nil {
			return err
		}
		return s.participantRepo.AddScore(ctx, tx, tournament.ID, match.Player2ID, 0.5)
	}
	return nil
}

func (s *tournamentService) CheckRoundCompletion(ctx context.Context, tournamentID int) error {
	tournament, err := s.Get(ctx, tournamentID)
	if err != nil {
		return err
	}
	if tournament.Status != models.StatusActive {
		return ErrInvalidTournamentState
	}

	outstanding, err := s.matchRepo.CountIncomplete(ctx, tournamentID)
	if err != nil {
		return err
	}
	if outstanding > 0 {
		return nil
	}

	survivors, err := s.participantRepo.ListSurvivors(ctx, tournamentID)
	if err != nil {
		return err
	}

	switch {
	case len(survivors) == 0:
		// Defensive: everyone eliminated means there is nobody to pair.
		return s.complete(ctx, tournament, nil)
	case len(survivors) == 1:
		winnerID := survivors[0].CompetitorID
		return s.complete(ctx, tournament, &winnerID)
	}

	if s.seriesFinished(tournament, len(survivors)) {
		winnerID := topScorer(survivors)
		return s.complete(ctx, tournament, &winnerID)
	}

	return s.advanceRound(ctx, tournament, survivors)
}

// seriesFinished reports whether a non-elimination tournament has run its
// course: round robin emits every pairing up front, so one completed round is
// the whole event; swiss plays ceil(log2(n)) rounds.
func (s *tournamentService) seriesFinished(tournament *models.Tournament, survivorCount int) bool {
	switch tournament.Settings.Format {
	case models.FormatRoundRobin:
		return true
	case models.FormatSwiss:
		maxRounds := int(math.Ceil(math.Log2(float64(survivorCount))))
		return tournament.CurrentRound >= maxRounds
	default:
		return false
	}
}

func (s *tournamentService) advanceRound(ctx context.Context, tournament *models.Tournament, survivors []*models.Participant) error {
	generator, err := brackets.ForFormat(tournament.Settings.Format)
	if err != nil {
		return err
	}
	seeds := s.shuffledSeeds(survivors)
	pairings, err := generator.Generate(ctx, seeds)
	if err != nil {
		return err
	}

	playable := 0
	for _, p := range pairings {
		if !p.IsBye {
			playable++
		}
	}
	// A round of nothing but byes cannot make progress; with two or more
	// survivors the generators always produce at least one playable match,
	// but guard directly rather than loop forever.
	if playable == 0 {
		winnerID := survivors[0].CompetitorID
		s.logger.WarnContext(ctx, "generated round had no playable matches, completing tournament",
			slog.Int("tournament_id", tournament.ID))
		return s.complete(ctx, tournament, &winnerID)
	}

	nextRound := tournament.CurrentRound + 1
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if _, err := s.createRoundMatches(ctx, tx, tournament, nextRound, pairings); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := s.tournamentRepo.SetCurrentRound(ctx, tx, tournament.ID, nextRound); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit round advance: %w", err)
	}

	s.logger.InfoContext(ctx, "round advanced",
		slog.Int("tournament_id", tournament.ID),
		slog.Int("round", nextRound),
		slog.Int("matches", playable))

	ids := competitorIDs(survivors)
	if err := s.notifier.Notify(ctx, ids,
		fmt.Sprintf("Round %d of %q is ready", nextRound, tournament.Name),
		fmt.Sprintf("%d matches have been paired. Check your board!", playable),
		map[string]string{"tournament_id": fmt.Sprint(tournament.ID)},
	); err != nil {
		s.logger.WarnContext(ctx, "round notification failed", slog.Any("error", err))
	}
	s.publisher.Publish(tournament.ID, EventRoundAdvanced, map[string]int{"round": nextRound, "matches": playable})
	return nil
}

func (s *tournamentService) complete(ctx context.Context, tournament *models.Tournament, winnerID *int) error {
	participants, err := s.participantRepo.ListByTournament(ctx, tournament.ID, false)
	if err != nil {
		return err
	}

	now := time.Now()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := s.tournamentRepo.MarkCompleted(ctx, tx, tournament.ID, winnerID, now); err != nil {
		_ = tx.Rollback()
		if errors.Is(err, repositories.ErrStatusGuardFailed) {
			return ErrInvalidTournamentState
		}
		return err
	}
	for i, p := range rankParticipants(participants, winnerID) {
		if err := s.participantRepo.SetFinalRank(ctx, tx, tournament.ID, p.CompetitorID, i+1); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tournament completion: %w", err)
	}

	s.logger.InfoContext(ctx, "tournament completed",
		slog.Int("tournament_id", tournament.ID),
		slog.Any("winner_id", winnerID))

	body := "The tournament has finished."
	if winnerID != nil {
		if winner, err := s.competitorRepo.GetByID(ctx, *winnerID); err == nil {
			body = fmt.Sprintf("Congratulations to %s, the tournament winner!", winner.Username)
		}
	}
	ids := competitorIDs(participants)
	if err := s.notifier.Notify(ctx, ids,
		fmt.Sprintf("Tournament %q completed", tournament.Name), body,
		map[string]string{"tournament_id": fmt.Sprint(tournament.ID)},
	); err != nil {
		s.logger.WarnContext(ctx, "completion notification failed", slog.Any("error", err))
	}
	s.publisher.Publish(tournament.ID, EventTournamentCompleted, map[string]interface{}{"winner_id": winnerID})
	return nil
}

func (s *tournamentService) Cancel(ctx context.Context, tournamentID int) error {
	tournament, err := s.Get(ctx, tournamentID)
	if err != nil {
		return err
	}
	if tournament.Status != models.StatusUpcoming && tournament.Status != models.StatusActive {
		return ErrInvalidTournamentState
	}

	// Ratings already applied for played matches stay as they are.
	if err := s.tournamentRepo.MarkCancelled(ctx, tournamentID, time.Now()); err != nil {
		if errors.Is(err, repositories.ErrStatusGuardFailed) {
			return ErrInvalidTournamentState
		}
		return err
	}

	s.logger.InfoContext(ctx, "tournament cancelled", slog.Int("tournament_id", tournamentID))

	participants, err := s.participantRepo.ListByTournament(ctx, tournamentID, false)
	if err == nil && len(participants) > 0 {
		if notifyErr := s.notifier.Notify(ctx, competitorIDs(participants),
			fmt.Sprintf("Tournament %q cancelled", tournament.Name),
			"The tournament has been cancelled by the organizer.",
			map[string]string{"tournament_id": fmt.Sprint(tournamentID)},
		); notifyErr != nil {
			s.logger.WarnContext(ctx, "cancellation notification failed", slog.Any("error", notifyErr))
		}
	}
	s.publisher.Publish(tournamentID, EventTournamentCancelled, nil)
	return nil
}

func (s *tournamentService) GetStandings(ctx context.Context, tournamentID int) (*Standings, error) {
	tournament, err := s.Get(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	standings := &Standings{Tournament: tournament}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		participants, err := s.participantRepo.ListByTournament(gCtx, tournamentID, true)
		if err != nil {
			return err
		}
		entries := make([]StandingsEntry, 0, len(participants))
		for _, p := range participants {
			entry := StandingsEntry{
				CompetitorID: p.CompetitorID,
				Score:        p.Score,
				Eliminated:   p.Eliminated,
				FinalRank:    p.FinalRank,
			}
			if p.Competitor != nil {
				entry.Username = p.Competitor.Username
				entry.Rating = p.Competitor.Rating
			}
			entries = append(entries, entry)
		}
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].FinalRank != nil && entries[j].FinalRank != nil {
				return *entries[i].FinalRank < *entries[j].FinalRank
			}
			return entries[i].Score > entries[j].Score
		})
		standings.Entries = entries
		return nil
	})
	g.Go(func() error {
		matches, err := s.matchRepo.ListByTournament(gCtx, tournamentID, nil, nil)
		if err != nil {
			return err
		}
		standings.Matches = matches
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return standings, nil
}

// shuffledSeeds randomizes participant order before pairing so brackets are
// fair while the generators themselves stay deterministic.
func (s *tournamentService) shuffledSeeds(participants []*models.Participant) []brackets.Seed {
	seeds := make([]brackets.Seed, len(participants))
	for i, p := range participants {
		seeds[i] = brackets.Seed{CompetitorID: p.CompetitorID, Score: p.Score}
	}
	s.rngMu.Lock()
	s.rng.Shuffle(len(seeds), func(i, j int) {
		seeds[i], seeds[j] = seeds[j], seeds[i]
	})
	s.rngMu.Unlock()
	return seeds
}

// topScorer picks the competitor with the highest running score. Ties go to
// whoever joined first, which matches the stable ordering ListSurvivors uses.
func topScorer(participants []*models.Participant) int {
	best := participants[0]
	for _, p := range participants[1:] {
		if p.Score > best.Score {
			best = p
		}
	}
	return best.CompetitorID
}

func competitorIDs(participants []*models.Participant) []int {
	ids := make([]int, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.CompetitorID)
	}
	return ids
}

// rankParticipants orders participants for final ranking: the winner first,
// then by running score descending.
func rankParticipants(participants []*models.Participant, winnerID *int) []*models.Participant {
	ranked := make([]*models.Participant, len(participants))
	copy(ranked, participants)
	sort.SliceStable(ranked, func(i, j int) bool {
		if winnerID != nil {
			if ranked[i].CompetitorID == *winnerID {
				return true
			}
			if ranked[j].CompetitorID == *winnerID {
				return false
			}
		}
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}
