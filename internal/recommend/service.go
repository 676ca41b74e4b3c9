package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/board"
	"github.com/spigell/jobmatch/internal/breaker"
	"github.com/spigell/jobmatch/internal/exclusion"
	"github.com/spigell/jobmatch/internal/logger"
)

// DefaultAITimeout bounds a single AI ranking call.
const DefaultAITimeout = 30 * time.Second

// AIRanker ranks jobs with an external model. Precondition errors are
// returned as *PreconditionError, provider failures as *TransientError.
type AIRanker interface {
	Rank(ctx context.Context, profile *board.SeekerProfile, jobs []*board.JobPosting, limit int) (Result, error)
}

// FailureState tracks recent AI failures. Implementations must be safe for
// concurrent use and lazily expire failures older than their cooldown.
type FailureState interface {
	InCooldown(ctx context.Context, now time.Time) bool
	RecordFailure(ctx context.Context, at time.Time)
	Reset(ctx context.Context)
	Cooldown() time.Duration
}

type Config struct {
	DefaultLimit int
	AITimeout    time.Duration
	Cooldown     time.Duration
}

// Deps are the collaborators of Service. AI is optional: a nil ranker means
// the heuristic is always used.
type Deps struct {
	Profiles   board.ProfileStore
	Jobs       board.JobStore
	Exclusions []exclusion.Source
	AI         AIRanker
	Failures   FailureState
	Logger     *zap.Logger
	Now        func() time.Time
}

type Service struct {
	cfg        Config
	profiles   board.ProfileStore
	jobs       board.JobStore
	exclusions []exclusion.Source
	ai         AIRanker
	failures   FailureState
	heuristic  *Heuristic
	logger     *zap.Logger
	now        func() time.Time
}

func NewService(cfg Config, deps Deps) (*Service, error) {
	if deps.Profiles == nil {
		return nil, fmt.Errorf("profile store is required")
	}
	if deps.Jobs == nil {
		return nil, fmt.Errorf("job store is required")
	}

	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultLimit
	}
	if cfg.AITimeout <= 0 {
		cfg.AITimeout = DefaultAITimeout
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = breaker.DefaultCooldown
	}

	now := deps.Now
	if now == nil {
		now = time.Now
	}

	failures := deps.Failures
	if failures == nil {
		failures = breaker.NewMemory(cfg.Cooldown)
	}

	return &Service{
		cfg:        cfg,
		profiles:   deps.Profiles,
		jobs:       deps.Jobs,
		exclusions: deps.Exclusions,
		ai:         deps.AI,
		failures:   failures,
		heuristic:  NewHeuristic(now),
		logger:     logger.OrNop(deps.Logger),
		now:        now,
	}, nil
}

// AIEnabled reports whether an AI ranker is configured.
func (s *Service) AIEnabled() bool {
	return s.ai != nil
}

// GetRecommendations returns up to limit ranked postings for userID. It only
// returns an error for precondition failures and store errors. AI failures
// are absorbed by falling back to the heuristic ranker.
func (s *Service) GetRecommendations(ctx context.Context, userID string, limit int) (Result, error) {
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}

	log := s.logger.With(zap.String(logger.FieldUserID, userID), zap.Int("limit", limit))

	profile, err := s.profiles.FindSeekerProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, board.ErrNotFound) {
			return Result{}, ErrProfileNotFound
		}
		return Result{}, fmt.Errorf("load seeker profile: %w", err)
	}
	if profile == nil {
		return Result{}, ErrProfileNotFound
	}
	if !profile.IsComplete() {
		return Result{}, ErrProfileIncomplete
	}

	excluded, err := exclusion.Collect(ctx, log, userID, s.exclusions...)
	if err != nil {
		return Result{}, fmt.Errorf("collect excluded jobs: %w", err)
	}

	jobs, err := s.jobs.FindOpenJobsExcluding(ctx, excluded.IDs())
	if err != nil {
		return Result{}, fmt.Errorf("load open jobs: %w", err)
	}

	jobs, dropped := excluded.Filter(jobs)
	if len(dropped) > 0 {
		log.Warn("job store returned excluded postings", zap.Strings("job_ids", dropped))
	}

	log.Debug("candidate jobs loaded",
		zap.Int("excluded", len(excluded)),
		zap.Int("candidates", len(jobs)),
	)

	if len(jobs) == 0 {
		return emptyResult(MessageNoJobsAvailable), nil
	}

	if result, ok, err := s.tryAI(ctx, log, profile, jobs, limit); err != nil || ok {
		return result, err
	}

	result := s.heuristic.Rank(profile, jobs, limit)
	log.Info("recommendations ranked",
		zap.String("source", string(SourceHeuristic)),
		zap.Int("count", len(result.Recommendations)),
		zap.String("message", string(result.Message)),
	)
	return result, nil
}

// tryAI runs the AI ranker when it is configured and not cooling down. It
// reports ok=false when the caller should fall back to the heuristic.
func (s *Service) tryAI(ctx context.Context, log *zap.Logger, profile *board.SeekerProfile, jobs []*board.JobPosting, limit int) (Result, bool, error) {
	if s.ai == nil {
		return Result{}, false, nil
	}

	if s.failures.InCooldown(ctx, s.now()) {
		log.Debug("skipping ai ranker during cooldown")
		return Result{}, false, nil
	}

	aiCtx, cancel := context.WithTimeout(ctx, s.cfg.AITimeout)
	defer cancel()

	result, err := s.ai.Rank(aiCtx, profile, jobs, limit)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		err = NewTransient(AIRequestFailed, err)
	}

	switch Classify(err) {
	case ClassNone:
		result = normalize(result, limit)
		log.Info("recommendations ranked",
			zap.String("source", string(SourceAI)),
			zap.Int("count", len(result.Recommendations)),
			zap.String("message", string(result.Message)),
		)
		return result, true, nil
	case ClassPrecondition:
		return Result{}, false, err
	default:
		if ctx.Err() != nil {
			return Result{}, false, ctx.Err()
		}
		s.failures.RecordFailure(ctx, s.now())
		log.Warn("ai ranker failed, falling back to heuristic",
			zap.Error(err),
			zap.Duration("cooldown", s.failures.Cooldown()),
		)
		return Result{}, false, nil
	}
}
