package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/ai"
	"github.com/spigell/jobmatch/internal/ai/gemini"
	"github.com/spigell/jobmatch/internal/ai/openai"
	"github.com/spigell/jobmatch/internal/board"
	"github.com/spigell/jobmatch/internal/breaker"
	"github.com/spigell/jobmatch/internal/exclusion"
	"github.com/spigell/jobmatch/internal/recommend"
	"github.com/spigell/jobmatch/internal/secrets"
)

const (
	failureStateMemory = "memory"
	failureStateRedis  = "redis"
)

// stores bundles the four store ports, which every backend implements on one type.
type stores interface {
	board.ProfileStore
	board.JobStore
	board.ApplicationStore
	board.WishlistStore
}

// newAIRanker returns nil without an error when the AI path is disabled or no
// API key is configured. The service then always uses the heuristic.
func newAIRanker(ctx context.Context, cfg AIConfig, logger *zap.Logger) (recommend.AIRanker, error) {
	if !cfg.Enabled {
		logger.Info("ai ranker disabled by configuration")
		return nil, nil
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider == "" {
		provider = gemini.Provider
	}

	inline := cfg.APIKey
	switch provider {
	case gemini.Provider:
		if inline == "" {
			inline = cfg.GeminiAPIKey
		}
	case openai.Provider:
		if inline == "" {
			inline = cfg.OpenAIAPIKey
		}
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.LoadOptional(secrets.Source{
		Name:  provider + " api key",
		Value: inline,
		File:  cfg.APIKeyFile,
	})
	if err != nil {
		return nil, err
	}
	if apiKey == "" {
		logger.Warn("ai api key is not configured, using heuristic recommendations only",
			zap.String("provider", provider),
			zap.String("hint", "set ai.api-key, ai.api-key-file or the provider api key environment variable"),
		)
		return nil, nil
	}

	var generator ai.Generator
	switch provider {
	case openai.Provider:
		generator, err = openai.NewGenerator(apiKey, cfg.Model, cfg.MaxRetries, logger)
	default:
		generator, err = gemini.NewGenerator(ctx, apiKey, cfg.Model, cfg.MaxRetries, logger)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("ai ranker enabled",
		zap.String("provider", provider),
		zap.String("model", generator.Model()),
		zap.Int("max_retries", cfg.MaxRetries),
	)

	return ai.NewRanker(generator, provider, logger, cfg.MaxJobs, cfg.MaxLogLength), nil
}

// newFailureState builds the configured FailureState. The returned func
// releases its resources.
func newFailureState(ctx context.Context, cfg *Config, logger *zap.Logger) (recommend.FailureState, func(), error) {
	kind := strings.TrimSpace(strings.ToLower(cfg.AI.FailureState))

	switch kind {
	case "", failureStateMemory:
		return breaker.NewMemory(cfg.AI.Cooldown), func() {}, nil
	case failureStateRedis:
		if strings.TrimSpace(cfg.Redis.URL) == "" {
			return nil, nil, fmt.Errorf("redis.url is required for the %s failure state", failureStateRedis)
		}

		client, err := breaker.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, nil, err
		}

		closeFn := func() {
			if err := client.Close(); err != nil {
				logger.Warn("closing redis client", zap.Error(err))
			}
		}
		return breaker.NewRedis(client, cfg.AI.Cooldown, logger), closeFn, nil
	default:
		return nil, nil, fmt.Errorf("unsupported failure state: %s", cfg.AI.FailureState)
	}
}

func newService(cfg *Config, store stores, ranker recommend.AIRanker, failures recommend.FailureState, logger *zap.Logger) (*recommend.Service, error) {
	return recommend.NewService(recommend.Config{
		DefaultLimit: cfg.Recommendations.DefaultLimit,
		AITimeout:    cfg.AI.Timeout,
		Cooldown:     cfg.AI.Cooldown,
	}, recommend.Deps{
		Profiles: store,
		Jobs:     store,
		Exclusions: []exclusion.Source{
			exclusion.NewApplied(store),
			exclusion.NewWishlisted(store),
		},
		AI:       ranker,
		Failures: failures,
		Logger:   logger,
	})
}
