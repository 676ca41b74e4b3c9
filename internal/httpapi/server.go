// Package httpapi exposes the recommendation service over HTTP with fiber.
package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/logger"
	"github.com/spigell/jobmatch/internal/recommend"
)

const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 60 * time.Second
	defaultMaxLimit     = 50
)

// Recommender is the operation the HTTP layer serves.
type Recommender interface {
	GetRecommendations(ctx context.Context, userID string, limit int) (recommend.Result, error)
}

type Config struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	DefaultLimit int
	MaxLimit     int
}

type Server struct {
	app    *fiber.App
	logger *zap.Logger
}

func New(cfg Config, svc Recommender, auth *Authenticator, log *zap.Logger) (*Server, error) {
	if svc == nil {
		return nil, errors.New("recommender is required")
	}
	if auth == nil {
		return nil, errors.New("authenticator is required")
	}

	log = logger.OrNop(log)

	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = recommend.DefaultLimit
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = defaultMaxLimit
	}
	if cfg.DefaultLimit > cfg.MaxLimit {
		cfg.DefaultLimit = cfg.MaxLimit
	}

	app := fiber.New(fiber.Config{
		AppName:               "jobmatch",
		DisableStartupMessage: true,
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		ErrorHandler:          errorHandler(log),
	})

	app.Use(accessLog(log))
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	h := &recommendationsHandler{
		svc:          svc,
		logger:       log,
		defaultLimit: cfg.DefaultLimit,
		maxLimit:     cfg.MaxLimit,
	}

	api := app.Group("/api/v1", auth.Middleware())
	api.Get("/recommendations", RequireRole(RoleSeeker), h.get)

	return &Server{app: app, logger: log}, nil
}

// App returns the underlying fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run serves on address until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, address string, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("address", address))
		errCh <- s.app.Listen(address)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// errorHandler renders fiber errors as {"error": message}. Anything else
// reaching it is a bug or a panic and is rendered as the ERROR recommendation
// response.
func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}

		log.Error("request failed",
			zap.String(logger.FieldRequestID, requestID(c)),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(newResponse(recommend.Result{}, recommend.MessageError))
	}
}
