package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/board/postgres"
	"github.com/spigell/jobmatch/internal/httpapi"
	"github.com/spigell/jobmatch/internal/secrets"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve recommendations over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("address", "a", "", "listen address (default is :8080)")
	serveCmd.Flags().Bool("ensure-schema", false, "create missing database tables on start")

	viper.BindPFlag("http.address", serveCmd.Flags().Lookup("address"))
	viper.BindPFlag("database.ensure-schema", serveCmd.Flags().Lookup("ensure-schema"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger()
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the jobmatch server", zap.String("version", version))

	if strings.TrimSpace(config.Database.URL) == "" {
		logger.Fatal("database url is required", zap.String("hint", "set database.url or DATABASE_URL"))
	}

	jwtSecret, err := secrets.Load(secrets.Source{
		Name:  "jwt secret",
		Value: config.HTTP.JWTSecret,
		File:  config.HTTP.JWTSecretFile,
	})
	if err != nil {
		logger.Fatal("loading jwt secret", zap.Error(err), zap.String("hint", "set http.jwt-secret-file or JWT_SECRET"))
	}

	pool, err := postgres.Connect(ctx, config.Database.URL)
	if err != nil {
		logger.Fatal("connecting to postgres", zap.Error(err))
	}
	defer pool.Close()

	store := postgres.NewStore(pool)
	if config.Database.EnsureSchema {
		if err := store.EnsureSchema(ctx); err != nil {
			logger.Fatal("preparing database schema", zap.Error(err))
		}
	}

	failures, closeFailures, err := newFailureState(ctx, config, logger)
	if err != nil {
		logger.Fatal("creating ai failure state", zap.Error(err))
	}
	defer closeFailures()

	ranker, err := newAIRanker(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("creating ai ranker", zap.Error(err))
	}

	svc, err := newService(config, store, ranker, failures, logger)
	if err != nil {
		logger.Fatal("creating recommendation service", zap.Error(err))
	}

	auth, err := httpapi.NewAuthenticator(jwtSecret, nil)
	if err != nil {
		logger.Fatal("creating authenticator", zap.Error(err))
	}

	srv, err := httpapi.New(httpapi.Config{
		ReadTimeout:  config.HTTP.ReadTimeout,
		WriteTimeout: config.HTTP.WriteTimeout,
		DefaultLimit: config.Recommendations.DefaultLimit,
		MaxLimit:     config.Recommendations.MaxLimit,
	}, svc, auth, logger)
	if err != nil {
		logger.Fatal("creating http server", zap.Error(err))
	}

	if err := srv.Run(ctx, config.HTTP.Address, config.HTTP.ShutdownTimeout); err != nil {
		logger.Error("http server stopped", zap.Error(err))
		return
	}

	logger.Info("server exited")
}
