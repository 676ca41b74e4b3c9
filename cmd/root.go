package cmd

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/logger"
)

const (
	app = "jobmatch"
)

type Config struct {
	HTTP            HTTPConfig            `mapstructure:"http"`
	Database        DatabaseConfig        `mapstructure:"database"`
	Redis           RedisConfig           `mapstructure:"redis"`
	Recommendations RecommendationsConfig `mapstructure:"recommendations"`
	AI              AIConfig              `mapstructure:"ai"`
}

type HTTPConfig struct {
	Address         string        `mapstructure:"address"`
	JWTSecret       string        `mapstructure:"jwt-secret"`
	JWTSecretFile   string        `mapstructure:"jwt-secret-file"`
	ReadTimeout     time.Duration `mapstructure:"read-timeout"`
	WriteTimeout    time.Duration `mapstructure:"write-timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout"`
}

type DatabaseConfig struct {
	URL          string `mapstructure:"url"`
	EnsureSchema bool   `mapstructure:"ensure-schema"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type RecommendationsConfig struct {
	DefaultLimit int `mapstructure:"default-limit"`
	MaxLimit     int `mapstructure:"max-limit"`
}

type AIConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Provider     string        `mapstructure:"provider"`
	Model        string        `mapstructure:"model"`
	APIKey       string        `mapstructure:"api-key"`
	APIKeyFile   string        `mapstructure:"api-key-file"`
	GeminiAPIKey string        `mapstructure:"gemini-api-key"`
	OpenAIAPIKey string        `mapstructure:"openai-api-key"`
	MaxRetries   int           `mapstructure:"max-retries"`
	MaxLogLength int           `mapstructure:"max-log-length"`
	MaxJobs      int           `mapstructure:"max-jobs"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Cooldown     time.Duration `mapstructure:"cooldown"`
	FailureState string        `mapstructure:"failure-state"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobmatch recommends open job postings to job seekers",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	setDefaults(viper.GetViper())

	if err := bindEnv(viper.GetViper()); err != nil {
		log.Fatalf("binding environment variables: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobmatch.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.address", ":8080")
	v.SetDefault("http.jwt-secret", "")
	v.SetDefault("http.jwt-secret-file", "")
	v.SetDefault("http.read-timeout", "10s")
	v.SetDefault("http.write-timeout", "60s")
	v.SetDefault("http.shutdown-timeout", "10s")

	v.SetDefault("database.url", "")
	v.SetDefault("database.ensure-schema", false)
	v.SetDefault("redis.url", "")

	v.SetDefault("recommendations.default-limit", 10)
	v.SetDefault("recommendations.max-limit", 50)

	v.SetDefault("ai.enabled", true)
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.api-key", "")
	v.SetDefault("ai.api-key-file", "")
	v.SetDefault("ai.max-retries", 2)
	v.SetDefault("ai.max-log-length", 200)
	v.SetDefault("ai.max-jobs", 50)
	v.SetDefault("ai.timeout", "30s")
	v.SetDefault("ai.cooldown", "5m")
	v.SetDefault("ai.failure-state", "memory")
}

// bindEnv maps JOBMATCH_* variables onto every key and binds the conventional
// unprefixed names used by hosting platforms.
func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix("JOBMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	bindings := [][]string{
		{"database.url", "JOBMATCH_DATABASE_URL", "DATABASE_URL"},
		{"redis.url", "JOBMATCH_REDIS_URL", "REDIS_URL"},
		{"http.jwt-secret", "JOBMATCH_HTTP_JWT_SECRET", "JWT_SECRET"},
		{"ai.gemini-api-key", "GEMINI_API_KEY"},
		{"ai.openai-api-key", "OPENAI_API_KEY"},
	}

	for _, b := range bindings {
		if err := v.BindEnv(b...); err != nil {
			return err
		}
	}
	return nil
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Everything can come from the environment, so a missing default config
	// file is fine. An explicit or unparsable one is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}

func newLogger() *zap.Logger {
	return newLoggerTo("stdout")
}

// newLoggerTo is used by commands whose stdout carries data, not logs.
func newLoggerTo(output string) *zap.Logger {
	l, err := logger.NewWithOutput(viper.GetBool("json"), viper.GetBool("debug"), output)
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}
