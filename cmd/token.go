package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/httpapi"
	"github.com/spigell/jobmatch/internal/secrets"
)

const defaultTokenTTL = 24 * time.Hour

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token signed with the configured jwt secret (for local testing)",
	Run: func(cmd *cobra.Command, _ []string) {
		issueToken(cmd)
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().StringP("user", "u", "", "user id to put into the token subject")
	tokenCmd.Flags().String("role", httpapi.RoleSeeker, "role claim")
	tokenCmd.Flags().Duration("ttl", defaultTokenTTL, "token lifetime")

	tokenCmd.MarkFlagRequired("user")
}

func issueToken(cmd *cobra.Command) {
	logger := newLoggerTo("stderr")

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	secret, err := secrets.Load(secrets.Source{
		Name:  "jwt secret",
		Value: config.HTTP.JWTSecret,
		File:  config.HTTP.JWTSecretFile,
	})
	if err != nil {
		logger.Fatal("loading jwt secret", zap.Error(err))
	}

	auth, err := httpapi.NewAuthenticator(secret, nil)
	if err != nil {
		logger.Fatal("creating authenticator", zap.Error(err))
	}

	userID, _ := cmd.Flags().GetString("user")
	role, _ := cmd.Flags().GetString("role")
	ttl, _ := cmd.Flags().GetDuration("ttl")

	token, err := auth.Issue(userID, role, ttl)
	if err != nil {
		logger.Fatal("signing token", zap.Error(err))
	}

	fmt.Println(token)
}
