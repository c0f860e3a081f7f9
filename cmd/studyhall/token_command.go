package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"studyhall/internal/server"
)

func newTokenCommand(ctx *commandContext) *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Development bearer tokens",
	}
	tokenCmd.AddCommand(newTokenMintCommand(ctx))
	return tokenCmd
}

func newTokenMintCommand(ctx *commandContext) *cobra.Command {
	var subject string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Sign a bearer token with the server's jwt_secret",
		Long: "Sign a bearer token for the development backend. The token is printed alone " +
			"so it can be captured, for example: export STUDYHALL_API_TOKEN=$(studyhall token mint --subject me)",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			subject = strings.TrimSpace(subject)
			if subject == "" {
				return errors.New("--subject is required")
			}
			if err := cfg.ValidateServer(); err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.TokenTTL()
			}
			auth, err := server.NewAuthenticator(cfg.Server.JWTSecret, ttl)
			if err != nil {
				return err
			}
			token, err := auth.Mint(subject)
			if err != nil {
				return fmt.Errorf("mint token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&subject, "subject", "s", "", "User the token identifies")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default server.token_ttl_hours)")
	return cmd
}
