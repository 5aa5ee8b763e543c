package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/datascope/internal/auth"
)

var (
	tokenUserID string
	tokenEmail  string
)

// tokenCmd signs a development access token with the shared secret. Production tokens
// come from the identity backend.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a development access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mustLoadConfig()
		if cfg.IsProduction() {
			return fmt.Errorf("token command is disabled in production")
		}
		gen := auth.NewJWTTokenGenerator(cfg.Security.JWTSecret, cfg.Security.JWTIssuer, cfg.Security.DevTokenTTL)
		token, err := gen.GenerateAccessToken(tokenUserID, tokenEmail)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUserID, "user", "dev-admin", "subject user id")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "admin@example.com", "email claim")
}
