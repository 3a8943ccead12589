package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nekogravitycat/rental-booking-backend/internal/auth"
	"github.com/nekogravitycat/rental-booking-backend/internal/config"
)

// NewTokenCmd mints an access token. Identity is owned by another service;
// this exists for operators and local testing.
func NewTokenCmd() *cobra.Command {
	var (
		userID string
		email  string
		role   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if role != auth.RoleCustomer && role != auth.RoleAdmin {
				return fmt.Errorf("role must be %q or %q", auth.RoleCustomer, auth.RoleAdmin)
			}
			if userID == "" {
				userID = uuid.NewString()
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.JWTAccessTokenTTL
			}

			token, err := auth.NewJWTManager(cfg.JWTSecret, ttl).GenerateAccessToken(userID, email, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id (random when empty)")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().StringVar(&role, "role", auth.RoleCustomer, "role claim (customer or admin)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to JWT_ACCESS_TOKEN_TTL)")
	return cmd
}
