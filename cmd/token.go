package cmd

import (
	"fmt"
	"time"

	"clinic-booking/internal/data/entity"
	"clinic-booking/pkg/middleware"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development session token",
		Long:  "Signs a token with JWT_SECRET the way the identity provider does. For local testing only.",
		RunE: func(cmd *cobra.Command, args []string) error {
			role, _ := cmd.Flags().GetString("role")
			subject, _ := cmd.Flags().GetString("subject")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			config, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()

			p := entity.Principal{Role: entity.Role(role)}
			if subject == "" {
				p.ID = uuid.New()
			} else if p.ID, err = uuid.Parse(subject); err != nil {
				return fmt.Errorf("subject must be a UUID: %w", err)
			}
			if !p.Valid() {
				return fmt.Errorf("role must be patient, doctor or admin, got %q", role)
			}

			if ttl <= 0 {
				ttl = time.Duration(config.JWT.ExpiryHours) * time.Hour
			}

			token, err := middleware.SignToken(config.JWT, p, ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}

			fmt.Printf("subject: %s\nrole:    %s\ntoken:   %s\n", p.ID, p.Role, token)
			return nil
		},
	}
	cmd.Flags().String("role", string(entity.RolePatient), "patient, doctor or admin")
	cmd.Flags().String("subject", "", "Subject UUID; a doctor token needs the directory doctor id")
	cmd.Flags().Duration("ttl", 0, "Token lifetime (defaults to JWT_EXPIRY_HOURS)")
	return cmd
}
