package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"skylark/opscommand/internal/auth"
	"skylark/opscommand/internal/constants"
)

// TokenCmd returns the command that issues staff access tokens
func TokenCmd(flags *globalFlags) *cobra.Command {
	var subject string
	var role string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a staff access token for the HTTP API",
		Long: `Issue a signed staff access token. The signing secret comes from the
configuration (JWT_SECRET).

Roles: viewer (read only), operator (may update statuses), admin (audit log).`,
		Example: `  opsctl token --subject ops-lead --role operator`,
		RunE: func(cmd *cobra.Command, args []string) error {
			staffRole, err := constants.ParseStaffRole(role)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.Auth.TokenTTL
			}

			tokens, err := auth.NewTokenService([]byte(cfg.Auth.JWTSecret), ttl)
			if err != nil {
				return err
			}

			token, expiresAt, err := tokens.Issue(subject, staffRole)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, token)
			dimColor.Fprintf(cmd.ErrOrStderr(), "role %s, expires %s\n", staffRole, expiresAt.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "who the token is for")
	cmd.Flags().StringVar(&role, "role", string(constants.RoleViewer), "viewer, operator or admin")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default from config)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
