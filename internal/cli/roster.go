package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"skylark/opscommand/internal/models"
	"skylark/opscommand/internal/services"
)

// RosterCmd returns the roster command
func RosterCmd(flags *globalFlags) *cobra.Command {
	var skill string
	var available bool

	cmd := &cobra.Command{
		Use:   "roster",
		Short: "List pilots, optionally filtered by skill and availability",
		Example: `  opsctl roster
  opsctl roster --skill thermal --available`,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, cleanup, err := loadRuntime(cmd.Context(), flags)
			defer cleanup()
			if err != nil {
				return err
			}

			result := deps.Roster.LookupRoster(cmd.Context(), services.RosterQuery{
				Skill:         strings.TrimSpace(skill),
				OnlyAvailable: available,
			})
			newMarkdownPrinter(cmd.OutOrStdout(), flags.plain).Print(services.FormatRoster(result))

			if result.Outcome == services.RosterUnavailable {
				return fmt.Errorf("roster unavailable")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&skill, "skill", "s", "", "only pilots whose skills mention this text")
	cmd.Flags().BoolVarP(&available, "available", "a", false, "only pilots with status "+string(models.StatusAvailable))
	return cmd
}

// ConflictCmd returns the conflict command
func ConflictCmd(flags *globalFlags) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "conflict PILOT_ID",
		Short: "Check whether a pilot can take work, optionally on a date",
		Example: `  opsctl conflict P1
  opsctl conflict P4 --date 2025-03-02`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, cleanup, err := loadRuntime(cmd.Context(), flags)
			defer cleanup()
			if err != nil {
				return err
			}

			v := deps.Roster.CheckConflict(cmd.Context(), strings.ToUpper(args[0]), date)
			out := cmd.OutOrStdout()

			switch {
			case v.Outcome == services.ConflictClear:
				okColor.Fprintln(out, v.Message())
			case v.Conflict():
				failColor.Fprintln(out, v.Message())
			default:
				warnColor.Fprintln(out, v.Message())
			}

			if v.Outcome == services.ConflictUnavailable {
				return fmt.Errorf("roster unavailable")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "date to check (YYYY-MM-DD)")
	return cmd
}

// StatusCmd returns the status update command
func StatusCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status PILOT_ID STATUS",
		Short: "Set a pilot's status",
		Long: fmt.Sprintf(`Set a pilot's status in the roster.

Valid statuses: %s`, strings.Join(models.StatusNames(), ", ")),
		Example: `  opsctl status P3 "On Leave"`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pilotID := strings.ToUpper(args[0])
			raw := strings.Join(args[1:], " ")
			out := cmd.OutOrStdout()

			status, err := models.ParsePilotStatus(raw)
			if err != nil {
				r := services.UpdateResult{Outcome: services.UpdateInvalidStatus, PilotID: pilotID, Status: raw}
				warnColor.Fprintln(out, r.Message())
				return err
			}

			deps, cleanup, err := loadRuntime(cmd.Context(), flags)
			defer cleanup()
			if err != nil {
				return err
			}

			r := deps.Roster.UpdatePilotStatus(cmd.Context(), pilotID, status)
			switch r.Outcome {
			case services.UpdateApplied:
				okColor.Fprintln(out, r.Message())
				return nil
			case services.UpdateNotFound:
				warnColor.Fprintln(out, r.Message())
			default:
				failColor.Fprintln(out, r.Message())
			}
			return fmt.Errorf("status not updated: %s", r.Outcome)
		},
	}
	return cmd
}
