package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"skylark/opscommand/internal/dispatch"
	"skylark/opscommand/internal/intent"
	"skylark/opscommand/internal/models"
)

// ChatCmd returns the interactive chat command
func ChatCmd(flags *globalFlags) *cobra.Command {
	var readOnly bool
	var showTools bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the roster assistant",
		Long: `Start an interactive conversation with the roster assistant.

Commands inside the chat:
  /reset    start a new conversation
  /history  show the conversation so far
  /quit     leave`,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, cleanup, err := loadRuntime(cmd.Context(), flags)
			defer cleanup()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printer := newMarkdownPrinter(out, flags.plain)

			var opts []dispatch.TurnOption
			if readOnly {
				opts = append(opts, dispatch.ReadOnly())
			}

			history := models.NewHistory(uuid.New().String(), intent.SystemPrompt)
			okColor.Fprintln(out, "Roster assistant ready. Type /quit to leave.")

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "\n> ")
				if !scanner.Scan() {
					break
				}
				text := strings.TrimSpace(scanner.Text())

				switch text {
				case "":
					continue
				case "/quit", "/exit":
					return nil
				case "/reset":
					history = models.NewHistory(uuid.New().String(), intent.SystemPrompt)
					dimColor.Fprintln(out, "Started a new conversation.")
					continue
				case "/history":
					for _, m := range history.Visible() {
						dimColor.Fprintf(out, "[%s] ", m.Role)
						fmt.Fprintln(out, m.Content)
					}
					continue
				}

				updated, turn, err := deps.Dispatcher.ProcessTurn(cmd.Context(), history, text, opts...)
				if err != nil {
					if errors.Is(err, dispatch.ErrSessionBusy) {
						return nil
					}
					return err
				}
				history = updated

				if showTools && turn.Tool != "" {
					dimColor.Fprintf(out, "tool %s → %s (%s)\n", turn.Tool, turn.Outcome, turn.Duration.Round(time.Millisecond))
				}
				printer.Print(turn.Reply)
			}
			return scanner.Err()
		},
	}

	cmd.Flags().BoolVar(&readOnly, "read-only", false, "refuse pilot status updates")
	cmd.Flags().BoolVar(&showTools, "show-tools", false, "print which tool each turn invoked")
	return cmd
}
