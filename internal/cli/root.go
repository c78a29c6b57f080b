package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"skylark/opscommand/internal/api"
	"skylark/opscommand/internal/config"
	"skylark/opscommand/internal/logging"
)

type globalFlags struct {
	configPath string
	verbose    bool
	plain      bool
}

// NewRootCmd builds the opsctl command tree
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "opsctl",
		Short: "Drone operations assistant for the pilot roster",
		Long: `opsctl talks to the pilot roster directly or through the chat assistant.

Use "opsctl chat" for a conversation, or the roster, conflict and status
commands to call the roster tools without a language model.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logging.InitCLI(flags.verbose)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", os.Getenv("OPSCOMMAND_CONFIG"), "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "show info and debug logs")
	rootCmd.PersistentFlags().BoolVar(&flags.plain, "plain", false, "print markdown without terminal rendering")

	rootCmd.AddCommand(ChatCmd(flags))
	rootCmd.AddCommand(RosterCmd(flags))
	rootCmd.AddCommand(ConflictCmd(flags))
	rootCmd.AddCommand(StatusCmd(flags))
	rootCmd.AddCommand(TokenCmd(flags))

	return rootCmd
}

func loadConfig(flags *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// loadRuntime wires the same services the HTTP server uses, without metrics
func loadRuntime(ctx context.Context, flags *globalFlags) (*api.Dependencies, func(), error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, func() {}, err
	}
	return api.InitDependencies(ctx, cfg, nil)
}
