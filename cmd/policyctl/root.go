package main

import (
	"fmt"
	"log/slog"

	"github.com/policyready/policyctl/internal/projectconfig"
	"github.com/spf13/cobra"
)

var version = "dev"

// baseURLOverride is the persistent --base-url flag; it wins over both the
// config file and the environment.
var baseURLOverride string

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policyctl",
		Short: "policyctl - compliance analysis against a policy corpus",
		Long: `policyctl drives document compliance analysis through the PolicyReady service.

It uploads a questionnaire document, follows the streaming analysis as the
service extracts questions, searches the policy corpus, and scores each
question, then keeps a bounded local history of completed runs.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&baseURLOverride, "base-url", "", "Analysis service base URL (overrides config and POLICYREADY_BASE_URL)")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	// Add subcommands
	cmd.AddCommand(newAnalyzeCommand())
	cmd.AddCommand(newHistoryCommand())
	cmd.AddCommand(newPoliciesCommand())
	cmd.AddCommand(newStatsCommand())

	return cmd
}

// loadConfig resolves effective settings: defaults, then .policyready.yaml,
// then the environment, then the --base-url flag.
func loadConfig() (*projectconfig.Config, error) {
	cfg, err := projectconfig.Load(".")
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if baseURLOverride != "" {
		cfg.Service.BaseURL = baseURLOverride
	}
	return cfg, nil
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
