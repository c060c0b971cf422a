package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/policyready/policyctl/internal/history"
	"github.com/policyready/policyctl/internal/job"
	"github.com/policyready/policyctl/internal/phase"
	"github.com/policyready/policyctl/internal/policyapi"
	"github.com/policyready/policyctl/internal/spinner"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var analyzeOutputPath string

func newAnalyzeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <document.pdf>",
		Short: "Run a compliance analysis for one document",
		Long: `Upload a questionnaire document and follow the analysis to completion.

Results stream in as the service works through its pipeline: question
extraction, keyword generation, policy search, and per-question compliance
scoring. Completed runs are added to the local history.`,
		Args: cobra.ExactArgs(1),
		RunE: analyzeCommandE,
	}

	cmd.Flags().StringVarP(&analyzeOutputPath, "output", "o", "", "Write the completed run as JSON to this file")

	return cmd
}

func analyzeCommandE(cmd *cobra.Command, args []string) error {
	docPath := args[0]
	if _, err := os.Stat(docPath); err != nil {
		return fmt.Errorf("document not found: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client := policyapi.NewClient(cfg.Service.BaseURL)
	store := history.New(cfg.History.Path, cfg.History.Limit)
	ctrl := job.NewController(client, store, phase.Source(cfg.Phase.Source))

	isTTY := term.IsTerminal(int(os.Stdout.Fd()))
	live := spinner.New(os.Stdout, isTTY)
	ctrl.OnUpdate(func(snap job.Snapshot) {
		live.Update(progressLine(snap))
	})

	live.Start("Uploading " + docPath)
	runErr := ctrl.Run(cmd.Context(), docPath)
	live.Stop()

	snap := ctrl.Snapshot()

	if runErr != nil {
		if errors.Is(runErr, job.ErrJobInFlight) {
			return runErr
		}
		message := snap.FailureMessage
		if message == "" {
			message = runErr.Error()
		}
		return &AnalysisFailedError{Message: message}
	}

	printReport(os.Stdout, snap)

	if analyzeOutputPath != "" {
		if err := saveEntry(snap, analyzeOutputPath); err != nil {
			return err
		}
		fmt.Printf("Results saved to: %s\n", analyzeOutputPath)
	}

	return nil
}

// saveEntry writes the persisted history entry for a completed run.
func saveEntry(snap job.Snapshot, path string) error {
	if snap.Entry == nil {
		return fmt.Errorf("no completed run to save")
	}
	data, err := json.MarshalIndent(snap.Entry, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling results: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}
	return nil
}
