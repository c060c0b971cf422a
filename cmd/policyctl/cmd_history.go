package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/policyready/policyctl/internal/history"
	"github.com/spf13/cobra"
)

var clearForce bool

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage the local record of completed analyses",
		RunE:  historyListE,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List completed analyses, most recent first",
		Args:  cobra.NoArgs,
		RunE:  historyListE,
	}

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one completed analysis in full detail",
		Args:  cobra.ExactArgs(1),
		RunE:  historyShowE,
	}

	removeCmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete one entry from the history",
		Args:  cobra.ExactArgs(1),
		RunE:  historyRemoveE,
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all history entries",
		Args:  cobra.NoArgs,
		RunE:  historyClearE,
	}
	clearCmd.Flags().BoolVarP(&clearForce, "force", "f", false, "Skip the confirmation prompt")

	exportCmd := &cobra.Command{
		Use:   "export <archive.json.gz>",
		Short: "Write the full history as a gzipped JSON archive",
		Args:  cobra.ExactArgs(1),
		RunE:  historyExportE,
	}

	cmd.AddCommand(listCmd, showCmd, removeCmd, clearCmd, exportCmd)
	return cmd
}

func openStore() (*history.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return history.New(cfg.History.Path, cfg.History.Limit), nil
}

func historyListE(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	printHistoryTable(os.Stdout, store.List())
	return nil
}

func historyShowE(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	entry, err := store.Get(args[0])
	if err != nil {
		return err
	}
	printEntryDetail(os.Stdout, entry)
	return nil
}

func historyRemoveE(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	store.Remove(args[0])
	return nil
}

func historyClearE(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	entries := store.List()
	if len(entries) == 0 {
		fmt.Println("History is already empty.")
		return nil
	}

	if !clearForce {
		confirmed := false
		form := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete all %d history entries?", len(entries))).
				Affirmative("Delete").
				Negative("Keep").
				Value(&confirmed),
		))
		if err := form.Run(); err != nil {
			return fmt.Errorf("confirmation canceled: %w", err)
		}
		if !confirmed {
			return nil
		}
	}

	store.Clear()
	fmt.Printf("Removed %d entries.\n", len(entries))
	return nil
}

func historyExportE(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	f, err := os.Create(args[0])
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	defer f.Close() //nolint:errcheck

	if err := store.Export(f); err != nil {
		return err
	}
	fmt.Printf("History exported to: %s\n", args[0])
	return nil
}
