package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/policyready/policyctl/internal/policyapi"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show search index statistics",
		Args:  cobra.NoArgs,
		RunE:  statsCommandE,
	}
}

func statsCommandE(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client := policyapi.NewClient(cfg.Service.BaseURL)

	stats, err := client.IndexStats(cmd.Context())
	if err != nil {
		return fmt.Errorf("fetching index stats: %w", err)
	}

	printStats(os.Stdout, stats)
	return nil
}

// printStats renders the free-form stats object with stable key order and
// readable number formatting.
func printStats(w io.Writer, stats map[string]any) {
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	p := message.NewPrinter(language.English)
	for _, k := range keys {
		fmt.Fprintf(w, "%s: %s\n", styleHeader.Render(k), formatStatValue(p, stats[k]))
	}
}

// formatStatValue renders JSON-decoded values; whole numbers get thousands
// separators since index sizes run into the millions of terms.
func formatStatValue(p *message.Printer, v any) string {
	switch val := v.(type) {
	case float64:
		if val == float64(int64(val)) {
			return p.Sprintf("%d", int64(val))
		}
		return p.Sprintf("%.2f", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
