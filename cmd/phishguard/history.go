package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/phishguard/phishguard/internal/config"
	"github.com/phishguard/phishguard/internal/database"
	"github.com/phishguard/phishguard/internal/log"
	"github.com/phishguard/phishguard/internal/model"
)

// defaultHistoryLimit is how many records the history command shows
// unless --limit is given.
const defaultHistoryLimit = 10

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent scan verdicts",
		Long: `History lists recent scan verdicts from the local database, newest first,
along with aggregate statistics.

Examples:
  # Show the last 10 scans
  phishguard history

  # Show the last 50 scans
  phishguard history --limit 50

  # Machine-readable output
  phishguard history --json`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Maximum number of records to show")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON instead of a table")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .phishguard in current or home directory)")

	return cmd
}

// historyOutput is the JSON shape of the history command.
type historyOutput struct {
	Records []model.HistoryRecord `json:"records"`
	Stats   model.HistoryStats    `json:"stats"`
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd, nil)
	if err != nil {
		return err
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	if limit < 1 {
		return fmt.Errorf("%w: got %d", config.ErrInvalidHistoryLimit, limit)
	}

	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	db, err := database.Open(cfg.DBDir, database.Options{})
	if err != nil {
		return fmt.Errorf("no scan history found under %s (run a scan first): %w", cfg.DBDir, err)
	}
	defer db.Close()

	ctx := cmd.Context()
	records, err := db.RecentScans(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to read scan history: %w", err)
	}
	stats, err := db.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read scan statistics: %w", err)
	}

	if asJSON {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(historyOutput{Records: records, Stats: stats})
	}

	return printHistory(cmd, records, stats)
}

// printHistory renders the records as an aligned table with a stats footer.
func printHistory(cmd *cobra.Command, records []model.HistoryRecord, stats model.HistoryStats) error {
	out := cmd.OutOrStdout()

	if len(records) == 0 {
		fmt.Fprintln(out, "No scans recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tVERDICT\tSCORE\tTIMESTAMP")
	for _, rec := range records {
		fmt.Fprintf(w, "%d\t%s\t%.2f\t%s\n",
			rec.ID, rec.Verdict, rec.Score, rec.Timestamp.Format("2006-01-02 15:04:05"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nTotal: %d scans (%d phishing, %d legitimate)\n",
		stats.TotalScans, stats.PhishingScans, stats.LegitimateScans)
	return nil
}
