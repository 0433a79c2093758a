package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/phishguard/phishguard/internal/log"
	"github.com/phishguard/phishguard/internal/whitelist"
)

// NewWhitelistCmd creates the whitelist command group.
func NewWhitelistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whitelist",
		Short: "Manage the trusted-domain list",
		Long: `Whitelist manages the trusted-domain list used during scanning.
A link whose registered domain appears in the list is skipped by the
spoofing and subdomain rules, and a scan with only trusted links can be
cleared outright.`,
	}

	cmd.AddCommand(newWhitelistUpdateCmd())
	return cmd
}

// newWhitelistUpdateCmd creates the whitelist update subcommand.
func newWhitelistUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Refresh the trusted-domain list from the Tranco ranking",
		Long: `Update downloads the Tranco top-sites ranking and writes the highest
ranked domains to the trusted-domain list.

Examples:
  # Refresh the default list with the top 10000 domains
  phishguard whitelist update

  # Keep more domains, write to a custom path
  phishguard whitelist update --count 50000 --output ./whitelist.txt`,
		Args: cobra.NoArgs,
		RunE: runWhitelistUpdateCmd,
	}

	cmd.Flags().IntP("count", "n", whitelist.DefaultUpdateCount,
		"Number of top-ranked domains to keep")
	cmd.Flags().StringP("output", "o", "",
		"Whitelist file path (default: whitelist.txt in the data directory)")
	cmd.Flags().String("url", "",
		"Ranking archive URL (default: the Tranco latest list)")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .phishguard in current or home directory)")

	return cmd
}

// runWhitelistUpdateCmd executes the whitelist update subcommand.
func runWhitelistUpdateCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd, nil)
	if err != nil {
		return err
	}

	count, err := cmd.Flags().GetInt("count")
	if err != nil {
		return err
	}
	if count < 1 {
		return fmt.Errorf("invalid count %d: must be positive", count)
	}

	path := cfg.WhitelistPath
	if cmd.Flags().Changed("output") {
		if path, err = cmd.Flags().GetString("output"); err != nil {
			return err
		}
	}

	url, err := cmd.Flags().GetString("url")
	if err != nil {
		return err
	}

	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create whitelist directory: %w", err)
		}
	}

	opts := []whitelist.UpdaterOption{whitelist.WithUpdateCount(count)}
	if url != "" {
		opts = append(opts, whitelist.WithUpdateURL(url))
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Downloading domain ranking...")
	n, err := whitelist.NewUpdater(opts...).Update(cmd.Context(), path)
	if err != nil {
		return fmt.Errorf("whitelist update failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d trusted domains to %s\n", n, path)
	return nil
}
