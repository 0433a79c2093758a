// Package main provides the entry point for the PhishGuard CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for PhishGuard.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phishguard",
		Short: "Phishing email detection and risk scoring",
		Long: `PhishGuard analyzes raw email text and produces a phishing verdict with a
risk score between 0 and 100. A trained text classifier provides the base
score; deterministic rules then inspect every link for obfuscation, brand
spoofing, excessive subdomains, and blacklist hits.

Reputation lookups use the Google Safe Browsing API. Set the
PHISHGUARD_SAFE_BROWSING_KEY environment variable to enable them; without
a key, scans run on the classifier and rule signals alone.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewWhitelistCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
