package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/phishguard/phishguard/internal/log"
	"github.com/phishguard/phishguard/internal/server"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scan API server",
		Long: `Serve starts an HTTP server exposing the scan engine as a JSON API.

Endpoints:
  POST /api/v1/scan     Score email text ({"email_content": "..."})
  POST /api/v1/report   Render a Markdown audit report
  GET  /api/v1/history  List recent scan verdicts
  GET  /healthz         Liveness check

The server binds to loopback by default and carries no authentication;
use --addr only on trusted networks.

Examples:
  # Serve on the default loopback address
  phishguard serve

  # Serve on a custom address
  phishguard serve --addr 0.0.0.0:8080`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("addr", "a", "",
		"Listen address in host:port format (default 127.0.0.1:8790)")
	cmd.Flags().StringP("model", "M", "",
		"Path to the classifier artifact JSON file")
	cmd.Flags().StringP("whitelist", "w", "",
		"Path to the trusted-domain list")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .phishguard in current or home directory)")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd, nil)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		if cfg.ListenAddr, err = cmd.Flags().GetString("addr"); err != nil {
			return err
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	engine, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}

	db, err := openHistoryDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(engine,
		server.WithHistory(db),
		server.WithLogger(logger),
	)
	return srv.Run(ctx, cfg.ListenAddr)
}
