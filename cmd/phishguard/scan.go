package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/phishguard/phishguard/internal/classifier"
	"github.com/phishguard/phishguard/internal/config"
	"github.com/phishguard/phishguard/internal/database"
	"github.com/phishguard/phishguard/internal/log"
	"github.com/phishguard/phishguard/internal/model"
	"github.com/phishguard/phishguard/internal/report"
	"github.com/phishguard/phishguard/internal/reputation"
	"github.com/phishguard/phishguard/internal/scan"
	"github.com/phishguard/phishguard/internal/whitelist"
)

// stdinTarget is the pseudo file name meaning "read from standard input".
const stdinTarget = "-"

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [email-file...]",
		Short: "Scan email text for phishing indicators",
		Long: `Scan analyzes raw email text and produces a verdict with a risk score.

The classifier provides a base probability; deterministic rules then
inspect every link for:
- '@' obfuscation hiding the real destination
- Brand name spoofing (google, paypal, microsoft, amazon, apple)
- Excessive subdomain nesting
- Google Safe Browsing blacklist hits

Examples:
  # Scan a single email file
  phishguard scan suspicious.eml

  # Scan from stdin
  cat suspicious.eml | phishguard scan

  # Scan multiple files concurrently
  phishguard scan inbox/*.eml --batch 8

  # Output JSON or a Markdown audit report
  phishguard scan --json suspicious.eml
  phishguard scan --markdown -o audit.md suspicious.eml

Configuration file (.phishguard) example:
  model: /opt/phishguard/model.json
  whitelist: /opt/phishguard/whitelist.txt
  safeBrowsing:
    timeoutSeconds: 5
  database:
    dir: /var/lib/phishguard`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	// Scan behavior flags
	cmd.Flags().StringP("model", "M", "",
		"Path to the classifier artifact JSON file")
	cmd.Flags().StringP("whitelist", "w", "",
		"Path to the trusted-domain list")
	cmd.Flags().DurationP("timeout", "t", config.DefaultReputationTimeout,
		"Timeout for each Safe Browsing lookup")

	// Batch scanning flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent scans for multi-file input")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .phishguard in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown audit report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("show-content", false,
		"Echo the analyzed email text into the report")

	// History flags
	cmd.Flags().Bool("no-save", false,
		"Do not record scan verdicts in the history database")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging with secret sanitization
	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runScan(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from the config file, environment, and
// cobra command flags. Precedence: flags > config file > environment >
// defaults.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	configFlag, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg.ConfigFilePath = configFlag

	// Load the config file. If the user explicitly specified a path,
	// error when it is missing; otherwise silently run on defaults.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cf.Apply(cfg)
	} else if configFlag != "" {
		return nil, fmt.Errorf("configuration file not found: %s", configFlag)
	}

	cfg.LoadEnvironment()

	// Flags win over the config file, so only apply the ones the user set.
	// Not every command defines every flag; absent flags are skipped.
	if cmd.Flags().Changed("model") {
		if cfg.ModelPath, err = cmd.Flags().GetString("model"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("whitelist") {
		if cfg.WhitelistPath, err = cmd.Flags().GetString("whitelist"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("timeout") {
		if cfg.ReputationTimeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("batch") {
		if cfg.BatchSize, err = cmd.Flags().GetInt("batch"); err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Lookup("json") != nil {
		if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Lookup("markdown") != nil {
		if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Lookup("output") != nil {
		if cfg.ReportFile, err = cmd.Flags().GetString("output"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Lookup("show-content") != nil {
		if cfg.ShowContent, err = cmd.Flags().GetBool("show-content"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Lookup("no-save") != nil {
		noSave, err := cmd.Flags().GetBool("no-save")
		if err != nil {
			return nil, err
		}
		cfg.SaveToDB = !noSave
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.Targets = args

	return cfg, nil
}

// buildEngine assembles the scan engine from the configuration: the
// classifier artifact, the trusted-domain list, and the reputation client.
// A missing or corrupt artifact is fatal; a missing whitelist falls back
// to the built-in domains.
func buildEngine(cfg *config.Config, logger *slog.Logger) (*scan.Engine, error) {
	predictor, err := classifier.Load(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load classifier artifact %s: %w", cfg.ModelPath, err)
	}

	trust, err := whitelist.Load(cfg.WhitelistPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load whitelist %s: %w", cfg.WhitelistPath, err)
	}
	logger.Debug("whitelist loaded", "path", cfg.WhitelistPath, "domains", trust.Len())

	repOpts := []reputation.Option{
		reputation.WithLogger(logger),
		reputation.WithHTTPClient(&http.Client{Timeout: cfg.ReputationTimeout}),
	}
	if cfg.SafeBrowsingEndpoint != "" {
		repOpts = append(repOpts, reputation.WithEndpoint(cfg.SafeBrowsingEndpoint))
	}
	if cfg.SafeBrowsingKey == "" {
		logger.Debug("no Safe Browsing API key configured; reputation checks fail open")
	}
	checker := reputation.NewClient(cfg.SafeBrowsingKey, repOpts...)

	return scan.NewEngine(predictor, checker, trust, scan.WithLogger(logger)), nil
}

// openHistoryDB opens the scan history database under the configured
// directory, creating it on first use.
func openHistoryDB(cfg *config.Config) (*database.HistoryDB, error) {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	return db, nil
}

// runScan executes the scan.
func runScan(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	targets, err := resolveTargets(cfg.Targets)
	if err != nil {
		return err
	}

	logger.Info("starting scan",
		"targets", len(targets),
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	engine, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}

	// Open database connection if saving is enabled
	var db *database.HistoryDB
	if cfg.SaveToDB {
		db, err = openHistoryDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		logger.Debug("history database opened", "dir", cfg.DBDir)
	}

	if len(targets) > 1 && cfg.BatchSize > 1 {
		return runBatchScan(ctx, cfg, engine, db, targets, logger)
	}
	return runSequentialScan(ctx, cfg, engine, db, targets, logger)
}

// resolveTargets expands the positional arguments into scan inputs.
// With no arguments, stdin is used when it is a pipe or file; a terminal
// on stdin means the user forgot to provide input.
func resolveTargets(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}

	info, err := os.Stdin.Stat()
	if err != nil {
		return nil, config.ErrNoTarget
	}
	if info.Mode()&os.ModeCharDevice != 0 {
		return nil, config.ErrNoTarget
	}
	return []string{stdinTarget}, nil
}

// readTarget reads one scan input, either a file or stdin.
func readTarget(target string) (string, error) {
	if target == stdinTarget {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(target) //nolint:gosec // User-provided input path is intentional
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", target, err)
	}
	return string(data), nil
}

// runSequentialScan scans targets one at a time.
func runSequentialScan(ctx context.Context, cfg *config.Config, engine *scan.Engine, db *database.HistoryDB, targets []string, logger *slog.Logger) error {
	for _, target := range targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		text, err := readTarget(target)
		if err != nil {
			logger.Error("scan failed", "target", target, "error", err)
			fmt.Fprintf(os.Stderr, "Scan error for %s: %v\n", target, err)
			continue
		}

		result := engine.Scan(ctx, text)

		if err := outputReport(cfg, result, text); err != nil {
			logger.Error("report failed", "target", target, "error", err)
		}
		if err := saveScanResult(ctx, db, result, logger); err != nil {
			logger.Error("failed to save scan result", "target", target, "error", err)
		}
	}

	return nil
}

// runBatchScan scans multiple targets concurrently using BatchProcessor.
func runBatchScan(ctx context.Context, cfg *config.Config, engine *scan.Engine, db *database.HistoryDB, targets []string, logger *slog.Logger) error {
	fmt.Printf("Starting batch scan of %d targets (concurrency: %d)...\n\n",
		len(targets), cfg.BatchSize)

	startTime := time.Now()

	inputs := make([]scan.BatchInput, 0, len(targets))
	for _, target := range targets {
		text, err := readTarget(target)
		if err != nil {
			logger.Error("skipping unreadable target", "target", target, "error", err)
			fmt.Fprintf(os.Stderr, "Scan error for %s: %v\n", target, err)
			continue
		}
		inputs = append(inputs, scan.BatchInput{Name: target, Text: text})
	}

	bp := scan.NewBatchProcessor(engine,
		scan.WithConcurrency(cfg.BatchSize),
		scan.WithBatchLogger(logger),
	)

	// Process with callback for streaming output
	var mu sync.Mutex
	count := 0
	err := bp.Process(ctx, inputs, func(br scan.BatchResult, _ int) {
		mu.Lock()
		defer mu.Unlock()

		count++
		fmt.Printf("[%d/%d] Scan completed: %s\n", count, len(inputs), br.Name)

		if err := outputReport(cfg, br.Result, br.Text); err != nil {
			logger.Error("report failed", "target", br.Name, "error", err)
		}
		if err := saveScanResult(ctx, db, br.Result, logger); err != nil {
			logger.Error("failed to save scan result", "target", br.Name, "error", err)
		}
	})

	elapsed := time.Since(startTime)
	fmt.Printf("\nBatch scan completed in %s\n", elapsed.Round(time.Millisecond))

	return err
}

// outputReport outputs the scan result in the requested format.
func outputReport(cfg *config.Config, result *model.ScanResult, text string) error {
	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Reports may quote suspicious email content; keep them
		// readable by the owner only.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	// JSON output (machine-readable result)
	if cfg.JSONReport {
		encoder := json.NewEncoder(output)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	// Markdown audit report
	if cfg.MarkdownReport {
		_, err := report.NewMarkdownWriter(output).Write(result, text)
		return err
	}

	// Human-readable report (default)
	_, err := report.NewSimpleWriter(output, report.WithShowContent(cfg.ShowContent)).Write(result, text)
	return err
}

// saveScanResult records the scan verdict in the history database.
// If db is nil, this function is a no-op.
func saveScanResult(ctx context.Context, db *database.HistoryDB, result *model.ScanResult, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	id, err := db.InsertScan(ctx, result.Verdict, result.Score)
	if err != nil {
		return fmt.Errorf("failed to save scan result: %w", err)
	}

	logger.Debug("scan result saved", "id", id, "verdict", result.Verdict)
	return nil
}
