package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phishguard/phishguard/internal/config"
	"github.com/phishguard/phishguard/internal/model"
)

// writeTestArtifact writes a minimal classifier artifact and returns its path.
// The single-term model scores "urgent" highly and everything else low.
func writeTestArtifact(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "model.json")
	artifact := `{
  "normalization": "lowercase",
  "vocabulary": {"urgent": 0, "meeting": 1},
  "idf": [1.0, 1.0],
  "weights": [6.0, -6.0],
  "intercept": -2.0
}`
	if err := os.WriteFile(path, []byte(artifact), 0o600); err != nil {
		t.Fatalf("failed to write artifact: %v", err)
	}
	return path
}

// testScanConfig returns a Config wired entirely to temp paths.
func testScanConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.NewConfig()
	cfg.ModelPath = writeTestArtifact(t)
	cfg.WhitelistPath = filepath.Join(t.TempDir(), "whitelist.txt") // missing, falls back to defaults
	cfg.DBDir = t.TempDir()
	return cfg
}

// TestNewScanCmd tests the scan command creation.
func TestNewScanCmd(t *testing.T) {
	t.Parallel()

	cmd := NewScanCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "scan [email-file...]" {
			t.Errorf("expected use 'scan [email-file...]', got %q", cmd.Use)
		}
	})

	t.Run("has expected flags", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{
			"model", "whitelist", "timeout", "batch", "config",
			"json", "markdown", "output", "show-content", "no-save",
		} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected flag %q", name)
			}
		}
	})

	t.Run("json and markdown flags default to false", func(t *testing.T) {
		t.Parallel()
		if cmd.Flags().Lookup("json").DefValue != "false" {
			t.Error("expected json flag to default to false")
		}
		if cmd.Flags().Lookup("markdown").DefValue != "false" {
			t.Error("expected markdown flag to default to false")
		}
	})
}

// TestBuildConfig tests flag, file, and environment layering.
func TestBuildConfig(t *testing.T) {
	t.Run("defaults when nothing is set", func(t *testing.T) {
		// An explicit empty key keeps a developer's real key out of the test.
		t.Setenv(config.EnvSafeBrowsingKey, "")
		t.Setenv(config.EnvSafeBrowsingEndpoint, "")
		t.Chdir(t.TempDir()) // avoid picking up a real .phishguard

		cmd := NewScanCmd()
		if err := cmd.ParseFlags(nil); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		cfg, err := buildConfig(cmd, []string{"mail.eml"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.BatchSize != config.DefaultBatchSize {
			t.Errorf("expected default batch size, got %d", cfg.BatchSize)
		}
		if !cfg.SaveToDB {
			t.Error("expected SaveToDB to default to true")
		}
		if len(cfg.Targets) != 1 || cfg.Targets[0] != "mail.eml" {
			t.Errorf("unexpected targets: %v", cfg.Targets)
		}
	})

	t.Run("flags override the config file", func(t *testing.T) {
		t.Setenv(config.EnvSafeBrowsingKey, "")
		t.Setenv(config.EnvSafeBrowsingEndpoint, "")

		configPath := filepath.Join(t.TempDir(), ".phishguard")
		if err := os.WriteFile(configPath, []byte("batchSize: 2\n"), 0o600); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}

		cmd := NewScanCmd()
		if err := cmd.ParseFlags([]string{"-c", configPath, "-b", "9"}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		cfg, err := buildConfig(cmd, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.BatchSize != 9 {
			t.Errorf("expected flag to win over file, got batch size %d", cfg.BatchSize)
		}
	})

	t.Run("config file values apply when flags are unset", func(t *testing.T) {
		t.Setenv(config.EnvSafeBrowsingKey, "")
		t.Setenv(config.EnvSafeBrowsingEndpoint, "")

		configPath := filepath.Join(t.TempDir(), ".phishguard")
		content := "batchSize: 2\nmodel: /opt/pg/model.json\n"
		if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}

		cmd := NewScanCmd()
		if err := cmd.ParseFlags([]string{"-c", configPath}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		cfg, err := buildConfig(cmd, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.BatchSize != 2 {
			t.Errorf("expected file batch size 2, got %d", cfg.BatchSize)
		}
		if cfg.ModelPath != "/opt/pg/model.json" {
			t.Errorf("expected file model path, got %s", cfg.ModelPath)
		}
	})

	t.Run("missing explicit config file is an error", func(t *testing.T) {
		cmd := NewScanCmd()
		missing := filepath.Join(t.TempDir(), "nope.yaml")
		if err := cmd.ParseFlags([]string{"-c", missing}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		if _, err := buildConfig(cmd, nil); err == nil {
			t.Error("expected error for missing explicit config file")
		}
	})

	t.Run("environment supplies the API key", func(t *testing.T) {
		t.Setenv(config.EnvSafeBrowsingKey, "env-test-key")
		t.Setenv(config.EnvSafeBrowsingEndpoint, "")
		t.Chdir(t.TempDir())

		cmd := NewScanCmd()
		if err := cmd.ParseFlags(nil); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		cfg, err := buildConfig(cmd, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.SafeBrowsingKey != "env-test-key" {
			t.Errorf("expected API key from environment, got %q", cfg.SafeBrowsingKey)
		}
	})

	t.Run("no-save disables history", func(t *testing.T) {
		t.Setenv(config.EnvSafeBrowsingKey, "")
		t.Setenv(config.EnvSafeBrowsingEndpoint, "")
		t.Chdir(t.TempDir())

		cmd := NewScanCmd()
		if err := cmd.ParseFlags([]string{"--no-save"}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		cfg, err := buildConfig(cmd, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.SaveToDB {
			t.Error("expected SaveToDB false with --no-save")
		}
	})
}

// TestBuildEngine tests engine assembly from configuration.
func TestBuildEngine(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	t.Run("builds with a valid artifact", func(t *testing.T) {
		t.Parallel()

		cfg := testScanConfig(t)
		engine, err := buildEngine(cfg, logger)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if engine == nil {
			t.Fatal("expected an engine")
		}

		// The single-term model separates phishing from routine text.
		phishing := engine.Scan(context.Background(), "urgent urgent urgent")
		routine := engine.Scan(context.Background(), "meeting notes attached")
		if phishing.Score <= routine.Score {
			t.Errorf("expected urgent text to outscore meeting text: %f vs %f",
				phishing.Score, routine.Score)
		}
	})

	t.Run("missing artifact is fatal", func(t *testing.T) {
		t.Parallel()

		cfg := testScanConfig(t)
		cfg.ModelPath = filepath.Join(t.TempDir(), "missing.json")

		if _, err := buildEngine(cfg, logger); err == nil {
			t.Error("expected error for missing artifact")
		}
	})

	t.Run("corrupt artifact is fatal", func(t *testing.T) {
		t.Parallel()

		cfg := testScanConfig(t)
		cfg.ModelPath = filepath.Join(t.TempDir(), "broken.json")
		if err := os.WriteFile(cfg.ModelPath, []byte("{not json"), 0o600); err != nil {
			t.Fatalf("failed to write artifact: %v", err)
		}

		if _, err := buildEngine(cfg, logger); err == nil {
			t.Error("expected error for corrupt artifact")
		}
	})
}

// TestRunScan tests the end-to-end scan flow with temp files.
func TestRunScan(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	t.Run("scans a file and records history", func(t *testing.T) {
		t.Parallel()

		cfg := testScanConfig(t)
		cfg.JSONReport = true
		cfg.ReportFile = filepath.Join(t.TempDir(), "out", "report.json")

		emailPath := filepath.Join(t.TempDir(), "mail.txt")
		if err := os.WriteFile(emailPath, []byte("urgent: verify your account"), 0o600); err != nil {
			t.Fatalf("failed to write email file: %v", err)
		}
		cfg.Targets = []string{emailPath}

		if err := runScan(context.Background(), cfg, logger); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Report file written and parseable
		data, err := os.ReadFile(cfg.ReportFile)
		if err != nil {
			t.Fatalf("failed to read report: %v", err)
		}
		var result model.ScanResult
		if err := json.Unmarshal(data, &result); err != nil {
			t.Fatalf("report is not valid JSON: %v", err)
		}
		if result.Verdict != model.VerdictPhishing {
			t.Errorf("expected PHISHING verdict, got %s", result.Verdict)
		}

		// History database created
		if _, err := os.Stat(filepath.Join(cfg.DBDir, "phishguard.db")); err != nil {
			t.Errorf("expected history database to exist: %v", err)
		}
	})

	t.Run("no-save skips the database", func(t *testing.T) {
		t.Parallel()

		cfg := testScanConfig(t)
		cfg.SaveToDB = false
		cfg.JSONReport = true
		cfg.ReportFile = filepath.Join(t.TempDir(), "report.json")

		emailPath := filepath.Join(t.TempDir(), "mail.txt")
		if err := os.WriteFile(emailPath, []byte("meeting notes"), 0o600); err != nil {
			t.Fatalf("failed to write email file: %v", err)
		}
		cfg.Targets = []string{emailPath}

		if err := runScan(context.Background(), cfg, logger); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := os.Stat(filepath.Join(cfg.DBDir, "phishguard.db")); !os.IsNotExist(err) {
			t.Error("expected no history database with no-save")
		}
	})

	t.Run("unreadable file is reported but not fatal", func(t *testing.T) {
		t.Parallel()

		cfg := testScanConfig(t)
		cfg.SaveToDB = false
		cfg.Targets = []string{filepath.Join(t.TempDir(), "missing.eml")}
		cfg.JSONReport = true
		cfg.ReportFile = filepath.Join(t.TempDir(), "report.json")

		if err := runScan(context.Background(), cfg, logger); err != nil {
			t.Errorf("expected unreadable target to be skipped, got %v", err)
		}
	})

	t.Run("cancelled context stops the scan", func(t *testing.T) {
		t.Parallel()

		cfg := testScanConfig(t)
		cfg.SaveToDB = false

		emailPath := filepath.Join(t.TempDir(), "mail.txt")
		if err := os.WriteFile(emailPath, []byte("hello"), 0o600); err != nil {
			t.Fatalf("failed to write email file: %v", err)
		}
		cfg.Targets = []string{emailPath}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := runScan(ctx, cfg, logger); err == nil {
			t.Error("expected context error")
		}
	})
}

// TestOutputReport tests report format selection.
func TestOutputReport(t *testing.T) {
	t.Parallel()

	result := &model.ScanResult{
		Verdict:         model.VerdictLegitimate,
		Score:           12.5,
		Flags:           []string{},
		Reputation:      model.ReputationClean,
		IdentifiedWords: []string{},
	}

	t.Run("markdown report to file", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.MarkdownReport = true
		cfg.ReportFile = filepath.Join(t.TempDir(), "audit.md")

		if err := outputReport(cfg, result, "hello world"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(cfg.ReportFile)
		if err != nil {
			t.Fatalf("failed to read report: %v", err)
		}
		if !strings.Contains(string(data), "# PhishGuard Forensic Audit Report") {
			t.Error("expected markdown title in report")
		}
	})

	t.Run("json report round-trips", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.JSONReport = true
		cfg.ReportFile = filepath.Join(t.TempDir(), "report.json")

		if err := outputReport(cfg, result, "hello"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(cfg.ReportFile)
		if err != nil {
			t.Fatalf("failed to read report: %v", err)
		}
		var decoded model.ScanResult
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("report is not valid JSON: %v", err)
		}
		if decoded.Score != 12.5 {
			t.Errorf("expected score 12.5, got %f", decoded.Score)
		}
	})
}

// TestResolveTargets tests input resolution.
func TestResolveTargets(t *testing.T) {
	t.Parallel()

	t.Run("explicit arguments pass through", func(t *testing.T) {
		t.Parallel()

		targets, err := resolveTargets([]string{"a.eml", "b.eml"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(targets) != 2 {
			t.Errorf("expected 2 targets, got %d", len(targets))
		}
	})
}

// TestReadTarget tests reading scan input from a file.
func TestReadTarget(t *testing.T) {
	t.Parallel()

	t.Run("reads a file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "mail.txt")
		if err := os.WriteFile(path, []byte("content"), 0o600); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		text, err := readTarget(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text != "content" {
			t.Errorf("expected 'content', got %q", text)
		}
	})

	t.Run("missing file returns an error", func(t *testing.T) {
		t.Parallel()

		if _, err := readTarget(filepath.Join(t.TempDir(), "missing")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

// TestSaveScanResult tests that nil database is a no-op.
func TestSaveScanResult(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	result := &model.ScanResult{Verdict: model.VerdictLegitimate, Score: 1.0}

	if err := saveScanResult(context.Background(), nil, result, logger); err != nil {
		t.Errorf("expected nil database to be a no-op, got %v", err)
	}
}

// TestGetVerboseFlag tests verbose flag resolution.
func TestGetVerboseFlag(t *testing.T) {
	t.Parallel()

	t.Run("falls back to the root persistent flag", func(t *testing.T) {
		t.Parallel()

		root := NewRootCmd()
		if err := root.PersistentFlags().Set("verbose", "true"); err != nil {
			t.Fatalf("failed to set verbose flag: %v", err)
		}

		scanCmd, _, err := root.Find([]string{"scan"})
		if err != nil {
			t.Fatalf("failed to find scan command: %v", err)
		}

		if !getVerboseFlag(scanCmd) {
			t.Error("expected verbose true via the root flag")
		}
	})

	t.Run("defaults to false", func(t *testing.T) {
		t.Parallel()

		root := NewRootCmd()
		scanCmd, _, err := root.Find([]string{"scan"})
		if err != nil {
			t.Fatalf("failed to find scan command: %v", err)
		}

		if getVerboseFlag(scanCmd) {
			t.Error("expected verbose false by default")
		}
	})
}
