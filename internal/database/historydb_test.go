package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/phishguard/phishguard/internal/model"
)

// openTestDB opens a HistoryDB in a temp directory and closes it on cleanup.
func openTestDB(t *testing.T) *HistoryDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close database: %v", err)
		}
	})
	return db
}

// TestOpen tests database creation behavior.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database and directory", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "nested", "data")
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer db.Close() //nolint:errcheck // Test cleanup

		if db.Path() != filepath.Join(dir, "phishguard.db") {
			t.Errorf("Path() = %q, want file inside %q", db.Path(), dir)
		}
	})

	t.Run("refuses to open a missing database without create", func(t *testing.T) {
		t.Parallel()

		opts := Options{CreateIfNotExists: false}
		if _, err := Open(t.TempDir(), opts); err == nil {
			t.Fatal("expected error when database doesn't exist")
		}
	})
}

// TestInsertAndRecentScans tests the append-only history log.
func TestInsertAndRecentScans(t *testing.T) {
	t.Parallel()

	t.Run("returns rows most recent first", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		ctx := context.Background()

		inserts := []struct {
			verdict model.Verdict
			score   float64
		}{
			{model.VerdictLegitimate, 12.5},
			{model.VerdictPhishing, 100.0},
			{model.VerdictLegitimate, 0.0},
		}
		for _, in := range inserts {
			if _, err := db.InsertScan(ctx, in.verdict, in.score); err != nil {
				t.Fatalf("failed to insert scan: %v", err)
			}
		}

		records, err := db.RecentScans(ctx, 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("got %d records, want 3", len(records))
		}

		// Same-second inserts fall back to id order, newest first.
		if records[0].Score != 0.0 || records[0].Verdict != model.VerdictLegitimate {
			t.Errorf("first record = %+v, want the last insert", records[0])
		}
		if records[2].Score != 12.5 {
			t.Errorf("last record = %+v, want the first insert", records[2])
		}
	})

	t.Run("limit caps the result", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		ctx := context.Background()

		for range 5 {
			if _, err := db.InsertScan(ctx, model.VerdictPhishing, 80.0); err != nil {
				t.Fatalf("failed to insert scan: %v", err)
			}
		}

		records, err := db.RecentScans(ctx, 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(records) != 2 {
			t.Errorf("got %d records, want 2", len(records))
		}
	})

	t.Run("zero limit returns an empty slice", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		records, err := db.RecentScans(context.Background(), 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(records) != 0 {
			t.Errorf("got %d records, want 0", len(records))
		}
	})

	t.Run("empty database lists nothing", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		records, err := db.RecentScans(context.Background(), 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(records) != 0 {
			t.Errorf("got %d records, want 0", len(records))
		}
	})
}

// TestStats tests the aggregate counters.
func TestStats(t *testing.T) {
	t.Parallel()

	t.Run("counts verdicts", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		ctx := context.Background()

		for range 3 {
			if _, err := db.InsertScan(ctx, model.VerdictPhishing, 90.0); err != nil {
				t.Fatalf("failed to insert scan: %v", err)
			}
		}
		for range 2 {
			if _, err := db.InsertScan(ctx, model.VerdictLegitimate, 5.0); err != nil {
				t.Fatalf("failed to insert scan: %v", err)
			}
		}

		stats, err := db.Stats(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stats.TotalScans != 5 {
			t.Errorf("TotalScans = %d, want 5", stats.TotalScans)
		}
		if stats.PhishingScans != 3 {
			t.Errorf("PhishingScans = %d, want 3", stats.PhishingScans)
		}
		if stats.LegitimateScans != 2 {
			t.Errorf("LegitimateScans = %d, want 2", stats.LegitimateScans)
		}
	})

	t.Run("empty database has zero stats", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		stats, err := db.Stats(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stats.TotalScans != 0 || stats.PhishingScans != 0 || stats.LegitimateScans != 0 {
			t.Errorf("stats = %+v, want all zero", stats)
		}
	})
}
