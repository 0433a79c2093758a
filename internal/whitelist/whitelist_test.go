package whitelist

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestLoad tests whitelist file loading and the built-in fallback.
func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("loads domains from file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "whitelist.txt")
		content := "example.com\n# comment line\n\nGitHub.com \n"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write whitelist: %v", err)
		}

		m, err := Load(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.Len() != 2 {
			t.Errorf("Len() = %d, want 2", m.Len())
		}
		if !m.Trusted("example.com") {
			t.Error("expected example.com to be trusted")
		}
		if !m.Trusted("github.com") {
			t.Error("expected github.com to be trusted (case and space folded)")
		}
		if m.Trusted("evil.com") {
			t.Error("expected evil.com to be untrusted")
		}
	})

	t.Run("missing file falls back to defaults", func(t *testing.T) {
		t.Parallel()

		m, err := Load(filepath.Join(t.TempDir(), "missing.txt"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, domain := range []string{"google.com", "paypal.com", "microsoft.com", "amazon.com", "apple.com"} {
			if !m.Trusted(domain) {
				t.Errorf("expected default domain %s to be trusted", domain)
			}
		}
	})

	t.Run("empty file yields an empty trust set", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "whitelist.txt")
		if err := os.WriteFile(path, []byte(""), 0600); err != nil {
			t.Fatalf("failed to write whitelist: %v", err)
		}

		m, err := Load(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.Len() != 0 {
			t.Errorf("Len() = %d, want 0", m.Len())
		}
		if m.Trusted("google.com") {
			t.Error("an emptied list must not re-trust the built-in defaults")
		}
	})

	t.Run("all-comments file yields an empty trust set", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "whitelist.txt")
		if err := os.WriteFile(path, []byte("# only comments\n\n"), 0600); err != nil {
			t.Fatalf("failed to write whitelist: %v", err)
		}

		m, err := Load(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.Len() != 0 {
			t.Errorf("Len() = %d, want 0", m.Len())
		}
	})

	t.Run("empty registered domain never matches", func(t *testing.T) {
		t.Parallel()

		m := New([]string{"example.com"})
		if m.Trusted("") {
			t.Error("empty registered domain must not be trusted")
		}
	})
}

// trancoZip builds an in-memory ZIP holding a Tranco-format CSV.
func trancoZip(t *testing.T, csv string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("top-1m.csv")
	if err != nil {
		t.Fatalf("failed to create zip entry: %v", err)
	}
	if _, err := f.Write([]byte(csv)); err != nil {
		t.Fatalf("failed to write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return buf.Bytes()
}

// TestUpdater tests the Tranco list download and rewrite.
func TestUpdater(t *testing.T) {
	t.Parallel()

	t.Run("writes top domains to file", func(t *testing.T) {
		t.Parallel()

		archive := trancoZip(t, "1,google.com\n2,Amazon.com\n3,example.org\n4,too-low.net\n")
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write(archive)
		}))
		defer srv.Close()

		path := filepath.Join(t.TempDir(), "whitelist.txt")
		u := NewUpdater(WithUpdateURL(srv.URL), WithUpdateCount(3))

		n, err := u.Update(context.Background(), path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 3 {
			t.Errorf("Update() wrote %d domains, want 3", n)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read whitelist: %v", err)
		}
		want := "google.com\namazon.com\nexample.org\n"
		if string(data) != want {
			t.Errorf("whitelist content = %q, want %q", string(data), want)
		}

		m, err := Load(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !m.Trusted("amazon.com") {
			t.Error("expected refreshed list to trust amazon.com")
		}
	})

	t.Run("server error is reported", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		u := NewUpdater(WithUpdateURL(srv.URL))
		if _, err := u.Update(context.Background(), filepath.Join(t.TempDir(), "w.txt")); err == nil {
			t.Fatal("expected error on server failure")
		}
	})

	t.Run("archive without domain rows is an error", func(t *testing.T) {
		t.Parallel()

		archive := trancoZip(t, "no commas here\n")
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write(archive)
		}))
		defer srv.Close()

		u := NewUpdater(WithUpdateURL(srv.URL))
		_, err := u.Update(context.Background(), filepath.Join(t.TempDir(), "w.txt"))
		if err == nil || !strings.Contains(err.Error(), "no domain rows") {
			t.Errorf("expected ErrNoDomains, got %v", err)
		}
	})
}
