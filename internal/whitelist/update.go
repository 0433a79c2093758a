package whitelist

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/net/idna"
)

// Updater defaults.
const (
	// DefaultTrancoURL is the permanent URL of the latest Tranco top-1M
	// ranking, published as a zipped CSV of "rank,domain" rows.
	DefaultTrancoURL = "https://tranco-list.eu/top-1m.csv.zip"

	// DefaultUpdateCount is how many top-ranked domains to keep.
	// 10000 covers the domains that appear in legitimate mail while
	// keeping lookups and the file itself small.
	DefaultUpdateCount = 10000

	// defaultUpdateTimeout bounds the whole download. The ranking file is
	// a few megabytes; anything slower than this is a network problem.
	defaultUpdateTimeout = 20 * time.Second

	// maxArchiveSize caps how much of the response we are willing to
	// buffer. The published archive is well under this.
	maxArchiveSize = 64 * 1024 * 1024
)

// Updater errors.
var (
	// ErrEmptyArchive is returned when the downloaded archive has no files.
	ErrEmptyArchive = errors.New("whitelist archive contains no files")

	// ErrNoDomains is returned when no domain rows could be parsed.
	ErrNoDomains = errors.New("whitelist archive contains no domain rows")
)

// Updater downloads the Tranco ranking and rewrites the whitelist file.
//
// Design decision: the updater is a separate type from the Matcher because
// refreshing the list is an operator action (a CLI subcommand), while
// matching is a hot-path scan concern. A scan never triggers a download.
type Updater struct {
	client *http.Client
	url    string
	count  int
}

// UpdaterOption configures an Updater.
type UpdaterOption func(*Updater)

// WithUpdateURL overrides the ranking download URL. Used in tests and for
// mirrors.
func WithUpdateURL(url string) UpdaterOption {
	return func(u *Updater) {
		u.url = url
	}
}

// WithUpdateCount sets how many top-ranked domains to keep.
func WithUpdateCount(n int) UpdaterOption {
	return func(u *Updater) {
		if n > 0 {
			u.count = n
		}
	}
}

// WithUpdateClient sets a custom HTTP client.
func WithUpdateClient(client *http.Client) UpdaterOption {
	return func(u *Updater) {
		u.client = client
	}
}

// NewUpdater creates an Updater with the given options.
func NewUpdater(opts ...UpdaterOption) *Updater {
	u := &Updater{
		url:   DefaultTrancoURL,
		count: DefaultUpdateCount,
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.client == nil {
		u.client = &http.Client{Timeout: defaultUpdateTimeout}
	}
	return u
}

// Update downloads the ranking, keeps the first count domains, and writes
// them one per line to path. Returns the number of domains written.
func (u *Updater) Update(ctx context.Context, path string) (int, error) {
	domains, err := u.fetch(ctx)
	if err != nil {
		return 0, err
	}

	var b strings.Builder
	for _, d := range domains {
		b.WriteString(d)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return 0, fmt.Errorf("failed to write whitelist %s: %w", path, err)
	}

	return len(domains), nil
}

// fetch downloads and parses the zipped CSV ranking.
func (u *Updater) fetch(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build ranking request: %w", err)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download ranking: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // Best effort cleanup

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ranking download returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxArchiveSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read ranking archive: %w", err)
	}

	return u.parseArchive(raw)
}

// parseArchive extracts the CSV from the ZIP in memory and keeps the first
// count "rank,domain" rows. Domains are lowercased and IDNA-normalized so
// unicode entries compare in the same punycode form the link parser emits.
func (u *Updater) parseArchive(raw []byte) ([]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("failed to open ranking archive: %w", err)
	}
	if len(zr.File) == 0 {
		return nil, ErrEmptyArchive
	}

	f, err := zr.File[0].Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open ranking CSV: %w", err)
	}
	defer f.Close() //nolint:errcheck // Read-only archive entry

	content, err := io.ReadAll(io.LimitReader(f, maxArchiveSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read ranking CSV: %w", err)
	}

	domains := make([]string, 0, u.count)
	for _, line := range strings.Split(string(content), "\n") {
		if len(domains) >= u.count {
			break
		}
		_, domain, ok := strings.Cut(strings.TrimSpace(line), ",")
		if !ok || domain == "" {
			continue
		}
		domains = append(domains, normalizeDomain(domain))
	}

	if len(domains) == 0 {
		return nil, ErrNoDomains
	}
	return domains, nil
}

// normalizeDomain lowercases a domain and converts unicode labels to
// punycode. Entries that fail conversion are kept lowercased as-is.
func normalizeDomain(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	ascii, err := idna.Lookup.ToASCII(domain)
	if err != nil {
		return domain
	}
	return ascii
}
