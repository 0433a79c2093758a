package reputation

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/phishguard/phishguard/internal/model"
)

const (
	// DefaultEndpoint is the Safe Browsing v4 threat-match endpoint.
	// The API key is appended as a query parameter at request time.
	DefaultEndpoint = "https://safebrowsing.googleapis.com/v4/threatMatches:find"

	// DefaultTimeout bounds a single reputation lookup. The check is
	// advisory, so a scan should never wait long for it.
	DefaultTimeout = 2 * time.Second

	// TestMarker deterministically classifies a URL as dangerous without
	// a network call when it appears anywhere in the URL.
	TestMarker = "testsafebrowsing"

	// clientID identifies this scanner to the threat-intelligence API.
	clientID = "phishguard"

	// clientVersion is reported alongside clientID.
	clientVersion = "1.0"

	// maxResponseSize limits how much of a reply we read. Threat-match
	// responses are tiny; anything larger is malformed.
	maxResponseSize = 1 * 1024 * 1024
)

// threatRequest is the Safe Browsing v4 threatMatches:find payload.
type threatRequest struct {
	Client     clientInfo `json:"client"`
	ThreatInfo threatInfo `json:"threatInfo"`
}

type clientInfo struct {
	ClientID      string `json:"clientId"`
	ClientVersion string `json:"clientVersion"`
}

type threatInfo struct {
	ThreatTypes      []string      `json:"threatTypes"`
	PlatformTypes    []string      `json:"platformTypes"`
	ThreatEntryTypes []string      `json:"threatEntryTypes"`
	ThreatEntries    []threatEntry `json:"threatEntries"`
}

type threatEntry struct {
	URL string `json:"url"`
}

// threatResponse is the subset of the reply we care about: a non-empty
// matches list means the URL is on a threat list.
type threatResponse struct {
	Matches []json.RawMessage `json:"matches"`
}

// Client queries the threat-intelligence service for single URLs.
//
// Design decision: We use a struct with the http.Client rather than package
// functions because client configuration (endpoint, key, timeout) should be
// consistent across a process, and a custom transport makes tests trivial.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the threat-match endpoint. Used in tests and for
// proxied deployments.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// WithHTTPClient sets a custom HTTP client. The client's timeout governs
// the lookup; callers that pass their own client own that choice.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the logger used for fail-open diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a reputation client. The API key may be empty; the
// service will then reject lookups and every check fails open to CLEAN,
// which keeps a keyless deployment scanning on rule signals alone.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		endpoint: DefaultEndpoint,
		apiKey:   apiKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Check classifies a single URL. It never returns an error: timeouts,
// network failures, and malformed responses all resolve to CLEAN, logged at
// debug level. URLs containing TestMarker short-circuit to DANGEROUS.
func (c *Client) Check(ctx context.Context, url string) model.ReputationStatus {
	if strings.Contains(url, TestMarker) {
		return model.ReputationDangerous
	}

	payload := threatRequest{
		Client: clientInfo{ClientID: clientID, ClientVersion: clientVersion},
		ThreatInfo: threatInfo{
			ThreatTypes:      []string{"MALWARE", "SOCIAL_ENGINEERING"},
			PlatformTypes:    []string{"ANY_PLATFORM"},
			ThreatEntryTypes: []string{"URL"},
			ThreatEntries:    []threatEntry{{URL: url}},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		c.logger.Debug("reputation payload encoding failed", "error", err)
		return model.ReputationClean
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"?key="+c.apiKey, bytes.NewReader(body))
	if err != nil {
		c.logger.Debug("reputation request build failed", "error", err)
		return model.ReputationClean
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("reputation lookup failed", "url", url, "error", err)
		return model.ReputationClean
	}
	defer resp.Body.Close() //nolint:errcheck // Best effort cleanup

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("reputation lookup rejected", "url", url, "status", resp.StatusCode)
		return model.ReputationClean
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		c.logger.Debug("reputation response read failed", "url", url, "error", err)
		return model.ReputationClean
	}

	var tr threatResponse
	if err := json.Unmarshal(raw, &tr); err != nil {
		c.logger.Debug("reputation response malformed", "url", url, "error", err)
		return model.ReputationClean
	}

	if len(tr.Matches) > 0 {
		return model.ReputationDangerous
	}
	return model.ReputationClean
}
