package model

import "time"

// ScanResult is the immutable outcome of scoring a single email.
// It combines the statistical classifier's probability with the rule layer's
// accumulated adjustments and override decisions.
type ScanResult struct {
	// Verdict is the final binary classification.
	Verdict Verdict `json:"verdict"`

	// Score is the final risk score, clamped to [0,100] and rounded to
	// two decimal places.
	Score float64 `json:"score"`

	// Flags contains the deduplicated forensic flags raised by the rule
	// layer. Order is not significant.
	Flags []string `json:"flags"`

	// Reputation is the displayed infrastructure reputation label.
	Reputation ReputationStatus `json:"reputation"`

	// LinkCount is the number of URL-pattern matches found in the raw
	// text, including whitelisted and unparseable links.
	LinkCount int `json:"link_count"`

	// Trusted is true when at least one link's registered domain matched
	// the whitelist.
	Trusted bool `json:"trusted"`

	// MaliciousLinks is the number of links that tripped the spoofing or
	// subdomain heuristics.
	MaliciousLinks int `json:"malicious_links"`

	// IdentifiedWords lists the risk-associated keywords found in the
	// email text, in the fixed keyword-list order (not input order).
	IdentifiedWords []string `json:"identified_words"`
}

// HistoryRecord is one row of the append-only scan-history log.
// Records are written once per completed scan and never mutated.
type HistoryRecord struct {
	// ID is the database row identifier.
	ID int64 `json:"id"`

	// Verdict is the recorded verdict string.
	Verdict Verdict `json:"verdict"`

	// Score is the recorded risk score.
	Score float64 `json:"score"`

	// Timestamp is when the scan completed.
	Timestamp time.Time `json:"timestamp"`
}

// HistoryStats aggregates the scan-history log for operator dashboards.
type HistoryStats struct {
	// TotalScans is the total number of recorded scans.
	TotalScans int `json:"total_scans"`

	// PhishingScans is the number of scans with a PHISHING verdict.
	PhishingScans int `json:"phishing_scans"`

	// LegitimateScans is the number of scans with a LEGITIMATE verdict.
	LegitimateScans int `json:"legitimate_scans"`
}
