// Package model defines the core data structures used throughout PhishGuard.
//
// This package contains the following main types:
//   - ScanResult: The final verdict, risk score, and forensic flags for one email
//   - ExtractedLink: A URL found in email text with its derived attributes
//   - RuleSignal: The per-scan accumulator threaded through link evaluation
//   - HistoryRecord: One row of the append-only scan-history log
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (scan, database, report, server) need to use
// these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for API responses and
// report output.
package model
