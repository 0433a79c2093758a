// Package server exposes the scan engine over a small JSON HTTP API.
//
// The API is intentionally thin: every route delegates to the same
// scan.Engine the CLI uses, so a scan produces identical results whether
// it was requested from the command line or over HTTP.
package server
