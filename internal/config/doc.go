// Package config provides configuration structures and utilities for
// PhishGuard. It defines the main configuration options for scanning
// emails, reputation lookups, whitelist handling, and report generation
// preferences.
package config
