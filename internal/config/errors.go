package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Using errors.New() here rather than fmt.Errorf()
// because we don't need to include dynamic values in these messages.
var (
	// ErrNoTarget is returned when the scan command receives no input.
	// This error occurs when no file argument is given and stdin is a
	// terminal.
	ErrNoTarget = errors.New("no target specified: provide an email file or pipe content to stdin")

	// ErrInvalidTimeout is returned when the reputation timeout is not
	// positive. A timeout of zero or negative would cause every lookup
	// to fail immediately.
	ErrInvalidTimeout = errors.New("invalid reputation timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	// A batch size of zero would mean no concurrent scans, effectively
	// stopping the scanning process.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidHistoryLimit is returned when the history limit is not
	// positive.
	ErrInvalidHistoryLimit = errors.New("invalid history limit: must be positive")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one output format can be used at a
	// time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
