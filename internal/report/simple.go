package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/phishguard/phishguard/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display after an interactive scan.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
//  1. It works in all terminals without compatibility issues
//  2. It's easier to pipe to files or other tools
type SimpleWriter struct {
	baseWriter

	// showContent controls whether the analyzed email text is echoed
	// back at the end of the report.
	showContent bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowContent configures the writer to echo the analyzed text.
func WithShowContent(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showContent = show
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the scan result in human-readable format.
func (w *SimpleWriter) Write(result *model.ScanResult, originalText string) (int, error) {
	var b strings.Builder

	rule := strings.Repeat("=", 50)
	b.WriteString(rule + "\n")
	b.WriteString(" PHISHGUARD SCAN RESULT\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Verdict:          %s\n", result.Verdict)
	fmt.Fprintf(&b, "Risk Score:       %.2f / 100\n", result.Score)
	fmt.Fprintf(&b, "Reputation:       %s\n", result.Reputation)
	fmt.Fprintf(&b, "Links Found:      %d\n", result.LinkCount)
	fmt.Fprintf(&b, "Malicious Links:  %d\n", result.MaliciousLinks)
	fmt.Fprintf(&b, "Trusted Sender:   %t\n", result.Trusted)

	if len(result.Flags) > 0 {
		b.WriteString("\nForensic Flags:\n")
		for _, flag := range result.Flags {
			fmt.Fprintf(&b, "  - %s\n", flag)
		}
	}

	if len(result.IdentifiedWords) > 0 {
		b.WriteString("\nIdentified Keywords:\n")
		fmt.Fprintf(&b, "  %s\n", strings.Join(result.IdentifiedWords, ", "))
	}

	if w.showContent && originalText != "" {
		b.WriteString("\nAnalyzed Content:\n")
		for _, line := range strings.Split(originalText, "\n") {
			fmt.Fprintf(&b, "  | %s\n", line)
		}
	}

	b.WriteString(rule + "\n")

	return w.output.Write([]byte(b.String()))
}
