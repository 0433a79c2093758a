package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/phishguard/phishguard/internal/model"
)

// MarkdownWriter outputs the forensic audit document in Markdown format.
// This format is designed for archiving and sharing scan evidence.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
//  1. Type-safe markdown generation
//  2. Support for tables, lists, and code blocks
//  3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter

	// now supplies the generation timestamp; overridable for tests.
	now func() time.Time
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithClock overrides the generation-timestamp source. Used in tests.
func WithClock(now func() time.Time) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.now = now
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the audit document in Markdown format.
func (w *MarkdownWriter) Write(result *model.ScanResult, originalText string) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("PhishGuard Forensic Audit Report")
	md.PlainText("")

	w.writeSummary(md, result)
	w.writeVerdictAlert(md, result)
	w.writeKeywords(md, result)
	w.writeFlags(md, result)
	w.writeContent(md, originalText)

	md.HorizontalRule()
	md.PlainText(fmt.Sprintf("*Report generated by PhishGuard on %s*",
		w.now().Format("2006-01-02 15:04:05")))

	return len(md.String()), md.Build()
}

// writeSummary writes the metric table.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, result *model.ScanResult) {
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Security Verdict", result.Verdict.String()},
			{"Risk Probability", fmt.Sprintf("%.2f%%", result.Score)},
			{"Infrastructure Reputation", result.Reputation.String()},
			{"Links Found", strconv.Itoa(result.LinkCount)},
			{"Malicious Links", strconv.Itoa(result.MaliciousLinks)},
			{"Trusted Sender", strconv.FormatBool(result.Trusted)},
		},
	})
	md.PlainText("")
}

// writeVerdictAlert writes a GitHub-flavored alert matching the verdict.
func (w *MarkdownWriter) writeVerdictAlert(md *markdown.Markdown, result *model.ScanResult) {
	if result.Verdict == model.VerdictPhishing {
		md.Cautionf("This email was classified as PHISHING with a risk score of %.2f.", result.Score)
	} else {
		md.Tip("No sufficient risk signals were found in this email.")
	}
	md.PlainText("")
}

// writeKeywords writes the forensic keyword section.
func (w *MarkdownWriter) writeKeywords(md *markdown.Markdown, result *model.ScanResult) {
	md.H2("Identified Phishing Keywords")
	md.PlainText("")

	if len(result.IdentifiedWords) == 0 {
		md.PlainText("No specific keyword-based markers detected.")
		md.PlainText("")
		return
	}

	upper := make([]string, 0, len(result.IdentifiedWords))
	for _, word := range result.IdentifiedWords {
		upper = append(upper, strings.ToUpper(word))
	}
	md.PlainText("The following high-risk linguistic markers were detected:")
	md.PlainText("")
	md.BulletList(upper...)
	md.PlainText("")
}

// writeFlags writes the forensic flag section.
func (w *MarkdownWriter) writeFlags(md *markdown.Markdown, result *model.ScanResult) {
	md.H2("Forensic Flags")
	md.PlainText("")

	if len(result.Flags) == 0 {
		md.PlainText("No forensic flags were raised.")
		md.PlainText("")
		return
	}

	md.BulletList(result.Flags...)
	md.PlainText("")
}

// writeContent writes the analyzed email text as a fenced block.
func (w *MarkdownWriter) writeContent(md *markdown.Markdown, originalText string) {
	md.H2("Analyzed Content Stream")
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightText, originalText)
	md.PlainText("")
}
