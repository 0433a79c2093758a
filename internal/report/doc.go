// Package report renders scan results as operator-facing audit documents.
//
// Three formats are supported:
//   - Simple: plain text for terminal display
//   - Markdown: the forensic audit document, suitable for sharing and
//     archiving (GitHub Flavored Markdown with tables and alerts)
//   - JSON: handled at call sites with encoding/json over the ScanResult
//
// Every writer consumes exactly the ScanResult shape plus the original
// email text; writers never re-derive signals.
package report
