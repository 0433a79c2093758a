// Package whitelist maintains the locally trusted domain allow-list.
//
// The list holds registered domains (effective TLD plus one, approximated as
// the last two hostname labels). A link whose registered domain is on the
// list is trusted and skips all further rule checks.
//
// The list is loaded once from a plain text file (one domain per line,
// blank lines and # comments ignored). A missing file is not an error: a
// small built-in set of major providers is used instead. After load the
// matcher is read-only and safe for concurrent use.
//
// The Updater refreshes the file from the public Tranco ranking so the
// allow-list tracks the domains users actually visit.
package whitelist
