// Package main provides the entry point for the PhishGuard CLI.
//
// PhishGuard is a phishing email detection tool. It combines a trained
// text classifier with deterministic forensic rules (link obfuscation,
// brand spoofing, blacklist lookups) to score raw email text.
//
// Usage:
//
//	phishguard scan <email-file>
//	cat email.txt | phishguard scan
//	phishguard serve
//
// See --help for all available options.
package main

// main is the entry point for PhishGuard.
func main() {
	Execute()
}
