// Package scan implements the email risk-scoring pipeline.
//
// # Purpose
//
// The Engine combines a frozen statistical classifier's base probability
// with a deterministic rule layer: link extraction, identity-spoof and
// subdomain heuristics, whitelist trust, and an external reputation lookup.
// The combination is order dependent and has two override paths that bypass
// the normal threshold comparison:
//
//  1. Reputation short-circuit: the first link the threat service reports
//     dangerous ends the scan immediately with a fixed PHISHING/100.0
//     result, discarding every other accumulated signal.
//  2. Trust override: if any link's registered domain is whitelisted and no
//     flag was raised by any link, the scan ends LEGITIMATE/0.0.
//
// # Design Philosophy
//
// Link evaluation returns an explicit outcome value, either a shortcut
// result or the accumulated rule signal, rather than threading the override
// decisions through nested conditionals. This keeps the precedence between
// the two overrides and the threshold path auditable in one place.
//
// All collaborators (classifier, reputation service, whitelist) are injected
// as small interfaces so the engine is tested with deterministic stubs.
// The Engine itself holds no per-scan state; concurrent scans are safe.
package scan
