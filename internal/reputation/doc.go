// Package reputation classifies URLs against an external threat-intelligence
// service.
//
// # Fail-open contract
//
// The reputation check is advisory: a scan must never be blocked or flagged
// because the service was unreachable, slow, or returned garbage. Every
// failure path therefore resolves to CLEAN, and the check is attempted
// exactly once per URL with a short timeout and no retries.
//
// # Test marker
//
// URLs containing the marker substring "testsafebrowsing" deterministically
// classify as DANGEROUS without any network call. This gives demos and
// integration tests a stable dangerous URL that exercises the short-circuit
// path end to end.
package reputation
