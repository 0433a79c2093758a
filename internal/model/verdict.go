package model

// Verdict is the final binary classification of a scanned email.
//
// Design decision: We use typed string constants rather than iota-based
// integers because verdicts are stored in the history database and returned
// over the API as-is. A self-describing string avoids a mapping layer at
// every serialization boundary.
type Verdict string

const (
	// VerdictPhishing indicates the email is classified as a phishing attempt.
	VerdictPhishing Verdict = "PHISHING"

	// VerdictLegitimate indicates no sufficient risk signals were found.
	VerdictLegitimate Verdict = "LEGITIMATE"
)

// String returns the verdict as a plain string.
func (v Verdict) String() string {
	return string(v)
}

// ReputationStatus is the threat-intelligence classification of the
// infrastructure referenced by an email's links.
type ReputationStatus string

const (
	// ReputationClean indicates no link matched a known threat list.
	ReputationClean ReputationStatus = "CLEAN"

	// ReputationDangerous indicates at least one link matched a known
	// threat list, or the overall verdict is PHISHING.
	ReputationDangerous ReputationStatus = "DANGEROUS"
)

// String returns the reputation status as a plain string.
func (r ReputationStatus) String() string {
	return string(r)
}
