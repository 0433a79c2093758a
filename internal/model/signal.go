package model

// RuleSignal is the mutable tally carried through evaluation of all links
// in a single scan. It accumulates flag strings, a score delta on top of
// the classifier's base probability, and the trust/malicious counters.
//
// Design decision: the accumulator is a plain local value threaded through
// link evaluation rather than any shared state. Each scan builds its own
// RuleSignal, which keeps scans independently reproducible and safe to run
// concurrently.
type RuleSignal struct {
	flags      []string
	seen       map[string]bool
	scoreDelta float64

	// Trusted is true once any link's registered domain matched the
	// whitelist.
	Trusted bool

	// MaliciousLinks counts links that tripped the spoofing or subdomain
	// heuristics.
	MaliciousLinks int
}

// NewRuleSignal returns an empty accumulator for one scan.
func NewRuleSignal() *RuleSignal {
	return &RuleSignal{seen: make(map[string]bool)}
}

// AddFlag records a forensic flag. Duplicate flags are recorded once; the
// same flag text raised by several links collapses to a single entry.
func (s *RuleSignal) AddFlag(flag string) {
	if s.seen[flag] {
		return
	}
	s.seen[flag] = true
	s.flags = append(s.flags, flag)
}

// AddScore adds a penalty to the running score delta.
func (s *RuleSignal) AddScore(delta float64) {
	s.scoreDelta += delta
}

// ScoreDelta returns the accumulated penalty on top of the base score.
func (s *RuleSignal) ScoreDelta() float64 {
	return s.scoreDelta
}

// Flags returns the accumulated flags. The slice is the accumulator's own
// backing store; callers building a final result should treat it as owned
// by the result from then on.
func (s *RuleSignal) Flags() []string {
	if s.flags == nil {
		return []string{}
	}
	return s.flags
}

// HasFlags reports whether any flag has been raised.
func (s *RuleSignal) HasFlags() bool {
	return len(s.flags) > 0
}
