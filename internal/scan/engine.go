package scan

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/phishguard/phishguard/internal/model"
)

// Rule-layer tuning. Penalties accumulate across links with no cap before
// the final clamp to [0,100].
const (
	// PhishingThreshold is the final-score cutoff for a PHISHING verdict.
	PhishingThreshold = 60.0

	// spoofPenalty is added per brand name found inside a hostname.
	spoofPenalty = 45.0

	// subdomainPenalty is added when a hostname has excessive subdomains.
	subdomainPenalty = 20.0

	// maxHostnameDots is the largest dot count a hostname may have before
	// the subdomain heuristic fires.
	maxHostnameDots = 3
)

// Forensic flag strings. These are operator-facing and stable: reports,
// the API, and the history UI all show them verbatim.
const (
	// FlagObfuscation marks a link hiding its destination behind an "@".
	FlagObfuscation = "Obfuscation: '@' symbol used"

	// FlagExcessiveSubdomains marks a hostname with too many labels.
	FlagExcessiveSubdomains = "Excessive Subdomains"

	// FlagBlacklisted marks a link the threat-intelligence service knows.
	FlagBlacklisted = "Google API Blacklist"

	// FlagIdentityVerified marks a cleanly whitelisted scan.
	FlagIdentityVerified = "Identity Verified"
)

// brandNames are the identities the spoofing heuristic protects. A brand
// name appearing anywhere in a non-whitelisted hostname is treated as an
// impersonation attempt.
var brandNames = []string{"google", "paypal", "microsoft", "amazon", "apple"}

// Predictor supplies the classifier's base phishing probability.
// Implemented by classifier.Model; tests inject a deterministic stub.
type Predictor interface {
	// Predict maps raw email text to a probability in [0,1].
	Predict(text string) float64
}

// ReputationChecker classifies a single URL against threat intelligence.
// Implemented by reputation.Client. Implementations must fail open: a
// lookup problem is reported as CLEAN, never as an error.
type ReputationChecker interface {
	Check(ctx context.Context, url string) model.ReputationStatus
}

// TrustMatcher answers whether a registered domain is locally trusted.
// Implemented by whitelist.Matcher.
type TrustMatcher interface {
	Trusted(registeredDomain string) bool
}

// Engine orchestrates one email scan. It is stateless across scans; every
// per-scan tally lives in a local RuleSignal, so a single Engine serves any
// number of concurrent scans.
type Engine struct {
	predictor Predictor
	checker   ReputationChecker
	trust     TrustMatcher
	logger    *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger for scan diagnostics.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an Engine with the given collaborators.
func NewEngine(predictor Predictor, checker ReputationChecker, trust TrustMatcher, opts ...EngineOption) *Engine {
	e := &Engine{
		predictor: predictor,
		checker:   checker,
		trust:     trust,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// outcome is the result of evaluating all links in one scan: either a
// shortcut that ends the scan with a fixed result, or the accumulated rule
// signal to merge with the classifier's base score.
type outcome struct {
	shortcut *model.ScanResult
	signal   *model.RuleSignal
}

// Scan scores raw email text and returns the final verdict, risk score,
// and forensic flags. Empty input is valid and yields a low-score
// LEGITIMATE result with no flags and no keywords.
func (e *Engine) Scan(ctx context.Context, text string) *model.ScanResult {
	baseScore := e.predictor.Predict(text) * 100
	keywords := IdentifyKeywords(text)
	links := ExtractLinks(text)

	e.logger.Debug("scan signals collected",
		"baseScore", baseScore,
		"links", len(links),
		"keywords", len(keywords),
	)

	out := e.evaluateLinks(ctx, links)
	if out.shortcut != nil {
		return out.shortcut
	}
	signal := out.signal

	// Trust override: a cleanly whitelisted link with zero other signals
	// wins outright, even when other links exist.
	if signal.Trusted && !signal.HasFlags() {
		return &model.ScanResult{
			Verdict:         model.VerdictLegitimate,
			Score:           0.0,
			Flags:           []string{FlagIdentityVerified},
			Reputation:      model.ReputationClean,
			LinkCount:       len(links),
			Trusted:         true,
			MaliciousLinks:  0,
			IdentifiedWords: []string{},
		}
	}

	finalScore := clampScore(round2(baseScore + signal.ScoreDelta()))
	verdict := model.VerdictLegitimate
	reputation := model.ReputationClean
	if finalScore >= PhishingThreshold {
		verdict = model.VerdictPhishing
		reputation = model.ReputationDangerous
	}

	return &model.ScanResult{
		Verdict:         verdict,
		Score:           finalScore,
		Flags:           signal.Flags(),
		Reputation:      reputation,
		LinkCount:       len(links),
		Trusted:         signal.Trusted,
		MaliciousLinks:  signal.MaliciousLinks,
		IdentifiedWords: keywords,
	}
}

// evaluateLinks runs every link through the rule checks in extraction
// order. Precedence per link: whitelist trust skips every other check;
// spoof and subdomain penalties both apply when both match; a dangerous
// reputation verdict short-circuits the whole scan.
func (e *Engine) evaluateLinks(ctx context.Context, links []model.ExtractedLink) outcome {
	signal := model.NewRuleSignal()

	for _, link := range links {
		if link.Obfuscated {
			signal.AddFlag(FlagObfuscation)
		}

		// No parsable hostname: the link still counted toward the link
		// total, but contributes nothing further.
		if !link.HasHostname() {
			continue
		}

		if e.trust.Trusted(link.RegisteredDomain()) {
			signal.Trusted = true
			continue
		}

		linkBad := false
		for _, brand := range brandNames {
			if strings.Contains(link.Hostname, brand) {
				signal.AddFlag(fmt.Sprintf("Identity Spoof: %s mimics %s", link.Hostname, brand))
				signal.AddScore(spoofPenalty)
				linkBad = true
			}
		}

		if link.DotCount() > maxHostnameDots {
			signal.AddFlag(FlagExcessiveSubdomains)
			signal.AddScore(subdomainPenalty)
			linkBad = true
		}

		if e.checker.Check(ctx, link.Raw) == model.ReputationDangerous {
			e.logger.Debug("reputation short-circuit", "hostname", link.Hostname)
			return outcome{shortcut: &model.ScanResult{
				Verdict:         model.VerdictPhishing,
				Score:           100.0,
				Flags:           []string{FlagBlacklisted},
				Reputation:      model.ReputationDangerous,
				LinkCount:       len(links),
				Trusted:         false,
				MaliciousLinks:  1,
				IdentifiedWords: []string{},
			}}
		}

		if linkBad {
			signal.MaliciousLinks++
		}
	}

	return outcome{signal: signal}
}

// round2 rounds to two decimal places.
func round2(score float64) float64 {
	return math.Round(score*100) / 100
}

// clampScore keeps the final score inside [0,100].
func clampScore(score float64) float64 {
	return math.Max(0, math.Min(100, score))
}
