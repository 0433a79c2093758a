package model

import (
	"errors"
	"regexp"
	"strings"

	"golang.org/x/net/idna"
)

// Link errors.
var (
	// ErrNoHostname is returned when no hostname can be parsed from a link.
	ErrNoHostname = errors.New("link has no parsable hostname")
)

// hostPattern extracts the host component of an http(s) URL.
// A leading "www." is treated as noise and stripped; everything up to the
// first path separator is the host.
var hostPattern = regexp.MustCompile(`https?://(?:www\.)?([^/]+)`)

// ExtractedLink is a URL-like substring found in raw email text, together
// with the derived attributes the rule layer evaluates.
//
// Design decision: derivation happens once at construction so the rule
// engine works with plain fields instead of re-parsing the link at every
// heuristic. The zero value is never used; construct via NewExtractedLink.
type ExtractedLink struct {
	// Raw is the substring exactly as matched in the email text.
	Raw string

	// Obfuscated is true when the link contains an "@", a common trick to
	// hide the real destination behind a plausible-looking prefix.
	Obfuscated bool

	// Target is the portion of the link actually dialed by a client: the
	// substring after the last "@" if present, else the whole link.
	Target string

	// Hostname is the lowercased host component of Target, with the
	// scheme, an optional "www." prefix, and any path stripped. Unicode
	// hosts are converted to their punycode form so comparisons against
	// the whitelist and brand list see ASCII. Empty when no host could
	// be parsed.
	Hostname string
}

// NewExtractedLink derives the comparison attributes for a raw URL match.
// A link with no parsable hostname is still returned (so it counts toward
// the scan's link total); callers detect it via HasHostname.
func NewExtractedLink(raw string) ExtractedLink {
	link := ExtractedLink{Raw: raw, Target: raw}

	if idx := strings.LastIndex(raw, "@"); idx >= 0 {
		link.Obfuscated = true
		link.Target = raw[idx+1:]
	}

	m := hostPattern.FindStringSubmatch(strings.ToLower(link.Target))
	if m == nil {
		return link
	}
	link.Hostname = asciiHost(m[1])

	return link
}

// asciiHost converts a unicode hostname to punycode so lookalike IDN hosts
// are compared in their wire form. Conversion failures keep the raw host;
// a malformed host still flows through the heuristics unchanged.
func asciiHost(host string) string {
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return host
	}
	return ascii
}

// HasHostname reports whether a hostname could be parsed from the link.
func (l ExtractedLink) HasHostname() bool {
	return l.Hostname != ""
}

// RegisteredDomain returns the last two dot-separated labels of the
// hostname, an approximation of the effective TLD plus one. Hostnames with
// fewer than two labels return the empty string and never match the
// whitelist.
func (l ExtractedLink) RegisteredDomain() string {
	labels := strings.Split(l.Hostname, ".")
	if len(labels) < 2 {
		return ""
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

// DotCount returns the number of dots in the hostname. The subdomain
// heuristic flags hostnames with more than three.
func (l ExtractedLink) DotCount() int {
	return strings.Count(l.Hostname, ".")
}
