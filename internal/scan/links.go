package scan

import (
	"regexp"

	"github.com/phishguard/phishguard/internal/model"
)

// linkPattern matches URL-like substrings in raw email text: an http(s)
// scheme followed by hostname characters and percent-escapes. Extraction
// runs over the raw text, not the normalized text, because normalization
// can destroy the casing and punctuation the link heuristics inspect.
var linkPattern = regexp.MustCompile(`https?://(?:[-\w.@]|(?:%[\da-fA-F]{2}))+`)

// ExtractLinks finds every URL-like substring in raw text, in order of
// appearance, with derived attributes computed per link.
func ExtractLinks(text string) []model.ExtractedLink {
	matches := linkPattern.FindAllString(text, -1)
	links := make([]model.ExtractedLink, 0, len(matches))
	for _, m := range matches {
		links = append(links, model.NewExtractedLink(m))
	}
	return links
}
