package classifier

import "strings"

// Normalization identifies which text-normalization variant an artifact was
// fit with. Feature extraction at scoring time must match it exactly to
// avoid train/serve skew.
type Normalization string

const (
	// NormalizationLowercase lowercases the text and nothing else.
	NormalizationLowercase Normalization = "lowercase"

	// NormalizationFull lowercases, strips punctuation and digits, and
	// collapses runs of whitespace to single spaces.
	NormalizationFull Normalization = "full"
)

// asciiPunctuation mirrors the punctuation set the offline trainer strips.
const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Lowercase is the light runtime normalizer: coerce and lowercase.
// It is total over all string inputs and never fails.
func Lowercase(text string) string {
	return strings.ToLower(text)
}

// Clean is the full training-time normalizer: lowercase, drop punctuation
// and digits, collapse whitespace.
func Clean(text string) string {
	lowered := strings.ToLower(text)

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if r >= '0' && r <= '9' {
			continue
		}
		if strings.ContainsRune(asciiPunctuation, r) {
			continue
		}
		b.WriteRune(r)
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Apply runs the named normalization variant over text.
// Unknown variants fall back to lowercase, the safer of the two.
func (n Normalization) Apply(text string) string {
	if n == NormalizationFull {
		return Clean(text)
	}
	return Lowercase(text)
}

// Valid reports whether the variant is one the scorer knows how to apply.
func (n Normalization) Valid() bool {
	return n == NormalizationLowercase || n == NormalizationFull
}
