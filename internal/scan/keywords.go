package scan

import "strings"

// phishingKeywords is the fixed, ordered list of risk-associated terms the
// forensic layer looks for. Output order always follows this list, never
// the order of appearance in the email, so reports are stable.
var phishingKeywords = []string{
	"urgent",
	"verify",
	"suspended",
	"password",
	"login",
	"bank",
	"account",
	"security",
	"update",
	"action required",
	"official",
}

// IdentifyKeywords returns the sublist of risk keywords found as substrings
// of the lowercased text, preserving the fixed list's order. The result is
// never nil.
func IdentifyKeywords(text string) []string {
	lowered := strings.ToLower(text)
	found := make([]string, 0, len(phishingKeywords))
	for _, word := range phishingKeywords {
		if strings.Contains(lowered, word) {
			found = append(found, word)
		}
	}
	return found
}
