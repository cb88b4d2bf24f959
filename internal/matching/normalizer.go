package matching

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Normalize lower-cases s and strips leading/trailing whitespace.  It has no
// failure mode; blank input normalizes to the empty string.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Tokens extracts up to maxTokens alphanumeric tokens of rune length strictly
// greater than minLen from s, in order of appearance, lower-cased.  The cap
// bounds search cost and mirrors how a human skims a short description: the
// leading few substantial words carry the signal.
func Tokens(s string, maxTokens, minLen int) []string {
	fields := strings.FieldsFunc(Normalize(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, maxTokens)
	for _, f := range fields {
		if utf8.RuneCountInString(f) <= minLen {
			continue
		}
		tokens = append(tokens, f)
		if len(tokens) == maxTokens {
			break
		}
	}
	return tokens
}
