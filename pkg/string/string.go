package string

import (
	"strings"
	"unicode"
)

// Tokens splits s on commas and whitespace, dropping empty entries.
// Phoneme lists on the command line and CIDR lists in env vars use it.
func Tokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

// ToSnakeCase turns Go field names into the JSON-style names used in
// validation messages, e.g. "MaxConsecutiveFailures" -> "max_consecutive_failures".
func ToSnakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 &&
			(unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
