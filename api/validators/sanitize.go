package validators

import (
	"strings"
	"unicode"
)

const maxQueryValueLen = 128

// SanitizeString trims input, drops control characters and truncates to maxLen
// runes. A maxLen of zero or less disables truncation.
func SanitizeString(input string, maxLen int) string {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(input))

	if maxLen > 0 {
		if runes := []rune(clean); len(runes) > maxLen {
			clean = strings.TrimSpace(string(runes[:maxLen]))
		}
	}
	return clean
}
