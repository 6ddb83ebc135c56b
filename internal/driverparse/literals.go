package driverparse

import "strconv"

// splitIntSuffix splits an integer literal's source text at its first
// `_`, isolating the literal suffix the analyzer validates separately
// (spec.md §8 scenario 4 — suffix validity is semantic, not lexical).
func splitIntSuffix(text string) (digits, suffix string) {
	for i := 0; i < len(text); i++ {
		if text[i] == '_' {
			return text[:i], text[i+1:]
		}
	}
	return text, ""
}

func parseIntLiteral(digits string) (int64, error) {
	return strconv.ParseInt(digits, 10, 64)
}

func parseFloatLiteral(text string) (float64, error) {
	return strconv.ParseFloat(text, 64)
}
