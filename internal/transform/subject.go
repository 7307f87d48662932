package transform

import (
	"strings"
)

// NormalizeSubject strips unwanted reply/forward prefixes from the front of a
// subject line. Matching is case-insensitive and repeats until no prefix
// matches, so "Re: Fwd: Test" collapses to "Test" in one call. The number of
// passes is bounded by the input length to stay safe against degenerate
// prefix sets.
func NormalizeSubject(subject string, prefixes []string) string {
	subject = strings.TrimSpace(subject)
	for i := 0; i < len(subject); i++ {
		stripped, ok := stripOnePrefix(subject, prefixes)
		if !ok {
			break
		}
		subject = stripped
	}
	return strings.TrimSpace(subject)
}

func stripOnePrefix(subject string, prefixes []string) (string, bool) {
	lower := strings.ToLower(subject)
	for _, prefix := range prefixes {
		if prefix == "" {
			continue
		}
		if strings.HasPrefix(lower, strings.ToLower(prefix)) {
			return strings.TrimLeft(subject[len(prefix):], " \t:"), true
		}
	}
	return subject, false
}
