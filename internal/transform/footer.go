package transform

import (
	"strings"
)

// StripFooter removes a trailing footer block from a mail body when any of
// its lines contains one of the given keywords (case-insensitive substring
// match). The trailing block is the contiguous run of lines ending at the
// last line, delimited above by a blank line or a signature separator such
// as "--". The delimiter is removed together with the block. With no
// keywords, or no keyword match, the body is returned unchanged.
func StripFooter(body string, keywords []string) string {
	if len(keywords) == 0 {
		return body
	}

	lines := strings.Split(body, "\n")
	start := trailingBlockStart(lines)
	if start >= len(lines) {
		return body
	}

	if !blockContainsKeyword(lines[start:], keywords) {
		return body
	}

	// Drop the delimiter line above the block as well.
	if start > 0 {
		start--
	}
	return strings.TrimRight(strings.Join(lines[:start], "\n"), "\n")
}

// trailingBlockStart returns the index of the first line of the trailing
// footer candidate, or len(lines) if the body has no trailing content.
func trailingBlockStart(lines []string) int {
	end := len(lines)
	for end > 0 && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	start := end
	for start > 0 && !isBlockDelimiter(lines[start-1]) {
		start--
	}
	if start == end {
		return len(lines)
	}
	return start
}

func isBlockDelimiter(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "" || strings.HasPrefix(trimmed, "--") || strings.HasPrefix(trimmed, "__")
}

func blockContainsKeyword(block []string, keywords []string) bool {
	for _, line := range block {
		lower := strings.ToLower(line)
		for _, keyword := range keywords {
			if keyword == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(keyword)) {
				return true
			}
		}
	}
	return false
}
