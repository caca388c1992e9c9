package chat

import (
	"strconv"
	"strings"
)

const contentPrefix = `0:"`

// HasStreamMarkers reports whether text looks like a data-stream transcript.
func HasStreamMarkers(text string) bool {
	return strings.Contains(text, contentPrefix) ||
		strings.Contains(text, "f:{") ||
		strings.Contains(text, "\n0:")
}

// CleanStream drops f:, e: and d: metadata lines, unwraps 0:"..." content
// lines and keeps any other line verbatim. Pieces are joined without a
// separator.
func CleanStream(text string) string {
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "f:") || strings.HasPrefix(line, "e:") || strings.HasPrefix(line, "d:") {
			continue
		}
		if strings.HasPrefix(line, contentPrefix) {
			b.WriteString(unwrapContent(line))
			continue
		}
		b.WriteString(line)
	}
	return b.String()
}

// ExtractStreamContent keeps only the unwrapped 0:"..." lines.
func ExtractStreamContent(text string) string {
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, contentPrefix) {
			b.WriteString(unwrapContent(line))
		}
	}
	return b.String()
}

// unwrapContent decodes the quoted chunk of a 0:"..." line, falling back to
// slicing off the quotes when it is not a valid string literal.
func unwrapContent(line string) string {
	line = strings.TrimRight(line, "\r")
	if unquoted, err := strconv.Unquote(line[len(contentPrefix)-1:]); err == nil {
		return unquoted
	}
	if len(line) <= len(contentPrefix) {
		return ""
	}
	return strings.TrimSuffix(line[len(contentPrefix):], `"`)
}
