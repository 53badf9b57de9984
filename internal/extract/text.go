package extract

import (
	"regexp"
	"strings"
)

// blankLines matches a newline followed by whitespace containing at least one
// more newline.
var blankLines = regexp.MustCompile(`\n\s*\n`)

// CollapseBlankLines replaces every run of blank lines with a single blank
// line.
func CollapseBlankLines(s string) string {
	return blankLines.ReplaceAllString(s, "\n\n")
}

// FilterPrintableASCII drops every rune outside printable ASCII, keeping
// newlines and tabs.
func FilterPrintableASCII(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' || (r >= 0x20 && r < 0x7f) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// tidyLines trims every line and collapses blank-line runs.
func tidyLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(CollapseBlankLines(strings.Join(lines, "\n")))
}
