// Package citation renders source names for display.
package citation

import (
	"fmt"
	"strings"
)

// Format normalizes each source independently. The output has the same
// length and order as the input; whitespace is trimmed and collapsed and
// nothing else is changed. Blank sources stay blank.
func Format(sources []string) []string {
	out := make([]string, len(sources))
	for i, s := range sources {
		out[i] = strings.Join(strings.Fields(s), " ")
	}
	return out
}

// Numbered prefixes each citation with its 1-based position, as in
// "[1] GitHub".
func Numbered(citations []string) []string {
	out := make([]string, len(citations))
	for i, c := range citations {
		out[i] = fmt.Sprintf("[%d] %s", i+1, c)
	}
	return out
}
