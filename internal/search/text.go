package search

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// markupTag matches the tags instant-answer payloads are known to carry.
// Anything else that merely looks like a tag ("vector<int>", "x<y") is
// ordinary text and is left alone.
var markupTag = regexp.MustCompile(`(?i)</?(a|abbr|b|br|code|div|em|i|li|ol|p|pre|small|span|strong|sub|sup|td|tr|u|ul)(?:\s[^<>]*)?/?>`)

// breakingTags separate words when stripped; inline tags do not.
var breakingTags = map[string]bool{
	"br": true, "p": true, "div": true, "li": true, "td": true, "tr": true,
}

// cleanText reduces a provider-supplied string to plain text. Known tags
// are dropped, entities decoded, and whitespace runs collapsed to a
// single space. Instant-answer payloads occasionally carry markup or
// escaped entities even when HTML output was not requested.
func cleanText(s string) string {
	if strings.Contains(s, "<") {
		s = markupTag.ReplaceAllStringFunc(s, func(tag string) string {
			name := strings.ToLower(markupTag.FindStringSubmatch(tag)[1])
			if breakingTags[name] {
				return " "
			}
			return ""
		})
	}
	if strings.Contains(s, "&") {
		s = html.UnescapeString(s)
	}
	return strings.Join(strings.Fields(s), " ")
}
