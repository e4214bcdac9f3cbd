package searcher

import (
	"regexp"
	"strings"
)

// unsafeChars matches everything except ASCII word characters and whitespace
var unsafeChars = regexp.MustCompile(`[^\w\s]`)

// Sanitize strips punctuation that a text-search engine could read as
// operators and trims surrounding whitespace. An empty result means
// "nothing to search".
func Sanitize(raw string) string {
	return strings.TrimSpace(unsafeChars.ReplaceAllString(raw, ""))
}
