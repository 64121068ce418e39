package engine

import (
	"regexp"
	"strings"
)

var preBlock = regexp.MustCompile(`(?is)<pre>(.*?)</pre>`)

// cleanContent extracts the first preformatted block of text, or trims the
// whole text when there is none
func cleanContent(text string) string {
	if m := preBlock.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}
