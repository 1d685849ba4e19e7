package services

import (
	"regexp"
	"strings"
)

var fencePatterns = []*regexp.Regexp{
	regexp.MustCompile("(?m)^```[a-zA-Z]*\\s*\\n?"),
	regexp.MustCompile("(?m)\\n?```\\s*$"),
	regexp.MustCompile("```[a-zA-Z]*\\s*"),
	regexp.MustCompile("\\s*```"),
}

// Sanitize strips fenced-code-block markers that a model may wrap around
// its HTML reply, line-anchored first and then inline, and trims the result.
// Passes repeat until nothing changes, so Sanitize is idempotent.
func Sanitize(s string) string {
	for {
		next := sanitizePass(s)
		if next == s {
			return next
		}
		s = next
	}
}

func sanitizePass(s string) string {
	s = strings.TrimSpace(s)
	for _, re := range fencePatterns {
		s = re.ReplaceAllString(s, "")
	}
	return strings.TrimSpace(s)
}
