package cases

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// maxSanitizePasses bounds the decode/strip loop for nested entity encodings
const maxSanitizePasses = 5

// sanitizer strips markup from free text before it is validated or stored
type sanitizer struct {
	policy *bluemonday.Policy
}

func newSanitizer() sanitizer {
	return sanitizer{policy: bluemonday.StrictPolicy()}
}

// text decodes entities, removes every tag and trims space. Decoding happens before
// stripping and repeats until the text is stable, so entity-encoded markup cannot
// come back out as live tags.
func (s sanitizer) text(in string) string {
	if in == "" {
		return ""
	}
	out := in
	for i := 0; i < maxSanitizePasses; i++ {
		next := html.UnescapeString(s.policy.Sanitize(html.UnescapeString(out)))
		if next == out {
			return strings.TrimSpace(out)
		}
		out = next
	}
	// still changing: keep the escaped form
	return strings.TrimSpace(s.policy.Sanitize(html.UnescapeString(out)))
}
