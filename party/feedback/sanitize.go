package feedback

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// plainText strips all markup; feedback is stored and relayed as plain text.
var plainText = bluemonday.StrictPolicy()

// sanitize decodes entities, removes every tag and decodes what the policy
// re-escaped, leaving readable text.
func sanitize(s string) string {
	if s == "" {
		return ""
	}
	decoded := html.UnescapeString(s)
	stripped := plainText.Sanitize(decoded)
	return strings.TrimSpace(html.UnescapeString(stripped))
}
