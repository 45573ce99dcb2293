// Package htmlutil turns rendered HTML fragments into terminal text.
package htmlutil

import (
	"strings"

	"github.com/k3a/html2text"
)

// ToText strips tags, decodes entities and converts <br> to "\n". Trailing
// line breaks are dropped.
func ToText(s string) string {
	return strings.TrimRight(html2text.HTML2TextWithOptions(s, html2text.WithUnixLineBreaks()), "\n")
}
