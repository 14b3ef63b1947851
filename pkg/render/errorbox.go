package render

import (
	"encoding/xml"
	"strings"
	"unicode/utf8"

	"github.com/matzehuels/vizdeck/pkg/errors"
)

// ErrorBoxHeight is the fixed height (px) of an inline error presentation.
const ErrorBoxHeight = 72.0

// RenderErrorBox replaces a container's content with an inline error
// presentation. It is used by the error boundary so a failed block shows
// its error in place while sibling blocks render normally.
func RenderErrorBox(c *Container, code errors.Code, message string) {
	c.Clear()
	w := c.Width()
	c.Printf(`<g class="block-error">`+"\n")
	c.Printf(`  <rect x="0.5" y="0.5" width="%.1f" height="%.1f" rx="6" fill="#fef2f2" stroke="#dc2626"/>`+"\n",
		w-1, ErrorBoxHeight-1)
	c.Printf(`  <text x="12" y="28" font-family="sans-serif" font-size="13" font-weight="bold" fill="#991b1b">%s</text>`+"\n",
		escapeText(string(code)))
	c.Printf(`  <text x="12" y="50" font-family="sans-serif" font-size="12" fill="#7f1d1d">%s</text>`+"\n",
		escapeText(truncate(message, 120)))
	c.Printf("</g>\n")
	c.SetHeight(ErrorBoxHeight)
}

func escapeText(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// truncate shortens s to at most n bytes plus an ellipsis, cutting on a
// rune boundary so a multibyte character is never split.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n - 1
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
