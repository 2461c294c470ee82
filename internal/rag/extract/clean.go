package extract

import (
	"regexp"
	"strings"
)

var (
	hyphenBreak  = regexp.MustCompile(`([\p{L}\p{N}])-[ \t]*\n[ \t]*([\p{L}\p{N}])`)
	inlineSpaces = regexp.MustCompile(`[ \t\f\v]+`)
	lineEdges    = regexp.MustCompile(`[ \t]*\n[ \t]*`)
	blankRuns    = regexp.MustCompile(`\n{3,}`)

	bulletReplacer = strings.NewReplacer("•", "-", "◦", "-", "▪", "-", "\uf0b7", "-")
)

// CleanText joins hyphen-broken words, collapses whitespace, keeps paragraph breaks and normalises bullets.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = hyphenBreak.ReplaceAllString(text, "$1$2")
	text = bulletReplacer.Replace(text)
	text = inlineSpaces.ReplaceAllString(text, " ")
	text = lineEdges.ReplaceAllString(text, "\n")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
