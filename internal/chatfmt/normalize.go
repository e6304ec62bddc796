package chatfmt

import "regexp"

var threeOrMoreNewlinesRe = regexp.MustCompile(`\n{3,}`)

// NormalizeEmptyLines collapses runs of 3+ newlines down to exactly 2
// (one blank line), used when finalizing the display buffer (spec
// §4.4 step 6). It is idempotent: applying it twice yields the same
// result as applying it once.
func NormalizeEmptyLines(text string) string {
	return threeOrMoreNewlinesRe.ReplaceAllString(text, "\n\n")
}
