package chatfmt

import (
	"regexp"
	"strings"
)

// fenceRe matches a fenced code block, capturing its language hint and
// body, the same shape markdown.go already uses to protect code
// blocks from the Telegram HTML escaper.
var fenceRe = regexp.MustCompile("(?s)```([a-zA-Z]*)\n?(.*?)```")

var diffAtAtRe = regexp.MustCompile(`@@ -\d+.*\+\d+.*@@`)

// looksLikeDiff implements the "looks like a unified diff" heuristic
// of spec §4.5(a): an @@ hunk header, or at least 4 of the
// +/-/diff --git/---/+++ indicators within the first 40 lines.
func looksLikeDiff(body string) bool {
	if diffAtAtRe.MatchString(body) {
		return true
	}
	lines := strings.Split(body, "\n")
	if len(lines) > 40 {
		lines = lines[:40]
	}
	hits := 0
	for _, l := range lines {
		switch {
		case strings.HasPrefix(l, "diff --git"),
			strings.HasPrefix(l, "--- "),
			strings.HasPrefix(l, "+++ "),
			strings.HasPrefix(l, "+"),
			strings.HasPrefix(l, "-"):
			hits++
		}
		if hits >= 4 {
			return true
		}
	}
	return hits >= 4
}

// FixDiffFences rewrites the language hint of any fenced block that
// isn't already "diff" but whose body looks like a unified diff, so
// Discord applies its green/red diff colouring (spec §4.5(a)).
func FixDiffFences(text string) string {
	return fenceRe.ReplaceAllStringFunc(text, func(m string) string {
		match := fenceRe.FindStringSubmatch(m)
		lang, body := match[1], match[2]
		if lang == "diff" || !looksLikeDiff(body) {
			return m
		}
		return "```diff\n" + body + "```"
	})
}

// SanitizeInlineBackticks breaks any ``` occurrence that is not a
// line-start fence marker with a zero-width space, so Discord doesn't
// mistake stray triple-backticks inside prose for a fence (spec
// §4.5(b)).
func SanitizeInlineBackticks(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		if strings.HasPrefix(trimmed, "```") {
			continue
		}
		if strings.Contains(line, "```") {
			lines[i] = strings.ReplaceAll(line, "```", "``"+"\u200b"+"`")
		}
	}
	return strings.Join(lines, "\n")
}

// ToDiscordMarkdownFull applies the full Discord post-processing
// pipeline: strip stray HTML, fix diff fences, sanitize inline
// backticks (spec §4.5).
func ToDiscordMarkdownFull(text string) string {
	text = ToDiscordMarkdown(text)
	text = FixDiffFences(text)
	text = SanitizeInlineBackticks(text)
	return text
}
