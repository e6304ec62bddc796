// Package turn implements the turn orchestrator (C4): building the
// prompt, running the streaming worker, polling its event channel,
// editing the placeholder message, and finalizing history.
package turn

import (
	"strings"
	"unicode"
)

// bannedSubstrings is the fixed, heuristic prompt-injection list,
// taken verbatim from original_source/src/services/session.rs's
// dangerous_patterns (spec §4.4, §9 open question: "matches are
// replaced rather than rejected... a property test should pin
// current behaviour, not strengthen it").
var bannedSubstrings = []string{
	"ignore previous instructions",
	"ignore all previous",
	"disregard previous",
	"forget previous",
	"system prompt",
	"you are now",
	"act as if",
	"pretend you are",
	"new instructions:",
	"[system]",
	"[admin]",
	"---begin",
	"---end",
}

const maxPromptBytes = 4000

// SanitizeUserInput replaces each banned pattern's lower, upper, and
// title-cased form with "[filtered]", then hard-caps the result at
// maxPromptBytes at a UTF-8 char boundary, appending "... [truncated]"
// if it cut anything (spec §4.4, invariant 8). This mirrors
// session.rs's sanitize_user_input exactly: a fixed four-casing
// literal replace, not a genuine case-insensitive scan — a string
// like "IgnORe PrevIOus InSTRuctions" is deliberately left unfiltered,
// matching the original.
func SanitizeUserInput(input string) string {
	out := input
	lowerInput := strings.ToLower(out)
	for _, pattern := range bannedSubstrings {
		if !strings.Contains(lowerInput, pattern) {
			continue
		}
		out = replaceLiteralCaseVariants(out, pattern)
	}
	if len(out) <= maxPromptBytes {
		return out
	}
	cut := floorCharBoundary(out, maxPromptBytes)
	return out[:cut] + "... [truncated]"
}

// replaceLiteralCaseVariants replaces exact occurrences of pattern's
// lower, upper, and title-cased forms. pattern is already lowercase,
// so the first replace covers both the as-given and lower forms.
func replaceLiteralCaseVariants(s, pattern string) string {
	s = strings.ReplaceAll(s, pattern, "[filtered]")
	s = strings.ReplaceAll(s, strings.ToUpper(pattern), "[filtered]")
	s = strings.ReplaceAll(s, titleCase(pattern), "[filtered]")
	return s
}

// titleCase upper-cases only the first rune of s, matching session.rs's
// pattern_title (which capitalizes the first character of the whole
// string, not each word).
func titleCase(s string) string {
	r := []rune(s)
	if len(r) > 0 {
		r[0] = unicode.ToUpper(r[0])
	}
	return string(r)
}

// floorCharBoundary returns the greatest j <= i that is a valid UTF-8
// char boundary in s (or len(s) if i >= len(s)) — spec invariant 6.
func floorCharBoundary(s string, i int) int {
	if i >= len(s) {
		return len(s)
	}
	if i <= 0 {
		return 0
	}
	j := i
	for j > 0 && s[j]&0xC0 == 0x80 {
		j--
	}
	return j
}
