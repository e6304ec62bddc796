package chatfmt

import (
	"regexp"
	"strings"
)

// ansiEscapeRe strips ANSI escape sequences before any further
// analysis (spec §4.5), grounded on the same pattern the pack uses to
// clean subprocess stderr/stdout for display.
var ansiEscapeRe = regexp.MustCompile("\x1b\\[[0-9;]*[a-zA-Z]")

// StripANSI removes ANSI escape sequences from s.
func StripANSI(s string) string {
	return ansiEscapeRe.ReplaceAllString(s, "")
}

// ProcessTerminalOutput simulates terminal overwrite behaviour for \r
// and \b so progress bars/spinners collapse to their final state
// instead of appearing as repeated lines.
func ProcessTerminalOutput(input string) string {
	if !strings.ContainsAny(input, "\r\b") {
		return input
	}
	lines := strings.Split(input, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, processOverwriteLine(line))
	}
	return strings.Join(out, "\n")
}

func processOverwriteLine(line string) string {
	runes := []rune(line)
	cursor := 0
	output := make([]rune, 0, len(runes))
	for _, r := range runes {
		switch r {
		case '\r':
			cursor = 0
		case '\b':
			if cursor > 0 {
				cursor--
			}
		default:
			if cursor < len(output) {
				output[cursor] = r
			} else {
				output = append(output, r)
			}
			cursor++
		}
	}
	return string(output)
}

var lineNumberPrefixRe = regexp.MustCompile(`^\s*(\d+)→(.*)$`)

// RewriteLineNumbers converts the Claude Code CLI's "     N→content"
// line-number format into "N: content", stopping at the first
// non-matching trailing line (which drops any appended system
// reminder) — spec §4.5.
func RewriteLineNumbers(content string) string {
	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		m := lineNumberPrefixRe.FindStringSubmatch(line)
		if m == nil {
			break
		}
		out = append(out, m[1]+": "+m[2])
	}
	if len(out) == 0 {
		return content
	}
	return strings.Join(out, "\n")
}

var diffHunkRe = regexp.MustCompile(`(?m)^@@ -\d+`)

// IsDiffContent detects unified-diff content for fencing with "diff".
func IsDiffContent(content string) bool {
	return diffHunkRe.MatchString(content) || looksLikeDiff(content)
}

var tableRowRe = regexp.MustCompile(`^\s*\|.*\|\s*$`)
var tableSepRe = regexp.MustCompile(`^[|\s\-:]{3,}$`)

// IsMarkdownTable detects a markdown table (header row + |---| rule).
func IsMarkdownTable(content string) bool {
	lines := strings.Split(content, "\n")
	for i := 0; i+1 < len(lines); i++ {
		if tableRowRe.MatchString(lines[i]) && tableSepRe.MatchString(strings.TrimSpace(lines[i+1])) {
			return true
		}
	}
	return false
}

var extToLang = map[string]string{
	".rs": "rust", ".py": "python", ".ts": "typescript", ".tsx": "tsx",
	".js": "javascript", ".jsx": "jsx", ".go": "go", ".kt": "kotlin",
	".java": "java", ".c": "c", ".h": "c", ".cpp": "cpp", ".hpp": "cpp",
	".rb": "ruby", ".sh": "bash", ".yaml": "yaml", ".yml": "yaml",
	".json": "json", ".toml": "toml", ".md": "markdown", ".sql": "sql",
	".html": "html", ".css": "css", ".php": "php", ".swift": "swift",
}

// LanguageFromPath derives a fence language hint from a file
// extension; ok is false when the extension isn't recognised.
func LanguageFromPath(path string) (lang string, ok bool) {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 {
		return "", false
	}
	lang, ok = extToLang[strings.ToLower(path[idx:])]
	return lang, ok
}

// LanguageFromContent is the content-heuristic fallback used when no
// file-path hint is available.
func LanguageFromContent(content string) string {
	switch {
	case IsDiffContent(content):
		return "diff"
	case strings.Contains(content, "package main") || strings.Contains(content, "func "):
		return "go"
	case strings.Contains(content, "def ") && strings.Contains(content, ":"):
		return "python"
	case strings.HasPrefix(strings.TrimSpace(content), "{") || strings.HasPrefix(strings.TrimSpace(content), "["):
		return "json"
	default:
		return ""
	}
}

// RenderToolResult builds the human-facing block for one ToolResult
// event (spec §4.5): ANSI is stripped first; Read/Edit/Write content
// in line-number format is rewritten; diffs and tables are fenced;
// single-line results get a ✅/❌ prefix, multi-line ones a fenced
// block.
func RenderToolResult(toolName, content string, isError bool) string {
	content = StripANSI(content)
	content = ProcessTerminalOutput(content)

	switch toolName {
	case "Read", "Edit", "Write":
		content = RewriteLineNumbers(content)
	}

	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	multiline := len(lines) > 1

	if isError {
		if !multiline {
			return "❌ " + content
		}
		return "❌\n```\n" + content + "\n```"
	}

	if !multiline {
		return "✅ " + content
	}

	fenceLang := ""
	switch {
	case IsDiffContent(content):
		fenceLang = "diff"
	case IsMarkdownTable(content):
		fenceLang = ""
	}
	return "```" + fenceLang + "\n" + content + "\n```"
}

// RenderToolUse builds the blockquoted header (and optional formatted
// input code block) inserted into the display buffer for a ToolUse
// event (spec §4.4 step 5).
func RenderToolUse(toolName, jsonInput string) string {
	header := "> Using: " + toolName
	if jsonInput == "" || jsonInput == "{}" || jsonInput == "null" {
		return header
	}
	return header + "\n```json\n" + jsonInput + "\n```"
}
