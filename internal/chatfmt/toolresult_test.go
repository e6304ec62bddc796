package chatfmt

import "testing"

func TestStripANSI(t *testing.T) {
	got := StripANSI("\x1b[31merror\x1b[0m")
	if got != "error" {
		t.Errorf("got %q, want %q", got, "error")
	}
}

func TestRewriteLineNumbers(t *testing.T) {
	in := "     1→package main\n     2→\n     3→func main() {}\nsystem-reminder: note"
	got := RewriteLineNumbers(in)
	want := "1: package main\n2: \n3: func main() {}"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRewriteLineNumbers_NoMatchReturnsUnchanged(t *testing.T) {
	in := "plain content, no line numbers here"
	if got := RewriteLineNumbers(in); got != in {
		t.Errorf("got %q, want unchanged %q", got, in)
	}
}

func TestIsDiffContent(t *testing.T) {
	diff := "@@ -1,3 +1,4 @@\n+new line\n-old line\n context"
	if !IsDiffContent(diff) {
		t.Error("expected unified diff hunk to be detected")
	}
	if IsDiffContent("just some text") {
		t.Error("plain text should not be detected as a diff")
	}
}

func TestIsMarkdownTable(t *testing.T) {
	table := "| a | b |\n|---|---|\n| 1 | 2 |"
	if !IsMarkdownTable(table) {
		t.Error("expected markdown table to be detected")
	}
	if IsMarkdownTable("no table here") {
		t.Error("plain text should not be detected as a table")
	}
}

func TestLanguageFromPath(t *testing.T) {
	cases := map[string]string{
		"main.go":    "go",
		"script.py":  "python",
		"README.md":  "markdown",
		"noext":      "",
	}
	for path, want := range cases {
		lang, ok := LanguageFromPath(path)
		if want == "" {
			if ok {
				t.Errorf("LanguageFromPath(%q) = %q, ok=true; want not-ok", path, lang)
			}
			continue
		}
		if !ok || lang != want {
			t.Errorf("LanguageFromPath(%q) = %q, ok=%v; want %q, true", path, lang, ok, want)
		}
	}
}

func TestRenderToolResult_SingleLineSuccessAndError(t *testing.T) {
	ok := RenderToolResult("Bash", "done", false)
	if ok != "✅ done" {
		t.Errorf("got %q", ok)
	}
	errOut := RenderToolResult("Bash", "boom", true)
	if errOut != "❌ boom" {
		t.Errorf("got %q", errOut)
	}
}

func TestRenderToolResult_MultilineErrorIsFenced(t *testing.T) {
	got := RenderToolResult("Bash", "line1\nline2", true)
	want := "❌\n```\nline1\nline2\n```"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderToolUse_NoInput(t *testing.T) {
	got := RenderToolUse("Read", "")
	if got != "> Using: Read" {
		t.Errorf("got %q", got)
	}
}

func TestRenderToolUse_WithInput(t *testing.T) {
	got := RenderToolUse("Bash", `{"command":"ls"}`)
	want := "> Using: Bash\n```json\n{\"command\":\"ls\"}\n```"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
