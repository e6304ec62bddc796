package chatfmt

import (
	"strings"
	"testing"
)

func TestSplitMarkdown_FitsUnchanged(t *testing.T) {
	text := "hello world"
	chunks := SplitMarkdown(text, TelegramLimit)
	if len(chunks) != 1 || chunks[0].Text != text {
		t.Fatalf("got %+v, want a single unchanged chunk", chunks)
	}
}

func TestSplitMarkdown_EveryChunkWithinLimit(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 500; i++ {
		b.WriteString("this is a line of reasonably long text to force a split\n")
	}
	chunks := SplitMarkdown(b.String(), DiscordLimit)
	if len(chunks) < 2 {
		t.Fatalf("expected more than one chunk, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c.Text) > int(DiscordLimit) {
			t.Errorf("chunk %d length %d exceeds limit %d", i, len(c.Text), DiscordLimit)
		}
	}
}

// TestSplitMarkdown_UnclosedFenceReopened mirrors spec scenario E6: a
// fence left open across a split must be closed in the first chunk and
// reopened with the same language hint in the next.
func TestSplitMarkdown_UnclosedFenceReopened(t *testing.T) {
	var code strings.Builder
	for i := 0; i < 200; i++ {
		code.WriteString("fn line_number_is(n: i32) -> i32 { n }\n")
	}
	input := "A\n```rust\n" + code.String() + "more text"

	chunks := SplitMarkdown(input, DiscordLimit)
	if len(chunks) < 2 {
		t.Fatalf("expected a split, got %d chunk(s)", len(chunks))
	}
	if !strings.HasSuffix(chunks[0].Text, "```") {
		t.Errorf("first chunk should end with a closing fence, got tail %q", lastN(chunks[0].Text, 10))
	}
	if !strings.HasPrefix(chunks[1].Text, "```rust\n") {
		t.Errorf("second chunk should reopen with the same language hint, got head %q", firstN(chunks[1].Text, 10))
	}
}

func TestSplitMarkdown_FloorCharBoundary(t *testing.T) {
	// "é" is two UTF-8 bytes; cutting mid-rune must fall back to the
	// preceding boundary (spec invariant 6).
	s := "caf" + "é" + strings.Repeat("x", 10)
	j := floorCharBoundary(s, 4) // 4 lands inside the 2-byte é
	if j != 3 {
		t.Errorf("floorCharBoundary(%q, 4) = %d, want 3", s, j)
	}
	if floorCharBoundary(s, len(s)+5) != len(s) {
		t.Error("floorCharBoundary should clamp to len(s) when i >= len(s)")
	}
	if floorCharBoundary(s, 0) != 0 {
		t.Error("floorCharBoundary(s, 0) should be 0")
	}
}

func TestCloseOpenFence_ClosesUnclosedFence(t *testing.T) {
	got := CloseOpenFence("```go\nfunc main() {}")
	if !strings.HasSuffix(got, "\n```") {
		t.Errorf("got %q, want a closing fence appended", got)
	}
}

func TestCloseOpenFence_LeavesClosedTextAlone(t *testing.T) {
	in := "```go\nfunc main() {}\n```"
	if got := CloseOpenFence(in); got != in {
		t.Errorf("got %q, want unchanged %q", got, in)
	}
}

func TestCloseOpenFence_LeavesPlainTextAlone(t *testing.T) {
	in := "no fences here"
	if got := CloseOpenFence(in); got != in {
		t.Errorf("got %q, want unchanged %q", got, in)
	}
}

func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func firstN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
