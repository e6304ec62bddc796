package stream

import (
	"encoding/json"
	"testing"
)

func TestParseClaudeCode_InitAndText(t *testing.T) {
	init := []byte(`{"type":"system","subtype":"init","session_id":"abc123"}`)
	msg, ok := ParseClaudeCode(init)
	if !ok {
		t.Fatalf("expected ok=true for init line")
	}
	if msg.Kind != KindInit || msg.SessionID != "abc123" {
		t.Errorf("got %+v, want Init with session abc123", msg)
	}

	textLine := []byte(`{"type":"assistant","message":{"content":[{"type":"text","text":"hello"}]}}`)
	msg, ok = ParseClaudeCode(textLine)
	if !ok {
		t.Fatalf("expected ok=true for assistant text line")
	}
	if msg.Kind != KindText || msg.Text != "hello" {
		t.Errorf("got %+v, want Text(hello)", msg)
	}
}

func TestParseClaudeCode_ToolUseAndResult(t *testing.T) {
	toolUse := []byte(`{"type":"assistant","message":{"content":[{"type":"tool_use","name":"Bash","input":{"command":"ls"}}]}}`)
	msg, ok := ParseClaudeCode(toolUse)
	if !ok || msg.Kind != KindToolUse || msg.ToolName != "Bash" {
		t.Fatalf("got %+v, ok=%v, want ToolUse(Bash)", msg, ok)
	}

	toolResult := []byte(`{"type":"user","message":{"content":[{"type":"tool_result","content":"ok","is_error":false}]}}`)
	msg, ok = ParseClaudeCode(toolResult)
	if !ok || msg.Kind != KindToolResult || msg.ToolResultContent != "ok" {
		t.Fatalf("got %+v, ok=%v, want ToolResult(ok)", msg, ok)
	}
}

func TestParseClaudeCode_Done(t *testing.T) {
	done := []byte(`{"type":"result","subtype":"success","result":"final answer","session_id":"abc123"}`)
	msg, ok := ParseClaudeCode(done)
	if !ok || msg.Kind != KindDone || msg.Result != "final answer" || msg.SessionID != "abc123" {
		t.Fatalf("got %+v, ok=%v, want Done(final answer, abc123)", msg, ok)
	}
	if !msg.IsTerminal() {
		t.Error("Done message should be terminal")
	}
}

func TestParseCodex_ThreadLifecycle(t *testing.T) {
	started := []byte(`{"type":"thread.started","thread_id":"t1"}`)
	msg, ok := ParseCodex(started)
	if !ok || msg.Kind != KindInit || msg.SessionID != "t1" {
		t.Fatalf("got %+v, ok=%v, want Init(t1)", msg, ok)
	}

	item := []byte(`{"type":"item.completed","item":{"type":"agent_message","text":"working on it"}}`)
	msg, ok = ParseCodex(item)
	if !ok || msg.Kind != KindText || msg.Text != "working on it" {
		t.Fatalf("got %+v, ok=%v, want Text", msg, ok)
	}

	turnDone := []byte(`{"type":"turn.completed"}`)
	msg, ok = ParseCodex(turnDone)
	if !ok || msg.Kind != KindDone {
		t.Fatalf("got %+v, ok=%v, want Done", msg, ok)
	}
}

func TestParseCodex_TurnFailedExtractsNestedMessage(t *testing.T) {
	failed := []byte(`{"type":"turn.failed","error":{"message":"session not found: xyz"}}`)
	msg, ok := ParseCodex(failed)
	if !ok || msg.Kind != KindError {
		t.Fatalf("got %+v, ok=%v, want Error", msg, ok)
	}
	if msg.ErrMessage != "session not found: xyz" {
		t.Errorf("got ErrMessage=%q, want the nested error message, not raw JSON", msg.ErrMessage)
	}
	if !msg.IsSessionNotFound() {
		t.Error("expected IsSessionNotFound to recognize this message")
	}
}

func TestParseOhMyPi_DropsMessageEndWithToolUseStopReason(t *testing.T) {
	// Spec edge case E3: a message_end with stopReason "toolUse" must be
	// dropped (it is not a real turn boundary), not turned into Done.
	line := []byte(`{"type":"message_end","role":"assistant","stopReason":"toolUse"}`)
	_, ok := ParseOhMyPi(line)
	if ok {
		t.Errorf("expected message_end with stopReason=toolUse to be dropped")
	}
}

func TestParseOhMyPi_MessageEndEndTurnIsDone(t *testing.T) {
	line := []byte(`{"type":"message_end","role":"assistant","stopReason":"endTurn","message":"done"}`)
	msg, ok := ParseOhMyPi(line)
	if !ok || msg.Kind != KindDone {
		t.Fatalf("got %+v, ok=%v, want Done", msg, ok)
	}
}

func TestLookup_AllProvidersRegistered(t *testing.T) {
	for _, name := range []string{"claude", "gemini", "codex", "opencode", "omp"} {
		if _, ok := Lookup(name); !ok {
			t.Errorf("Lookup(%q) not found in dispatch table", name)
		}
	}
	if _, ok := Lookup("nonexistent-provider"); ok {
		t.Error("Lookup should fail for an unregistered provider name")
	}
}

func TestValidSessionID(t *testing.T) {
	cases := []struct {
		id   string
		want bool
	}{
		{"abc-123-DEF", true},
		{"", false},
		{"has spaces", false},
		{"has/slash", false},
		{"../../etc/passwd", false},
	}
	for _, c := range cases {
		if got := ValidSessionID(c.id); got != c.want {
			t.Errorf("ValidSessionID(%q) = %v, want %v", c.id, got, c.want)
		}
	}
}

func TestUnknownLineIsIgnoredNotCrashed(t *testing.T) {
	var raw json.RawMessage = []byte(`{"type":"some_future_event_we_dont_know"}`)
	adapt, _ := Lookup("claude")
	if _, ok := adapt(raw); ok {
		t.Error("unknown event types should be ignored (ok=false), not synthesized into a message")
	}
}
