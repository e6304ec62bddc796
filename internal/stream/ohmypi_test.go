package stream

import "testing"

func TestParseOhMyPi_LegacySessionAndMessage(t *testing.T) {
	msg, ok := ParseOhMyPi([]byte(`{"type":"sessionId","sessionId":"legacy-1"}`))
	if !ok || msg.Kind != KindInit || msg.SessionID != "legacy-1" {
		t.Fatalf("got %+v, ok=%v, want Init(legacy-1)", msg, ok)
	}

	msg, ok = ParseOhMyPi([]byte(`{"type":"message.assistant","message":{"role":"assistant","text":"hi"}}`))
	if !ok || msg.Kind != KindText || msg.Text != "hi" {
		t.Fatalf("got %+v, ok=%v, want Text(hi)", msg, ok)
	}
}

func TestParseOhMyPi_LegacyToolUseAndResult(t *testing.T) {
	msg, ok := ParseOhMyPi([]byte(`{"type":"tool_use","tool_use":{"name":"Bash","input":{"command":"ls"}}}`))
	if !ok || msg.Kind != KindToolUse || msg.ToolName != "Bash" {
		t.Fatalf("got %+v, ok=%v, want ToolUse(Bash)", msg, ok)
	}

	msg, ok = ParseOhMyPi([]byte(`{"type":"tool_result","tool_result":{"content":"ok","is_error":false}}`))
	if !ok || msg.Kind != KindToolResult || msg.ToolResultContent != "ok" {
		t.Fatalf("got %+v, ok=%v, want ToolResult(ok)", msg, ok)
	}
}

func TestParseOhMyPi_CurrentShapeToolExecution(t *testing.T) {
	msg, ok := ParseOhMyPi([]byte(`{"type":"tool_execution_start","tool_name":"Read","input":{"path":"a.go"}}`))
	if !ok || msg.Kind != KindToolUse || msg.ToolName != "Read" {
		t.Fatalf("got %+v, ok=%v, want ToolUse(Read)", msg, ok)
	}

	msg, ok = ParseOhMyPi([]byte(`{"type":"tool_execution_end","output":"done","is_error":true}`))
	if !ok || msg.Kind != KindToolResult || !msg.ToolIsError {
		t.Fatalf("got %+v, ok=%v, want an erroring ToolResult", msg, ok)
	}
}

func TestParseOhMyPi_AgentEndIsDone(t *testing.T) {
	msg, ok := ParseOhMyPi([]byte(`{"type":"agent_end","message":"wrapped up"}`))
	if !ok || msg.Kind != KindDone || msg.Result != "wrapped up" {
		t.Fatalf("got %+v, ok=%v, want Done(wrapped up)", msg, ok)
	}
}

func TestParseOhMyPi_MessageEndNonAssistantRoleIsDropped(t *testing.T) {
	// message_end only ends a turn for the assistant's own message.
	_, ok := ParseOhMyPi([]byte(`{"type":"message_end","role":"user","stopReason":"endTurn"}`))
	if ok {
		t.Error("expected a non-assistant message_end to be dropped")
	}
}

func TestParseOhMyPi_ErrorEvent(t *testing.T) {
	msg, ok := ParseOhMyPi([]byte(`{"type":"error","message":"session xyz not found"}`))
	if !ok || msg.Kind != KindError {
		t.Fatalf("got %+v, ok=%v, want Error", msg, ok)
	}
	if !msg.IsSessionNotFound() {
		t.Error("expected IsSessionNotFound to recognize this message")
	}
}
