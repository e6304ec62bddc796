package stream

import "encoding/json"

type openCodeEvent struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionID"`
	Text      string          `json:"text"`
	State     string          `json:"state"`
	Tool      string          `json:"tool"`
	Input     json.RawMessage `json:"input"`
	Output    json.RawMessage `json:"output"`
	Message   string          `json:"message"`
}

// ParseOpenCode implements the OpenCode row of the adapter mapping
// table. OpenCode's "capture first sessionID" behaviour is modelled as
// a dedicated session-announcement event ({"type":"session",
// "sessionID":"..."}) rather than cross-call state, which would break
// the "adapters are pure functions" design note if the dispatch table
// were ever shared across chats.
func ParseOpenCode(raw json.RawMessage) (Message, bool) {
	var ev openCodeEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return Message{}, false
	}

	switch ev.Type {
	case "session":
		if ev.SessionID == "" {
			return Message{}, false
		}
		return Init(ev.SessionID), true

	case "text.part.text":
		if ev.Text == "" {
			return Message{}, false
		}
		return Text(ev.Text), true

	case "tool_use":
		switch ev.State {
		case "running", "pending":
			return ToolUse(ev.Tool, string(ev.Input)), true
		case "completed":
			return ToolResult(contentToString(ev.Output), false), true
		case "error":
			return ToolResult(contentToString(ev.Output), true), true
		}
		return Message{}, false

	case "step_finish":
		return Done(ev.Message, ev.SessionID), true

	case "error":
		return Error(ev.Message), true

	default:
		return Message{}, false
	}
}
