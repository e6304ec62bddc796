package stream

import "encoding/json"

// ohMyPiEvent covers both the current event shape and the legacy one
// (oh-my-pi has shipped two incompatible event sets; the adapter
// accepts either, per spec §4.1).
type ohMyPiEvent struct {
	Type string `json:"type"`

	// current shape
	SessionID  string          `json:"session.id"`
	Delta      string          `json:"delta"`
	ToolName   string          `json:"tool_name"`
	Input      json.RawMessage `json:"input"`
	Output     json.RawMessage `json:"output"`
	IsError    bool            `json:"is_error"`
	Role       string          `json:"role"`
	StopReason string          `json:"stopReason"`

	// "message" carries a plain string for agent_end/message_end/error,
	// but a {role,text} object for the legacy message.assistant event
	// (spec §4.1) — decoded as raw JSON and branched on below so one
	// Go field can serve both shapes without a tag collision.
	Message json.RawMessage `json:"message"`

	// legacy shape
	LegacySessionID string            `json:"sessionId"`
	LegacyToolUse   *ohMyPiLegacyTool `json:"tool_use"`
	LegacyToolRes   *ohMyPiLegacyTool `json:"tool_result"`
}

// messageText returns Message decoded as a plain string (agent_end,
// message_end, error).
func (e ohMyPiEvent) messageText() string {
	var s string
	_ = json.Unmarshal(e.Message, &s)
	return s
}

// legacyMessage returns Message decoded as a {role,text} object (the
// legacy message.assistant event), or nil if it doesn't parse as one.
func (e ohMyPiEvent) legacyMessage() *ohMyPiLegacyMsg {
	var m ohMyPiLegacyMsg
	if err := json.Unmarshal(e.Message, &m); err != nil {
		return nil
	}
	return &m
}

type ohMyPiLegacyMsg struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type ohMyPiLegacyTool struct {
	Name    string          `json:"name"`
	Input   json.RawMessage `json:"input"`
	Content json.RawMessage `json:"content"`
	IsError bool            `json:"is_error"`
}

// ParseOhMyPi implements the oh-my-pi row of the adapter mapping
// table, including its legacy event aliases.
func ParseOhMyPi(raw json.RawMessage) (Message, bool) {
	var ev ohMyPiEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return Message{}, false
	}

	switch ev.Type {
	case "session.id":
		if ev.SessionID == "" {
			return Message{}, false
		}
		return Init(ev.SessionID), true

	case "sessionId":
		if ev.LegacySessionID == "" {
			return Message{}, false
		}
		return Init(ev.LegacySessionID), true

	case "message_update.delta":
		if ev.Delta == "" {
			return Message{}, false
		}
		return Text(ev.Delta), true

	case "message.assistant":
		lm := ev.legacyMessage()
		if lm == nil || lm.Text == "" {
			return Message{}, false
		}
		return Text(lm.Text), true

	case "tool_execution_start":
		return ToolUse(ev.ToolName, string(ev.Input)), true

	case "tool_use":
		if ev.LegacyToolUse == nil {
			return Message{}, false
		}
		return ToolUse(ev.LegacyToolUse.Name, string(ev.LegacyToolUse.Input)), true

	case "tool_execution_end":
		return ToolResult(contentToString(ev.Output), ev.IsError), true

	case "tool_result":
		if ev.LegacyToolRes == nil {
			return Message{}, false
		}
		return ToolResult(contentToString(ev.LegacyToolRes.Content), ev.LegacyToolRes.IsError), true

	case "message_end":
		if ev.Role != "assistant" {
			return Message{}, false
		}
		if ev.StopReason == "toolUse" {
			// Intermediate assistant turn, not a terminal event (spec E3).
			return Message{}, false
		}
		return Done(ev.messageText(), ""), true

	case "agent_end":
		return Done(ev.messageText(), ""), true

	case "error":
		return Error(ev.messageText()), true

	default:
		return Message{}, false
	}
}
