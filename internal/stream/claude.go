package stream

import "encoding/json"

// claudeEnvelope is the outer shape shared by every Claude Code
// stream-json line: {"type": "...", ...}.
type claudeEnvelope struct {
	Type    string          `json:"type"`
	Subtype string          `json:"subtype"`
	Session string          `json:"session_id"`
	Message json.RawMessage `json:"message"`
	Result  string          `json:"result"`
}

type claudeContentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text"`
	Name      string          `json:"name"`
	Input     json.RawMessage `json:"input"`
	ToolUseID string          `json:"tool_use_id"`
	Content   json.RawMessage `json:"content"`
	IsError   *bool           `json:"is_error"`
}

type claudeMessage struct {
	Role    string                `json:"role"`
	Content []claudeContentBlock  `json:"content"`
}

// ParseClaudeCode implements the Claude Code row of the adapter
// mapping table in spec §4.1. It only ever returns the first neutral
// event found in a line: Claude Code emits at most one meaningful
// event per assistant/user message in practice, and the runner calls
// this once per stdout line.
func ParseClaudeCode(raw json.RawMessage) (Message, bool) {
	var env claudeEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Message{}, false
	}

	switch env.Type {
	case "system":
		if env.Subtype == "init" && env.Session != "" {
			return Init(env.Session), true
		}
		return Message{}, false

	case "assistant":
		var msg claudeMessage
		if err := json.Unmarshal(env.Message, &msg); err != nil {
			return Message{}, false
		}
		for _, b := range msg.Content {
			switch b.Type {
			case "text":
				if b.Text != "" {
					return Text(b.Text), true
				}
			case "tool_use":
				return ToolUse(b.Name, string(b.Input)), true
			}
		}
		return Message{}, false

	case "user":
		var msg claudeMessage
		if err := json.Unmarshal(env.Message, &msg); err != nil {
			return Message{}, false
		}
		for _, b := range msg.Content {
			if b.Type == "tool_result" {
				isErr := false
				if b.IsError != nil {
					isErr = *b.IsError
				}
				return ToolResult(contentToString(b.Content), isErr), true
			}
		}
		return Message{}, false

	case "result":
		return Done(env.Result, env.Session), true

	default:
		return Message{}, false
	}
}
