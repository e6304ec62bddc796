package stream

import "encoding/json"

type geminiPart struct {
	Text    string          `json:"text"`
	Tool    string          `json:"tool"`
	Name    string          `json:"name"`
	Input   json.RawMessage `json:"input"`
	Content json.RawMessage `json:"content"`
	IsError bool            `json:"is_error"`
}

type geminiEvent struct {
	Type    string       `json:"type"`
	Role    string       `json:"role"`
	Parts   []geminiPart `json:"parts"`
	Message string       `json:"message"`
}

// ParseGemini implements the Gemini row of the adapter mapping table.
// Gemini never emits its own Init event; the runner synthesizes one
// (spec §4.2 step 6), so this adapter only ever returns Text, ToolUse,
// ToolResult, Done, or Error.
func ParseGemini(raw json.RawMessage) (Message, bool) {
	var ev geminiEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return Message{}, false
	}

	switch ev.Type {
	case "message":
		if ev.Role != "assistant" {
			return Message{}, false
		}
		for _, p := range ev.Parts {
			if p.Text != "" {
				return Text(p.Text), true
			}
		}
		return Message{}, false

	case "tool_use":
		return ToolUse(ev.firstName(), ev.firstInput()), true

	case "tool_result":
		return ToolResult(ev.firstResultContent(), ev.firstIsError()), true

	case "result":
		return Done(ev.Message, ""), true

	case "error":
		return Error(ev.Message), true

	default:
		return Message{}, false
	}
}

func (e geminiEvent) firstName() string {
	if len(e.Parts) == 0 {
		return ""
	}
	if e.Parts[0].Name != "" {
		return e.Parts[0].Name
	}
	return e.Parts[0].Tool
}

func (e geminiEvent) firstInput() string {
	if len(e.Parts) == 0 {
		return ""
	}
	return string(e.Parts[0].Input)
}

func (e geminiEvent) firstResultContent() string {
	if len(e.Parts) == 0 {
		return ""
	}
	return contentToString(e.Parts[0].Content)
}

func (e geminiEvent) firstIsError() bool {
	if len(e.Parts) == 0 {
		return false
	}
	return e.Parts[0].IsError
}
