package stream

import "encoding/json"

type codexItem struct {
	Type             string          `json:"type"`
	Text             string          `json:"text"`
	Command          string          `json:"command"`
	ToolName         string          `json:"tool_name"`
	Input            json.RawMessage `json:"input"`
	ExitCode         *int            `json:"exit_code"`
	AggregatedOutput string          `json:"aggregated_output"`
	Output           string          `json:"output"`
}

type codexEvent struct {
	Type     string          `json:"type"`
	ThreadID string          `json:"thread_id"`
	Item     *codexItem      `json:"item"`
	Error    json.RawMessage `json:"error"`
	Message  string          `json:"message"`
}

// ParseCodex implements the Codex row of the adapter mapping table.
func ParseCodex(raw json.RawMessage) (Message, bool) {
	var ev codexEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return Message{}, false
	}

	switch ev.Type {
	case "thread.started":
		if ev.ThreadID == "" {
			return Message{}, false
		}
		return Init(ev.ThreadID), true

	case "item.started":
		if ev.Item == nil {
			return Message{}, false
		}
		switch ev.Item.Type {
		case "command_execution":
			return ToolUse("Bash", toolInputJSON("command", ev.Item.Command)), true
		case "mcp_tool_call":
			return ToolUse(ev.Item.ToolName, string(ev.Item.Input)), true
		}
		return Message{}, false

	case "item.completed":
		if ev.Item == nil {
			return Message{}, false
		}
		switch ev.Item.Type {
		case "agent_message":
			if ev.Item.Text == "" {
				return Message{}, false
			}
			return Text(ev.Item.Text), true
		case "command_execution":
			isErr := ev.Item.ExitCode != nil && *ev.Item.ExitCode != 0
			content := ev.Item.AggregatedOutput
			if content == "" {
				content = ev.Item.Output
			}
			return ToolResult(content, isErr), true
		case "file_change":
			return ToolResult(ev.Item.Output, false), true
		case "mcp_tool_call":
			return ToolResult(ev.Item.Output, false), true
		}
		return Message{}, false

	case "turn.completed":
		return Done("", ""), true

	case "turn.failed":
		return Error(codexErrorMessage(ev.Error)), true

	case "error":
		return Error(ev.Message), true

	default:
		return Message{}, false
	}
}

func codexErrorMessage(raw json.RawMessage) string {
	var withMsg struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &withMsg); err == nil && withMsg.Message != "" {
		return withMsg.Message
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func toolInputJSON(key, value string) string {
	b, err := json.Marshal(map[string]string{key: value})
	if err != nil {
		return "{}"
	}
	return string(b)
}
