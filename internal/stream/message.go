// Package stream implements the provider-neutral event model (C1) and
// the subprocess streaming runner (C2): it spawns an agent CLI, reads
// its JSONL stdout, and turns each line into a StreamMessage.
package stream

import (
	"strings"
	"sync"
	"sync/atomic"
)

// Kind discriminates the StreamMessage variants.
type Kind int

const (
	KindInit Kind = iota
	KindText
	KindToolUse
	KindToolResult
	KindTaskNotification
	KindDone
	KindError
)

// Message is the neutral event produced by every adapter and consumed
// by the turn orchestrator. Only the fields relevant to Kind are set.
type Message struct {
	Kind Kind

	// Init
	SessionID string

	// Text
	Text string

	// ToolUse
	ToolName  string
	ToolInput string // JSON-encoded, free-form

	// ToolResult
	ToolResultContent string
	ToolIsError       bool

	// TaskNotification
	TaskID      string
	TaskStatus  string
	TaskSummary string

	// Done
	Result string // Done.SessionID reuses the SessionID field above

	// Error
	ErrMessage string
}

// Init builds an Init message.
func Init(sessionID string) Message { return Message{Kind: KindInit, SessionID: sessionID} }

// Text builds a Text message.
func Text(content string) Message { return Message{Kind: KindText, Text: content} }

// ToolUse builds a ToolUse message.
func ToolUse(name, input string) Message {
	return Message{Kind: KindToolUse, ToolName: name, ToolInput: input}
}

// ToolResult builds a ToolResult message from content the adapter has
// already collapsed to one string (see contentToString).
func ToolResult(content string, isError bool) Message {
	return Message{Kind: KindToolResult, ToolResultContent: content, ToolIsError: isError}
}

// TaskNotification builds a TaskNotification message.
func TaskNotification(id, status, summary string) Message {
	return Message{Kind: KindTaskNotification, TaskID: id, TaskStatus: status, TaskSummary: summary}
}

// Done builds a terminal Done message. sessionID may be empty.
func Done(result, sessionID string) Message {
	return Message{Kind: KindDone, Result: result, SessionID: sessionID}
}

// Error builds a terminal Error message.
func Error(message string) Message { return Message{Kind: KindError, ErrMessage: message} }

// IsTerminal reports whether m ends a turn.
func (m Message) IsTerminal() bool { return m.Kind == KindDone || m.Kind == KindError }

// IsSessionNotFound reports whether an Error message signals that the
// stored session id should be cleared so the next turn starts fresh.
// Mirrors original_source/src/services/oh_my_pi.rs's
// is_session_not_found_error: both substrings present, independent of
// order, not "session" followed by "not found".
func (m Message) IsSessionNotFound() bool {
	if m.Kind != KindError {
		return false
	}
	lower := strings.ToLower(m.ErrMessage)
	return strings.Contains(lower, "session") && strings.Contains(lower, "not found")
}

// CancelToken is a shared flag plus the child process id. Created per
// turn and stored in the chat's state keyed by chat/channel id.
// Setting Cancelled and killing PID together unblocks the blocking
// reader (EOF on the closed stdout pipe) and ends the worker.
type CancelToken struct {
	cancelled atomic.Bool
	mu        sync.Mutex
	pid       int
}

// NewCancelToken returns a fresh, unset token.
func NewCancelToken() *CancelToken {
	return &CancelToken{}
}

// SetPID records the spawned child's process id.
func (c *CancelToken) SetPID(pid int) {
	c.mu.Lock()
	c.pid = pid
	c.mu.Unlock()
}

// PID returns the recorded child process id, or 0 if none yet.
func (c *CancelToken) PID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pid
}

// Cancel sets the cancel flag. It does not itself kill the process;
// callers combine it with killing PID() (see runner.Kill).
func (c *CancelToken) Cancel() {
	c.cancelled.Store(true)
}

// Cancelled reports whether Cancel has been called.
func (c *CancelToken) Cancelled() bool {
	return c.cancelled.Load()
}
