// Package session implements the session store (C3): persisting and
// loading per-chat transcripts and process-wide bot settings, plus
// the in-memory ChatSession the turn orchestrator mutates.
package session

import (
	"sync"
	"time"
)

// HistoryKind tags one transcript entry.
type HistoryKind string

const (
	HistoryUser       HistoryKind = "User"
	HistoryAssistant  HistoryKind = "Assistant"
	HistoryError      HistoryKind = "Error"
	HistorySystem     HistoryKind = "System"
	HistoryToolUse    HistoryKind = "ToolUse"
	HistoryToolResult HistoryKind = "ToolResult"
)

// HistoryItem is one entry in a ChatSession's visible transcript.
type HistoryItem struct {
	Kind    HistoryKind `json:"kind"`
	Content string      `json:"content"`
}

// ChatSession is the per-chat/channel in-memory state both a chat
// surface's command handlers and a concurrently-running turn's
// orchestrator touch (spec §3). Its own mutex guards every field —
// *ChatSession is always shared by pointer (Shared.Session hands the
// same pointer to both sides), so field access must not assume a
// single owner. In particular /clear and a turn's finalize race on
// Cleared/History/SessionID; every method below that can observe or
// mutate more than one field does so under a single lock acquisition.
type ChatSession struct {
	mu sync.Mutex

	sessionID      string
	currentPath    string
	history        []HistoryItem
	pendingUploads []string
	cleared        bool
	activeAgent    string // supplemented feature: /agent [name]
}

// SessionID returns the provider-assigned session id, if any.
func (cs *ChatSession) SessionID() string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.sessionID
}

// CurrentPath returns the chat's working directory, empty if /start
// was never run.
func (cs *ChatSession) CurrentPath() string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.currentPath
}

// History returns a copy of the visible transcript.
func (cs *ChatSession) History() []HistoryItem {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return append([]HistoryItem(nil), cs.history...)
}

// Cleared reports whether /clear has run since the last /start or
// /resume.
func (cs *ChatSession) Cleared() bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.cleared
}

// ActiveAgent returns the chat's currently selected agent name, empty
// if never set with /agent.
func (cs *ChatSession) ActiveAgent() string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.activeAgent
}

// SetActiveAgent implements /agent <name>.
func (cs *ChatSession) SetActiveAgent(name string) {
	cs.mu.Lock()
	cs.activeAgent = name
	cs.mu.Unlock()
}

// AddPendingUpload records a freshly downloaded file to be mentioned in
// the next prompt sent to the agent.
func (cs *ChatSession) AddPendingUpload(path string) {
	cs.mu.Lock()
	cs.pendingUploads = append(cs.pendingUploads, path)
	cs.mu.Unlock()
}

// DrainPendingUploads atomically returns and clears the chat's pending
// uploads, for folding into the next turn's prompt.
func (cs *ChatSession) DrainPendingUploads() []string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	uploads := cs.pendingUploads
	cs.pendingUploads = nil
	return uploads
}

// Start implements /start: sets the working directory and clears the
// cleared flag, and — if an existing on-disk session matches — adopts
// its session id and history (spec §4.3).
func (cs *ChatSession) Start(dir string, existing Data, found bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.currentPath = dir
	cs.cleared = false
	if found {
		cs.sessionID = existing.SessionID
		cs.history = existing.History
	}
}

// Resume implements /resume [n]: adopts a previously saved session
// wholesale.
func (cs *ChatSession) Resume(data Data) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.sessionID = data.SessionID
	cs.currentPath = data.CurrentPath
	cs.history = data.History
	cs.cleared = false
}

// ClearSession implements /clear: discards in-memory history and sets
// the cleared flag so a turn already in flight discards its result
// instead of resurrecting it (spec §9 "Session-id race with /clear").
func (cs *ChatSession) ClearSession() {
	cs.mu.Lock()
	cs.cleared = true
	cs.history = nil
	cs.mu.Unlock()
}

// CommitTurn appends one finished turn's user/assistant history and
// updates the session id, unless /clear ran while the turn was still
// in flight — checking Cleared and mutating History/SessionID happen
// under one lock acquisition so the two can never interleave (spec §9
// "always check the session's cleared flag before writing final
// history"). On a successful commit it also persists the session to
// disk. Reports whether it committed.
func (cs *ChatSession) CommitTurn(userInput, assistantText, newSessionID string, sessionNotFound bool) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.cleared {
		return false
	}
	cs.history = append(cs.history,
		HistoryItem{Kind: HistoryUser, Content: userInput},
		HistoryItem{Kind: HistoryAssistant, Content: assistantText},
	)
	if sessionNotFound {
		cs.sessionID = ""
	} else if newSessionID != "" {
		cs.sessionID = newSessionID
	}
	SaveSessionToFile(cs.sessionID, cs.history, cs.currentPath)
	return true
}

// Data is the on-disk shape written after every turn
// (<home>/.aemi/ai_sessions/<session_id>.json).
type Data struct {
	SessionID   string        `json:"session_id"`
	History     []HistoryItem `json:"history"`
	CurrentPath string        `json:"current_path"`
	CreatedAt   time.Time     `json:"created_at"`
}

// filterSystem drops History entries, for persistence, whose kind is
// System (spec §3, §4.3).
func filterSystem(items []HistoryItem) []HistoryItem {
	out := make([]HistoryItem, 0, len(items))
	for _, it := range items {
		if it.Kind == HistorySystem {
			continue
		}
		out = append(out, it)
	}
	return out
}
