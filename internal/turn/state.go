package turn

import (
	"sync"

	"github.com/igoryan-dao/aemi/internal/session"
	"github.com/igoryan-dao/aemi/internal/stream"
)

// Shared is the single mutex-protected structure holding every
// cross-task map the orchestrator touches: chat sessions, cancel
// tokens, and placeholder message ids (spec §5, §9 "Cross-task
// state"). Writers always drop the guard before any blocking call,
// mirroring the teacher's state.Manager.
type Shared struct {
	mu               sync.Mutex
	sessions         map[string]*session.ChatSession
	cancelTokens     map[string]*stream.CancelToken
	placeholderMsgID map[string]int
}

// NewShared returns an empty Shared store.
func NewShared() *Shared {
	return &Shared{
		sessions:         make(map[string]*session.ChatSession),
		cancelTokens:     make(map[string]*stream.CancelToken),
		placeholderMsgID: make(map[string]int),
	}
}

// Session returns the chat's session, creating an empty one if
// absent, reports whether it already existed.
func (s *Shared) Session(chatKey string) (*session.ChatSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.sessions[chatKey]
	if !ok {
		cs = &session.ChatSession{}
		s.sessions[chatKey] = cs
	}
	return cs, ok
}

// SetSession replaces the chat's session wholesale (e.g. after /start
// loads one from disk).
func (s *Shared) SetSession(chatKey string, cs *session.ChatSession) {
	s.mu.Lock()
	s.sessions[chatKey] = cs
	s.mu.Unlock()
}

// IsRunning reports whether a turn is already active for chatKey
// (spec §4.4 step 1: "an orchestrator is already running").
func (s *Shared) IsRunning(chatKey string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.cancelTokens[chatKey]
	return ok
}

// StartTurn installs a fresh cancel token for chatKey, entering the
// Running state. It is the sole place a cancel token is created.
func (s *Shared) StartTurn(chatKey string) *stream.CancelToken {
	tok := stream.NewCancelToken()
	s.mu.Lock()
	s.cancelTokens[chatKey] = tok
	s.mu.Unlock()
	return tok
}

// EndTurn removes the cancel token, returning to Idle.
func (s *Shared) EndTurn(chatKey string) {
	s.mu.Lock()
	delete(s.cancelTokens, chatKey)
	delete(s.placeholderMsgID, chatKey)
	s.mu.Unlock()
}

// CancelTurn sets the cancel flag and kills the recorded child pid,
// used by /stop and /clear (spec §5 Cancellation).
func (s *Shared) CancelTurn(chatKey string) bool {
	s.mu.Lock()
	tok, ok := s.cancelTokens[chatKey]
	s.mu.Unlock()
	if !ok {
		return false
	}
	tok.Cancel()
	if pid := tok.PID(); pid > 0 {
		stream.Kill(pid)
	}
	return true
}

// SetPlaceholder records the chat message id the orchestrator is
// editing in place for the current turn.
func (s *Shared) SetPlaceholder(chatKey string, msgID int) {
	s.mu.Lock()
	s.placeholderMsgID[chatKey] = msgID
	s.mu.Unlock()
}

// Placeholder returns the current placeholder message id, if any.
func (s *Shared) Placeholder(chatKey string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.placeholderMsgID[chatKey]
	return id, ok
}
