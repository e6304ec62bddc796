package turn

import "testing"

func TestShared_SessionCreatesOnFirstAccess(t *testing.T) {
	s := NewShared()
	cs, existed := s.Session("chat-1")
	if existed {
		t.Error("first access should report existed=false")
	}
	if cs == nil {
		t.Fatal("expected a non-nil ChatSession")
	}
	_, existed = s.Session("chat-1")
	if !existed {
		t.Error("second access should report existed=true")
	}
}

func TestShared_TurnLifecycle(t *testing.T) {
	s := NewShared()
	key := "chat-1"

	if s.IsRunning(key) {
		t.Error("fresh chat should not be running")
	}

	tok := s.StartTurn(key)
	if tok == nil {
		t.Fatal("StartTurn returned nil token")
	}
	if !s.IsRunning(key) {
		t.Error("IsRunning should be true once a turn has started")
	}

	s.SetPlaceholder(key, 123)
	id, ok := s.Placeholder(key)
	if !ok || id != 123 {
		t.Errorf("got placeholder (%d, %v), want (123, true)", id, ok)
	}

	s.EndTurn(key)
	if s.IsRunning(key) {
		t.Error("IsRunning should be false after EndTurn")
	}
	if _, ok := s.Placeholder(key); ok {
		t.Error("placeholder should be cleared after EndTurn")
	}
}

func TestShared_CancelTurnNoOpWhenNotRunning(t *testing.T) {
	s := NewShared()
	if s.CancelTurn("no-such-chat") {
		t.Error("CancelTurn should return false for a chat with no active turn")
	}
}

func TestShared_CancelTurnSetsCancelledFlag(t *testing.T) {
	s := NewShared()
	key := "chat-1"
	tok := s.StartTurn(key)

	if !s.CancelTurn(key) {
		t.Fatal("CancelTurn should return true for a running turn")
	}
	if !tok.Cancelled() {
		t.Error("the token returned by StartTurn should observe the cancellation")
	}
}
