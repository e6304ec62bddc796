package session

import (
	"testing"
	"time"

	"github.com/igoryan-dao/aemi/internal/paths"
)

func withTempHome(t *testing.T) {
	t.Helper()
	t.Setenv("AEMI_HOME", t.TempDir())
	if err := paths.EnsureDir(paths.SessionsDir()); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
}

func TestSaveSessionToFile_RoundTrip(t *testing.T) {
	withTempHome(t)

	history := []HistoryItem{
		{Kind: HistoryUser, Content: "hi"},
		{Kind: HistorySystem, Content: "should be dropped"},
		{Kind: HistoryAssistant, Content: "hello"},
	}
	SaveSessionToFile("sess-1", history, "/work/dir")

	got, ok := LoadSessionByID("sess-1")
	if !ok {
		t.Fatalf("expected session sess-1 to load")
	}
	if got.SessionID != "sess-1" || got.CurrentPath != "/work/dir" {
		t.Errorf("got %+v", got)
	}
	if len(got.History) != 2 {
		t.Fatalf("expected System entry filtered out, got %+v", got.History)
	}
	for _, h := range got.History {
		if h.Kind == HistorySystem {
			t.Errorf("System entry should have been filtered before persisting")
		}
	}
}

func TestSaveSessionToFile_NoOpWithoutIDOrHistory(t *testing.T) {
	withTempHome(t)

	SaveSessionToFile("", []HistoryItem{{Kind: HistoryUser, Content: "x"}}, "/p")
	if _, ok := LoadSessionByID(""); ok {
		t.Error("empty session id must not be written")
	}

	SaveSessionToFile("sess-2", nil, "/p")
	if _, ok := LoadSessionByID("sess-2"); ok {
		t.Error("empty history must not be written (invariant 3)")
	}
}

func TestSaveSessionToFile_OnlySystemHistoryIsNoOp(t *testing.T) {
	withTempHome(t)
	SaveSessionToFile("sess-3", []HistoryItem{{Kind: HistorySystem, Content: "x"}}, "/p")
	if _, ok := LoadSessionByID("sess-3"); ok {
		t.Error("a history containing only System entries must not be written")
	}
}

func TestSaveSessionToFile_RejectsPathTraversalID(t *testing.T) {
	withTempHome(t)
	history := []HistoryItem{{Kind: HistoryUser, Content: "x"}}
	SaveSessionToFile("../../etc/passwd", history, "/p")
	if _, ok := LoadSessionByID("../../etc/passwd"); ok {
		t.Error("a crafted session id must not escape the sessions directory")
	}
}

func TestLoadExistingSession_PicksMostRecentMatchingPath(t *testing.T) {
	withTempHome(t)

	SaveSessionToFile("old", []HistoryItem{{Kind: HistoryUser, Content: "a"}}, "/work")
	time.Sleep(10 * time.Millisecond)
	SaveSessionToFile("new", []HistoryItem{{Kind: HistoryUser, Content: "b"}}, "/work")
	SaveSessionToFile("other", []HistoryItem{{Kind: HistoryUser, Content: "c"}}, "/elsewhere")

	got, _, ok := LoadExistingSession("/work")
	if !ok {
		t.Fatalf("expected a match for /work")
	}
	if got.SessionID != "new" {
		t.Errorf("got session %q, want the most recently modified (new)", got.SessionID)
	}
}

func TestLoadExistingSession_NoMatchReturnsFalse(t *testing.T) {
	withTempHome(t)
	if _, _, ok := LoadExistingSession("/no/such/path"); ok {
		t.Error("expected no match for an unused path")
	}
}

func TestListAllSessions_NewestFirst(t *testing.T) {
	withTempHome(t)
	SaveSessionToFile("s1", []HistoryItem{{Kind: HistoryUser, Content: "a"}}, "/p1")
	time.Sleep(10 * time.Millisecond)
	SaveSessionToFile("s2", []HistoryItem{{Kind: HistoryUser, Content: "b"}}, "/p2")

	all := ListAllSessions()
	if len(all) != 2 {
		t.Fatalf("got %d sessions, want 2", len(all))
	}
	if all[0].SessionID != "s2" {
		t.Errorf("got newest-first order %v, want s2 first", []string{all[0].SessionID, all[1].SessionID})
	}
}

func TestTokenHash(t *testing.T) {
	h := TokenHash("some-bot-token")
	if len(h) != 16 {
		t.Errorf("TokenHash length = %d, want 16 (invariant 5)", len(h))
	}
	for _, r := range h {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')) {
			t.Errorf("TokenHash contains non-lowercase-hex char %q", r)
		}
	}

	p := TokenHashWithPrefix("some-bot-token", "dc")
	want := "dc_" + h
	if p != want {
		t.Errorf("TokenHashWithPrefix = %q, want %q", p, want)
	}

	if TokenHashWithPrefix("some-bot-token", "") != h {
		t.Error("empty prefix should equal plain TokenHash")
	}
}

func TestLoadBotSettings_SaveRoundTrip(t *testing.T) {
	withTempHome(t)
	owner := uint64(42)
	s := Settings{
		Platform:     "discord",
		AllowedTools: []string{"Bash", "Read"},
		LastSessions: map[string]string{"chat-1": "/work"},
		OwnerUserID:  &owner,
	}
	SaveBotSettings("hash1", s)

	got := LoadBotSettings("hash1")
	if got.Platform != "discord" || len(got.AllowedTools) != 2 {
		t.Errorf("got %+v", got)
	}
	if got.OwnerUserID == nil || *got.OwnerUserID != 42 {
		t.Errorf("owner not round-tripped: %+v", got)
	}
}

func TestLoadBotSettings_MissingKeyYieldsDefault(t *testing.T) {
	withTempHome(t)
	got := LoadBotSettings("does-not-exist")
	if got.Platform != "" || got.OwnerUserID != nil {
		t.Errorf("expected zero-value Settings, got %+v", got)
	}
}
