package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHome_RespectsOverride(t *testing.T) {
	t.Setenv("AEMI_HOME", "/tmp/some-aemi-home")
	if got := Home(); got != "/tmp/some-aemi-home" {
		t.Errorf("got %q, want override honored", got)
	}
}

func TestNewWorkspaceDir_CreatesAnEightCharDir(t *testing.T) {
	t.Setenv("AEMI_HOME", t.TempDir())
	dir, err := NewWorkspaceDir()
	if err != nil {
		t.Fatalf("NewWorkspaceDir error: %v", err)
	}
	if info, statErr := os.Stat(dir); statErr != nil || !info.IsDir() {
		t.Fatalf("expected workspace dir to exist, stat err: %v", statErr)
	}
	name := filepath.Base(dir)
	if len(name) != 8 {
		t.Errorf("workspace dir name %q has length %d, want 8 (spec: workspace/<random8>)", name, len(name))
	}
	if filepath.Dir(dir) != WorkspaceRoot() {
		t.Errorf("workspace dir %q is not under WorkspaceRoot %q", dir, WorkspaceRoot())
	}
}

func TestNewWorkspaceDir_UniquePerCall(t *testing.T) {
	t.Setenv("AEMI_HOME", t.TempDir())
	d1, err := NewWorkspaceDir()
	if err != nil {
		t.Fatalf("NewWorkspaceDir error: %v", err)
	}
	d2, err := NewWorkspaceDir()
	if err != nil {
		t.Fatalf("NewWorkspaceDir error: %v", err)
	}
	if d1 == d2 {
		t.Errorf("expected distinct workspace dirs, got %q twice", d1)
	}
}

func TestBotSettingsFile_UnderHome(t *testing.T) {
	t.Setenv("AEMI_HOME", "/tmp/aemi-test-home")
	want := filepath.Join("/tmp/aemi-test-home", "bot_settings.json")
	if got := BotSettingsFile(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDebugEnabled(t *testing.T) {
	t.Setenv("AEMI_DEBUG", "")
	if DebugEnabled() {
		t.Error("expected DebugEnabled=false when AEMI_DEBUG unset")
	}
	t.Setenv("AEMI_DEBUG", "1")
	if !DebugEnabled() {
		t.Error("expected DebugEnabled=true when AEMI_DEBUG=1")
	}
}
