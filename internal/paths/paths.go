// Package paths resolves the on-disk layout under the user's home
// directory: bot settings, saved sessions, auto-generated workspaces
// and the optional per-provider debug log.
package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	currentDirName = ".aemi"
	legacyDirName  = ".aimi"
)

// Home returns the root directory for all persisted state. AEMI_HOME
// overrides it (used by tests). If the legacy ".aimi" directory exists
// and the current ".aemi" one does not, the legacy directory is used
// so existing installs keep working.
func Home() string {
	if h := os.Getenv("AEMI_HOME"); h != "" {
		return h
	}
	home, _ := os.UserHomeDir()
	current := filepath.Join(home, currentDirName)
	legacy := filepath.Join(home, legacyDirName)
	if _, err := os.Stat(current); err == nil {
		return current
	}
	if _, err := os.Stat(legacy); err == nil {
		return legacy
	}
	return current
}

// EnsureDir creates dir and all parents if missing.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// BotSettingsFile is the path to the process-wide settings file.
func BotSettingsFile() string {
	return filepath.Join(Home(), "bot_settings.json")
}

// SessionsDir holds one JSON file per saved session.
func SessionsDir() string {
	return filepath.Join(Home(), "ai_sessions")
}

// SessionFile returns the path a given session id is stored at.
func SessionFile(sessionID string) string {
	return filepath.Join(SessionsDir(), sessionID+".json")
}

// WorkspaceRoot is the parent of all auto-generated workspace dirs.
func WorkspaceRoot() string {
	return filepath.Join(Home(), "workspace")
}

// NewWorkspaceDir creates and returns a fresh workspace directory under
// WorkspaceRoot, named by an 8-char random id (spec §3: "workspace/
// <random8>"), drawn from a UUID's hex digits to match the teacher's
// id-generation convention in core/internal/agent and core/internal/host
// while keeping the spec's shorter directory name.
func NewWorkspaceDir() (string, error) {
	root := WorkspaceRoot()
	if err := EnsureDir(root); err != nil {
		return "", err
	}
	id := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	dir := filepath.Join(root, id)
	if err := EnsureDir(dir); err != nil {
		return "", err
	}
	return dir, nil
}

// DebugLogFile returns the append-only diagnostic log path for a
// provider, active only when AEMI_DEBUG=1.
func DebugLogFile(provider string) string {
	return filepath.Join(Home(), "debug", provider+".log")
}

// DebugEnabled reports whether AEMI_DEBUG=1 is set.
func DebugEnabled() bool {
	return os.Getenv("AEMI_DEBUG") == "1"
}

// LockFile returns the path of the single-instance lock file for a
// given token hash, used by the Telegram/Discord bots to avoid two
// processes racing the same bot token.
func LockFile(tokenHash string) string {
	return filepath.Join(Home(), "locks", tokenHash+".lock")
}
