package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/igoryan-dao/aemi/internal/paths"
)

// LoadExistingSession scans the sessions directory and returns the
// entry whose CurrentPath matches workDir and whose file mtime is the
// most recent, per spec §4.3. ok is false if none match or on any
// disk error (load-path failure yields a fresh default per §4.3/§7).
func LoadExistingSession(workDir string) (data Data, mtime time.Time, ok bool) {
	dir := paths.SessionsDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Data{}, time.Time{}, false
	}
	var best Data
	var bestMTime time.Time
	found := false
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		full := filepath.Join(dir, e.Name())
		info, err := e.Info()
		if err != nil {
			continue
		}
		d, err := readSessionFile(full)
		if err != nil {
			continue
		}
		if d.CurrentPath != workDir {
			continue
		}
		if !found || info.ModTime().After(bestMTime) {
			best = d
			bestMTime = info.ModTime()
			found = true
		}
	}
	if !found {
		return Data{}, time.Time{}, false
	}
	return best, bestMTime, true
}

// LoadSessionByID reads a session directly by id.
func LoadSessionByID(id string) (Data, bool) {
	d, err := readSessionFile(paths.SessionFile(id))
	if err != nil {
		return Data{}, false
	}
	return d, true
}

// ListAllSessions lists every saved session, newest first, for /resume.
func ListAllSessions() []Data {
	dir := paths.SessionsDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	type withTime struct {
		d Data
		t time.Time
	}
	var all []withTime
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		d, err := readSessionFile(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		all = append(all, withTime{d, info.ModTime()})
	}
	for i := 1; i < len(all); i++ {
		for j := i; j > 0 && all[j].t.After(all[j-1].t); j-- {
			all[j], all[j-1] = all[j-1], all[j]
		}
	}
	out := make([]Data, len(all))
	for i, w := range all {
		out[i] = w.d
	}
	return out
}

// SaveSessionToFile writes a pretty-printed Data to
// <sessions_dir>/<sessionID>.json. It is a no-op if sessionID or
// history is empty (spec §4.3, invariant 3). Disk errors are
// swallowed: the next turn will try again (spec §7).
func SaveSessionToFile(sessionID string, history []HistoryItem, currentPath string) {
	if sessionID == "" || len(history) == 0 {
		return
	}
	filtered := filterSystem(history)
	if len(filtered) == 0 {
		return
	}
	dir := paths.SessionsDir()
	if err := paths.EnsureDir(dir); err != nil {
		return
	}
	target := paths.SessionFile(sessionID)
	// Defence against crafted session ids: the resolved parent must be
	// exactly the sessions directory (spec §4.3).
	if filepath.Dir(target) != filepath.Clean(dir) {
		return
	}
	data := Data{
		SessionID:   sessionID,
		History:     filtered,
		CurrentPath: currentPath,
		CreatedAt:   time.Now(),
	}
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(target, b, 0o644)
}

func readSessionFile(path string) (Data, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Data{}, err
	}
	var d Data
	if err := json.Unmarshal(b, &d); err != nil {
		return Data{}, err
	}
	return d, nil
}
