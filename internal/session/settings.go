package session

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/igoryan-dao/aemi/internal/paths"
)

// Settings is the process-wide, per-bot-token record persisted in
// bot_settings.json, keyed by token hash (spec §3, §6).
type Settings struct {
	Platform     string            `json:"platform,omitempty"`
	Token        string            `json:"token,omitempty"`
	AllowedTools []string          `json:"allowed_tools,omitempty"`
	LastSessions map[string]string `json:"last_sessions,omitempty"`
	OwnerUserID  *uint64           `json:"owner_user_id,omitempty"`
}

// TokenHash is the 16-lowercase-hex-char sha256 prefix of a bot token
// (spec invariant 5: token_hash(t, None) is 16 lowercase hex chars).
func TokenHash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}

// TokenHashWithPrefix prepends "<prefix>_" to TokenHash(token), used
// by Discord to avoid colliding with Telegram entries that share the
// same underlying token bytes (spec invariant 5: with prefix p,
// "p_<16 hex>").
func TokenHashWithPrefix(token, prefix string) string {
	if prefix == "" {
		return TokenHash(token)
	}
	return prefix + "_" + TokenHash(token)
}

var settingsMu sync.Mutex

// LoadBotSettings returns the Settings stored under hashKey, or a
// fresh zero value if the file or key is missing (spec §4.3/§7: load
// failures yield a default).
func LoadBotSettings(hashKey string) Settings {
	settingsMu.Lock()
	defer settingsMu.Unlock()
	all := readAllSettings()
	if s, ok := all[hashKey]; ok {
		return s
	}
	return Settings{}
}

// SaveBotSettings writes Settings under hashKey into the shared
// bot_settings.json. It first tries for about half a second to take a
// cross-process flock so two bot instances do not interleave writes,
// and writes without the lock if it cannot get it. Disk errors are
// swallowed (spec §7).
func SaveBotSettings(hashKey string, s Settings) {
	settingsMu.Lock()
	defer settingsMu.Unlock()

	if err := paths.EnsureDir(paths.Home()); err != nil {
		return
	}
	lockPath := paths.BotSettingsFile() + ".lock"
	fl := flock.New(lockPath)
	for i := 0; i < 10; i++ {
		locked, err := fl.TryLock()
		if err == nil && locked {
			defer fl.Unlock()
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	all := readAllSettings()
	if all == nil {
		all = make(map[string]Settings)
	}
	all[hashKey] = s
	b, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(paths.BotSettingsFile(), b, 0o644)
}

func readAllSettings() map[string]Settings {
	b, err := os.ReadFile(paths.BotSettingsFile())
	if err != nil {
		return make(map[string]Settings)
	}
	var all map[string]Settings
	if err := json.Unmarshal(b, &all); err != nil {
		return make(map[string]Settings)
	}
	return all
}
