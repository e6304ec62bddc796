// Package config loads process configuration from environment
// variables, following the teacher's env-var-only convention (no
// config file and no flags; the binary's only subcommand is help).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration.
type Config struct {
	TelegramToken  string
	AllowedUserIDs []int64
	DiscordToken   string
	DiscordGuildID string

	// ProviderBinaries overrides the resolved path for a given agent
	// CLI name (e.g. "claude" -> "/usr/local/bin/claude"), read from
	// <UPPER_NAME>_BIN. Empty entries fall back to stream.ResolveBinary.
	ProviderBinaries map[string]string

	DefaultAgent string
	Debug        bool
}

var providerEnvVars = map[string]string{
	"claude":   "CLAUDE_BIN",
	"gemini":   "GEMINI_BIN",
	"codex":    "CODEX_BIN",
	"opencode": "OPENCODE_BIN",
	"omp":      "OMP_BIN",
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	cfg := &Config{
		TelegramToken:    token,
		AllowedUserIDs:   []int64{},
		DiscordToken:     os.Getenv("DISCORD_BOT_TOKEN"),
		DiscordGuildID:   os.Getenv("DISCORD_GUILD_ID"),
		ProviderBinaries: make(map[string]string),
		DefaultAgent:     "claude",
		Debug:            os.Getenv("AEMI_DEBUG") == "1",
	}

	if agent := os.Getenv("AEMI_DEFAULT_AGENT"); agent != "" {
		cfg.DefaultAgent = agent
	}

	for name, envVar := range providerEnvVars {
		if path := os.Getenv(envVar); path != "" {
			cfg.ProviderBinaries[name] = path
		}
	}

	// Parse allowed user IDs (comma-separated)
	if userIDs := os.Getenv("ALLOWED_USER_IDS"); userIDs != "" {
		for _, idStr := range strings.Split(userIDs, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid user ID %q: %w", idStr, err)
			}
			cfg.AllowedUserIDs = append(cfg.AllowedUserIDs, id)
		}
	}

	return cfg, nil
}
