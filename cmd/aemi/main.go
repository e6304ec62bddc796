// Command aemi runs the Telegram/Discord bridge to local AI coding
// agent CLIs (spec §1): it loads configuration, wires the session
// store and turn orchestrator into each chat surface, and runs the
// Telegram bot (plus the Discord bot when DISCORD_BOT_TOKEN is set)
// until interrupted.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"sync"
	"syscall"

	"github.com/igoryan-dao/aemi/internal/config"
	"github.com/igoryan-dao/aemi/internal/discord"
	"github.com/igoryan-dao/aemi/internal/stream"
	"github.com/igoryan-dao/aemi/internal/telegram"
	"github.com/igoryan-dao/aemi/internal/turn"
	"github.com/igoryan-dao/aemi/internal/whisper"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "help" {
		printHelp()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutting down...")
		cancel()
	}()

	resolver := providerResolver(cfg)

	tgBot, err := telegram.New(cfg.TelegramToken, resolver, cfg.AllowedUserIDs...)
	if err != nil {
		log.Fatalf("Failed to create Telegram bot: %v", err)
	}
	initializeWhisper(tgBot)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tgBot.Start(ctx); err != nil {
			log.Printf("Telegram bot stopped: %v", err)
		}
	}()

	if cfg.DiscordToken != "" {
		dcBot, err := discord.New(cfg.DiscordToken, cfg.DiscordGuildID, resolver)
		if err != nil {
			log.Printf("Warning: Failed to create Discord bot: %v. Discord integration disabled.", err)
		} else {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := dcBot.Start(ctx); err != nil {
					log.Printf("Discord bot stopped: %v", err)
				}
			}()
		}
	}

	wg.Wait()
}

// providerResolver builds a turn.ProviderConfig for an agent name,
// honoring any CLAUDE_BIN/GEMINI_BIN/... override before falling back
// to PATH resolution (spec §4.2).
func providerResolver(cfg *config.Config) func(string) turn.ProviderConfig {
	return func(name string) turn.ProviderConfig {
		if name == "" {
			name = cfg.DefaultAgent
		}
		binary := cfg.ProviderBinaries[name]
		if binary == "" {
			if resolved, err := stream.ResolveBinary(agentBinaryName(name)); err == nil {
				binary = resolved
			}
		}
		return turn.ProviderConfig{
			Name:         name,
			BinaryPath:   binary,
			AllowedTools: stream.DefaultAllowedTools,
		}
	}
}

func agentBinaryName(agent string) string {
	switch agent {
	case "claude":
		return "claude"
	case "gemini":
		return "gemini"
	case "codex":
		return "codex"
	case "opencode":
		return "opencode"
	case "omp":
		return "omp"
	default:
		return agent
	}
}

func printHelp() {
	fmt.Println("aemi - bridges Telegram/Discord to local AI coding agent CLIs")
	fmt.Println("\nUsage:")
	fmt.Println("  aemi          Run the Telegram (and optional Discord) bridge")
	fmt.Println("  aemi help     Show this help")
	fmt.Println("\nEnvironment:")
	fmt.Println("  TELEGRAM_BOT_TOKEN   required")
	fmt.Println("  DISCORD_BOT_TOKEN    optional, enables the Discord surface")
	fmt.Println("  DISCORD_GUILD_ID     optional, restricts Discord to one guild")
	fmt.Println("  CLAUDE_BIN, GEMINI_BIN, CODEX_BIN, OPENCODE_BIN, OMP_BIN   optional binary overrides")
	fmt.Println("  WHISPER_PATH, WHISPER_MODEL_PATH   optional, enables Telegram voice transcription")
	fmt.Println("  AEMI_HOME, AEMI_DEBUG   optional, see internal/paths")
}

// initializeWhisper wires the optional voice transcription feature;
// any missing dependency just disables it.
func initializeWhisper(tgBot *telegram.Bot) {
	whisperPath := os.Getenv("WHISPER_PATH")
	modelPath := os.Getenv("WHISPER_MODEL_PATH")

	if whisperPath == "" {
		whisperPath = findWhisperBinary()
		if whisperPath == "" {
			log.Println("Whisper not found. Voice transcription disabled. Set WHISPER_PATH to enable.")
			return
		}
	}
	if modelPath == "" {
		log.Println("WHISPER_MODEL_PATH not set. Voice transcription disabled.")
		return
	}
	if _, err := os.Stat(whisperPath); os.IsNotExist(err) {
		log.Printf("Warning: Whisper binary not found at %s. Voice commands disabled.", whisperPath)
		return
	}
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		log.Printf("Warning: Whisper model not found at %s. Voice commands disabled.", modelPath)
		return
	}
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		log.Println("Warning: FFmpeg not found. Voice transcription requires FFmpeg. Install it to enable voice commands.")
		return
	}

	log.Printf("Initializing Whisper with binary: %s, model: %s", whisperPath, modelPath)
	transcriber, err := whisper.NewTranscriber(whisperPath, modelPath)
	if err != nil {
		log.Printf("Warning: Failed to initialize Whisper: %v. Voice commands disabled.", err)
		return
	}
	tgBot.SetTranscriber(transcriber)
	log.Println("Whisper transcriber initialized successfully")
}

// findWhisperBinary looks for whisper-cli in common locations.
func findWhisperBinary() string {
	var candidates []string
	switch runtime.GOOS {
	case "darwin":
		homeDir, _ := os.UserHomeDir()
		candidates = []string{
			"/usr/local/bin/whisper-cli",
			"/opt/homebrew/bin/whisper-cli",
			homeDir + "/aemi/third_party/whisper.cpp/build/bin/whisper-cli",
		}
	case "linux":
		candidates = []string{
			"/usr/local/bin/whisper-cli",
			"/usr/bin/whisper-cli",
		}
	case "windows":
		candidates = []string{
			"C:\\Program Files\\whisper\\whisper-cli.exe",
			"C:\\whisper\\whisper-cli.exe",
		}
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
