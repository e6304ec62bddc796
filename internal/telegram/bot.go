// Package telegram implements the Telegram chat surface: a thin
// go-telegram/bot wrapper that turns incoming updates into calls
// against the turn orchestrator, and implements turn.Surface so the
// orchestrator can send/edit messages without knowing the platform.
package telegram

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/gofrs/flock"

	"github.com/igoryan-dao/aemi/internal/chatfmt"
	"github.com/igoryan-dao/aemi/internal/host"
	"github.com/igoryan-dao/aemi/internal/paths"
	"github.com/igoryan-dao/aemi/internal/session"
	"github.com/igoryan-dao/aemi/internal/stream"
	"github.com/igoryan-dao/aemi/internal/turn"
	"github.com/igoryan-dao/aemi/internal/whisper"
)

// Bot wraps a Telegram long-poll client and implements turn.Surface.
type Bot struct {
	bot         *tgbot.Bot
	token       string
	tokenHash   string
	shared      *turn.Shared
	rateLimiter *chatfmt.RateLimiter
	transcriber     *whisper.Transcriber
	providers       ProviderResolver
	lock            *flock.Flock
	extraAllowedIDs []int64
}

// ProviderResolver maps an active-agent name to a runnable config.
type ProviderResolver func(agentName string) turn.ProviderConfig

// New creates a Telegram bot bound to token. extraAllowedIDs is an
// optional static allow-list (ALLOWED_USER_IDS) checked alongside the
// first-seen owner, preserved from the teacher's multi-user mode.
func New(token string, providers ProviderResolver, extraAllowedIDs ...int64) (*Bot, error) {
	b := &Bot{
		token:           token,
		tokenHash:       session.TokenHash(token),
		shared:          turn.NewShared(),
		rateLimiter:     chatfmt.NewRateLimiter(3000 * time.Millisecond),
		providers:       providers,
		extraAllowedIDs: extraAllowedIDs,
	}

	tgb, err := tgbot.New(token, tgbot.WithDefaultHandler(b.handleUpdate))
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	b.bot = tgb
	return b, nil
}

// SetTranscriber wires an optional voice-to-text transcriber.
func (b *Bot) SetTranscriber(t *whisper.Transcriber) { b.transcriber = t }

// Platform implements turn.Surface.
func (b *Bot) Platform() string { return "telegram" }

// Limit implements turn.Surface.
func (b *Bot) Limit() chatfmt.PlatformLimit { return chatfmt.TelegramLimit }

// RateLimiter implements turn.Surface.
func (b *Bot) RateLimiter() *chatfmt.RateLimiter { return b.rateLimiter }

// SendText implements turn.Surface.
func (b *Bot) SendText(chatKey, text string) (int, error) {
	chatID, err := strconv.ParseInt(chatKey, 10, 64)
	if err != nil {
		return 0, err
	}
	msg, err := b.bot.SendMessage(context.Background(), &tgbot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return 0, err
	}
	return msg.ID, nil
}

// EditText implements turn.Surface.
func (b *Bot) EditText(chatKey string, msgID int, text string) error {
	chatID, err := strconv.ParseInt(chatKey, 10, 64)
	if err != nil {
		return err
	}
	_, err = b.bot.EditMessageText(context.Background(), &tgbot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: msgID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	return err
}

// Start acquires the single-instance lock for this token, then begins
// long polling until ctx is cancelled, mirroring the teacher's
// tg-bot-<hash>.lock discipline (core/internal/telegram/bot.go).
func (b *Bot) Start(ctx context.Context) error {
	if err := paths.EnsureDir(paths.Home()); err != nil {
		return err
	}
	if err := paths.EnsureDir(filepath.Dir(paths.LockFile(b.tokenHash))); err != nil {
		return err
	}
	b.lock = flock.New(paths.LockFile(b.tokenHash))
	var locked bool
	for i := 0; i < 10; i++ {
		ok, err := b.lock.TryLock()
		if err == nil && ok {
			locked = true
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if !locked {
		return fmt.Errorf("another instance already holds the lock for this bot token")
	}
	defer b.lock.Unlock()

	log.Println("Starting Telegram bot...")
	b.bot.Start(ctx)
	return nil
}

func (b *Bot) handleUpdate(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	msg := update.Message
	chatKey := strconv.FormatInt(msg.Chat.ID, 10)

	if !b.authorize(msg.From.ID) {
		return
	}

	if msg.Voice != nil {
		b.handleVoice(ctx, chatKey, msg)
		return
	}
	if msg.Document != nil || len(msg.Photo) > 0 {
		b.handleUpload(ctx, chatKey, msg)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}
	if strings.HasPrefix(text, "!") {
		b.handleShell(ctx, chatKey, strings.TrimPrefix(text, "!"))
		return
	}
	if strings.HasPrefix(text, "/") {
		b.handleCommand(ctx, chatKey, text)
		return
	}

	cs, _ := b.shared.Session(chatKey)
	agentName := cs.ActiveAgent()
	if agentName == "" {
		agentName = "claude"
	}
	provider := b.providers(agentName)
	go turn.RunTurn(ctx, b, b.shared, chatKey, provider, text)
}

// authorize implements first-seen-wins owner imprinting (spec
// GLOSSARY "Imprinting"): user ids in extraAllowedIDs are always
// admitted; otherwise the first user to message the bot becomes its
// owner and all others are rejected.
func (b *Bot) authorize(userID int64) bool {
	for _, id := range b.extraAllowedIDs {
		if id == userID {
			return true
		}
	}
	settings := session.LoadBotSettings(b.tokenHash)
	if settings.OwnerUserID == nil {
		uid := uint64(userID)
		settings.OwnerUserID = &uid
		settings.Token = b.token
		session.SaveBotSettings(b.tokenHash, settings)
		return true
	}
	return *settings.OwnerUserID == uint64(userID)
}

func (b *Bot) handleVoice(ctx context.Context, chatKey string, msg *models.Message) {
	if b.transcriber == nil {
		b.reply(chatKey, "Voice transcription is not configured.")
		return
	}
	file, err := b.bot.GetFile(ctx, &tgbot.GetFileParams{FileID: msg.Voice.FileID})
	if err != nil {
		b.reply(chatKey, fmt.Sprintf("Failed to fetch voice file: %v", err))
		return
	}
	oggPath := filepath.Join(paths.Home(), "tmp", msg.Voice.FileID+".ogg")
	if err := paths.EnsureDir(filepath.Dir(oggPath)); err != nil {
		b.reply(chatKey, fmt.Sprintf("Failed to prepare temp dir: %v", err))
		return
	}
	if err := b.downloadFile(file.FilePath, oggPath); err != nil {
		b.reply(chatKey, fmt.Sprintf("Failed to download voice file: %v", err))
		return
	}
	defer os.Remove(oggPath)

	text, err := b.transcriber.Transcribe(oggPath)
	if err != nil {
		b.reply(chatKey, fmt.Sprintf("Transcription failed: %v", err))
		return
	}
	if text == "" {
		b.reply(chatKey, "Could not transcribe any speech.")
		return
	}

	cs, _ := b.shared.Session(chatKey)
	agentName := cs.ActiveAgent()
	if agentName == "" {
		agentName = "claude"
	}
	provider := b.providers(agentName)
	go turn.RunTurn(ctx, b, b.shared, chatKey, provider, text)
}

func (b *Bot) downloadFile(tgFilePath, localPath string) error {
	url := fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", b.token, tgFilePath)
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}
	out, err := os.Create(localPath)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, resp.Body)
	return err
}

func (b *Bot) handleUpload(ctx context.Context, chatKey string, msg *models.Message) {
	cs, _ := b.shared.Session(chatKey)
	if cs.CurrentPath() == "" {
		b.reply(chatKey, "Use /start before uploading files.")
		return
	}

	var fileID, name string
	if msg.Document != nil {
		fileID, name = msg.Document.FileID, msg.Document.FileName
	} else if len(msg.Photo) > 0 {
		p := msg.Photo[len(msg.Photo)-1]
		fileID, name = p.FileID, p.FileID+".jpg"
	}
	name = filepath.Base(name) // sanitize: no directory components

	file, err := b.bot.GetFile(ctx, &tgbot.GetFileParams{FileID: fileID})
	if err != nil {
		b.reply(chatKey, fmt.Sprintf("Failed to fetch file: %v", err))
		return
	}
	dest := filepath.Join(cs.CurrentPath(), name)
	if err := b.downloadFile(file.FilePath, dest); err != nil {
		b.reply(chatKey, fmt.Sprintf("Failed to download file: %v", err))
		return
	}
	cs.AddPendingUpload(dest)
	b.reply(chatKey, fmt.Sprintf("Uploaded %s", name))
}

func (b *Bot) handleShell(ctx context.Context, chatKey, cmd string) {
	cs, _ := b.shared.Session(chatKey)
	if cs.CurrentPath() == "" {
		b.reply(chatKey, "Use /start before running shell commands.")
		return
	}
	result, err := host.RunShell(ctx, cs.CurrentPath(), cmd)
	if err != nil {
		b.reply(chatKey, fmt.Sprintf("Failed to run command: %v", err))
		return
	}
	b.reply(chatKey, host.FormatResult(result))
}

func (b *Bot) reply(chatKey, text string) {
	b.rateLimiter.Wait(chatKey)
	_, _ = b.SendText(chatKey, chatfmt.EscapeHTML(text))
}

// handleCommand dispatches the platform commands of spec §6.
func (b *Bot) handleCommand(ctx context.Context, chatKey, text string) {
	fields := strings.Fields(text)
	cmd := fields[0]
	args := fields[1:]
	cs, _ := b.shared.Session(chatKey)

	switch cmd {
	case "/start":
		b.cmdStart(chatKey, cs, args)
	case "/resume":
		b.cmdResume(chatKey, cs, args)
	case "/pwd":
		b.reply(chatKey, cs.CurrentPath())
	case "/clear":
		cs.ClearSession()
		b.shared.CancelTurn(chatKey)
		b.reply(chatKey, "Session cleared.")
	case "/stop":
		if b.shared.CancelTurn(chatKey) {
			b.reply(chatKey, "Stopping current turn...")
		} else {
			b.reply(chatKey, "No turn is running.")
		}
	case "/help":
		b.reply(chatKey, helpText)
	case "/down":
		b.cmdDown(chatKey, cs, args)
	case "/availabletools":
		b.reply(chatKey, strings.Join(stream.DefaultAllowedTools, ", "))
	case "/allowedtools":
		settings := session.LoadBotSettings(b.tokenHash)
		tools := settings.AllowedTools
		if len(tools) == 0 {
			tools = stream.DefaultAllowedTools
		}
		b.reply(chatKey, strings.Join(tools, ", "))
	case "/allowed":
		b.cmdAllowed(chatKey, args)
	case "/agent":
		b.cmdAgent(chatKey, cs, args)
	default:
		b.reply(chatKey, "Unknown command. /help for the list.")
	}
	_ = ctx
}

const helpText = "/start [path|~], /resume [n], /pwd, /clear, /stop, /help, /down <filepath>, /availabletools, /allowedtools, /allowed (+|-)<name>, /agent [name], !<cmd>"

func (b *Bot) cmdStart(chatKey string, cs *session.ChatSession, args []string) {
	var dir string
	if len(args) > 0 {
		if args[0] == "~" {
			dir, _ = os.UserHomeDir()
		} else {
			dir = args[0]
		}
	} else {
		var err error
		dir, err = paths.NewWorkspaceDir()
		if err != nil {
			b.reply(chatKey, fmt.Sprintf("Failed to create workspace: %v", err))
			return
		}
	}
	existing, _, found := session.LoadExistingSession(dir)
	cs.Start(dir, existing, found)
	b.reply(chatKey, fmt.Sprintf("Session started at %s", dir))
}

func (b *Bot) cmdResume(chatKey string, cs *session.ChatSession, args []string) {
	all := session.ListAllSessions()
	if len(all) == 0 {
		b.reply(chatKey, "No saved sessions.")
		return
	}
	n := 0
	if len(args) > 0 {
		if v, err := strconv.Atoi(args[0]); err == nil {
			n = v
		}
	}
	if n < 0 || n >= len(all) {
		n = 0
	}
	picked := all[n]
	cs.Resume(picked)
	b.reply(chatKey, fmt.Sprintf("Resumed session %s at %s", picked.SessionID, picked.CurrentPath))
}

func (b *Bot) cmdDown(chatKey string, cs *session.ChatSession, args []string) {
	if len(args) == 0 {
		b.reply(chatKey, "Usage: /down <filepath>")
		return
	}
	path := args[0]
	if !filepath.IsAbs(path) {
		path = filepath.Join(cs.CurrentPath(), path)
	}
	f, err := os.Open(path)
	if err != nil {
		b.reply(chatKey, fmt.Sprintf("Failed to open file: %v", err))
		return
	}
	defer f.Close()

	chatID, err := strconv.ParseInt(chatKey, 10, 64)
	if err != nil {
		return
	}
	b.rateLimiter.Wait(chatKey)
	_, _ = b.bot.SendDocument(context.Background(), &tgbot.SendDocumentParams{
		ChatID:   chatID,
		Document: &models.InputFileUpload{Filename: filepath.Base(path), Data: f},
	})
}

func (b *Bot) cmdAllowed(chatKey string, args []string) {
	if len(args) == 0 {
		b.reply(chatKey, "Usage: /allowed (+|-)<name>")
		return
	}
	settings := session.LoadBotSettings(b.tokenHash)
	tools := settings.AllowedTools
	if len(tools) == 0 {
		tools = append([]string{}, stream.DefaultAllowedTools...)
	}
	for _, arg := range args {
		if len(arg) < 2 {
			continue
		}
		op, name := arg[0], arg[1:]
		switch op {
		case '+':
			if !containsString(tools, name) {
				tools = append(tools, name)
			}
		case '-':
			tools = removeString(tools, name)
		}
	}
	settings.AllowedTools = tools
	session.SaveBotSettings(b.tokenHash, settings)
	b.reply(chatKey, "Updated allowed tools: "+strings.Join(tools, ", "))
}

func (b *Bot) cmdAgent(chatKey string, cs *session.ChatSession, args []string) {
	if len(args) == 0 {
		name := cs.ActiveAgent()
		if name == "" {
			name = "claude"
		}
		b.reply(chatKey, "Active agent: "+name)
		return
	}
	cs.SetActiveAgent(args[0])
	b.reply(chatKey, "Switched to agent: "+args[0])
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func removeString(list []string, v string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}
