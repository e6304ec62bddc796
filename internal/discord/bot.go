// Package discord implements the Discord chat surface using
// bwmarrin/discordgo, mirroring internal/telegram's structure: a thin
// gateway wrapper that implements turn.Surface and dispatches the same
// platform commands.
package discord

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

	"github.com/bwmarrin/discordgo"
	"github.com/gofrs/flock"

	"github.com/igoryan-dao/aemi/internal/chatfmt"
	"github.com/igoryan-dao/aemi/internal/host"
	"github.com/igoryan-dao/aemi/internal/paths"
	"github.com/igoryan-dao/aemi/internal/session"
	"github.com/igoryan-dao/aemi/internal/stream"
	"github.com/igoryan-dao/aemi/internal/turn"
)

// Bot wraps a Discord gateway session and implements turn.Surface.
// Discord message ids are snowflakes that fit in an int64 (well under
// the 2^63 range as of this writing), so they round-trip through
// turn.Surface's int-typed msgID without truncation.
type Bot struct {
	session     *discordgo.Session
	token       string
	tokenHash   string
	guildID     string
	shared      *turn.Shared
	rateLimiter *chatfmt.RateLimiter
	providers   ProviderResolver
	lock        *flock.Flock
}

// ProviderResolver maps an active-agent name to a runnable config.
type ProviderResolver func(agentName string) turn.ProviderConfig

// New creates a Discord bot bound to token, optionally restricted to
// one guild.
func New(token, guildID string, providers ProviderResolver) (*Bot, error) {
	sess, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	sess.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent

	b := &Bot{
		session:     sess,
		token:       token,
		tokenHash:   session.TokenHashWithPrefix(token, "dc"),
		guildID:     guildID,
		shared:      turn.NewShared(),
		rateLimiter: chatfmt.NewRateLimiter(1000 * time.Millisecond),
		providers:   providers,
	}
	sess.AddHandler(b.handleReady)
	sess.AddHandler(b.handleMessage)
	return b, nil
}

// Platform implements turn.Surface.
func (b *Bot) Platform() string { return "discord" }

// Limit implements turn.Surface.
func (b *Bot) Limit() chatfmt.PlatformLimit { return chatfmt.DiscordLimit }

// RateLimiter implements turn.Surface.
func (b *Bot) RateLimiter() *chatfmt.RateLimiter { return b.rateLimiter }

// SendText implements turn.Surface.
func (b *Bot) SendText(chatKey, text string) (int, error) {
	msg, err := b.session.ChannelMessageSend(chatKey, text)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(msg.ID, 10, 64)
	if err != nil {
		return 0, err
	}
	return int(id), nil
}

// EditText implements turn.Surface.
func (b *Bot) EditText(chatKey string, msgID int, text string) error {
	_, err := b.session.ChannelMessageEdit(chatKey, strconv.Itoa(msgID), text)
	return err
}

// Start opens the gateway connection and acquires the single-instance
// lock for this token, mirroring the Telegram bot's discipline.
func (b *Bot) Start(ctx context.Context) error {
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

	log.Println("Starting Discord bot...")
	if err := b.session.Open(); err != nil {
		b.lock.Unlock()
		return err
	}
	<-ctx.Done()
	_ = b.session.Close()
	b.lock.Unlock()
	return nil
}

func (b *Bot) handleReady(_ *discordgo.Session, r *discordgo.Ready) {
	log.Printf("Discord bot connected as %s#%s", r.User.Username, r.User.Discriminator)
}

func (b *Bot) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.ID == s.State.User.ID {
		return
	}
	if b.guildID != "" && m.GuildID != b.guildID {
		return
	}
	if !b.authorize(m.Author.ID) {
		return
	}

	chatKey := m.ChannelID
	ctx := context.Background()

	if len(m.Attachments) > 0 {
		b.handleUpload(chatKey, m)
		return
	}

	text := strings.TrimSpace(m.Content)
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

// authorize implements first-seen-wins owner imprinting, identical in
// spirit to the Telegram bot's but keyed under the "dc_" prefixed hash
// so the same underlying token never collides across platforms.
func (b *Bot) authorize(userID string) bool {
	settings := session.LoadBotSettings(b.tokenHash)
	uid, err := strconv.ParseUint(userID, 10, 64)
	if err != nil {
		return false
	}
	if settings.OwnerUserID == nil {
		settings.OwnerUserID = &uid
		settings.Token = b.token
		settings.Platform = "discord"
		session.SaveBotSettings(b.tokenHash, settings)
		return true
	}
	return *settings.OwnerUserID == uid
}

func (b *Bot) reply(chatKey, text string) {
	b.rateLimiter.Wait(chatKey)
	_, _ = b.SendText(chatKey, text)
}

func (b *Bot) handleUpload(chatKey string, m *discordgo.MessageCreate) {
	cs, _ := b.shared.Session(chatKey)
	if cs.CurrentPath() == "" {
		b.reply(chatKey, "Use /start before uploading files.")
		return
	}
	for _, att := range m.Attachments {
		name := filepath.Base(att.Filename)
		dest := filepath.Join(cs.CurrentPath(), name)
		if err := downloadURL(att.URL, dest); err != nil {
			b.reply(chatKey, fmt.Sprintf("Failed to download %s: %v", name, err))
			continue
		}
		cs.AddPendingUpload(dest)
		b.reply(chatKey, fmt.Sprintf("Uploaded %s", name))
	}
}

func downloadURL(url, dest string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, resp.Body)
	return err
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

const helpText = "/start [path|~], /resume [n], /pwd, /clear, /stop, /help, /down <filepath>, /availabletools, /allowedtools, /allowed (+|-)<name>, /agent [name], !<cmd>"

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
	file, err := os.Open(path)
	if err != nil {
		b.reply(chatKey, fmt.Sprintf("Failed to open file: %v", err))
		return
	}
	defer file.Close()

	b.rateLimiter.Wait(chatKey)
	_, _ = b.session.ChannelMessageSendComplex(chatKey, &discordgo.MessageSend{
		Files: []*discordgo.File{
			{Name: filepath.Base(path), Reader: file},
		},
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
