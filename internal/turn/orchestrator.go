package turn

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/igoryan-dao/aemi/internal/chatfmt"
	"github.com/igoryan-dao/aemi/internal/session"
	"github.com/igoryan-dao/aemi/internal/stream"
)

// Surface is what the orchestrator needs from a chat platform: the
// send-text and edit-text operations (spec §1: "the core consumes only
// two operations from them: send-text and edit-text"), plus the
// platform's name, message-length limit and rate limiter.
type Surface interface {
	SendText(chatKey string, text string) (msgID int, err error)
	EditText(chatKey string, msgID int, text string) error
	Platform() string // "telegram" or "discord"
	Limit() chatfmt.PlatformLimit
	RateLimiter() *chatfmt.RateLimiter
}

// ProviderConfig resolves the binary path, default system prompt and
// allowed tools for a chat's active agent.
type ProviderConfig struct {
	Name         string
	BinaryPath   string
	SystemPrompt string
	AllowedTools []string
	Verbose      bool
}

// pollInterval is a var (not const) so tests can shrink it instead of
// waiting out the real 3s cadence; production code never reassigns it.
var pollInterval = 3 * time.Second

const maxEditFailures = 5

var progressFrames = []string{"⏳", "⏳.", "⏳..", "⏳..."}

// RunTurn implements the C4 turn orchestrator for one user message
// (spec §4.4). It blocks until the turn is finished — callers spawn it
// on its own goroutine per incoming chat message.
func RunTurn(ctx context.Context, surface Surface, shared *Shared, chatKey string, provider ProviderConfig, rawInput string) {
	cs, existed := shared.Session(chatKey)
	if !existed || cs.CurrentPath() == "" {
		surface.RateLimiter().Wait(chatKey)
		_, _ = surface.SendText(chatKey, "No active session. Use /start to begin.")
		return
	}
	if shared.IsRunning(chatKey) {
		surface.RateLimiter().Wait(chatKey)
		_, _ = surface.SendText(chatKey, "A turn is already running. Use /stop to cancel it.")
		return
	}

	prompt := buildPrompt(cs, rawInput)

	surface.RateLimiter().Wait(chatKey)
	placeholderID, err := surface.SendText(chatKey, "...")
	if err != nil {
		return
	}
	shared.SetPlaceholder(chatKey, placeholderID)

	tok := shared.StartTurn(chatKey)
	defer shared.EndTurn(chatKey)

	events := make(chan stream.Message, 4096)
	adapt, ok := stream.Lookup(provider.Name)
	if !ok {
		shared.EndTurn(chatKey)
		surface.RateLimiter().Wait(chatKey)
		_, _ = surface.SendText(chatKey, fmt.Sprintf("Unknown agent %q.", provider.Name))
		return
	}

	cfg := buildRunnerConfig(provider, prompt, cs)

	runErrCh := make(chan error, 1)
	go func() {
		defer close(events)
		runErrCh <- stream.RunStreaming(ctx, cfg, adapt, events, tok)
	}()

	result := pollLoop(surface, shared, chatKey, placeholderID, events, tok)

	var runErr error
	select {
	case runErr = <-runErrCh:
	case <-time.After(200 * time.Millisecond):
	}
	if runErr != nil && result.finalText == "" {
		result.finalText = runErr.Error()
		result.isError = true
	}

	finalize(surface, shared, chatKey, placeholderID, cs, rawInput, result)
}

func buildPrompt(cs *session.ChatSession, rawInput string) string {
	sanitized := SanitizeUserInput(rawInput)
	uploads := cs.DrainPendingUploads()
	if len(uploads) == 0 {
		return sanitized
	}
	var b strings.Builder
	for _, u := range uploads {
		b.WriteString("[uploaded file] ")
		b.WriteString(u)
		b.WriteString("\n")
	}
	b.WriteString(sanitized)
	return b.String()
}

func buildRunnerConfig(p ProviderConfig, prompt string, cs *session.ChatSession) stream.Config {
	tools := p.AllowedTools
	if len(tools) == 0 {
		tools = stream.DefaultAllowedTools
	}
	sessionID := cs.SessionID()
	var cfg stream.Config
	switch p.Name {
	case "claude":
		cfg = stream.BuildClaudeCode(p.BinaryPath, prompt, p.SystemPrompt, tools, sessionID, p.Verbose)
	case "gemini":
		cfg = stream.BuildGemini(p.BinaryPath, prompt, p.SystemPrompt)
	case "codex":
		cfg = stream.BuildCodex(p.BinaryPath, prompt, p.SystemPrompt, sessionID)
	case "opencode":
		cfg = stream.BuildOpenCode(p.BinaryPath, prompt, p.SystemPrompt, sessionID)
	case "omp":
		cfg = stream.BuildOhMyPi(p.BinaryPath, prompt, p.SystemPrompt, sessionID)
	}
	cfg.WorkDir = cs.CurrentPath()
	return cfg
}

type turnResult struct {
	finalText        string
	isError          bool
	sessionID        string
	sessionNotFound  bool
	cancelled        bool
}

func pollLoop(surface Surface, shared *Shared, chatKey string, placeholderID int, events <-chan stream.Message, tok *stream.CancelToken) turnResult {
	var buf strings.Builder
	phase := "Thinking"
	frameIdx := 0
	editFailures := 0
	lastFrame := ""
	var res turnResult

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

drain:
	for {
		<-ticker.C
		if tok.Cancelled() {
			res.cancelled = true
			break drain
		}

		terminal := false
	pump:
		for {
			select {
			case msg, ok := <-events:
				if !ok {
					terminal = true
					break pump
				}
				switch msg.Kind {
				case stream.KindInit:
					res.sessionID = msg.SessionID
				case stream.KindText:
					buf.WriteString(msg.Text)
					phase = "Generating"
				case stream.KindToolUse:
					buf.WriteString("\n\n" + chatfmt.RenderToolUse(msg.ToolName, msg.ToolInput) + "\n\n")
					phase = "Using:" + msg.ToolName
				case stream.KindToolResult:
					buf.WriteString(chatfmt.RenderToolResult("", msg.ToolResultContent, msg.ToolIsError) + "\n\n")
				case stream.KindTaskNotification:
					buf.WriteString(fmt.Sprintf("\n> [%s] %s\n", msg.TaskStatus, msg.TaskSummary))
				case stream.KindDone:
					res.finalText = buf.String()
					if msg.Result != "" {
						res.finalText = msg.Result
					}
					if msg.SessionID != "" {
						res.sessionID = msg.SessionID
					}
					terminal = true
					break pump
				case stream.KindError:
					res.finalText = msg.ErrMessage
					res.isError = true
					res.sessionNotFound = msg.IsSessionNotFound()
					terminal = true
					break pump
				}
			default:
				break pump
			}
		}

		if tok.Cancelled() {
			res.cancelled = true
			break drain
		}
		if terminal {
			break drain
		}

		if editFailures < maxEditFailures {
			frame := composeFrame(buf.String(), phase, progressFrames[frameIdx%len(progressFrames)], surface.Limit())
			frameIdx++
			if frame != lastFrame {
				surface.RateLimiter().Wait(chatKey)
				if err := surface.EditText(chatKey, placeholderID, frame); err != nil {
					editFailures++
				} else {
					lastFrame = frame
					editFailures = 0
				}
			}
		}
	}

	if res.finalText == "" && !res.isError {
		res.finalText = buf.String()
	}
	return res
}

// composeFrame builds the displayable placeholder frame: the
// normalized buffer truncated to limit-margin, suffixed with a
// rotating progress indicator; an open code fence is closed before
// the indicator is appended (spec §4.4 step 5).
func composeFrame(buf, phase, indicator string, limit chatfmt.PlatformLimit) string {
	const margin = 64
	max := int(limit) - margin
	if max < 0 {
		max = int(limit)
	}
	normalized := chatfmt.NormalizeEmptyLines(buf)
	if len(normalized) > max {
		chunks := chatfmt.SplitMarkdown(normalized, chatfmt.PlatformLimit(max))
		if len(chunks) > 0 {
			normalized = chunks[0].Text
		}
	}
	normalized = chatfmt.CloseOpenFence(normalized)
	return normalized + "\n\n_" + phase + " " + indicator + "_"
}

// finalize implements spec §4.4 step 6 (Done path) and step 7 (cancel
// path): normalize, platform markdown fixes, final edit or split
// send, history append guarded by cleared, session persistence, and
// the short "Done" notification.
func finalize(surface Surface, shared *Shared, chatKey string, placeholderID int, cs *session.ChatSession, rawInput string, res turnResult) {
	text := chatfmt.NormalizeEmptyLines(res.finalText)
	if res.cancelled {
		text = text + "\n\n[Stopped]"
	}

	rendered := renderForPlatform(surface, text)

	chunks := splitForPlatform(surface, rendered)
	surface.RateLimiter().Wait(chatKey)
	if len(chunks) > 0 {
		_ = surface.EditText(chatKey, placeholderID, chunks[0].Text)
		for _, c := range chunks[1:] {
			surface.RateLimiter().Wait(chatKey)
			_, _ = surface.SendText(chatKey, c.Text)
		}
	}

	cs.CommitTurn(rawInput, res.finalText, res.sessionID, res.sessionNotFound)

	surface.RateLimiter().Wait(chatKey)
	_, _ = surface.SendText(chatKey, "Done.")
}

func renderForPlatform(surface Surface, text string) string {
	if surface.Platform() == "telegram" {
		return chatfmt.ToTelegramHTML(text)
	}
	return chatfmt.ToDiscordMarkdownFull(text)
}

func splitForPlatform(surface Surface, text string) []chatfmt.Chunk {
	if surface.Platform() == "telegram" {
		return chatfmt.SplitTelegramHTML(text, surface.Limit())
	}
	return chatfmt.SplitMarkdown(text, surface.Limit())
}
