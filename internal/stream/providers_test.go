package stream

import (
	"strings"
	"testing"
)

func TestEffectivePrompt_EmptySystemPromptIsNoWrap(t *testing.T) {
	got := EffectivePrompt("", "do the thing")
	if got != "do the thing" {
		t.Errorf("got %q, want unwrapped user prompt", got)
	}
}

func TestEffectivePrompt_WrapsBothSections(t *testing.T) {
	got := EffectivePrompt("be concise", "do the thing")
	want := "[System Instructions]\nbe concise\n\n[User Message]\ndo the thing"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildClaudeCode_PromptOnStdinNotWrapped(t *testing.T) {
	cfg := BuildClaudeCode("/bin/claude", "do the thing", "be concise", []string{"Bash", "Read"}, "", false)
	if string(cfg.Stdin) != "do the thing" {
		t.Errorf("Claude Code prompt should not be wrapped, got %q", cfg.Stdin)
	}
	joined := strings.Join(cfg.Args, " ")
	if !strings.Contains(joined, "--allowedTools Bash,Read") {
		t.Errorf("expected --allowedTools Bash,Read in args, got %v", cfg.Args)
	}
	if !strings.Contains(joined, "--append-system-prompt be concise") {
		t.Errorf("expected system prompt passed via flag, got %v", cfg.Args)
	}
	if cfg.SendSyntheticInit {
		t.Error("Claude Code emits its own system.init event; should not request synthetic Init")
	}
}

func TestBuildClaudeCode_ResumeFlag(t *testing.T) {
	cfg := BuildClaudeCode("/bin/claude", "hi", "", nil, "sess-123", false)
	joined := strings.Join(cfg.Args, " ")
	if !strings.Contains(joined, "--resume sess-123") {
		t.Errorf("expected --resume sess-123, got %v", cfg.Args)
	}
}

func TestBuildGemini_WrapsPromptAndRequestsSyntheticInit(t *testing.T) {
	cfg := BuildGemini("/bin/gemini", "do x", "be terse")
	if !strings.Contains(string(cfg.Stdin), "[System Instructions]") {
		t.Errorf("Gemini prompt should be effective-prompt-wrapped, got %q", cfg.Stdin)
	}
	if !cfg.SendSyntheticInit {
		t.Error("Gemini never emits its own Init; SendSyntheticInit must be true")
	}
}

func TestBuildCodex_ResumeAndPromptAsArgNotStdin(t *testing.T) {
	cfg := BuildCodex("/bin/codex", "do x", "", "t1")
	if len(cfg.Stdin) != 0 {
		t.Error("Codex takes no stdin")
	}
	joined := strings.Join(cfg.Args, " ")
	if !strings.Contains(joined, "--resume t1") {
		t.Errorf("expected --resume t1, got %v", cfg.Args)
	}
	if cfg.Args[len(cfg.Args)-1] != "do x" {
		t.Errorf("expected prompt as final arg, got %v", cfg.Args)
	}
}

func TestBuildOpenCode_SessionFlag(t *testing.T) {
	cfg := BuildOpenCode("/bin/opencode", "do x", "", "sess-1")
	joined := strings.Join(cfg.Args, " ")
	if !strings.Contains(joined, "--session sess-1") {
		t.Errorf("expected --session sess-1, got %v", cfg.Args)
	}
}

func TestBuildOhMyPi_ResumeFlag(t *testing.T) {
	cfg := BuildOhMyPi("/bin/omp", "do x", "", "sess-1")
	joined := strings.Join(cfg.Args, " ")
	if !strings.Contains(joined, "--resume sess-1") {
		t.Errorf("expected --resume sess-1, got %v", cfg.Args)
	}

	noResume := BuildOhMyPi("/bin/omp", "do x", "", "")
	for _, a := range noResume.Args {
		if a == "--resume" {
			t.Error("no --resume flag expected when resumeSessionID is empty")
		}
	}
}
