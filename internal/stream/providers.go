package stream

import "strings"

// EffectivePrompt builds the wrapped prompt used by providers that
// lack a separate system-prompt flag (spec §4.2). Claude Code is not
// one of them: it receives the system prompt via --append-system-prompt.
func EffectivePrompt(systemPrompt, userPrompt string) string {
	if systemPrompt == "" {
		return userPrompt
	}
	var b strings.Builder
	b.WriteString("[System Instructions]\n")
	b.WriteString(systemPrompt)
	b.WriteString("\n\n[User Message]\n")
	b.WriteString(userPrompt)
	return b.String()
}

// BuildClaudeCode constructs the Claude Code child-process contract
// (spec §6). The prompt is delivered on stdin; the system prompt is
// passed via --append-system-prompt rather than being wrapped into
// the user prompt.
func BuildClaudeCode(binary, userPrompt, systemPrompt string, allowedTools []string, resumeSessionID string, verbose bool) Config {
	args := []string{"-p", "--allowedTools", strings.Join(allowedTools, ",")}
	if verbose {
		args = append(args, "--verbose")
	}
	args = append(args, "--output-format", "stream-json")
	if systemPrompt != "" {
		args = append(args, "--append-system-prompt", systemPrompt)
	}
	if resumeSessionID != "" {
		args = append(args, "--resume", resumeSessionID)
	}
	return Config{
		Provider:   "claude",
		BinaryPath: binary,
		Args:       args,
		Stdin:      []byte(userPrompt),
		EnvAdd: map[string]string{
			"CLAUDE_CODE_MAX_OUTPUT_TOKENS":      "64000",
			"BASH_DEFAULT_TIMEOUT_MS":            "86400000",
			"BASH_MAX_TIMEOUT_MS":                "86400000",
		},
		EnvRemove:         []string{"CLAUDECODE"},
		SendSyntheticInit: false,
	}
}

// BuildGemini constructs the Gemini child-process contract.
func BuildGemini(binary, userPrompt, systemPrompt string) Config {
	return Config{
		Provider:          "gemini",
		BinaryPath:        binary,
		Args:              []string{"-p", "--output-format", "stream-json", "--yolo"},
		Stdin:             []byte(EffectivePrompt(systemPrompt, userPrompt)),
		SendSyntheticInit: true,
	}
}

// BuildCodex constructs the Codex child-process contract.
func BuildCodex(binary, userPrompt, systemPrompt, resumeSessionID string) Config {
	args := []string{"exec", "--json", "--full-auto"}
	if resumeSessionID != "" {
		args = append(args, "--resume", resumeSessionID)
	}
	args = append(args, EffectivePrompt(systemPrompt, userPrompt))
	return Config{
		Provider:          "codex",
		BinaryPath:        binary,
		Args:              args,
		SendSyntheticInit: true,
	}
}

// BuildOpenCode constructs the OpenCode child-process contract.
func BuildOpenCode(binary, userPrompt, systemPrompt, resumeSessionID string) Config {
	args := []string{"run", "--format", "json"}
	if resumeSessionID != "" {
		args = append(args, "--session", resumeSessionID)
	}
	args = append(args, EffectivePrompt(systemPrompt, userPrompt))
	return Config{
		Provider:          "opencode",
		BinaryPath:        binary,
		Args:              args,
		SendSyntheticInit: true,
	}
}

// BuildOhMyPi constructs the oh-my-pi child-process contract. A
// "session not found" Error is not retried: it ends the turn, and the
// orchestrator then clears the stored session id so the next turn is
// built without --resume.
func BuildOhMyPi(binary, userPrompt, systemPrompt, resumeSessionID string) Config {
	args := []string{"--print", "--mode", "json"}
	if resumeSessionID != "" {
		args = append(args, "--resume", resumeSessionID)
	}
	args = append(args, EffectivePrompt(systemPrompt, userPrompt))
	return Config{
		Provider:          "omp",
		BinaryPath:        binary,
		Args:              args,
		SendSyntheticInit: true,
	}
}
