// Package host runs the "!<cmd>" shell-command platform feature
// (spec §6), grounded on the teacher's CommandOrchestrator: buffered
// capture of stdout+stderr with control-character normalization and a
// byte cap past which the tail is dropped rather than flooding chat.
package host

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/igoryan-dao/aemi/internal/chatfmt"
)

// maxOutputBytes caps the buffered output kept for display; anything
// beyond it is dropped with a note, mirroring the teacher's
// MaxBufferSize truncation in core/internal/host/orchestrator.go.
const maxOutputBytes = 10 * 1024

// Result is the outcome of running one shell command.
type Result struct {
	Output   string
	ExitCode int
}

// RunShell runs "bash -c cmd" in dir with stdin closed, per spec §6.
func RunShell(ctx context.Context, dir, cmd string) (Result, error) {
	c := exec.CommandContext(ctx, "bash", "-c", cmd)
	c.Dir = dir
	c.Stdin = nil

	var buf bytes.Buffer
	c.Stdout = &buf
	c.Stderr = &buf

	runErr := c.Run()

	output := chatfmt.ProcessTerminalOutput(chatfmt.StripANSI(buf.String()))
	if len(output) > maxOutputBytes {
		output = output[:maxOutputBytes] + "\n... [truncated]"
	}

	exitCode := 0
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return Result{}, fmt.Errorf("run %q: %w", cmd, runErr)
		}
	}
	return Result{Output: output, ExitCode: exitCode}, nil
}

// FormatResult renders a Result as a fenced code block with an
// exit-code note, for posting back to chat.
func FormatResult(r Result) string {
	var b strings.Builder
	b.WriteString("```\n")
	b.WriteString(strings.TrimRight(r.Output, "\n"))
	b.WriteString("\n```\n")
	fmt.Fprintf(&b, "exit code: %d", r.ExitCode)
	return b.String()
}
