//go:build windows

package stream

import "os/exec"

// Windows has no process-group signal story matching POSIX; killing
// the direct child is the best available approximation.
func setProcGroup(cmd *exec.Cmd) {}

func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}

func killPID(pid int) {
	// no-op: Windows requires a process handle, not a bare pid, to
	// kill; callers only use this as a best-effort fallback.
}
