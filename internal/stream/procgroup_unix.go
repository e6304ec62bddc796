//go:build !windows

package stream

import (
	"os/exec"
	"syscall"
)

// setProcGroup puts the child in its own process group so that
// cancellation can kill the whole tree (e.g. OpenCode's npx -> sh ->
// node chain), not just the directly-spawned process.
func setProcGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
}

func killPID(pid int) {
	if pid <= 0 {
		return
	}
	_ = syscall.Kill(-pid, syscall.SIGTERM)
}
