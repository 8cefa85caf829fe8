//go:build !windows

package infra

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setupProcessGroup puts the child in its own process group so the whole
// tree can be signalled at once.
func setupProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcessGroup signals the child's entire process group. Delivery
// failures are tolerated; the group may already be gone.
func killProcessGroup(pgid int, sig syscall.Signal) {
	_ = unix.Kill(-pgid, sig)
}

// signalExitCode reports the 128+signal exit code for a signalled child.
func signalExitCode(exitErr *exec.ExitError) (int, bool) {
	ws, ok := exitErr.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return 0, false
	}
	return 128 + int(ws.Signal()), true
}
