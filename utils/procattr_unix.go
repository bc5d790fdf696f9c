//go:build unix

package utils

import (
	"os/exec"
	"syscall"
)

// setProcessGroup puts the shell in its own process group so cancelling the
// context also stops the tools it started (bwa, java, ...).
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
