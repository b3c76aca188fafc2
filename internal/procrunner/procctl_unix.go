//go:build !windows

package procrunner

import (
	"os/exec"
	"syscall"
)

// setProcessGroup puts the child in its own process group so the whole
// group (shell plus whatever it forks) can be signaled together.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killProcessGroup(pid int) {
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}

func pauseProcessGroup(pid int) {
	_ = syscall.Kill(-pid, syscall.SIGSTOP)
}

func resumeProcessGroup(pid int) {
	_ = syscall.Kill(-pid, syscall.SIGCONT)
}
