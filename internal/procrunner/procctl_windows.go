//go:build windows

package procrunner

import (
	"os/exec"

	"golang.org/x/sys/windows"
)

// setProcessGroup is a no-op on Windows; killProcessGroup there terminates
// only the direct child process, not processes it has started.
func setProcessGroup(cmd *exec.Cmd) {}

func killProcessGroup(pid int) {
	h, err := windows.OpenProcess(windows.PROCESS_TERMINATE, false, uint32(pid))
	if err != nil {
		return
	}
	defer windows.CloseHandle(h)
	_ = windows.TerminateProcess(h, 1)
}

// pauseProcessGroup has no portable Windows equivalent to SIGSTOP; pause
// requests are accepted but have no effect on this platform (spec §9).
func pauseProcessGroup(pid int) {}

func resumeProcessGroup(pid int) {}
