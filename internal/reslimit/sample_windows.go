//go:build windows

package reslimit

import (
	"golang.org/x/sys/windows"
)

// Sample queries process memory counters (WorkingSetSize) and process
// times (user+kernel FILETIMEs, converted to nanoseconds).
func Sample(pid int) (Usage, error) {
	proc, err := windows.OpenProcess(windows.PROCESS_QUERY_INFORMATION|windows.PROCESS_VM_READ, false, uint32(pid))
	if err != nil {
		return Usage{}, err
	}
	defer windows.CloseHandle(proc)

	var mc windows.PROCESS_MEMORY_COUNTERS
	if err := windows.GetProcessMemoryInfo(proc, &mc); err != nil {
		return Usage{}, err
	}

	var creation, exit, kernel, user windows.Filetime
	if err := windows.GetProcessTimes(proc, &creation, &exit, &kernel, &user); err != nil {
		return Usage{}, err
	}

	cpuNS := (filetimeToNS(kernel) + filetimeToNS(user))
	return Usage{RSSBytes: int64(mc.WorkingSetSize), CPUTimeNS: cpuNS}, nil
}

// filetimeToNS converts a FILETIME (100ns ticks) to nanoseconds.
func filetimeToNS(ft windows.Filetime) int64 {
	ticks := int64(ft.HighDateTime)<<32 | int64(ft.LowDateTime)
	return ticks * 100
}
