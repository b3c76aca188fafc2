//go:build windows

package reslimit

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

type jobHandle struct {
	handle windows.Handle
}

// CreateHardLimits creates a Windows job object and configures a
// per-process memory limit via extended limit information. CPU-core limits
// are not enforced on this platform (see spec §9 Open Questions): the
// CPULimitCores field is informational only here.
//
// Failure to create or configure the job degrades to a no-op handle.
func CreateHardLimits(cfg Config) (Handle, error) {
	if cfg.MemoryLimitBytes <= 0 {
		return noopHandle{}, nil
	}

	job, err := windows.CreateJobObject(nil, nil)
	if err != nil {
		return noopHandle{}, nil //nolint:nilerr // degrade to soft limits
	}

	info := windows.JOBOBJECT_EXTENDED_LIMIT_INFORMATION{
		BasicLimitInformation: windows.JOBOBJECT_BASIC_LIMIT_INFORMATION{
			LimitFlags: windows.JOB_OBJECT_LIMIT_PROCESS_MEMORY,
		},
		ProcessMemoryLimit: uintptr(cfg.MemoryLimitBytes),
	}
	_, err = windows.SetInformationJobObject(
		job,
		windows.JobObjectExtendedLimitInformation,
		uintptr(unsafe.Pointer(&info)),
		uint32(unsafe.Sizeof(info)),
	)
	if err != nil {
		_ = windows.CloseHandle(job)
		return noopHandle{}, nil //nolint:nilerr
	}

	return &jobHandle{handle: job}, nil
}

// Apply assigns the child process to the job object.
func (h *jobHandle) Apply(pid int) error {
	proc, err := windows.OpenProcess(windows.PROCESS_ALL_ACCESS, false, uint32(pid))
	if err != nil {
		return err
	}
	defer windows.CloseHandle(proc)
	return windows.AssignProcessToJobObject(h.handle, proc)
}

// Release closes the job handle.
func (h *jobHandle) Release() error {
	if h.handle == 0 {
		return nil
	}
	err := windows.CloseHandle(h.handle)
	h.handle = 0
	return err
}
