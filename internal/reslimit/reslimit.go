// Package reslimit implements the two resource-limit concerns the execution
// core needs: monitoring (sampling live usage of a running child) and
// enforcement (kernel-enforced hard caps where the platform offers them).
//
// Enforcement degrades to a no-op wherever the kernel facility is
// unavailable or permission is denied; callers fall back to the polling
// resource watcher in internal/procrunner for soft enforcement in that
// case.
package reslimit

import "errors"

// ErrUnsupported is returned by Sample on platforms with no usage-sampling
// backend.
var ErrUnsupported = errors.New("resource sampling unsupported on this platform")

// Config describes the limits a task wants enforced.
type Config struct {
	MemoryLimitBytes int64
	CPULimitCores    float64
}

// Usage is a point-in-time sample of a process's resource consumption.
type Usage struct {
	RSSBytes   int64
	CPUTimeNS  int64
	CPUPercent float64 // always 0; delta tracking is a caller concern
}

// Handle owns a scoped, platform-specific resource limit. It is created
// before spawn (CreateHardLimits), applied after spawn with the child pid
// (Apply), and released on worker teardown regardless of outcome
// (Release).
type Handle interface {
	// Apply assigns pid to the underlying limit mechanism. A permission
	// error here must be swallowed by the caller and treated as a
	// soft-limit fallback, per the component contract; Apply itself
	// reports the error so the caller can log it.
	Apply(pid int) error

	// Release frees the underlying OS resource (cgroup directory, job
	// handle). Best-effort; safe to call more than once.
	Release() error
}

// noopHandle satisfies Handle by doing nothing; used by platforms with no
// enforcement mechanism and as the degraded path on permission failure.
type noopHandle struct{}

func (noopHandle) Apply(int) error { return nil }
func (noopHandle) Release() error  { return nil }
