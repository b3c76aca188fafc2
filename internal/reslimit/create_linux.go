//go:build linux

package reslimit

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
)

// cgroupBase is the well-known subdirectory of the cgroup v2 root owned by
// the runner (see spec §6, "Persisted state layout").
const cgroupBase = "/sys/fs/cgroup/taskweaver"

// cpuPeriodUS is the cpu.max period; quota is cores * cpuPeriodUS.
const cpuPeriodUS = 100_000

var cgroupSeq atomic.Uint64

type cgroupHandle struct {
	path string
}

// CreateHardLimits creates a unique cgroup v2 leaf under cgroupBase and
// writes the configured limits to memory.max / cpu.max. It must be called
// before the child is spawned; Apply(pid) is called immediately after
// spawn to move the child into the cgroup.
//
// Any permission denial degrades to a no-op handle: the caller falls back
// to the resource watcher's polling enforcement.
func CreateHardLimits(cfg Config) (Handle, error) {
	if cfg.MemoryLimitBytes <= 0 && cfg.CPULimitCores <= 0 {
		return noopHandle{}, nil
	}

	seq := cgroupSeq.Add(1)
	dir := filepath.Join(cgroupBase, fmt.Sprintf("task-%d-%d", os.Getpid(), seq))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return noopHandle{}, nil //nolint:nilerr // permission denial degrades to soft limits
	}

	if cfg.MemoryLimitBytes > 0 {
		v := strconv.FormatInt(cfg.MemoryLimitBytes, 10)
		if err := os.WriteFile(filepath.Join(dir, "memory.max"), []byte(v), 0o644); err != nil {
			_ = os.Remove(dir)
			return noopHandle{}, nil //nolint:nilerr
		}
	}
	if cfg.CPULimitCores > 0 {
		quota := int64(cfg.CPULimitCores * cpuPeriodUS)
		line := fmt.Sprintf("%d %d", quota, cpuPeriodUS)
		if err := os.WriteFile(filepath.Join(dir, "cpu.max"), []byte(line), 0o644); err != nil {
			_ = os.Remove(dir)
			return noopHandle{}, nil //nolint:nilerr
		}
	}

	return &cgroupHandle{path: dir}, nil
}

// Apply writes pid to cgroup.procs, placing the child under the limit.
func (h *cgroupHandle) Apply(pid int) error {
	procsPath := filepath.Join(h.path, "cgroup.procs")
	return os.WriteFile(procsPath, []byte(strconv.Itoa(pid)), 0o644)
}

// Release removes the cgroup directory, best effort.
func (h *cgroupHandle) Release() error {
	if h.path == "" {
		return nil
	}
	err := os.Remove(h.path)
	h.path = ""
	return err
}
