// Package control implements the interactive control registry: atomic
// per-task signal cells (cancel / pause / resume) discoverable by name, so
// an external UI can reach into a running task without coordinating
// directly with the scheduler or process runner.
package control

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Signal is the control action requested of a running task.
type Signal int32

const (
	SignalNone Signal = iota
	SignalCancel
	SignalPause
	SignalResume
)

// Cell is a thread-safe record of a running task's signal/pid/finished
// state. All fields are read/written with atomic release/acquire
// ordering; callers never need an external lock to use a Cell.
type Cell struct {
	name string

	signal   atomic.Int32
	pid      atomic.Int32
	finished atomic.Bool
}

// NewCell creates a Cell for the given task name, unset (pid 0, not
// finished).
func NewCell(name string) *Cell {
	return &Cell{name: name}
}

// Name returns the owning task name.
func (c *Cell) Name() string { return c.name }

// SetSignal stores the requested control action.
func (c *Cell) SetSignal(s Signal) { c.signal.Store(int32(s)) }

// GetSignal loads the current control action.
func (c *Cell) GetSignal() Signal { return Signal(c.signal.Load()) }

// ClearSignal resets the cell to SignalNone; used after a watcher has
// acted on a one-shot signal such as cancel.
func (c *Cell) ClearSignal() { c.signal.Store(int32(SignalNone)) }

// SetPID records the child process id once known. A zero pid means
// "not yet spawned" or "no longer running".
func (c *Cell) SetPID(pid int) { c.pid.Store(int32(pid)) }

// PID loads the child process id, or 0 if unset.
func (c *Cell) PID() int { return int(c.pid.Load()) }

// SetFinished marks the cell as no longer backing a live task. A finished
// cell stays in the Registry until Unregister is called, but Find and
// ActiveNames treat it as "not present".
func (c *Cell) SetFinished(v bool) { c.finished.Store(v) }

// Finished reports whether the owning task has completed.
func (c *Cell) Finished() bool { return c.finished.Load() }

// Registry is a mutex-guarded mapping from task name to Cell. The mutex
// protects only the map; Cell fields are independently atomic so watcher
// goroutines and the registering worker never contend on the same lock.
type Registry struct {
	mu    sync.Mutex
	cells map[string]*Cell
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{cells: make(map[string]*Cell)}
}

// Register inserts cell, keyed by its name. Registering a second cell under
// the same name replaces the first; the caller owns the replaced cell's
// lifetime.
func (r *Registry) Register(cell *Cell) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cells[cell.Name()] = cell
}

// Unregister removes the named entry. Freeing the cell (if anyone still
// holds a reference) is the caller's responsibility.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cells, name)
}

// Find returns the cell for name if it is present and not finished; nil
// otherwise.
func (r *Registry) Find(name string) *Cell {
	r.mu.Lock()
	cell, ok := r.cells[name]
	r.mu.Unlock()
	if !ok || cell.Finished() {
		return nil
	}
	return cell
}

// ActiveNames returns a snapshot of names whose cells are registered and
// not finished.
func (r *Registry) ActiveNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.cells))
	for name, cell := range r.cells {
		if !cell.Finished() {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
