// Package scheduler orchestrates the graph, process runner, resource
// limits, control registry, and cache into the runner's execution core
// (spec §4.6): it plans levels, fans workers out under a two-layer
// semaphore, retries, skips, runs serial chains, and aggregates results.
package scheduler

import (
	"context"
	"errors"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"taskweaver/internal/cache"
	"taskweaver/internal/condition"
	"taskweaver/internal/control"
	"taskweaver/internal/graph"
	"taskweaver/internal/procrunner"
	"taskweaver/internal/task"
	"taskweaver/internal/toolchain"
)

// TaskResult is one task's outcome (spec §3).
type TaskResult struct {
	Name       string
	Success    bool
	ExitCode   int
	DurationMS int64
	Skipped    bool
}

// ScheduleResult is the aggregate outcome of a Run.
type ScheduleResult struct {
	Results      []TaskResult
	TotalSuccess bool
}

// DryRunPlan is the ordered list of levels `plan_dry_run` returns for UI use.
type DryRunPlan struct {
	Levels [][]string
}

// SchedulerConfig tunes a single Run invocation (spec §6).
type SchedulerConfig struct {
	MaxJobs      int
	InheritStdio bool
	DryRun       bool
	Monitor      bool
	UseColor     bool

	// Registry, if non-nil, receives a ControlCell per running task so an
	// external UI can cancel/pause/resume it by name.
	Registry *control.Registry
	// Cache, if non-nil, backs tasks declaring cache=true. A nil Cache
	// disables memoization even for tasks that request it.
	Cache *cache.Cache
}

// Scheduler binds a loaded Config to a logger. The cache and the control
// registry are supplied per Run through SchedulerConfig.
type Scheduler struct {
	cfg task.Config
	log *logrus.Logger
}

// New builds a Scheduler over cfg. A nil logger installs a default logrus
// logger at warn level.
func New(cfg task.Config, log *logrus.Logger) *Scheduler {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.WarnLevel)
	}
	return &Scheduler{cfg: cfg, log: log}
}

// PlanDryRun returns the ordered execution plan for taskNames without
// running anything.
func (s *Scheduler) PlanDryRun(taskNames []string) (*DryRunPlan, error) {
	sub, err := s.buildSubgraph(taskNames)
	if err != nil {
		return nil, err
	}
	levels, err := sub.ExecutionLevels()
	if err != nil {
		return nil, toCycleError(err)
	}
	out := &DryRunPlan{Levels: make([][]string, len(levels.Levels))}
	for i := range levels.Levels {
		out.Levels[i] = levels.Names(i)
	}
	return out, nil
}

// runState holds the mutable, cross-goroutine state of a single Run.
type runState struct {
	resultsMu sync.Mutex
	results   []TaskResult

	failed atomic.Bool

	perTaskMu  sync.Mutex
	perTaskSem map[string]*semaphore.Weighted

	serialMu    sync.Mutex
	serialState map[string]*serialEntry
}

type serialEntry struct {
	visiting bool
	success  bool
}

func newRunState() *runState {
	return &runState{
		perTaskSem:  make(map[string]*semaphore.Weighted),
		serialState: make(map[string]*serialEntry),
	}
}

func (rs *runState) appendResult(r TaskResult) {
	rs.resultsMu.Lock()
	rs.results = append(rs.results, r)
	rs.resultsMu.Unlock()
}

// Run executes taskNames to completion per §4.6.
func (s *Scheduler) Run(ctx context.Context, taskNames []string, sc SchedulerConfig) (*ScheduleResult, error) {
	sub, err := s.buildSubgraph(taskNames)
	if err != nil {
		return nil, err
	}
	plan, err := sub.ExecutionLevels()
	if err != nil {
		return nil, toCycleError(err)
	}

	maxJobs := sc.MaxJobs
	if maxJobs <= 0 {
		maxJobs = runtime.NumCPU()
	}
	globalSem := semaphore.NewWeighted(int64(maxJobs))
	state := newRunState()

	for i := range plan.Levels {
		if state.failed.Load() {
			break
		}
		names := plan.Names(i)
		var wg sync.WaitGroup
		for _, name := range names {
			if state.failed.Load() {
				break
			}
			t := s.cfg.Tasks[name]

			ok, err := s.runSerialChain(ctx, t, state, sc)
			if err != nil {
				return nil, err
			}
			if !ok {
				// A serial dependency failed without allow_failure; the
				// triggering task is skipped from spawning entirely.
				continue
			}

			if sc.DryRun {
				state.appendResult(TaskResult{Name: name, Success: true, Skipped: true})
				continue
			}

			skip, err := s.shouldSkipOnCondition(t)
			if err != nil {
				s.log.WithError(err).WithField("task", name).Debug("condition evaluation failed, running task")
			}
			if skip {
				state.appendResult(TaskResult{Name: name, Success: true, Skipped: true})
				continue
			}

			if state.failed.Load() {
				break
			}
			if err := globalSem.Acquire(ctx, 1); err != nil {
				break
			}
			perTaskSem := state.lazyPerTaskSem(name, t.MaxConcurrent)
			if perTaskSem != nil {
				if err := perTaskSem.Acquire(ctx, 1); err != nil {
					globalSem.Release(1)
					break
				}
			}

			wg.Add(1)
			go func(name string, t task.Task) {
				defer wg.Done()
				defer globalSem.Release(1)
				if perTaskSem != nil {
					defer perTaskSem.Release(1)
				}
				s.runWorker(ctx, name, t, state, sc)
			}(name, t)
		}
		wg.Wait()
	}

	return &ScheduleResult{Results: state.results, TotalSuccess: !state.failed.Load()}, nil
}

func (rs *runState) lazyPerTaskSem(name string, maxConcurrent int) *semaphore.Weighted {
	if maxConcurrent <= 0 {
		return nil
	}
	rs.perTaskMu.Lock()
	defer rs.perTaskMu.Unlock()
	sem, ok := rs.perTaskSem[name]
	if !ok {
		sem = semaphore.NewWeighted(int64(maxConcurrent))
		rs.perTaskSem[name] = sem
	}
	return sem
}

// runWorker is the per-task body: §4.6 worker steps 1-7.
func (s *Scheduler) runWorker(ctx context.Context, name string, t task.Task, state *runState, sc SchedulerConfig) {
	var cell *control.Cell
	if sc.Registry != nil {
		cell = control.NewCell(name)
		sc.Registry.Register(cell)
		defer func() {
			cell.SetFinished(true)
			sc.Registry.Unregister(name)
		}()
	}

	toolchains := make([]task.ToolSpec, 0, len(s.cfg.Toolchains)+len(t.Toolchains))
	toolchains = append(toolchains, s.cfg.Toolchains...)
	toolchains = append(toolchains, t.Toolchains...)

	env, err := toolchain.BuildToolchainEnv(toolchains, t.Env)
	if err != nil {
		s.log.WithError(err).WithField("task", name).Error("toolchain resolution failed")
		state.appendResult(TaskResult{Name: name, Success: false, ExitCode: 1})
		state.failed.Store(true)
		return
	}

	var key string
	if t.Cache && sc.Cache != nil {
		key = cache.ComputeKey(t.Command, env)
		hit, err := sc.Cache.Lookup(key)
		if err != nil {
			s.log.WithError(err).WithField("task", name).Warn("cache lookup failed, running task")
		} else if hit {
			state.appendResult(TaskResult{Name: name, Success: true, Skipped: true})
			return
		}
	}

	stdio := procrunner.StdioInherit
	if !sc.InheritStdio {
		stdio = procrunner.StdioCapture
	}

	attempt := 0
	delay := t.RetryDelayMS
	var result procrunner.Result
	for {
		result, err = procrunner.Run(ctx, procrunner.Config{
			Command:          t.Command,
			Dir:              t.WorkDir,
			Env:              env,
			Stdio:            stdio,
			TimeoutMS:        t.TimeoutMS,
			MemoryLimitBytes: t.MemoryLimitBytes,
			CPULimitCores:    t.CPULimitCores,
			Control:          cell,
			Monitor:          sc.Monitor,
		})
		if err != nil {
			s.log.WithError(err).WithField("task", name).Error("process runner failed")
			state.appendResult(TaskResult{Name: name, Success: false, ExitCode: 1})
			if !t.AllowFailure {
				state.failed.Store(true)
			}
			return
		}
		if result.Success || attempt >= t.RetryMax {
			break
		}
		attempt++
		if delay > 0 {
			time.Sleep(time.Duration(delay) * time.Millisecond)
			if t.RetryBackoff {
				delay *= 2
			}
		}
	}

	state.appendResult(TaskResult{
		Name:       name,
		Success:    result.Success,
		ExitCode:   result.ExitCode,
		DurationMS: result.DurationMS,
	})

	if result.Success {
		if t.Cache && sc.Cache != nil {
			if err := sc.Cache.Record(key); err != nil {
				s.log.WithError(err).WithField("task", name).Warn("cache record failed")
			}
		}
		return
	}
	if !t.AllowFailure {
		state.failed.Store(true)
	}
}

func (s *Scheduler) shouldSkipOnCondition(t task.Task) (bool, error) {
	if t.Condition == "" {
		return false, nil
	}
	ok, err := condition.Eval(t.Condition, t.Env)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// runSerialChain runs t's serial deps synchronously on the scheduling
// thread, depth-first, in array order, each dep's own serial deps first.
// It returns ok=false when a non-allow_failure dep in the chain failed, in
// which case the caller must not spawn the triggering task.
func (s *Scheduler) runSerialChain(ctx context.Context, t task.Task, state *runState, sc SchedulerConfig) (bool, error) {
	for _, depName := range t.DepsSerial {
		ok, err := s.runSerialTask(ctx, depName, state, sc)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (s *Scheduler) runSerialTask(ctx context.Context, name string, state *runState, sc SchedulerConfig) (bool, error) {
	state.serialMu.Lock()
	if entry, ok := state.serialState[name]; ok {
		visiting := entry.visiting
		success := entry.success
		state.serialMu.Unlock()
		if visiting {
			return false, &CycleDetectedError{Nodes: []string{name}}
		}
		return success, nil
	}
	state.serialState[name] = &serialEntry{visiting: true}
	state.serialMu.Unlock()

	t, ok := s.cfg.Tasks[name]
	if !ok {
		return false, &TaskNotFoundError{Name: name}
	}

	chainOK, err := s.runSerialChain(ctx, t, state, sc)
	if err != nil {
		return false, err
	}

	success := true
	if chainOK {
		if sc.DryRun {
			state.appendResult(TaskResult{Name: name, Success: true, Skipped: true})
		} else {
			skip, condErr := s.shouldSkipOnCondition(t)
			if condErr != nil {
				s.log.WithError(condErr).WithField("task", name).Debug("condition evaluation failed, running task")
			}
			if skip {
				state.appendResult(TaskResult{Name: name, Success: true, Skipped: true})
			} else {
				s.runWorkerSync(ctx, name, t, state, sc)
				success = !state.lastResultFailed(name)
			}
		}
	} else {
		success = false
	}

	state.serialMu.Lock()
	state.serialState[name] = &serialEntry{visiting: false, success: success || t.AllowFailure}
	state.serialMu.Unlock()

	return success || t.AllowFailure, nil
}

// runWorkerSync runs runWorker inline (no semaphore, no goroutine) for a
// serial-chain member, which by definition executes on the scheduling
// thread.
func (s *Scheduler) runWorkerSync(ctx context.Context, name string, t task.Task, state *runState, sc SchedulerConfig) {
	s.runWorker(ctx, name, t, state, sc)
}

// lastResultFailed reports whether the most recently appended result for
// name was a failure. Used only by the serial chain, which appends exactly
// one result per invocation before checking.
func (rs *runState) lastResultFailed(name string) bool {
	rs.resultsMu.Lock()
	defer rs.resultsMu.Unlock()
	for i := len(rs.results) - 1; i >= 0; i-- {
		if rs.results[i].Name == name {
			return !rs.results[i].Success
		}
	}
	return false
}

// buildSubgraph computes the transitive needed set over parallel deps from
// taskNames, validates every referenced task (parallel and serial) exists,
// and returns the induced subgraph.
func (s *Scheduler) buildSubgraph(taskNames []string) (*graph.Graph, error) {
	full := graph.New()
	for name, t := range s.cfg.Tasks {
		full.AddNode(name)
		for _, dep := range t.DepsParallel {
			full.AddEdge(name, dep)
		}
	}

	needed := make(map[string]struct{})
	var visit func(name string) error
	visit = func(name string) error {
		if _, ok := needed[name]; ok {
			return nil
		}
		t, ok := s.cfg.Tasks[name]
		if !ok {
			return &TaskNotFoundError{Name: name}
		}
		needed[name] = struct{}{}
		for _, dep := range t.DepsParallel {
			if err := visit(dep); err != nil {
				return err
			}
		}
		return nil
	}
	for _, name := range taskNames {
		if err := visit(name); err != nil {
			return nil, err
		}
	}

	if err := s.validateSerialRefs(needed); err != nil {
		return nil, err
	}

	return full.Sub(needed), nil
}

// validateSerialRefs walks the serial-dep chains of every needed task,
// transitively, and fails fast on an unknown reference. Serial deps are not
// added to the parallel graph; only their existence is validated here.
func (s *Scheduler) validateSerialRefs(needed map[string]struct{}) error {
	visited := make(map[string]struct{})
	var walk func(name string) error
	walk = func(name string) error {
		if _, ok := visited[name]; ok {
			return nil
		}
		visited[name] = struct{}{}
		t, ok := s.cfg.Tasks[name]
		if !ok {
			return &TaskNotFoundError{Name: name}
		}
		for _, dep := range t.DepsSerial {
			if err := walk(dep); err != nil {
				return err
			}
		}
		return nil
	}
	names := make([]string, 0, len(needed))
	for n := range needed {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if err := walk(n); err != nil {
			return err
		}
	}
	return nil
}

func toCycleError(err error) error {
	var cycleErr *graph.CycleError
	if errors.As(err, &cycleErr) {
		return &CycleDetectedError{Nodes: cycleErr.Nodes}
	}
	return err
}
