// Package configfile loads a runner Config from a YAML file. It is a pure
// collaborator: the scheduler (spec §6) never touches the filesystem or
// this on-disk shape directly, only the task.Config it produces here.
package configfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"taskweaver/internal/task"
)

// yamlEnv is an on-disk (key, value) pair; a slice (not a map) so insertion
// order is preserved for MergeEnv's last-write-wins semantics.
type yamlEnv struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

type yamlTool struct {
	Kind    string `yaml:"kind"`
	Version string `yaml:"version,omitempty"`
}

type yamlTask struct {
	Command          string     `yaml:"command"`
	WorkDir          string     `yaml:"workdir,omitempty"`
	Env              []yamlEnv  `yaml:"env,omitempty"`
	DepsParallel     []string   `yaml:"deps,omitempty"`
	DepsSerial       []string   `yaml:"deps_serial,omitempty"`
	Condition        string     `yaml:"condition,omitempty"`
	TimeoutMS        int64      `yaml:"timeout_ms,omitempty"`
	MemoryLimitBytes int64      `yaml:"memory_limit_bytes,omitempty"`
	CPULimitCores    float64    `yaml:"cpu_limit_cores,omitempty"`
	Cache            bool       `yaml:"cache,omitempty"`
	RetryMax         int        `yaml:"retry_max,omitempty"`
	RetryDelayMS     int64      `yaml:"retry_delay_ms,omitempty"`
	RetryBackoff     bool       `yaml:"retry_backoff,omitempty"`
	AllowFailure     bool       `yaml:"allow_failure,omitempty"`
	MaxConcurrent    int        `yaml:"max_concurrent,omitempty"`
	Toolchains       []yamlTool `yaml:"toolchains,omitempty"`
}

type yamlRemoteCache struct {
	Endpoint string `yaml:"endpoint"`
	Bucket   string `yaml:"bucket"`
}

type yamlRoot struct {
	Tasks       map[string]yamlTask `yaml:"tasks"`
	RemoteCache *yamlRemoteCache    `yaml:"remote_cache,omitempty"`
	Toolchains  []yamlTool          `yaml:"toolchains,omitempty"`
}

// Load reads and validates the YAML config file at path.
func Load(path string) (task.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return task.Config{}, &LoadError{Path: path, Err: err}
	}
	return Parse(data)
}

// Parse validates and converts raw YAML bytes into a task.Config.
func Parse(data []byte) (task.Config, error) {
	var root yamlRoot
	if err := yaml.Unmarshal(data, &root); err != nil {
		return task.Config{}, &LoadError{Err: err}
	}

	cfg := task.Config{Tasks: make(map[string]task.Task, len(root.Tasks))}
	for name, yt := range root.Tasks {
		if name == "" {
			return task.Config{}, &ValidationError{Reason: "task name must not be empty"}
		}
		if yt.Command == "" {
			return task.Config{}, &ValidationError{Reason: fmt.Sprintf("task %q: command must not be empty", name)}
		}
		env := make([]task.EnvVar, 0, len(yt.Env))
		for _, e := range yt.Env {
			env = append(env, task.EnvVar{Key: e.Key, Value: e.Value})
		}
		tools := make([]task.ToolSpec, 0, len(yt.Toolchains))
		for _, tc := range yt.Toolchains {
			if tc.Kind == "" {
				return task.Config{}, &ValidationError{Reason: fmt.Sprintf("task %q: toolchain kind must not be empty", name)}
			}
			tools = append(tools, task.ToolSpec{Kind: tc.Kind, Version: tc.Version})
		}
		cfg.Tasks[name] = task.Task{
			Name:             name,
			Command:          yt.Command,
			WorkDir:          yt.WorkDir,
			Env:              env,
			DepsParallel:     yt.DepsParallel,
			DepsSerial:       yt.DepsSerial,
			Condition:        yt.Condition,
			TimeoutMS:        yt.TimeoutMS,
			MemoryLimitBytes: yt.MemoryLimitBytes,
			CPULimitCores:    yt.CPULimitCores,
			Cache:            yt.Cache,
			RetryMax:         yt.RetryMax,
			RetryDelayMS:     yt.RetryDelayMS,
			RetryBackoff:     yt.RetryBackoff,
			AllowFailure:     yt.AllowFailure,
			MaxConcurrent:    yt.MaxConcurrent,
			Toolchains:       tools,
		}
	}

	if root.RemoteCache != nil {
		cfg.RemoteCache = &task.RemoteCacheDescriptor{
			Endpoint: root.RemoteCache.Endpoint,
			Bucket:   root.RemoteCache.Bucket,
		}
	}
	for _, tc := range root.Toolchains {
		cfg.Toolchains = append(cfg.Toolchains, task.ToolSpec{Kind: tc.Kind, Version: tc.Version})
	}

	return cfg, nil
}
