// Package toolchain builds the environment-variable contribution of a
// task's declared toolchain requirements (spec §6). Download/installation
// of a toolchain itself is an external collaborator; this package only
// resolves an already-available toolchain into env overrides.
package toolchain

import (
	"fmt"
	"regexp"
	"sort"

	"taskweaver/internal/task"
)

// versionPattern matches the subset of semver this core accepts: an
// optional leading "v", then major[.minor[.patch]] with no prerelease or
// build metadata (those are a config-loader concern, not ours).
var versionPattern = regexp.MustCompile(`^v?\d+(\.\d+){0,2}$`)

// Resolver maps a toolchain kind to the env vars an already-installed copy
// of it contributes (e.g. PATH prepend, a *_HOME variable). Supplied by the
// embedding application; this package ships a registry of well-known kinds
// but lets callers register more.
type Resolver func(version string) ([]task.EnvVar, error)

var registry = map[string]Resolver{
	"go":     goResolver,
	"node":   pathOnlyResolver("NODE_HOME"),
	"python": pathOnlyResolver("PYTHON_HOME"),
}

// Register adds or overrides the resolver for a toolchain kind.
func Register(kind string, r Resolver) {
	registry[kind] = r
}

// BuildToolchainEnv resolves each declared toolchain spec against the
// registry and returns the merged env contribution, last-write-wins in the
// order toolchains were declared, per §6's `build_toolchain_env` contract.
func BuildToolchainEnv(toolchains []task.ToolSpec, taskEnv []task.EnvVar) ([]task.EnvVar, error) {
	var contributed []task.EnvVar
	for _, spec := range toolchains {
		if spec.Kind == "" {
			return nil, &InvalidSpecError{Spec: spec}
		}
		if spec.Version != "" && !versionPattern.MatchString(spec.Version) {
			return nil, &InvalidVersionError{Spec: spec}
		}
		resolve, ok := registry[spec.Kind]
		if !ok {
			return nil, &UnknownKindError{Kind: spec.Kind}
		}
		env, err := resolve(spec.Version)
		if err != nil {
			return nil, err
		}
		contributed = task.MergeEnv(contributed, env)
	}
	return task.MergeEnv(contributed, taskEnv), nil
}

func pathOnlyResolver(homeVar string) Resolver {
	return func(version string) ([]task.EnvVar, error) {
		return []task.EnvVar{{Key: homeVar, Value: fmt.Sprintf("/opt/%s", homeVar)}}, nil
	}
}

func goResolver(version string) ([]task.EnvVar, error) {
	root := "/opt/go"
	if version != "" {
		root = fmt.Sprintf("/opt/go/%s", version)
	}
	return []task.EnvVar{
		{Key: "GOROOT", Value: root},
		{Key: "PATH", Value: root + "/bin"},
	}, nil
}

// KnownKinds returns the sorted list of currently registered toolchain
// kinds, for diagnostics.
func KnownKinds() []string {
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
