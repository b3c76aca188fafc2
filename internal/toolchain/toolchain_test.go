package toolchain

import (
	"errors"
	"testing"

	"taskweaver/internal/task"
)

func TestBuildToolchainEnvGo(t *testing.T) {
	env, err := BuildToolchainEnv([]task.ToolSpec{{Kind: "go", Version: "1.22"}}, nil)
	if err != nil {
		t.Fatalf("BuildToolchainEnv: %v", err)
	}
	root, ok := task.Lookup(env, "GOROOT")
	if !ok || root != "/opt/go/1.22" {
		t.Fatalf("expected GOROOT=/opt/go/1.22, got %q (ok=%v)", root, ok)
	}
}

func TestBuildToolchainEnvTaskEnvWins(t *testing.T) {
	env, err := BuildToolchainEnv(
		[]task.ToolSpec{{Kind: "go"}},
		[]task.EnvVar{{Key: "GOROOT", Value: "/custom/go"}},
	)
	if err != nil {
		t.Fatalf("BuildToolchainEnv: %v", err)
	}
	root, _ := task.Lookup(env, "GOROOT")
	if root != "/custom/go" {
		t.Fatalf("expected task env to win, got %q", root)
	}
}

func TestBuildToolchainEnvUnknownKind(t *testing.T) {
	_, err := BuildToolchainEnv([]task.ToolSpec{{Kind: "cobol"}}, nil)
	if !errors.Is(err, ErrUnknownToolchainKind) {
		t.Fatalf("expected ErrUnknownToolchainKind, got %v", err)
	}
}

func TestBuildToolchainEnvInvalidVersion(t *testing.T) {
	_, err := BuildToolchainEnv([]task.ToolSpec{{Kind: "go", Version: "not-a-version"}}, nil)
	if !errors.Is(err, ErrInvalidVersionFormat) {
		t.Fatalf("expected ErrInvalidVersionFormat, got %v", err)
	}
}

func TestBuildToolchainEnvMissingKind(t *testing.T) {
	_, err := BuildToolchainEnv([]task.ToolSpec{{Version: "1.0"}}, nil)
	if !errors.Is(err, ErrInvalidToolchainSpec) {
		t.Fatalf("expected ErrInvalidToolchainSpec, got %v", err)
	}
}

func TestKnownKindsSorted(t *testing.T) {
	kinds := KnownKinds()
	for i := 1; i < len(kinds); i++ {
		if kinds[i-1] > kinds[i] {
			t.Fatalf("expected sorted kinds, got %v", kinds)
		}
	}
}
