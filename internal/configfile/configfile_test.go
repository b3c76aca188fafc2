package configfile

import (
	"errors"
	"testing"
)

func TestParseBasicConfig(t *testing.T) {
	data := []byte(`
tasks:
  base:
    command: "true"
  child:
    command: "echo hi"
    deps: ["base"]
    env:
      - key: FOO
        value: bar
    retry_max: 2
    retry_backoff: true
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cfg.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(cfg.Tasks))
	}
	child := cfg.Tasks["child"]
	if child.Command != "echo hi" || len(child.DepsParallel) != 1 || child.DepsParallel[0] != "base" {
		t.Fatalf("unexpected child task: %+v", child)
	}
	if child.RetryMax != 2 || !child.RetryBackoff {
		t.Fatalf("expected retry settings preserved, got %+v", child)
	}
	if len(child.Env) != 1 || child.Env[0].Key != "FOO" || child.Env[0].Value != "bar" {
		t.Fatalf("unexpected env: %+v", child.Env)
	}
}

func TestParseRemoteCache(t *testing.T) {
	data := []byte(`
tasks:
  x:
    command: "true"
remote_cache:
  endpoint: https://cache.example.com
  bucket: builds
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.RemoteCache == nil || cfg.RemoteCache.Endpoint != "https://cache.example.com" {
		t.Fatalf("unexpected remote cache: %+v", cfg.RemoteCache)
	}
}

func TestParseRejectsEmptyCommand(t *testing.T) {
	data := []byte(`
tasks:
  broken:
    command: ""
`)
	_, err := Parse(data)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("tasks: [this is not a map"))
	if !errors.Is(err, ErrLoad) {
		t.Fatalf("expected ErrLoad, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/taskweaver.yaml")
	if !errors.Is(err, ErrLoad) {
		t.Fatalf("expected ErrLoad, got %v", err)
	}
}
