package toolchain

import (
	"errors"
	"fmt"

	"taskweaver/internal/task"
)

// Sentinels named in spec §6's exposed error taxonomy.
var (
	ErrUnknownToolchainKind = errors.New("unknown toolchain kind")
	ErrInvalidToolchainSpec = errors.New("invalid toolchain spec")
	ErrInvalidVersionFormat = errors.New("invalid version format")
)

// UnknownKindError reports a toolchain kind with no registered resolver.
type UnknownKindError struct {
	Kind string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnknownToolchainKind.Error(), e.Kind)
}

func (e *UnknownKindError) Unwrap() error { return ErrUnknownToolchainKind }

// InvalidSpecError reports a toolchain spec missing required fields.
type InvalidSpecError struct {
	Spec task.ToolSpec
}

func (e *InvalidSpecError) Error() string {
	return fmt.Sprintf("%s: %+v", ErrInvalidToolchainSpec.Error(), e.Spec)
}

func (e *InvalidSpecError) Unwrap() error { return ErrInvalidToolchainSpec }

// InvalidVersionError reports a version string outside the accepted grammar.
type InvalidVersionError struct {
	Spec task.ToolSpec
}

func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("%s: %q", ErrInvalidVersionFormat.Error(), e.Spec.Version)
}

func (e *InvalidVersionError) Unwrap() error { return ErrInvalidVersionFormat }
