package assembly

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingParameters matches *MissingParametersError via errors.Is.
	ErrMissingParameters = errors.New("missing parameters")
	// ErrUnknownCoercion matches *UnknownCoercionError via errors.Is.
	ErrUnknownCoercion = errors.New("unknown coercion")
	// ErrUnknownAttribute matches *UnknownAttributeError via errors.Is.
	ErrUnknownAttribute = errors.New("unknown attribute")
	// ErrBuilderSealed is returned by Builder.Set once parameters have been
	// committed to the instance (during after hooks).
	ErrBuilderSealed = errors.New("assembly: builder is sealed")
	// ErrUnknownBuilderMethod is returned by Builder.Call for a method name the
	// schema never declared.
	ErrUnknownBuilderMethod = errors.New("assembly: unknown builder method")
)

// MissingParametersError lists every required parameter that was still unset
// after both input channels were applied, in declaration order.
type MissingParametersError struct {
	Names []string
}

func (e *MissingParametersError) Error() string {
	return fmt.Sprintf("missing parameters: %s", strings.Join(e.Names, ", "))
}

func (e *MissingParametersError) Is(target error) bool { return target == ErrMissingParameters }

// UnknownCoercionError indicates a coercion that is neither a named operation
// the value (or the schema's operation table) supports nor a callable.
type UnknownCoercionError struct {
	Parameter string
	Coercion  string
}

func (e *UnknownCoercionError) Error() string {
	if e.Parameter == "" {
		return fmt.Sprintf("unknown coercion %s", e.Coercion)
	}
	return fmt.Sprintf("unknown coercion %s for parameter %s", e.Coercion, e.Parameter)
}

func (e *UnknownCoercionError) Is(target error) bool { return target == ErrUnknownCoercion }

// UnknownAttributeError indicates Builder access to a name that is neither a
// declared parameter nor one of its aliases.
type UnknownAttributeError struct {
	Name       string
	Suggestion string // closest declared key, if any was close enough
}

func (e *UnknownAttributeError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unknown attribute %q (did you mean %q?)", e.Name, e.Suggestion)
	}
	return fmt.Sprintf("unknown attribute %q", e.Name)
}

func (e *UnknownAttributeError) Is(target error) bool { return target == ErrUnknownAttribute }

// CoercionError wraps a failure returned by a coercion function.
type CoercionError struct {
	Parameter string
	Coercion  string
	Err       error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("coercing parameter %s with %s: %v", e.Parameter, e.Coercion, e.Err)
}

func (e *CoercionError) Unwrap() error { return e.Err }

// Phase names a stage of the construction pipeline.
type Phase string

const (
	PhaseBefore   Phase = "before"
	PhaseDefaults Phase = "defaults"
	PhaseOptions  Phase = "options"
	PhaseCallback Phase = "callback"
	PhaseValidate Phase = "validate"
	PhaseCommit   Phase = "commit"
	PhaseAfter    Phase = "after"
)

// HookError wraps an error returned by a before or after hook.
type HookError struct {
	Phase Phase
	Index int
	Err   error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("%s hook %d: %v", e.Phase, e.Index, e.Err)
}

func (e *HookError) Unwrap() error { return e.Err }

// AssignmentError indicates a resolved value that cannot be stored in the
// instance field bound to its parameter.
type AssignmentError struct {
	Parameter string
	Field     string
	Value     any
	Reason    string
}

func (e *AssignmentError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("cannot assign %T to parameter %s: %s", e.Value, e.Parameter, e.Reason)
	}
	return fmt.Sprintf("cannot assign %T to field %s (parameter %s): %s", e.Value, e.Field, e.Parameter, e.Reason)
}

// DeclarationError describes an invalid declaration. Build joins all of them.
type DeclarationError struct {
	Name   string
	Reason string
}

func (e *DeclarationError) Error() string {
	if e.Name == "" {
		return "invalid declaration: " + e.Reason
	}
	return fmt.Sprintf("invalid declaration of %s: %s", e.Name, e.Reason)
}
