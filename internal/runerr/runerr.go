// Package runerr defines the structured error kinds produced by the engine.
package runerr

import (
	"errors"
	"fmt"
)

// Kind distinguishes the error categories described in the spec's error
// handling design: validation errors that short-circuit before any child is
// spawned, and task failures that carry a result snapshot.
type Kind int

const (
	// KindPatternNoMatch means pattern expansion produced zero tasks.
	KindPatternNoMatch Kind = iota
	// KindInvalidOption means a flag was malformed or inapplicable to the run mode.
	KindInvalidOption
	// KindInvalidPlaceholder means a pattern contained unknown {...} syntax.
	KindInvalidPlaceholder
	// KindManifestMissing means no package manifest was found in the working directory.
	KindManifestMissing
)

// ValidationError is a pre-flight error: it is always produced before any
// child process is spawned.
type ValidationError struct {
	Kind    Kind
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NewPatternNoMatch builds the error returned when pattern expansion yields
// an empty task list. The message always contains the substring "not found"
// per the manifest/pattern contract.
func NewPatternNoMatch(pattern string) *ValidationError {
	return &ValidationError{
		Kind:    KindPatternNoMatch,
		Message: fmt.Sprintf("Task not found: %q did not match any script (not found)", pattern),
	}
}

// NewInvalidOption builds an InvalidOption error for a malformed or
// inapplicable flag. flag should include the leading dashes, e.g. "--retry".
func NewInvalidOption(flag, reason string) *ValidationError {
	msg := fmt.Sprintf("Invalid Option: %s", flag)
	if reason != "" {
		msg = fmt.Sprintf("%s (%s)", msg, reason)
	}
	return &ValidationError{Kind: KindInvalidOption, Message: msg}
}

// NewInvalidOptionField builds an "Invalid options.<name>" shaped error, used
// for config-object style validation (e.g. race without parallel).
func NewInvalidOptionField(name, reason string) *ValidationError {
	msg := fmt.Sprintf("Invalid options.%s", name)
	if reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, reason)
	}
	return &ValidationError{Kind: KindInvalidOption, Message: msg}
}

// NewInvalidPlaceholder builds an error for bad {...} syntax in a pattern.
func NewInvalidPlaceholder(token string) *ValidationError {
	return &ValidationError{
		Kind:    KindInvalidPlaceholder,
		Message: fmt.Sprintf("Invalid Placeholder: %q", token),
	}
}

// NewManifestMissing builds the error surfaced when no manifest is found in
// the current working directory.
func NewManifestMissing(dir string) *ValidationError {
	return &ValidationError{
		Kind:    KindManifestMissing,
		Message: fmt.Sprintf("No package.json found in the current directory (%s)", dir),
	}
}

// TaskResult is the minimal shape runerr needs from a completed task, kept
// here (rather than importing the task package) so that task, group and
// pipeline can all depend on runerr without a cycle.
type TaskResult struct {
	Name       string
	Code       int
	CodeIsSet  bool
	Retries    int
	DurationMs int64
}

// TaskFailure is returned once a group or pipeline has finished running every
// task it intended to run and at least one task ended in definitive failure.
// It carries the full, ordered result snapshot.
type TaskFailure struct {
	Results []TaskResult
	first   error
}

// NewTaskFailure builds a TaskFailure carrying results and the first
// definitive failure's underlying cause (may be nil if the cause was simply
// a non-zero exit code with no separate error value).
func NewTaskFailure(results []TaskResult, cause error) *TaskFailure {
	return &TaskFailure{Results: results, first: cause}
}

func (e *TaskFailure) Error() string {
	failed := 0
	for _, r := range e.Results {
		if r.CodeIsSet && r.Code != 0 {
			failed++
		}
	}
	return fmt.Sprintf("%d of %d task(s) failed", failed, len(e.Results))
}

// Unwrap exposes the first definitive failure's cause, if any, for errors.Is/As.
func (e *TaskFailure) Unwrap() error { return e.first }

// AsTaskFailure is a convenience wrapper around errors.As.
func AsTaskFailure(err error) (*TaskFailure, bool) {
	var tf *TaskFailure
	if errors.As(err, &tf) {
		return tf, true
	}
	return nil, false
}

// AsValidationError is a convenience wrapper around errors.As.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
