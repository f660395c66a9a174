// Package errors provides centralized error definitions and error handling
// utilities for the atelier codebase. It defines the error taxonomy used by
// the dispatcher: every rejected action and failed effect maps to one of the
// kinds below, each carrying a human-readable message plus a machine code.
//
// # Error Types
//
//   - ValidationError: the action envelope or payload is malformed (unknown
//     action type, missing field, wrong shape). The state is untouched.
//   - InvariantError: the action was well-formed but would violate a state
//     invariant (index out of range, duplicate id, illegal state-machine
//     transition, task already running, mutation of a built-in). The state
//     is untouched.
//   - ResourceError: an effect touching the outside world failed (spawn,
//     file read, git). Carries a stable machine Code.
//   - CanceledError: an in-flight operation was canceled. This is a normal
//     terminal outcome, not a failure.
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewValidationError("message text is required").WithField("text")
//	err := errors.NewInvariantError(errors.CodeIndexOutOfRange, "no project at index 3")
//	err := errors.NewResourceError(errors.CodeFileNotFound, "read file", cause).WithPath(p)
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrTaskAlreadyRunning) { ... }
//
//	var inv *errors.InvariantError
//	if errors.As(err, &inv) { reply(inv.Code, inv.Error()) }
//
//	if errors.IsRejection(err) { ... } // state guaranteed unchanged
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Code is a stable machine-readable identifier carried alongside the human
// message. Codes cross the IPC boundary unchanged, so renderers can branch
// on them without parsing text.
type Code string

// Invariant codes.
const (
	CodeIndexOutOfRange    Code = "INDEX_OUT_OF_RANGE"
	CodeDuplicateID        Code = "DUPLICATE_ID"
	CodeInvalidTransition  Code = "INVALID_TRANSITION"
	CodeTaskAlreadyRunning Code = "TASK_ALREADY_RUNNING"
	CodeBuiltinImmutable   Code = "BUILTIN_IMMUTABLE"
	CodeNotFound           Code = "NOT_FOUND"
	CodeNoActiveProject    Code = "NO_ACTIVE_PROJECT"
)

// Validation codes.
const (
	CodeUnknownAction  Code = "UNKNOWN_ACTION"
	CodeInvalidPayload Code = "INVALID_PAYLOAD"
)

// Resource codes.
const (
	CodeFileNotFound      Code = "FILE_NOT_FOUND"
	CodePermissionDenied  Code = "PERMISSION_DENIED"
	CodeSecurityViolation Code = "SECURITY_VIOLATION"
	CodeFileTooLarge      Code = "FILE_TOO_LARGE"
	CodeNotUTF8           Code = "NOT_UTF8"
	CodeSpawnFailed       Code = "SPAWN_FAILED"
	CodeGitFailed         Code = "GIT_FAILED"
	CodeIOFailed          Code = "IO_FAILED"
)

// CodeCanceled is the single cancellation code.
const CodeCanceled Code = "CANCELED"

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Dispatch-related sentinel errors
var (
	// ErrUnknownAction indicates the action type is not in the catalogue.
	ErrUnknownAction = New("unknown action type")
	// ErrStoreClosed indicates a dispatch after the store shut down.
	ErrStoreClosed = New("store is closed")
	// ErrTaskAlreadyRunning indicates a run request for a task that is
	// already running.
	ErrTaskAlreadyRunning = New("task already running")
	// ErrIndexOutOfRange indicates an index-based selection outside the
	// valid range.
	ErrIndexOutOfRange = New("index out of range")
	// ErrBuiltinImmutable indicates an attempt to modify or delete a
	// built-in profile or preset.
	ErrBuiltinImmutable = New("built-in entries cannot be modified")
)

// Process-related sentinel errors
var (
	// ErrProcessNotFound indicates that a process handle could not be found.
	ErrProcessNotFound = New("process not found")
	// ErrProcessFinished indicates an operation on an already-completed process.
	ErrProcessFinished = New("process already finished")
)

// General sentinel errors
var (
	// ErrCanceled indicates that an operation was canceled.
	ErrCanceled = New("operation canceled")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// CoreError is the base interface for all atelier errors. It extends the
// standard error interface with the machine code and rejection semantics.
type CoreError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// ErrorCode returns the stable machine code for this error.
	ErrorCode() Code

	// IsRejection reports whether the error guarantees the state tree was
	// left untouched by the dispatch that produced it.
	IsRejection() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message   string
	cause     error
	code      Code
	rejection bool
}

func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *baseError) Unwrap() error { return e.cause }

func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

func (e *baseError) ErrorCode() Code { return e.code }

func (e *baseError) IsRejection() bool { return e.rejection }

// -----------------------------------------------------------------------------
// Taxonomy Errors
// -----------------------------------------------------------------------------

// ValidationError represents a malformed action envelope or payload.
//
// Example:
//
//	err := errors.NewValidationError("project path is required")
//	err = err.WithField("path").WithActionType("OpenProject")
type ValidationError struct {
	baseError
	ActionType string
	Field      string
	Value      any
}

// NewValidationError creates a new ValidationError with CodeInvalidPayload.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:   message,
			code:      CodeInvalidPayload,
			rejection: true,
		},
	}
}

// NewUnknownActionError creates a ValidationError for an action type that is
// not in the catalogue.
func NewUnknownActionError(actionType string) *ValidationError {
	e := &ValidationError{
		baseError: baseError{
			message:   fmt.Sprintf("unknown action type %q", actionType),
			cause:     ErrUnknownAction,
			code:      CodeUnknownAction,
			rejection: true,
		},
	}
	e.ActionType = actionType
	return e
}

// WithActionType adds the action type to the error context.
func (e *ValidationError) WithActionType(t string) *ValidationError {
	e.ActionType = t
	return e
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.ActionType != "" {
		parts = append(parts, fmt.Sprintf("action=%s", e.ActionType))
	}
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidInput) {
		return true
	}
	return e.baseError.Is(target)
}

// InvariantError represents a well-formed action that would violate a state
// invariant. Dispatching it leaves the state tree untouched.
//
// Example:
//
//	err := errors.NewInvariantError(errors.CodeInvalidTransition,
//	    "change cannot move from done to implementing")
//	err = err.WithEntity("change", changeID)
type InvariantError struct {
	baseError
	EntityKind string
	EntityID   string
}

// NewInvariantError creates a new InvariantError.
func NewInvariantError(code Code, message string) *InvariantError {
	var cause error
	switch code {
	case CodeIndexOutOfRange:
		cause = ErrIndexOutOfRange
	case CodeTaskAlreadyRunning:
		cause = ErrTaskAlreadyRunning
	case CodeBuiltinImmutable:
		cause = ErrBuiltinImmutable
	}
	return &InvariantError{
		baseError: baseError{
			message:   message,
			cause:     cause,
			code:      code,
			rejection: true,
		},
	}
}

// WithEntity adds the offending entity to the error context.
func (e *InvariantError) WithEntity(kind, id string) *InvariantError {
	e.EntityKind = kind
	e.EntityID = id
	return e
}

// WithCause adds a cause to the error.
func (e *InvariantError) WithCause(cause error) *InvariantError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *InvariantError) Error() string {
	prefix := "invariant error"
	if e.EntityKind != "" {
		if e.EntityID != "" {
			prefix = fmt.Sprintf("invariant error [%s=%s]", e.EntityKind, e.EntityID)
		} else {
			prefix = fmt.Sprintf("invariant error [%s]", e.EntityKind)
		}
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *InvariantError) Is(target error) bool {
	if _, ok := target.(*InvariantError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ResourceError represents a failed interaction with the outside world:
// spawning a process, reading a file, running git. The state may carry the
// failure (task marked failed, chat error set) but is never corrupted.
//
// Example:
//
//	err := errors.NewResourceError(errors.CodeSpawnFailed, "start task runner", cause)
//	err = err.WithCommand("just build").WithPath("/work/app")
type ResourceError struct {
	baseError
	Path    string
	Command string
	Output  string
}

// NewResourceError creates a new ResourceError.
func NewResourceError(code Code, message string, cause error) *ResourceError {
	return &ResourceError{
		baseError: baseError{
			message: message,
			cause:   cause,
			code:    code,
		},
	}
}

// WithPath adds a filesystem path to the error context.
func (e *ResourceError) WithPath(path string) *ResourceError {
	e.Path = path
	return e
}

// WithCommand adds the external command to the error context.
func (e *ResourceError) WithCommand(cmd string) *ResourceError {
	e.Command = cmd
	return e
}

// WithOutput adds captured process output to the error context.
func (e *ResourceError) WithOutput(output string) *ResourceError {
	e.Output = output
	return e
}

// Error returns the formatted error message.
func (e *ResourceError) Error() string {
	var parts []string
	if e.Path != "" {
		parts = append(parts, fmt.Sprintf("path=%s", e.Path))
	}
	if e.Command != "" {
		parts = append(parts, fmt.Sprintf("command=%s", e.Command))
	}

	prefix := fmt.Sprintf("resource error [%s]", e.code)
	if len(parts) > 0 {
		prefix = fmt.Sprintf("resource error [%s, %s]", e.code, strings.Join(parts, ", "))
	}

	msg := e.message
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	if e.Output != "" {
		msg = fmt.Sprintf("%s\noutput: %s", msg, e.Output)
	}
	return fmt.Sprintf("%s: %s", prefix, msg)
}

// Is checks if this error matches the target.
func (e *ResourceError) Is(target error) bool {
	if _, ok := target.(*ResourceError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// CanceledError represents an operation that was canceled before completion.
// Cancellation is a normal terminal outcome: the entity involved transitions
// to its canceled status rather than a failure status.
type CanceledError struct {
	baseError
	Operation string
}

// NewCanceledError creates a new CanceledError.
func NewCanceledError(operation string) *CanceledError {
	return &CanceledError{
		baseError: baseError{
			message: fmt.Sprintf("%s canceled", operation),
			cause:   ErrCanceled,
			code:    CodeCanceled,
		},
		Operation: operation,
	}
}

// Is checks if this error matches the target.
func (e *CanceledError) Is(target error) bool {
	if _, ok := target.(*CanceledError); ok {
		return true
	}
	if errors.Is(target, ErrCanceled) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Classification Helpers
// -----------------------------------------------------------------------------

// IsRejection returns true if the error guarantees the dispatch that produced
// it left the state tree untouched. Validation and invariant failures are
// rejections; resource failures and cancellations are not, because the store
// records them in the state.
func IsRejection(err error) bool {
	if err == nil {
		return false
	}
	var ce CoreError
	if As(err, &ce) {
		return ce.IsRejection()
	}
	return false
}

// IsCanceled returns true if the error represents a cancellation, either an
// atelier CanceledError or something wrapping ErrCanceled.
func IsCanceled(err error) bool {
	if err == nil {
		return false
	}
	return Is(err, ErrCanceled)
}

// CodeOf returns the machine code of the error, or empty for errors outside
// the taxonomy.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var ce CoreError
	if As(err, &ce) {
		return ce.ErrorCode()
	}
	return ""
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
//
// Example:
//
//	err := errors.Wrap(baseErr, "load recent projects")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
//
// Example:
//
//	err := errors.Wrapf(baseErr, "load project %s", id)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
