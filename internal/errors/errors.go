// Package errors classifies the errors that end a crucible invocation and
// maps them to process exit codes.
//
// Task outcomes (fail, timeout) are results, not errors: they never pass
// through this package.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Process exit codes.
const (
	ExitSuccess          = 0 // Every attempted task passed
	ExitRuntimeError     = 1 // A task failed, timed out, or the run was cut short
	ExitConfigError      = 2 // Invalid flags or config file
	ExitEnvironmentError = 3 // Host cannot support the run (no process table, etc.)
)

// ErrorKind tells what went wrong.
type ErrorKind int

const (
	KindRuntime     ErrorKind = iota
	KindConfig                // flags, config file, empty target list
	KindEnvironment           // the host is missing something crucible needs
	KindSpawn                 // a task's process could not be started
)

// CrucibleError carries an ErrorKind and, for task-level errors, the task
// and command line involved.
type CrucibleError struct {
	Kind    ErrorKind
	Message string
	Task    string
	Command string
	Cause   error
}

func (e *CrucibleError) Error() string {
	switch {
	case e.Task != "" && e.Command != "":
		return fmt.Sprintf("[%s] %s: %s", e.Task, e.Command, e.Message)
	case e.Task != "":
		return fmt.Sprintf("[%s] %s", e.Task, e.Message)
	default:
		return e.Message
	}
}

func (e *CrucibleError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the process exit code for the error's kind.
func (e *CrucibleError) ExitCode() int {
	switch e.Kind {
	case KindConfig:
		return ExitConfigError
	case KindEnvironment:
		return ExitEnvironmentError
	default:
		return ExitRuntimeError
	}
}

// Config returns a configuration error.
func Config(message string) *CrucibleError {
	return &CrucibleError{Kind: KindConfig, Message: message}
}

// Configf is Config with formatting.
func Configf(format string, args ...any) *CrucibleError {
	return Config(fmt.Sprintf(format, args...))
}

// Environment returns an error for a host that cannot support the run.
func Environment(message string, cause error) *CrucibleError {
	if cause != nil {
		message = fmt.Sprintf("%s: %v", message, cause)
	}
	return &CrucibleError{Kind: KindEnvironment, Message: message, Cause: cause}
}

// Wrap returns a runtime error with cause attached.
func Wrap(err error, message string) *CrucibleError {
	return &CrucibleError{Kind: KindRuntime, Message: fmt.Sprintf("%s: %v", message, err), Cause: err}
}

// Spawn returns the error for a task whose process could not be started.
func Spawn(task, command string, cause error) *CrucibleError {
	msg := "failed to start"
	if cause != nil {
		msg = fmt.Sprintf("failed to start: %v", cause)
	}
	return &CrucibleError{Kind: KindSpawn, Task: task, Command: command, Message: msg, Cause: cause}
}

// IsSpawn reports whether err is or wraps a spawn failure.
func IsSpawn(err error) bool {
	var ce *CrucibleError
	return stderrors.As(err, &ce) && ce.Kind == KindSpawn
}

// GetExitCode returns the exit code for an error that ended the invocation.
// Errors from outside this package come from argument parsing and count as
// configuration errors.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ce *CrucibleError
	if stderrors.As(err, &ce) {
		return ce.ExitCode()
	}
	return ExitConfigError
}
