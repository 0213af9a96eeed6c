// Package crucible provides public constants for tools that wrap the
// crucible CLI, such as CI scripts that branch on its exit status.
package crucible

// Exit codes returned by the crucible CLI.
const (
	// ExitSuccess indicates every attempted task passed.
	ExitSuccess = 0

	// ExitFailure indicates at least one task failed or timed out,
	// or the run was cut short by fail-fast.
	ExitFailure = 1

	// ExitConfigError indicates invalid flags or an invalid config file.
	ExitConfigError = 2

	// ExitEnvError indicates the host environment could not support the run.
	ExitEnvError = 3
)

// Exit codes recorded for tasks that never produced a real exit status.
const (
	// TaskExitSpawnFailure is recorded when the task's process could not be started.
	TaskExitSpawnFailure = 127

	// TaskExitInterrupted is recorded when the run was interrupted mid-task.
	TaskExitInterrupted = 130
)
