// Package watchdog races a running task process against its deadline.
package watchdog

import (
	"context"
	"log/slog"
	"time"

	"github.com/AndreyAkinshin/crucible/internal/logging"
	"github.com/AndreyAkinshin/crucible/internal/proc"
	"github.com/AndreyAkinshin/crucible/internal/runner"
)

// DefaultGrace is how long Await waits for a killed process to be reaped.
const DefaultGrace = 10 * time.Second

// Outcome is the result of waiting on a process.
// ExitCode is only meaningful when Exited is true.
type Outcome struct {
	ExitCode    int
	Exited      bool
	TimedOut    bool
	Interrupted bool
}

// Watchdog enforces a wall-clock deadline on a task process.
type Watchdog struct {
	Provider proc.Provider
	Logger   *slog.Logger
	// Grace bounds the wait for a killed process to exit. Zero means
	// DefaultGrace.
	Grace time.Duration
}

// Await blocks until p exits, the timeout elapses, or ctx is cancelled,
// whichever happens first. A timeout <= 0 disables the deadline.
//
// On timeout or cancellation the whole process tree is killed before Await
// returns, so the caller has nothing left to clean up.
func (w *Watchdog) Await(ctx context.Context, p runner.Process, timeout time.Duration) Outcome {
	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	select {
	case <-p.Done():
		return w.exited(p)
	case <-deadline:
		// A process that exited as the timer fired still counts as exited.
		select {
		case <-p.Done():
			return w.exited(p)
		default:
		}
		w.logger().Warn("task_timeout", "pid", p.PID(), "timeout", timeout)
		w.reclaim(p)
		return Outcome{TimedOut: true}
	case <-ctx.Done():
		w.logger().Warn("task_interrupted", "pid", p.PID(), "reason", context.Cause(ctx))
		w.reclaim(p)
		return Outcome{Interrupted: true}
	}
}

func (w *Watchdog) exited(p runner.Process) Outcome {
	if err := p.Err(); err != nil {
		w.logger().Warn("task_wait_failed", "pid", p.PID(), "error", err)
	}
	return Outcome{ExitCode: p.ExitCode(), Exited: true}
}

// reclaim kills the process tree and waits up to the grace period for the
// root to be reaped. Kill failures are logged, never returned.
func (w *Watchdog) reclaim(p runner.Process) {
	logger := w.logger()
	if w.Provider != nil {
		if err := w.Provider.KillTree(p.PID()); err != nil {
			logger.Warn("kill_tree_failed", "pid", p.PID(), "error", err)
		}
	}

	grace := w.Grace
	if grace <= 0 {
		grace = DefaultGrace
	}
	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-p.Done():
	case <-timer.C:
		logger.Warn("task_not_reaped", "pid", p.PID(), "grace", grace)
	}
}

func (w *Watchdog) logger() *slog.Logger {
	if w.Logger == nil {
		return logging.Discard()
	}
	return w.Logger
}
