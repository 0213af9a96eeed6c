// Package controller drives a run: it reaps stray processes, normalizes
// the targets and runs each task to completion, one at a time.
package controller

import (
	"context"
	"log/slog"
	"time"

	"github.com/AndreyAkinshin/crucible/internal/config"
	"github.com/AndreyAkinshin/crucible/internal/errors"
	"github.com/AndreyAkinshin/crucible/internal/logging"
	"github.com/AndreyAkinshin/crucible/internal/model"
	"github.com/AndreyAkinshin/crucible/internal/output"
	"github.com/AndreyAkinshin/crucible/internal/proc"
	"github.com/AndreyAkinshin/crucible/internal/report"
	"github.com/AndreyAkinshin/crucible/internal/runner"
	"github.com/AndreyAkinshin/crucible/internal/target"
	"github.com/AndreyAkinshin/crucible/internal/watchdog"
)

// Controller runs the configured tasks sequentially.
// Config and Launcher are required; the other fields have defaults.
type Controller struct {
	Config     *config.Config
	Provider   proc.Provider
	Launcher   runner.Launcher
	Watchdog   *watchdog.Watchdog
	Aggregator *report.Aggregator
	Out        *output.Writer
	Logger     *slog.Logger

	// Timeout overrides Config.Timeout() when positive.
	Timeout time.Duration

	// OnStateChange is called after every state transition.
	OnStateChange func(from, to State)

	state State
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// Run executes the run and returns the process exit code: 0 when every
// attempted task passed, 1 otherwise. A configuration problem (no targets
// after normalization) returns the config exit code and an error.
//
// Cancelling ctx kills the running task's process tree, records it as
// interrupted and skips the rest of the queue.
func (c *Controller) Run(ctx context.Context) (int, error) {
	c.init()

	c.transition(StateReaping)
	c.reap()

	c.transition(StateNormalizing)
	tasks := target.Build(c.Config.Targets, c.Config.CheckOnly)
	if len(tasks) == 0 {
		return errors.ExitConfigError, errors.Config("no targets to run: the target list is empty after normalization")
	}
	c.Logger.Debug("tasks_normalized", "count", len(tasks))

	for i, task := range tasks {
		if ctx.Err() != nil {
			c.Logger.Info("queue_stopped", "reason", "interrupted", "skipped", len(tasks)-i)
			break
		}

		c.transition(StateReaping)
		c.reap()

		c.transition(StateRunningTask)
		result, interrupted := c.runTask(ctx, task)
		c.transition(terminalState(result))

		if interrupted {
			c.Logger.Info("queue_stopped", "reason", "interrupted", "skipped", len(tasks)-i-1)
			break
		}
		if !result.Passed() && c.Config.FailFast {
			c.Logger.Info("queue_stopped", "reason", "fail_fast", "task", task.Name, "skipped", len(tasks)-i-1)
			break
		}
	}

	c.transition(StateReporting)
	c.Aggregator.Render(c.Out)
	c.writeArtifacts()

	c.transition(StateDone)
	return c.Aggregator.ExitCode(), nil
}

func (c *Controller) init() {
	if c.Logger == nil {
		c.Logger = logging.Discard()
	}
	if c.Out == nil {
		c.Out = output.New()
	}
	if c.Aggregator == nil {
		c.Aggregator = report.New()
	}
	if c.Watchdog == nil {
		c.Watchdog = &watchdog.Watchdog{Provider: c.Provider, Logger: c.Logger}
	}
	c.state = StateIdle
}

func (c *Controller) transition(to State) {
	from := c.state
	c.state = to
	if c.OnStateChange != nil {
		c.OnStateChange(from, to)
	}
}

func (c *Controller) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return c.Config.Timeout()
}

func (c *Controller) reap() {
	if c.Provider == nil || !c.Config.ReapEnabled() {
		return
	}
	r := &proc.Reaper{Provider: c.Provider, Names: c.Config.ReapNames(), Logger: c.Logger}
	r.Reap()
}

// runTask starts one task and waits for it under the watchdog. The elapsed
// time is measured from before the spawn, so a timed-out task never reports
// less than the timeout.
func (c *Controller) runTask(ctx context.Context, task model.TaskSpec) (model.RunResult, bool) {
	c.Out.TaskStart(task.Name, task.Mode.String())
	start := time.Now()

	var result model.RunResult
	interrupted := false

	p, err := c.Launcher.Start(ctx, task)
	switch {
	case err != nil && ctx.Err() != nil:
		result = c.Aggregator.RecordInterrupted(task, time.Since(start))
		interrupted = true
	case errors.IsSpawn(err):
		c.Logger.Warn("spawn_failed", "task", task.Name, "error", err)
		c.Out.ErrorPrefix("%v", err)
		result = c.Aggregator.RecordSpawnFailure(task, time.Since(start))
	case err != nil:
		c.Logger.Warn("start_failed", "task", task.Name, "error", err)
		c.Out.ErrorPrefix("%v", err)
		result = c.Aggregator.Record(task, report.ExitUnknown, false, false, time.Since(start))
	default:
		c.Logger.Debug("task_started", "task", task.Name, "mode", task.Mode.String(), "pid", p.PID())
		outcome := c.Watchdog.Await(ctx, p, c.timeout())
		elapsed := time.Since(start)
		if d, ok := p.(runner.Drainer); ok {
			d.Drain()
		}
		if outcome.Interrupted {
			result = c.Aggregator.RecordInterrupted(task, elapsed)
			interrupted = true
		} else {
			result = report.Classify(task, outcome.ExitCode, outcome.Exited, outcome.TimedOut, elapsed)
			if tc, ok := p.(runner.TestCounter); ok {
				if counts, found := tc.Tests(); found {
					result.Tests = &counts
				}
			}
			c.Aggregator.Add(result)
		}
	}

	c.Logger.Debug("task_finished", "task", task.Name, "status", result.StatusLabel(), "seconds", result.Seconds())
	c.Out.TaskDone(task.Name, result.StatusLabel(), result.Seconds(), result.Passed())
	if result.Tests != nil {
		c.Out.Hint("  tests: %s", result.Tests)
	}
	return result, interrupted
}

func terminalState(r model.RunResult) State {
	switch r.Status {
	case model.StatusPass:
		return StatePassed
	case model.StatusTimeout:
		return StateTimedOut
	default:
		return StateFailed
	}
}

// writeArtifacts writes the optional JSON report and metrics textfile.
// Failures are reported but do not change the run's exit code.
func (c *Controller) writeArtifacts() {
	if path := c.Config.Report; path != "" {
		if err := c.Aggregator.WriteJSON(path); err != nil {
			c.Logger.Warn("report_write_failed", "path", path, "error", err)
			c.Out.Warning("could not write report: %v", err)
		}
	}
	if path := c.Config.MetricsFile; path != "" {
		if err := c.Aggregator.WriteMetrics(path); err != nil {
			c.Logger.Warn("metrics_write_failed", "path", path, "error", err)
			c.Out.Warning("could not write metrics: %v", err)
		}
	}
}
