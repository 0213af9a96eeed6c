// Package report aggregates task results and renders the final summary.
package report

import (
	"fmt"
	"time"

	"github.com/influxdata/tdigest"

	"github.com/AndreyAkinshin/crucible/internal/model"
	"github.com/AndreyAkinshin/crucible/internal/output"
)

// Exit codes recorded for tasks that never produced one of their own.
const (
	// ExitSpawnFailure is recorded when the task process could not start.
	ExitSpawnFailure = 127
	// ExitInterrupted is recorded when the run was interrupted mid-task.
	ExitInterrupted = 130
	// ExitUnknown is recorded when a process ended without an exit status.
	ExitUnknown = -1
)

// Aggregator collects results in the order tasks were attempted.
type Aggregator struct {
	results []model.RunResult
}

// New creates an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{}
}

// Classify maps a finished task to its result without recording it.
// A timeout always wins over any exit code. Otherwise exit code 0 is a
// pass and anything else a failure. exited reports whether exitCode holds
// a real exit status.
func Classify(task model.TaskSpec, exitCode int, exited, timedOut bool, elapsed time.Duration) model.RunResult {
	r := model.RunResult{Task: task, Elapsed: elapsed}
	switch {
	case timedOut:
		r.Status = model.StatusTimeout
	case !exited:
		r.Status = model.StatusFail
		r.ExitCode = ExitUnknown
	case exitCode == 0:
		r.Status = model.StatusPass
	default:
		r.Status = model.StatusFail
		r.ExitCode = exitCode
	}
	return r
}

// Add appends a result.
func (a *Aggregator) Add(r model.RunResult) {
	a.results = append(a.results, r)
}

// Record classifies a finished task and appends the result.
func (a *Aggregator) Record(task model.TaskSpec, exitCode int, exited, timedOut bool, elapsed time.Duration) model.RunResult {
	r := Classify(task, exitCode, exited, timedOut, elapsed)
	a.Add(r)
	return r
}

// RecordSpawnFailure records a task whose process could not be started.
func (a *Aggregator) RecordSpawnFailure(task model.TaskSpec, elapsed time.Duration) model.RunResult {
	return a.Record(task, ExitSpawnFailure, true, false, elapsed)
}

// RecordInterrupted records a task cut short by an interrupt.
func (a *Aggregator) RecordInterrupted(task model.TaskSpec, elapsed time.Duration) model.RunResult {
	return a.Record(task, ExitInterrupted, true, false, elapsed)
}

// Results returns a copy of the recorded results.
func (a *Aggregator) Results() []model.RunResult {
	return append([]model.RunResult(nil), a.results...)
}

// ExitCode returns 0 if at least one task ran and every task passed,
// 1 otherwise.
func (a *Aggregator) ExitCode() int {
	if len(a.results) == 0 {
		return 1
	}
	for _, r := range a.results {
		if !r.Passed() {
			return 1
		}
	}
	return 0
}

// Counts tallies results by status.
type Counts struct {
	Passed   int
	Failed   int
	TimedOut int
}

// Total returns the number of attempted tasks.
func (c Counts) Total() int {
	return c.Passed + c.Failed + c.TimedOut
}

// Counts tallies the recorded results.
func (a *Aggregator) Counts() Counts {
	var c Counts
	for _, r := range a.results {
		switch r.Status {
		case model.StatusPass:
			c.Passed++
		case model.StatusTimeout:
			c.TimedOut++
		default:
			c.Failed++
		}
	}
	return c
}

// Tests sums the test counts of every result that reported them.
func (a *Aggregator) Tests() (model.TestCounts, bool) {
	var total model.TestCounts
	found := false
	for _, r := range a.results {
		if r.Tests == nil {
			continue
		}
		total.Passed += r.Tests.Passed
		total.Failed += r.Tests.Failed
		total.Ignored += r.Tests.Ignored
		found = true
	}
	return total, found
}

// Durations summarizes task wall-clock times.
type Durations struct {
	P50 time.Duration
	P90 time.Duration
	Max time.Duration
}

// Durations computes the median, 90th percentile and maximum elapsed time.
func (a *Aggregator) Durations() Durations {
	if len(a.results) == 0 {
		return Durations{}
	}
	td := tdigest.NewWithCompression(100)
	var d Durations
	for _, r := range a.results {
		td.Add(r.Seconds(), 1)
		if r.Elapsed > d.Max {
			d.Max = r.Elapsed
		}
	}
	d.P50 = seconds(td.Quantile(0.5))
	d.P90 = seconds(td.Quantile(0.9))
	// The digest interpolates between centroids; never report past the max.
	if d.P50 > d.Max {
		d.P50 = d.Max
	}
	if d.P90 > d.Max {
		d.P90 = d.Max
	}
	return d
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Columns of the results table.
var tableHeaders = []string{"task", "mode", "status", "seconds"}

const statusColumn = 2

// Rows returns the table rows: task, mode, status and elapsed seconds
// with one decimal.
func (a *Aggregator) Rows() [][]string {
	rows := make([][]string, 0, len(a.results))
	for _, r := range a.results {
		rows = append(rows, []string{
			r.Task.Name,
			r.Task.Mode.String(),
			r.StatusLabel(),
			fmt.Sprintf("%.1f", r.Seconds()),
		})
	}
	return rows
}

// Render prints the results table followed by counts and timing.
func (a *Aggregator) Render(w *output.Writer) {
	w.SummaryHeader("Results")
	w.StatusTable(tableHeaders, a.Rows(), statusColumn)

	c := a.Counts()
	w.Println("")
	w.SummaryPassed("Passed", fmt.Sprintf("%d", c.Passed))
	if c.Failed > 0 {
		w.SummaryFailed("Failed", fmt.Sprintf("%d", c.Failed))
	}
	if c.TimedOut > 0 {
		w.SummaryFailed("Timed out", fmt.Sprintf("%d", c.TimedOut))
	}
	if tests, ok := a.Tests(); ok {
		w.SummaryItem("Tests", tests.String())
	}
	if c.Total() > 0 {
		d := a.Durations()
		w.SummaryItem("Duration", fmt.Sprintf("p50 %.1fs, p90 %.1fs, max %.1fs",
			d.P50.Seconds(), d.P90.Seconds(), d.Max.Seconds()))
	}

	switch {
	case c.Total() == 0:
		w.FinalFailure("No tasks were run.")
	case a.ExitCode() == 0:
		w.FinalSuccess("All %d tasks passed.", c.Total())
	default:
		w.FinalFailure("%d of %d tasks did not pass.", c.Failed+c.TimedOut, c.Total())
	}
}
