package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/AndreyAkinshin/crucible/internal/model"
)

const metricsNamespace = "crucible"

// Registry builds a Prometheus registry holding the run's metrics. The
// index label keeps repeated runs of the same task apart.
func (a *Aggregator) Registry() (*prometheus.Registry, error) {
	duration := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "task_duration_seconds",
		Help:      "Wall-clock duration of each attempted task in seconds.",
	}, []string{"index", "task", "mode", "status"})

	passed := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "task_passed",
		Help:      "Whether each attempted task passed (1) or not (0).",
	}, []string{"index", "task", "mode"})

	total := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "tasks_total",
		Help:      "Number of attempted tasks by status.",
	}, []string{"status"})

	tests := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "task_tests",
		Help:      "Test results reported in each task's output, by result.",
	}, []string{"index", "task", "result"})

	exitCode := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "run_exit_code",
		Help:      "Exit code of the run (0 when every task passed).",
	})

	registry := prometheus.NewRegistry()
	for _, c := range []prometheus.Collector{duration, passed, total, tests, exitCode} {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}

	for _, s := range []model.Status{model.StatusPass, model.StatusFail, model.StatusTimeout} {
		total.WithLabelValues(s.String())
	}
	for i, r := range a.results {
		idx := strconv.Itoa(i)
		mode := r.Task.Mode.String()
		duration.WithLabelValues(idx, r.Task.Name, mode, r.Status.String()).Set(r.Seconds())
		value := 0.0
		if r.Passed() {
			value = 1
		}
		passed.WithLabelValues(idx, r.Task.Name, mode).Set(value)
		total.WithLabelValues(r.Status.String()).Inc()
		if r.Tests != nil {
			tests.WithLabelValues(idx, r.Task.Name, "passed").Set(float64(r.Tests.Passed))
			tests.WithLabelValues(idx, r.Task.Name, "failed").Set(float64(r.Tests.Failed))
			tests.WithLabelValues(idx, r.Task.Name, "ignored").Set(float64(r.Tests.Ignored))
		}
	}
	exitCode.Set(float64(a.ExitCode()))
	return registry, nil
}

// EncodeMetrics writes the run's metrics in the Prometheus text format.
func (a *Aggregator) EncodeMetrics(w io.Writer) error {
	registry, err := a.Registry()
	if err != nil {
		return err
	}
	families, err := registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// WriteMetrics writes a textfile for the node_exporter textfile collector.
func (a *Aggregator) WriteMetrics(path string) error {
	return writeFileAtomic(path, a.EncodeMetrics)
}
