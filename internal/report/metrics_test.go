package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

func gather(t *testing.T, a *Aggregator) map[string]*dto.MetricFamily {
	t.Helper()
	registry, err := a.Registry()
	if err != nil {
		t.Fatalf("Registry() error = %v", err)
	}
	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, mf := range families {
		byName[mf.GetName()] = mf
	}
	return byName
}

func labels(m *dto.Metric) map[string]string {
	out := make(map[string]string)
	for _, lp := range m.GetLabel() {
		out[lp.GetName()] = lp.GetValue()
	}
	return out
}

func TestAggregator_Registry(t *testing.T) {
	a := New()
	a.Record(verifyA, 0, true, false, 2*time.Second)
	a.Record(verifyA, 1, true, false, 3*time.Second)
	a.Record(checkC, 0, false, true, time.Second)

	families := gather(t, a)

	durations := families["crucible_task_duration_seconds"]
	if durations == nil || len(durations.GetMetric()) != 3 {
		t.Fatalf("task_duration_seconds = %v, want 3 series", durations)
	}
	for _, m := range durations.GetMetric() {
		l := labels(m)
		if l["index"] == "1" {
			if l["task"] != "mod_a" || l["status"] != "fail" || m.GetGauge().GetValue() != 3 {
				t.Errorf("series for index 1 = %v %v", l, m.GetGauge().GetValue())
			}
		}
	}

	totals := map[string]float64{}
	for _, m := range families["crucible_tasks_total"].GetMetric() {
		totals[labels(m)["status"]] = m.GetCounter().GetValue()
	}
	if totals["pass"] != 1 || totals["fail"] != 1 || totals["timeout"] != 1 {
		t.Errorf("tasks_total = %v", totals)
	}

	exit := families["crucible_run_exit_code"].GetMetric()
	if len(exit) != 1 || exit[0].GetGauge().GetValue() != 1 {
		t.Errorf("run_exit_code = %v, want 1", exit)
	}
}

func TestAggregator_Registry_ZeroCountsPresent(t *testing.T) {
	a := New()
	a.Record(verifyA, 0, true, false, time.Second)

	totals := gather(t, a)["crucible_tasks_total"]
	if len(totals.GetMetric()) != 3 {
		t.Errorf("tasks_total has %d series, want one per status", len(totals.GetMetric()))
	}
}

func TestAggregator_EncodeMetrics(t *testing.T) {
	a := New()
	a.Record(verifyA, 0, true, false, 2500*time.Millisecond)

	var buf bytes.Buffer
	if err := a.EncodeMetrics(&buf); err != nil {
		t.Fatalf("EncodeMetrics() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"# TYPE crucible_task_duration_seconds gauge",
		`crucible_task_duration_seconds{index="0",mode="verify",status="pass",task="mod_a"} 2.5`,
		`crucible_task_passed{index="0",mode="verify",task="mod_a"} 1`,
		`crucible_tasks_total{status="pass"} 1`,
		"crucible_run_exit_code 0",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics missing %q:\n%s", want, out)
		}
	}
}

func TestAggregator_WriteMetrics(t *testing.T) {
	a := New()
	a.Record(verifyB, 1, true, false, time.Second)
	path := filepath.Join(t.TempDir(), "crucible.prom")

	if err := a.WriteMetrics(path); err != nil {
		t.Fatalf("WriteMetrics() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(data), "crucible_run_exit_code 1") {
		t.Errorf("metrics file:\n%s", data)
	}
}
