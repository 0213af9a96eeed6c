package output

import (
	"bytes"
	"strings"
	"testing"
)

// newTestWriter creates a Writer with captured output for testing.
func newTestWriter() (*Writer, *bytes.Buffer, *bytes.Buffer) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	w := NewWithWriters(stdout, stderr, false)
	return w, stdout, stderr
}

func TestNew(t *testing.T) {
	w := New()
	if w == nil {
		t.Fatal("New() returned nil")
	}
	if w.out == nil {
		t.Error("out writer is nil")
	}
	if w.err == nil {
		t.Error("err writer is nil")
	}
}

func TestWriter_SetQuiet(t *testing.T) {
	w, _, _ := newTestWriter()

	w.SetQuiet(true)
	if !w.quiet {
		t.Error("SetQuiet(true) did not set quiet")
	}

	w.SetQuiet(false)
	if w.quiet {
		t.Error("SetQuiet(false) did not unset quiet")
	}
}

func TestWriter_Println(t *testing.T) {
	w, stdout, _ := newTestWriter()

	w.Println("hello %s", "world")

	if got := stdout.String(); got != "hello world\n" {
		t.Errorf("Println() = %q, want %q", got, "hello world\n")
	}
}

func TestWriter_Warning(t *testing.T) {
	w, stdout, stderr := newTestWriter()

	w.Warning("unknown field %q", "parallel")

	if got := stderr.String(); got != "warning: unknown field \"parallel\"\n" {
		t.Errorf("Warning() = %q", got)
	}
	if stdout.Len() != 0 {
		t.Errorf("Warning() wrote to stdout: %q", stdout.String())
	}
}

func TestWriter_ErrorPrefix(t *testing.T) {
	w, _, stderr := newTestWriter()

	w.ErrorPrefix("no targets given")

	if got := stderr.String(); got != "crucible: no targets given\n" {
		t.Errorf("ErrorPrefix() = %q", got)
	}
}

func TestWriter_TaskStart(t *testing.T) {
	tests := []struct {
		name   string
		quiet  bool
		expect string
	}{
		{"normal", false, "\n─── [hive_core] verify ───\n"},
		{"quiet mode", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, stdout, _ := newTestWriter()
			w.SetQuiet(tt.quiet)

			w.TaskStart("hive_core", "verify")

			if got := stdout.String(); got != tt.expect {
				t.Errorf("TaskStart() = %q, want %q", got, tt.expect)
			}
		})
	}
}

func TestWriter_TaskDone(t *testing.T) {
	tests := []struct {
		name    string
		quiet   bool
		status  string
		seconds float64
		passed  bool
		expect  string
	}{
		{"pass", false, "pass", 2.04, true, "[hive_core] pass in 2.0s\n"},
		{"fail", false, "fail(101)", 3.06, false, "[hive_core] fail(101) in 3.1s\n"},
		{"timeout", false, "timeout", 1.0, false, "[hive_core] timeout in 1.0s\n"},
		{"quiet hides pass", true, "pass", 1, true, ""},
		{"quiet keeps failure", true, "timeout", 1, false, "[hive_core] timeout in 1.0s\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, stdout, _ := newTestWriter()
			w.SetQuiet(tt.quiet)

			w.TaskDone("hive_core", tt.status, tt.seconds, tt.passed)

			if got := stdout.String(); got != tt.expect {
				t.Errorf("TaskDone() = %q, want %q", got, tt.expect)
			}
		})
	}
}

func TestWriter_TaskDone_ColorKeepsText(t *testing.T) {
	w, stdout, _ := newTestWriter()
	w.SetColor(true)

	w.TaskDone("hive_ai", "timeout", 1.25, false)

	if !strings.Contains(stdout.String(), "[hive_ai] timeout in 1.2s") {
		t.Errorf("TaskDone() with color = %q", stdout.String())
	}
}

func TestWriter_Table(t *testing.T) {
	w, stdout, _ := newTestWriter()

	w.Table([]string{"task", "mode"}, [][]string{
		{"hive_core", "verify"},
		{"ui_panels", "check"},
	})

	want := "" +
		"TASK       MODE\n" +
		"---------  ------\n" +
		"hive_core  verify\n" +
		"ui_panels  check\n"
	if got := stdout.String(); got != want {
		t.Errorf("Table() =\n%s\nwant\n%s", got, want)
	}
}

func TestWriter_Table_Empty(t *testing.T) {
	w, stdout, _ := newTestWriter()

	w.Table([]string{"Name", "Value"}, nil)

	if got := stdout.String(); got != "NAME  VALUE\n----  -----\n" {
		t.Errorf("Table() with no rows = %q", got)
	}
}

func TestWriter_Table_RowShorterThanHeaders(t *testing.T) {
	w, stdout, _ := newTestWriter()

	w.Table([]string{"A", "B", "C"}, [][]string{{"1", "2"}})

	if !strings.Contains(stdout.String(), "1  2") {
		t.Errorf("Table() should handle short rows gracefully: %q", stdout.String())
	}
}

func TestWriter_StatusTable_ColorPreservesAlignment(t *testing.T) {
	w, stdout, _ := newTestWriter()
	w.SetColor(true)

	w.StatusTable([]string{"status", "seconds"}, [][]string{
		{"pass", "2.0"},
		{"timeout", "1.0"},
	}, 0)

	lines := strings.Split(strings.TrimRight(stdout.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("StatusTable() printed %d lines, want 4:\n%s", len(lines), stdout.String())
	}
	// "pass" is padded to the width of "timeout" outside any escape sequence.
	if !strings.Contains(lines[2], "pass") || !strings.HasSuffix(lines[2], "     2.0") {
		t.Errorf("row = %q, want padded status column", lines[2])
	}
}

func TestWriter_FinalMessages(t *testing.T) {
	w, stdout, _ := newTestWriter()

	w.FinalSuccess("All %d tasks passed.", 3)
	w.FinalFailure("%d of %d tasks did not pass.", 1, 3)

	want := "\nAll 3 tasks passed.\n\n1 of 3 tasks did not pass.\n"
	if got := stdout.String(); got != want {
		t.Errorf("final messages = %q, want %q", got, want)
	}
}

func TestWriter_Summary(t *testing.T) {
	w, stdout, _ := newTestWriter()

	w.SummaryPassed("Passed", "2")
	w.SummaryFailed("Failed", "1")
	w.SummaryItem("Total", "3")

	want := "  Passed: 2\n  Failed: 1\n  Total: 3\n"
	if got := stdout.String(); got != want {
		t.Errorf("summary = %q, want %q", got, want)
	}
}

func TestWriter_DryRun(t *testing.T) {
	w, stdout, _ := newTestWriter()

	w.DryRunStart()
	w.DryRunEnd()

	out := stdout.String()
	if !strings.Contains(out, "=== DRY RUN ===") || !strings.Contains(out, "=== END DRY RUN ===") {
		t.Errorf("dry run markers missing: %q", out)
	}
}
