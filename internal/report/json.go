package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/AndreyAkinshin/crucible/internal/model"
)

// jsonReport is the machine-readable form of a run.
type jsonReport struct {
	Results  []jsonResult `json:"results"`
	ExitCode int          `json:"exit_code"`
}

type jsonResult struct {
	Task     string  `json:"task"`
	Mode     string  `json:"mode"`
	Status   string  `json:"status"`
	ExitCode *int       `json:"exit_code,omitempty"`
	Seconds  float64    `json:"seconds"`
	Tests    *jsonTests `json:"tests,omitempty"`
}

type jsonTests struct {
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Ignored int `json:"ignored"`
}

// EncodeJSON writes the report as indented JSON.
func (a *Aggregator) EncodeJSON(w io.Writer) error {
	rep := jsonReport{Results: make([]jsonResult, 0, len(a.results)), ExitCode: a.ExitCode()}
	for _, r := range a.results {
		jr := jsonResult{
			Task:    r.Task.Name,
			Mode:    r.Task.Mode.String(),
			Status:  r.Status.String(),
			Seconds: r.Seconds(),
		}
		if r.Status == model.StatusFail {
			code := r.ExitCode
			jr.ExitCode = &code
		}
		if r.Tests != nil {
			jr.Tests = &jsonTests{Passed: r.Tests.Passed, Failed: r.Tests.Failed, Ignored: r.Tests.Ignored}
		}
		rep.Results = append(rep.Results, jr)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// WriteJSON writes the JSON report to path.
func (a *Aggregator) WriteJSON(path string) error {
	return writeFileAtomic(path, a.EncodeJSON)
}

// writeFileAtomic writes through a temporary file in the same directory
// and renames it into place, so readers never see a partial file.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
