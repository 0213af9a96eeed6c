// Package integration runs crucible end to end against real processes.
package integration

import (
	"bytes"
	"context"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/AndreyAkinshin/crucible/internal/config"
	"github.com/AndreyAkinshin/crucible/internal/controller"
	"github.com/AndreyAkinshin/crucible/internal/logging"
	"github.com/AndreyAkinshin/crucible/internal/output"
	"github.com/AndreyAkinshin/crucible/internal/proc"
	"github.com/AndreyAkinshin/crucible/internal/report"
	"github.com/AndreyAkinshin/crucible/internal/runner"
	"github.com/AndreyAkinshin/crucible/internal/watchdog"
)

var (
	fixturesDirOnce sync.Once
	fixturesDirPath string
)

// fixturesDir returns the path to the test fixtures directory.
func fixturesDir() string {
	fixturesDirOnce.Do(func() {
		_, filename, _, _ := runtime.Caller(0)
		fixturesDirPath = filepath.Join(filepath.Dir(filename), "..", "fixtures")
	})
	return fixturesDirPath
}

// testContext returns a context canceled when the test finishes, matching
// testing.T.Context (unavailable before Go 1.24).
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

// loadFixture loads the config of the named fixture.
func loadFixture(t *testing.T, name string) *config.Config {
	t.Helper()
	cfg, _, err := config.LoadAndValidate(filepath.Join(fixturesDir(), name, "crucible.yaml"))
	if err != nil {
		t.Fatalf("failed to load fixture %s: %v", name, err)
	}
	return cfg
}

// syncBuffer is a bytes.Buffer safe for the concurrent writes of a child
// process and the controller.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type runOutput struct {
	code    int
	err     error
	stdout  string
	stderr  string
	results *report.Aggregator
}

// runTargets runs cfg with the given targets through the real process
// provider and launcher.
func runTargets(t *testing.T, ctx context.Context, cfg *config.Config, targets ...string) runOutput {
	t.Helper()
	cfg.Targets = targets

	var stdout, stderr syncBuffer
	out := output.NewWithWriters(&stdout, &stderr, false)
	logger := logging.NewLoggerWithWriter(&stderr, "text", "debug")
	provider := proc.System()
	agg := report.New()

	ctrl := &controller.Controller{
		Config:     cfg,
		Provider:   provider,
		Launcher:   runner.New(cfg, &stdout, &stderr),
		Watchdog:   &watchdog.Watchdog{Provider: provider, Logger: logger},
		Aggregator: agg,
		Out:        out,
		Logger:     logger,
	}
	code, err := ctrl.Run(ctx)
	return runOutput{code: code, err: err, stdout: stdout.String(), stderr: stderr.String(), results: agg}
}
