// Package runner starts the external process for a single task.
//
// The runner never waits for or kills what it starts: the returned Process
// is handed to the watchdog, which owns the deadline.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/AndreyAkinshin/crucible/internal/config"
	crucibleerrors "github.com/AndreyAkinshin/crucible/internal/errors"
	"github.com/AndreyAkinshin/crucible/internal/model"
	"github.com/AndreyAkinshin/crucible/internal/proc"
	"github.com/AndreyAkinshin/crucible/internal/testcount"
)

// varPattern matches ${var} references in toolchain arguments.
var varPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// escapePlaceholder temporarily stands in for an escaped $${ so that the
// following name is not interpolated. NUL cannot occur in YAML strings.
const escapePlaceholder = "\x00ESCAPED\x00"

// pipeWaitDelay bounds how long output is still copied after the task
// process exited, while orphaned grandchildren hold its pipes open.
const pipeWaitDelay = 5 * time.Second

// Process is a running task process.
type Process interface {
	// PID returns the operating system process id.
	PID() int
	// Done is closed once the process has exited and been reaped. Output
	// still held open by orphaned descendants does not delay it.
	Done() <-chan struct{}
	// ExitCode returns the exit status. Valid after Done is closed.
	ExitCode() int
	// Err returns a wait error other than a non-zero exit. Valid after Done
	// is closed.
	Err() error
}

// TestCounter is implemented by processes whose output is scanned for test
// results.
type TestCounter interface {
	// Tests returns the counts seen in the output and whether any were.
	Tests() (model.TestCounts, bool)
}

// Drainer is implemented by processes whose output is copied through
// pipes. Drain blocks until the copies finish, at most pipeWaitDelay after
// the process exited.
type Drainer interface {
	Drain()
}

// Launcher starts the process for a task without waiting for it.
type Launcher interface {
	Start(ctx context.Context, task model.TaskSpec) (Process, error)
}

// Runner builds task command lines from the toolchain configuration and
// spawns them.
type Runner struct {
	toolchain config.ToolchainConfig
	outputDir string
	verbose   bool
	env       map[string]string
	logDir    string

	stdout io.Writer
	stderr io.Writer

	mu     sync.Mutex
	logged map[string]bool
}

// New creates a Runner from cfg. Child output is streamed to stdout and
// stderr.
func New(cfg *config.Config, stdout, stderr io.Writer) *Runner {
	tc := cfg.Toolchain
	if tc == nil {
		tc = config.Default().Toolchain
	}
	return &Runner{
		toolchain: *tc,
		outputDir: cfg.OutputDir,
		verbose:   cfg.Verbose,
		env:       cfg.Env,
		logDir:    cfg.LogDir,
		stdout:    stdout,
		stderr:    stderr,
		logged:    make(map[string]bool),
	}
}

// Command returns the argv for task: the base command, the mode arguments,
// the output directory arguments, the quiet flag unless verbose, and for
// verify tasks the arguments that force single-threaded test execution.
func (r *Runner) Command(task model.TaskSpec) []string {
	tc := r.toolchain
	args := []string{tc.Command}
	if task.Mode == model.ModeCheckOnly {
		args = append(args, tc.CheckArgs...)
	} else {
		args = append(args, tc.VerifyArgs...)
	}
	if r.outputDir != "" {
		args = append(args, tc.OutputArgs...)
	}
	if !r.verbose {
		args = append(args, tc.QuietArgs...)
	}
	if task.Mode == model.ModeVerify {
		args = append(args, tc.SerialArgs...)
	}

	vars := map[string]string{
		"task":       task.Name,
		"output_dir": r.outputDir,
	}
	for i, a := range args {
		args[i] = interpolate(a, vars)
	}
	return args
}

// interpolate replaces ${var} with its value. Unknown variables are kept
// as-is and $${var} yields a literal ${var}.
func interpolate(s string, vars map[string]string) string {
	result := strings.ReplaceAll(s, "$${", escapePlaceholder)
	result = varPattern.ReplaceAllStringFunc(result, func(match string) string {
		name := match[2 : len(match)-1]
		if val, ok := vars[name]; ok {
			return val
		}
		return match
	})
	return strings.ReplaceAll(result, escapePlaceholder, "${")
}

// Start spawns the task's process in its own process group and returns
// immediately. A process that cannot be started yields an error for which
// internal/errors.IsSpawn reports true; failing to open the task log or the
// output pipes does not.
func (r *Runner) Start(ctx context.Context, task model.TaskSpec) (Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	argv := r.Command(task)
	cmdline := strings.Join(argv, " ")

	cmd := exec.Command(argv[0], argv[1:]...)
	proc.SetProcessGroup(cmd)
	cmd.Env = r.environ()

	stdout, stderr := r.stdout, r.stderr
	var logFile *os.File
	if r.logDir != "" {
		f, err := r.openLog(task.Name)
		if err != nil {
			return nil, outputError(task.Name, err)
		}
		logFile = f
		stdout = io.MultiWriter(stdout, f)
		stderr = io.MultiWriter(stderr, f)
	}
	var counter *testcount.Counter
	if parser := testcount.ForCommand(r.toolchain.Command); parser != nil && task.Mode == model.ModeVerify {
		counter = testcount.NewCounter(parser)
		stdout = io.MultiWriter(stdout, counter)
	}

	p := &process{
		cmd:     cmd,
		done:    make(chan struct{}),
		drained: make(chan struct{}),
		log:     logFile,
		counter: counter,
	}
	abort := func() {
		p.closeWriters()
		p.closeReaders()
		p.copies.Wait()
		if logFile != nil {
			_ = logFile.Close()
		}
	}

	var err error
	if cmd.Stdout, err = p.pipe(stdout); err == nil {
		cmd.Stderr, err = p.pipe(stderr)
	}
	if err != nil {
		abort()
		return nil, outputError(task.Name, err)
	}
	if err := cmd.Start(); err != nil {
		abort()
		return nil, crucibleerrors.Spawn(task.Name, cmdline, err)
	}
	p.closeWriters()

	go p.wait()
	return p, nil
}

// outputError reports a failure to set up a task's output before its
// process was started. It is not a spawn failure.
func outputError(task string, err error) error {
	e := crucibleerrors.Wrap(err, "failed to prepare task output")
	e.Task = task
	return e
}

// environ returns the inherited environment followed by the configured
// overrides. Later entries win.
func (r *Runner) environ() []string {
	env := os.Environ()
	keys := make([]string, 0, len(r.env))
	for k := range r.env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+r.env[k])
	}
	return env
}

// openLog opens <log_dir>/<task>.log. The first run of a task in this
// process truncates the file; repeated runs of the same task append.
func (r *Runner) openLog(name string) (*os.File, error) {
	if err := os.MkdirAll(r.logDir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	r.mu.Lock()
	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if !r.logged[name] {
		flags |= os.O_TRUNC
		r.logged[name] = true
	}
	r.mu.Unlock()

	path := filepath.Join(r.logDir, logFileName(name))
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open task log: %w", err)
	}
	return f, nil
}

func logFileName(task string) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, task)
	return safe + ".log"
}

type process struct {
	cmd     *exec.Cmd
	done    chan struct{}
	drained chan struct{}
	log     *os.File
	counter *testcount.Counter

	readers []*os.File
	writers []*os.File
	copies  sync.WaitGroup

	exitCode int
	err      error
}

func (p *process) PID() int              { return p.cmd.Process.Pid }
func (p *process) Done() <-chan struct{} { return p.done }
func (p *process) ExitCode() int         { return p.exitCode }
func (p *process) Err() error            { return p.err }

func (p *process) Drain() {
	<-p.drained
}

func (p *process) Tests() (model.TestCounts, bool) {
	if p.counter == nil {
		return model.TestCounts{}, false
	}
	p.Drain()
	return p.counter.Counts()
}

// pipe returns the writer to hand to the child for w. Files are passed
// through; anything else is fed from an OS pipe by a copy goroutine so that
// Wait returns as soon as the process exits.
func (p *process) pipe(w io.Writer) (io.Writer, error) {
	if w == nil {
		return nil, nil
	}
	if f, ok := w.(*os.File); ok {
		return f, nil
	}
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("create output pipe: %w", err)
	}
	p.readers = append(p.readers, pr)
	p.writers = append(p.writers, pw)
	p.copies.Add(1)
	go func() {
		defer p.copies.Done()
		_, _ = io.Copy(w, pr)
	}()
	return pw, nil
}

// closeWriters drops the parent's copies of the pipe write ends. Once the
// child and its descendants close theirs, the copies see EOF.
func (p *process) closeWriters() {
	for _, f := range p.writers {
		_ = f.Close()
	}
}

func (p *process) closeReaders() {
	for _, f := range p.readers {
		_ = f.Close()
	}
}

func (p *process) wait() {
	p.exitCode, p.err = exitStatus(p.cmd.Wait())
	close(p.done)

	copied := make(chan struct{})
	go func() {
		p.copies.Wait()
		close(copied)
	}()
	select {
	case <-copied:
	case <-time.After(pipeWaitDelay):
		// Orphans still hold the pipes; stop copying their output.
		p.closeReaders()
		<-copied
	}
	p.closeReaders()
	if p.log != nil {
		_ = p.log.Close()
	}
	close(p.drained)
}

// exitStatus converts the result of Wait into an exit code. A process
// killed by a signal reports 128+signal, like a shell does.
func exitStatus(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code, ok := signalExitCode(exitErr); ok {
			return code, nil
		}
		return exitErr.ExitCode(), nil
	}
	return -1, err
}
