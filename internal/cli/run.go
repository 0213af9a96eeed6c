package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AndreyAkinshin/crucible/internal/config"
	"github.com/AndreyAkinshin/crucible/internal/controller"
	"github.com/AndreyAkinshin/crucible/internal/errors"
	"github.com/AndreyAkinshin/crucible/internal/logging"
	"github.com/AndreyAkinshin/crucible/internal/report"
	"github.com/AndreyAkinshin/crucible/internal/runner"
	"github.com/AndreyAkinshin/crucible/internal/target"
	"github.com/AndreyAkinshin/crucible/internal/watchdog"
)

// options holds the flags of the root command.
type options struct {
	configPath  string
	targets     []string
	timeout     int
	outputDir   string
	failFast    bool
	verbose     bool
	quiet       bool
	noColor     bool
	report      string
	metricsFile string
	logDir      string
	logLevel    string
	logFormat   string
	noReap      bool
	dryRun      bool
}

func (o *options) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringArrayVarP(&o.targets, "target", "t", nil, "Target to run (repeatable, comma-separated)")
	f.IntVar(&o.timeout, "timeout", config.DefaultTimeoutSeconds, "Per-task timeout in seconds")
	f.StringVarP(&o.outputDir, "output-dir", "o", config.DefaultOutputDir, "Shared build output directory")
	f.BoolVar(&o.failFast, "fail-fast", false, "Stop after the first task that does not pass")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "Do not pass the quiet flag to the toolchain; log at debug level")
	f.BoolVarP(&o.quiet, "quiet", "q", false, "Only print markers for tasks that did not pass")
	f.BoolVar(&o.noColor, "no-color", false, "Disable colored output")
	f.StringVar(&o.report, "report", "", "Write a JSON report to this path")
	f.StringVar(&o.metricsFile, "metrics-file", "", "Write Prometheus textfile metrics to this path")
	f.StringVar(&o.logDir, "log-dir", "", "Also write each task's output to <dir>/<task>.log")
	f.StringVar(&o.logLevel, "log-level", "info", "Diagnostic log level (debug, info, warn, error)")
	f.StringVar(&o.logFormat, "log-format", "text", "Diagnostic log format (text, json)")
	f.BoolVar(&o.noReap, "no-reap", false, "Do not kill stray toolchain processes before tasks")
	f.BoolVar(&o.dryRun, "dry-run", false, "Print the commands that would run and exit")
}

// apply overrides cfg with the flags the user set and the positional
// targets.
func (o *options) apply(cmd *cobra.Command, cfg *config.Config, args []string) {
	f := cmd.Flags()
	if raw := append(append([]string(nil), o.targets...), args...); len(raw) > 0 {
		cfg.Targets = raw
	}
	if f.Changed("timeout") {
		cfg.TimeoutSeconds = o.timeout
	}
	if f.Changed("output-dir") {
		cfg.OutputDir = o.outputDir
	}
	if f.Changed("fail-fast") {
		cfg.FailFast = o.failFast
	}
	if f.Changed("verbose") {
		cfg.Verbose = o.verbose
	}
	if f.Changed("report") {
		cfg.Report = o.report
	}
	if f.Changed("metrics-file") {
		cfg.MetricsFile = o.metricsFile
	}
	if f.Changed("log-dir") {
		cfg.LogDir = o.logDir
	}
	if o.noReap {
		disabled := false
		if cfg.Reap == nil {
			cfg.Reap = &config.ReapConfig{}
		}
		cfg.Reap.Enabled = &disabled
	}
}

// loadConfig resolves the config file and applies the command line on top.
func (a *app) loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	explicit := cmd.Flags().Changed("config")
	cfg, warnings, err := config.Resolve(a.opts.configPath, explicit)
	if err != nil {
		return nil, errors.Config(err.Error())
	}
	for _, w := range warnings {
		a.out.Warning("%s", w)
	}

	a.opts.apply(cmd, cfg, args)
	if err := config.Validate(cfg); err != nil {
		return nil, errors.Config(err.Error())
	}
	if !logging.ValidFormat(a.opts.logFormat) {
		return nil, errors.Configf("invalid log format %q: must be text or json", a.opts.logFormat)
	}
	return cfg, nil
}

func (a *app) runE(cmd *cobra.Command, args []string) error {
	cfg, err := a.loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if a.opts.noColor {
		a.out.SetColor(false)
	}
	a.out.SetQuiet(a.opts.quiet)

	if a.opts.dryRun {
		return a.dryRun(cfg)
	}

	logger := a.newLogger(cfg.Verbose)
	logging.SetDefault(logger)

	provider := a.provider()
	// Tree kills and the reaper both depend on the process table.
	if _, err := provider.ListProcesses(); err != nil {
		return errors.Environment("cannot read the process table", err)
	}
	ctrl := &controller.Controller{
		Config:     cfg,
		Provider:   provider,
		Launcher:   runner.New(cfg, a.out.Out(), a.out.Err()),
		Watchdog:   &watchdog.Watchdog{Provider: provider, Logger: logger},
		Aggregator: report.New(),
		Out:        a.out,
		Logger:     logger,
		OnStateChange: func(from, to controller.State) {
			logger.Debug("state_change", "from", from.String(), "to", to.String())
		},
	}

	code, err := ctrl.Run(cmd.Context())
	if err != nil {
		return err
	}
	a.code = code
	return nil
}

// newLogger builds the diagnostic logger. It writes to stderr unless the
// output writer was redirected.
func (a *app) newLogger(verbose bool) *slog.Logger {
	if w := a.out.Err(); w != os.Stderr {
		level := a.opts.logLevel
		if verbose {
			level = "debug"
		}
		return logging.NewLoggerWithWriter(w, a.opts.logFormat, level)
	}
	return logging.NewLogger(a.opts.logFormat, a.opts.logLevel, verbose)
}

// dryRun prints the normalized tasks and the command each would run.
func (a *app) dryRun(cfg *config.Config) error {
	tasks := target.Build(cfg.Targets, cfg.CheckOnly)
	if len(tasks) == 0 {
		return errors.Config("no targets to run: the target list is empty after normalization")
	}

	r := runner.New(cfg, a.out.Out(), a.out.Err())
	rows := make([][]string, 0, len(tasks))
	for _, task := range tasks {
		rows = append(rows, []string{task.Name, task.Mode.String(), strings.Join(r.Command(task), " ")})
	}

	a.out.DryRunStart()
	a.out.Table([]string{"task", "mode", "command"}, rows)
	a.out.Println("")
	a.out.Println("%s", dryRunSettings(cfg))
	a.out.DryRunEnd()
	a.code = errors.ExitSuccess
	return nil
}

func dryRunSettings(cfg *config.Config) string {
	reap := "off"
	if cfg.ReapEnabled() {
		reap = strings.Join(cfg.ReapNames(), ",")
	}
	return fmt.Sprintf("timeout: %ds per task, fail-fast: %t, reap: %s", cfg.TimeoutSeconds, cfg.FailFast, reap)
}
