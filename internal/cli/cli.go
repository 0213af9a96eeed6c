// Package cli implements the crucible command line.
package cli

import (
	"context"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AndreyAkinshin/crucible/internal/errors"
	"github.com/AndreyAkinshin/crucible/internal/output"
	"github.com/AndreyAkinshin/crucible/internal/proc"
)

// Version is set at build time.
var Version = "dev"

// version returns Version, falling back to the module version recorded by
// go install.
func version() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}

// Run executes the CLI with the given arguments and returns an exit code.
// SIGINT and SIGTERM cancel the run: the current task's process tree is
// killed and the report is still printed.
func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, args, output.New(), proc.System)
}

func run(ctx context.Context, args []string, out *output.Writer, provider func() proc.Provider) int {
	if os.Getenv("NO_COLOR") != "" {
		out.SetColor(false)
	}
	a := &app{out: out, provider: provider}
	root := a.newRootCmd()
	root.SetArgs(args)
	root.SetOut(out.Out())
	root.SetErr(out.Err())

	if err := root.ExecuteContext(ctx); err != nil {
		out.ErrorPrefix("%v", err)
		return errors.GetExitCode(err)
	}
	return a.code
}

// app carries state shared by the commands of one invocation.
type app struct {
	opts     options
	out      *output.Writer
	provider func() proc.Provider
	code     int
}

func (a *app) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "crucible [flags] [targets...]",
		Short: "Run build and test tasks one at a time under a hard timeout",
		Long: `crucible runs one build/test task per target, strictly in order. Each task
gets a wall-clock timeout; a task that overruns it is killed together with
every process it spawned. A table of results is printed at the end.

Targets may be given as arguments or with -t, and may be comma-separated.
The exit status is 0 when every task passed and 1 otherwise.`,
		Example: `  crucible hive_core hive_ai
  crucible -t "hive_core, hive_ui_panels" --timeout 600 --fail-fast
  crucible --dry-run -c ci/crucible.yaml`,
		Args:          cobra.ArbitraryArgs,
		Version:       version(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          a.runE,
	}
	root.SetVersionTemplate("crucible {{.Version}}\n")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.Config(err.Error())
	})

	root.PersistentFlags().StringVarP(&a.opts.configPath, "config", "c", "", "Path to config file (default \"crucible.yaml\" if present)")
	a.opts.register(root)

	root.AddCommand(a.newConfigCmd())
	return root
}
