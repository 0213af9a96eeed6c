package cli

import (
	"bytes"
	stderrors "errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/AndreyAkinshin/crucible/internal/config"
	"github.com/AndreyAkinshin/crucible/internal/errors"
)

func (a *app) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and create crucible configuration",
	}
	cmd.AddCommand(a.newConfigValidateCmd(), a.newConfigShowCmd(), a.newConfigInitCmd())
	return cmd
}

func (a *app) newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the config file against the schema and semantic rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.configPath()
			_, warnings, err := config.Resolve(path, true)
			for _, w := range warnings {
				a.out.Warning("%s", w)
			}
			if err != nil {
				return errors.Config(err.Error())
			}
			a.out.Println("%s: valid", path)
			return nil
		},
	}
}

func (a *app) newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with defaults applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, warnings, err := config.Resolve(a.opts.configPath, cmd.Flags().Changed("config"))
			if err != nil {
				return errors.Config(err.Error())
			}
			for _, w := range warnings {
				a.out.Warning("%s", w)
			}
			if err := config.Write(a.out.Out(), cfg); err != nil {
				return errors.Wrap(err, "failed to print config")
			}
			return nil
		},
	}
}

func (a *app) newConfigInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file populated with the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.configPath()
			if _, err := os.Stat(path); err == nil && !force {
				return errors.Configf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !stderrors.Is(err, os.ErrNotExist) {
				return errors.Wrap(err, "failed to check config file")
			}

			var buf bytes.Buffer
			if err := config.Write(&buf, config.Default()); err != nil {
				return errors.Wrap(err, "failed to render config")
			}
			if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
				return errors.Wrap(err, "failed to write config file")
			}
			a.out.Println("wrote %s", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

// configPath returns the -c value or the default file name.
func (a *app) configPath() string {
	if a.opts.configPath != "" {
		return a.opts.configPath
	}
	return config.DefaultFileName
}
