// Package config provides loading and validation for crucible.yaml.
package config

import "time"

// Config is the run configuration. It is assembled once at startup from the
// optional config file and the command line, and is not modified afterwards.
type Config struct {
	Targets        []string          `yaml:"targets,omitempty"`
	TimeoutSeconds int               `yaml:"timeout_seconds,omitempty"`
	OutputDir      string            `yaml:"output_dir,omitempty"`
	FailFast       bool              `yaml:"fail_fast,omitempty"`
	Verbose        bool              `yaml:"verbose,omitempty"`
	CheckOnly      []string          `yaml:"check_only,omitempty"`
	Reap           *ReapConfig       `yaml:"reap,omitempty"`
	Toolchain      *ToolchainConfig  `yaml:"toolchain,omitempty"`
	Env            map[string]string `yaml:"env,omitempty"`
	LogDir         string            `yaml:"log_dir,omitempty"`
	Report         string            `yaml:"report,omitempty"`
	MetricsFile    string            `yaml:"metrics_file,omitempty"`
}

// ReapConfig controls the stray-process reaper.
type ReapConfig struct {
	Enabled *bool    `yaml:"enabled,omitempty"` // default: true
	Names   []string `yaml:"names,omitempty"`   // process names to kill before each task
}

// ToolchainConfig describes how a task is turned into a command line.
// Argument lists support ${task} and ${output_dir} interpolation.
type ToolchainConfig struct {
	Command    string   `yaml:"command,omitempty"`
	VerifyArgs []string `yaml:"verify_args,omitempty"`
	CheckArgs  []string `yaml:"check_args,omitempty"`
	QuietArgs  []string `yaml:"quiet_args,omitempty"`  // dropped in verbose mode
	SerialArgs []string `yaml:"serial_args,omitempty"` // appended for verify tasks only
	OutputArgs []string `yaml:"output_args,omitempty"` // appended when output_dir is set
}

// Timeout returns the per-task deadline.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ReapEnabled reports whether stray processes should be reaped.
func (c *Config) ReapEnabled() bool {
	if c.Reap == nil || c.Reap.Enabled == nil {
		return true
	}
	return *c.Reap.Enabled
}

// ReapNames returns the process names targeted by the reaper.
func (c *Config) ReapNames() []string {
	if c.Reap == nil {
		return nil
	}
	return c.Reap.Names
}
