package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks a configuration with defaults applied.
func Validate(cfg *Config) error {
	if cfg.TimeoutSeconds <= 0 {
		return &ValidationError{Field: "timeout_seconds", Message: "must be a positive number of seconds"}
	}
	if err := validateNames("check_only", cfg.CheckOnly); err != nil {
		return err
	}
	if err := validateNames("reap.names", cfg.ReapNames()); err != nil {
		return err
	}
	if err := validateToolchain(cfg.Toolchain); err != nil {
		return err
	}
	return validateEnv(cfg.Env)
}

func validateNames(field string, names []string) error {
	for i, name := range names {
		if strings.TrimSpace(name) == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("%s[%d]", field, i),
				Message: "must not be empty",
			}
		}
	}
	return nil
}

func validateToolchain(tc *ToolchainConfig) error {
	if tc == nil {
		return &ValidationError{Field: "toolchain", Message: "is required"}
	}
	if strings.TrimSpace(tc.Command) == "" {
		return &ValidationError{Field: "toolchain.command", Message: "is required"}
	}
	if len(tc.VerifyArgs) == 0 && len(tc.CheckArgs) == 0 {
		return &ValidationError{
			Field:   "toolchain",
			Message: "verify_args and check_args cannot both be empty",
		}
	}
	return nil
}

func validateEnv(env map[string]string) error {
	for key := range env {
		if key == "" || strings.ContainsAny(key, "= \t") {
			return &ValidationError{
				Field:   fmt.Sprintf("env.%s", key),
				Message: "is not a valid environment variable name",
			}
		}
	}
	return nil
}
