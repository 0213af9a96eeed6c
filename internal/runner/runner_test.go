package runner

import (
	"reflect"
	"strings"
	"testing"

	"github.com/AndreyAkinshin/crucible/internal/config"
	"github.com/AndreyAkinshin/crucible/internal/model"
)

func TestRunner_Command(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *config.Config)
		task   model.TaskSpec
		want   []string
	}{
		{
			name: "verify",
			task: model.TaskSpec{Name: "hive_core", Mode: model.ModeVerify},
			want: []string{"cargo", "test", "-p", "hive_core", "--target-dir", "target", "-q", "--", "--test-threads=1"},
		},
		{
			name: "check only has no serial args",
			task: model.TaskSpec{Name: "ui_panels", Mode: model.ModeCheckOnly},
			want: []string{"cargo", "check", "-p", "ui_panels", "--tests", "--target-dir", "target", "-q"},
		},
		{
			name:   "verbose drops quiet flag",
			mutate: func(cfg *config.Config) { cfg.Verbose = true },
			task:   model.TaskSpec{Name: "hive_ai", Mode: model.ModeVerify},
			want:   []string{"cargo", "test", "-p", "hive_ai", "--target-dir", "target", "--", "--test-threads=1"},
		},
		{
			name:   "no output dir",
			mutate: func(cfg *config.Config) { cfg.OutputDir = "" },
			task:   model.TaskSpec{Name: "hive_ai", Mode: model.ModeCheckOnly},
			want:   []string{"cargo", "check", "-p", "hive_ai", "--tests", "-q"},
		},
		{
			name:   "custom output dir",
			mutate: func(cfg *config.Config) { cfg.OutputDir = "/tmp/build cache" },
			task:   model.TaskSpec{Name: "hive_ai", Mode: model.ModeCheckOnly},
			want:   []string{"cargo", "check", "-p", "hive_ai", "--tests", "--target-dir", "/tmp/build cache", "-q"},
		},
		{
			name: "custom toolchain",
			mutate: func(cfg *config.Config) {
				cfg.Toolchain = &config.ToolchainConfig{
					Command:    "go",
					VerifyArgs: []string{"test", "./${task}/..."},
					CheckArgs:  []string{"vet", "./${task}/..."},
					SerialArgs: []string{"-p", "1"},
				}
			},
			task: model.TaskSpec{Name: "internal", Mode: model.ModeVerify},
			want: []string{"go", "test", "./internal/...", "-p", "1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			r := New(cfg, nil, nil)

			got := r.Command(tt.task)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Command() = %q\nwant      %q", got, tt.want)
			}
		})
	}
}

func TestRunner_Command_DoesNotMutateConfig(t *testing.T) {
	cfg := config.Default()
	r := New(cfg, nil, nil)

	_ = r.Command(model.TaskSpec{Name: "a", Mode: model.ModeVerify})
	_ = r.Command(model.TaskSpec{Name: "b", Mode: model.ModeVerify})

	if !reflect.DeepEqual(cfg.Toolchain.VerifyArgs, config.DefaultVerifyArgs) {
		t.Errorf("VerifyArgs mutated to %q", cfg.Toolchain.VerifyArgs)
	}
}

func TestNew_NilToolchainUsesDefaults(t *testing.T) {
	r := New(&config.Config{}, nil, nil)

	got := r.Command(model.TaskSpec{Name: "x", Mode: model.ModeCheckOnly})
	want := []string{"cargo", "check", "-p", "x", "--tests", "-q"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Command() = %q, want %q", got, want)
	}
}

func TestInterpolate(t *testing.T) {
	vars := map[string]string{"task": "hive_core", "output_dir": "out"}

	tests := []struct {
		in   string
		want string
	}{
		{"${task}", "hive_core"},
		{"-p=${task}", "-p=hive_core"},
		{"${output_dir}/${task}", "out/hive_core"},
		{"${unknown}", "${unknown}"},
		{"$${task}", "${task}"},
		{"$${task}-${task}", "${task}-hive_core"},
		{"plain", "plain"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := interpolate(tt.in, vars); got != tt.want {
				t.Errorf("interpolate(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLogFileName(t *testing.T) {
	tests := []struct {
		task string
		want string
	}{
		{"hive_core", "hive_core.log"},
		{"../escape", ".._escape.log"},
		{`a\b:c`, "a_b_c.log"},
	}

	for _, tt := range tests {
		if got := logFileName(tt.task); got != tt.want {
			t.Errorf("logFileName(%q) = %q, want %q", tt.task, got, tt.want)
		}
	}
}

func TestRunner_Environ(t *testing.T) {
	t.Setenv("CRUCIBLE_TEST_INHERITED", "parent")
	t.Setenv("CRUCIBLE_TEST_OVERRIDE", "parent")

	cfg := config.Default()
	cfg.Env = map[string]string{
		"CRUCIBLE_TEST_OVERRIDE": "config",
		"RUST_BACKTRACE":         "1",
	}
	env := New(cfg, nil, nil).environ()

	if got := lookup(env, "CRUCIBLE_TEST_INHERITED"); got != "parent" {
		t.Errorf("inherited = %q, want parent", got)
	}
	if got := lookup(env, "CRUCIBLE_TEST_OVERRIDE"); got != "config" {
		t.Errorf("override = %q, want config", got)
	}
	if got := lookup(env, "RUST_BACKTRACE"); got != "1" {
		t.Errorf("RUST_BACKTRACE = %q, want 1", got)
	}
}

// lookup returns the last value for key, mirroring how exec resolves
// duplicate entries.
func lookup(env []string, key string) string {
	val := ""
	for _, kv := range env {
		if strings.HasPrefix(kv, key+"=") {
			val = strings.TrimPrefix(kv, key+"=")
		}
	}
	return val
}
