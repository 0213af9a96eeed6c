package config

// Default configuration values.
const (
	DefaultFileName       = "crucible.yaml"
	DefaultTimeoutSeconds = 900
	DefaultOutputDir      = "target"
	DefaultCommand        = "cargo"
)

// DefaultCheckOnly lists modules whose full test run is unstable and which
// therefore only get a compile check.
var DefaultCheckOnly = []string{"ui_panels", "hive_ui_panels"}

// DefaultReapNames covers the build driver, compiler, linkers and the
// compilation cache daemon that can outlive a killed build.
var DefaultReapNames = []string{
	"cargo",
	"rustc",
	"link",
	"lld",
	"lld-link",
	"ld",
	"cc",
	"sccache",
}

// Default toolchain arguments.
var (
	DefaultVerifyArgs = []string{"test", "-p", "${task}"}
	DefaultCheckArgs  = []string{"check", "-p", "${task}", "--tests"}
	DefaultQuietArgs  = []string{"-q"}
	DefaultSerialArgs = []string{"--", "--test-threads=1"}
	DefaultOutputArgs = []string{"--target-dir", "${output_dir}"}
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{TimeoutSeconds: DefaultTimeoutSeconds}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults fills in default values for unset configuration fields.
// Lists that were explicitly set to empty in the file stay empty. The
// timeout is seeded by parse, so zero here means the file said zero.
func applyDefaults(cfg *Config) {
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}
	if cfg.CheckOnly == nil {
		cfg.CheckOnly = cloneStrings(DefaultCheckOnly)
	}
	applyReapDefaults(cfg)
	applyToolchainDefaults(cfg)
}

func applyReapDefaults(cfg *Config) {
	if cfg.Reap == nil {
		cfg.Reap = &ReapConfig{}
	}
	if cfg.Reap.Names == nil {
		cfg.Reap.Names = cloneStrings(DefaultReapNames)
	}
}

func applyToolchainDefaults(cfg *Config) {
	if cfg.Toolchain == nil {
		cfg.Toolchain = &ToolchainConfig{}
	}
	tc := cfg.Toolchain
	if tc.Command == "" {
		tc.Command = DefaultCommand
	}
	if tc.VerifyArgs == nil {
		tc.VerifyArgs = cloneStrings(DefaultVerifyArgs)
	}
	if tc.CheckArgs == nil {
		tc.CheckArgs = cloneStrings(DefaultCheckArgs)
	}
	if tc.QuietArgs == nil {
		tc.QuietArgs = cloneStrings(DefaultQuietArgs)
	}
	if tc.SerialArgs == nil {
		tc.SerialArgs = cloneStrings(DefaultSerialArgs)
	}
	if tc.OutputArgs == nil {
		tc.OutputArgs = cloneStrings(DefaultOutputArgs)
	}
}

func cloneStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
