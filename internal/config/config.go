// Package config loads lintflow.toml: engine settings plus the linter
// definition table that feeds the registry.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file searched for upward from the start
// directory.
const FileName = "lintflow.toml"

// Duration wraps time.Duration for TOML text decoding ("10s", "1m30s").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Config is the full decoded configuration.
type Config struct {
	Engine  Engine            `toml:"engine"`
	Linters map[string]Linter `toml:"linter"`
}

// Engine holds run-wide settings.
type Engine struct {
	// Timeout bounds one lint run; the process is killed past it.
	// Zero means no limit.
	Timeout Duration `toml:"timeout"`

	// Jobs caps concurrent runs in multi-file checks. Zero means one
	// per CPU.
	Jobs int `toml:"jobs"`

	// TraceLevel is off|error|info|debug.
	TraceLevel string `toml:"trace_level"`

	// TraceFile receives trace output; empty means stderr.
	TraceFile string `toml:"trace_file"`
}

// Linter is one [linter.<name>] table. The four pattern fields follow the
// interpreter contract: four capture groups each (file, line, column,
// message), strip optional.
type Linter struct {
	Patterns []string `toml:"patterns"`
	Command  string   `toml:"command"`
	Args     []string `toml:"args"`
	Stderr   bool     `toml:"stderr"`
	Hint     string   `toml:"hint"`
	Warning  string   `toml:"warning"`
	Error    string   `toml:"error"`
	Strip    string   `toml:"strip"`
}

// Default returns the configuration used when no lintflow.toml exists:
// a 10 second run timeout and the built-in linter table.
func Default() *Config {
	return &Config{
		Engine: Engine{
			Timeout: Duration{10 * time.Second},
		},
		Linters: Builtin(),
	}
}

// Find walks upward from startDir looking for lintflow.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load reads and validates a configuration file. User-defined linters are
// layered over the built-in table: a [linter.<name>] matching a built-in
// name replaces it wholesale.
func Load(path string) (*Config, error) {
	cfg := Default()
	user := Config{}
	meta, err := toml.DecodeFile(path, &user)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if meta.IsDefined("engine") {
		if meta.IsDefined("engine", "timeout") {
			cfg.Engine.Timeout = user.Engine.Timeout
		}
		cfg.Engine.Jobs = user.Engine.Jobs
		cfg.Engine.TraceLevel = user.Engine.TraceLevel
		cfg.Engine.TraceFile = user.Engine.TraceFile
	}
	for name, lc := range user.Linters {
		if err := validateLinter(path, name, meta, lc); err != nil {
			return nil, err
		}
		cfg.Linters[name] = lc
	}
	return cfg, nil
}

// LoadOrDefault finds and loads the nearest configuration, falling back to
// defaults when none exists.
func LoadOrDefault(startDir string) (*Config, string, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return Default(), "", nil
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

func validateLinter(path, name string, meta toml.MetaData, lc Linter) error {
	if !meta.IsDefined("linter", name, "patterns") || len(lc.Patterns) == 0 {
		return fmt.Errorf("%s: [linter.%s]: missing patterns", path, name)
	}
	if !meta.IsDefined("linter", name, "command") || lc.Command == "" {
		return fmt.Errorf("%s: [linter.%s]: missing command", path, name)
	}
	if lc.Hint == "" && lc.Warning == "" && lc.Error == "" {
		return fmt.Errorf("%s: [linter.%s]: needs at least one of hint, warning, error", path, name)
	}
	return nil
}
