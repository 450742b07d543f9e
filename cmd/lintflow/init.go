package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"lintflow/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a starter lintflow.toml",
	Long: `Write a commented starter lintflow.toml into the given directory (default:
the current directory). Refuses to overwrite an existing configuration.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

const starterConfig = `# lintflow configuration. Built-in linters (gcc, shellcheck, flake8, ...)
# stay registered; tables here add linters or override built-ins by name.

[engine]
# timeout bounds one lint run. jobs caps parallel runs in multi-file checks.
timeout = "10s"
jobs = 0

# Each severity pattern needs exactly four capture groups:
# file, line, column, message.
# [linter.eslint]
# patterns = ["*.js", "*.ts"]
# command = "eslint --format unix $filename $args"
# error = '(.+?):(\d+):(\d+): (.+) \[Error.*\]'
# warning = '(.+?):(\d+):(\d+): (.+) \[Warning.*\]'
`

func runInit(_ *cobra.Command, args []string) error {
	target := "."
	if len(args) > 0 && args[0] != "" {
		target = args[0]
	}
	target, err := filepath.Abs(target)
	if err != nil {
		return err
	}

	if st, err := os.Stat(target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err = os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %q: %w", target, err)
			}
		} else {
			return err
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	cfgPath := filepath.Join(target, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("already configured: %s exists", cfgPath)
	}

	if err := os.WriteFile(cfgPath, []byte(starterConfig), 0o600); err != nil {
		return fmt.Errorf("failed to write configuration: %w", err)
	}
	_, _ = fmt.Fprintf(os.Stdout, "created %s\n", cfgPath)
	return nil
}
