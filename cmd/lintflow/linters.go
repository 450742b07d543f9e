package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"lintflow/internal/engine"
	"lintflow/internal/toolcache"
)

var lintersCmd = &cobra.Command{
	Use:   "linters",
	Short: "List registered linters",
	Long:  `List every linter in the effective configuration (built-ins plus lintflow.toml), with its patterns and command. With --verify, resolve each tool on PATH and report its version.`,
	Args:  cobra.NoArgs,
	RunE:  runLinters,
}

func init() {
	lintersCmd.Flags().Bool("verify", false, "resolve each linter executable and probe its version")
}

func runLinters(cmd *cobra.Command, _ []string) error {
	verify, err := cmd.Flags().GetBool("verify")
	if err != nil {
		return fmt.Errorf("failed to get verify flag: %w", err)
	}

	cfg, cfgPath, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	tracer, cleanup, err := setupTracing(cmd, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	eng, warnings := engine.New(cfg, engine.Options{Tracer: tracer})
	for _, w := range warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", w)
	}

	var tools *toolcache.Cache
	if verify {
		tools, err = toolcache.Open("lintflow")
		if err != nil {
			return fmt.Errorf("tool cache unavailable: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if cfgPath != "" {
		fmt.Fprintf(out, "configuration: %s\n\n", cfgPath)
	} else {
		fmt.Fprintf(out, "configuration: built-in defaults\n\n")
	}

	nameColor := color.New(color.Bold)
	okColor := color.New(color.FgGreen)
	missColor := color.New(color.FgRed)

	for _, spec := range eng.Registry().Specs() {
		fmt.Fprintf(out, "%s\n", nameColor.Sprint(spec.Name))
		fmt.Fprintf(out, "  patterns: %s\n", strings.Join(spec.Patterns, ", "))
		fmt.Fprintf(out, "  command:  %s\n", spec.Command)
		if len(spec.Args) > 0 {
			fmt.Fprintf(out, "  args:     %s\n", strings.Join(spec.Args, " "))
		}
		if spec.Stderr {
			fmt.Fprintf(out, "  stderr:   merged\n")
		}
		if verify {
			tool := toolcache.CommandTool(spec.Command)
			if tool == "" {
				fmt.Fprintf(out, "  tool:     %s\n", missColor.Sprint("command has no executable"))
				continue
			}
			entry, err := tools.Resolve(cmd.Context(), tool)
			switch {
			case err != nil:
				fmt.Fprintf(out, "  tool:     %s\n", missColor.Sprintf("not found (%v)", err))
			case entry.Version != "":
				fmt.Fprintf(out, "  tool:     %s (%s)\n", okColor.Sprint(entry.Path), entry.Version)
			default:
				fmt.Fprintf(out, "  tool:     %s\n", okColor.Sprint(entry.Path))
			}
		}
	}
	return nil
}
