package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lintflow/internal/config"
	"lintflow/internal/trace"
)

// setupTracing builds a tracer from the --trace/--trace-level flags, falling
// back to the [engine] table of the configuration. It returns the tracer and
// a cleanup function that flushes it.
func setupTracing(cmd *cobra.Command, cfg *config.Config) (trace.Tracer, func(), error) {
	root := cmd.Root()

	traceOutput, err := root.PersistentFlags().GetString("trace")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := root.PersistentFlags().GetString("trace-level")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}

	if traceOutput == "" {
		traceOutput = cfg.Engine.TraceFile
	}
	if levelStr == "" {
		levelStr = cfg.Engine.TraceLevel
	}
	if levelStr == "" {
		levelStr = "off"
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid trace level: %w", err)
	}
	if level == trace.LevelOff {
		return trace.Nop, func() {}, nil
	}

	if traceOutput == "" {
		tracer := trace.NewStreamTracer(os.Stderr, level)
		// Flush only; stderr stays open.
		return tracer, func() { _ = tracer.Flush() }, nil
	}

	f, err := os.OpenFile(traceOutput, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open trace file %q: %w", traceOutput, err)
	}
	tracer := trace.NewStreamTracer(f, level)
	cleanup := func() {
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return tracer, cleanup, nil
}

// loadConfig resolves the configuration for a command run: the --config flag
// when given, otherwise an upward search from the working directory.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, "", fmt.Errorf("failed to get config flag: %w", err)
	}
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, "", err
	}
	return config.LoadOrDefault(wd)
}
