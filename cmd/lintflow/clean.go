package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lintflow/internal/toolcache"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Drop the cached linter tool resolutions",
	Long:  `Drop the on-disk cache of resolved linter executables and versions. The next run re-probes every tool on PATH.`,
	Args:  cobra.NoArgs,
	RunE:  runCleanCache,
}

func runCleanCache(_ *cobra.Command, _ []string) error {
	cache, err := toolcache.Open("lintflow")
	if err != nil {
		return fmt.Errorf("tool cache unavailable: %w", err)
	}
	if err := cache.DropAll(); err != nil {
		return fmt.Errorf("failed to drop tool cache: %w", err)
	}
	_, _ = fmt.Fprintln(os.Stdout, "tool cache dropped")
	return nil
}
