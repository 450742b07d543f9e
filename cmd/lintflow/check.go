package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lintflow/internal/buffer"
	"lintflow/internal/config"
	"lintflow/internal/diag"
	"lintflow/internal/engine"
	"lintflow/internal/status"
	"lintflow/internal/toolcache"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <file>...",
	Short: "Run the matching linter over files and print diagnostics",
	Long:  `Run the registered linter for each file, parse its output, and print per-line diagnostics. Exits non-zero when any error-severity diagnostic is found.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|short|json)")
	checkCmd.Flags().Int("jobs", 0, "max parallel lint runs (0=config, then one per CPU)")
	checkCmd.Flags().Duration("timeout", 0, "per-run timeout, overrides configuration (0=config)")
	checkCmd.Flags().String("min-severity", "hint", "lowest severity to print (hint|warning|error)")
}

type checkFinding struct {
	Path     string `json:"path"`
	Line     uint32 `json:"line"`
	Column   uint32 `json:"column"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	switch format {
	case "pretty", "short", "json":
	default:
		return fmt.Errorf("unsupported format %q (must be pretty, short or json)", format)
	}

	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return fmt.Errorf("failed to get timeout flag: %w", err)
	}
	minSevStr, err := cmd.Flags().GetString("min-severity")
	if err != nil {
		return fmt.Errorf("failed to get min-severity flag: %w", err)
	}
	minSev, err := diag.ParseSeverity(minSevStr)
	if err != nil {
		return err
	}

	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if timeout > 0 {
		cfg.Engine.Timeout = config.Duration{Duration: timeout}
	}
	if jobs == 0 {
		jobs = cfg.Engine.Jobs
	}

	tracer, cleanup, err := setupTracing(cmd, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	tools, err := toolcache.Open("lintflow")
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: tool cache unavailable: %v\n", err)
		tools = nil
	}

	eng, warnings := engine.New(cfg, engine.Options{Tracer: tracer, Tools: tools})
	for _, w := range warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", w)
	}
	defer eng.Shutdown()

	paths := make([]string, 0, len(args))
	for _, arg := range args {
		buf, err := buffer.Load(arg)
		if err != nil {
			return err
		}
		if _, err := eng.Open(buf); err != nil {
			return err
		}
		paths = append(paths, buf.Path())
	}

	runErr := eng.CheckAll(cmd.Context(), paths, jobs)

	findings, hadErrors := collectFindings(eng, paths, minSev)
	switch format {
	case "json":
		if err := renderCheckJSON(cmd, findings); err != nil {
			return err
		}
	case "short":
		renderCheckShort(cmd, findings)
	default:
		renderCheckPretty(cmd, eng, paths, findings)
	}

	if runErr != nil {
		return runErr
	}
	if hadErrors {
		// Suppress cobra usage output on diagnostic errors
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("") // Silent error - diagnostics already printed
	}
	return nil
}

// collectFindings flattens every session's store into printable findings,
// in path order, filtered by the minimum severity.
func collectFindings(eng *engine.Engine, paths []string, minSev diag.Severity) ([]checkFinding, bool) {
	var findings []checkFinding
	hadErrors := false
	for _, path := range paths {
		session, ok := eng.Session(path)
		if !ok {
			continue
		}
		for _, item := range session.Store().Items() {
			if item.Diag.Severity == diag.SevError {
				hadErrors = true
			}
			if item.Diag.Severity < minSev {
				continue
			}
			findings = append(findings, checkFinding{
				Path:     path,
				Line:     item.Line,
				Column:   item.Diag.Column,
				Severity: item.Diag.Severity.String(),
				Message:  item.Diag.Message,
			})
		}
	}
	return findings, hadErrors
}

func renderCheckPretty(cmd *cobra.Command, eng *engine.Engine, paths []string, findings []checkFinding) {
	out := cmd.OutOrStdout()
	for _, f := range findings {
		sev, _ := diag.ParseSeverity(f.Severity)
		fmt.Fprintf(out, "%s:%d:%d: %s %s\n",
			f.Path, f.Line, f.Column, status.SeverityColor(sev).Sprint(f.Severity), f.Message)
	}
	var hints, warnings, errors int
	for _, path := range paths {
		if session, ok := eng.Session(path); ok {
			h, w, e := session.Store().Counts()
			hints += h
			warnings += w
			errors += e
		}
	}
	if hints+warnings+errors == 0 {
		fmt.Fprintf(out, "%d file(s) clean\n", len(paths))
		return
	}
	fmt.Fprintf(out, "%d error(s), %d warning(s), %d hint(s) in %d file(s)\n",
		errors, warnings, hints, len(paths))
}

func renderCheckShort(cmd *cobra.Command, findings []checkFinding) {
	out := cmd.OutOrStdout()
	for _, f := range findings {
		fmt.Fprintf(out, "%s:%d:%d: %s %s\n",
			f.Path, f.Line, f.Column, strings.ToUpper(f.Severity[:1]), f.Message)
	}
}

func renderCheckJSON(cmd *cobra.Command, findings []checkFinding) error {
	if findings == nil {
		findings = []checkFinding{}
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(findings)
}
