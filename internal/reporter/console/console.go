// Package console prints the run summary to a terminal.
package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"yqhp/graph-loadtest/pkg/types"
)

// Config holds configuration for the console reporter.
type Config struct {
	// ColorOutput enables colored output.
	ColorOutput bool `yaml:"color_output"`
	// Writer is the output writer (defaults to os.Stdout).
	Writer io.Writer `yaml:"-"`
}

// DefaultConfig returns the default console reporter configuration.
func DefaultConfig() *Config {
	return &Config{
		ColorOutput: true,
		Writer:      os.Stdout,
	}
}

// Reporter implements the console reporter.
type Reporter struct {
	config *Config
	writer io.Writer
	mu     sync.Mutex

	initialized bool
}

// New creates a new console reporter.
func New(config *Config) *Reporter {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Writer == nil {
		config.Writer = os.Stdout
	}
	return &Reporter{
		config: config,
		writer: config.Writer,
	}
}

// NewFactory returns a factory function for creating console reporters.
func NewFactory() func(config map[string]any) (*Reporter, error) {
	return func(config map[string]any) (*Reporter, error) {
		cfg := DefaultConfig()
		if config != nil {
			if v, ok := config["color_output"].(bool); ok {
				cfg.ColorOutput = v
			}
			if v, ok := config["writer"].(io.Writer); ok {
				cfg.Writer = v
			}
		}
		return New(cfg), nil
	}
}

// Name returns the reporter name.
func (r *Reporter) Name() string {
	return "console"
}

// Init initializes the reporter.
func (r *Reporter) Init(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return fmt.Errorf("报告器已初始化")
	}
	r.initialized = true
	return nil
}

// Report prints the summary table.
func (r *Reporter) Report(ctx context.Context, report *types.RunReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	info := report.Info
	mode := "sequential"
	if info.Parallel {
		mode = fmt.Sprintf("parallel, %d workers", info.Workers)
	}

	r.writeLine("")
	r.writeLine(r.colorize("=== Run Summary ===", colorCyan))
	if info.RunID != "" {
		r.writeLine(fmt.Sprintf("Run: %s", info.RunID))
	}
	r.writeLine(fmt.Sprintf("Target: %s (%s)", info.ServerURI, mode))
	r.writeLine(fmt.Sprintf("Times To Run: %d | Order: %s", info.TimesToRun, info.Order))
	r.writeLine(fmt.Sprintf("Total Duration: %s", r.formatDuration(info.Duration)))

	s := report.Summary
	if s == nil || s.Total == 0 {
		r.writeLine("No invocations were executed.")
		r.writeLine(r.colorize("===================", colorCyan))
		return nil
	}

	r.writeLine("")
	r.writeLine(fmt.Sprintf("%-24s %-8s %6s %9s %11s %6s %10s %10s %10s %10s",
		"TASK", "KIND", "COUNT", "COMMITTED", "ROLLED_BACK", "FAILED", "MEAN", "P50", "P95", "P99"))
	r.writeLine(strings.Repeat("-", 112))
	for _, t := range s.Tasks {
		failed := fmt.Sprintf("%6d", t.Failed)
		if t.Failed > 0 {
			failed = r.colorize(failed, colorRed)
		}
		r.writeLine(fmt.Sprintf("%-24s %-8s %6d %9d %11d %s %10s %10s %10s %10s",
			truncate(t.TaskName, 24),
			t.Kind,
			t.Count,
			t.Committed,
			t.RolledBack,
			failed,
			r.formatDuration(t.Duration.Mean),
			r.formatDuration(t.Duration.P50),
			r.formatDuration(t.Duration.P95),
			r.formatDuration(t.Duration.P99),
		))
	}

	r.writeLine("")
	totals := fmt.Sprintf("Invocations: %d | Committed: %d | Rolled Back: %d | Failed: %d",
		s.Total, s.Committed, s.RolledBack, s.Failed)
	if s.Failed > 0 {
		r.writeLine(r.colorize(totals, colorYellow))
	} else {
		r.writeLine(r.colorize(totals, colorGreen))
	}
	r.writeLine(r.colorize("===================", colorCyan))
	return nil
}

// Close closes the reporter.
func (r *Reporter) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.initialized = false
	return nil
}

func (r *Reporter) writeLine(s string) {
	fmt.Fprintln(r.writer, s)
}

func (r *Reporter) formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%.2fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

// Color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

func (r *Reporter) colorize(s string, color string) string {
	if !r.config.ColorOutput {
		return s
	}
	return color + s + colorReset
}
