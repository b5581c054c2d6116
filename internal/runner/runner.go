// Package runner wires one load-test run: it expands the configured queries,
// dispatches every invocation through the transaction executor, collects
// the results and hands them to the reporters.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"yqhp/graph-loadtest/internal/config"
	"yqhp/graph-loadtest/internal/dispatcher"
	"yqhp/graph-loadtest/internal/executor"
	"yqhp/graph-loadtest/internal/expander"
	"yqhp/graph-loadtest/internal/graph"
	"yqhp/graph-loadtest/internal/ledger"
	"yqhp/graph-loadtest/internal/reporter"
	"yqhp/graph-loadtest/internal/reporter/file"
	"yqhp/graph-loadtest/pkg/logger"
	"yqhp/graph-loadtest/pkg/types"
)

// Options controls the outputs of a run.
type Options struct {
	// ReportPath is the CSV report path; empty means run_time_metrics.csv.
	ReportPath string
	// JSONPath enables the JSON report when set.
	JSONPath string
	// Quiet disables the console summary.
	Quiet bool
	// Console receives the console summary; nil means stdout.
	Console io.Writer
	// NoColor disables ANSI colors in the console summary.
	NoColor bool
	// Graph replaces the backend selected by server_uri. The runner does not
	// close an injected backend.
	Graph graph.SessionFactory
}

// Result is what a finished run produced.
type Result struct {
	Report *types.RunReport
	Stats  dispatcher.Stats
}

// Run executes cfg once. Failed invocations are recorded, not returned as
// errors; Run only fails on configuration, backend or report problems and
// when cancellation skipped invocations.
func Run(ctx context.Context, cfg *config.RunConfig, opts Options) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, executor.NewConfigError("invalid configuration", err)
	}
	tasks, err := cfg.Tasks()
	if err != nil {
		return nil, executor.NewConfigError("invalid queries", err)
	}

	reporters, err := newReporters(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := reporters.Close(context.WithoutCancel(ctx)); cerr != nil {
			logger.Warn("close reporters failed", zap.Error(cerr))
		}
	}()

	sessions := opts.Graph
	if sessions == nil {
		sessions, err = graph.Open(ctx, graph.Options{
			URI:      cfg.ServerURI,
			User:     cfg.AdminUser,
			Password: cfg.AdminPass,
			Database: cfg.Database,
		})
		if err != nil {
			return nil, executor.NewConnectionError("", "open graph backend failed", err)
		}
		defer func() {
			if cerr := sessions.Close(context.WithoutCancel(ctx)); cerr != nil {
				logger.Warn("close graph backend failed", zap.Error(cerr))
			}
		}()
	}

	invocations := expander.Expand(tasks, cfg.TimesToRun, cfg.InvocationOrder())
	results := ledger.New()
	exec := executor.New(sessions, executor.Options{TxTimeout: cfg.TxTimeout})
	disp := dispatcher.New(dispatcher.Options{Parallel: cfg.Parallel, Workers: cfg.Workers}, results)

	info := types.RunInfo{
		RunID:      uuid.NewString(),
		ServerURI:  cfg.ServerURI,
		Database:   cfg.Database,
		Parallel:   cfg.Parallel,
		Workers:    disp.Workers(),
		TimesToRun: cfg.TimesToRun,
		Order:      cfg.InvocationOrder(),
		StartedAt:  time.Now(),
	}
	logger.Info("run started",
		zap.String("run_id", info.RunID),
		zap.String("server_uri", info.ServerURI),
		zap.Bool("parallel", info.Parallel),
		zap.Int("workers", info.Workers),
		zap.Int("tasks", len(tasks)),
		zap.Int("invocations", len(invocations)))

	stats, dispatchErr := disp.Dispatch(ctx, invocations, func(ctx context.Context, inv types.TaskInvocation) types.ExecutionResult {
		execution := exec.Execute(ctx, inv)
		if execution.Records != nil {
			logger.Debug("query returned records",
				zap.String("invocation", inv.String()),
				zap.Strings("keys", execution.Records.Keys),
				zap.Int("records", len(execution.Records.Records)))
		}
		return execution.Result
	})
	info.Duration = time.Since(info.StartedAt)

	report := &types.RunReport{
		Info:    info,
		Results: results.Snapshot(),
		Summary: results.Summarize(),
	}
	logger.Info(fmt.Sprintf("Finished run in %.4f secs.", info.Duration.Seconds()),
		zap.String("run_id", info.RunID),
		zap.Int("started", stats.Started),
		zap.Int("skipped", stats.Skipped),
		zap.Int64("committed", report.Summary.Committed),
		zap.Int64("rolled_back", report.Summary.RolledBack),
		zap.Int64("failed", report.Summary.Failed))

	res := &Result{Report: report, Stats: stats}

	var errs []error
	if dispatchErr != nil {
		errs = append(errs, dispatchErr)
	}
	if err := reporters.Report(ctx, report); err != nil {
		errs = append(errs, fmt.Errorf("write reports: %w", err))
	}
	if stats.Skipped > 0 {
		errs = append(errs, fmt.Errorf("run interrupted, %d invocations skipped: %w", stats.Skipped, context.Cause(ctx)))
	}
	return res, errors.Join(errs...)
}

func newReporters(ctx context.Context, opts Options) (*reporter.Manager, error) {
	registry, err := reporter.NewDefaultRegistry()
	if err != nil {
		return nil, err
	}
	manager := reporter.NewManager(registry)

	reportPath := opts.ReportPath
	if reportPath == "" {
		reportPath = file.DefaultCSVPath
	}
	configs := []*reporter.ReporterConfig{
		{
			Type:    reporter.ReporterTypeCSV,
			Enabled: true,
			Config:  map[string]any{"file_path": reportPath},
		},
		{
			Type:    reporter.ReporterTypeJSON,
			Enabled: opts.JSONPath != "",
			Config:  map[string]any{"file_path": opts.JSONPath},
		},
		{
			Type:    reporter.ReporterTypeConsole,
			Enabled: !opts.Quiet,
			Config:  consoleConfig(opts),
		},
	}

	for _, c := range configs {
		if err := manager.AddReporterFromConfig(ctx, c); err != nil {
			_ = manager.Close(ctx)
			return nil, err
		}
	}
	return manager, nil
}

func consoleConfig(opts Options) map[string]any {
	c := map[string]any{"color_output": !opts.NoColor}
	if opts.Console != nil {
		c["writer"] = opts.Console
	}
	return c
}
