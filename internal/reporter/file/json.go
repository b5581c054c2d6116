// Package file provides file-based reporters.
package file

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"yqhp/graph-loadtest/pkg/types"
)

// JSONConfig holds configuration for the JSON reporter.
type JSONConfig struct {
	// FilePath is the output file path.
	FilePath string `yaml:"file_path"`
	// Pretty enables pretty-printed JSON output.
	Pretty bool `yaml:"pretty"`
}

// DefaultJSONConfig returns the default JSON reporter configuration.
func DefaultJSONConfig() *JSONConfig {
	return &JSONConfig{
		FilePath: "run_report.json",
		Pretty:   true,
	}
}

// JSONReporter writes the whole run, results and summary, as one document.
type JSONReporter struct {
	config *JSONConfig
	mu     sync.Mutex

	initialized bool
	written     bool
}

// JSONDocument is the layout of the JSON report.
type JSONDocument struct {
	RunID      string        `json:"run_id"`
	ServerURI  string        `json:"server_uri"`
	Database   string        `json:"database,omitempty"`
	Parallel   bool          `json:"parallel"`
	Workers    int           `json:"workers"`
	TimesToRun int           `json:"times_to_run"`
	Order      string        `json:"order"`
	StartedAt  time.Time     `json:"started_at"`
	DurationMs float64       `json:"duration_ms"`
	Totals     JSONTotals    `json:"totals"`
	Tasks      []*JSONTask   `json:"tasks"`
	Results    []*JSONResult `json:"results"`
}

// JSONTotals counts outcomes over the whole run.
type JSONTotals struct {
	Invocations int64 `json:"invocations"`
	Committed   int64 `json:"committed"`
	RolledBack  int64 `json:"rolled_back"`
	Failed      int64 `json:"failed"`
}

// JSONTask is the summary of one task.
type JSONTask struct {
	TaskName   string       `json:"task_name"`
	Kind       string       `json:"kind"`
	Count      int64        `json:"count"`
	Committed  int64        `json:"committed"`
	RolledBack int64        `json:"rolled_back"`
	Failed     int64        `json:"failed"`
	Duration   JSONDuration `json:"duration"`
}

// JSONDuration represents duration metrics in JSON format.
type JSONDuration struct {
	MinMs  float64 `json:"min_ms"`
	MaxMs  float64 `json:"max_ms"`
	MeanMs float64 `json:"mean_ms"`
	P50Ms  float64 `json:"p50_ms"`
	P90Ms  float64 `json:"p90_ms"`
	P95Ms  float64 `json:"p95_ms"`
	P99Ms  float64 `json:"p99_ms"`
}

// JSONResult is one invocation.
type JSONResult struct {
	TaskName   string    `json:"task_name"`
	Sequence   int       `json:"sequence"`
	Kind       string    `json:"kind"`
	Outcome    string    `json:"outcome"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs float64   `json:"duration_ms"`
	Statements int       `json:"statements"`
	Error      string    `json:"error,omitempty"`
}

// NewJSONReporter creates a new JSON reporter.
func NewJSONReporter(config *JSONConfig) *JSONReporter {
	if config == nil {
		config = DefaultJSONConfig()
	}
	return &JSONReporter{config: config}
}

// NewJSONFactory returns a factory function for creating JSON reporters.
func NewJSONFactory() func(config map[string]any) (*JSONReporter, error) {
	return func(config map[string]any) (*JSONReporter, error) {
		cfg := DefaultJSONConfig()
		if config != nil {
			if v, ok := config["file_path"].(string); ok {
				cfg.FilePath = v
			}
			if v, ok := config["pretty"].(bool); ok {
				cfg.Pretty = v
			}
		}
		if cfg.FilePath == "" {
			return nil, fmt.Errorf("json reporter requires file_path")
		}
		return NewJSONReporter(cfg), nil
	}
}

// Name returns the reporter name.
func (r *JSONReporter) Name() string {
	return "json"
}

// Init makes sure the output directory exists.
func (r *JSONReporter) Init(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return fmt.Errorf("报告器已初始化")
	}
	if err := ensureDir(r.config.FilePath); err != nil {
		return err
	}
	r.initialized = true
	return nil
}

// Report writes the document, replacing any previous content.
func (r *JSONReporter) Report(ctx context.Context, report *types.RunReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized {
		return fmt.Errorf("报告器未初始化")
	}

	doc := NewJSONDocument(report)

	var (
		data []byte
		err  error
	)
	if r.config.Pretty {
		data, err = sonic.MarshalIndent(doc, "", "  ")
	} else {
		data, err = sonic.Marshal(doc)
	}
	if err != nil {
		return fmt.Errorf("序列化报告失败: %w", err)
	}

	if err := os.WriteFile(r.config.FilePath, data, 0644); err != nil {
		return fmt.Errorf("写入文件失败: %w", err)
	}
	r.written = true
	return nil
}

// Close releases the reporter.
func (r *JSONReporter) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.initialized = false
	return nil
}

// GetFilePath returns the output file path.
func (r *JSONReporter) GetFilePath() string {
	return r.config.FilePath
}

// NewJSONDocument converts a run report into its JSON layout.
func NewJSONDocument(report *types.RunReport) *JSONDocument {
	info := report.Info
	doc := &JSONDocument{
		RunID:      info.RunID,
		ServerURI:  info.ServerURI,
		Database:   info.Database,
		Parallel:   info.Parallel,
		Workers:    info.Workers,
		TimesToRun: info.TimesToRun,
		Order:      string(info.Order),
		StartedAt:  info.StartedAt,
		DurationMs: toMs(info.Duration),
		Tasks:      make([]*JSONTask, 0),
		Results:    make([]*JSONResult, 0, len(report.Results)),
	}

	if s := report.Summary; s != nil {
		doc.Totals = JSONTotals{
			Invocations: s.Total,
			Committed:   s.Committed,
			RolledBack:  s.RolledBack,
			Failed:      s.Failed,
		}
		for _, t := range s.Tasks {
			doc.Tasks = append(doc.Tasks, &JSONTask{
				TaskName:   t.TaskName,
				Kind:       string(t.Kind),
				Count:      t.Count,
				Committed:  t.Committed,
				RolledBack: t.RolledBack,
				Failed:     t.Failed,
				Duration: JSONDuration{
					MinMs:  toMs(t.Duration.Min),
					MaxMs:  toMs(t.Duration.Max),
					MeanMs: toMs(t.Duration.Mean),
					P50Ms:  toMs(t.Duration.P50),
					P90Ms:  toMs(t.Duration.P90),
					P95Ms:  toMs(t.Duration.P95),
					P99Ms:  toMs(t.Duration.P99),
				},
			})
		}
	}

	for _, res := range report.Results {
		doc.Results = append(doc.Results, &JSONResult{
			TaskName:   res.TaskName,
			Sequence:   res.Sequence,
			Kind:       string(res.Kind),
			Outcome:    string(res.Outcome),
			StartedAt:  res.StartedAt,
			DurationMs: toMs(res.Duration),
			Statements: res.Statements,
			Error:      res.Error,
		})
	}
	return doc
}

func toMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
