package file

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"yqhp/graph-loadtest/pkg/types"
)

// DefaultCSVPath is the report file written when none is given.
const DefaultCSVPath = "run_time_metrics.csv"

// csvHeader is the fixed header of the per-invocation report.
var csvHeader = []string{"function_name", "step_name", "time_in_seconds"}

// CSVConfig holds configuration for the CSV reporter.
type CSVConfig struct {
	// FilePath is the output file path.
	FilePath string `yaml:"file_path"`
	// Delimiter is the field delimiter (default: comma).
	Delimiter rune `yaml:"delimiter"`
}

// DefaultCSVConfig returns the default CSV reporter configuration.
func DefaultCSVConfig() *CSVConfig {
	return &CSVConfig{
		FilePath:  DefaultCSVPath,
		Delimiter: ',',
	}
}

// CSVReporter writes one row per invocation, in ledger order. The header is
// written on Init, so a run without invocations still leaves a
// header-only file.
type CSVReporter struct {
	config *CSVConfig
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex

	initialized bool
	rows        int
}

// NewCSVReporter creates a new CSV reporter.
func NewCSVReporter(config *CSVConfig) *CSVReporter {
	if config == nil {
		config = DefaultCSVConfig()
	}
	if config.Delimiter == 0 {
		config.Delimiter = ','
	}
	if config.FilePath == "" {
		config.FilePath = DefaultCSVPath
	}
	return &CSVReporter{config: config}
}

// NewCSVFactory returns a factory function for creating CSV reporters.
func NewCSVFactory() func(config map[string]any) (*CSVReporter, error) {
	return func(config map[string]any) (*CSVReporter, error) {
		cfg := DefaultCSVConfig()
		if config != nil {
			if v, ok := config["file_path"].(string); ok {
				cfg.FilePath = v
			}
			if v, ok := config["delimiter"].(string); ok {
				if len(v) != 1 {
					return nil, fmt.Errorf("delimiter must be a single character, got %q", v)
				}
				cfg.Delimiter = rune(v[0])
			}
		}
		return NewCSVReporter(cfg), nil
	}
}

// Name returns the reporter name.
func (r *CSVReporter) Name() string {
	return "csv"
}

// Init creates the file and writes the header.
func (r *CSVReporter) Init(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return fmt.Errorf("报告器已初始化")
	}

	if err := ensureDir(r.config.FilePath); err != nil {
		return err
	}

	file, err := os.Create(r.config.FilePath)
	if err != nil {
		return fmt.Errorf("创建文件失败: %w", err)
	}

	r.file = file
	r.writer = csv.NewWriter(file)
	r.writer.Comma = r.config.Delimiter

	if err := r.writer.Write(csvHeader); err != nil {
		r.file.Close()
		return fmt.Errorf("写入头部失败: %w", err)
	}
	r.writer.Flush()

	r.initialized = true
	return nil
}

// Report appends one row per result.
func (r *CSVReporter) Report(ctx context.Context, report *types.RunReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized {
		return fmt.Errorf("报告器未初始化")
	}

	for _, row := range report.Rows() {
		if err := r.writer.Write([]string{row.FunctionName, row.StepName, row.FormattedTime()}); err != nil {
			return fmt.Errorf("写入记录失败: %w", err)
		}
		r.rows++
	}
	r.writer.Flush()
	return r.writer.Error()
}

// Close flushes and closes the file.
func (r *CSVReporter) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized {
		return nil
	}

	r.writer.Flush()
	if err := r.writer.Error(); err != nil {
		r.file.Close()
		return fmt.Errorf("CSV 写入错误: %w", err)
	}

	if err := r.file.Close(); err != nil {
		return fmt.Errorf("关闭文件失败: %w", err)
	}

	r.initialized = false
	r.file = nil
	r.writer = nil
	return nil
}

// GetFilePath returns the output file path.
func (r *CSVReporter) GetFilePath() string {
	return r.config.FilePath
}

// RowsWritten returns the number of data rows written so far.
func (r *CSVReporter) RowsWritten() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建目录失败: %w", err)
		}
	}
	return nil
}
