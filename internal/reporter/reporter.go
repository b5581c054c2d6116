// Package reporter 提供运行结束后的报告输出框架。
//
// 一次运行结束、所有调用都已写入 ledger 之后，Manager 把同一份
// types.RunReport 交给每个已启用的报告器：
//
//	registry, _ := reporter.NewDefaultRegistry()
//	manager := reporter.NewManager(registry)
//	manager.AddReporterFromConfig(ctx, &reporter.ReporterConfig{
//	    Type:    reporter.ReporterTypeCSV,
//	    Enabled: true,
//	    Config:  map[string]any{"file_path": "run_time_metrics.csv"},
//	})
//	manager.Report(ctx, report)
//	manager.Close(ctx)
package reporter

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"yqhp/graph-loadtest/pkg/types"
)

// Reporter 定义了报告输出的接口。
type Reporter interface {
	// Name 返回报告器名称。
	Name() string

	// Init 准备输出目标，例如创建文件并写入表头。
	Init(ctx context.Context) error

	// Report 输出一次运行的报告。
	Report(ctx context.Context, report *types.RunReport) error

	// Close 关闭报告器并释放资源。
	Close(ctx context.Context) error
}

// ReporterType 定义报告器类型。
type ReporterType string

const (
	// ReporterTypeConsole 输出汇总表到控制台。
	ReporterTypeConsole ReporterType = "console"
	// ReporterTypeCSV 输出每次调用一行的 CSV 文件。
	ReporterTypeCSV ReporterType = "csv"
	// ReporterTypeJSON 输出包含结果和汇总的 JSON 文件。
	ReporterTypeJSON ReporterType = "json"
)

// ReporterConfig 保存报告器的配置。
type ReporterConfig struct {
	Type    ReporterType   `yaml:"type"`
	Enabled bool           `yaml:"enabled"`
	Config  map[string]any `yaml:"config,omitempty"`
}

// ReporterFactory 创建特定类型的报告器。
type ReporterFactory func(config map[string]any) (Reporter, error)

// Registry 管理报告器的注册和创建。
type Registry struct {
	factories map[ReporterType]ReporterFactory
	mu        sync.RWMutex
}

// NewRegistry 创建一个新的报告器注册表。
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[ReporterType]ReporterFactory),
	}
}

// Register 为指定类型注册报告器工厂。
func (r *Registry) Register(reporterType ReporterType, factory ReporterFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[reporterType]; exists {
		return fmt.Errorf("报告器类型已注册: %s", reporterType)
	}

	r.factories[reporterType] = factory
	return nil
}

// Create 创建指定类型的报告器。
func (r *Registry) Create(reporterType ReporterType, config map[string]any) (Reporter, error) {
	r.mu.RLock()
	factory, exists := r.factories[reporterType]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("未知的报告器类型: %s", reporterType)
	}

	return factory(config)
}

// ListTypes 返回所有已注册的报告器类型，按名称排序。
func (r *Registry) ListTypes() []ReporterType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]ReporterType, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// HasType 检查报告器类型是否已注册。
func (r *Registry) HasType(reporterType ReporterType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.factories[reporterType]
	return exists
}
