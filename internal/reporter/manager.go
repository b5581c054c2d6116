package reporter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"yqhp/graph-loadtest/pkg/logger"
	"yqhp/graph-loadtest/pkg/types"
)

// Manager 管理一次运行的多个报告器。
type Manager struct {
	registry  *Registry
	reporters []Reporter
	mu        sync.RWMutex
}

// NewManager creates a new reporter manager.
func NewManager(registry *Registry) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Manager{
		registry:  registry,
		reporters: make([]Reporter, 0),
	}
}

// AddReporter adds an initialized reporter.
func (m *Manager) AddReporter(reporter Reporter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reporters = append(m.reporters, reporter)
}

// AddReporterFromConfig creates, initializes and adds a reporter.
// Disabled configs are ignored.
func (m *Manager) AddReporterFromConfig(ctx context.Context, config *ReporterConfig) error {
	if config == nil || !config.Enabled {
		return nil
	}

	reporter, err := m.registry.Create(config.Type, config.Config)
	if err != nil {
		return fmt.Errorf("创建报告器 %s 失败: %w", config.Type, err)
	}

	if err := reporter.Init(ctx); err != nil {
		return fmt.Errorf("初始化报告器 %s 失败: %w", config.Type, err)
	}

	m.AddReporter(reporter)
	return nil
}

// Report sends the report to every reporter. A failing reporter does not
// stop the others.
func (m *Manager) Report(ctx context.Context, report *types.RunReport) error {
	var errs []error
	for _, reporter := range m.snapshot() {
		if err := reporter.Report(ctx, report); err != nil {
			logger.Error("report failed", zap.String("reporter", reporter.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", reporter.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Close closes every reporter.
func (m *Manager) Close(ctx context.Context) error {
	var errs []error
	for _, reporter := range m.snapshot() {
		if err := reporter.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", reporter.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Names returns the names of the managed reporters in insertion order.
func (m *Manager) Names() []string {
	reporters := m.snapshot()
	names := make([]string, len(reporters))
	for i, r := range reporters {
		names[i] = r.Name()
	}
	return names
}

func (m *Manager) snapshot() []Reporter {
	m.mu.RLock()
	defer m.mu.RUnlock()
	reporters := make([]Reporter, len(m.reporters))
	copy(reporters, m.reporters)
	return reporters
}
