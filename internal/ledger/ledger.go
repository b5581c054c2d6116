// Package ledger 收集一次运行中所有调用的执行结果。
package ledger

import (
	"sync"

	"yqhp/graph-loadtest/pkg/types"
)

// Ledger 是一次运行共享的只追加结果序列。
// Record 是唯一的写入方法，可被多个 worker 并发调用。
type Ledger struct {
	mu      sync.Mutex
	results []types.ExecutionResult
}

// New 创建一个空的 Ledger。
func New() *Ledger {
	return &Ledger{results: make([]types.ExecutionResult, 0, 64)}
}

// Record 追加一条执行结果。
func (l *Ledger) Record(result types.ExecutionResult) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.results = append(l.results, result)
}

// Len 返回已记录的结果数。
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.results)
}

// Snapshot 返回按写入顺序排列的结果副本。
func (l *Ledger) Snapshot() []types.ExecutionResult {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]types.ExecutionResult, len(l.results))
	copy(out, l.results)
	return out
}

// Rows 返回报表行，每条结果一行，顺序与写入顺序一致。
func (l *Ledger) Rows() []types.MetricRow {
	snapshot := l.Snapshot()
	rows := make([]types.MetricRow, len(snapshot))
	for i, r := range snapshot {
		rows[i] = types.NewMetricRow(r)
	}
	return rows
}
