package ledger

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"yqhp/graph-loadtest/pkg/types"
)

const (
	// 直方图以微秒记录，范围 1µs 到 1h，3 位有效数字
	histogramMin     = 1
	histogramMax     = int64(time.Hour / time.Microsecond)
	histogramSigFigs = 3
)

type taskAccumulator struct {
	summary *types.TaskSummary
	hist    *hdrhistogram.Histogram
	sum     time.Duration
}

// Summarize 计算每个任务的结果计数和耗时分布。
func (l *Ledger) Summarize() *types.Summary {
	return Summarize(l.Snapshot())
}

// Summarize 对给定结果计算汇总。
func Summarize(results []types.ExecutionResult) *types.Summary {
	summary := &types.Summary{Tasks: make([]*types.TaskSummary, 0)}
	accs := make(map[string]*taskAccumulator)
	order := make([]string, 0)

	for _, r := range results {
		acc, ok := accs[r.TaskName]
		if !ok {
			acc = &taskAccumulator{
				summary: &types.TaskSummary{TaskName: r.TaskName, Kind: r.Kind},
				hist:    hdrhistogram.New(histogramMin, histogramMax, histogramSigFigs),
			}
			accs[r.TaskName] = acc
			order = append(order, r.TaskName)
		}

		ts := acc.summary
		ts.Count++
		summary.Total++
		switch r.Outcome {
		case types.OutcomeCommitted:
			ts.Committed++
			summary.Committed++
		case types.OutcomeRolledBack:
			ts.RolledBack++
			summary.RolledBack++
		default:
			ts.Failed++
			summary.Failed++
		}

		if ts.Count == 1 || r.Duration < ts.Duration.Min {
			ts.Duration.Min = r.Duration
		}
		if r.Duration > ts.Duration.Max {
			ts.Duration.Max = r.Duration
		}
		acc.sum += r.Duration
		_ = acc.hist.RecordValue(toMicros(r.Duration))
	}

	for _, name := range order {
		acc := accs[name]
		ts := acc.summary
		ts.Duration.Mean = acc.sum / time.Duration(ts.Count)
		ts.Duration.P50 = quantile(acc.hist, 50)
		ts.Duration.P90 = quantile(acc.hist, 90)
		ts.Duration.P95 = quantile(acc.hist, 95)
		ts.Duration.P99 = quantile(acc.hist, 99)
		summary.Tasks = append(summary.Tasks, ts)
	}
	return summary
}

func toMicros(d time.Duration) int64 {
	us := d.Microseconds()
	if us < histogramMin {
		return histogramMin
	}
	if us > histogramMax {
		return histogramMax
	}
	return us
}

func quantile(h *hdrhistogram.Histogram, q float64) time.Duration {
	if h.TotalCount() == 0 {
		return 0
	}
	return time.Duration(h.ValueAtQuantile(q)) * time.Microsecond
}
