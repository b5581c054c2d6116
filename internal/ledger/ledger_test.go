package ledger

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"yqhp/graph-loadtest/pkg/types"
)

func result(name string, outcome types.Outcome, d time.Duration) types.ExecutionResult {
	return types.ExecutionResult{TaskName: name, Kind: types.KindWrite, Outcome: outcome, Duration: d}
}

func TestLedger_RecordAndRows(t *testing.T) {
	l := New()
	l.Record(result("create", types.OutcomeCommitted, 1500*time.Microsecond))
	l.Record(result("abort_test", types.OutcomeRolledBack, 2*time.Second))

	require.Equal(t, 2, l.Len())
	rows := l.Rows()
	assert.Equal(t, "run_cypher", rows[0].FunctionName)
	assert.Equal(t, "create", rows[0].StepName)
	assert.Equal(t, "0.0015", rows[0].FormattedTime())
	assert.Equal(t, "abort_test", rows[1].StepName)
	assert.Equal(t, "2.0000", rows[1].FormattedTime())
}

func TestLedger_SnapshotIsACopy(t *testing.T) {
	l := New()
	l.Record(result("a", types.OutcomeCommitted, time.Millisecond))
	snap := l.Snapshot()
	snap[0].TaskName = "mutated"
	assert.Equal(t, "a", l.Snapshot()[0].TaskName)
}

func TestLedger_ConcurrentRecord(t *testing.T) {
	const writers, perWriter = 16, 200
	l := New()

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				l.Record(types.ExecutionResult{TaskName: fmt.Sprintf("w%d", w), Sequence: i})
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, writers*perWriter, l.Len())
	counts := map[string]int{}
	for _, r := range l.Snapshot() {
		counts[r.TaskName]++
	}
	for w := 0; w < writers; w++ {
		assert.Equal(t, perWriter, counts[fmt.Sprintf("w%d", w)])
	}
}

func TestSummarize_CountsByOutcome(t *testing.T) {
	l := New()
	l.Record(result("create", types.OutcomeCommitted, 10*time.Millisecond))
	l.Record(result("verify", types.OutcomeCommitted, 20*time.Millisecond))
	l.Record(result("create", types.OutcomeFailed, 30*time.Millisecond))
	l.Record(result("abort_test", types.OutcomeRolledBack, 40*time.Millisecond))

	s := l.Summarize()
	assert.Equal(t, int64(4), s.Total)
	assert.Equal(t, int64(2), s.Committed)
	assert.Equal(t, int64(1), s.RolledBack)
	assert.Equal(t, int64(1), s.Failed)

	require.Len(t, s.Tasks, 3)
	assert.Equal(t, "create", s.Tasks[0].TaskName, "tasks keep first-appearance order")
	assert.Equal(t, "verify", s.Tasks[1].TaskName)
	assert.Equal(t, "abort_test", s.Tasks[2].TaskName)

	create, ok := s.Task("create")
	require.True(t, ok)
	assert.Equal(t, int64(2), create.Count)
	assert.Equal(t, int64(1), create.Committed)
	assert.Equal(t, int64(1), create.Failed)
	assert.Equal(t, 10*time.Millisecond, create.Duration.Min)
	assert.Equal(t, 30*time.Millisecond, create.Duration.Max)
	assert.Equal(t, 20*time.Millisecond, create.Duration.Mean)

	_, ok = s.Task("missing")
	assert.False(t, ok)
}

func TestSummarize_Percentiles(t *testing.T) {
	results := make([]types.ExecutionResult, 0, 100)
	for i := 1; i <= 100; i++ {
		results = append(results, result("q", types.OutcomeCommitted, time.Duration(i)*time.Millisecond))
	}

	d := Summarize(results).Tasks[0].Duration
	assert.InEpsilon(t, float64(50*time.Millisecond), float64(d.P50), 0.01)
	assert.InEpsilon(t, float64(90*time.Millisecond), float64(d.P90), 0.01)
	assert.InEpsilon(t, float64(95*time.Millisecond), float64(d.P95), 0.01)
	assert.InEpsilon(t, float64(99*time.Millisecond), float64(d.P99), 0.01)
	assert.Equal(t, time.Millisecond, d.Min)
	assert.Equal(t, 100*time.Millisecond, d.Max)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Total)
	assert.Empty(t, s.Tasks)
	assert.NotNil(t, s.Tasks)
}

// TestSummarizeTotalsProperty: per-task counts add up to the run totals and
// percentiles stay within [min, max] up to histogram precision.
func TestSummarizeTotalsProperty(t *testing.T) {
	outcomes := []types.Outcome{types.OutcomeCommitted, types.OutcomeRolledBack, types.OutcomeFailed}
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 200).Draw(t, "n")
		results := make([]types.ExecutionResult, n)
		for i := range results {
			results[i] = result(
				rapid.SampledFrom([]string{"a", "b", "c"}).Draw(t, "name"),
				rapid.SampledFrom(outcomes).Draw(t, "outcome"),
				time.Duration(rapid.Int64Range(1, int64(time.Second)).Draw(t, "d")),
			)
		}

		s := Summarize(results)
		if s.Total != int64(n) || s.Committed+s.RolledBack+s.Failed != s.Total {
			t.Fatalf("totals do not add up: %+v", s)
		}
		var sum int64
		for _, ts := range s.Tasks {
			sum += ts.Count
			if ts.Committed+ts.RolledBack+ts.Failed != ts.Count {
				t.Fatalf("task %s counts do not add up", ts.TaskName)
			}
			if ts.Duration.Min > ts.Duration.Mean || ts.Duration.Mean > ts.Duration.Max {
				t.Fatalf("task %s mean outside [min, max]", ts.TaskName)
			}
			slack := ts.Duration.Max/500 + time.Microsecond
			if ts.Duration.P99 > ts.Duration.Max+slack {
				t.Fatalf("task %s p99 %v above max %v", ts.TaskName, ts.Duration.P99, ts.Duration.Max)
			}
		}
		if sum != s.Total {
			t.Fatalf("task counts sum to %d, want %d", sum, s.Total)
		}
	})
}
