package types

import "time"

// DurationStats contains timing statistics of one task.
type DurationStats struct {
	Min  time.Duration `json:"min"`
	Max  time.Duration `json:"max"`
	Mean time.Duration `json:"mean"`
	P50  time.Duration `json:"p50"`
	P90  time.Duration `json:"p90"`
	P95  time.Duration `json:"p95"`
	P99  time.Duration `json:"p99"`
}

// TaskSummary aggregates every result of one task.
type TaskSummary struct {
	TaskName   string        `json:"task_name"`
	Kind       QueryKind     `json:"kind"`
	Count      int64         `json:"count"`
	Committed  int64         `json:"committed"`
	RolledBack int64         `json:"rolled_back"`
	Failed     int64         `json:"failed"`
	Duration   DurationStats `json:"duration"`
}

// Summary aggregates a whole run. Tasks keep first-appearance order.
type Summary struct {
	Total      int64          `json:"total"`
	Committed  int64          `json:"committed"`
	RolledBack int64          `json:"rolled_back"`
	Failed     int64          `json:"failed"`
	Tasks      []*TaskSummary `json:"tasks"`
}

// Task looks up a task summary by name.
func (s *Summary) Task(name string) (*TaskSummary, bool) {
	for _, t := range s.Tasks {
		if t.TaskName == name {
			return t, true
		}
	}
	return nil, false
}

// RunInfo describes how a run was configured.
type RunInfo struct {
	RunID      string        `json:"run_id"`
	ServerURI  string        `json:"server_uri"`
	Database   string        `json:"database,omitempty"`
	Parallel   bool          `json:"parallel"`
	Workers    int           `json:"workers"`
	TimesToRun int           `json:"times_to_run"`
	Order      Order         `json:"order"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
}

// RunReport is everything a reporter receives after the run finished.
type RunReport struct {
	Info    RunInfo           `json:"info"`
	Results []ExecutionResult `json:"results"`
	Summary *Summary          `json:"summary"`
}

// Rows converts the results into report rows, in ledger order.
func (r *RunReport) Rows() []MetricRow {
	rows := make([]MetricRow, len(r.Results))
	for i, res := range r.Results {
		rows[i] = NewMetricRow(res)
	}
	return rows
}
