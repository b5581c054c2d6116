package types

import (
	"strconv"
	"time"
)

// Outcome is the terminal state of one invocation.
type Outcome string

const (
	// OutcomeCommitted indicates every statement ran and the transaction committed.
	OutcomeCommitted Outcome = "committed"
	// OutcomeRolledBack indicates a rollback task reverted its transaction.
	OutcomeRolledBack Outcome = "rolled_back"
	// OutcomeFailed indicates a connection, statement or commit failure.
	OutcomeFailed Outcome = "failed"
)

// ExecutionResult is the record produced by one invocation.
// It is appended to the ledger once and never mutated afterwards.
type ExecutionResult struct {
	TaskName  string        `json:"task_name"`
	Sequence  int           `json:"sequence"`
	Kind      QueryKind     `json:"kind"`
	Outcome   Outcome       `json:"outcome"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	// Statements is how many statements ran successfully before the outcome.
	Statements int    `json:"statements"`
	Error      string `json:"error,omitempty"`
}

// Seconds returns the duration in seconds.
func (r ExecutionResult) Seconds() float64 {
	return r.Duration.Seconds()
}

// MetricFunctionName is the function_name column value of every report row.
const MetricFunctionName = "run_cypher"

// MetricRow is one row of the tabular report.
type MetricRow struct {
	FunctionName  string  `json:"function_name"`
	StepName      string  `json:"step_name"`
	TimeInSeconds float64 `json:"time_in_seconds"`
}

// NewMetricRow converts a result into a report row.
func NewMetricRow(r ExecutionResult) MetricRow {
	return MetricRow{
		FunctionName:  MetricFunctionName,
		StepName:      r.TaskName,
		TimeInSeconds: r.Seconds(),
	}
}

// FormattedTime returns the time with 4 decimals.
func (m MetricRow) FormattedTime() string {
	return strconv.FormatFloat(m.TimeInSeconds, 'f', 4, 64)
}
