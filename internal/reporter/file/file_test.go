package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yqhp/graph-loadtest/pkg/types"
)

func sampleReport() *types.RunReport {
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &types.RunReport{
		Info: types.RunInfo{
			RunID:      "run-1",
			ServerURI:  "memory://",
			Workers:    10,
			TimesToRun: 1,
			Order:      types.OrderByRepetition,
			StartedAt:  started,
			Duration:   1500 * time.Millisecond,
		},
		Results: []types.ExecutionResult{
			{TaskName: "create", Sequence: 0, Kind: types.KindWrite, Outcome: types.OutcomeCommitted, StartedAt: started, Duration: 12345 * time.Microsecond, Statements: 1},
			{TaskName: "abort_test", Sequence: 1, Kind: types.KindRollback, Outcome: types.OutcomeRolledBack, StartedAt: started, Duration: 2 * time.Second, Statements: 2},
			{TaskName: "verify", Sequence: 2, Kind: types.KindRead, Outcome: types.OutcomeFailed, StartedAt: started, Duration: 60 * time.Microsecond, Error: "[CONNECTION_ERROR] open session failed"},
		},
		Summary: &types.Summary{
			Total: 3, Committed: 1, RolledBack: 1, Failed: 1,
			Tasks: []*types.TaskSummary{
				{TaskName: "create", Kind: types.KindWrite, Count: 1, Committed: 1,
					Duration: types.DurationStats{Min: 12345 * time.Microsecond, Max: 12345 * time.Microsecond, Mean: 12345 * time.Microsecond}},
			},
		},
	}
}

func TestCSVReporter_WritesRowsInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run_time_metrics.csv")
	r := NewCSVReporter(&CSVConfig{FilePath: path})
	ctx := context.Background()

	require.NoError(t, r.Init(ctx))
	require.NoError(t, r.Report(ctx, sampleReport()))
	require.NoError(t, r.Close(ctx))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"function_name,step_name,time_in_seconds\n"+
			"run_cypher,create,0.0123\n"+
			"run_cypher,abort_test,2.0000\n"+
			"run_cypher,verify,0.0001\n",
		string(data))
	assert.Equal(t, 3, r.RowsWritten())
}

func TestCSVReporter_EmptyRunWritesHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "empty.csv")
	r := NewCSVReporter(&CSVConfig{FilePath: path})
	ctx := context.Background()

	require.NoError(t, r.Init(ctx))
	require.NoError(t, r.Report(ctx, &types.RunReport{}))
	require.NoError(t, r.Close(ctx))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "function_name,step_name,time_in_seconds\n", string(data))
}

func TestCSVReporter_Lifecycle(t *testing.T) {
	r := NewCSVReporter(&CSVConfig{FilePath: filepath.Join(t.TempDir(), "x.csv")})
	ctx := context.Background()

	assert.Error(t, r.Report(ctx, sampleReport()), "report before init")
	assert.NoError(t, r.Close(ctx), "close before init is a no-op")
	require.NoError(t, r.Init(ctx))
	assert.Error(t, r.Init(ctx), "double init")
	require.NoError(t, r.Close(ctx))
}

func TestCSVFactory(t *testing.T) {
	r, err := NewCSVFactory()(map[string]any{"file_path": "a.csv", "delimiter": ";"})
	require.NoError(t, err)
	assert.Equal(t, "a.csv", r.GetFilePath())
	assert.Equal(t, ';', r.config.Delimiter)

	_, err = NewCSVFactory()(map[string]any{"delimiter": ";;"})
	assert.Error(t, err)

	r, err = NewCSVFactory()(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultCSVPath, r.GetFilePath())
}

func TestJSONReporter_WritesDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	r, err := NewJSONFactory()(map[string]any{"file_path": path})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, r.Init(ctx))
	require.NoError(t, r.Report(ctx, sampleReport()))
	require.NoError(t, r.Close(ctx))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc JSONDocument
	require.NoError(t, sonic.Unmarshal(data, &doc))
	assert.Equal(t, "run-1", doc.RunID)
	assert.Equal(t, "by-repetition", doc.Order)
	assert.Equal(t, 1500.0, doc.DurationMs)
	assert.Equal(t, JSONTotals{Invocations: 3, Committed: 1, RolledBack: 1, Failed: 1}, doc.Totals)
	require.Len(t, doc.Tasks, 1)
	assert.Equal(t, 12.345, doc.Tasks[0].Duration.MeanMs)
	require.Len(t, doc.Results, 3)
	assert.Equal(t, "rolled_back", doc.Results[1].Outcome)
	assert.Equal(t, "[CONNECTION_ERROR] open session failed", doc.Results[2].Error)
	assert.Empty(t, doc.Results[0].Error)
}

func TestJSONFactory_RequiresPath(t *testing.T) {
	_, err := NewJSONFactory()(map[string]any{"file_path": ""})
	assert.Error(t, err)
}

func TestNewJSONDocument_NoSummary(t *testing.T) {
	doc := NewJSONDocument(&types.RunReport{})
	assert.NotNil(t, doc.Tasks)
	assert.NotNil(t, doc.Results)
	assert.Zero(t, doc.Totals.Invocations)
}
