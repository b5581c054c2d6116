package runner

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"

	"yqhp/graph-loadtest/internal/graph"
	"yqhp/graph-loadtest/pkg/logger"
)

const mixedConfig = baseConfig + `
  broken:
    type: write
    cql:
      - "CREATE (:Partial)"
      - "FAIL here"
`

// TestParallelMatchesSequentialProperty: with any worker count the parallel
// run yields the same multiset of (task, outcome) as the sequential run.
func TestParallelMatchesSequentialProperty(t *testing.T) {
	logger.Set(zap.NewNop())
	dir := t.TempDir()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30

	properties := gopter.NewProperties(parameters)

	properties.Property("parallel and sequential outcomes agree", prop.ForAll(
		func(workers, times int) bool {
			seq, ok := outcomeMultiset(t, dir, false, workers, times)
			if !ok {
				return false
			}
			par, ok := outcomeMultiset(t, dir, true, workers, times)
			if !ok || len(seq) != len(par) {
				return false
			}
			for i := range seq {
				if seq[i] != par[i] {
					return false
				}
			}
			return len(seq) == 4*times
		},
		gen.IntRange(1, 6),
		gen.IntRange(0, 6),
	))

	properties.TestingRun(t)
}

func outcomeMultiset(t *testing.T, dir string, parallel bool, workers, times int) ([]string, bool) {
	cfg := loadConfig(t, mixedConfig)
	cfg.Parallel = parallel
	cfg.Workers = workers
	cfg.TimesToRun = times

	g := graph.NewMemoryGraph()
	g.FailOn(func(stmt string) error {
		if strings.HasPrefix(stmt, "FAIL") {
			return errors.New("injected")
		}
		return nil
	})

	res, err := Run(context.Background(), cfg, Options{
		ReportPath: filepath.Join(dir, "prop.csv"),
		Quiet:      true,
		Graph:      g,
	})
	if err != nil || g.OpenSessions() != 0 {
		return nil, false
	}

	out := make([]string, 0, len(res.Report.Results))
	for _, r := range res.Report.Results {
		out = append(out, r.TaskName+"/"+string(r.Outcome))
	}
	sort.Strings(out)
	return out, true
}
