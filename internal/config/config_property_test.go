package config

import (
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"yqhp/graph-loadtest/pkg/types"
)

// TestRunConfigRoundTripProperty: deserialize(serialize(config)) keeps the
// query order, kinds, statement shapes and run settings.
func TestRunConfigRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("config round-trip preserves data", prop.ForAll(
		func(cfg *RunConfig) bool {
			data, err := cfg.Serialize()
			if err != nil {
				return false
			}
			parsed, err := ParseConfig(data)
			if err != nil {
				return false
			}
			return runConfigsEqual(cfg, parsed)
		},
		genRunConfig(),
	))

	properties.TestingRun(t)
}

func runConfigsEqual(a, b *RunConfig) bool {
	if a.ServerURI != b.ServerURI || a.Database != b.Database ||
		a.Parallel != b.Parallel || a.TimesToRun != b.TimesToRun ||
		a.Workers != b.Workers || a.Order != b.Order || a.TxTimeout != b.TxTimeout {
		return false
	}
	ta, errA := a.Tasks()
	tb, errB := b.Tasks()
	if errA != nil || errB != nil || len(ta) != len(tb) {
		return false
	}
	for i := range ta {
		if ta[i].Name != tb[i].Name || ta[i].Kind != tb[i].Kind ||
			ta[i].Statements.Single() != tb[i].Statements.Single() {
			return false
		}
		sa, sb := ta[i].Statements.All(), tb[i].Statements.All()
		if len(sa) != len(sb) {
			return false
		}
		for j := range sa {
			if sa[j] != sb[j] {
				return false
			}
		}
	}
	return true
}

func genRunConfig() gopter.Gen {
	return gopter.CombineGens(
		gen.Bool(),
		gen.IntRange(0, 50),
		gen.IntRange(1, 32),
		gen.OneConstOf(types.OrderByRepetition, types.OrderByTask),
		gen.IntRange(0, 30),
		gen.SliceOfN(5, genQueryEntry()),
		gen.IntRange(0, 5),
	).Map(func(values []interface{}) *RunConfig {
		cfg := DefaultConfig()
		cfg.Parallel = values[0].(bool)
		cfg.TimesToRun = values[1].(int)
		cfg.Workers = values[2].(int)
		cfg.Order = values[3].(types.Order)
		cfg.TxTimeout = time.Duration(values[4].(int)) * time.Second

		entries := values[5].([]QueryEntry)
		n := values[6].(int)
		for i := range entries[:n] {
			entries[i].Name = fmt.Sprintf("query_%d", i)
		}
		cfg.Queries = NewQuerySet(entries[:n]...)
		return cfg
	})
}

func genQueryEntry() gopter.Gen {
	return gopter.CombineGens(
		gen.OneConstOf("read", "write", "rollback"),
		gen.Bool(),
		gen.SliceOfN(3, gen.AlphaString()),
		gen.IntRange(1, 3),
	).Map(func(values []interface{}) QueryEntry {
		raw := values[2].([]string)
		stmts := make([]string, 0, len(raw))
		for i, s := range raw {
			stmts = append(stmts, fmt.Sprintf("RETURN '%s' AS v%d", s, i))
		}

		var cql CQL
		if values[1].(bool) {
			cql = CQL{types.SingleStatement(stmts[0])}
		} else {
			cql = CQL{types.StatementList(stmts[:values[3].(int)]...)}
		}
		return QueryEntry{Spec: QuerySpec{Type: values[0].(string), CQL: cql}}
	})
}
