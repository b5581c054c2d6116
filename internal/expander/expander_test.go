package expander

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"yqhp/graph-loadtest/pkg/types"
)

func tasks(names ...string) []*types.QueryTask {
	out := make([]*types.QueryTask, len(names))
	for i, n := range names {
		out[i] = &types.QueryTask{Name: n, Kind: types.KindWrite, Statements: types.SingleStatement("RETURN 1")}
	}
	return out
}

func TestExpand_ByRepetition(t *testing.T) {
	invs := Expand(tasks("create", "verify", "abort_test"), 2, types.OrderByRepetition)
	assert.Equal(t,
		[]string{"create", "verify", "abort_test", "create", "verify", "abort_test"},
		Names(invs))
	for i, inv := range invs {
		assert.Equal(t, i, inv.Sequence)
	}
}

func TestExpand_ByTask(t *testing.T) {
	invs := Expand(tasks("a", "b"), 3, types.OrderByTask)
	assert.Equal(t, []string{"a", "a", "a", "b", "b", "b"}, Names(invs))
}

func TestExpand_DefaultOrderIsByRepetition(t *testing.T) {
	invs := Expand(tasks("a", "b"), 2, "")
	assert.Equal(t, []string{"a", "b", "a", "b"}, Names(invs))
}

func TestExpand_Empty(t *testing.T) {
	assert.Empty(t, Expand(tasks("a", "b"), 0, types.OrderByRepetition))
	assert.Empty(t, Expand(nil, 5, types.OrderByTask))
	assert.NotNil(t, Expand(nil, 5, types.OrderByTask))
}

func TestExpand_SharesTaskPointers(t *testing.T) {
	ts := tasks("a")
	invs := Expand(ts, 3, types.OrderByRepetition)
	for _, inv := range invs {
		assert.Same(t, ts[0], inv.Task)
	}
}

// TestExpandCountProperty: every task name appears exactly N times, the total
// is N*k, and both orders are permutations of each other.
func TestExpandCountProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		k := rapid.IntRange(0, 8).Draw(t, "k")
		n := rapid.IntRange(0, 12).Draw(t, "n")
		names := make([]string, k)
		for i := range names {
			names[i] = fmt.Sprintf("q%d", i)
		}
		order := rapid.SampledFrom([]types.Order{types.OrderByRepetition, types.OrderByTask}).Draw(t, "order")

		invs := Expand(tasks(names...), n, order)
		if len(invs) != n*k {
			t.Fatalf("expected %d invocations, got %d", n*k, len(invs))
		}

		counts := map[string]int{}
		for i, inv := range invs {
			if inv.Sequence != i {
				t.Fatalf("sequence %d at position %d", inv.Sequence, i)
			}
			counts[inv.Task.Name]++
		}
		if n > 0 {
			for _, name := range names {
				if counts[name] != n {
					t.Fatalf("%s appears %d times, want %d", name, counts[name], n)
				}
			}
		}
	})
}

// TestExpandByRepetitionPrefixProperty: under by-repetition every block of k
// invocations is the query list in configuration order.
func TestExpandByRepetitionPrefixProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		k := rapid.IntRange(1, 6).Draw(t, "k")
		n := rapid.IntRange(1, 10).Draw(t, "n")
		names := make([]string, k)
		for i := range names {
			names[i] = fmt.Sprintf("q%d", i)
		}

		got := Names(Expand(tasks(names...), n, types.OrderByRepetition))
		for block := 0; block < n; block++ {
			for i, name := range names {
				if got[block*k+i] != name {
					t.Fatalf("block %d position %d: got %s want %s", block, i, got[block*k+i], name)
				}
			}
		}
	})
}
