// Package expander turns the configured query list into the ordered list of
// invocations a run executes.
package expander

import (
	"github.com/duke-git/lancet/v2/slice"

	"yqhp/graph-loadtest/pkg/types"
)

// Expand returns every task exactly timesToRun times, arranged by order.
// Sequence numbers are the 0-based positions in the returned slice.
// timesToRun <= 0 or an empty task list yields an empty slice.
func Expand(tasks []*types.QueryTask, timesToRun int, order types.Order) []types.TaskInvocation {
	if timesToRun <= 0 || len(tasks) == 0 {
		return []types.TaskInvocation{}
	}

	out := make([]types.TaskInvocation, 0, len(tasks)*timesToRun)
	add := func(task *types.QueryTask) {
		out = append(out, types.TaskInvocation{Task: task, Sequence: len(out)})
	}

	switch order {
	case types.OrderByTask:
		for _, task := range tasks {
			for i := 0; i < timesToRun; i++ {
				add(task)
			}
		}
	default:
		for i := 0; i < timesToRun; i++ {
			for _, task := range tasks {
				add(task)
			}
		}
	}
	return out
}

// Names returns the task names of invs in order.
func Names(invs []types.TaskInvocation) []string {
	return slice.Map(invs, func(_ int, inv types.TaskInvocation) string {
		return inv.Task.Name
	})
}
