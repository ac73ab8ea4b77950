// Package dag computes deterministic topological orderings over the task
// dependency edges of a workflow and detects cycles and dangling references.
package dag

import (
	"sort"

	"github.com/dukex/bundlegen/pkg/models"
)

// DanglingRef records an upstream reference to a task key that does not exist
// in the workflow.
type DanglingRef struct {
	TaskKey string `json:"task_key"` // task declaring the edge
	Missing string `json:"missing"`  // referenced key that does not exist
}

// Resolution is the outcome of resolving a workflow's dependency graph.
type Resolution struct {
	// Order is a topological ordering of the valid tasks. Among tasks whose
	// predecessors are satisfied, the lexicographically smallest key is
	// emitted first, so the same workflow always resolves identically.
	Order []string

	// CycleFound is true when some tasks could not be ordered. Order then
	// holds only the acyclic prefix and Remainder the cyclic rest.
	CycleFound bool

	// Remainder lists the task keys stuck in cycles, sorted.
	Remainder []string

	// Dangling lists edges pointing at nonexistent tasks, sorted by task key
	// then missing key. Dangling edges are excluded from the graph, so the
	// referencing tasks still appear in Order.
	Dangling []DanglingRef
}

// Resolve builds the dependency graph from the workflow's upstream edges and
// runs Kahn's algorithm over it. It never fails: cycles and dangling
// references are reported in the Resolution for the caller to act on.
func Resolve(workflow *models.Workflow) Resolution {
	exists := make(map[string]bool, len(workflow.Tasks))
	for _, task := range workflow.Tasks {
		exists[task.Key] = true
	}

	indegree := make(map[string]int, len(workflow.Tasks))
	downstream := make(map[string][]string, len(workflow.Tasks))

	var resolution Resolution

	for _, task := range workflow.Tasks {
		if _, seen := indegree[task.Key]; !seen {
			indegree[task.Key] = 0
		}

		for _, upstream := range task.DependsOn {
			if !exists[upstream] {
				resolution.Dangling = append(resolution.Dangling, DanglingRef{
					TaskKey: task.Key,
					Missing: upstream,
				})

				continue
			}

			indegree[task.Key]++
			downstream[upstream] = append(downstream[upstream], task.Key)
		}
	}

	sort.Slice(resolution.Dangling, func(i, j int) bool {
		a, b := resolution.Dangling[i], resolution.Dangling[j]
		if a.TaskKey != b.TaskKey {
			return a.TaskKey < b.TaskKey
		}

		return a.Missing < b.Missing
	})

	ready := make([]string, 0, len(indegree))
	for key, degree := range indegree {
		if degree == 0 {
			ready = append(ready, key)
		}
	}

	sort.Strings(ready)

	resolution.Order = make([]string, 0, len(indegree))

	for len(ready) > 0 {
		// Pop the smallest ready key; successors are inserted in sorted
		// position to keep the tie-break deterministic.
		key := ready[0]
		ready = ready[1:]
		resolution.Order = append(resolution.Order, key)

		unlocked := make([]string, 0, len(downstream[key]))

		for _, succ := range downstream[key] {
			indegree[succ]--
			if indegree[succ] == 0 {
				unlocked = append(unlocked, succ)
			}
		}

		if len(unlocked) > 0 {
			ready = append(ready, unlocked...)
			sort.Strings(ready)
		}
	}

	if len(resolution.Order) < len(indegree) {
		resolution.CycleFound = true

		for key := range indegree {
			if indegree[key] > 0 {
				resolution.Remainder = append(resolution.Remainder, key)
			}
		}

		sort.Strings(resolution.Remainder)
	}

	return resolution
}
