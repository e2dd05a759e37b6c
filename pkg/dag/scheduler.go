// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package dag

import (
	"github.com/gammazero/toposort"
)

// Scheduler performs dependency resolution over a set of Nodes.
type Scheduler struct{}

// BuildExecutionOrder performs a topological sort of nodes and returns a
// flat execution order alongside a cyclic flag.
//
// When the graph is acyclic, order is the usual dependencies-before-
// dependents ordering (spec §4.4 step 1 / §4.5 DAG invariant).
//
// When a cycle exists, spec §9 requires the defensive policy of treating
// the cyclic nodes as if they had no dependencies, rather than failing
// assignment or execution outright (decomposition.Validate still rejects
// a cyclic graph); the cycle must still be surfaced
// by the caller (e.g. in TaskResult.errors). BuildExecutionOrder signals
// this via the returned cyclic bool instead of an error, so callers can
// decide how to report it.
func (s *Scheduler) BuildExecutionOrder(nodes []Node) (order []string, cyclic bool) {
	if len(nodes) == 0 {
		return []string{}, false
	}

	edges := make([]toposort.Edge, 0)
	for _, n := range nodes {
		for _, dep := range n.Dependencies() {
			edges = append(edges, toposort.Edge{dep, n.Name()})
		}
	}

	if len(edges) == 0 {
		flat := make([]string, 0, len(nodes))
		for _, n := range nodes {
			flat = append(flat, n.Name())
		}
		return flat, false
	}

	sorted, err := toposort.Toposort(edges)
	if err == nil {
		inSorted := make(map[string]bool, len(sorted))
		flat := make([]string, 0, len(nodes))
		for _, node := range sorted {
			name := node.(string)
			inSorted[name] = true
			flat = append(flat, name)
		}
		// Prepend nodes that never appeared as an edge endpoint (isolated roots).
		for _, n := range nodes {
			if !inSorted[n.Name()] {
				flat = append([]string{n.Name()}, flat...)
			}
		}
		return flat, false
	}

	// Cycle detected: fall back to Kahn's algorithm, treating any node
	// whose dependencies never fully resolve as a root (spec §9).
	return kahnDefensive(nodes), true
}

// kahnDefensive runs Kahn's algorithm and appends any leftover (cyclic)
// nodes in their original input order, as if they had no dependencies.
func kahnDefensive(nodes []Node) []string {
	inDegree := make(map[string]int, len(nodes))
	adjacency := make(map[string][]string, len(nodes))
	present := make(map[string]bool, len(nodes))

	for _, n := range nodes {
		present[n.Name()] = true
	}
	for _, n := range nodes {
		for _, dep := range n.Dependencies() {
			if !present[dep] {
				continue // dangling dependency, ignore for ordering purposes
			}
			inDegree[n.Name()]++
			adjacency[dep] = append(adjacency[dep], n.Name())
		}
	}

	queue := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if inDegree[n.Name()] == 0 {
			queue = append(queue, n.Name())
		}
	}

	resolved := make(map[string]bool, len(nodes))
	order := make([]string, 0, len(nodes))
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if resolved[name] {
			continue
		}
		resolved[name] = true
		order = append(order, name)

		for _, dependent := range adjacency[name] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	for _, n := range nodes {
		if !resolved[n.Name()] {
			order = append(order, n.Name())
		}
	}

	return order
}
