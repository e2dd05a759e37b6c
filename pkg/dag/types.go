// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

// Package dag provides the generic topological scheduler shared by the
// role/assignment package (spec §4.4 step 1), the task decomposition
// package (spec §4.5), and the swarm coordinator's executors (spec §4.6).
//
// Generalised from the teacher's shell-task DAG engine: the Node
// interface replaces the original single Task{Name,Command,Deps} struct
// so the same gammazero/toposort-backed scheduler serves SubTask
// scheduling instead of shell command scheduling.
package dag

// Node is anything that can be topologically ordered: a name and the
// names of the nodes it depends on.
type Node interface {
	Name() string
	Dependencies() []string
}
