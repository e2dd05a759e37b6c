// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package types

// SubTaskStatus is the lifecycle state of a SubTask (spec §3).
type SubTaskStatus string

const (
	SubTaskPending    SubTaskStatus = "pending"
	SubTaskInProgress SubTaskStatus = "in_progress"
	SubTaskCompleted  SubTaskStatus = "completed"
	SubTaskFailed     SubTaskStatus = "failed"
)

// ComplexTask is the external unit of work handed to the swarm coordinator.
type ComplexTask struct {
	ID           string
	Description  string
	Requirements []string
}

// SubTask is a single node in a ComplexTask's dependency DAG.
//
// Invariants (enforced by the decomposition and swarm packages, not by the
// struct itself): every entry in Deps resolves to a SubTask.ID present in
// the same ComplexTask; the graph formed by Deps has no cycles; a SubTask
// only transitions Pending -> InProgress -> {Completed, Failed}; Completed
// requires Result set; Failed requires Error set. AssignedAgentID is not
// checked: the swarm executors move a subtask to InProgress whether or not
// an agent is assigned.
type SubTask struct {
	ID             string
	TaskID         string
	Description    string
	Deps           []string
	AssignedRole   string
	AssignedAgentID string
	Status         SubTaskStatus
	Result         interface{}
	Error          string
}

// Name satisfies the generic dag.Node interface used for topological sort.
func (s SubTask) Name() string { return s.ID }

// Dependencies satisfies the generic dag.Node interface.
func (s SubTask) Dependencies() []string { return s.Deps }
