// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

// Package temporalexec is an optional Temporal-workflow-backed
// execution engine for the swarm coordinator's subtask DAG (spec
// §4.6), alongside the in-process goroutine executor in
// internal/swarm. Grounded on the teacher's pkg/dag engine/workflow
// pair and internal/temporal worker, generalized from a TDD-loop DAG
// runner to a subtask DAG runner over types.SubTask.
package temporalexec

import (
	"context"

	"github.com/openswarm-labs/agentswarm/pkg/types"
)

// SubtaskFunc executes one subtask and returns its result, matching
// the shape of swarm.Executor so the same business logic can run
// in-process or behind a Temporal activity.
type SubtaskFunc func(ctx context.Context, subtask types.SubTask) (interface{}, error)

// Activities bundles the subtask executor as a Temporal activity. The
// worker registers a *Activities whose Exec closes over the real
// per-subtask dispatch logic (e.g. an inference.ChatClient call).
type Activities struct {
	Exec SubtaskFunc
}

// activityName is the registered name ExecuteSubtask is invoked under;
// workflows reference activities by name rather than by function value
// so the workflow definition does not need to import the concrete
// Activities type.
const activityName = "ExecuteSubtask"

// ExecuteSubtask is the Temporal activity entry point.
func (a *Activities) ExecuteSubtask(ctx context.Context, subtask types.SubTask) (interface{}, error) {
	return a.Exec(ctx, subtask)
}
