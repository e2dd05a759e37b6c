// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package temporalexec

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/openswarm-labs/agentswarm/pkg/dag"
	"github.com/openswarm-labs/agentswarm/pkg/types"
)

// WorkflowInput is what SubtaskWorkflow receives: the subtask DAG for
// one ComplexTask, plus the same retry knobs swarm.Options exposes so
// the Temporal backend and the in-process backend agree on semantics.
type WorkflowInput struct {
	TaskID     string
	Subtasks   []types.SubTask
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
}

// SubtaskWorkflow executes a subtask DAG honoring dependency order,
// delegating each subtask to the ExecuteSubtask activity. Mirrors the
// teacher's dag.Engine.Run scheduling loop (build order once, repeatedly
// schedule whatever is now runnable, wait on whichever future resolves
// next) generalized from shell-command tasks to arbitrary subtasks.
func SubtaskWorkflow(ctx workflow.Context, input WorkflowInput) (map[string]interface{}, error) {
	logger := workflow.GetLogger(ctx)

	maxRetries := input.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	retryDelay := input.RetryDelay
	if retryDelay <= 0 {
		retryDelay = time.Second
	}
	timeout := input.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: timeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    retryDelay,
			BackoffCoefficient: 1.0, // fixed delay, not exponential (spec §4.6 retryDelay)
			MaximumInterval:    retryDelay,
			MaximumAttempts:    int32(maxRetries + 1),
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	nodes := make([]dag.Node, len(input.Subtasks))
	byID := make(map[string]types.SubTask, len(input.Subtasks))
	for i, s := range input.Subtasks {
		nodes[i] = s
		byID[s.ID] = s
	}

	scheduler := &dag.Scheduler{}
	order, cyclic := scheduler.BuildExecutionOrder(nodes)
	if cyclic {
		logger.Warn("subtask DAG has a cycle, falling back to defensive order", "taskID", input.TaskID)
	}

	completed := map[string]bool{}
	results := map[string]interface{}{}
	pending := map[string]workflow.Future{}

	for len(completed) < len(order) {
		for _, id := range order {
			if completed[id] || pending[id] != nil {
				continue
			}
			if !dependenciesMet(byID[id], completed) {
				continue
			}
			pending[id] = workflow.ExecuteActivity(ctx, activityName, byID[id])
		}

		if len(pending) == 0 {
			return results, fmt.Errorf("temporalexec: subtask DAG stalled for task %s", input.TaskID)
		}

		selector := workflow.NewSelector(ctx)
		for id, fut := range pending {
			id, fut := id, fut
			selector.AddFuture(fut, func(f workflow.Future) {
				var result interface{}
				err := f.Get(ctx, &result)
				delete(pending, id)
				completed[id] = true
				if err != nil {
					results[id] = map[string]string{"error": err.Error()}
					return
				}
				results[id] = result
			})
		}
		selector.Select(ctx)
	}

	return results, nil
}

func dependenciesMet(s types.SubTask, completed map[string]bool) bool {
	for _, dep := range s.Deps {
		if !completed[dep] {
			return false
		}
	}
	return true
}
