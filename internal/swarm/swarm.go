// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

// Package swarm implements the swarm coordinator (spec §4.6): publishing
// a task's subtasks and assignments to shared memory, running the
// subtask DAG to completion (in parallel or sequentially), synthesising
// results, and closing a collaboration record.
//
// Grounded on the teacher's internal/orchestration coordinator: a
// wave-based executor that selects every subtask whose dependencies are
// satisfied, launches them concurrently bounded by a semaphore, and
// waits for the wave before re-selecting.
package swarm

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/openswarm-labs/agentswarm/internal/errs"
	"github.com/openswarm-labs/agentswarm/internal/sharedmemory"
	"github.com/openswarm-labs/agentswarm/pkg/dag"
	"github.com/openswarm-labs/agentswarm/pkg/types"
)

// Mode selects how the subtask DAG is driven (spec §4.6 step 3).
type Mode string

const (
	ModeParallel   Mode = "parallel"
	ModeSequential Mode = "sequential"
)

// SynthesisStrategy combines subtask results into a single output (spec
// §4.6 step 4).
type SynthesisStrategy string

const (
	SynthesizeConcatenate     SynthesisStrategy = "concatenate"
	SynthesizeMerge           SynthesisStrategy = "merge"
	SynthesizeVote            SynthesisStrategy = "vote"
	SynthesizeWeightedAverage SynthesisStrategy = "weighted_average"
)

// ConflictResolution picks among subtasks that share a description (spec
// §4.6 step 4).
type ConflictResolution string

const (
	ConflictFirst    ConflictResolution = "first"
	ConflictLast     ConflictResolution = "last"
	ConflictMajority ConflictResolution = "majority"
)

// Executor runs a single subtask to completion. Callers wire this to
// whatever does the actual work (typically an internal/inference call);
// the coordinator only owns scheduling, retry and synthesis.
type Executor func(ctx context.Context, subtask types.SubTask) (interface{}, error)

// Options configures one Coordinate call. Zero-value fields take the
// spec's defaults.
type Options struct {
	Mode        Mode
	Synthesis   SynthesisStrategy
	Conflict    ConflictResolution
	MaxRetries  int           // default 3 (spec §4.6 per-subtask retry)
	RetryDelay  time.Duration // default 1s, fixed (not Fibonacci; spec §4.6 is explicit about a fixed interval distinct from the general 4.1 engine)
	Timeout     time.Duration // default 5 min (spec §5 cancellation)
	TickDelay   time.Duration // default 100ms debounce between parallel scheduling ticks
}

func (o Options) withDefaults() Options {
	if o.Mode == "" {
		o.Mode = ModeParallel
	}
	if o.Synthesis == "" {
		o.Synthesis = SynthesizeConcatenate
	}
	if o.Conflict == "" {
		o.Conflict = ConflictFirst
	}
	if o.MaxRetries == 0 {
		o.MaxRetries = 3
	}
	if o.RetryDelay == 0 {
		o.RetryDelay = time.Second
	}
	if o.Timeout == 0 {
		o.Timeout = 5 * time.Minute
	}
	if o.TickDelay == 0 {
		o.TickDelay = 100 * time.Millisecond
	}
	return o
}

// TaskResult is the public outcome of Coordinate (spec §4.6's
// "TaskResult").
type TaskResult struct {
	TaskID          string
	Success         bool
	Output          interface{}
	SubtaskResults  map[string]interface{}
	Errors          []string
	CollaborationID string
}

// Coordinate publishes task state to shared memory, executes the
// subtask DAG, synthesises the results and closes the collaboration
// record (spec §4.6).
func Coordinate(ctx context.Context, store *sharedmemory.Store, task types.ComplexTask, subtasks []*types.SubTask, coordinatorID string, opts Options, exec Executor) TaskResult {
	opts = opts.withDefaults()

	namespace := fmt.Sprintf("swarm:%s", task.ID)
	store.Store(namespace, map[string]interface{}{
		"task":        task,
		"subtasks":    subtasks,
		"coordinator": coordinatorID,
	}, types.Metadata{Context: namespace}, coordinatorID, nil)

	collab := startCollaboration(task.ID, coordinatorID, subtasks)

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	var (
		results         map[string]interface{}
		completionOrder []string
		execErrors      []string
		timedOut        bool
	)

	switch opts.Mode {
	case ModeSequential:
		results, completionOrder, execErrors, timedOut = runSequential(ctx, store, task.ID, subtasks, opts, exec)
	default:
		results, completionOrder, execErrors, timedOut = runParallel(ctx, store, task.ID, subtasks, opts, exec)
	}

	// Decomposition hard-fails on a cyclic subtask graph before a task ever
	// reaches Coordinate, but a caller that builds subtasks itself could
	// still hand one in; surface that distinctly here too rather than
	// letting it masquerade as a timeout or deadlock (spec §9), matching
	// the same check the Temporal backend runs in SubtaskWorkflow.
	cyclic := cyclicSubtaskGraph(subtasks)
	if cyclic {
		execErrors = append(execErrors, "Cyclic subtask dependency graph")
	}

	success := len(execErrors) == 0 && !timedOut
	if timedOut {
		execErrors = append(execErrors, "Swarm execution timeout")
	}

	output := synthesizeOutput(subtasks, results, completionOrder, opts)

	closeCollaboration(collab, success, output)

	return TaskResult{
		TaskID:          task.ID,
		Success:         success,
		Output:          output,
		SubtaskResults:  results,
		Errors:          execErrors,
		CollaborationID: collab.ID,
	}
}

// cyclicSubtaskGraph reports whether subtasks form a cyclic dependency
// graph, the same check decomposition.Validate and the Temporal backend's
// SubtaskWorkflow run.
func cyclicSubtaskGraph(subtasks []*types.SubTask) bool {
	nodes := make([]dag.Node, len(subtasks))
	for i, st := range subtasks {
		nodes[i] = *st
	}
	_, cyclic := (&dag.Scheduler{}).BuildExecutionOrder(nodes)
	return cyclic
}

func startCollaboration(taskID, coordinatorID string, subtasks []*types.SubTask) *types.CollaborationRecord {
	seen := map[string]bool{coordinatorID: true}
	participants := []string{coordinatorID}
	for _, st := range subtasks {
		if st.AssignedAgentID == "" || seen[st.AssignedAgentID] {
			continue
		}
		seen[st.AssignedAgentID] = true
		participants = append(participants, st.AssignedAgentID)
	}
	return &types.CollaborationRecord{
		ID:             uuid.NewString(),
		TaskID:         taskID,
		ParticipantIDs: participants,
		StartedAt:      time.Now(),
	}
}

func closeCollaboration(collab *types.CollaborationRecord, success bool, output interface{}) {
	now := time.Now()
	collab.CompletedAt = &now
	collab.Success = &success
	collab.Output = output
}

// executeWithRetry runs exec for a single subtask, retrying up to
// opts.MaxRetries additional times with a fixed opts.RetryDelay between
// attempts, and persists the result to shared memory on success (spec
// §4.6 per-subtask retry).
func executeWithRetry(ctx context.Context, store *sharedmemory.Store, taskID string, st *types.SubTask, opts Options, exec Executor) (interface{}, error) {
	var lastErr error
	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(opts.RetryDelay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return nil, errs.Wrap(errs.Cancelled, "swarm.executeWithRetry", "context done", ctx.Err())
			}
		}

		result, err := invokeExec(ctx, exec, *st)
		if err == nil {
			key := fmt.Sprintf("swarm:%s:result:%s", taskID, st.ID)
			store.Store(key, result, types.Metadata{Context: key}, st.AssignedAgentID, nil)
			return result, nil
		}
		lastErr = err
	}
	return nil, errs.Wrap(errs.Exhausted, "swarm.executeWithRetry", "subtask retry budget exhausted", lastErr)
}

func invokeExec(ctx context.Context, exec Executor, st types.SubTask) (value interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return exec(ctx, st)
}

func readyAt(subtasks []*types.SubTask, byID map[string]*types.SubTask) []*types.SubTask {
	var ready []*types.SubTask
	for _, st := range subtasks {
		if st.Status != types.SubTaskPending {
			continue
		}
		if allDepsTerminalSuccess(st, byID) {
			ready = append(ready, st)
		}
	}
	return ready
}

func allDepsTerminalSuccess(st *types.SubTask, byID map[string]*types.SubTask) bool {
	for _, dep := range st.Deps {
		d, ok := byID[dep]
		if !ok || d.Status != types.SubTaskCompleted {
			return false
		}
	}
	return true
}

func someStillPending(subtasks []*types.SubTask) bool {
	for _, st := range subtasks {
		if st.Status == types.SubTaskPending {
			return true
		}
	}
	return false
}
