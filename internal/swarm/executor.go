// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package swarm

import (
	"context"
	"sync"
	"time"

	"github.com/openswarm-labs/agentswarm/internal/sharedmemory"
	"github.com/openswarm-labs/agentswarm/pkg/types"
)

// runParallel drives the subtask DAG with the wave scheduler (spec
// §4.6): on each tick it starts every pending subtask whose dependencies
// are completed, waits for the wave, then re-selects. A small debounce
// between ticks avoids busy-spinning; a global timeout is honoured via
// ctx.
func runParallel(ctx context.Context, store *sharedmemory.Store, taskID string, subtasks []*types.SubTask, opts Options, exec Executor) (results map[string]interface{}, completionOrder []string, execErrors []string, timedOut bool) {
	byID := make(map[string]*types.SubTask, len(subtasks))
	for _, st := range subtasks {
		byID[st.ID] = st
	}
	results = make(map[string]interface{})

	var mu sync.Mutex

	for someStillPending(subtasks) {
		select {
		case <-ctx.Done():
			return results, completionOrder, execErrors, true
		default:
		}

		wave := readyAt(subtasks, byID)
		if len(wave) == 0 {
			// Each tick's wave runs to completion (wg.Wait below) before the
			// next tick starts, so an empty wave here means no subtask is
			// in flight: whatever remains pending is stuck on a failed or
			// dangling dependency and will never become ready. Surface that
			// now instead of spinning until opts.Timeout, mirroring
			// runSequential's immediate "Deadlock detected".
			execErrors = append(execErrors, "Deadlock detected")
			return results, completionOrder, execErrors, false
		}

		var wg sync.WaitGroup
		for _, st := range wave {
			st.Status = types.SubTaskInProgress
			wg.Add(1)
			go func(st *types.SubTask) {
				defer wg.Done()
				result, err := executeWithRetry(ctx, store, taskID, st, opts, exec)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					st.Status = types.SubTaskFailed
					st.Error = err.Error()
					execErrors = append(execErrors, err.Error())
					return
				}
				st.Status = types.SubTaskCompleted
				st.Result = result
				results[st.ID] = result
				completionOrder = append(completionOrder, st.ID)
			}(st)
		}
		wg.Wait()

		if !sleepOrDone(ctx, opts.TickDelay) {
			return results, completionOrder, execErrors, true
		}
	}

	// Completion order within a wave is genuinely nondeterministic (the
	// goroutines race); callers that need subtask-id order read
	// subtaskResults by id instead of relying on this slice.
	return results, completionOrder, execErrors, false
}

// runSequential runs the first ready subtask to completion before
// re-selecting; if nothing is ready and some subtasks remain pending,
// that is a deadlock (spec §4.6).
func runSequential(ctx context.Context, store *sharedmemory.Store, taskID string, subtasks []*types.SubTask, opts Options, exec Executor) (results map[string]interface{}, completionOrder []string, execErrors []string, timedOut bool) {
	byID := make(map[string]*types.SubTask, len(subtasks))
	for _, st := range subtasks {
		byID[st.ID] = st
	}
	results = make(map[string]interface{})

	for someStillPending(subtasks) {
		select {
		case <-ctx.Done():
			return results, completionOrder, execErrors, true
		default:
		}

		wave := readyAt(subtasks, byID)
		if len(wave) == 0 {
			execErrors = append(execErrors, "Deadlock detected")
			return results, completionOrder, execErrors, false
		}

		st := wave[0]
		st.Status = types.SubTaskInProgress
		result, err := executeWithRetry(ctx, store, taskID, st, opts, exec)
		if err != nil {
			st.Status = types.SubTaskFailed
			st.Error = err.Error()
			execErrors = append(execErrors, err.Error())
			continue
		}
		st.Status = types.SubTaskCompleted
		st.Result = result
		results[st.ID] = result
		completionOrder = append(completionOrder, st.ID)
	}

	return results, completionOrder, execErrors, false
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return false
		default:
			return true
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
