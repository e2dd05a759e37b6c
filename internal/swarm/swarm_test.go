// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package swarm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openswarm-labs/agentswarm/internal/sharedmemory"
	"github.com/openswarm-labs/agentswarm/pkg/types"
)

func TestCoordinate_HappyPathConcatenate(t *testing.T) {
	subtasks := []*types.SubTask{
		{ID: "a", TaskID: "t1", Description: "do a", Status: types.SubTaskPending},
		{ID: "b", TaskID: "t1", Description: "do b", Status: types.SubTaskPending},
		{ID: "c", TaskID: "t1", Description: "do c", Status: types.SubTaskPending},
	}
	task := types.ComplexTask{ID: "t1", Description: "three things"}
	store := sharedmemory.New(nil)

	exec := func(ctx context.Context, st types.SubTask) (interface{}, error) {
		return map[string]interface{}{"ok": true}, nil
	}

	result := Coordinate(context.Background(), store, task, subtasks, "coordinator-1", Options{Synthesis: SynthesizeConcatenate, TickDelay: time.Millisecond}, exec)

	require.True(t, result.Success)
	require.Empty(t, result.Errors)
	require.Len(t, result.SubtaskResults, 3)

	output, ok := result.Output.([]interface{})
	require.True(t, ok)
	require.Len(t, output, 3)
	for _, o := range output {
		assert.Equal(t, map[string]interface{}{"ok": true}, o)
	}
}

func TestCoordinate_RespectsDependencyOrder(t *testing.T) {
	var executedOrder []string
	var mu = make(chan struct{}, 1)
	mu <- struct{}{}

	subtasks := []*types.SubTask{
		{ID: "a", TaskID: "t2", Description: "a", Status: types.SubTaskPending},
		{ID: "b", TaskID: "t2", Description: "b", Status: types.SubTaskPending, Deps: []string{"a"}},
	}
	task := types.ComplexTask{ID: "t2"}
	store := sharedmemory.New(nil)

	exec := func(ctx context.Context, st types.SubTask) (interface{}, error) {
		<-mu
		executedOrder = append(executedOrder, st.ID)
		mu <- struct{}{}
		return "ok", nil
	}

	result := Coordinate(context.Background(), store, task, subtasks, "c1", Options{TickDelay: time.Millisecond}, exec)

	require.True(t, result.Success)
	require.Equal(t, []string{"a", "b"}, executedOrder)
}

func TestCoordinate_FailurePropagatesToErrors(t *testing.T) {
	subtasks := []*types.SubTask{
		{ID: "a", TaskID: "t3", Description: "a", Status: types.SubTaskPending},
	}
	task := types.ComplexTask{ID: "t3"}
	store := sharedmemory.New(nil)

	exec := func(ctx context.Context, st types.SubTask) (interface{}, error) {
		return nil, errors.New("boom")
	}

	result := Coordinate(context.Background(), store, task, subtasks, "c1", Options{MaxRetries: 0, RetryDelay: time.Millisecond, TickDelay: time.Millisecond}, exec)

	require.False(t, result.Success)
	require.NotEmpty(t, result.Errors)
}

func TestCoordinate_SequentialDeadlockDetected(t *testing.T) {
	// B depends on a subtask id that doesn't exist in this list, so it can
	// never become ready, leaving B stuck pending forever.
	subtasks := []*types.SubTask{
		{ID: "b", TaskID: "t4", Description: "b", Status: types.SubTaskPending, Deps: []string{"missing"}},
	}
	task := types.ComplexTask{ID: "t4"}
	store := sharedmemory.New(nil)

	exec := func(ctx context.Context, st types.SubTask) (interface{}, error) {
		return "ok", nil
	}

	result := Coordinate(context.Background(), store, task, subtasks, "c1", Options{Mode: ModeSequential, TickDelay: time.Millisecond}, exec)

	require.False(t, result.Success)
	require.Contains(t, result.Errors, "Deadlock detected")
}

func TestCoordinate_ParallelStuckDependentSurfacesDeadlockWithoutWaitingOutTimeout(t *testing.T) {
	// A always fails, so B (which depends on A) can never become ready.
	// The parallel scheduler must report this promptly instead of
	// spinning until opts.Timeout.
	subtasks := []*types.SubTask{
		{ID: "a", TaskID: "t4b", Description: "a", Status: types.SubTaskPending},
		{ID: "b", TaskID: "t4b", Description: "b", Status: types.SubTaskPending, Deps: []string{"a"}},
	}
	task := types.ComplexTask{ID: "t4b"}
	store := sharedmemory.New(nil)

	exec := func(ctx context.Context, st types.SubTask) (interface{}, error) {
		if st.ID == "a" {
			return nil, errors.New("boom")
		}
		return "ok", nil
	}

	start := time.Now()
	result := Coordinate(context.Background(), store, task, subtasks, "c1", Options{
		Mode:       ModeParallel,
		MaxRetries: 0,
		RetryDelay: time.Millisecond,
		TickDelay:  time.Millisecond,
		Timeout:    time.Minute,
	}, exec)
	elapsed := time.Since(start)

	require.False(t, result.Success)
	assert.Contains(t, result.Errors, "Deadlock detected")
	assert.NotContains(t, result.Errors, "Swarm execution timeout")
	assert.Less(t, elapsed, 5*time.Second, "stuck dependent must be surfaced long before opts.Timeout")
}

func TestCoordinate_CyclicSubtaskGraphSurfacedDistinctly(t *testing.T) {
	subtasks := []*types.SubTask{
		{ID: "a", TaskID: "t4c", Status: types.SubTaskPending, Deps: []string{"b"}},
		{ID: "b", TaskID: "t4c", Status: types.SubTaskPending, Deps: []string{"a"}},
	}
	task := types.ComplexTask{ID: "t4c"}
	store := sharedmemory.New(nil)

	exec := func(ctx context.Context, st types.SubTask) (interface{}, error) {
		return "ok", nil
	}

	result := Coordinate(context.Background(), store, task, subtasks, "c1", Options{TickDelay: time.Millisecond}, exec)

	require.False(t, result.Success)
	assert.Contains(t, result.Errors, "Cyclic subtask dependency graph")
}

func TestCoordinate_PublishesToSharedMemoryNamespace(t *testing.T) {
	subtasks := []*types.SubTask{{ID: "a", TaskID: "t5", Status: types.SubTaskPending}}
	task := types.ComplexTask{ID: "t5"}
	store := sharedmemory.New(nil)

	exec := func(ctx context.Context, st types.SubTask) (interface{}, error) { return "ok", nil }
	Coordinate(context.Background(), store, task, subtasks, "c1", Options{TickDelay: time.Millisecond}, exec)

	entry, ok := store.Get("swarm:t5")
	require.True(t, ok)
	assert.NotNil(t, entry.Value)

	resultEntry, ok := store.Get("swarm:t5:result:a")
	require.True(t, ok)
	assert.Equal(t, "ok", resultEntry.Value)
}

func TestCoordinate_TimeoutSurfacesSingleError(t *testing.T) {
	subtasks := []*types.SubTask{{ID: "a", TaskID: "t6", Status: types.SubTaskPending}}
	task := types.ComplexTask{ID: "t6"}
	store := sharedmemory.New(nil)

	exec := func(ctx context.Context, st types.SubTask) (interface{}, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	result := Coordinate(context.Background(), store, task, subtasks, "c1", Options{Timeout: 10 * time.Millisecond, TickDelay: time.Millisecond, RetryDelay: time.Millisecond}, exec)

	require.False(t, result.Success)
	assert.Contains(t, result.Errors, "Swarm execution timeout")
}
