// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package temporalexec

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

// WorkerOptions configures a Worker. Grounded on the teacher's
// temporal.WorkerOptions/TemporalWorker, trimmed to what the swarm
// coordinator's Temporal backend needs.
type WorkerOptions struct {
	TaskQueue     string
	Namespace     string
	MaxConcurrent int
}

// Worker owns the Temporal client/worker pair that runs SubtaskWorkflow
// and its ExecuteSubtask activity.
type Worker struct {
	mu      sync.RWMutex
	client  client.Client
	worker  worker.Worker
	opts    WorkerOptions
	started bool
}

// NewWorker dials the Temporal frontend and registers SubtaskWorkflow
// plus an Activities instance wrapping exec.
func NewWorker(opts WorkerOptions, exec SubtaskFunc) (*Worker, error) {
	if opts.TaskQueue == "" {
		return nil, errors.New("temporalexec: task queue is required")
	}
	if opts.Namespace == "" {
		opts.Namespace = "default"
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 10
	}

	c, err := client.Dial(client.Options{Namespace: opts.Namespace})
	if err != nil {
		return nil, fmt.Errorf("temporalexec: dial client: %w", err)
	}

	w := worker.New(c, opts.TaskQueue, worker.Options{
		MaxConcurrentActivityTaskPollers: opts.MaxConcurrent,
		MaxConcurrentWorkflowTaskPollers: opts.MaxConcurrent,
	})

	w.RegisterWorkflow(SubtaskWorkflow)
	activities := &Activities{Exec: exec}
	w.RegisterActivityWithOptions(activities.ExecuteSubtask, activity.RegisterOptions{Name: activityName})

	return &Worker{client: c, worker: w, opts: opts}, nil
}

// Start begins polling. Idempotent.
func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	if err := w.worker.Start(); err != nil {
		return fmt.Errorf("temporalexec: start worker: %w", err)
	}
	w.started = true
	return nil
}

// Stop halts the worker and closes the client connection.
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	w.worker.Stop()
	w.client.Close()
	w.started = false
}

// ExecuteWorkflow starts SubtaskWorkflow and blocks for its result,
// used by callers that want the Temporal backend to behave like
// swarm.Coordinate's synchronous return.
func (w *Worker) ExecuteWorkflow(ctx context.Context, input WorkflowInput) (map[string]interface{}, error) {
	w.mu.RLock()
	c := w.client
	taskQueue := w.opts.TaskQueue
	w.mu.RUnlock()

	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "subtask-dag-" + input.TaskID,
		TaskQueue: taskQueue,
	}, SubtaskWorkflow, input)
	if err != nil {
		return nil, fmt.Errorf("temporalexec: start workflow: %w", err)
	}

	var results map[string]interface{}
	if err := run.Get(ctx, &results); err != nil {
		return nil, fmt.Errorf("temporalexec: workflow run: %w", err)
	}
	return results, nil
}
