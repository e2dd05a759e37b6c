// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

// swarmctl wires the agent orchestration substrate together for local
// exploration: decompose a task, run it through the swarm coordinator
// with an in-process executor stub, and print the synthesized result.
// Production deployments embed the internal/* packages directly rather
// than shelling out to this binary.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/openswarm-labs/agentswarm/internal/config"
	"github.com/openswarm-labs/agentswarm/internal/decomposition"
	"github.com/openswarm-labs/agentswarm/internal/envprovider"
	"github.com/openswarm-labs/agentswarm/internal/inference"
	"github.com/openswarm-labs/agentswarm/internal/sharedmemory"
	"github.com/openswarm-labs/agentswarm/internal/swarm"
	"github.com/openswarm-labs/agentswarm/pkg/types"
)

func main() {
	logFormat := os.Getenv("LOG_FORMAT")
	var handler slog.Handler
	if logFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))

	description := flag.String("task", "research the market, implement the strategy, then coordinate the rollout", "description of the complex task to decompose and run")
	strategy := flag.String("synthesis", "concatenate", "synthesis strategy: concatenate|merge|vote|weighted_average")
	mode := flag.String("mode", "parallel", "execution mode: parallel|sequential")
	flag.Parse()

	masterKey := os.Getenv("AGENTSWARM_MASTER_KEY")
	if masterKey == "" {
		masterKey = "swarmctl-dev-only-key"
	}
	if _, err := envprovider.Init(masterKey, os.Getenv("AGENTSWARM_SALT"), envMap()); err != nil {
		slog.Error("failed to initialize environment provider", "error", err)
		os.Exit(1)
	}

	cfg := config.Default()
	cfg.Project.Name = "swarmctl"
	cfg.Inference.PrimaryModel = "anthropic/claude-sonnet-4-5"

	task := types.ComplexTask{
		ID:          uuid.NewString(),
		Description: *description,
		Requirements: []string{
			"research the problem space",
			"implement a solution",
			"coordinate the agents involved",
		},
	}

	subtasks, err := decomposition.Decompose(task)
	if err != nil {
		slog.Error("decomposition failed", "error", err)
		os.Exit(1)
	}

	store := sharedmemory.New(time.Now)
	subtaskPtrs := make([]*types.SubTask, len(subtasks))
	for i := range subtasks {
		subtaskPtrs[i] = &subtasks[i]
	}

	opts := swarm.Options{
		Mode:       swarm.Mode(*mode),
		Synthesis:  swarm.SynthesisStrategy(*strategy),
		MaxRetries: cfg.Swarm.MaxRetries,
		RetryDelay: cfg.Swarm.RetryDelay,
		Timeout:    cfg.Swarm.Timeout,
	}

	var executor swarm.Executor = echoExecutor
	if baseURL := os.Getenv("OPENCODE_BASE_URL"); baseURL != "" {
		client := inference.NewOpenCodeClient(baseURL)
		client.Retry = cfg.Retry.ToOptions()
		executor = chatExecutor(client, cfg.Inference.PrimaryModel)
	}

	result := swarm.Coordinate(context.Background(), store, task, subtaskPtrs, "swarmctl-coordinator", opts, executor)

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		slog.Error("failed to marshal result", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

// echoExecutor stands in for a real dispatch to inference.ChatClient /
// tool execution; it simply reports the subtask as done.
func echoExecutor(ctx context.Context, subtask types.SubTask) (interface{}, error) {
	return fmt.Sprintf("completed: %s", subtask.Description), nil
}

// chatExecutor dispatches each subtask as a single-turn chat against a
// live opencode serve instance, used when OPENCODE_BASE_URL is set.
func chatExecutor(client inference.ChatClient, model string) swarm.Executor {
	return func(ctx context.Context, subtask types.SubTask) (interface{}, error) {
		result, err := client.Chat(ctx, []inference.Message{
			{Role: inference.RoleUser, Content: subtask.Description},
		}, inference.ChatOptions{Model: model})
		if err != nil {
			return nil, err
		}
		return result.Message, nil
	}
}

func envMap() map[string]string {
	out := map[string]string{}
	for _, kv := range os.Environ() {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				out[kv[:i]] = kv[i+1:]
				break
			}
		}
	}
	return out
}
