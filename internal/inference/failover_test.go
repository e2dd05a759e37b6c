// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package inference

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestExecute_PrimarySucceedsNoFailoverEvent(t *testing.T) {
	var events []FailoverEvent
	r := NewRouter("gpt-primary", []string{"gpt-fallback"}, nil, fixedClock(time.Unix(0, 0)), func(e FailoverEvent) { events = append(events, e) })

	result, err := r.Execute(context.Background(), func(ctx context.Context, model string) (ChatResult, error) {
		return ChatResult{Message: "ok", Model: model}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, "gpt-primary", result.Model)
	assert.Empty(t, events)
}

func TestExecute_FallsBackToConfiguredFallbackOnError(t *testing.T) {
	var events []FailoverEvent
	r := NewRouter("primary", []string{"fallback-1", "fallback-2"}, nil, fixedClock(time.Unix(0, 0)), func(e FailoverEvent) { events = append(events, e) })

	result, err := r.Execute(context.Background(), func(ctx context.Context, model string) (ChatResult, error) {
		if model == "primary" {
			return ChatResult{}, errors.New("rate limited")
		}
		return ChatResult{Message: "ok", Model: model}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, "fallback-1", result.Model)
	require.Len(t, events, 2)
	assert.False(t, events[0].Success)
	assert.Equal(t, "primary", events[0].Primary)
	assert.True(t, events[1].Success)
	assert.Equal(t, "fallback-1", events[1].Fallback)
}

func TestExecute_MarksFailedModelUnavailableForWindow(t *testing.T) {
	now := time.Unix(0, 0)
	clock := func() time.Time { return now }
	calls := map[string]int{}

	r := NewRouter("primary", []string{"fallback"}, nil, clock, nil)

	_, err := r.Execute(context.Background(), func(ctx context.Context, model string) (ChatResult, error) {
		calls[model]++
		if model == "primary" {
			return ChatResult{}, errors.New("down")
		}
		return ChatResult{Model: model}, nil
	})
	require.NoError(t, err)

	// Immediately after, primary should still be marked unavailable.
	assert.False(t, r.available("primary"))

	now = now.Add(6 * time.Minute)
	assert.True(t, r.available("primary"))
}

func TestExecute_ExhaustedConfiguredFallbacksSearchesRegistry(t *testing.T) {
	registry := []ModelInfo{
		{ID: "registry-close", QualityScore: 0.81, ContextLength: 128000, Priority: 1},
		{ID: "registry-far", QualityScore: 0.30, ContextLength: 128000, Priority: 0},
		{ID: "registry-too-small", QualityScore: 0.80, ContextLength: 1000, Priority: 0},
	}
	r := NewRouter("primary", nil, append(registry, ModelInfo{ID: "primary", QualityScore: 0.80, ContextLength: 128000}), fixedClock(time.Unix(0, 0)), nil)

	var tried []string
	_, err := r.Execute(context.Background(), func(ctx context.Context, model string) (ChatResult, error) {
		tried = append(tried, model)
		if model == "registry-close" {
			return ChatResult{Model: model}, nil
		}
		return ChatResult{}, errors.New("unavailable")
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"primary", "registry-close"}, tried)
}

func TestExecute_ExcludesUndersizedContextModelsFromRegistrySearch(t *testing.T) {
	registry := []ModelInfo{
		{ID: "primary", QualityScore: 0.8, ContextLength: 100000},
		{ID: "too-small", QualityScore: 0.8, ContextLength: 1000},
	}
	r := NewRouter("primary", nil, registry, fixedClock(time.Unix(0, 0)), nil)

	_, err := r.Execute(context.Background(), func(ctx context.Context, model string) (ChatResult, error) {
		return ChatResult{}, errors.New("always fails")
	})

	assert.Error(t, err)
}

func TestExecute_AllCandidatesFailReturnsLastError(t *testing.T) {
	r := NewRouter("primary", []string{"fallback"}, nil, fixedClock(time.Unix(0, 0)), nil)

	_, err := r.Execute(context.Background(), func(ctx context.Context, model string) (ChatResult, error) {
		return ChatResult{}, errors.New("boom: " + model)
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "fallback")
}
