// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

// Package sandbox runs the N probe operations the self-improvement
// pipeline's sandbox test step executes against a cloned, proposal-
// applied configuration snapshot (spec §4.7 step 2). Each probe is a
// shell command; its exit status determines success, and wall-clock
// time its latency.
//
// Grounded on the teacher's use of bitfield/script for running shell
// pipelines from Go without shelling out to bash by hand.
package sandbox

import (
	"context"
	"time"

	"github.com/bitfield/script"

	"github.com/openswarm-labs/agentswarm/pkg/types"
)

// DefaultProbeCount is the default N from spec §4.7 step 2.
const DefaultProbeCount = 100

// CostFunc estimates the cost of one probe invocation given its latency.
// Callers that bill per-token or per-call wire their own estimator; the
// default assumes a flat per-call cost.
type CostFunc func(latency time.Duration) float64

// FlatCost returns a CostFunc that ignores latency and charges a fixed
// amount per probe.
func FlatCost(amount float64) CostFunc {
	return func(time.Duration) float64 { return amount }
}

// RunProbes executes cmd n times (default DefaultProbeCount when n<=0),
// one probe operation per invocation. A probe that exits non-zero or
// fails to start is counted as a failure (spec: "any probe throwing is
// counted as a failure; errors are collected").
func RunProbes(ctx context.Context, cmd string, n int, cost CostFunc) (types.PerformanceWindow, []error) {
	if n <= 0 {
		n = DefaultProbeCount
	}
	if cost == nil {
		cost = FlatCost(0)
	}

	var (
		totalLatency time.Duration
		totalCost    float64
		successes    int
		errs         []error
	)

	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			errs = append(errs, ctx.Err())
			continue
		default:
		}

		start := time.Now()
		_, err := script.Exec(cmd).String()
		latency := time.Since(start)

		totalLatency += latency
		totalCost += cost(latency)

		if err != nil {
			errs = append(errs, err)
			continue
		}
		successes++
	}

	window := types.PerformanceWindow{
		OperationCount: n,
	}
	if n > 0 {
		window.AvgLatencyMs = float64(totalLatency.Milliseconds()) / float64(n)
		window.AvgCost = totalCost / float64(n)
		window.SuccessRate = float64(successes) / float64(n)
	}

	return window, errs
}
