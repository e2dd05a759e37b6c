// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package selfimprovement

import "github.com/openswarm-labs/agentswarm/pkg/types"

// ComputeImpact compares a baseline window (the prior 14→7-day period)
// against the just-elapsed 7-day test-period window and produces the
// percentage deltas the validation rule inspects (spec §4.7 step 3).
func ComputeImpact(proposalID string, baseline, testPeriod types.PerformanceWindow, dailySamples []types.DailySample) types.ImpactMeasurement {
	return types.ImpactMeasurement{
		ProposalID:               proposalID,
		Baseline:                 baseline,
		TestPeriod:               testPeriod,
		DailySamples:             dailySamples,
		SpeedImprovementPct:      percentChange(baseline.AvgLatencyMs, testPeriod.AvgLatencyMs),
		CostReductionPct:         percentChange(baseline.AvgCost, testPeriod.AvgCost),
		ReliabilityImprovementPp: (testPeriod.SuccessRate - baseline.SuccessRate) * 100,
	}
}

// percentChange expresses a reduction from baseline to improved as a
// positive percentage (lower latency/cost is an improvement). Returns 0
// when baseline is non-positive (nothing to compare against).
func percentChange(baseline, improved float64) float64 {
	if baseline <= 0 {
		return 0
	}
	return (baseline - improved) / baseline * 100
}
