// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package selfimprovement

import (
	"fmt"

	"github.com/openswarm-labs/agentswarm/pkg/types"
)

// reliabilityDropTolerancePp is the hard reject threshold (spec §4.7
// step 4): a reliability drop greater than this always rejects,
// regardless of targetMetric.
const reliabilityDropTolerancePp = 5.0

// speedThresholdPct, costThresholdPct and reliabilityThresholdPp are the
// per-metric bars a proposal's own targetMetric must clear once the
// reliability-drop gate has passed.
const (
	speedThresholdPct       = 10.0
	costThresholdPct        = 10.0
	reliabilityThresholdPp  = 5.0
)

// validate applies the spec §4.7 step 4 rule and returns whether the
// proposal is validated plus a human-readable reason.
func validate(proposal types.ImprovementProposal, impact types.ImpactMeasurement) (bool, string) {
	if impact.ReliabilityImprovementPp < -reliabilityDropTolerancePp {
		return false, fmt.Sprintf("Reliability degraded by %.1f pp, exceeding the %.1f pp tolerance", -impact.ReliabilityImprovementPp, reliabilityDropTolerancePp)
	}

	switch proposal.TargetMetric {
	case types.MetricSpeed:
		if impact.SpeedImprovementPct >= speedThresholdPct {
			return true, fmt.Sprintf("Speed improved %.1f%%, meeting the %.1f%% threshold", impact.SpeedImprovementPct, speedThresholdPct)
		}
		return false, fmt.Sprintf("Speed improved only %.1f%%, below the %.1f%% threshold", impact.SpeedImprovementPct, speedThresholdPct)
	case types.MetricCost:
		if impact.CostReductionPct >= costThresholdPct {
			return true, fmt.Sprintf("Cost reduced %.1f%%, meeting the %.1f%% threshold", impact.CostReductionPct, costThresholdPct)
		}
		return false, fmt.Sprintf("Cost reduced only %.1f%%, below the %.1f%% threshold", impact.CostReductionPct, costThresholdPct)
	case types.MetricReliability:
		if impact.ReliabilityImprovementPp >= reliabilityThresholdPp {
			return true, fmt.Sprintf("Reliability improved %.1f pp, meeting the %.1f pp threshold", impact.ReliabilityImprovementPp, reliabilityThresholdPp)
		}
		return false, fmt.Sprintf("Reliability improved only %.1f pp, below the %.1f pp threshold", impact.ReliabilityImprovementPp, reliabilityThresholdPp)
	default:
		// config_change proposals carry no single targetMetric; validate
		// on whether any of the three metrics cleared its bar.
		if impact.SpeedImprovementPct >= speedThresholdPct || impact.CostReductionPct >= costThresholdPct || impact.ReliabilityImprovementPp >= reliabilityThresholdPp {
			return true, "At least one tracked metric cleared its threshold"
		}
		return false, "No tracked metric cleared its threshold"
	}
}
