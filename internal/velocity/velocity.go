// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

// Package velocity implements the improvement velocity and capability
// gate tracker (spec §4.8): per-day capability gain rates, trend
// analysis against the prior window, and the projected-days-to-gate
// projection.
package velocity

import "github.com/openswarm-labs/agentswarm/pkg/types"

// capabilityGateThreshold is the hard upper bound on per-day capability
// growth (spec §4.8, Glossary "capability gate"). Exactly at threshold
// is not a violation.
const capabilityGateThreshold = 10.0

// accelerationThreshold is the relative change that flips a trend to
// accelerating (+) or decelerating (-).
const accelerationThreshold = 0.20

// Measure computes the per-day gain rates for the applied modifications
// that land within window (a zero Start or End leaves that side
// unbounded), and classifies the trend against prior (nil
// if no prior window exists).
func Measure(agentID string, window types.VelocityWindow, improvements []types.AppliedModification, prior *types.VelocityMeasurement) types.VelocityMeasurement {
	days := window.Days
	if days <= 0 {
		days = 1
	}

	var speedSum, costSum, reliabilitySum float64
	for _, m := range improvements {
		if (!window.Start.IsZero() && m.AppliedAt.Before(window.Start)) || (!window.End.IsZero() && m.AppliedAt.After(window.End)) {
			continue
		}
		speedSum += m.Measurement.SpeedImprovementPct
		costSum += m.Measurement.CostReductionPct
		reliabilitySum += m.Measurement.ReliabilityImprovementPp
	}

	speedPerDay := nonNegative(speedSum / days)
	costPerDay := nonNegative(costSum / days)
	reliabilityPerDay := nonNegative(reliabilitySum / days)
	capabilityPerDay := 0.4*speedPerDay + 0.3*costPerDay + 0.3*reliabilityPerDay

	m := types.VelocityMeasurement{
		AgentID:               agentID,
		Window:                window,
		SpeedGainPerDay:       speedPerDay,
		CostGainPerDay:        costPerDay,
		ReliabilityGainPerDay: reliabilityPerDay,
		CapabilityGainPerDay:  capabilityPerDay,
		RapidGrowth:           capabilityPerDay > capabilityGateThreshold,
	}
	m.WithinCapabilityGates = !m.RapidGrowth

	if prior != nil && prior.CapabilityGainPerDay > 0 {
		rate := (capabilityPerDay - prior.CapabilityGainPerDay) / prior.CapabilityGainPerDay
		m.Accelerating = rate >= accelerationThreshold
		m.Decelerating = rate <= -accelerationThreshold
	}

	return m
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// AccelerationRate returns (current-prior)/prior, or 0 when prior is
// non-positive (no meaningful rate of change).
func AccelerationRate(current, prior float64) float64 {
	if prior <= 0 {
		return 0
	}
	return (current - prior) / prior
}
