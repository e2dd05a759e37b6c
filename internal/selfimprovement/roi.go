// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package selfimprovement

import (
	"math"

	"github.com/openswarm-labs/agentswarm/pkg/types"
)

// ROIInputs is the set of measured quantities ComputeROI needs (spec
// §4.7 step 7).
type ROIInputs struct {
	BaselineCostPerOp float64
	ImprovedCostPerOp float64
	OpsPerDay         float64
	TotalCost         float64 // total cost of developing and testing the improvement
	ReliabilityGainPp float64
	TimeSavedHours    float64
}

// ComputeROI projects the 30-day financial outcome of an applied
// improvement (spec §4.7 step 7).
func ComputeROI(in ROIInputs) types.ROIReport {
	projectedSavings := (in.BaselineCostPerOp - in.ImprovedCostPerOp) * (in.OpsPerDay * 30)

	var roiPct float64
	if in.TotalCost > 0 {
		roiPct = (projectedSavings - in.TotalCost) / in.TotalCost * 100
	}

	paybackDays := math.Inf(1)
	if projectedSavings > 0 && in.TotalCost > 0 {
		paybackDays = in.TotalCost / (projectedSavings / 30)
	}

	return types.ROIReport{
		ProjectedSavings30d: projectedSavings,
		ROIPct:              roiPct,
		PaybackDays:         paybackDays,
		ValueScore:          valueScore(roiPct, paybackDays, in.ReliabilityGainPp, in.TimeSavedHours),
	}
}

// valueScore combines ROI, payback speed, reliability gain and time
// saved into a single 0..100 composite. Spec leaves the exact weighting
// unspecified ("composite value score combines..."); this implementation
// rewards higher ROI, faster payback, and reliability/time gains, each
// clamped to its own contribution so one dominant term cannot exceed
// 100 alone.
func valueScore(roiPct, paybackDays, reliabilityGainPp, timeSavedHours float64) float64 {
	roiTerm := clamp(roiPct/2, 0, 40) // 80% ROI maxes this term out
	paybackTerm := 0.0
	if !math.IsInf(paybackDays, 1) && paybackDays >= 0 {
		paybackTerm = clamp(30*(1-paybackDays/30), 0, 30) // 30 at 0 days, falling linearly to 0 at 30 days
	}
	reliabilityTerm := clamp(reliabilityGainPp, 0, 15)
	timeTerm := clamp(timeSavedHours, 0, 15)

	return clamp(roiTerm+paybackTerm+reliabilityTerm+timeTerm, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
