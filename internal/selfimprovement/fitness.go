// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package selfimprovement

import "github.com/openswarm-labs/agentswarm/pkg/types"

// successFitnessGainThreshold is the minimum relative rise in overall
// fitness that counts as a successful improvement (spec §4.7 step 6).
const successFitnessGainThreshold = 0.05

// Succeeded reports whether an improvement, observed over a 7-day window
// by comparing before/after fitness snapshots, actually raised the
// agent's overall fitness by at least 5% (spec §4.7 step 6).
func Succeeded(before, after types.FitnessSnapshot) bool {
	if before.OverallFitness <= 0 {
		return after.OverallFitness > 0
	}
	return (after.OverallFitness-before.OverallFitness)/before.OverallFitness >= successFitnessGainThreshold
}
