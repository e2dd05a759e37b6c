// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

// Package roles implements role specialisation, suitability scoring, and
// subtask assignment (spec §4.4). Grounded on the teacher's
// internal/orchestration coordinator (wave-based agent selection) and
// pkg/dag's toposort-backed scheduler.
package roles

import "github.com/openswarm-labs/agentswarm/pkg/types"

// RoleName identifies one of the four roles (spec §4.4).
type RoleName string

const (
	RoleResearcher  RoleName = "researcher"
	RoleCoder       RoleName = "coder"
	RoleTrader      RoleName = "trader"
	RoleCoordinator RoleName = "coordinator"
)

// Order lists the four roles in enumeration order, used as the
// deterministic tie-break for role assignment (spec §4.4).
var Order = []RoleName{RoleResearcher, RoleCoder, RoleTrader, RoleCoordinator}

// Role is the static definition of a role's requirements and preferences.
type Role struct {
	Name               RoleName
	RequiredCapabilities []string
	PreferredTools       []string
	MinExperience        float64 // normalised, in days or arbitrary unit
	MinFitness           float64 // 0 means no fitness gate
}

// Catalog is the built-in role table.
var Catalog = map[RoleName]Role{
	RoleResearcher: {
		Name:                 RoleResearcher,
		RequiredCapabilities: []string{"research"},
		PreferredTools:       []string{"web_search", "document_reader"},
		MinExperience:        0,
	},
	RoleCoder: {
		Name:                 RoleCoder,
		RequiredCapabilities: []string{"experiment"},
		PreferredTools:       []string{"code_editor", "test_runner"},
		MinExperience:        1,
	},
	RoleTrader: {
		Name:                 RoleTrader,
		RequiredCapabilities: []string{"trade"},
		PreferredTools:       []string{"exchange_client", "wallet"},
		MinExperience:        2,
		MinFitness:           0.3,
	},
	RoleCoordinator: {
		Name:                 RoleCoordinator,
		RequiredCapabilities: []string{"coordinate", "experiment"},
		PreferredTools:       []string{"shared_memory_client"},
		MinExperience:        3,
		MinFitness:           0.4,
	},
}

// AgentExperience is a small view over an Agent's experience in whatever
// unit the caller's MinExperience gates use (e.g. age in days).
type AgentExperience struct {
	Agent      types.Agent
	Experience float64
	Capabilities []string
}

// overallFitness collapses an Agent's five-component Fitness into the
// single [0,1] score used by the suitability formula.
func overallFitness(f types.Fitness) float64 {
	return clamp01(0.25*f.Survival + 0.35*f.Earnings + 0.20*normalizedOffspring(f.OffspringCount) + 0.20*f.Adaptation)
}

func normalizedOffspring(n int) float64 {
	if n <= 0 {
		return 0
	}
	if n >= 10 {
		return 1
	}
	return float64(n) / 10
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// fractionPresent returns |required ∩ have| / |required|, or 1 when
// required is empty (nothing to satisfy).
func fractionPresent(required, have []string) float64 {
	if len(required) == 0 {
		return 1
	}
	haveSet := make(map[string]bool, len(have))
	for _, h := range have {
		haveSet[h] = true
	}
	matched := 0
	for _, r := range required {
		if haveSet[r] {
			matched++
		}
	}
	return float64(matched) / float64(len(required))
}

// Suitability computes the 0..1 role fit score for an agent (spec §4.4):
// experience(20) + fitness(20) + capability match(40) + tool match(20),
// each scaled to its own max out of 100, then normalised to [0,1].
//
// A missing gate (MinExperience or MinFitness not met) earns partial
// credit proportional to agent/gate instead of zero.
func Suitability(exp AgentExperience, role Role) float64 {
	agentFitness := overallFitness(exp.Agent.Fitness)

	experienceScore := 20.0
	if role.MinExperience > 0 {
		experienceScore = 20.0 * clamp01(exp.Experience/role.MinExperience)
	}

	fitnessScore := 20.0
	if role.MinFitness > 0 {
		fitnessScore = 20.0 * clamp01(agentFitness/role.MinFitness)
	}

	capabilityScore := 40.0 * fractionPresent(role.RequiredCapabilities, exp.Capabilities)
	toolScore := 20.0 * fractionPresent(role.PreferredTools, exp.Agent.Traits.Tools)

	total := experienceScore + fitnessScore + capabilityScore + toolScore
	return clamp01(total / 100.0)
}

// AssignRole picks the best role for an agent: if a preferred role scores
// >= 0.5 it wins outright, otherwise the argmax across all roles is used,
// with enumeration order as the deterministic tie-break (spec §4.4).
func AssignRole(exp AgentExperience, preferred RoleName) (RoleName, float64) {
	if preferred != "" {
		if role, ok := Catalog[preferred]; ok {
			if score := Suitability(exp, role); score >= 0.5 {
				return preferred, score
			}
		}
	}

	var best RoleName
	bestScore := -1.0
	for _, name := range Order {
		score := Suitability(exp, Catalog[name])
		if score > bestScore {
			bestScore = score
			best = name
		}
	}
	return best, bestScore
}
