// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

// Package selfimprovement implements the self-improvement pipeline (spec
// §4.7): propose a change, sandbox-test it, measure its 7-day field
// impact, validate, apply to production with a rollback plan, and track
// whether it actually raised the agent's fitness.
package selfimprovement

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/openswarm-labs/agentswarm/pkg/types"
)

// Opportunity is the input to Propose: an observed place an agent could
// improve, with an expected impact on one of the three metrics.
type Opportunity struct {
	ID                string
	AgentID           string
	Category          string // "cost", "speed", "reliability", or anything else
	ExpectedImpactPct float64
}

// Propose maps an opportunity's category to a proposal kind and target
// metric (spec §4.7 step 1): cost→model_switch, speed→tool_optimization,
// reliability→prompt_refinement, else→config_change.
func Propose(o Opportunity) types.ImprovementProposal {
	kind := kindFor(o.Category)
	metric := metricFor(o.Category)

	return types.ImprovementProposal{
		ID:                     uuid.NewString(),
		AgentID:                o.AgentID,
		OpportunityID:          o.ID,
		Kind:                   kind,
		TargetMetric:           metric,
		ExpectedImprovementPct: o.ExpectedImpactPct,
		Hypothesis:             hypothesis(kind, metric, o.ExpectedImpactPct),
		Status:                 types.StatusProposed,
	}
}

func kindFor(category string) types.ImprovementKind {
	switch category {
	case "cost":
		return types.KindModelSwitch
	case "speed":
		return types.KindToolOptimization
	case "reliability":
		return types.KindPromptRefinement
	default:
		return types.KindConfigChange
	}
}

func metricFor(category string) types.TargetMetric {
	switch category {
	case "cost":
		return types.MetricCost
	case "speed":
		return types.MetricSpeed
	case "reliability":
		return types.MetricReliability
	default:
		return ""
	}
}

func hypothesis(kind types.ImprovementKind, metric types.TargetMetric, expectedPct float64) string {
	if metric == "" {
		return fmt.Sprintf("applying a %s should improve agent behaviour by an estimated %.1f%%", kind, expectedPct)
	}
	return fmt.Sprintf("applying a %s should move %s by an estimated %.1f%%", kind, metric, expectedPct)
}
