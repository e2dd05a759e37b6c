// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package selfimprovement

import (
	"time"

	"github.com/openswarm-labs/agentswarm/internal/errs"
	"github.com/openswarm-labs/agentswarm/pkg/types"
)

// Pipeline drives a single proposal through its strict state machine
// (spec §4.7): proposed -> testing -> measuring -> {validated->applied |
// rejected}. Only `validated` permits ApplyToProduction.
type Pipeline struct {
	Proposal types.ImprovementProposal
}

// NewPipeline starts a pipeline from an opportunity, in status=proposed.
func NewPipeline(opportunity Opportunity) *Pipeline {
	return &Pipeline{Proposal: Propose(opportunity)}
}

// BeginSandboxTest transitions proposed -> testing.
func (p *Pipeline) BeginSandboxTest() error {
	if p.Proposal.Status != types.StatusProposed {
		return errs.New(errs.PreconditionFailed, "selfimprovement.BeginSandboxTest", "proposal is not in status proposed")
	}
	p.Proposal.Status = types.StatusTesting
	return nil
}

// BeginMeasurement transitions testing -> measuring.
func (p *Pipeline) BeginMeasurement() error {
	if p.Proposal.Status != types.StatusTesting {
		return errs.New(errs.PreconditionFailed, "selfimprovement.BeginMeasurement", "proposal is not in status testing")
	}
	p.Proposal.Status = types.StatusMeasuring
	return nil
}

// Validate applies the validation rule to impact, mutating impact's
// Validated/ValidationReason fields and transitioning the proposal to
// validated or rejected (spec §4.7 step 4).
func (p *Pipeline) Validate(impact *types.ImpactMeasurement) error {
	if p.Proposal.Status != types.StatusMeasuring {
		return errs.New(errs.PreconditionFailed, "selfimprovement.Validate", "proposal is not in status measuring")
	}

	validated, reason := validate(p.Proposal, *impact)
	impact.Validated = validated
	impact.ValidationReason = reason

	if validated {
		p.Proposal.Status = types.StatusValidated
	} else {
		p.Proposal.Status = types.StatusRejected
	}
	return nil
}

// ApplyToProduction emits the change list, rollback plan and composite
// impact score for a validated proposal (spec §4.7 step 5). Calling it
// on anything but a validated proposal fails with PreconditionFailed,
// matching the spec's literal message.
func (p *Pipeline) ApplyToProduction(impact types.ImpactMeasurement, changes []types.Change, rollback types.RollbackPlan, appliedAt time.Time) (types.AppliedModification, error) {
	if p.Proposal.Status != types.StatusValidated {
		return types.AppliedModification{}, errs.New(errs.PreconditionFailed, "selfimprovement.ApplyToProduction", "Cannot apply unvalidated improvement")
	}

	p.Proposal.Status = types.StatusApplied

	return types.AppliedModification{
		ProposalID:  p.Proposal.ID,
		Changes:     changes,
		Rollback:    rollback,
		Measurement: impact,
		ImpactScore: ImpactScore(impact),
		AppliedAt:   appliedAt,
	}, nil
}

// ImpactScore is the composite score spec §4.7 step 5 defines:
// 0.3·speed + 0.4·cost + 0.3·reliability.
func ImpactScore(impact types.ImpactMeasurement) float64 {
	return 0.3*impact.SpeedImprovementPct + 0.4*impact.CostReductionPct + 0.3*impact.ReliabilityImprovementPp
}
