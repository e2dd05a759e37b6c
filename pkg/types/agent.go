// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

// Package types provides shared domain types used across the agent
// orchestration substrate.
//
// This package contains core data-model types shared between packages to
// break circular dependencies. Types here should be:
// - Pure data structures (no behavior beyond simple derivations)
// - Serializable for Temporal workflows and the shared memory store
// - Stable and version-controlled
package types

import "time"

// LivenessState describes whether an agent is still participating in the
// swarm.
type LivenessState string

const (
	LivenessAlive LivenessState = "alive"
	LivenessDead  LivenessState = "dead"
)

// Fitness holds the five normalised fitness components tracked for an
// agent (each in [0,1] unless noted otherwise).
type Fitness struct {
	Survival       float64 // normalised survival duration
	Earnings       float64 // normalised earnings rate
	OffspringCount int     // raw count, not normalised
	Adaptation     float64 // normalised adaptation score
	Innovation     float64 // normalised innovation score
}

// TraitBag lists an agent's declared skills and tools.
type TraitBag struct {
	Skills []string
	Tools  []string
}

// Agent is the identity and mutable state of a single swarm participant.
//
// Tier is derived from Balance via tiers.Of and is not stored separately;
// callers that need it should call tiers.Of(agent.Balance).
type Agent struct {
	ID         string
	Balance    float64
	Age        time.Duration
	Fitness    Fitness
	Liveness   LivenessState
	Traits     TraitBag
	CurrentLoad int
	CreatedAt  time.Time
}

// IsAlive reports whether the agent may still be assigned work.
func (a Agent) IsAlive() bool {
	return a.Liveness == LivenessAlive
}
