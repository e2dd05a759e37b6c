// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package roles

import (
	"sort"

	"github.com/openswarm-labs/agentswarm/pkg/dag"
	"github.com/openswarm-labs/agentswarm/pkg/types"
)

// Strategy selects which eligible agent a subtask is given to (spec §4.4).
type Strategy string

const (
	StrategyBestMatch    Strategy = "best_match"
	StrategyLoadBalanced Strategy = "load_balanced"
	StrategyRoundRobin   Strategy = "round_robin"
)

// maxLoadByTier is the load ceiling table from spec §4.4. Tier names that
// are not listed fall through to "default".
var maxLoadByTier = map[string]int{
	"flourishing": 5,
	"thriving":    3,
	"surviving":   2,
	"struggling":  1,
	"default":     1,
}

// MaxLoad returns the load ceiling for a tier name.
func MaxLoad(tierName string) int {
	if v, ok := maxLoadByTier[tierName]; ok {
		return v
	}
	return maxLoadByTier["default"]
}

// CandidateAgent is the view of an agent the assignment step needs:
// liveness, current load, tier name (for MaxLoad), and the experience
// data Suitability requires.
type CandidateAgent struct {
	Experience AgentExperience
	TierName   string
}

func (c CandidateAgent) id() string { return c.Experience.Agent.ID }

// eligible filters candidates by status=alive and currentLoad < maxLoad(tier),
// reading currentLoad from load (keyed by agent id) rather than the
// candidate's own snapshot, so loads bumped earlier in the same
// assignment pass are honoured.
func eligible(candidates []CandidateAgent, load map[string]int) []CandidateAgent {
	out := make([]CandidateAgent, 0, len(candidates))
	for _, c := range candidates {
		if !c.Experience.Agent.IsAlive() {
			continue
		}
		if load[c.id()] >= MaxLoad(c.TierName) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// AssignSubtasks mutates subtasks in place, assigning AssignedAgentID and
// AssignedRole according to strategy, and bumps each chosen agent's
// CurrentLoad in agentLoad (keyed by agent id) as assignments happen
// (spec §4.4 steps 1-4).
//
// subtasks must already satisfy the ComplexTask/SubTask invariants
// (dependency ids resolve locally, no cycles reported separately by the
// decomposition package); cyclic topo-sort fallback here only affects
// scheduling order, never correctness of the returned assignments.
func AssignSubtasks(subtasks []*types.SubTask, candidates []CandidateAgent, strategy Strategy, agentLoad map[string]int) (cyclic bool) {
	nodes := make([]dag.Node, 0, len(subtasks))
	byID := make(map[string]*types.SubTask, len(subtasks))
	for _, st := range subtasks {
		nodes = append(nodes, *st)
		byID[st.ID] = st
	}

	scheduler := &dag.Scheduler{}
	order, cyc := scheduler.BuildExecutionOrder(nodes)
	cyclic = cyc

	// agentLoad is the single source of truth for load throughout this
	// pass: seed it from each candidate's own CurrentLoad so the ceiling
	// and comparators below see a real starting point, then bump it (and
	// only it) as assignments are made.
	for _, c := range candidates {
		if _, ok := agentLoad[c.id()]; !ok {
			agentLoad[c.id()] = c.Experience.Agent.CurrentLoad
		}
	}

	for _, id := range order {
		st := byID[id]
		if st.Status != types.SubTaskPending {
			continue
		}

		live := eligible(candidates, agentLoad)
		if len(live) == 0 {
			continue
		}

		role, _ := resolveRole(st, live)
		chosen := selectByStrategy(strategy, live, role, agentLoad)
		if chosen == nil {
			continue
		}

		st.AssignedAgentID = chosen.id()
		st.AssignedRole = string(role)
		agentLoad[chosen.id()]++
	}

	return cyclic
}

// resolveRole derives the preferred role for a subtask (already assigned
// by decomposition, if any) and scores it across the first live
// candidate to obtain a representative role name; actual per-candidate
// suitability is recomputed inside selectByStrategy.
func resolveRole(st *types.SubTask, live []CandidateAgent) (RoleName, float64) {
	preferred := RoleName(st.AssignedRole)
	return AssignRole(live[0].Experience, preferred)
}

// selectByStrategy implements the three assignment strategies (spec §4.4
// step 3), comparing load via the shared load map rather than each
// candidate's own (possibly stale) CurrentLoad snapshot.
func selectByStrategy(strategy Strategy, live []CandidateAgent, role RoleName, load map[string]int) *CandidateAgent {
	roleFiltered := filterByRoleEligible(live, role)
	if len(roleFiltered) == 0 {
		roleFiltered = live
	}

	switch strategy {
	case StrategyBestMatch:
		sort.SliceStable(roleFiltered, func(i, j int) bool {
			si := Suitability(roleFiltered[i].Experience, Catalog[role])
			sj := Suitability(roleFiltered[j].Experience, Catalog[role])
			if si != sj {
				return si > sj
			}
			return roleFiltered[i].id() < roleFiltered[j].id()
		})
		return &roleFiltered[0]
	case StrategyLoadBalanced:
		sort.SliceStable(roleFiltered, func(i, j int) bool {
			return load[roleFiltered[i].id()] < load[roleFiltered[j].id()]
		})
		return &roleFiltered[0]
	case StrategyRoundRobin:
		sort.SliceStable(roleFiltered, func(i, j int) bool {
			return roleFiltered[i].id() < roleFiltered[j].id()
		})
		sort.SliceStable(roleFiltered, func(i, j int) bool {
			return load[roleFiltered[i].id()] < load[roleFiltered[j].id()]
		})
		return &roleFiltered[0]
	default:
		return &roleFiltered[0]
	}
}

func filterByRoleEligible(candidates []CandidateAgent, role RoleName) []CandidateAgent {
	out := make([]CandidateAgent, 0, len(candidates))
	for _, c := range candidates {
		assigned, _ := AssignRole(c.Experience, role)
		if assigned == role {
			out = append(out, c)
		}
	}
	return out
}
