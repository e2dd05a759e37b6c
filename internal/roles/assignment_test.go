// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openswarm-labs/agentswarm/pkg/types"
)

func makeCandidate(id string, tier string, load int, caps, tools []string) CandidateAgent {
	return CandidateAgent{
		TierName: tier,
		Experience: AgentExperience{
			Agent: types.Agent{
				ID:          id,
				Liveness:    types.LivenessAlive,
				CurrentLoad: load,
				Traits:      types.TraitBag{Tools: tools},
				Fitness:     types.Fitness{Survival: 1, Earnings: 1, Adaptation: 1, Innovation: 1},
			},
			Experience:   5,
			Capabilities: caps,
		},
	}
}

func TestAssignSubtasks_TopoOrderThenBestMatch(t *testing.T) {
	subtasks := []*types.SubTask{
		{ID: "A", Status: types.SubTaskPending},
		{ID: "B", Status: types.SubTaskPending, Deps: []string{"A"}},
	}
	candidates := []CandidateAgent{
		makeCandidate("agent-1", "thriving", 0, []string{"research"}, []string{"web_search", "document_reader"}),
	}
	load := map[string]int{}

	cyclic := AssignSubtasks(subtasks, candidates, StrategyBestMatch, load)

	require.False(t, cyclic)
	assert.Equal(t, "agent-1", subtasks[0].AssignedAgentID)
	assert.Equal(t, "agent-1", subtasks[1].AssignedAgentID)
	assert.Equal(t, 2, load["agent-1"])
}

func TestAssignSubtasks_NoEligibleAgentsLeavesUnassigned(t *testing.T) {
	subtasks := []*types.SubTask{{ID: "A", Status: types.SubTaskPending}}
	candidates := []CandidateAgent{makeCandidate("agent-1", "struggling", 5, nil, nil)} // over max load
	load := map[string]int{}

	AssignSubtasks(subtasks, candidates, StrategyLoadBalanced, load)

	assert.Empty(t, subtasks[0].AssignedAgentID)
}

func TestAssignSubtasks_LoadBalancedSpreadsAcrossAgents(t *testing.T) {
	subtasks := []*types.SubTask{
		{ID: "A", Status: types.SubTaskPending},
		{ID: "B", Status: types.SubTaskPending},
	}
	candidates := []CandidateAgent{
		makeCandidate("agent-1", "thriving", 0, []string{"research"}, nil),
		makeCandidate("agent-2", "thriving", 0, []string{"research"}, nil),
	}
	load := map[string]int{}

	AssignSubtasks(subtasks, candidates, StrategyLoadBalanced, load)

	require.NotEmpty(t, subtasks[0].AssignedAgentID)
	require.NotEmpty(t, subtasks[1].AssignedAgentID)
	assert.NotEqual(t, subtasks[0].AssignedAgentID, subtasks[1].AssignedAgentID)
	assert.Equal(t, 1, load["agent-1"])
	assert.Equal(t, 1, load["agent-2"])
}

func TestAssignSubtasks_SkipsAgentAtMaxLoadMidPass(t *testing.T) {
	subtasks := []*types.SubTask{
		{ID: "A", Status: types.SubTaskPending},
		{ID: "B", Status: types.SubTaskPending},
	}
	candidates := []CandidateAgent{makeCandidate("agent-1", "struggling", 0, []string{"research"}, nil)} // MaxLoad=1
	load := map[string]int{}

	AssignSubtasks(subtasks, candidates, StrategyLoadBalanced, load)

	assert.Equal(t, "agent-1", subtasks[0].AssignedAgentID)
	assert.Empty(t, subtasks[1].AssignedAgentID, "second subtask must not exceed agent-1's MaxLoad")
	assert.Equal(t, 1, load["agent-1"])
}

func TestAssignSubtasks_CyclicSurfaced(t *testing.T) {
	subtasks := []*types.SubTask{
		{ID: "A", Status: types.SubTaskPending, Deps: []string{"B"}},
		{ID: "B", Status: types.SubTaskPending, Deps: []string{"A"}},
	}
	candidates := []CandidateAgent{makeCandidate("agent-1", "thriving", 0, []string{"research"}, nil)}
	load := map[string]int{}

	cyclic := AssignSubtasks(subtasks, candidates, StrategyRoundRobin, load)
	assert.True(t, cyclic)
}
