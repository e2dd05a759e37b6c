// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

// Package decomposition turns a ComplexTask into a validated subtask DAG
// (spec §4.5).
package decomposition

import (
	"fmt"
	"strings"

	"github.com/openswarm-labs/agentswarm/internal/errs"
	"github.com/openswarm-labs/agentswarm/internal/roles"
	"github.com/openswarm-labs/agentswarm/pkg/dag"
	"github.com/openswarm-labs/agentswarm/pkg/types"
)

// keywordRoles maps description keywords to the role they hint at (spec
// §4.5): research/implement|code/trade|swap/coordinate.
var keywordRoles = []struct {
	keywords []string
	role     roles.RoleName
}{
	{[]string{"research"}, roles.RoleResearcher},
	{[]string{"implement", "code"}, roles.RoleCoder},
	{[]string{"trade", "swap"}, roles.RoleTrader},
	{[]string{"coordinate"}, roles.RoleCoordinator},
}

// coordinatorThreshold is the DAG size above which a coordinator subtask
// is always present (spec §4.5).
const coordinatorThreshold = 3

// Decompose deterministically turns a ComplexTask into a non-empty list
// of SubTasks forming a DAG: every Deps entry resolves locally, there is
// at least one entry-point, and every requirement is addressed by at
// least one subtask.
func Decompose(task types.ComplexTask) ([]types.SubTask, error) {
	if task.ID == "" {
		return nil, errs.New(errs.InputInvalid, "decomposition.Decompose", "task id is required")
	}

	subtasks := make([]types.SubTask, 0, len(task.Requirements)+1)

	// One subtask per requirement, in requirement order, each hinting at
	// a role from its own keywords and depending on the prior subtask so
	// later requirements build on earlier ones deterministically.
	var prevID string
	for i, req := range task.Requirements {
		id := fmt.Sprintf("%s:req:%d", task.ID, i)
		st := types.SubTask{
			ID:           id,
			TaskID:       task.ID,
			Description:  req,
			Status:       types.SubTaskPending,
			AssignedRole: string(roleHintFor(req)),
		}
		if prevID != "" {
			st.Deps = []string{prevID}
		}
		subtasks = append(subtasks, st)
		prevID = id
	}

	if len(subtasks) == 0 {
		// No explicit requirements: still produce a single entry-point
		// subtask from the task description so the DAG invariant ("at
		// least one subtask") holds.
		subtasks = append(subtasks, types.SubTask{
			ID:           fmt.Sprintf("%s:main", task.ID),
			TaskID:       task.ID,
			Description:  task.Description,
			Status:       types.SubTaskPending,
			AssignedRole: string(roleHintFor(task.Description)),
		})
	}

	if len(subtasks) > coordinatorThreshold {
		subtasks = append(subtasks, types.SubTask{
			ID:           fmt.Sprintf("%s:coordinate", task.ID),
			TaskID:       task.ID,
			Description:  "coordinate and synthesise subtask results",
			Status:       types.SubTaskPending,
			AssignedRole: string(roles.RoleCoordinator),
			Deps:         []string{subtasks[len(subtasks)-1].ID},
		})
	}

	if err := Validate(task, subtasks); err != nil {
		return nil, err
	}

	return subtasks, nil
}

// roleHintFor derives a role assignment hint from description keywords
// (spec §4.5), defaulting to researcher when nothing matches.
func roleHintFor(description string) roles.RoleName {
	lower := strings.ToLower(description)
	for _, kr := range keywordRoles {
		for _, kw := range kr.keywords {
			if strings.Contains(lower, kw) {
				return kr.role
			}
		}
	}
	return roles.RoleResearcher
}

// Validate checks the DAG invariants spec §8 requires of every
// decomposition: every dependency id resolves locally, no cycles, at
// least one entry-point, every requirement addressed by at least one
// subtask.
func Validate(task types.ComplexTask, subtasks []types.SubTask) error {
	if len(subtasks) == 0 {
		return errs.New(errs.InputInvalid, "decomposition.Validate", fmt.Sprintf("produced zero subtasks for task %s", task.ID))
	}

	ids := make(map[string]bool, len(subtasks))
	for _, st := range subtasks {
		ids[st.ID] = true
	}

	hasEntryPoint := false
	nodes := make([]dag.Node, 0, len(subtasks))
	for _, st := range subtasks {
		if len(st.Deps) == 0 {
			hasEntryPoint = true
		}
		for _, dep := range st.Deps {
			if !ids[dep] {
				return errs.New(errs.InputInvalid, "decomposition.Validate", fmt.Sprintf("subtask %s depends on unknown subtask %s", st.ID, dep))
			}
		}
		nodes = append(nodes, st)
	}
	if !hasEntryPoint {
		return errs.New(errs.InputInvalid, "decomposition.Validate", "no entry-point subtask (all subtasks have dependencies)")
	}

	scheduler := &dag.Scheduler{}
	if _, cyclic := scheduler.BuildExecutionOrder(nodes); cyclic {
		return errs.New(errs.InputInvalid, "decomposition.Validate", fmt.Sprintf("cyclic dependency detected in task %s", task.ID))
	}

	for _, req := range task.Requirements {
		addressed := false
		for _, st := range subtasks {
			if st.Description == req {
				addressed = true
				break
			}
		}
		if !addressed {
			return errs.New(errs.InputInvalid, "decomposition.Validate", fmt.Sprintf("requirement %q not addressed by any subtask", req))
		}
	}

	return nil
}
