// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package swarm

import (
	"reflect"

	"github.com/openswarm-labs/agentswarm/pkg/types"
)

// synthesizeOutput resolves same-description conflicts, then combines
// the representative results with the configured strategy (spec §4.6
// step 4).
func synthesizeOutput(subtasks []*types.SubTask, results map[string]interface{}, completionOrder []string, opts Options) interface{} {
	ordered := resolveConflicts(subtasks, results, completionOrder, opts.Conflict)
	return synthesize(ordered, opts.Synthesis)
}

// resolveConflicts groups subtasks by description; groups with a single
// member pass through untouched, groups with more than one are reduced
// to a single representative result via opts.Conflict (spec §4.6: "first
// /last/majority of their results"). The returned slice preserves
// subtasks slice order, deduplicated to one entry per description group.
func resolveConflicts(subtasks []*types.SubTask, results map[string]interface{}, completionOrder []string, resolution ConflictResolution) []interface{} {
	completionIndex := make(map[string]int, len(completionOrder))
	for i, id := range completionOrder {
		completionIndex[id] = i
	}

	byDescription := make(map[string][]string) // description -> subtask ids, subtasks slice order
	var descOrder []string
	for _, st := range subtasks {
		if _, ok := results[st.ID]; !ok {
			continue
		}
		if _, seen := byDescription[st.Description]; !seen {
			descOrder = append(descOrder, st.Description)
		}
		byDescription[st.Description] = append(byDescription[st.Description], st.ID)
	}

	out := make([]interface{}, 0, len(descOrder))
	for _, desc := range descOrder {
		ids := byDescription[desc]
		if len(ids) == 1 {
			out = append(out, results[ids[0]])
			continue
		}
		out = append(out, pickConflict(ids, results, completionIndex, resolution))
	}
	return out
}

func pickConflict(ids []string, results map[string]interface{}, completionIndex map[string]int, resolution ConflictResolution) interface{} {
	switch resolution {
	case ConflictLast:
		return results[latestByCompletion(ids, completionIndex)]
	case ConflictMajority:
		return mode(valuesOf(ids, results))
	default: // ConflictFirst
		return results[earliestByCompletion(ids, completionIndex)]
	}
}

func earliestByCompletion(ids []string, completionIndex map[string]int) string {
	best := ids[0]
	for _, id := range ids[1:] {
		if completionIndex[id] < completionIndex[best] {
			best = id
		}
	}
	return best
}

func latestByCompletion(ids []string, completionIndex map[string]int) string {
	best := ids[0]
	for _, id := range ids[1:] {
		if completionIndex[id] > completionIndex[best] {
			best = id
		}
	}
	return best
}

func valuesOf(ids []string, results map[string]interface{}) []interface{} {
	out := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		out = append(out, results[id])
	}
	return out
}

// synthesize combines ordered results using strategy (spec §4.6 step 4).
func synthesize(ordered []interface{}, strategy SynthesisStrategy) interface{} {
	switch strategy {
	case SynthesizeMerge:
		return mergeResults(ordered)
	case SynthesizeVote:
		return mode(ordered)
	case SynthesizeWeightedAverage:
		return weightedAverage(ordered)
	default: // SynthesizeConcatenate
		return ordered
	}
}

// mergeResults spread-merges object results in order; if results are
// scalar, last one wins.
func mergeResults(ordered []interface{}) interface{} {
	merged := make(map[string]interface{})
	sawObject := false
	var lastScalar interface{}
	for _, v := range ordered {
		if obj, ok := v.(map[string]interface{}); ok {
			sawObject = true
			for k, val := range obj {
				merged[k] = val
			}
			continue
		}
		lastScalar = v
	}
	if sawObject {
		return merged
	}
	return lastScalar
}

// mode returns the most frequent value by deep equality; ties broken by
// first occurrence.
func mode(values []interface{}) interface{} {
	if len(values) == 0 {
		return nil
	}
	type bucket struct {
		value interface{}
		count int
	}
	var buckets []bucket
	for _, v := range values {
		found := false
		for i := range buckets {
			if reflect.DeepEqual(buckets[i].value, v) {
				buckets[i].count++
				found = true
				break
			}
		}
		if !found {
			buckets = append(buckets, bucket{value: v, count: 1})
		}
	}
	best := buckets[0]
	for _, b := range buckets[1:] {
		if b.count > best.count {
			best = b
		}
	}
	return best.value
}

// weightedAverage computes the equal-weight numeric mean of ordered
// results (spec §4.6: "numeric mean, equal weights by default").
func weightedAverage(ordered []interface{}) float64 {
	sum := 0.0
	n := 0
	for _, v := range ordered {
		f, ok := toFloat(v)
		if !ok {
			continue
		}
		sum += f
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
