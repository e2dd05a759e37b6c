// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package types

import "time"

// CollaborationRecord tracks a single multi-agent collaboration (spec §3).
//
// Immutable except for the (CompletedAt, Success, Output) triple, written
// once when the collaboration ends.
type CollaborationRecord struct {
	ID             string
	TaskID         string
	ParticipantIDs []string
	StartedAt      time.Time
	CompletedAt    *time.Time
	Success        *bool
	Output         interface{}
}
