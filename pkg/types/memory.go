// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package types

import "time"

// Metadata is the schema-free bag attached to every shared memory entry
// (spec §9 "Dynamic values in shared memory" design note).
type Metadata struct {
	Tags     []string               `json:"tags,omitempty"`
	Context  string                 `json:"context,omitempty"`
	Priority int                    `json:"priority,omitempty"`
	Extra    map[string]interface{} `json:"extra,omitempty"`
}

// SharedMemoryEntry is one version of a keyed value in the shared memory
// substrate (spec §3/§4.3).
type SharedMemoryEntry struct {
	ID        string
	Key       string
	Value     interface{}
	Metadata  Metadata
	AgentID   string
	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt *time.Time
}

// Expired reports whether the entry is invisible to reads at instant now.
func (e SharedMemoryEntry) Expired(now time.Time) bool {
	return e.ExpiresAt != nil && !e.ExpiresAt.After(now)
}

// MemoryQuery filters entries returned by SharedMemory.Query.
type MemoryQuery struct {
	Context  string
	Tags     []string
	AgentID  string
	Limit    int
	OrderBy  string // "createdAt" (default) or "updatedAt"
	OrderDir string // "asc" or "desc" (default "desc")
}
