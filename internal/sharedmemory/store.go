// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

// Package sharedmemory implements the durable keyed store with versions,
// TTL and a change feed described in spec §4.3. It is the substrate the
// swarm coordinator publishes tasks, subtasks and assignments to.
//
// Grounded on the teacher's push-based notifier in its merge-queue
// package (callback list under a mutex, idempotent unsubscribe) and its
// config package's pattern of process-wide singletons with explicit
// construction.
package sharedmemory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openswarm-labs/agentswarm/internal/errs"
	"github.com/openswarm-labs/agentswarm/pkg/types"
)

// EventKind identifies the kind of mutation delivered to subscribers.
type EventKind string

const (
	EventInsert EventKind = "INSERT"
	EventUpdate EventKind = "UPDATE"
	EventDelete EventKind = "DELETE"
)

// Event is delivered to every matching subscriber for every insert,
// update and delete (spec §4.3 subscribe, §6 change feed).
type Event struct {
	Kind  EventKind
	Entry types.SharedMemoryEntry
}

// Filter narrows which events a subscriber receives. An empty field
// matches everything for that dimension.
type Filter struct {
	Key     string
	AgentID string
}

func (f Filter) matches(e types.SharedMemoryEntry) bool {
	if f.Key != "" && f.Key != e.Key {
		return false
	}
	if f.AgentID != "" && f.AgentID != e.AgentID {
		return false
	}
	return true
}

// Handle is returned by Subscribe; Unsubscribe is idempotent.
type Handle struct {
	id    uint64
	store *Store
}

// Unsubscribe removes the callback. Calling it more than once is a no-op.
func (h Handle) Unsubscribe() {
	h.store.unsubscribe(h.id)
}

type subscriber struct {
	id     uint64
	filter Filter
	cb     func(Event)
}

// record is the internal storage of a SharedMemoryEntry plus a
// monotonic sequence number used to total-order same-instant writes
// (spec §5 "on ties, the server-assigned monotonic id breaks ties").
type record struct {
	entry types.SharedMemoryEntry
	seq   uint64
}

// Store is the in-process shared memory substrate. The zero value is not
// usable; construct with New.
type Store struct {
	mu      sync.Mutex
	byID    map[string]*record
	byKey   map[string][]string // key -> entry ids, insertion order
	subs    map[uint64]subscriber
	nextSub uint64
	seq     uint64
	now     func() time.Time
}

// New constructs an empty Store. now defaults to time.Now when nil,
// overridable for deterministic tests.
func New(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		byID:  make(map[string]*record),
		byKey: make(map[string][]string),
		subs:  make(map[uint64]subscriber),
		now:   now,
	}
}

// Store creates a new entry with a fresh id; it never overwrites prior
// entries for the same key (spec §4.3 store).
func (s *Store) Store(key string, value interface{}, meta types.Metadata, agentID string, expiresAt *time.Time) types.SharedMemoryEntry {
	s.mu.Lock()
	now := s.now()
	entry := types.SharedMemoryEntry{
		ID:        uuid.NewString(),
		Key:       key,
		Value:     value,
		Metadata:  meta,
		AgentID:   agentID,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: expiresAt,
	}
	s.seq++
	s.byID[entry.ID] = &record{entry: entry, seq: s.seq}
	s.byKey[key] = append(s.byKey[key], entry.ID)
	s.mu.Unlock()

	s.publish(Event{Kind: EventInsert, Entry: entry})
	return entry
}

// Get returns the latest non-expired entry for key (max createdAt, ties
// broken by sequence), or (zero, false) if none exists.
func (s *Store) Get(key string) (types.SharedMemoryEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var latest *record
	for _, id := range s.byKey[key] {
		r, ok := s.byID[id]
		if !ok || r.entry.Expired(now) {
			continue
		}
		if latest == nil || isNewer(*r, *latest) {
			latest = r
		}
	}
	if latest == nil {
		return types.SharedMemoryEntry{}, false
	}
	return latest.entry, true
}

// GetAll returns all non-expired entries for key, newest first.
func (s *Store) GetAll(key string) []types.SharedMemoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var recs []record
	for _, id := range s.byKey[key] {
		r, ok := s.byID[id]
		if !ok || r.entry.Expired(now) {
			continue
		}
		recs = append(recs, *r)
	}
	sort.SliceStable(recs, func(i, j int) bool { return isNewer(recs[i], recs[j]) })

	out := make([]types.SharedMemoryEntry, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.entry)
	}
	return out
}

// Update in-place mutates value (and optionally metadata) of a specific
// entry and bumps updatedAt; fails with NotFound if id is absent (spec
// §4.3 update).
func (s *Store) Update(id string, value interface{}, meta *types.Metadata) (types.SharedMemoryEntry, error) {
	s.mu.Lock()
	r, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return types.SharedMemoryEntry{}, errs.New(errs.NotFound, "sharedmemory.Update", "entry "+id+" not found")
	}
	r.entry.Value = value
	if meta != nil {
		r.entry.Metadata = *meta
	}
	r.entry.UpdatedAt = s.now()
	updated := r.entry
	s.mu.Unlock()

	s.publish(Event{Kind: EventUpdate, Entry: updated})
	return updated, nil
}

// Delete hard-removes a single entry by id. Deleting an absent id is a
// no-op (spec leaves delete's missing-id behavior unspecified; treated
// as idempotent like Unsubscribe).
func (s *Store) Delete(id string) {
	s.mu.Lock()
	r, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.byID, id)
	ids := s.byKey[r.entry.Key]
	s.byKey[r.entry.Key] = removeID(ids, id)
	entry := r.entry
	s.mu.Unlock()

	s.publish(Event{Kind: EventDelete, Entry: entry})
}

// DeleteByKey hard-removes every entry for key.
func (s *Store) DeleteByKey(key string) {
	s.mu.Lock()
	ids := append([]string(nil), s.byKey[key]...)
	var deleted []types.SharedMemoryEntry
	for _, id := range ids {
		if r, ok := s.byID[id]; ok {
			deleted = append(deleted, r.entry)
			delete(s.byID, id)
		}
	}
	delete(s.byKey, key)
	s.mu.Unlock()

	for _, entry := range deleted {
		s.publish(Event{Kind: EventDelete, Entry: entry})
	}
}

// Query returns entries matching every provided filter (spec §4.3
// query); tags require all listed tags present. Default order: createdAt
// desc.
func (s *Store) Query(q types.MemoryQuery) []types.SharedMemoryEntry {
	s.mu.Lock()
	now := s.now()
	var recs []record
	for _, r := range s.byID {
		if r.entry.Expired(now) {
			continue
		}
		if q.Context != "" && r.entry.Metadata.Context != q.Context {
			continue
		}
		if q.AgentID != "" && r.entry.AgentID != q.AgentID {
			continue
		}
		if !hasAllTags(r.entry.Metadata.Tags, q.Tags) {
			continue
		}
		recs = append(recs, *r)
	}
	s.mu.Unlock()

	asc := q.OrderDir == "asc"
	byUpdated := q.OrderBy == "updatedAt"
	sort.SliceStable(recs, func(i, j int) bool {
		newer := isNewerBy(recs[i], recs[j], byUpdated)
		if asc {
			return !newer
		}
		return newer
	})

	if q.Limit > 0 && len(recs) > q.Limit {
		recs = recs[:q.Limit]
	}

	out := make([]types.SharedMemoryEntry, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.entry)
	}
	return out
}

// Subscribe registers cb to be invoked for every insert/update/delete
// observable under filter; delivery is at-least-once; Unsubscribe is
// idempotent (spec §4.3 subscribe, §9 subscriptions design note).
func (s *Store) Subscribe(filter Filter, cb func(Event)) Handle {
	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subs[id] = subscriber{id: id, filter: filter, cb: cb}
	s.mu.Unlock()
	return Handle{id: id, store: s}
}

func (s *Store) unsubscribe(id uint64) {
	s.mu.Lock()
	delete(s.subs, id)
	s.mu.Unlock()
}

// publish delivers ev to every matching subscriber synchronously,
// single-threaded, to avoid re-entrancy (spec §9 subscriptions).
func (s *Store) publish(ev Event) {
	s.mu.Lock()
	var matched []subscriber
	for _, sub := range s.subs {
		if sub.filter.matches(ev.Entry) {
			matched = append(matched, sub)
		}
	}
	s.mu.Unlock()

	for _, sub := range matched {
		sub.cb(ev)
	}
}

// CleanupExpired deletes entries with expiresAt <= now and returns the
// count removed (spec §4.3 cleanupExpired).
func (s *Store) CleanupExpired() int {
	s.mu.Lock()
	now := s.now()
	var expired []types.SharedMemoryEntry
	for id, r := range s.byID {
		if r.entry.ExpiresAt != nil && !r.entry.ExpiresAt.After(now) {
			expired = append(expired, r.entry)
			delete(s.byID, id)
		}
	}
	for _, entry := range expired {
		ids := s.byKey[entry.Key]
		s.byKey[entry.Key] = removeID(ids, entry.ID)
	}
	s.mu.Unlock()

	for _, entry := range expired {
		s.publish(Event{Kind: EventDelete, Entry: entry})
	}
	return len(expired)
}

func isNewer(a, b record) bool {
	if a.entry.CreatedAt.Equal(b.entry.CreatedAt) {
		return a.seq > b.seq
	}
	return a.entry.CreatedAt.After(b.entry.CreatedAt)
}

func isNewerBy(a, b record, byUpdated bool) bool {
	at, bt := a.entry.CreatedAt, b.entry.CreatedAt
	if byUpdated {
		at, bt = a.entry.UpdatedAt, b.entry.UpdatedAt
	}
	if at.Equal(bt) {
		return a.seq > b.seq
	}
	return at.After(bt)
}

func hasAllTags(have, required []string) bool {
	if len(required) == 0 {
		return true
	}
	set := make(map[string]bool, len(have))
	for _, t := range have {
		set[t] = true
	}
	for _, t := range required {
		if !set[t] {
			return false
		}
	}
	return true
}

func removeID(ids []string, target string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}
