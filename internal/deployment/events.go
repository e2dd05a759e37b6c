// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

// Package deployment implements the zero-downtime deployment controller
// (spec §4.9): a blue-green/rolling/canary state machine driving a
// Runtime's instance lifecycle, with health checks, gradual traffic
// shifting and rollback on failure.
package deployment

import "sync"

// Event is one entry on the deployment event stream (spec §4.9,
// §6 "Deployment event stream").
type Event struct {
	Name string // e.g. "deployment:started", "instance:started"
	Data map[string]interface{}
}

// EventBus is a minimal, synchronous publish/subscribe list, grounded on
// the same push-based notifier shape the shared memory substrate's
// Subscribe uses.
type EventBus struct {
	mu   sync.Mutex
	subs []func(Event)
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers cb for every future event.
func (b *EventBus) Subscribe(cb func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, cb)
}

func (b *EventBus) emit(name string, data map[string]interface{}) {
	b.mu.Lock()
	subs := append([]func(Event){}, b.subs...)
	b.mu.Unlock()

	ev := Event{Name: name, Data: data}
	for _, cb := range subs {
		cb(ev)
	}
}
