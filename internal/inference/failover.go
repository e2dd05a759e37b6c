// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package inference

import (
	"context"
	"sort"
	"sync"
	"time"
)

// unavailabilityWindow is how long a model is marked unavailable after
// an exception, before it is eligible to be retried (spec §6: "~5 minutes").
const unavailabilityWindow = 5 * time.Minute

// ModelInfo describes a registered model for the fallback-of-last-resort
// search: quality/context-length/priority, used only when the
// configured fallback list is exhausted.
type ModelInfo struct {
	ID            string
	QualityScore  float64 // higher is better
	ContextLength int
	Priority      int // lower is tried first among ties
}

// FailoverEvent is emitted on every failover attempt (spec §6).
type FailoverEvent struct {
	Primary  string
	Fallback string
	Reason   string
	Success  bool
	Latency  time.Duration
}

// Call invokes the underlying chat for a specific model id.
type Call func(ctx context.Context, modelID string) (ChatResult, error)

// Router implements the model failover contract: primary model id with
// a deterministic ordered fallback list; on exception the failed model
// is marked unavailable for a window, and the next candidate is tried.
// When the configured fallback list is exhausted, it widens the search
// to every registered model, ranked for best fit.
type Router struct {
	mu        sync.Mutex
	primary   string
	fallbacks []string
	registry  []ModelInfo
	until     map[string]time.Time
	now       func() time.Time
	onEvent   func(FailoverEvent)
}

// NewRouter constructs a Router. now defaults to time.Now; onEvent may
// be nil.
func NewRouter(primary string, fallbacks []string, registry []ModelInfo, now func() time.Time, onEvent func(FailoverEvent)) *Router {
	if now == nil {
		now = time.Now
	}
	return &Router{
		primary:   primary,
		fallbacks: fallbacks,
		registry:  registry,
		until:     map[string]time.Time{},
		now:       now,
		onEvent:   onEvent,
	}
}

// Execute tries the primary model, then the configured fallbacks in
// order, then the full registry ranked by fit, invoking call for each
// candidate until one succeeds or every candidate is exhausted.
func (r *Router) Execute(ctx context.Context, call Call) (ChatResult, error) {
	var lastErr error
	tried := map[string]bool{}

	for _, modelID := range r.candidates() {
		if tried[modelID] || !r.available(modelID) {
			continue
		}
		tried[modelID] = true

		start := r.now()
		result, err := call(ctx, modelID)
		latency := r.now().Sub(start)

		if err == nil {
			if modelID != r.primary {
				r.emit(FailoverEvent{Primary: r.primary, Fallback: modelID, Reason: lastReason(lastErr), Success: true, Latency: latency})
			}
			return result, nil
		}

		lastErr = err
		r.markUnavailable(modelID)
		r.emit(FailoverEvent{Primary: r.primary, Fallback: modelID, Reason: err.Error(), Success: false, Latency: latency})
	}

	return ChatResult{}, lastErr
}

// candidates returns primary, then the configured fallbacks, then the
// registry search (deduplicated against the configured lists by the
// caller via `tried`).
func (r *Router) candidates() []string {
	out := make([]string, 0, 1+len(r.fallbacks)+len(r.registry))
	out = append(out, r.primary)
	out = append(out, r.fallbacks...)
	out = append(out, r.registrySearch()...)
	return out
}

// registrySearch drops registered models (other than primary and the
// configured fallbacks) whose context length is under 80% of primary's,
// then ranks the rest by quality match to primary, then by context
// length (longest first), then by priority.
// The spec names these three sort keys without an explicit tie-break
// order; quality-closeness-to-primary first is our reading of "quality
// match".
func (r *Router) registrySearch() []string {
	primaryInfo, havePrimary := r.lookup(r.primary)
	configured := map[string]bool{r.primary: true}
	for _, f := range r.fallbacks {
		configured[f] = true
	}

	candidates := make([]ModelInfo, 0, len(r.registry))
	for _, m := range r.registry {
		if configured[m.ID] {
			continue
		}
		if havePrimary && primaryInfo.ContextLength > 0 && float64(m.ContextLength) < 0.8*float64(primaryInfo.ContextLength) {
			continue
		}
		candidates = append(candidates, m)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		qi, qj := qualityDistance(candidates[i], primaryInfo), qualityDistance(candidates[j], primaryInfo)
		if qi != qj {
			return qi < qj
		}
		if candidates[i].ContextLength != candidates[j].ContextLength {
			return candidates[i].ContextLength > candidates[j].ContextLength
		}
		return candidates[i].Priority < candidates[j].Priority
	})

	ids := make([]string, len(candidates))
	for i, m := range candidates {
		ids[i] = m.ID
	}
	return ids
}

func qualityDistance(m, primary ModelInfo) float64 {
	d := m.QualityScore - primary.QualityScore
	if d < 0 {
		return -d
	}
	return d
}

func (r *Router) lookup(id string) (ModelInfo, bool) {
	for _, m := range r.registry {
		if m.ID == id {
			return m, true
		}
	}
	return ModelInfo{}, false
}

func (r *Router) markUnavailable(modelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.until[modelID] = r.now().Add(unavailabilityWindow)
}

func (r *Router) available(modelID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	until, marked := r.until[modelID]
	if !marked {
		return true
	}
	return !r.now().Before(until)
}

func (r *Router) emit(ev FailoverEvent) {
	if r.onEvent != nil {
		r.onEvent(ev)
	}
}

func lastReason(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
