package handlers

import (
	"sort"
	"sync"

	"github.com/jmylchreest/mediapull/internal/models"
)

// Registry holds ContentHandlers keyed by the PostTypes they support,
// ordered by ascending Priority. Grounded on internal/ingestor's
// HandlerFactory, generalized from stream-handler lookup by protocol
// to content-handler lookup by PostType.
type Registry struct {
	mu     sync.RWMutex
	byType map[models.PostType][]ContentHandler
	byName map[string]ContentHandler
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byType: make(map[models.PostType][]ContentHandler),
		byName: make(map[string]ContentHandler),
	}
}

// Register adds h under every type it declares support for, keeping
// each type's slice sorted by ascending Priority. Re-registering a
// name already present replaces the prior entry.
func (r *Registry) Register(h ContentHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.byName[h.Name()]; ok {
		r.removeLocked(old)
	}
	r.byName[h.Name()] = h

	for _, t := range h.SupportedTypes() {
		handlers := append(r.byType[t], h)
		sort.SliceStable(handlers, func(i, j int) bool { return handlers[i].Priority() < handlers[j].Priority() })
		r.byType[t] = handlers
	}
}

func (r *Registry) removeLocked(h ContentHandler) {
	for _, t := range h.SupportedTypes() {
		handlers := r.byType[t]
		filtered := handlers[:0]
		for _, existing := range handlers {
			if existing.Name() != h.Name() {
				filtered = append(filtered, existing)
			}
		}
		r.byType[t] = filtered
	}
}

// Resolve returns the highest-priority registered handler whose
// CanHandle returns true for post classified as contentType, or nil if
// none matches (the post must then be skipped, not failed, per
// the dispatch rules).
func (r *Registry) Resolve(post *models.PostRecord, contentType models.PostType) ContentHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, h := range r.byType[contentType] {
		if h.CanHandle(post, contentType) {
			return h
		}
	}
	return nil
}

// Names returns every registered handler name, for diagnostics and
// plugin-manager bookkeeping.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
