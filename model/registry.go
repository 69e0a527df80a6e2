package model

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry maps model-ID prefixes to strategies. Resolution picks the
// longest matching prefix, so a family prefix like "claude-" can coexist
// with more specific registrations. The registry is an explicit value
// owned by its gateway; there is no package-global table.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]Strategy)}
}

// Register binds a prefix to a strategy. Empty prefixes, nil strategies
// and duplicate prefixes are rejected.
func (r *Registry) Register(prefix string, s Strategy) error {
	if prefix == "" {
		return fmt.Errorf("register strategy: empty prefix")
	}
	if s == nil {
		return fmt.Errorf("register strategy: nil strategy for prefix %q", prefix)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.strategies[prefix]; exists {
		return fmt.Errorf("register strategy: prefix %q already registered", prefix)
	}
	r.strategies[prefix] = s
	return nil
}

// Resolve returns the strategy whose registered prefix is the longest
// match for modelID. Unknown models are a configuration error.
func (r *Registry) Resolve(modelID string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	best := ""
	for prefix := range r.strategies {
		if strings.HasPrefix(modelID, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best == "" {
		return nil, &ConfigurationError{
			Field:   "model_id",
			Message: fmt.Sprintf("no strategy registered for model %q", modelID),
		}
	}
	return r.strategies[best], nil
}

// Prefixes returns the registered prefixes in sorted order.
func (r *Registry) Prefixes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.strategies))
	for prefix := range r.strategies {
		out = append(out, prefix)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered prefixes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.strategies)
}
