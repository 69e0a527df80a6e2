package memory

import "sync"

// SharedState is a key/value store visible to every agent in an agency.
// Tools receive it through their call context so one agent's side effects
// can inform another's.
//
// Concurrency: protected by RWMutex. Values are stored as-is; callers that
// store mutable values share them.
type SharedState struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewSharedState creates an empty shared state.
func NewSharedState() *SharedState {
	return &SharedState{values: make(map[string]any)}
}

// Set stores a value under key, replacing any previous value.
func (s *SharedState) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
}

// Get returns the value stored under key.
func (s *SharedState) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	return v, ok
}

// GetString returns the value under key when it is a string.
func (s *SharedState) GetString(key string) (string, bool) {
	v, ok := s.Get(key)
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// Delete removes key.
func (s *SharedState) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
}

// Clear removes every key.
func (s *SharedState) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = make(map[string]any)
}

// Keys returns the stored keys in unspecified order.
func (s *SharedState) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of stored keys.
func (s *SharedState) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.values)
}
