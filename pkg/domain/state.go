package domain

import "sort"

// State is the shared key-value data threaded through a pipeline run.
// It is owned exclusively by the executor: steps receive a clone and return
// a partial delta, never a handle into the live map.
type State map[string]any

// Clone returns a shallow copy of the state. Values are shared; steps that
// want to grow a nested container must return a whole replacement value.
func (s State) Clone() State {
	next := make(State, len(s))
	for k, v := range s {
		next[k] = v
	}
	return next
}

// Merge applies a partial update by key-overwrite and returns the merged
// state. Keys absent from delta are preserved; applying the same delta twice
// is a no-op relative to applying it once. The receiver is not mutated.
func (s State) Merge(delta State) State {
	next := s.Clone()
	for k, v := range delta {
		next[k] = v
	}
	return next
}

// Keys returns the state's keys in sorted order, for deterministic
// reporting (hooks, logs).
func (s State) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Bool reads a key as a boolean, returning false when the key is absent or
// holds a non-boolean value. Handy for transition predicates.
func (s State) Bool(key string) bool {
	v, ok := s[key].(bool)
	return ok && v
}

// String reads a key as a string, returning "" when absent or mistyped.
func (s State) String(key string) string {
	v, _ := s[key].(string)
	return v
}
