package authsession

import (
	"reflect"
	"sync"
)

// Key is the symbolic form of a storage name. A plain string and its Key
// form address the same slot: Storage.Get("counter") and
// Storage.Get(Key("counter")) are interchangeable.
type Key string

// PluginKeyer lets a plugin supply an explicit storage identifier at
// registration time instead of relying on its Go type identity.
type PluginKeyer interface {
	StorageKey() string
}

// Storage is the per-session namespaced key-value area plugins use to keep
// session-scoped state without sharing a namespace. Each Session owns
// exactly one Storage; it is never shared between sessions and lives
// exactly as long as its session object.
//
// There is no capacity bound and no per-entry TTL. Misses are reported via
// the ok return, never as errors.
type Storage struct {
	mu     sync.RWMutex
	values map[string]any
}

func newStorage() *Storage {
	return &Storage{
		values: make(map[string]any),
	}
}

// storageKey normalizes an arbitrary key to its canonical slot name. The
// mapping is pure and deterministic:
//
//   - Key("k") and "k" collapse to the same slot
//   - a PluginKeyer uses its declared identifier
//   - any other value keys by its type (pointers dereferenced), so two
//     distinct instances of the same plugin type share one slot
func storageKey(key any) string {
	switch k := key.(type) {
	case Key:
		return string(k)
	case string:
		return k
	case PluginKeyer:
		return k.StorageKey()
	}

	t := reflect.TypeOf(key)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "<nil>"
	}
	if t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

// Get returns the value stored under the key's normalized form. The second
// return is false when the slot was never set.
func (s *Storage) Get(key any) (any, bool) {
	slot := storageKey(key)

	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[slot]
	return value, ok
}

// Set stores value under the key's normalized form, silently overwriting
// any previous value in the slot.
func (s *Storage) Set(key any, value any) {
	slot := storageKey(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[slot] = value
}

// All returns a copy of the full slot→value mapping for host
// introspection. Mutating the returned map does not affect the storage.
func (s *Storage) All() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]any, len(s.values))
	for slot, value := range s.values {
		out[slot] = value
	}
	return out
}

// Len describes the len operation and its observable behavior.
//
// Len does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
