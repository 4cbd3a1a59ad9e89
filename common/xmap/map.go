package ctriemap

import (
	"reflect"
	"sync"

	"github.com/sirgallo/utils"

	"github.com/sirgallo/ctrie"
)

// Hasher converts a key of type K to the byte representation the core
// trie addresses by. The encoded bytes are the key's identity in the core:
// two keys that are != but encode to equal bytes are one entry to the Map,
// so a Put of one replaces the value stored under the other.
type Hasher[K comparable] func(K) []byte

// Entry is a materialized (key, value) pair returned by Entries.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// Map is the associative-container facade over the core: entry-set
// iteration, PutAll, ContainsValue and null-key policing, none of which
// are in scope for the core package itself. keys maps a key's encoded
// byte form back to the original K so Entries/traversal can surface
// typed keys from a core that only ever sees []byte.
type Map[K comparable, V any] struct {
	core *ctrie.Ctrie
	hash Hasher[K]
	keys *sync.Map
}

// New returns an empty Map using hash to derive trie addresses from keys.
func New[K comparable, V any](hash Hasher[K], opts ...ctrie.Option) *Map[K, V] {
	return &Map[K, V]{
		core: ctrie.New(opts...),
		hash: hash,
		keys: &sync.Map{},
	}
}

func (m *Map[K, V]) encode(key K) ([]byte, error) {
	if isNilable(key) {
		return nil, ctrie.NewInvalidKeyError()
	}
	return m.hash(key), nil
}

// Get returns the value stored under key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	zero := utils.GetZero[V]()
	b, err := m.encode(key)
	if err != nil {
		return zero, false
	}

	v, ok := m.core.Lookup(b)
	if !ok {
		return zero, false
	}
	return v.(V), true
}

// Put writes key -> value, returning any previous value.
func (m *Map[K, V]) Put(key K, value V) (V, bool) {
	zero := utils.GetZero[V]()
	b, err := m.encode(key)
	if err != nil {
		return zero, false
	}

	prev, had := m.core.Insert(b, value, false)
	m.keys.Store(string(b), key)
	if !had {
		return zero, false
	}
	return prev.(V), true
}

// PutIfAbsent writes key -> value only if key has no current mapping,
// returning the existing value when one was already present.
func (m *Map[K, V]) PutIfAbsent(key K, value V) (V, bool) {
	zero := utils.GetZero[V]()
	b, err := m.encode(key)
	if err != nil {
		return zero, false
	}

	prev, had := m.core.Insert(b, value, true)
	m.keys.Store(string(b), key)
	if !had {
		return zero, false
	}
	return prev.(V), true
}

// Remove deletes key unconditionally, returning the removed value.
func (m *Map[K, V]) Remove(key K) (V, bool) {
	zero := utils.GetZero[V]()
	b, err := m.encode(key)
	if err != nil {
		return zero, false
	}

	v, ok := m.core.Remove(b, nil, false)
	if ok {
		m.keys.Delete(string(b))
	}
	if !ok {
		return zero, false
	}
	return v.(V), true
}

// RemoveIfValue deletes key only if its current value equals witness under
// eq, returning whether removal occurred.
func (m *Map[K, V]) RemoveIfValue(key K, witness V, eq func(V, V) bool) bool {
	b, err := m.encode(key)
	if err != nil {
		return false
	}

	cur, ok := m.core.Lookup(b)
	if !ok || !eq(cur.(V), witness) {
		return false
	}

	_, removed := m.core.Remove(b, cur, true)
	if removed {
		m.keys.Delete(string(b))
	}
	return removed
}

// ContainsKey reports whether key has a mapping.
func (m *Map[K, V]) ContainsKey(key K) bool {
	_, ok := m.Get(key)
	return ok
}

// ContainsValue reports whether any entry's value equals value under eq.
// O(n): it walks a read-only snapshot.
func (m *Map[K, V]) ContainsValue(value V, eq func(V, V) bool) bool {
	for _, e := range m.Entries() {
		if eq(e.Value, value) {
			return true
		}
	}
	return false
}

// PutAll writes every entry in entries. Per-key atomicity is guaranteed;
// the bulk operation as a whole is not atomic.
func (m *Map[K, V]) PutAll(entries map[K]V) {
	for k, v := range entries {
		m.Put(k, v)
	}
}

// Snapshot returns a new Map over a frozen core generation, frozen at the
// instant of the call if readOnly is set. keys is copied rather than
// shared: the core's GCAS/RDCSS generations already keep the snapshot's
// (key,value) pairs isolated from later writes on the original, and the
// byte->K index has to be isolated the same way, or a later Remove on the
// original would delete the mapping out from under the snapshot's own
// Entries/ExactLen.
func (m *Map[K, V]) Snapshot(readOnly bool) *Map[K, V] {
	keys := &sync.Map{}
	m.keys.Range(func(k, v any) bool {
		keys.Store(k, v)
		return true
	})

	return &Map[K, V]{
		core: m.core.Snapshot(readOnly),
		hash: m.hash,
		keys: keys,
	}
}

// Entries walks a read-only snapshot and returns every (key, value) pair
// it yields, in unspecified order. It takes its own Snapshot first (core
// and key index together) so a concurrent Remove on m during the walk
// can't delete a key-index entry out from under pairs the core snapshot
// already committed to showing.
func (m *Map[K, V]) Entries() []Entry[K, V] {
	snap := m.Snapshot(true)
	cur, err := snap.core.Traverse()
	if err != nil {
		return nil
	}

	var out []Entry[K, V]
	for {
		kb, v, ok := cur.Next()
		if !ok {
			break
		}
		if k, found := snap.keys.Load(string(kb)); found {
			out = append(out, Entry[K, V]{Key: k.(K), Value: v.(V)})
		}
	}
	return out
}

// Len returns the O(1) atomic entry count: convergent under concurrent
// restarts, not a strictly linearizable snapshot count.
func (m *Map[K, V]) Len() int {
	return int(m.core.Size())
}

// ExactLen returns the O(n) traversal-exact entry count over a fresh
// read-only snapshot.
func (m *Map[K, V]) ExactLen() int {
	return len(m.Entries())
}

func isNilable(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
