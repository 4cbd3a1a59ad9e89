package ctriemap

import (
	"fmt"
	"testing"
)

func stringHasher(s string) []byte {
	return []byte(s)
}

func TestMapPutGetRemove(t *testing.T) {
	m := New[string, int](stringHasher)

	if _, ok := m.Get("a"); ok {
		t.Fatalf("expected empty map to report absent")
	}

	m.Put("a", 1)
	v, ok := m.Get("a")
	if !ok || v != 1 {
		t.Fatalf("expected 1, got %v, %v", v, ok)
	}

	removed, ok := m.Remove("a")
	if !ok || removed != 1 {
		t.Fatalf("expected removed value 1, got %v, %v", removed, ok)
	}
	if m.ContainsKey("a") {
		t.Fatalf("expected key gone after remove")
	}
}

func TestMapPutIfAbsent(t *testing.T) {
	m := New[string, string](stringHasher)

	m.Put("k", "first")
	prev, had := m.PutIfAbsent("k", "second")
	if !had || prev != "first" {
		t.Fatalf("expected PutIfAbsent to report existing value, got %v, %v", prev, had)
	}

	v, _ := m.Get("k")
	if v != "first" {
		t.Fatalf("expected original value preserved, got %v", v)
	}
}

func TestMapPutAllAndEntries(t *testing.T) {
	m := New[string, int](stringHasher)

	entries := map[string]int{}
	for i := 0; i < 100; i++ {
		entries[fmt.Sprintf("k%d", i)] = i
	}
	m.PutAll(entries)

	if m.Len() != len(entries) {
		t.Fatalf("expected Len %d, got %d", len(entries), m.Len())
	}
	if m.ExactLen() != len(entries) {
		t.Fatalf("expected ExactLen %d, got %d", len(entries), m.ExactLen())
	}

	got := make(map[string]int, len(entries))
	for _, e := range m.Entries() {
		got[e.Key] = e.Value
	}
	for k, v := range entries {
		if got[k] != v {
			t.Fatalf("entries mismatch for %s: want %d, got %d", k, v, got[k])
		}
	}
}

func TestMapContainsValue(t *testing.T) {
	m := New[string, int](stringHasher)
	m.Put("a", 1)
	m.Put("b", 2)

	eq := func(a, b int) bool { return a == b }

	if !m.ContainsValue(2, eq) {
		t.Fatalf("expected ContainsValue(2) to be true")
	}
	if m.ContainsValue(3, eq) {
		t.Fatalf("expected ContainsValue(3) to be false")
	}
}

func TestMapRejectsNilKey(t *testing.T) {
	m := New[*string, int](func(s *string) []byte {
		if s == nil {
			return nil
		}
		return []byte(*s)
	})

	if _, ok := m.Get(nil); ok {
		t.Fatalf("expected nil key lookup to report absent")
	}
	if _, ok := m.Put(nil, 1); ok {
		t.Fatalf("expected nil key put to report no prior value")
	}
	if m.ContainsKey(nil) {
		t.Fatalf("expected nil key to never be present")
	}
}

func TestMapSnapshotIsolation(t *testing.T) {
	m := New[string, int](stringHasher)
	for i := 0; i < 500; i++ {
		m.Put(fmt.Sprintf("k%d", i), i)
	}

	snap := m.Snapshot(true)

	for i := 0; i < 250; i++ {
		m.Remove(fmt.Sprintf("k%d", i))
	}

	if snap.ExactLen() != 500 {
		t.Fatalf("expected snapshot to retain 500 entries, got %d", snap.ExactLen())
	}
}
