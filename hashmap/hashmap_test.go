package hashmap

import (
	"fmt"
	"testing"
)

func TestNewRoundsUpToTierMaxEntries(t *testing.T) {
	m := New(40)
	if m.tier.maxEntries != 64 {
		t.Fatalf("New(40) picked tier with maxEntries=%d, want 64", m.tier.maxEntries)
	}
	if m.tier.size != 73 {
		t.Fatalf("New(40) picked tier with size=%d, want 73", m.tier.size)
	}
}

func TestAddGetRemove(t *testing.T) {
	m := New(8)

	if !m.Add("alice", 1) {
		t.Fatalf("Add(alice) failed")
	}
	if !m.Add("bob", 2) {
		t.Fatalf("Add(bob) failed")
	}
	if v, ok := m.Get("alice"); !ok || v.(int) != 1 {
		t.Fatalf("Get(alice) = %v, %v", v, ok)
	}
	if !m.Remove("alice") {
		t.Fatalf("Remove(alice) failed")
	}
	if _, ok := m.Get("alice"); ok {
		t.Fatalf("Get(alice) should fail after removal")
	}
	if v, ok := m.Get("bob"); !ok || v.(int) != 2 {
		t.Fatalf("Get(bob) after unrelated removal = %v, %v", v, ok)
	}
	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", m.Len())
	}
}

func TestAddReplacesExistingKey(t *testing.T) {
	m := New(8)
	m.Add("k", "v1")
	m.Add("k", "v2")

	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 after replace", m.Len())
	}
	if v, _ := m.Get("k"); v.(string) != "v2" {
		t.Fatalf("Get(k) = %v, want v2", v)
	}
}

func TestLookupAfterTombstoneRelocates(t *testing.T) {
	// Enough keys in a small tier to force collisions and tombstones along
	// probe chains, exercising the relocation-on-lookup path.
	m := New(8)
	keys := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		k := fmt.Sprintf("key-%d", i)
		keys = append(keys, k)
		if !m.Add(k, i) {
			t.Fatalf("Add(%s) failed", k)
		}
	}
	for i := 0; i < 20; i += 2 {
		if !m.Remove(keys[i]) {
			t.Fatalf("Remove(%s) failed", keys[i])
		}
	}
	for i := 1; i < 20; i += 2 {
		v, ok := m.Get(keys[i])
		if !ok || v.(int) != i {
			t.Fatalf("Get(%s) = %v, %v, want %d", keys[i], v, ok, i)
		}
	}
	for i := 0; i < 20; i += 2 {
		if _, ok := m.Get(keys[i]); ok {
			t.Fatalf("Get(%s) should fail, was removed", keys[i])
		}
	}
}

func TestGrowsAcrossTierBoundary(t *testing.T) {
	m := New(8)
	const n = 40 // exceeds the first couple of tiers' maxEntries
	for i := 0; i < n; i++ {
		k := fmt.Sprintf("k%d", i)
		if !m.Add(k, i) {
			t.Fatalf("Add(%s) failed", k)
		}
	}
	for i := 0; i < n; i++ {
		k := fmt.Sprintf("k%d", i)
		v, ok := m.Get(k)
		if !ok || v.(int) != i {
			t.Fatalf("Get(%s) after growth = %v, %v, want %d", k, v, ok, i)
		}
	}
	if m.Len() != n {
		t.Fatalf("Len() = %d, want %d", m.Len(), n)
	}
}

func TestIterateVisitsAllLiveEntries(t *testing.T) {
	m := New(8)
	want := map[string]int{"a": 1, "b": 2, "c": 3}
	for k, v := range want {
		m.Add(k, v)
	}
	m.Remove("b")
	delete(want, "b")

	got := map[string]int{}
	m.Iterate(func(key string, data any) bool {
		got[key] = data.(int)
		return true
	})
	if len(got) != len(want) {
		t.Fatalf("Iterate visited %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("Iterate[%s] = %d, want %d", k, got[k], v)
		}
	}
}

func TestIterateStopsEarly(t *testing.T) {
	m := New(8)
	m.Add("a", 1)
	m.Add("b", 2)
	m.Add("c", 3)

	visited := 0
	m.Iterate(func(key string, data any) bool {
		visited++
		return false
	})
	if visited != 1 {
		t.Fatalf("Iterate visited %d entries, want 1 after early stop", visited)
	}
}
