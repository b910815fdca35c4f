// The MIT License (MIT)
//
// # Copyright (c) 2016 xtaci
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package hashmap implements an open-addressing, string-keyed map with
// double hashing and delayed deletion (tombstones), sized off a fixed
// table of prime capacities so it rarely needs to grow.
//
// It does not duplicate keys or manage the lifetime of stored values: the
// caller owns both, same as the map it's ported from.
package hashmap

const deletedHash = ^uint32(0) // sentinel distinct from any real FNV-1a hash collision worth worrying about; see isDeleted

// sizeTier is one row of the capacity table: once a map's live+tombstone
// entry count reaches maxEntries, it is due for a rehash, growing into the
// next tier unless removed entries dominate (in which case it rehashes in
// place to reclaim tombstones instead of growing).
type sizeTier struct {
	maxEntries int
	maxRemoved int
	size       int
	rehash     int
}

// sizeTiers are max_entries/max_removed/size/rehash, p and p-2 twin primes
// per Knuth, copied from the table this map is ported from.
var sizeTiers = []sizeTier{
	{8, 2, 13, 11},
	{16, 3, 19, 17},
	{32, 6, 43, 41},
	{64, 8, 73, 71},
	{128, 10, 151, 149},
	{256, 20, 283, 281},
	{512, 40, 571, 569},
	{1024, 80, 1153, 1151},
	{2048, 150, 2269, 2267},
	{4096, 300, 4519, 4517},
	{8192, 600, 9013, 9011},
	{16384, 1000, 18043, 18041},
	{32768, 2000, 36109, 36107},
	{65536, 3000, 72091, 72089},
	{131072, 5000, 144409, 144407},
	{262144, 8000, 288361, 288359},
	{524288, 10000, 576883, 576881},
	{1048576, 10000, 1153459, 1153457},
	{2097152, 10000, 2307163, 2307161},
	{4194304, 10000, 4613893, 4613891},
	{8388608, 10000, 9227641, 9227639},
	{16777216, 10000, 18455029, 18455027},
}

func tierFor(size int) int {
	for i, t := range sizeTiers {
		if t.maxEntries >= size {
			return i
		}
	}
	return -1
}

// entry is a single slot. A nil key with hash 0 is free; a nil key with
// hash == deletedHash is a tombstone.
type entry struct {
	key  string
	set  bool
	hash uint32
	data any
}

func (e *entry) isFree() bool    { return !e.set && e.hash == 0 }
func (e *entry) isDeleted() bool { return !e.set && e.hash == deletedHash }
func (e *entry) matches(h uint32, key string) bool {
	return e.set && e.hash == h && e.key == key
}

// Map is an open-addressing hash table keyed by string.
type Map struct {
	entries    []entry
	nEntries   int
	nRemoved   int
	tierIdx    int
	tier       sizeTier
}

// New creates a map sized to hold at least initSize entries before its
// first rehash. initSize is rounded up to the nearest tier; the largest
// supported tier holds 16,777,216 entries.
func New(initSize int) *Map {
	idx := tierFor(initSize)
	if idx < 0 {
		idx = len(sizeTiers) - 1
	}
	tier := sizeTiers[idx]
	return &Map{
		entries: make([]entry, tier.size),
		tierIdx: idx,
		tier:    tier,
	}
}

// hash is FNV-1a over the key bytes.
func hash(key string) uint32 {
	h := uint32(2166136261)
	for i := 0; i < len(key); i++ {
		h ^= uint32(key[i])
		h *= 16777619
	}
	return h
}

func nextIndex(tier sizeTier, idx int, h uint32) int {
	h2 := 1 + int(h)%tier.rehash
	return (idx + h2) % tier.size
}

func (m *Map) rehash(grow bool) bool {
	idx := m.tierIdx
	if grow {
		idx++
	}
	if idx >= len(sizeTiers) {
		return false
	}
	tier := sizeTiers[idx]
	newEntries := make([]entry, tier.size)

	rehashed := 0
	for i := range m.entries {
		e := &m.entries[i]
		if !e.set {
			continue
		}
		newIdx := int(e.hash) % tier.size
		for !newEntries[newIdx].isFree() {
			h2 := 1 + int(e.hash)%tier.rehash
			newIdx = (newIdx + h2) % tier.size
		}
		newEntries[newIdx] = entry{key: e.key, set: true, hash: e.hash, data: e.data}
		rehashed++
		if rehashed == m.nEntries {
			break
		}
	}

	m.entries = newEntries
	if grow {
		m.tierIdx = idx
		m.tier = tier
	}
	m.nRemoved = 0
	return true
}

func (m *Map) checkRehash() bool {
	if m.nEntries+m.nRemoved >= m.tier.maxEntries {
		return m.rehash(m.nRemoved <= m.tier.maxRemoved)
	}
	return true
}

// Add inserts key/data, or replaces data if key is already present. It
// returns false only if a rehash was due and the map has exhausted its
// largest size tier.
func (m *Map) Add(key string, data any) bool {
	if !m.checkRehash() {
		return false
	}
	h := hash(key)

	for idx := int(h) % m.tier.size; ; idx = nextIndex(m.tier, idx, h) {
		e := &m.entries[idx]
		if e.isFree() {
			*e = entry{key: key, set: true, hash: h, data: data}
			m.nEntries++
			return true
		}
		if e.matches(h, key) {
			e.data = data
			return true
		}
	}
}

// Get looks up key. When the probe passes over a tombstone before finding
// the match, the match is relocated into that tombstone's slot to shorten
// the path for future lookups of the same key.
func (m *Map) Get(key string) (any, bool) {
	h := hash(key)
	relocAt := -1

	for idx := int(h) % m.tier.size; ; idx = nextIndex(m.tier, idx, h) {
		e := &m.entries[idx]
		if e.isFree() {
			return nil, false
		}
		if e.matches(h, key) {
			if relocAt >= 0 {
				m.entries[relocAt] = *e
				*e = entry{hash: deletedHash}
				return m.entries[relocAt].data, true
			}
			return e.data, true
		}
		if relocAt < 0 && e.isDeleted() {
			relocAt = idx
		}
	}
}

// Remove deletes key, leaving a tombstone so later double-hash probes for
// other keys still traverse this slot correctly. Reports whether key was
// present.
func (m *Map) Remove(key string) bool {
	h := hash(key)

	for idx := int(h) % m.tier.size; ; idx = nextIndex(m.tier, idx, h) {
		e := &m.entries[idx]
		if e.isFree() {
			return false
		}
		if e.matches(h, key) {
			*e = entry{hash: deletedHash}
			m.nEntries--
			m.nRemoved++
			return true
		}
	}
}

// Len returns the number of live (non-tombstone) entries.
func (m *Map) Len() int { return m.nEntries }

// Iterate visits every live entry in table order until visit returns
// false or every entry has been visited.
func (m *Map) Iterate(visit func(key string, data any) bool) {
	for i := range m.entries {
		e := &m.entries[i]
		if e.set {
			if !visit(e.key, e.data) {
				return
			}
		}
	}
}
