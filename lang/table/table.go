// Package table implements the open-addressing hash table spec.md §3
// describes: linear probing, tombstone-aware deletion, a 0.75 load factor,
// and grow-by-doubling starting at capacity 8. It backs the VM's globals
// table, every class's method table, every instance's field table, and the
// string intern set.
package table

import "github.com/mna/glox/lang/value"

const (
	initialCapacity = 8
	maxLoadFactor   = 0.75
)

type entry struct {
	key   *value.String // nil means empty or tombstone
	value value.Value
	// tombstone distinguishes "never used" (value.Nil) from "deleted"
	// (value.Bool(true)), mirroring spec.md §3's encoding exactly.
	tombstone bool
}

// Table is an open-addressing hash map keyed by interned *value.String
// pointer identity.
type Table struct {
	entries []entry
	count   int // live entries + tombstones, used for the load factor
}

// New returns an empty Table. The zero value is also ready to use.
func New() *Table { return &Table{} }

// Count returns the number of live (non-tombstone) entries.
func (t *Table) Count() int {
	live := 0
	for i := range t.entries {
		if t.entries[i].key != nil {
			live++
		}
	}
	return live
}

// find implements spec.md §3's probe semantics: walk linearly from the
// key's home slot, remembering the first tombstone encountered, stopping at
// the matching key or the first true-empty slot. It returns the slot
// insertion should use (the tombstone if one was seen before an empty slot,
// otherwise the empty slot) together with whether the key was actually
// found there.
func find(entries []entry, key *value.String) (idx int, found bool) {
	cap := len(entries)
	idx = int(key.Hash) % cap
	tombstone := -1
	for {
		e := &entries[idx]
		switch {
		case e.key == nil:
			if !e.tombstone {
				// true empty slot
				if tombstone != -1 {
					return tombstone, false
				}
				return idx, false
			}
			if tombstone == -1 {
				tombstone = idx
			}
		case e.key == key:
			return idx, true
		}
		idx = (idx + 1) % cap
	}
}

func (t *Table) grow(newCap int) {
	old := t.entries
	t.entries = make([]entry, newCap)
	t.count = 0
	for i := range old {
		if old[i].key == nil {
			continue
		}
		idx, _ := find(t.entries, old[i].key)
		t.entries[idx] = entry{key: old[i].key, value: old[i].value}
		t.count++
	}
}

// Get looks up key and reports whether it is present.
func (t *Table) Get(key *value.String) (value.Value, bool) {
	if len(t.entries) == 0 {
		return value.Nil, false
	}
	idx, found := find(t.entries, key)
	if !found {
		return value.Nil, false
	}
	return t.entries[idx].value, true
}

// Set inserts or overwrites key's value, growing the table first if the
// load factor (count, including tombstones) would exceed 0.75. It returns
// true if this inserted a brand-new key.
func (t *Table) Set(key *value.String, v value.Value) bool {
	if len(t.entries) == 0 || float64(t.count+1) > float64(len(t.entries))*maxLoadFactor {
		newCap := initialCapacity
		if len(t.entries) > 0 {
			newCap = len(t.entries) * 2
		}
		t.grow(newCap)
	}

	idx, found := find(t.entries, key)
	e := &t.entries[idx]
	isNew := !found
	if isNew && !e.tombstone {
		t.count++
	}
	e.key = key
	e.value = v
	e.tombstone = false
	return isNew
}

// Delete removes key if present, leaving a tombstone behind so that probe
// chains through the deleted slot remain intact. Returns true if key was
// present.
func (t *Table) Delete(key *value.String) bool {
	if len(t.entries) == 0 {
		return false
	}
	idx, found := find(t.entries, key)
	if !found {
		return false
	}
	t.entries[idx] = entry{key: nil, value: value.Bool(true), tombstone: true}
	return true
}

// FindString looks up an interned string with the given bytes and hash
// without needing a *value.String to compare against (the intern table uses
// this to detect hits for byte sequences it hasn't allocated a String for
// yet). It compares byte-for-byte only on hash collision, so the intern
// invariant never allocates an extra String just to probe.
func (t *Table) FindString(b []byte, hash uint32) *value.String {
	if len(t.entries) == 0 {
		return nil
	}
	cap := len(t.entries)
	idx := int(hash) % cap
	for {
		e := &t.entries[idx]
		switch {
		case e.key == nil:
			if !e.tombstone {
				return nil
			}
		case e.key.Hash == hash && string(e.key.Bytes) == string(b):
			return e.key
		}
		idx = (idx + 1) % cap
	}
}

// AddAllInto copies every live entry of t into dst. Unused by the VM proper
// (spec.md §9 notes the reference's equivalent helper is dead code) but
// kept for table-to-table bulk copy, e.g. snapshotting the globals table for
// diagnostics.
func (t *Table) AddAllInto(dst *Table) {
	for i := range t.entries {
		if t.entries[i].key != nil {
			dst.Set(t.entries[i].key, t.entries[i].value)
		}
	}
}

// Each calls fn for every live entry. fn must not mutate the table.
func (t *Table) Each(fn func(key *value.String, v value.Value)) {
	for i := range t.entries {
		if t.entries[i].key != nil {
			fn(t.entries[i].key, t.entries[i].value)
		}
	}
}

// RemoveWhite deletes every entry whose key is not marked, per spec.md
// §4.5's "remove weakly-held strings" GC phase: the intern table must not
// keep strings alive on its own.
func (t *Table) RemoveWhite() {
	for i := range t.entries {
		if t.entries[i].key != nil && !t.entries[i].key.Marked {
			t.entries[i] = entry{key: nil, value: value.Bool(true), tombstone: true}
		}
	}
}
