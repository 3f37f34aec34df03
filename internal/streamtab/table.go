// SPDX-FileCopyrightText: 2026 mchttp3 contributors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package streamtab implements the ordered stream-id (and push-id)
// lookup table shared by a session's transfers and promises maps.
package streamtab

import "sort"

// Entry is anything a Table can index: it exposes the 64-bit key it is
// stored under and the opaque user handle a reverse lookup resolves.
type Entry interface {
	Key() uint64
	UserHandle() interface{}
}

// Table is an ordered mapping from a 64-bit id to an Entry. Iteration
// is always ascending by key, so the session's stream walks run in a
// deterministic order (spec.md §4.8).
type Table struct {
	entries []Entry

	numRequests uint64 // bidirectional stream-ids occupied
	numPushes   uint64 // unidirectional stream-ids occupied
}

func (t *Table) search(key uint64) (index int, found bool) {
	index = sort.Search(len(t.entries), func(i int) bool {
		return t.entries[i].Key() >= key
	})
	found = index < len(t.entries) && t.entries[index].Key() == key
	return
}

// Add inserts e, keyed by e.Key(). It is a caller error to Add a key
// that already exists.
func (t *Table) Add(e Entry, bidirectional bool) {
	index, found := t.search(e.Key())
	if found {
		t.entries[index] = e
		return
	}
	t.entries = append(t.entries, nil)
	copy(t.entries[index+1:], t.entries[index:])
	t.entries[index] = e

	if bidirectional {
		t.numRequests++
	} else {
		t.numPushes++
	}
}

// Find returns the entry stored under key, or nil.
func (t *Table) Find(key uint64) Entry {
	if index, found := t.search(key); found {
		return t.entries[index]
	}
	return nil
}

// Remove deletes the entry stored under key, if any.
func (t *Table) Remove(key uint64, bidirectional bool) {
	index, found := t.search(key)
	if !found {
		return
	}
	t.entries = append(t.entries[:index], t.entries[index+1:]...)

	if bidirectional {
		t.numRequests--
	} else {
		t.numPushes--
	}
}

// Iterator returns the entry with the smallest key strictly greater
// than prev's key, or the smallest entry overall if prev is nil. It
// yields nil once the table is exhausted, letting callers walk the
// table in ascending order without holding an index.
func (t *Table) Iterator(prev Entry) Entry {
	if prev == nil {
		if len(t.entries) == 0 {
			return nil
		}
		return t.entries[0]
	}
	index, found := t.search(prev.Key())
	if !found {
		return nil
	}
	if index+1 >= len(t.entries) {
		return nil
	}
	return t.entries[index+1]
}

// FindByHandle performs a reverse lookup for the entry carrying the
// given opaque user handle. It is O(n); the table is not expected to
// be large enough for that to matter.
func (t *Table) FindByHandle(handle interface{}) Entry {
	for _, e := range t.entries {
		if e.UserHandle() == handle {
			return e
		}
	}
	return nil
}

// Len returns the number of entries currently stored.
func (t *Table) Len() int {
	return len(t.entries)
}

// NumRequests returns the count of bidirectional stream-ids occupied.
func (t *Table) NumRequests() uint64 {
	return t.numRequests
}

// NumPushes returns the count of unidirectional stream-ids occupied.
func (t *Table) NumPushes() uint64 {
	return t.numPushes
}
