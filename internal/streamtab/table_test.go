// SPDX-FileCopyrightText: 2026 mchttp3 contributors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package streamtab

import "testing"

type fakeEntry struct {
	key    uint64
	handle interface{}
}

func (f *fakeEntry) Key() uint64             { return f.key }
func (f *fakeEntry) UserHandle() interface{} { return f.handle }

func TestAddFindRemove(t *testing.T) {
	var tab Table
	tab.Add(&fakeEntry{key: 4, handle: "a"}, true)
	tab.Add(&fakeEntry{key: 0, handle: "b"}, true)
	tab.Add(&fakeEntry{key: 8, handle: "c"}, false)

	if tab.Find(4) == nil {
		t.Fatal("expected to find key 4")
	}
	if tab.NumRequests() != 2 || tab.NumPushes() != 1 {
		t.Fatalf("counters wrong: requests=%d pushes=%d", tab.NumRequests(), tab.NumPushes())
	}

	tab.Remove(4, true)
	if tab.Find(4) != nil {
		t.Fatal("key 4 should be gone")
	}
	if tab.NumRequests() != 1 {
		t.Fatalf("NumRequests after remove = %d, want 1", tab.NumRequests())
	}
}

func TestIteratorAscending(t *testing.T) {
	var tab Table
	tab.Add(&fakeEntry{key: 8}, false)
	tab.Add(&fakeEntry{key: 0}, true)
	tab.Add(&fakeEntry{key: 4}, true)

	var keys []uint64
	for e := tab.Iterator(nil); e != nil; e = tab.Iterator(e) {
		keys = append(keys, e.Key())
	}
	want := []uint64{0, 4, 8}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys = %v, want %v", keys, want)
		}
	}
}

func TestFindByHandle(t *testing.T) {
	var tab Table
	tab.Add(&fakeEntry{key: 0, handle: "target"}, true)
	tab.Add(&fakeEntry{key: 4, handle: "other"}, true)

	e := tab.FindByHandle("target")
	if e == nil || e.Key() != 0 {
		t.Fatalf("FindByHandle did not find the right entry: %v", e)
	}

	if tab.FindByHandle("missing") != nil {
		t.Fatal("expected nil for missing handle")
	}
}
