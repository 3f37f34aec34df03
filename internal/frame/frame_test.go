// SPDX-FileCopyrightText: 2026 mchttp3 contributors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package frame

import (
	"bytes"
	"testing"
)

func stripHeader(t *testing.T, buf []byte) (Header, []byte) {
	t.Helper()
	h, err := ParseHeader(buf)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	return h, buf[h.HeaderLen:]
}

func TestDataRoundTrip(t *testing.T) {
	want := []byte("hello world")
	buf := CreateData(want)

	h, payload := stripHeader(t, buf)
	if h.Type != TypeData {
		t.Fatalf("type = %v, want DATA", h.Type)
	}
	if uint64(len(payload)) != h.PayloadLen {
		t.Fatalf("payload len mismatch")
	}
	if !bytes.Equal(ParseData(payload), want) {
		t.Fatalf("ParseData = %q, want %q", ParseData(payload), want)
	}
}

func TestHeadersRoundTripNoPushID(t *testing.T) {
	want := []byte("fake-header-block")
	buf := CreateHeaders(NoPushID, want)

	_, payload := stripHeader(t, buf)
	_, block, err := ParseHeaders(payload, false)
	if err != nil {
		t.Fatalf("ParseHeaders: %v", err)
	}
	if !bytes.Equal(block, want) {
		t.Fatalf("block = %q, want %q", block, want)
	}
}

func TestHeadersRoundTripWithPushID(t *testing.T) {
	want := []byte("push-continuation-block")
	buf := CreateHeaders(42, want)

	_, payload := stripHeader(t, buf)
	pushID, block, err := ParseHeaders(payload, true)
	if err != nil {
		t.Fatalf("ParseHeaders: %v", err)
	}
	if pushID != 42 {
		t.Fatalf("pushID = %d, want 42", pushID)
	}
	if !bytes.Equal(block, want) {
		t.Fatalf("block = %q, want %q", block, want)
	}
}

func TestPushPromiseRoundTrip(t *testing.T) {
	want := []byte("promise-header-block")
	buf := CreatePushPromise(7, want)

	_, payload := stripHeader(t, buf)
	pushID, block, err := ParsePushPromise(payload)
	if err != nil {
		t.Fatalf("ParsePushPromise: %v", err)
	}
	if pushID != 7 {
		t.Fatalf("pushID = %d, want 7", pushID)
	}
	if !bytes.Equal(block, want) {
		t.Fatalf("block = %q, want %q", block, want)
	}
}

func TestSingleVarintFrames(t *testing.T) {
	cases := []struct {
		name   string
		create func(uint64) []byte
		parse  func([]byte) (uint64, error)
		typ    Type
		value  uint64
	}{
		{"CancelPush", CreateCancelPush, ParseCancelPush, TypeCancelPush, 5},
		{"MaxPushID", CreateMaxPushID, ParseMaxPushID, TypeMaxPushID, 1000},
		{"Goaway", CreateGoaway, ParseGoaway, TypeGoaway, 99},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			buf := c.create(c.value)
			h, payload := stripHeader(t, buf)
			if h.Type != c.typ {
				t.Fatalf("type = %v, want %v", h.Type, c.typ)
			}
			got, err := c.parse(payload)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got != c.value {
				t.Fatalf("value = %d, want %d", got, c.value)
			}
		})
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	want := []Setting{{ID: 1, Value: 100}, {ID: 6, Value: 4096}}
	buf := CreateSettings(want)

	_, payload := stripHeader(t, buf)
	got, err := ParseSettings(payload)
	if err != nil {
		t.Fatalf("ParseSettings: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestPriorityRoundTrip(t *testing.T) {
	want := Priority{
		PrioritizedType: 1,
		DependencyType:  2,
		Exclusive:       true,
		PrioritizedID:   10,
		DependencyID:    20,
		Weight:          200,
	}
	buf := CreatePriority(want)

	_, payload := stripHeader(t, buf)
	got, err := ParsePriority(payload)
	if err != nil {
		t.Fatalf("ParsePriority: %v", err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestParseHeaderNeedsMoreBytes(t *testing.T) {
	if _, err := ParseHeader(nil); err != ErrNeedMoreBytes {
		t.Fatalf("err = %v, want ErrNeedMoreBytes", err)
	}
	// Type byte present, length byte missing.
	if _, err := ParseHeader([]byte{0x00}); err != ErrNeedMoreBytes {
		t.Fatalf("err = %v, want ErrNeedMoreBytes", err)
	}
}

func TestParseHeaderTotalLen(t *testing.T) {
	buf := CreateData([]byte("0123456789"))
	h, err := ParseHeader(buf)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if h.TotalLen() != uint64(len(buf)) {
		t.Fatalf("TotalLen() = %d, want %d", h.TotalLen(), len(buf))
	}
}
