// SPDX-FileCopyrightText: 2026 mchttp3 contributors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package varint

import "testing"

func TestRoundTrip(t *testing.T) {
	values := []struct {
		v      uint64
		length int
	}{
		{0, 1},
		{63, 1},
		{64, 2},
		{16383, 2},
		{16384, 4},
		{1073741823, 4},
		{1073741824, 8},
		{MaxValue, 8},
	}

	for _, tt := range values {
		buf := make([]byte, 8)
		n, err := Encode(tt.v, buf)
		if err != nil {
			t.Fatalf("Encode(%d): %v", tt.v, err)
		}
		if n != tt.length {
			t.Fatalf("Encode(%d) length = %d, want %d", tt.v, n, tt.length)
		}

		pos := 0
		length, got, err := Decode(buf, &pos, n)
		if err != nil {
			t.Fatalf("Decode(%d): %v", tt.v, err)
		}
		if length != tt.length {
			t.Fatalf("Decode(%d) length = %d, want %d", tt.v, length, tt.length)
		}
		if got != tt.v {
			t.Fatalf("Decode round-trip = %d, want %d", got, tt.v)
		}
		if pos != n {
			t.Fatalf("pos after Decode = %d, want %d", pos, n)
		}
	}
}

func TestDecodeAdvancesFromOffset(t *testing.T) {
	buf := Append(Append([]byte{}, 63), 16384)

	pos := 0
	_, first, err := Decode(buf, &pos, len(buf))
	if err != nil || first != 63 {
		t.Fatalf("first decode = %d, %v; want 63, nil", first, err)
	}
	if pos != 1 {
		t.Fatalf("pos = %d, want 1", pos)
	}

	_, second, err := Decode(buf, &pos, len(buf))
	if err != nil || second != 16384 {
		t.Fatalf("second decode = %d, %v; want 16384, nil", second, err)
	}
	if pos != len(buf) {
		t.Fatalf("pos = %d, want %d", pos, len(buf))
	}
}

func TestDecodeTruncated(t *testing.T) {
	buf := []byte{0xc0} // claims 8 bytes, has 1
	pos := 0
	if _, _, err := Decode(buf, &pos, len(buf)); err == nil {
		t.Fatal("expected error decoding truncated varint")
	}
}

func TestPeekLen(t *testing.T) {
	cases := []struct {
		b    byte
		want int
	}{
		{0x00, 1},
		{0x3f, 1},
		{0x40, 2},
		{0x7f, 2},
		{0x80, 4},
		{0xbf, 4},
		{0xc0, 8},
		{0xff, 8},
	}
	for _, c := range cases {
		n, err := PeekLen([]byte{c.b})
		if err != nil {
			t.Fatalf("PeekLen(%x): %v", c.b, err)
		}
		if n != c.want {
			t.Fatalf("PeekLen(%x) = %d, want %d", c.b, n, c.want)
		}
	}
}

func TestEncodeOutOfRange(t *testing.T) {
	buf := make([]byte, 8)
	if _, err := Encode(MaxValue+1, buf); err == nil {
		t.Fatal("expected error encoding out-of-range value")
	}
}
