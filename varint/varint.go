// SPDX-FileCopyrightText: 2026 mchttp3 contributors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package varint implements the QUIC variable-length integer encoding
// used to frame HTTP/3 messages and length-prefix their fields.
//
// The top two bits of the first byte select the encoded length; the
// remaining six bits, plus any following bytes, carry the value:
//
//	0b00xxxxxx        1 byte,  6 bits of value (0..63)
//	0b01xxxxxx xxxxxxxx        2 bytes, 14 bits of value
//	0b10...            4 bytes, 30 bits of value
//	0b11...            8 bytes, 62 bits of value
package varint

import "errors"

// ErrBufferTooShort is returned when a caller-supplied buffer cannot
// hold the encoded form of a value, or when a buffer being decoded
// ends before the length its first byte promises.
var ErrBufferTooShort = errors.New("varint: buffer too short")

// MaxValue is the largest value representable as a QUIC varint.
const MaxValue = 1<<62 - 1

// Len returns the number of bytes needed to encode v, or 0 if v
// exceeds MaxValue.
func Len(v uint64) int {
	switch {
	case v <= 63:
		return 1
	case v <= 16383:
		return 2
	case v <= 1073741823:
		return 4
	case v <= MaxValue:
		return 8
	default:
		return 0
	}
}

// Encode writes v into out and returns the number of bytes written.
// out must be at least Len(v) bytes long.
func Encode(v uint64, out []byte) (int, error) {
	n := Len(v)
	if n == 0 {
		return 0, errors.New("varint: value out of range")
	}
	if len(out) < n {
		return 0, ErrBufferTooShort
	}

	switch n {
	case 1:
		out[0] = byte(v)
	case 2:
		out[0] = 0x40 | byte(v>>8)
		out[1] = byte(v)
	case 4:
		out[0] = 0x80 | byte(v>>24)
		out[1] = byte(v >> 16)
		out[2] = byte(v >> 8)
		out[3] = byte(v)
	case 8:
		out[0] = 0xc0 | byte(v>>56)
		out[1] = byte(v >> 48)
		out[2] = byte(v >> 40)
		out[3] = byte(v >> 32)
		out[4] = byte(v >> 24)
		out[5] = byte(v >> 16)
		out[6] = byte(v >> 8)
		out[7] = byte(v)
	}
	return n, nil
}

// Append encodes v and appends it to buf, returning the extended slice.
func Append(buf []byte, v uint64) []byte {
	var tmp [8]byte
	n, err := Encode(v, tmp[:])
	if err != nil {
		panic(err)
	}
	return append(buf, tmp[:n]...)
}

// PeekLen inspects the first byte of buf and returns the total encoded
// length (1, 2, 4 or 8) without consuming or validating the rest of
// the buffer. buf must be at least one byte long.
func PeekLen(buf []byte) (int, error) {
	if len(buf) < 1 {
		return 0, ErrBufferTooShort
	}
	switch buf[0] >> 6 {
	case 0:
		return 1, nil
	case 1:
		return 2, nil
	case 2:
		return 4, nil
	default:
		return 8, nil
	}
}

// Decode reads the varint at buf[*pos:], advances *pos past it, and
// returns the number of bytes consumed along with the decoded value;
// callers that only need to skip a field can ignore the value.
func Decode(buf []byte, pos *int, max int) (length int, value uint64, err error) {
	if *pos < 0 || *pos >= max || *pos > len(buf) {
		return 0, 0, ErrBufferTooShort
	}

	remaining := buf[*pos:]
	if max-*pos < len(remaining) {
		remaining = remaining[:max-*pos]
	}

	length, err = PeekLen(remaining)
	if err != nil {
		return 0, 0, err
	}
	if len(remaining) < length {
		return 0, 0, ErrBufferTooShort
	}

	first := remaining[0] &^ 0xc0
	value = uint64(first)
	for i := 1; i < length; i++ {
		value = value<<8 | uint64(remaining[i])
	}

	*pos += length
	return length, value, nil
}
