// SPDX-FileCopyrightText: 2026 mchttp3 contributors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package frame implements the HTTP/3 frame codec: parsing and
// emitting the DATA, HEADERS, PRIORITY, CANCEL_PUSH, SETTINGS,
// PUSH_PROMISE, GOAWAY and MAX_PUSH_ID frame bodies that ride on top
// of QUIC streams.
//
// Every frame begins with a varint type tag followed by a varint
// length; ParseHeader reads exactly that much so the reassembly engine
// can reserve the frame's total on-wire span before any payload byte
// has arrived.
package frame

import (
	"errors"

	"github.com/mchttp3/mchttp3/varint"
)

// Type identifies an HTTP/3 frame type.
type Type uint64

const (
	TypeData        Type = 0x0
	TypeHeaders     Type = 0x1
	TypePriority    Type = 0x2
	TypeCancelPush  Type = 0x3
	TypeSettings    Type = 0x4
	TypePushPromise Type = 0x5
	TypeGoaway      Type = 0x7
	TypeMaxPushID   Type = 0xd
)

func (t Type) String() string {
	switch t {
	case TypeData:
		return "DATA"
	case TypeHeaders:
		return "HEADERS"
	case TypePriority:
		return "PRIORITY"
	case TypeCancelPush:
		return "CANCEL_PUSH"
	case TypeSettings:
		return "SETTINGS"
	case TypePushPromise:
		return "PUSH_PROMISE"
	case TypeGoaway:
		return "GOAWAY"
	case TypeMaxPushID:
		return "MAX_PUSH_ID"
	default:
		return "UNKNOWN"
	}
}

// ErrNeedMoreBytes signals that buf does not yet hold a complete frame
// header (type + length varints); the caller should wait for more
// bytes to arrive rather than treat this as malformed input.
var ErrNeedMoreBytes = errors.New("frame: need more bytes")

// ErrMalformed signals a frame whose payload does not match its
// declared type's fixed shape.
var ErrMalformed = errors.New("frame: malformed")

// Header is the result of parsing a frame's type+length prefix.
type Header struct {
	Type Type
	// PayloadLen is the length of the frame body, not counting the
	// type/length prefix itself.
	PayloadLen uint64
	// HeaderLen is the number of bytes the type+length prefix itself
	// occupied.
	HeaderLen int
}

// TotalLen is the number of bytes the whole frame (header + payload)
// occupies on the wire.
func (h Header) TotalLen() uint64 {
	return uint64(h.HeaderLen) + h.PayloadLen
}

// ParseHeader reads a frame's type and length varints from the start
// of buf. It returns ErrNeedMoreBytes if buf is too short to contain
// both varints yet.
func ParseHeader(buf []byte) (Header, error) {
	pos := 0
	typeLen, err := varint.PeekLen(buf)
	if err != nil {
		return Header{}, ErrNeedMoreBytes
	}
	if len(buf) < typeLen {
		return Header{}, ErrNeedMoreBytes
	}
	_, typ, err := varint.Decode(buf, &pos, len(buf))
	if err != nil {
		return Header{}, ErrNeedMoreBytes
	}

	if len(buf) <= pos {
		return Header{}, ErrNeedMoreBytes
	}
	lenLen, err := varint.PeekLen(buf[pos:])
	if err != nil {
		return Header{}, ErrNeedMoreBytes
	}
	if len(buf[pos:]) < lenLen {
		return Header{}, ErrNeedMoreBytes
	}
	_, payloadLen, err := varint.Decode(buf, &pos, len(buf))
	if err != nil {
		return Header{}, ErrNeedMoreBytes
	}

	return Header{Type: Type(typ), PayloadLen: payloadLen, HeaderLen: pos}, nil
}

func appendHeader(out []byte, typ Type, payloadLen int) []byte {
	out = varint.Append(out, uint64(typ))
	out = varint.Append(out, uint64(payloadLen))
	return out
}

// CreateData builds a DATA frame carrying data verbatim.
func CreateData(data []byte) []byte {
	out := appendHeader(nil, TypeData, len(data))
	return append(out, data...)
}

// ParseData returns the body of a DATA frame given its full payload
// (the header has already been stripped by the caller). No copy is
// made: the returned slice aliases buf.
func ParseData(payload []byte) []byte {
	return payload
}

// NoPushID marks a HEADERS frame as a request/response header block
// with no push-id prefix (spec.md §4.4).
const NoPushID int64 = -1

// CreateHeaders builds a HEADERS frame. pushID of NoPushID omits the
// push-id prefix; any other value prefixes the header block with the
// push-id as a varint, marking a push-continuation header block.
func CreateHeaders(pushID int64, headerBlock []byte) []byte {
	var body []byte
	if pushID != NoPushID {
		body = varint.Append(body, uint64(pushID))
	}
	body = append(body, headerBlock...)
	return append(appendHeader(nil, TypeHeaders, len(body)), body...)
}

// ParseHeaders splits a HEADERS frame payload into its optional
// push-id and header block. hasPushID tells the caller whether pushID
// is meaningful, since a push-id of 0 is a valid promise id and cannot
// double as a "no push-id" sentinel on the wire.
func ParseHeaders(payload []byte, hasPushID bool) (pushID uint64, headerBlock []byte, err error) {
	if !hasPushID {
		return 0, payload, nil
	}
	pos := 0
	_, pushID, err = varint.Decode(payload, &pos, len(payload))
	if err != nil {
		return 0, nil, ErrMalformed
	}
	return pushID, payload[pos:], nil
}

// CreatePushPromise builds a PUSH_PROMISE frame: a push-id varint
// followed by a header block.
func CreatePushPromise(pushID uint64, headerBlock []byte) []byte {
	body := varint.Append(nil, pushID)
	body = append(body, headerBlock...)
	return append(appendHeader(nil, TypePushPromise, len(body)), body...)
}

// ParsePushPromise splits a PUSH_PROMISE frame payload into its
// push-id and header block.
func ParsePushPromise(payload []byte) (pushID uint64, headerBlock []byte, err error) {
	pos := 0
	_, pushID, err = varint.Decode(payload, &pos, len(payload))
	if err != nil {
		return 0, nil, ErrMalformed
	}
	return pushID, payload[pos:], nil
}

func createSingleVarint(typ Type, v uint64) []byte {
	body := varint.Append(nil, v)
	return append(appendHeader(nil, typ, len(body)), body...)
}

func parseSingleVarint(payload []byte) (uint64, error) {
	pos := 0
	_, v, err := varint.Decode(payload, &pos, len(payload))
	if err != nil {
		return 0, ErrMalformed
	}
	return v, nil
}

// CreateCancelPush builds a CANCEL_PUSH frame.
func CreateCancelPush(pushID uint64) []byte { return createSingleVarint(TypeCancelPush, pushID) }

// ParseCancelPush extracts the push-id of a CANCEL_PUSH frame.
func ParseCancelPush(payload []byte) (uint64, error) { return parseSingleVarint(payload) }

// CreateMaxPushID builds a MAX_PUSH_ID frame.
func CreateMaxPushID(maxPushID uint64) []byte { return createSingleVarint(TypeMaxPushID, maxPushID) }

// ParseMaxPushID extracts the max-push-id of a MAX_PUSH_ID frame.
func ParseMaxPushID(payload []byte) (uint64, error) { return parseSingleVarint(payload) }

// CreateGoaway builds a GOAWAY frame.
func CreateGoaway(lastID uint64) []byte { return createSingleVarint(TypeGoaway, lastID) }

// ParseGoaway extracts the last-id of a GOAWAY frame.
func ParseGoaway(payload []byte) (uint64, error) { return parseSingleVarint(payload) }

// Setting is one (id, value) pair inside a SETTINGS frame.
type Setting struct {
	ID    uint64
	Value uint64
}

// CreateSettings builds a SETTINGS frame from a flat list of settings.
func CreateSettings(settings []Setting) []byte {
	var body []byte
	for _, s := range settings {
		body = varint.Append(body, s.ID)
		body = varint.Append(body, s.Value)
	}
	return append(appendHeader(nil, TypeSettings, len(body)), body...)
}

// ParseSettings decodes a SETTINGS frame body into (id, value) pairs.
// Unknown ids are returned like any other; the core does not act on
// any setting beyond surface validation (spec.md §4.4), so filtering
// unrecognised ids is the caller's business, not the codec's.
func ParseSettings(payload []byte) ([]Setting, error) {
	var out []Setting
	pos := 0
	for pos < len(payload) {
		_, id, err := varint.Decode(payload, &pos, len(payload))
		if err != nil {
			return nil, ErrMalformed
		}
		_, value, err := varint.Decode(payload, &pos, len(payload))
		if err != nil {
			return nil, ErrMalformed
		}
		out = append(out, Setting{ID: id, Value: value})
	}
	return out, nil
}

// Priority describes a parsed PRIORITY frame. The core surface-validates
// this frame but never acts on it (spec.md §4.4, SPEC_FULL.md §4.16);
// fairness stays lowest-stream-id-first regardless of any PRIORITY
// frame received.
type Priority struct {
	PrioritizedType byte
	DependencyType  byte
	Exclusive       bool
	PrioritizedID   uint64
	DependencyID    uint64
	Weight          byte
}

// CreatePriority builds a PRIORITY frame.
func CreatePriority(p Priority) []byte {
	body := []byte{p.PrioritizedType, p.DependencyType, 0}
	if p.Exclusive {
		body[2] = 0x80
	}
	body = varint.Append(body, p.PrioritizedID)
	body = varint.Append(body, p.DependencyID)
	body = append(body, p.Weight)
	return append(appendHeader(nil, TypePriority, len(body)), body...)
}

// ParsePriority decodes a PRIORITY frame body.
func ParsePriority(payload []byte) (Priority, error) {
	if len(payload) < 3 {
		return Priority{}, ErrMalformed
	}
	p := Priority{
		PrioritizedType: payload[0],
		DependencyType:  payload[1],
		Exclusive:       payload[2]&0x80 != 0,
	}
	pos := 3
	var err error
	if _, p.PrioritizedID, err = varint.Decode(payload, &pos, len(payload)); err != nil {
		return Priority{}, ErrMalformed
	}
	if _, p.DependencyID, err = varint.Decode(payload, &pos, len(payload)); err != nil {
		return Priority{}, ErrMalformed
	}
	if pos >= len(payload) {
		return Priority{}, ErrMalformed
	}
	p.Weight = payload[pos]
	return p, nil
}
