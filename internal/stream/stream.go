// SPDX-FileCopyrightText: 2026 mchttp3 contributors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package stream implements the per-stream data model of spec.md §3
// and §4.6: the two independent send/receive state machines, the
// inbound segment store, the outbound frame queue, and the gap-tracked
// active frames a stream is currently reassembling.
package stream

import (
	"errors"

	"github.com/mchttp3/mchttp3/internal/buffer"
	"github.com/mchttp3/mchttp3/internal/frame"
)

// NotFound is the sentinel stream-id/push-id meaning "no id assigned".
const NotFound uint64 = ^uint64(0)

// Well-known stream ids (spec.md §4.6, §6, GLOSSARY).
const (
	// ZeroID is the bidirectional anchor stream that commits the
	// fabricated multicast handshake; it never carries application
	// traffic.
	ZeroID uint64 = 0
	// ClientControlStreamID is the client's unidirectional control
	// stream, carrying SETTINGS/CANCEL_PUSH/GOAWAY/MAX_PUSH_ID/PRIORITY.
	ClientControlStreamID uint64 = 2
	// ServerControlStreamID is the server's symmetric control stream.
	ServerControlStreamID uint64 = 3
	// InitRequestStreamID is the multicast profile's sole application
	// bidirectional stream (highest_bidi_stream_id in multicast mode).
	InitRequestStreamID uint64 = 4
	// PushPromiseStreamID names the push-promise stream sentinel. No
	// code path looks it up: push streams are recognised by stream id
	// and their HEADERS frames parsed with a push-id prefix.
	PushPromiseStreamID uint64 = 4
)

// SendState is the outbound state machine of spec.md §4.6.
type SendState int

const (
	SendOpen SendState = iota
	SendHdrs
	SendBody
	SendTrailers
	SendDone
)

func (s SendState) String() string {
	switch s {
	case SendOpen:
		return "OPEN"
	case SendHdrs:
		return "HDRS"
	case SendBody:
		return "BODY"
	case SendTrailers:
		return "TRAILERS"
	case SendDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// RecvState is the inbound state machine, an identical lattice driven
// by observed frames rather than user calls.
type RecvState int

const (
	RecvOpen RecvState = iota
	RecvHdrs
	RecvBody
	RecvTrailers
	RecvDone
)

func (s RecvState) String() string {
	switch s {
	case RecvOpen:
		return "OPEN"
	case RecvHdrs:
		return "HDRS"
	case RecvBody:
		return "BODY"
	case RecvTrailers:
		return "TRAILERS"
	case RecvDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

var (
	// ErrTrailersNotPromised is returned by FeedHeaders when a second
	// header block arrives during BODY without a prior `trailer`
	// header naming a trailer field.
	ErrTrailersNotPromised = errors.New("stream: trailers not promised")
	// ErrRequestClosed is returned when a caller or a received frame
	// attempts an illegal state transition (spec.md §4.6, §8 property 5).
	ErrRequestClosed = errors.New("stream: request closed")
)

// Gap is a half-open, disjoint stream-byte range within an ActiveFrame
// that has not yet been filled (spec.md §3, §4.7).
type Gap struct {
	Begin, End uint64
	next       *Gap
}

// ActiveFrame is a receive-side frame whose byte span is known but
// whose payload is still being filled in (spec.md §3, §4.7).
type ActiveFrame struct {
	Type   frame.Type
	Offset uint64 // stream offset of the frame's first byte (header included)
	Size   uint64 // total on-wire size, header + payload

	// PayloadOffset is the stream offset at which the frame's payload
	// (post type/length header) begins.
	PayloadOffset uint64
	// Data buffers the frame's payload as it fills in, dispatched to
	// the user callback once the frame's gap list is empty.
	Data []byte

	gaps *Gap

	// EndHeaderOffset and DataOffsetAdjust support DATA-frame body
	// offset rebasing (spec.md §4.7 step 2). Unused for non-DATA
	// frames.
	EndHeaderOffset  uint64
	DataOffsetAdjust uint64

	next *ActiveFrame
}

// NewActiveFrame allocates an active frame spanning
// [offset, offset+size) with a single initial gap covering the whole
// payload span.
func NewActiveFrame(typ frame.Type, offset, size, payloadOffset uint64) *ActiveFrame {
	af := &ActiveFrame{
		Type:          typ,
		Offset:        offset,
		Size:          size,
		PayloadOffset: payloadOffset,
	}
	payloadSize := offset + size - payloadOffset
	if payloadSize > 0 {
		af.gaps = &Gap{Begin: payloadOffset, End: payloadOffset + payloadSize}
	}
	af.Data = make([]byte, payloadSize)
	return af
}

// Ready reports whether every byte of the frame's payload has arrived.
func (af *ActiveFrame) Ready() bool {
	return af.gaps == nil
}

// Next returns the next active frame in arrival order, or nil.
func (af *ActiveFrame) Next() *ActiveFrame { return af.next }

// SetNext relinks the active frame list; used by the reassembly
// package when a frame is dispatched and removed from the list.
func (af *ActiveFrame) SetNext(n *ActiveFrame) { af.next = n }

// Gaps exposes the gap list for testing and diagnostics.
func (af *ActiveFrame) Gaps() []Gap {
	var out []Gap
	for g := af.gaps; g != nil; g = g.next {
		out = append(out, Gap{Begin: g.Begin, End: g.End})
	}
	return out
}

// Fill punches [begin, end) out of the frame's gap list and copies the
// corresponding bytes into af.Data. It is the caller's responsibility
// to ensure the given range actually lies within the frame's payload
// span.
func (af *ActiveFrame) Fill(begin, end uint64, data []byte) {
	if len(data) > 0 {
		copy(af.Data[begin-af.PayloadOffset:], data)
	}
	af.punch(begin, end)
}

func (af *ActiveFrame) punch(begin, end uint64) {
	var prev *Gap
	g := af.gaps
	for g != nil {
		next := g.next
		switch {
		case end <= g.Begin || begin >= g.End:
			// No overlap with this gap.
		case begin <= g.Begin && end >= g.End:
			// Whole gap consumed; delete it.
			if prev == nil {
				af.gaps = g.next
			} else {
				prev.next = g.next
			}
			g = next
			continue
		case begin <= g.Begin:
			// Truncate the gap's start.
			g.Begin = end
		case end >= g.End:
			// Truncate the gap's end.
			g.End = begin
		default:
			// Split the gap in two.
			tail := &Gap{Begin: end, End: g.End, next: g.next}
			g.End = begin
			g.next = tail
		}
		prev = g
		g = next
	}
}

// Stream is the per-stream state of spec.md §3.
type Stream struct {
	ID     uint64
	PushID uint64
	Handle interface{}

	SendState SendState
	RecvState RecvState

	TrailersPromised bool
	Started          bool

	RecvChain buffer.Chain
	SendChain buffer.Chain

	// ActiveFrames is the head of the linked list of frames currently
	// being reassembled on this stream, ordered by arrival.
	ActiveFrames *ActiveFrame

	// NextRecvOffset is the stream byte offset at which the next
	// un-framed byte is expected (spec.md §3).
	NextRecvOffset uint64

	// DataFramesTotal and DataOffsetAdjust rebase DATA-frame stream
	// offsets into application body offsets (spec.md §4.7 step 2).
	DataFramesTotal  uint64
	DataOffsetAdjust uint64

	StatusCode int
}

// New allocates a Stream. If handle is nil, the stream's own address
// is used, guaranteeing a unique handle even when the caller supplies
// none (spec.md §3).
func New(id uint64, pushID uint64, handle interface{}) *Stream {
	s := &Stream{ID: id, PushID: pushID}
	if handle != nil {
		s.Handle = handle
	} else {
		s.Handle = s
	}
	return s
}

// Key implements streamtab.Entry.
func (s *Stream) Key() uint64 { return s.ID }

// UserHandle implements streamtab.Entry.
func (s *Stream) UserHandle() interface{} { return s.Handle }

// Done reports whether both state machines have reached their
// terminal state, meaning the stream can be destroyed (spec.md §3).
func (s *Stream) Done() bool {
	return s.SendState == SendDone && s.RecvState == RecvDone
}

// FeedHeaders drives the send-side state machine on a user call to
// feed a header block. trailer reports whether the caller has named a
// `trailer` field, promising a trailers block will follow the body.
func (s *Stream) FeedHeaders(trailer bool) error {
	switch s.SendState {
	case SendOpen:
		s.SendState = SendHdrs
	case SendHdrs:
		// Re-entrant HEADERS before any body: allowed, no transition.
	case SendBody:
		if !s.TrailersPromised {
			return ErrTrailersNotPromised
		}
		s.SendState = SendTrailers
	default:
		return ErrRequestClosed
	}
	if trailer {
		s.TrailersPromised = true
	}
	return nil
}

// FeedPayloadData drives the send-side state machine on a user call to
// feed body bytes.
func (s *Stream) FeedPayloadData() error {
	switch s.SendState {
	case SendHdrs, SendBody:
		s.SendState = SendBody
		return nil
	default:
		return ErrRequestClosed
	}
}

// FinishSend marks the send-side state machine DONE, on the final flag
// being set, on cancellation, or on a close callback (spec.md §4.6).
func (s *Stream) FinishSend() {
	s.SendState = SendDone
}

// ObserveHeadersFrame drives the receive-side state machine on an
// inbound HEADERS frame.
func (s *Stream) ObserveHeadersFrame() error {
	switch s.RecvState {
	case RecvOpen:
		s.RecvState = RecvHdrs
	case RecvBody:
		s.RecvState = RecvTrailers
	default:
		return ErrRequestClosed
	}
	return nil
}

// ObserveDataFrame drives the receive-side state machine on an inbound
// DATA frame.
func (s *Stream) ObserveDataFrame() error {
	switch s.RecvState {
	case RecvHdrs, RecvBody:
		s.RecvState = RecvBody
		return nil
	default:
		return ErrRequestClosed
	}
}

// FinishRecv marks the receive-side state machine DONE.
func (s *Stream) FinishRecv() {
	s.RecvState = RecvDone
}
