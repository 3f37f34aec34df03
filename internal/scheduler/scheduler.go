// SPDX-FileCopyrightText: 2026 mchttp3 contributors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler implements the outbound send loop of spec.md
// §4.8: a bytes-in-flight gated, lowest-stream-id-first drain of each
// stream's pending send queue into transport-engine packets.
package scheduler

import (
	"errors"

	"github.com/mchttp3/mchttp3/internal/buffer"
	"github.com/mchttp3/mchttp3/internal/stream"
	"github.com/mchttp3/mchttp3/transport"
)

// MaxBytesInFlight is the fixed ceiling on unacknowledged bytes the
// scheduler will let the transport engine carry before it refuses to
// build new packets.
const MaxBytesInFlight = 14600

// MinStreamPacketOverhead reserves room for the QUIC short header, the
// stream-frame header, and HTTP/3 framing in every packet the
// scheduler asks the engine to build.
const MinStreamPacketOverhead = 27

var errPacketTooSmall = errors.New("scheduler: max packet size too small for stream overhead")

// RequestCloser is invoked once a stream's outbound queue drains
// completely and its final buffer's complete flag has been reached.
type RequestCloser func(s *stream.Stream)

// Send drains stream send queues until every stream is empty, the
// bytes-in-flight gate trips, or the engine returns a fatal error.
// streams may be passed in any order: each round serves the lowest-ID
// stream with pending bytes; this trivial ordering is a known fairness
// limitation (spec.md §4.8): a saturated low stream can
// starve a higher one, but every packet still carries bytes from
// exactly one stream, which callers may depend on.
//
// blocked reports whether the loop stopped because the bytes-in-flight
// gate tripped or the engine accepted zero bytes on an otherwise ready
// stream, as opposed to stopping because every queue is empty.
func Send(streams []*stream.Stream, engine transport.Engine, maxPacketSize int, onRequestClose RequestCloser) (blocked bool, err error) {
	budget := maxPacketSize - MinStreamPacketOverhead
	if budget <= 0 {
		return false, errPacketTooSmall
	}

	skip := make(map[uint64]bool)
	for {
		if engine.BytesInFlight() >= MaxBytesInFlight {
			return true, nil
		}
		s := nextPending(streams, skip)
		if s == nil {
			return false, nil
		}

		data, fin, segs := coalesce(&s.SendChain, budget)
		outcome, werr := engine.WriteStreamData(s.ID, data, fin, budget)
		if werr != nil {
			if isAbsorbed(werr) {
				skip[s.ID] = true
				continue
			}
			return false, werr
		}
		if outcome.Sent == 0 {
			return true, nil
		}

		closed := advance(s, segs, outcome.Sent, fin && outcome.Sent == len(data))
		if closed && onRequestClose != nil {
			onRequestClose(s)
		}
	}
}

func isAbsorbed(err error) bool {
	return errors.Is(err, transport.ErrStreamDataBlocked) ||
		errors.Is(err, transport.ErrShutWr) ||
		errors.Is(err, transport.ErrStreamNotFound)
}

func nextPending(streams []*stream.Stream, skip map[uint64]bool) *stream.Stream {
	var best *stream.Stream
	for _, s := range streams {
		if skip[s.ID] {
			continue
		}
		if s.SendChain.Empty() {
			continue
		}
		if best == nil || s.ID < best.ID {
			best = s
		}
	}
	return best
}

// coalesce gathers contiguous unsent bytes from the head of chain, up
// to budget bytes, and reports whether the gathered range reaches the
// complete flag of its last segment.
func coalesce(chain *buffer.Chain, budget int) (data []byte, fin bool, segs []*buffer.Segment) {
	for seg := chain.Next(nil); seg != nil; seg = chain.Next(seg) {
		available := seg.Bytes()
		room := budget - len(data)
		if room <= 0 {
			break
		}
		take := len(available)
		if take > room {
			take = room
		}
		data = append(data, available[:take]...)
		segs = append(segs, seg)

		if take < len(available) {
			break // budget exhausted mid-segment
		}
		if seg.Complete {
			fin = true
			break
		}
		if len(data) >= budget {
			break
		}
	}
	return data, fin, segs
}

// advance consumes sent bytes from segs in order, popping any segment
// fully drained, and reports whether the stream's send side is now
// completely flushed (fin reached and every gathered byte accepted).
func advance(s *stream.Stream, segs []*buffer.Segment, sent int, finReached bool) bool {
	remaining := sent
	for _, seg := range segs {
		if remaining <= 0 {
			break
		}
		n := len(seg.Bytes())
		if n > remaining {
			n = remaining
		}
		drained := seg.Consume(n)
		remaining -= n
		if drained {
			s.SendChain.Pop()
		}
	}
	if finReached && s.SendChain.Empty() {
		s.FinishSend()
		return true
	}
	return false
}
