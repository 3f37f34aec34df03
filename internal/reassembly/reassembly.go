// SPDX-FileCopyrightText: 2026 mchttp3 contributors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package reassembly implements the stream-data reassembly algorithm
// of spec.md §4.7: offset-ordered insertion tolerant of arbitrary
// overlap and duplication, frame-boundary extraction, gap-tracked
// frame filling, and in-order dispatch to per-type handlers.
package reassembly

import (
	"github.com/mchttp3/mchttp3/internal/buffer"
	"github.com/mchttp3/mchttp3/internal/frame"
	"github.com/mchttp3/mchttp3/internal/stream"
)

// Dispatcher receives frames once their gap list is empty. Every
// method corresponds to one HTTP/3 frame type the core surfaces
// (spec.md §4.4, §6).
type Dispatcher interface {
	OnBeginHeaders(s *stream.Stream)
	OnHeaders(s *stream.Stream, headerBlock []byte, pushID uint64, hasPushID bool, endRequest bool)
	OnData(s *stream.Stream, data []byte, offset uint64, end bool)
	OnPriority(s *stream.Stream, p frame.Priority) error
	OnCancelPush(s *stream.Stream, pushID uint64) error
	OnSettings(s *stream.Stream, settings []frame.Setting) error
	OnPushPromise(s *stream.Stream, pushID uint64, headerBlock []byte) error
	OnGoaway(s *stream.Stream, lastID uint64) error
	OnMaxPushID(s *stream.Stream, maxPushID uint64) error
}

// Insert performs spec.md §4.7 step 1: it walks s.RecvChain to find
// where [offset, offset+len(data)) belongs, trims any already-covered
// prefix, splices in a fresh segment or extends an existing one, and
// merges with any segment the extension now abuts or overlaps.
func Insert(s *stream.Stream, data []byte, offset uint64, eos bool) {
	end := offset + uint64(len(data))

	seg := s.RecvChain.Next(nil)
	for seg != nil && seg.End() <= offset {
		seg = s.RecvChain.Next(seg)
	}

	if seg == nil || seg.Offset > offset {
		// No existing segment covers offset; splice in a fresh one and
		// let mergeForward absorb any later segment it reaches.
		fresh := &buffer.Segment{Buf: append([]byte(nil), data...), Offset: offset, Complete: eos}
		s.RecvChain.InsertSorted(fresh)
		mergeForward(s, fresh)
		return
	}

	if seg.Offset <= offset && seg.End() >= end {
		// Fully covered already; only the eos flag might be new.
		if eos && end == seg.End() {
			seg.Complete = true
		}
		return
	}

	// Partial overlap: trim the covered prefix, then extend.
	skip := uint64(0)
	if seg.Offset+uint64(len(seg.Buf)) > offset {
		// seg already covers [offset, seg.End()); keep only the tail
		// of the incoming range past what seg already has.
		covered := seg.End()
		if covered > offset {
			skip = covered - offset
		}
	}
	if skip >= uint64(len(data)) {
		if eos {
			seg.Complete = true
		}
		return
	}
	tail := data[skip:]
	seg.Buf = append(seg.Buf, tail...)
	seg.Remaining += len(tail)
	if eos {
		seg.Complete = true
	}
	mergeForward(s, seg)
}

// mergeForward absorbs any following segment that now abuts or
// overlaps seg, repeating until no more merges apply.
func mergeForward(s *stream.Stream, seg *buffer.Segment) {
	for {
		next := s.RecvChain.Next(seg)
		if next == nil || next.Offset > seg.End() {
			return
		}
		overlap := seg.End() - next.Offset
		var tail []byte
		if uint64(len(next.Buf)) > overlap {
			tail = next.Buf[overlap:]
		}
		seg.Buf = append(seg.Buf, tail...)
		seg.Remaining += len(tail)
		if next.Complete {
			seg.Complete = true
		}
		s.RecvChain.RemoveAfter(seg)
	}
}

// segmentContaining returns the segment covering offset, if any.
func segmentContaining(s *stream.Stream, offset uint64) *buffer.Segment {
	for seg := s.RecvChain.Next(nil); seg != nil; seg = s.RecvChain.Next(seg) {
		if seg.Offset <= offset && offset < seg.End() {
			return seg
		}
		if seg.Offset > offset {
			return nil
		}
	}
	return nil
}

// ExtractFrames performs spec.md §4.7 step 2: while the segment
// covering s.NextRecvOffset holds enough contiguous bytes for a frame
// header, allocate an ActiveFrame reserving the frame's full span and
// advance NextRecvOffset past it. It stops as soon as a frame header
// cannot yet be fully read.
func ExtractFrames(s *stream.Stream) {
	for {
		seg := segmentContaining(s, s.NextRecvOffset)
		if seg == nil {
			return
		}
		available := seg.Buf[s.NextRecvOffset-seg.Offset:]
		hdr, err := frame.ParseHeader(available)
		if err != nil {
			return // need more bytes
		}
		if uint64(len(available)) < hdr.TotalLen() && !seg.Complete {
			// Header parsed, but we don't yet know the segment will
			// ever hold the whole frame; still fine to reserve the
			// span since later inserts will fill it in.
		}

		af := allocateFrame(s, hdr, s.NextRecvOffset)
		s.NextRecvOffset += hdr.TotalLen()

		// Any bytes already present in this segment for the new
		// frame's span are filled immediately.
		fillFromSegment(af, seg, s.NextRecvOffset)

		appendActiveFrame(s, af)
	}
}

func allocateFrame(s *stream.Stream, hdr frame.Header, offset uint64) *stream.ActiveFrame {
	payloadOffset := offset + uint64(hdr.HeaderLen)
	af := stream.NewActiveFrame(hdr.Type, offset, hdr.TotalLen(), payloadOffset)
	if hdr.Type == frame.TypeData {
		af.EndHeaderOffset = payloadOffset
		af.DataOffsetAdjust = af.EndHeaderOffset - s.DataFramesTotal
		s.DataFramesTotal += hdr.PayloadLen
	}
	return af
}

func appendActiveFrame(s *stream.Stream, af *stream.ActiveFrame) {
	if s.ActiveFrames == nil {
		s.ActiveFrames = af
		return
	}
	last := s.ActiveFrames
	for last.Next() != nil {
		last = last.Next()
	}
	last.SetNext(af)
}

func fillFromSegment(af *stream.ActiveFrame, seg *buffer.Segment, upTo uint64) {
	begin := af.PayloadOffset
	end := af.Offset + af.Size
	if end > upTo {
		end = upTo
	}
	segEnd := seg.End()
	if end > segEnd {
		end = segEnd
	}
	if begin >= end {
		return
	}
	data := seg.Buf[begin-seg.Offset : end-seg.Offset]
	af.Fill(begin, end, data)
}

// FillFrames performs spec.md §4.7 step 3: for every stored segment,
// copy the overlap with every active frame that spans it and punch the
// corresponding gap.
func FillFrames(s *stream.Stream) {
	for af := s.ActiveFrames; af != nil; af = af.Next() {
		frameEnd := af.Offset + af.Size
		for seg := s.RecvChain.Next(nil); seg != nil; seg = s.RecvChain.Next(seg) {
			if seg.Offset >= frameEnd {
				break
			}
			begin := maxU64(af.PayloadOffset, seg.Offset)
			end := minU64(frameEnd, seg.End())
			if begin >= end {
				continue
			}
			data := seg.Buf[begin-seg.Offset : end-seg.Offset]
			af.Fill(begin, end, data)
		}
	}
}

func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

// Dispatch performs spec.md §4.7 step 4. DATA frames dispatch as soon
// as they are individually ready; non-DATA frames serialise with
// respect to each other (an incomplete non-DATA frame blocks every
// later non-DATA frame on the stream, but never a DATA frame).
func Dispatch(s *stream.Stream, hasPushIDOnHeaders bool, disp Dispatcher) error {
	var prev *stream.ActiveFrame
	blocked := false

	af := s.ActiveFrames
	for af != nil {
		next := af.Next()

		if af.Type == frame.TypeData {
			if af.Ready() {
				bodyOffset := af.PayloadOffset - af.DataOffsetAdjust
				if err := s.ObserveDataFrame(); err != nil {
					// DATA is never held up by an incomplete earlier
					// non-DATA frame, so it may legitimately race
					// ahead of HEADERS; that transition is a no-op.
					// Any other illegal transition (trailers already
					// seen, stream done) fails the stream, same as
					// ObserveHeadersFrame does for HEADERS.
					if s.RecvState != stream.RecvOpen {
						return err
					}
				}
				disp.OnData(s, af.Data, bodyOffset, false)
				removeActiveFrame(s, prev, af)
				af = next
				continue
			}
			prev = af
			af = next
			continue
		}

		if blocked {
			prev = af
			af = next
			continue
		}
		if !af.Ready() {
			blocked = true
			prev = af
			af = next
			continue
		}

		if err := dispatchFrame(s, af, hasPushIDOnHeaders, disp); err != nil {
			return err
		}
		removeActiveFrame(s, prev, af)
		af = next
	}
	return nil
}

func dispatchFrame(s *stream.Stream, af *stream.ActiveFrame, hasPushIDOnHeaders bool, disp Dispatcher) error {
	switch af.Type {
	case frame.TypeHeaders:
		begin := s.RecvState == stream.RecvOpen
		if err := s.ObserveHeadersFrame(); err != nil {
			return err
		}
		if begin {
			disp.OnBeginHeaders(s)
		}
		pushID, block, err := frame.ParseHeaders(af.Data, hasPushIDOnHeaders)
		if err != nil {
			return err
		}
		disp.OnHeaders(s, block, pushID, hasPushIDOnHeaders, false)
	case frame.TypePriority:
		p, err := frame.ParsePriority(af.Data)
		if err != nil {
			return err
		}
		return disp.OnPriority(s, p)
	case frame.TypeCancelPush:
		id, err := frame.ParseCancelPush(af.Data)
		if err != nil {
			return err
		}
		return disp.OnCancelPush(s, id)
	case frame.TypeSettings:
		settings, err := frame.ParseSettings(af.Data)
		if err != nil {
			return err
		}
		return disp.OnSettings(s, settings)
	case frame.TypePushPromise:
		id, block, err := frame.ParsePushPromise(af.Data)
		if err != nil {
			return err
		}
		return disp.OnPushPromise(s, id, block)
	case frame.TypeGoaway:
		id, err := frame.ParseGoaway(af.Data)
		if err != nil {
			return err
		}
		return disp.OnGoaway(s, id)
	case frame.TypeMaxPushID:
		id, err := frame.ParseMaxPushID(af.Data)
		if err != nil {
			return err
		}
		return disp.OnMaxPushID(s, id)
	}
	return nil
}

func removeActiveFrame(s *stream.Stream, prev, af *stream.ActiveFrame) {
	if prev == nil {
		s.ActiveFrames = af.Next()
		return
	}
	prev.SetNext(af.Next())
}

// RecvStreamData is the single entry point spec.md §4.7 names
// (recv_stream_data): insert, extract, fill, dispatch, in order.
func RecvStreamData(s *stream.Stream, data []byte, offset uint64, eos bool, hasPushIDOnHeaders bool, disp Dispatcher) error {
	Insert(s, data, offset, eos)
	ExtractFrames(s)
	FillFrames(s)
	return Dispatch(s, hasPushIDOnHeaders, disp)
}
