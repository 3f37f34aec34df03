// SPDX-FileCopyrightText: 2026 mchttp3 contributors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package stream

import (
	"testing"

	"github.com/mchttp3/mchttp3/internal/frame"
)

func TestSendStateMachineHappyPath(t *testing.T) {
	s := New(4, NotFound, nil)
	if s.SendState != SendOpen {
		t.Fatalf("initial state = %v, want OPEN", s.SendState)
	}
	if err := s.FeedHeaders(false); err != nil {
		t.Fatalf("FeedHeaders: %v", err)
	}
	if s.SendState != SendHdrs {
		t.Fatalf("state = %v, want HDRS", s.SendState)
	}
	if err := s.FeedPayloadData(); err != nil {
		t.Fatalf("FeedPayloadData: %v", err)
	}
	if s.SendState != SendBody {
		t.Fatalf("state = %v, want BODY", s.SendState)
	}
	s.FinishSend()
	if s.SendState != SendDone {
		t.Fatalf("state = %v, want DONE", s.SendState)
	}
}

func TestTrailerNegotiation(t *testing.T) {
	// S2: headers promise a trailer, body is fed, then a trailing
	// header block is accepted.
	s := New(4, NotFound, nil)
	if err := s.FeedHeaders(true); err != nil {
		t.Fatalf("FeedHeaders: %v", err)
	}
	if err := s.FeedPayloadData(); err != nil {
		t.Fatalf("FeedPayloadData: %v", err)
	}
	if err := s.FeedHeaders(false); err != nil {
		t.Fatalf("trailing FeedHeaders should be accepted: %v", err)
	}
	if s.SendState != SendTrailers {
		t.Fatalf("state = %v, want TRAILERS", s.SendState)
	}
}

func TestTrailersNotPromisedFails(t *testing.T) {
	s := New(4, NotFound, nil)
	if err := s.FeedHeaders(false); err != nil {
		t.Fatalf("FeedHeaders: %v", err)
	}
	if err := s.FeedPayloadData(); err != nil {
		t.Fatalf("FeedPayloadData: %v", err)
	}
	if err := s.FeedHeaders(false); err != ErrTrailersNotPromised {
		t.Fatalf("err = %v, want ErrTrailersNotPromised", err)
	}
}

func TestSendStateNeverGoesBackwards(t *testing.T) {
	s := New(4, NotFound, nil)
	s.FeedHeaders(false)
	s.FeedPayloadData()
	s.FinishSend()

	if err := s.FeedHeaders(false); err != ErrRequestClosed {
		t.Fatalf("err = %v, want ErrRequestClosed", err)
	}
	if err := s.FeedPayloadData(); err != ErrRequestClosed {
		t.Fatalf("err = %v, want ErrRequestClosed", err)
	}
}

func TestRecvStateMachine(t *testing.T) {
	s := New(4, NotFound, nil)
	if err := s.ObserveHeadersFrame(); err != nil {
		t.Fatalf("ObserveHeadersFrame: %v", err)
	}
	if s.RecvState != RecvHdrs {
		t.Fatalf("state = %v, want HDRS", s.RecvState)
	}
	if err := s.ObserveDataFrame(); err != nil {
		t.Fatalf("ObserveDataFrame: %v", err)
	}
	if s.RecvState != RecvBody {
		t.Fatalf("state = %v, want BODY", s.RecvState)
	}
	if err := s.ObserveHeadersFrame(); err != nil {
		t.Fatalf("trailing HEADERS: %v", err)
	}
	if s.RecvState != RecvTrailers {
		t.Fatalf("state = %v, want TRAILERS", s.RecvState)
	}
	s.FinishRecv()
	if err := s.ObserveHeadersFrame(); err != ErrRequestClosed {
		t.Fatalf("err = %v, want ErrRequestClosed after DONE", err)
	}
}

func TestUniqueHandleDefaultsToSelf(t *testing.T) {
	s1 := New(0, NotFound, nil)
	s2 := New(4, NotFound, nil)
	if s1.Handle == s2.Handle {
		t.Fatal("distinct streams got identical default handles")
	}
	if s1.Handle != s1 {
		t.Fatal("default handle should be the stream's own address")
	}
}

func TestGapListCoverage(t *testing.T) {
	af := NewActiveFrame(frame.TypeHeaders, 0, 100, 3)
	if af.Ready() {
		t.Fatal("frame should not be ready before any fill")
	}

	// Fill out of order: [50,100) then [3,50).
	af.Fill(50, 100, make([]byte, 50))
	if af.Ready() {
		t.Fatal("frame should not be ready after partial fill")
	}
	af.Fill(3, 50, make([]byte, 47))
	if !af.Ready() {
		t.Fatalf("frame should be ready once span is covered, gaps=%v", af.Gaps())
	}
}

func TestGapSplit(t *testing.T) {
	af := NewActiveFrame(frame.TypeHeaders, 0, 100, 0)
	// Fill the middle, leaving two gaps.
	af.Fill(40, 60, make([]byte, 20))
	gaps := af.Gaps()
	if len(gaps) != 2 {
		t.Fatalf("gaps = %v, want 2 entries", gaps)
	}
	if gaps[0] != (Gap{Begin: 0, End: 40}) || gaps[1] != (Gap{Begin: 60, End: 100}) {
		t.Fatalf("gaps = %v, want [{0 40} {60 100}]", gaps)
	}

	af.Fill(0, 40, make([]byte, 40))
	af.Fill(60, 100, make([]byte, 40))
	if !af.Ready() {
		t.Fatal("frame should be ready after filling both remaining gaps")
	}
}
