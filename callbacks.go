// SPDX-FileCopyrightText: 2026 mchttp3 contributors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package mchttp3

import "github.com/mchttp3/mchttp3/internal/xtimer"

// HeaderFlags reports END_REQUEST/TRAILERS state on an on_headers
// callback (spec.md §6).
type HeaderFlags struct {
	EndRequest bool
	Trailers   bool
}

// DataFlags reports END_DATA state on an on_data_recv callback.
type DataFlags struct {
	EndData bool
}

// Callbacks is the host callback table spec.md §6 describes. spec.md
// §9 treats every entry as individually optional; here that maps onto
// embedding NoopCallbacks in a host type and overriding only the
// methods that matter, rather than requiring every host to implement
// the full table by hand.
type Callbacks interface {
	// Recv reads up to len(buf) bytes into buf. n=0 means would-block;
	// a returned io.EOF-shaped error means the bearer is closed.
	Recv(buf []byte) (n int, err error)

	// Send writes buf. n=0 means would-block.
	Send(buf []byte) (n int, err error)

	// OnBeginHeaders announces that a stream is about to receive its
	// first header block.
	OnBeginHeaders(streamUser interface{})

	// OnHeaders delivers one decoded header, one call per name/value
	// pair in the block (spec.md §6); flags.EndRequest is set only on
	// the call carrying the last header of the last header block a
	// request will ever send.
	OnHeaders(flags HeaderFlags, hdr HeaderField, streamUser interface{})

	// OnDataRecv delivers one contiguous run of body bytes at offset.
	OnDataRecv(flags DataFlags, data []byte, offset uint64, streamUser interface{})

	// OnBeginPromise announces a push promise materialising under
	// parentStreamUser, and lets the host supply an opaque handle for
	// the new push stream.
	OnBeginPromise(parentStreamUser interface{}) (promiseUser interface{})

	// OnRequestClose reports a stream's terminal status.
	OnRequestClose(status Status, streamUser interface{})
}

// TimerCallbacks is the optional timer half of the host surface
// (spec.md §4.10, §9): when absent, timer-driven recovery is disabled
// and the session runs purely reactively under the caller's clock.
type TimerCallbacks = xtimer.Host

// HeaderField re-exports internal/hpack's decoded header pair at the
// public callback boundary, so host code never needs to import an
// internal package to read a header the session delivered to it.
type HeaderField struct {
	Name  string
	Value string
}

// NoopCallbacks is a Callbacks implementation whose every method is a
// harmless no-op (Recv/Send report would-block). Embed it in a host
// type to satisfy Callbacks while overriding only the methods that
// matter, the way a partial capability table would in a language with
// optional struct fields.
type NoopCallbacks struct{}

func (NoopCallbacks) Recv([]byte) (int, error)               { return 0, nil }
func (NoopCallbacks) Send([]byte) (int, error)               { return 0, nil }
func (NoopCallbacks) OnBeginHeaders(interface{})              {}
func (NoopCallbacks) OnHeaders(HeaderFlags, HeaderField, interface{}) {}
func (NoopCallbacks) OnDataRecv(DataFlags, []byte, uint64, interface{}) {}
func (NoopCallbacks) OnBeginPromise(interface{}) interface{} { return nil }
func (NoopCallbacks) OnRequestClose(Status, interface{})     {}
