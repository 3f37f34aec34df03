// SPDX-FileCopyrightText: 2026 mchttp3 contributors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package transport declares the boundary between the session engine
// and the QUIC transport engine it drives. Packet encryption, loss
// detection, path validation, and packet numbering are the transport
// engine's job and are explicitly out of scope for this module
// (spec.md §1); Engine is the seam a real implementation plugs into.
package transport

import "errors"

// Level identifies a QUIC encryption level.
type Level int

const (
	LevelInitial Level = iota
	LevelHandshake
	LevelApplication
)

// ErrStreamDataBlocked, ErrShutWr and ErrStreamNotFound are absorbed
// by the send scheduler: none of them is a session-fatal error, they
// mean only "no progress on this stream this round" (spec.md §4.8,
// §7).
var (
	ErrStreamDataBlocked = errors.New("transport: stream data blocked")
	ErrShutWr            = errors.New("transport: stream shut for writing")
	ErrStreamNotFound    = errors.New("transport: stream not found")
)

// ErrOutOfBuffers, ErrProtocolViolation and ErrCryptoFailure are
// session-fatal: an Engine implementation wraps one of these (via
// errors.Is-compatible wrapping) when it exhausts its own internal
// buffers, observes a QUIC protocol violation, or fails a TLS
// decrypt, so the session boundary can translate each into its own
// distinct Status instead of collapsing every failure into one kind
// (spec.md §7).
var (
	ErrOutOfBuffers      = errors.New("transport: out of buffers")
	ErrProtocolViolation = errors.New("transport: protocol violation")
	ErrCryptoFailure     = errors.New("transport: crypto failure")
)

// WriteOutcome reports how much of a requested stream write the
// engine actually accepted, and how large the resulting packet was.
type WriteOutcome struct {
	Sent      int
	PacketLen int
}

// Engine is the subset of a QUIC connection's behaviour the session
// drives directly. A real implementation wraps a full QUIC stack's
// low-level packet API (the C original wraps ngtcp2); transport/fake
// provides a minimal reference implementation for tests.
type Engine interface {
	// InstallKey installs key material for level. In multicast mode
	// the forger installs the pre-shared magic at every level; in
	// unicast mode a real engine performs its own TLS handshake and
	// may treat this as a no-op.
	InstallKey(level Level, key []byte) error

	// SubmitCryptoData feeds data into the engine's TLS state machine
	// at the given encryption level.
	SubmitCryptoData(level Level, data []byte) error

	// MarkHandshakeComplete forces the engine's handshake-complete
	// flag, used by the multicast forger once it has fabricated both
	// sides of the handshake.
	MarkHandshakeComplete()

	// HandshakeComplete reports the engine's current handshake state.
	HandshakeComplete() bool

	// SetAEADOverhead overrides the per-packet AEAD tag size the
	// engine assumes when budgeting packet payloads. The multicast
	// forger sets this to zero so packet-size arithmetic matches the
	// on-wire fiction of an unencrypted bearer (spec.md §4.9).
	SetAEADOverhead(n int)

	// ReadPacket hands a raw (possibly fabricated) packet to the
	// engine for decryption, ACK processing, and flow-control
	// bookkeeping.
	ReadPacket(pkt []byte) error

	// WritePacket asks the engine to produce its next queued packet,
	// if any. ok is false once the engine has nothing left to send
	// this round (used to drain a handshake flight, spec.md §4.9).
	WritePacket() (pkt []byte, ok bool, err error)

	// WriteStreamData asks the engine to pack up to maxLen bytes of
	// data for streamID into a stream frame and return how much it
	// accepted plus the resulting packet's length. fin marks the
	// final byte of the stream.
	WriteStreamData(streamID uint64, data []byte, fin bool, maxLen int) (WriteOutcome, error)

	// BytesInFlight reports the engine's current count of
	// unacknowledged bytes, gating the send scheduler (spec.md §4.8).
	BytesInFlight() uint64

	// LossDetectionDeadline and AckDelayDeadline report the engine's
	// next wake-up time for each timer, in Unix nanoseconds. ok=false
	// means "cancel this timer" (spec.md §4.10).
	LossDetectionDeadline() (deadline uint64, ok bool)
	AckDelayDeadline() (deadline uint64, ok bool)

	// OnLossDetectionTimeout is invoked when the loss-detection timer
	// fires.
	OnLossDetectionTimeout() error

	// OnAckDelayTimeout is invoked when the ACK-delay timer fires; it
	// returns a fresh packet to send, if the engine has one.
	OnAckDelayTimeout() ([]byte, error)

	// LastRemotePacketNumber returns the last fully-expanded packet
	// number observed from the peer, used by the forger to expand
	// truncated packet numbers in outbound fake ACKs (spec.md §4.9).
	LastRemotePacketNumber() uint64

	// ReadyStreamData drains one pending chunk of stream data the
	// engine decrypted and flow-controlled during a prior ReadPacket
	// call, in delivery order. ok is false once nothing is pending;
	// the session calls this in a loop after every ReadPacket to move
	// bytes into its own per-stream reassembly store (spec.md §2's
	// "transport engine (decrypt/ack/flow-control) → stream
	// callbacks" data flow step).
	ReadyStreamData() (streamID uint64, data []byte, offset uint64, eos bool, ok bool)

	// ShutdownStream asks the engine to reset streamID with the given
	// application error code, the transport-level effect of
	// end_request cancelling an in-flight request (spec.md §5). A real
	// engine surfaces the eventual peer acknowledgment as a
	// ReadyStreamClose event; the fake engine reports it immediately.
	ShutdownStream(streamID uint64, code ApplicationErrorCode) error

	// ReadyStreamClose drains one pending stream-close event the
	// engine has observed (locally requested via ShutdownStream, or
	// signalled by the peer), in the order they were observed. ok is
	// false once nothing is pending; the session calls this in a loop
	// after every ReadPacket the same way it drains ReadyStreamData
	// (spec.md §5's stream_close callback).
	ReadyStreamClose() (streamID uint64, code ApplicationErrorCode, ok bool)
}

// ApplicationErrorCode is an HTTP/3 application-level error code
// carried on a QUIC stream/connection close. Declared here rather
// than in the root package since ShutdownStream/ReadyStreamClose need
// it as part of the Engine boundary's own vocabulary; the root
// package re-exports it and its constants (errors.go) alongside the
// translation into a user-visible Status (spec.md §7).
type ApplicationErrorCode uint64

// HTTP/3 application error codes recognised at stream close, per
// spec.md §7's mapping table.
const (
	ErrCodePushRefused        ApplicationErrorCode = 0x0
	ErrCodePushAlreadyInCache ApplicationErrorCode = 0x1
	ErrCodeRequestCancelled   ApplicationErrorCode = 0x2
	ErrCodeHPACKDecompression ApplicationErrorCode = 0x3
	ErrCodeWrongStream        ApplicationErrorCode = 0x4
	ErrCodePushLimitExceeded  ApplicationErrorCode = 0x5
	ErrCodeDuplicatePush      ApplicationErrorCode = 0x6
	ErrCodeMalformedFrameBase ApplicationErrorCode = 0x100
)
