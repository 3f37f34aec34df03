// SPDX-FileCopyrightText: 2026 mchttp3 contributors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package fake provides a minimal in-memory transport.Engine used by
// the session engine's own tests, in the spirit of the teacher's
// dummy Stage used to unit-test its stage handler without a real
// network connection.
package fake

import (
	"sync"

	"github.com/mchttp3/mchttp3/transport"
)

// Engine is a trivial transport.Engine: it performs no real
// encryption, loss detection, or congestion control. Stream writes
// always succeed up to the requested length; BytesInFlight is whatever
// the test sets via SetBytesInFlight.
type Engine struct {
	mu sync.Mutex

	handshakeComplete bool
	aeadOverhead      int
	bytesInFlight     uint64
	lastRemotePktNum  uint64

	lossDeadline   uint64
	lossDeadlineOK bool
	ackDeadline    uint64
	ackDeadlineOK  bool

	writtenPackets [][]byte
	installedKeys  map[transport.Level][]byte
	cryptoData     map[transport.Level][][]byte

	pendingStreamData  []streamChunk
	pendingStreamClose []streamClose

	// WriteLimit, if non-zero, caps how many bytes WriteStreamData
	// accepts per call, letting tests exercise partial writes.
	WriteLimit int
	// FailStream, if set, is returned by WriteStreamData every call.
	FailStream error
	// FailRead, if set, is returned by ReadPacket every call, letting
	// tests simulate a session-fatal transport error (a protocol
	// violation or crypto failure) at the receive boundary.
	FailRead error
}

// streamChunk is one queued ReadyStreamData delivery.
type streamChunk struct {
	streamID uint64
	data     []byte
	offset   uint64
	eos      bool
}

// streamClose is one queued ReadyStreamClose delivery.
type streamClose struct {
	streamID uint64
	code     transport.ApplicationErrorCode
}

// New returns a ready-to-use fake Engine.
func New() *Engine {
	return &Engine{
		installedKeys: make(map[transport.Level][]byte),
		cryptoData:    make(map[transport.Level][][]byte),
	}
}

func (e *Engine) InstallKey(level transport.Level, key []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.installedKeys[level] = append([]byte(nil), key...)
	return nil
}

func (e *Engine) SubmitCryptoData(level transport.Level, data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cryptoData[level] = append(e.cryptoData[level], append([]byte(nil), data...))
	return nil
}

func (e *Engine) MarkHandshakeComplete() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handshakeComplete = true
}

func (e *Engine) HandshakeComplete() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.handshakeComplete
}

func (e *Engine) SetAEADOverhead(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.aeadOverhead = n
}

func (e *Engine) AEADOverhead() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.aeadOverhead
}

func (e *Engine) ReadPacket(pkt []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.FailRead
}

// QueueWritePacket lets a test seed a packet to be returned by the
// next WritePacket call, simulating a handshake-flight packet the
// engine has prepared.
func (e *Engine) QueueWritePacket(pkt []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.writtenPackets = append(e.writtenPackets, pkt)
}

func (e *Engine) WritePacket() ([]byte, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.writtenPackets) == 0 {
		return nil, false, nil
	}
	pkt := e.writtenPackets[0]
	e.writtenPackets = e.writtenPackets[1:]
	return pkt, true, nil
}

func (e *Engine) WriteStreamData(streamID uint64, data []byte, fin bool, maxLen int) (transport.WriteOutcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.FailStream != nil {
		return transport.WriteOutcome{}, e.FailStream
	}
	n := len(data)
	if n > maxLen {
		n = maxLen
	}
	if e.WriteLimit > 0 && n > e.WriteLimit {
		n = e.WriteLimit
	}
	return transport.WriteOutcome{Sent: n, PacketLen: n + 27}, nil
}

func (e *Engine) SetBytesInFlight(n uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bytesInFlight = n
}

func (e *Engine) BytesInFlight() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bytesInFlight
}

func (e *Engine) SetLossDetectionDeadline(deadline uint64, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lossDeadline, e.lossDeadlineOK = deadline, ok
}

func (e *Engine) LossDetectionDeadline() (uint64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lossDeadline, e.lossDeadlineOK
}

func (e *Engine) SetAckDelayDeadline(deadline uint64, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ackDeadline, e.ackDeadlineOK = deadline, ok
}

func (e *Engine) AckDelayDeadline() (uint64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ackDeadline, e.ackDeadlineOK
}

func (e *Engine) OnLossDetectionTimeout() error {
	return nil
}

func (e *Engine) OnAckDelayTimeout() ([]byte, error) {
	return nil, nil
}

func (e *Engine) SetLastRemotePacketNumber(n uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastRemotePktNum = n
}

func (e *Engine) LastRemotePacketNumber() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastRemotePktNum
}

// QueueStreamData lets a test seed a chunk of stream data to be
// returned by a subsequent ReadyStreamData call, simulating the
// engine having decrypted and flow-controlled it off a ReadPacket
// call.
func (e *Engine) QueueStreamData(streamID uint64, data []byte, offset uint64, eos bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pendingStreamData = append(e.pendingStreamData, streamChunk{streamID, data, offset, eos})
}

func (e *Engine) ReadyStreamData() (streamID uint64, data []byte, offset uint64, eos bool, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.pendingStreamData) == 0 {
		return 0, nil, 0, false, false
	}
	c := e.pendingStreamData[0]
	e.pendingStreamData = e.pendingStreamData[1:]
	return c.streamID, c.data, c.offset, c.eos, true
}

// ShutdownStream records a stream reset request and, since this fake
// has no peer to round-trip with, immediately queues the corresponding
// ReadyStreamClose event.
func (e *Engine) ShutdownStream(streamID uint64, code transport.ApplicationErrorCode) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pendingStreamClose = append(e.pendingStreamClose, streamClose{streamID, code})
	return nil
}

// QueueStreamClose lets a test seed a stream-close event as if the
// peer had reset the stream, without going through ShutdownStream.
func (e *Engine) QueueStreamClose(streamID uint64, code transport.ApplicationErrorCode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pendingStreamClose = append(e.pendingStreamClose, streamClose{streamID, code})
}

func (e *Engine) ReadyStreamClose() (streamID uint64, code transport.ApplicationErrorCode, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.pendingStreamClose) == 0 {
		return 0, 0, false
	}
	c := e.pendingStreamClose[0]
	e.pendingStreamClose = e.pendingStreamClose[1:]
	return c.streamID, c.code, true
}

var _ transport.Engine = (*Engine)(nil)
