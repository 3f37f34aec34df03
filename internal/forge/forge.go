// SPDX-FileCopyrightText: 2026 mchttp3 contributors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package forge implements the multicast profile's handshake forger
// and fake-ACK synthesis (spec.md §4.9): the machinery that drives a
// transport engine built for a two-sided QUIC handshake from only one
// side of a one-way bearer.
//
// Every packet this package hands the engine on the wire follows one
// fixed short-header shape: a leading 0x40 byte, the session id used
// verbatim as connection id, and a single truncated packet-number
// byte. Real QUIC allows a variable packet-number length; this module
// never needs more than one byte since it never negotiates a real
// handshake, so the forger and the fake-ACK reflector both hardcode
// it (spec.md §6 "the short-header fake-ACK layout is fixed").
package forge

import (
	"errors"

	"github.com/mchttp3/mchttp3/internal/stream"
	"github.com/mchttp3/mchttp3/transport"
	"github.com/mchttp3/mchttp3/varint"
)

// ErrShortPacket is returned by ReflectOutboundPacket when pkt is too
// short to contain the fixed header shape this package assumes.
var ErrShortPacket = errors.New("forge: packet shorter than fixed header")

// MinAckBodyLen is the minimum size, in bytes, of a fake ACK's frame
// area (including any trailing PADDING), required for header
// protection sampling on a real QUIC stack (spec.md §4.9).
const MinAckBodyLen = 16

// frameTypeACK and frameTypePadding are the QUIC frame type ids the
// fake ACK's body is built from.
const (
	frameTypeACK     = 0x02
	frameTypePadding = 0x00
)

// Forger drives a transport.Engine through a fabricated multicast
// handshake and reflects a session's own outbound packets back onto
// its receive queue as synthetic ACKs.
type Forger struct {
	Engine transport.Engine
	Magic  []byte // pre-shared 32-byte magic, stands in for every real key
	ConnID []byte // session id, used verbatim as QUIC connection id
}

// ClientStart drives the client side of a fabricated multicast
// handshake (spec.md §4.9). It returns the client-initial packet the
// engine produced, which the caller may discard or hand to a socket
// callback purely for symmetry — nothing on the wire actually depends
// on it reaching a peer.
func (f *Forger) ClientStart() ([]byte, error) {
	if err := f.Engine.InstallKey(transport.LevelInitial, f.Magic); err != nil {
		return nil, err
	}
	if err := f.Engine.InstallKey(transport.LevelHandshake, f.Magic); err != nil {
		return nil, err
	}
	if err := f.Engine.SubmitCryptoData(transport.LevelInitial, f.Magic); err != nil {
		return nil, err
	}

	clientInitial, _, err := f.Engine.WritePacket()
	if err != nil {
		return nil, err
	}

	if err := f.Engine.ReadPacket(fabricatedPacket(f.Magic, "server-initial")); err != nil {
		return nil, err
	}
	if err := f.Engine.ReadPacket(fabricatedPacket(f.Magic, "server-handshake")); err != nil {
		return nil, err
	}
	if err := f.Engine.SubmitCryptoData(transport.LevelHandshake, f.Magic); err != nil {
		return nil, err
	}

	f.Engine.MarkHandshakeComplete()
	if err := f.Engine.InstallKey(transport.LevelApplication, f.Magic); err != nil {
		return nil, err
	}

	// Commit the handshake through a zero-length body frame on
	// stream-0, mirroring session_send's own accounting.
	if _, err := f.Engine.WriteStreamData(stream.ZeroID, nil, true, MinAckBodyLen); err != nil {
		return nil, err
	}

	return clientInitial, nil
}

// ServerStart drives the server side of a fabricated multicast
// handshake (spec.md §4.9): it accepts a fabricated client-initial,
// drains the resulting handshake flight, and primes the engine for
// its first real ACK slot.
func (f *Forger) ServerStart() error {
	if err := f.Engine.ReadPacket(fabricatedPacket(f.Magic, "client-initial")); err != nil {
		return err
	}
	if err := f.Engine.InstallKey(transport.LevelHandshake, f.Magic); err != nil {
		return err
	}
	if err := f.Engine.InstallKey(transport.LevelApplication, f.Magic); err != nil {
		return err
	}
	if err := f.Engine.SubmitCryptoData(transport.LevelInitial, f.Magic); err != nil {
		return err
	}
	if err := f.Engine.SubmitCryptoData(transport.LevelHandshake, f.Magic); err != nil {
		return err
	}

	for {
		_, ok, err := f.Engine.WritePacket()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
	}

	f.Engine.MarkHandshakeComplete()
	f.Engine.SetAEADOverhead(0)

	return f.Engine.ReadPacket(fabricatedPacket(f.Magic, "stream-0"))
}

// fabricatedPacket builds a placeholder packet standing in for one
// side of the handshake this module never really negotiates. Real
// packet encoding is the transport engine's job (spec.md §1); a
// production engine plugged in here would need to recognise these by
// their encryption level and phase, not by their bytes.
func fabricatedPacket(magic []byte, label string) []byte {
	out := append([]byte(label+":"), magic...)
	return out
}

// ExpandPacketNumber reconstructs a full packet number from its
// single truncated byte given the largest packet number already
// observed, following the QUIC packet-number decoding algorithm
// (RFC 9000 Appendix A) specialised to an 8-bit truncated width, the
// only width this module ever produces.
func ExpandPacketNumber(truncated uint8, largest uint64) uint64 {
	const pnWin = int64(1) << 8
	const pnHwin = pnWin / 2

	expected := int64(largest) + 1
	candidate := (expected &^ (pnWin - 1)) | int64(truncated)

	switch {
	case candidate <= expected-pnHwin && candidate < (1<<62)-pnWin:
		candidate += pnWin
	case candidate > expected+pnHwin && candidate >= pnWin:
		candidate -= pnWin
	}
	if candidate < 0 {
		candidate = int64(truncated)
	}
	return uint64(candidate)
}

// BuildFakeAck constructs the fixed-shape synthetic ACK packet of
// spec.md §4.9: {0x40, connID, remotePktnum, ACK frame with
// largest-ack, ack-delay 0, range-count 0, first-range 0}, padded with
// PADDING frames to at least MinAckBodyLen bytes of frame area.
func BuildFakeAck(connID []byte, remotePktnum uint8, largestAck uint64) []byte {
	body := varint.Append(nil, frameTypeACK)
	body = varint.Append(body, largestAck)
	body = varint.Append(body, 0) // ack delay
	body = varint.Append(body, 0) // ack range count
	body = varint.Append(body, 0) // first ack range
	for len(body) < MinAckBodyLen {
		body = append(body, frameTypePadding)
	}

	pkt := make([]byte, 0, 2+len(connID)+len(body))
	pkt = append(pkt, 0x40)
	pkt = append(pkt, connID...)
	pkt = append(pkt, remotePktnum)
	pkt = append(pkt, body...)
	return pkt
}

// ReflectOutboundPacket builds the synthetic ACK that spec.md §4.9
// requires the session to enqueue on its own receive queue for every
// outbound multicast packet: it decodes pkt's truncated packet number,
// expands it against the engine's last known remote packet number, and
// returns a ready-to-enqueue fake ACK packet.
func (f *Forger) ReflectOutboundPacket(pkt []byte) ([]byte, error) {
	hdrLen := 1 + len(f.ConnID) + 1
	if len(pkt) < hdrLen {
		return nil, ErrShortPacket
	}
	truncated := pkt[1+len(f.ConnID)]
	largest := f.Engine.LastRemotePacketNumber()
	reconstructed := ExpandPacketNumber(truncated, largest)
	return BuildFakeAck(f.ConnID, truncated, reconstructed), nil
}
