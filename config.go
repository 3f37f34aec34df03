// SPDX-FileCopyrightText: 2026 mchttp3 contributors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package mchttp3

import "github.com/mchttp3/mchttp3/varint"

// Mode selects the bearer profile a session runs (spec.md §6).
type Mode int

const (
	ModeUnicast Mode = iota
	ModeMulticast
)

func (m Mode) String() string {
	if m == ModeMulticast {
		return "multicast"
	}
	return "unicast"
}

// Role selects which end of the session this instance plays.
type Role int

const (
	RoleClient Role = iota
	RoleServer
)

func (r Role) String() string {
	if r == RoleServer {
		return "server"
	}
	return "client"
}

// Constants from spec.md §6.
const (
	// MaxBytesInFlight mirrors internal/scheduler.MaxBytesInFlight; kept
	// as its own named constant here since it is also part of the
	// public external-interface contract, not just a scheduler detail.
	MaxBytesInFlight = 14600

	// MinStreamPacketOverhead mirrors internal/scheduler.MinStreamPacketOverhead.
	MinStreamPacketOverhead = 27

	// BufferReadSize is the chunk size a host's recv callback is
	// expected to read into per invocation.
	BufferReadSize = 4096

	// TransportParamsInitialSize and TransportParamsMaxSize are the
	// initial size and cap of a transport-parameter encoding buffer;
	// nothing in this module encodes transport parameters or reads them.
	TransportParamsInitialSize = 128
	TransportParamsMaxSize     = 512
)

// Multicast-mode stream-id limits (spec.md §6). The original library's
// NGHQ_MULTICAST_MAX_UNI_STREAM_ID is not itself a small literal; it
// stands for "as many unidirectional push streams as a 62-bit QUIC
// stream id can name", so it is represented here as the largest legal
// QUIC varint rather than a guessed small constant.
const MulticastMaxUniStreamID = varint.MaxValue

// Limits bounds the concurrency a session will accept, mirroring the
// role- and mode-dependent defaults spec.md §6 lists.
type Limits struct {
	HighestBidiStreamID     uint64
	HighestUniStreamID      uint64
	MaxPushPromise          uint64
	InitialMaxStreamsUni    uint64
	InitialMaxStreamsBidi   uint64
	ActiveConnectionIDLimit uint64
}

// DefaultLimits returns the fixed limits spec.md §6 assigns to a given
// mode; multicast and unicast disagree on every field it lists except
// HighestUniStreamID.
func DefaultLimits(mode Mode) Limits {
	if mode == ModeMulticast {
		return Limits{
			HighestBidiStreamID:     4, // NGHQ_INIT_REQUEST_STREAM_ID
			HighestUniStreamID:      MulticastMaxUniStreamID,
			MaxPushPromise:          MulticastMaxUniStreamID,
			InitialMaxStreamsUni:    0x3fffffff,
			InitialMaxStreamsBidi:   4,
			ActiveConnectionIDLimit: 0,
		}
	}
	return Limits{
		HighestBidiStreamID:     MulticastMaxUniStreamID,
		HighestUniStreamID:      MulticastMaxUniStreamID,
		MaxPushPromise:          0,
		InitialMaxStreamsUni:    MulticastMaxUniStreamID,
		InitialMaxStreamsBidi:   MulticastMaxUniStreamID,
		ActiveConnectionIDLimit: 2,
	}
}

// Config groups the settings a Session is opened with, mirroring the
// teacher's tomlConfig/coreConf split (cmd/dtnd/configuration.go):
// mode/role choose the profile, SessionID and Magic supply the
// bearer's identity and pre-shared key material, and MaxPacketSize
// bounds every packet the scheduler asks the transport engine to
// build.
type Config struct {
	Mode Mode
	Role Role

	// SessionID is used verbatim as the QUIC connection id on the wire.
	SessionID []byte

	// Magic is the 32-byte pre-shared secret the multicast forger uses
	// in place of every negotiated key; ignored in unicast mode.
	Magic []byte

	MaxPacketSize int

	Limits Limits
}

// DefaultConfig returns a Config with role- and mode-appropriate
// limits and a 1200-byte packet size, the smallest guaranteed-safe
// QUIC datagram size; callers still must supply SessionID and, in
// multicast mode, Magic.
func DefaultConfig(mode Mode, role Role) Config {
	return Config{
		Mode:          mode,
		Role:          role,
		MaxPacketSize: 1200,
		Limits:        DefaultLimits(mode),
	}
}
