// SPDX-FileCopyrightText: 2026 mchttp3 contributors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package mchttp3 implements a session engine for HTTP/3-style
// request/response semantics carried over QUIC, with two profiles: a
// conventional bidirectional unicast profile that delegates congestion
// control, loss detection, and key negotiation to an external
// transport.Engine, and a one-way multicast profile that forges its
// own QUIC handshake out of pre-shared magic so a transport engine
// built for two-sided use can be driven from a bearer that carries no
// reverse-path feedback at all.
//
// A Session is single-threaded and cooperative: nothing inside it
// spawns a goroutine or blocks on I/O. All progress happens inline
// inside Recv, Send, or a fired timer callback; callers serialise
// their own calls into a given Session.
package mchttp3
