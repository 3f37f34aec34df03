// SPDX-FileCopyrightText: 2026 mchttp3 contributors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"net"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mchttp3/mchttp3"
	"github.com/mchttp3/mchttp3/internal/xtimer"
)

// udpHost implements mchttp3.Callbacks and mchttp3.TimerCallbacks over
// a single UDP socket, in the style of the teacher's mtcp/stcp CLAs
// which each wrap one net.Conn behind the convergence-layer interface
// their manager drives.
type udpHost struct {
	mchttp3.NoopCallbacks

	conn   net.PacketConn
	remote net.Addr

	events chan<- Event

	timers     map[interface{}]*time.Timer
	firedKinds chan xtimer.Kind
}

func newUDPHost(conn net.PacketConn, remote net.Addr, events chan<- Event) *udpHost {
	return &udpHost{
		conn:       conn,
		remote:     remote,
		events:     events,
		timers:     make(map[interface{}]*time.Timer),
		firedKinds: make(chan xtimer.Kind, 4),
	}
}

func (h *udpHost) Recv(buf []byte) (int, error) {
	h.conn.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	n, addr, err := h.conn.ReadFrom(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return 0, nil
		}
		return 0, err
	}
	if h.remote == nil {
		h.remote = addr
	}
	return n, nil
}

func (h *udpHost) Send(buf []byte) (int, error) {
	if h.remote == nil {
		return 0, nil
	}
	return h.conn.WriteTo(buf, h.remote)
}

func (h *udpHost) OnBeginHeaders(streamUser interface{}) {
	h.publish(Event{Kind: "begin_headers", Stream: streamUser})
}

func (h *udpHost) OnHeaders(flags mchttp3.HeaderFlags, hdr mchttp3.HeaderField, streamUser interface{}) {
	h.publish(Event{
		Kind:       "headers",
		Stream:     streamUser,
		Name:       hdr.Name,
		Value:      hdr.Value,
		EndRequest: flags.EndRequest,
	})
}

func (h *udpHost) OnDataRecv(flags mchttp3.DataFlags, data []byte, offset uint64, streamUser interface{}) {
	h.publish(Event{
		Kind:    "data",
		Stream:  streamUser,
		Offset:  offset,
		Len:     len(data),
		EndData: flags.EndData,
	})
}

func (h *udpHost) OnBeginPromise(parentStreamUser interface{}) interface{} {
	handle := new(int)
	h.publish(Event{Kind: "begin_promise", Stream: parentStreamUser})
	return handle
}

func (h *udpHost) OnRequestClose(status mchttp3.Status, streamUser interface{}) {
	h.publish(Event{Kind: "request_close", Stream: streamUser, Status: status.String()})
}

func (h *udpHost) publish(ev Event) {
	select {
	case h.events <- ev:
	default:
		log.Debug("event feed backlogged, dropping event")
	}
}

// SetTimer implements mchttp3.TimerCallbacks (xtimer.Host) using
// stdlib time.Timer/time.AfterFunc: no example repo carries a
// standalone deadline-scheduling library, and a single-shot rearmable
// timer per slot needs nothing more than what time already provides.
func (h *udpHost) SetTimer(kind xtimer.Kind, seconds float64) interface{} {
	handle := new(int)
	h.timers[handle] = time.AfterFunc(durationFromSeconds(seconds), func() {
		h.fireTimer(kind)
	})
	return handle
}

func (h *udpHost) ResetTimer(handle interface{}, seconds float64) {
	if t, ok := h.timers[handle]; ok {
		t.Reset(durationFromSeconds(seconds))
	}
}

func (h *udpHost) CancelTimer(handle interface{}) {
	if t, ok := h.timers[handle]; ok {
		t.Stop()
		delete(h.timers, handle)
	}
}

func (h *udpHost) fireTimer(kind xtimer.Kind) {
	h.publish(Event{Kind: "timer_fired", TimerKind: timerKindLabel(kind)})
	select {
	case h.firedKinds <- kind:
	default:
	}
}

func timerKindLabel(kind xtimer.Kind) string {
	if kind == xtimer.KindLossDetection {
		return "loss_detection"
	}
	return "ack_delay"
}

func durationFromSeconds(seconds float64) time.Duration {
	if seconds < 0 {
		seconds = 0
	}
	return time.Duration(seconds * float64(time.Second))
}
