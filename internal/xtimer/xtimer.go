// SPDX-FileCopyrightText: 2026 mchttp3 contributors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package xtimer reconciles a transport engine's loss-detection and
// ACK-delay deadlines with a host's timer callback surface (spec.md
// §4.10). It never fires a timer itself; it only decides whether the
// host's existing timer should be left alone, rescheduled, or
// cancelled, and it runs the engine-side callback once the host
// reports one has fired.
package xtimer

import (
	"math"

	"github.com/mchttp3/mchttp3/transport"
)

// Kind identifies which of the two tracked deadlines a call concerns.
type Kind int

const (
	KindLossDetection Kind = iota
	KindAckDelay
)

// Host is the timer half of the synchronous host callback surface.
// Handle values are opaque to this package; the host defines them.
type Host interface {
	SetTimer(kind Kind, seconds float64) interface{}
	ResetTimer(handle interface{}, seconds float64)
	CancelTimer(handle interface{})
}

type slot struct {
	handle interface{}
	active bool
}

// Driver tracks the two timer slots a Session carries: loss detection
// and ACK delay (spec.md §3).
type Driver struct {
	Host Host

	loss     slot
	ackDelay slot
}

// New returns a Driver bound to host.
func New(host Host) *Driver {
	return &Driver{Host: host}
}

// Reconcile queries engine for both deadlines and reschedules,
// cancels, or leaves each host timer alone accordingly. It must be
// called after every conn_read_pkt or conn_write_stream equivalent
// (spec.md §4.10). Scheduling is a no-op — and any live timer is
// cancelled — until the handshake completes.
func (d *Driver) Reconcile(engine transport.Engine, nowNanos uint64) {
	if !engine.HandshakeComplete() {
		d.cancelIfActive(&d.loss)
		d.cancelIfActive(&d.ackDelay)
		return
	}

	d.reconcileOne(&d.loss, KindLossDetection, engine.LossDetectionDeadline, nowNanos)
	d.reconcileOne(&d.ackDelay, KindAckDelay, engine.AckDelayDeadline, nowNanos)
}

func (d *Driver) reconcileOne(s *slot, kind Kind, deadlineFn func() (uint64, bool), nowNanos uint64) {
	deadline, ok := deadlineFn()
	if !ok || deadline == math.MaxUint64 {
		d.cancelIfActive(s)
		return
	}

	var seconds float64
	if deadline <= nowNanos {
		seconds = 0
	} else {
		seconds = float64(deadline-nowNanos) / 1e9
	}

	if s.active {
		d.Host.ResetTimer(s.handle, seconds)
		return
	}
	s.handle = d.Host.SetTimer(kind, seconds)
	s.active = true
}

func (d *Driver) cancelIfActive(s *slot) {
	if !s.active {
		return
	}
	d.Host.CancelTimer(s.handle)
	s.handle = nil
	s.active = false
}

// FireLossDetection is called once the host's loss-detection timer
// fires. It invokes the engine's loss-detection routine and marks the
// slot idle so the next Reconcile call re-arms it if the engine still
// wants one.
func (d *Driver) FireLossDetection(engine transport.Engine) error {
	d.loss.active = false
	return engine.OnLossDetectionTimeout()
}

// FireAckDelay is called once the host's ACK-delay timer fires. It
// asks the engine for a fresh packet, which the caller is responsible
// for buffering and sending (spec.md §4.10).
func (d *Driver) FireAckDelay(engine transport.Engine) ([]byte, error) {
	d.ackDelay.active = false
	return engine.OnAckDelayTimeout()
}
