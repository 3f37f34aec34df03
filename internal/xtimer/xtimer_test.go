// SPDX-FileCopyrightText: 2026 mchttp3 contributors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package xtimer

import (
	"testing"

	"github.com/mchttp3/mchttp3/transport/fake"
)

type fakeHost struct {
	sets    []Kind
	resets  int
	cancels int
	handle  int
}

func (h *fakeHost) SetTimer(kind Kind, seconds float64) interface{} {
	h.sets = append(h.sets, kind)
	h.handle++
	return h.handle
}
func (h *fakeHost) ResetTimer(handle interface{}, seconds float64) { h.resets++ }
func (h *fakeHost) CancelTimer(handle interface{})                 { h.cancels++ }

func TestReconcileSkipsBeforeHandshake(t *testing.T) {
	engine := fake.New()
	engine.SetLossDetectionDeadline(1000, true)
	host := &fakeHost{}
	d := New(host)

	d.Reconcile(engine, 0)
	if len(host.sets) != 0 {
		t.Fatalf("timer set before handshake complete: %v", host.sets)
	}
}

func TestReconcileArmsAndCancelsAfterHandshake(t *testing.T) {
	engine := fake.New()
	engine.MarkHandshakeComplete()
	engine.SetLossDetectionDeadline(1000, true)
	host := &fakeHost{}
	d := New(host)

	d.Reconcile(engine, 500)
	if len(host.sets) != 1 || host.sets[0] != KindLossDetection {
		t.Fatalf("sets = %v, want one KindLossDetection", host.sets)
	}

	// Second reconcile with the same active deadline should reset, not
	// set a new timer.
	d.Reconcile(engine, 600)
	if host.resets != 1 {
		t.Fatalf("resets = %d, want 1", host.resets)
	}

	// Engine cancels the deadline; the driver must cancel the host timer.
	engine.SetLossDetectionDeadline(0, false)
	d.Reconcile(engine, 700)
	if host.cancels != 1 {
		t.Fatalf("cancels = %d, want 1", host.cancels)
	}
}

func TestFireLossDetectionInvokesEngine(t *testing.T) {
	engine := fake.New()
	d := New(&fakeHost{})
	if err := d.FireLossDetection(engine); err != nil {
		t.Fatalf("FireLossDetection: %v", err)
	}
}
