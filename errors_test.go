// SPDX-FileCopyrightText: 2026 mchttp3 contributors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package mchttp3

import (
	"errors"
	"fmt"
	"testing"

	"github.com/mchttp3/mchttp3/transport"
	"github.com/mchttp3/mchttp3/transport/fake"
)

func TestTranslateTransportError(t *testing.T) {
	wrapped := func(base error) error { return fmt.Errorf("engine: %w", base) }

	cases := []struct {
		name string
		err  error
		want Status
	}{
		{"nil", nil, StatusOK},
		{"protocol violation", transport.ErrProtocolViolation, StatusTransportProtocol},
		{"wrapped protocol violation", wrapped(transport.ErrProtocolViolation), StatusTransportProtocol},
		{"crypto failure", transport.ErrCryptoFailure, StatusCryptoError},
		{"wrapped crypto failure", wrapped(transport.ErrCryptoFailure), StatusCryptoError},
		{"out of buffers", transport.ErrOutOfBuffers, StatusInternalError},
		{"unrecognised error", errors.New("boom"), StatusInternalError},
	}
	for _, c := range cases {
		if got := TranslateTransportError(c.err); got != c.want {
			t.Errorf("%s: TranslateTransportError = %v, want %v", c.name, got, c.want)
		}
	}
}

// recvOnceCallbacks hands back a single fixed packet on its first
// Recv call, then reports would-block, so a test can drive exactly
// one Session.Recv iteration through the transport engine.
type recvOnceCallbacks struct {
	NoopCallbacks
	pkt  []byte
	done bool
}

func (r *recvOnceCallbacks) Recv(buf []byte) (int, error) {
	if r.done {
		return 0, nil
	}
	r.done = true
	return copy(buf, r.pkt), nil
}

func TestSessionRecvSurfacesProtocolViolation(t *testing.T) {
	cb := &recvOnceCallbacks{pkt: []byte("packet")}
	engine := fake.New()
	engine.FailRead = transport.ErrProtocolViolation

	cfg := DefaultConfig(ModeUnicast, RoleServer)
	cfg.SessionID = []byte{0xaa, 0xbb}
	sess, err := Open(cfg, engine, cb, nil, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	recvErr := sess.Recv(0)
	if recvErr == nil {
		t.Fatal("expected an error from Recv")
	}
	se, ok := recvErr.(*StatusError)
	if !ok {
		t.Fatalf("err = %v (%T), want *StatusError", recvErr, recvErr)
	}
	if se.Status != StatusTransportProtocol {
		t.Fatalf("status = %v, want StatusTransportProtocol", se.Status)
	}
}
