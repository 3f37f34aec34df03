// SPDX-FileCopyrightText: 2026 mchttp3 contributors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package forge

import (
	"testing"

	"github.com/mchttp3/mchttp3/transport/fake"
)

func TestFakeAckShape(t *testing.T) {
	// S5: session-id length 8, remote_pktnum=2.
	connID := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	engine := fake.New()
	engine.SetLastRemotePacketNumber(1)

	f := &Forger{Engine: engine, Magic: make([]byte, 32), ConnID: connID}

	original := make([]byte, 0, 1+len(connID)+1)
	original = append(original, 0x40)
	original = append(original, connID...)
	original = append(original, 0x02)

	ack, err := f.ReflectOutboundPacket(original)
	if err != nil {
		t.Fatalf("ReflectOutboundPacket: %v", err)
	}

	if ack[0] != 0x40 {
		t.Fatalf("first byte = 0x%02x, want 0x40", ack[0])
	}
	gotCID := ack[1 : 1+len(connID)]
	for i, b := range gotCID {
		if b != connID[i] {
			t.Fatalf("connection id = %v, want %v", gotCID, connID)
		}
	}
	pktnumByte := ack[1+len(connID)]
	if pktnumByte != 0x02 {
		t.Fatalf("packet number byte = 0x%02x, want 0x02", pktnumByte)
	}

	body := ack[1+len(connID)+1:]
	if len(body) < MinAckBodyLen {
		t.Fatalf("ACK body length = %d, want >= %d", len(body), MinAckBodyLen)
	}
	if body[0] != frameTypeACK {
		t.Fatalf("ACK frame type = 0x%02x, want 0x02", body[0])
	}
}

func TestExpandPacketNumberStaysNearLargest(t *testing.T) {
	// Ordinary in-window case: no wraparound needed.
	got := ExpandPacketNumber(0x05, 4)
	if got != 5 {
		t.Fatalf("ExpandPacketNumber(5, largest=4) = %d, want 5", got)
	}
}

func TestExpandPacketNumberWrapsForward(t *testing.T) {
	// Truncated byte appears to go backwards relative to the expected
	// next value, so the decoder must add a full window.
	largest := uint64(250)
	got := ExpandPacketNumber(0x03, largest) // naive candidate 3 < expected 251
	if got <= largest {
		t.Fatalf("ExpandPacketNumber(3, largest=250) = %d, want > %d", got, largest)
	}
}

func TestClientStartCompletesHandshake(t *testing.T) {
	engine := fake.New()
	engine.QueueWritePacket([]byte("client-initial"))

	f := &Forger{Engine: engine, Magic: make([]byte, 32), ConnID: []byte{1, 2, 3, 4}}
	pkt, err := f.ClientStart()
	if err != nil {
		t.Fatalf("ClientStart: %v", err)
	}
	if string(pkt) != "client-initial" {
		t.Fatalf("client-initial packet = %q", pkt)
	}
	if !engine.HandshakeComplete() {
		t.Fatal("handshake not marked complete")
	}
}

func TestServerStartCompletesHandshake(t *testing.T) {
	engine := fake.New()
	engine.QueueWritePacket([]byte("server-flight-1"))
	engine.QueueWritePacket([]byte("server-flight-2"))

	f := &Forger{Engine: engine, Magic: make([]byte, 32), ConnID: []byte{1, 2, 3, 4}}
	if err := f.ServerStart(); err != nil {
		t.Fatalf("ServerStart: %v", err)
	}
	if !engine.HandshakeComplete() {
		t.Fatal("handshake not marked complete")
	}
	if engine.AEADOverhead() != 0 {
		t.Fatalf("AEAD overhead = %d, want 0", engine.AEADOverhead())
	}
}

func TestReflectOutboundPacketTooShort(t *testing.T) {
	engine := fake.New()
	f := &Forger{Engine: engine, Magic: make([]byte, 32), ConnID: []byte{1, 2, 3, 4}}
	if _, err := f.ReflectOutboundPacket([]byte{0x40, 1, 2}); err != ErrShortPacket {
		t.Fatalf("err = %v, want ErrShortPacket", err)
	}
}
