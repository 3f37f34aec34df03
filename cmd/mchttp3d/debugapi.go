// SPDX-FileCopyrightText: 2026 mchttp3 contributors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/mchttp3/mchttp3"
)

// Event is one line of the live session event feed the debug API's
// WebSocket endpoint fans out, grounded on the teacher's
// WebSocketAgent (pkg/agent/ws_agent.go) broadcast pattern: a single
// receiver channel drained by a handler goroutine that mirrors every
// message out to every registered connection.
type Event struct {
	Kind       string      `json:"kind"`
	Stream     interface{} `json:"stream,omitempty"`
	Name       string      `json:"name,omitempty"`
	Value      string      `json:"value,omitempty"`
	Offset     uint64      `json:"offset,omitempty"`
	Len        int         `json:"len,omitempty"`
	EndRequest bool        `json:"end_request,omitempty"`
	EndData    bool        `json:"end_data,omitempty"`
	Status     string      `json:"status,omitempty"`
	TimerKind  string      `json:"timer_kind,omitempty"`
}

// debugAPI serves a small status endpoint plus a WebSocket event feed
// over the session's callback events. It never touches the Session
// itself: it only observes what udpHost publishes, keeping the
// session's single-threaded contract intact.
type debugAPI struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}

	cfg mchttp3.Config
}

func newDebugAPI(cfg mchttp3.Config) *debugAPI {
	return &debugAPI{
		upgrader: websocket.Upgrader{},
		clients:  make(map[*websocket.Conn]struct{}),
		cfg:      cfg,
	}
}

func (d *debugAPI) router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/status", d.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/events", d.handleEvents)
	return r
}

func (d *debugAPI) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"mode":            d.cfg.Mode.String(),
		"role":            d.cfg.Role.String(),
		"session_id":      mchttp3.EncodeSessionID(d.cfg.SessionID),
		"max_packet_size": d.cfg.MaxPacketSize,
	})
}

func (d *debugAPI) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := d.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("Upgrading HTTP request to WebSocket errored")
		return
	}
	d.mu.Lock()
	d.clients[conn] = struct{}{}
	d.mu.Unlock()

	// Discard whatever a client sends; this endpoint is receive-only
	// from the daemon's point of view, but reading keeps the
	// connection's close frame handling alive.
	go func() {
		defer d.removeClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (d *debugAPI) removeClient(conn *websocket.Conn) {
	d.mu.Lock()
	delete(d.clients, conn)
	d.mu.Unlock()
	conn.Close()
}

// broadcast fans ev out to every connected WebSocket client, dropping
// any client whose write fails.
func (d *debugAPI) broadcast(ev Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for conn := range d.clients {
		if err := conn.WriteJSON(ev); err != nil {
			delete(d.clients, conn)
			conn.Close()
		}
	}
}

// run drains events onto the connected WebSocket clients until events
// is closed.
func (d *debugAPI) run(events <-chan Event) {
	for ev := range events {
		d.broadcast(ev)
	}
}
