// SPDX-FileCopyrightText: 2026 mchttp3 contributors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Command mchttp3d runs a single mchttp3 session over a UDP socket,
// exposing its callback events on a small debug HTTP/WebSocket API,
// in the shape of the teacher's cmd/dtnd daemon.
package main

import (
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/pkg/profile"

	"github.com/mchttp3/mchttp3"
	"github.com/mchttp3/mchttp3/internal/xtimer"
	"github.com/mchttp3/mchttp3/transport/fake"
)

func waitSigint() {
	signalSyn := make(chan os.Signal, 1)
	signal.Notify(signalSyn, os.Interrupt)
	<-signalSyn
}

func dialSocket(sess sessionConf) (net.PacketConn, net.Addr, error) {
	conn, err := net.ListenPacket("udp", sess.Listen)
	if err != nil {
		return nil, nil, err
	}
	if sess.Remote == "" {
		return conn, nil, nil
	}
	remote, err := net.ResolveUDPAddr("udp", sess.Remote)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return conn, remote, nil
}

func main() {
	if len(os.Args) != 2 {
		log.Fatalf("Usage: %s configuration.toml", os.Args[0])
	}

	cfg, sessCfg, apiCfg, err := parseConfig(os.Args[1])
	if err != nil {
		log.WithError(err).Fatal("Failed to parse config")
	}

	if sessCfg.Profiling {
		defer profile.Start(profile.ProfilePath(".")).Stop()
	}

	watcher, err := watchConfig(os.Args[1])
	if err != nil {
		log.WithError(err).Warn("Failed to watch config for changes")
	} else {
		defer watcher.Close()
	}

	conn, remote, err := dialSocket(sessCfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to open UDP socket")
	}
	defer conn.Close()

	events := make(chan Event, 64)
	host := newUDPHost(conn, remote, events)

	engine := fake.New()
	sess, err := mchttp3.Open(cfg, engine, host, host, nil)
	if err != nil {
		log.WithError(err).Fatal("Failed to open session")
	}

	api := newDebugAPI(cfg)
	go api.run(events)

	if apiCfg.Listen != "" {
		srv := &http.Server{Addr: apiCfg.Listen, Handler: api.router()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Warn("Debug API server stopped")
			}
		}()
		defer srv.Close()
	}

	done := make(chan struct{})
	go runSessionLoop(sess, host, done)

	waitSigint()
	log.Info("Shutting down..")
	close(done)

	if err := sess.Close(); err != nil {
		log.WithError(err).Warn("Error while closing session")
	}
	close(events)
}

// runSessionLoop drives Recv/Send on a fixed tick and forwards fired
// host timers into the session, the polling equivalent of the
// event-driven callback loop a real socket-readiness notification
// would give a production host.
func runSessionLoop(sess *mchttp3.Session, host *udpHost, done <-chan struct{}) {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			now := uint64(time.Now().UnixNano())
			if err := sess.Recv(now); err != nil {
				log.WithError(err).Debug("session recv")
			}
			if err := sess.Send(now); err != nil {
				log.WithError(err).Debug("session send")
			}
		case kind := <-host.firedKinds:
			if kind == xtimer.KindLossDetection {
				if err := sess.FireLossDetectionTimer(); err != nil {
					log.WithError(err).Warn("loss detection timer")
				}
			} else {
				if err := sess.FireAckDelayTimer(); err != nil {
					log.WithError(err).Warn("ack delay timer")
				}
			}
		}
	}
}
