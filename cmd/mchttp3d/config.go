// SPDX-FileCopyrightText: 2026 mchttp3 contributors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/mchttp3/mchttp3"
)

// tomlConfig describes the daemon's TOML configuration, in the shape
// of the teacher's own tomlConfig/coreConf split.
type tomlConfig struct {
	Session  sessionConf
	Logging  logConf
	DebugAPI debugAPIConf `toml:"debug-api"`
}

// sessionConf describes the session-level configuration block.
type sessionConf struct {
	Mode      string // "unicast" or "multicast"
	Role      string // "client" or "server"
	SessionID string `toml:"session-id"`
	Magic     string // hex, multicast only
	Listen    string
	Remote    string // unicast only
	Profiling bool
}

// logConf describes the logging configuration block.
type logConf struct {
	Level        string
	ReportCaller bool `toml:"report-caller"`
	Format       string
}

// debugAPIConf describes the optional debug HTTP/WebSocket API block.
type debugAPIConf struct {
	Listen string
}

func applyLogging(conf logConf) {
	if conf.Level != "" {
		if lvl, err := log.ParseLevel(conf.Level); err != nil {
			log.WithFields(log.Fields{
				"level":    conf.Level,
				"error":    err,
				"provided": "panic,fatal,error,warn,info,debug,trace",
			}).Warn("Failed to set log level. Please select one of the provided ones")
		} else {
			log.SetLevel(lvl)
		}
	}

	log.SetReportCaller(conf.ReportCaller)

	switch conf.Format {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "15:04:05.000",
		})
	case "json":
		log.SetFormatter(&log.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	default:
		log.Warn("Unknown logging format")
	}
}

func parseSessionConf(conf sessionConf) (mchttp3.Config, error) {
	var mode mchttp3.Mode
	switch conf.Mode {
	case "unicast":
		mode = mchttp3.ModeUnicast
	case "multicast":
		mode = mchttp3.ModeMulticast
	default:
		return mchttp3.Config{}, fmt.Errorf("session.mode must be \"unicast\" or \"multicast\", got %q", conf.Mode)
	}

	var role mchttp3.Role
	switch conf.Role {
	case "client":
		role = mchttp3.RoleClient
	case "server":
		role = mchttp3.RoleServer
	default:
		return mchttp3.Config{}, fmt.Errorf("session.role must be \"client\" or \"server\", got %q", conf.Role)
	}

	cfg := mchttp3.DefaultConfig(mode, role)

	if conf.SessionID != "" {
		id, err := mchttp3.DecodeSessionID(conf.SessionID)
		if err != nil {
			return mchttp3.Config{}, fmt.Errorf("session.session-id: %w", err)
		}
		cfg.SessionID = id
	}

	if mode == mchttp3.ModeMulticast {
		magic, err := mchttp3.DecodeSessionID(conf.Magic)
		if err != nil {
			return mchttp3.Config{}, fmt.Errorf("session.magic: %w", err)
		}
		cfg.Magic = magic
	}

	return cfg, nil
}

// parseConfig loads and validates filename, following the teacher's
// parseCore convention of returning every top-level piece the caller
// needs rather than a single monolithic struct.
func parseConfig(filename string) (cfg mchttp3.Config, sess sessionConf, api debugAPIConf, err error) {
	var conf tomlConfig
	if _, err = toml.DecodeFile(filename, &conf); err != nil {
		return
	}

	applyLogging(conf.Logging)

	cfg, err = parseSessionConf(conf.Session)
	if err != nil {
		return
	}

	sess = conf.Session
	api = conf.DebugAPI
	return
}

// watchConfig reloads the logging block of filename whenever it
// changes on disk, mirroring the hot-reload behaviour fsnotify grants
// the rest of the pack's file-backed daemons. Session-level fields are
// deliberately not hot-reloaded: rebuilding a live Session mid-flight
// would require tearing down the transport engine and every open
// stream, which is out of scope for a config watcher.
func watchConfig(filename string) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filename); err != nil {
		watcher.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				var conf tomlConfig
				if _, err := toml.DecodeFile(filename, &conf); err != nil {
					log.WithError(err).Warn("Failed to reload config")
					continue
				}
				applyLogging(conf.Logging)
				log.Info("Reloaded logging configuration")
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.WithError(err).Warn("Config watcher error")
			}
		}
	}()

	return watcher, nil
}
