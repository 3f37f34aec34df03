// SPDX-FileCopyrightText: 2026 mchttp3 contributors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package mchttp3

import (
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/mchttp3/mchttp3/internal/buffer"
	"github.com/mchttp3/mchttp3/internal/forge"
	"github.com/mchttp3/mchttp3/internal/frame"
	ihpack "github.com/mchttp3/mchttp3/internal/hpack"
	"github.com/mchttp3/mchttp3/internal/reassembly"
	"github.com/mchttp3/mchttp3/internal/scheduler"
	"github.com/mchttp3/mchttp3/internal/stream"
	"github.com/mchttp3/mchttp3/internal/streamtab"
	"github.com/mchttp3/mchttp3/internal/xtimer"
	"github.com/mchttp3/mchttp3/transport"
)

// promiseEntry is a streamtab.Entry for a push promise that has been
// allocated but not yet materialised onto a unidirectional stream
// (spec.md §3).
type promiseEntry struct {
	pushID         uint64
	handle         interface{}
	parentStreamID uint64
}

func (p *promiseEntry) Key() uint64          { return p.pushID }
func (p *promiseEntry) UserHandle() interface{} { return p.handle }

// Session is the top-level object spec.md §3 describes: role, mode,
// session identifier, limits, the two streamtab.Tables (transfers and
// promises), a header-compression context, a transport.Engine handle,
// two timer slots, and the host's callback table.
type Session struct {
	cfg Config
	log *logrus.Entry

	engine transport.Engine
	codec  *ihpack.Codec
	timers *xtimer.Driver
	forger *forge.Forger
	cb     Callbacks

	transfers streamtab.Table
	promises  streamtab.Table

	ownControlStreamID  uint64
	peerControlStreamID uint64
	nextBidiStreamID    uint64
	nextUniStreamID     uint64
	nextPushID          uint64

	// streamEOS remembers which streams have seen a recv_stream_data
	// call with eos=true, so OnHeaders/OnData can tell a caught-up,
	// fully-drained stream from one that merely has no active frames
	// pending right now.
	streamEOS map[uint64]bool

	closed         bool
	goawayReceived bool

	// UserHandle is the session-level opaque handle spec.md §3 lists
	// alongside the callback table; the session never dereferences it.
	UserHandle interface{}
}

// Open builds a Session for cfg and, in multicast mode, immediately
// forges the local half of the handshake (spec.md §4.9). log may be
// nil, in which case the standard logrus logger is used, matching the
// teacher's own fallback (cmd/dtnd/main.go always calls
// log.SetLevel/log.SetFormatter on the package logger rather than a
// scoped one, but every CLA in pkg/cla accepts an optional *logrus.Entry).
func Open(cfg Config, engine transport.Engine, cb Callbacks, timerHost xtimer.Host, log *logrus.Entry) (*Session, error) {
	if engine == nil {
		return nil, NewStatusError(StatusBadUserData, "transport engine required", nil)
	}
	if cb == nil {
		return nil, NewStatusError(StatusBadUserData, "callbacks required", nil)
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("session", EncodeSessionID(cfg.SessionID))

	sess := &Session{
		cfg:       cfg,
		log:       log,
		engine:    engine,
		codec:     ihpack.New(),
		timers:    xtimer.New(timerHost),
		cb:        cb,
		streamEOS: make(map[uint64]bool),
	}

	if cfg.Role == RoleServer {
		sess.ownControlStreamID = stream.ServerControlStreamID
		sess.peerControlStreamID = stream.ClientControlStreamID
		sess.nextUniStreamID = stream.ServerControlStreamID + 4
	} else {
		sess.ownControlStreamID = stream.ClientControlStreamID
		sess.peerControlStreamID = stream.ServerControlStreamID
		sess.nextUniStreamID = stream.ClientControlStreamID + 4
	}
	sess.nextBidiStreamID = stream.InitRequestStreamID

	anchor := stream.New(stream.ZeroID, stream.NotFound, nil)
	sess.transfers.Add(anchor, true)
	ctrl := stream.New(sess.ownControlStreamID, stream.NotFound, nil)
	sess.transfers.Add(ctrl, false)

	if cfg.Mode == ModeMulticast {
		if len(cfg.Magic) != 32 {
			return nil, NewStatusError(StatusBadUserData, "multicast mode requires a 32-byte magic", nil)
		}
		sess.forger = &forge.Forger{Engine: engine, Magic: cfg.Magic, ConnID: cfg.SessionID}
		var err error
		if cfg.Role == RoleClient {
			_, err = sess.forger.ClientStart()
		} else {
			err = sess.forger.ServerStart()
		}
		if err != nil {
			return nil, NewStatusError(StatusTransportError, "multicast handshake forge failed", err)
		}
		log.WithField("role", cfg.Role).Debug("multicast handshake forged")
	}

	return sess, nil
}

// isUniStreamID reports whether id names a unidirectional QUIC stream
// under the usual id%4 convention (bit 0 selects the initiator, bit 1
// selects direction).
func isUniStreamID(id uint64) bool { return id%4 >= 2 }

// isPushStream reports whether id belongs to the range of
// server-initiated unidirectional streams that materialise push
// promises, excluding the two fixed control-stream ids.
func isPushStream(id uint64) bool {
	return id%4 == 3 && id != stream.ClientControlStreamID && id != stream.ServerControlStreamID
}

// isLastKnownActiveFrame reports whether s has no active frame queued
// after the one currently being dispatched. reassembly.Dispatch always
// unlinks a frame from s.ActiveFrames only after the Dispatcher method
// handling it returns, so at call time s.ActiveFrames still points at
// the frame in progress: its own Next() is the right thing to check,
// not s.ActiveFrames itself. This is exact for the common case of a
// stream with no non-DATA frame blocked ahead of a DATA frame; a DATA
// frame dispatched past such a blocked frame is spliced out of the
// middle of the list instead, which this helper cannot see, so it can
// under-report END_DATA for that edge case rather than over-report it.
func isLastKnownActiveFrame(s *stream.Stream) bool {
	return s.ActiveFrames != nil && s.ActiveFrames.Next() == nil
}

func statusForStreamErr(err error) Status {
	switch err {
	case stream.ErrTrailersNotPromised:
		return StatusTrailersNotPromised
	case stream.ErrRequestClosed:
		return StatusRequestClosed
	default:
		return StatusInternalError
	}
}

func hasTrailerField(headers []HeaderField) bool {
	for _, h := range headers {
		if strings.EqualFold(h.Name, "trailer") {
			return true
		}
	}
	return false
}

func toHPACKFields(in []HeaderField) []ihpack.HeaderField {
	out := make([]ihpack.HeaderField, len(in))
	for i, f := range in {
		out[i] = ihpack.HeaderField{Name: f.Name, Value: f.Value}
	}
	return out
}

// SubmitRequest opens a new client bidirectional request stream and
// feeds its initial header block (spec.md §3, §4.6). Client-only.
func (sess *Session) SubmitRequest(headers []HeaderField, final bool, streamUser interface{}) (uint64, error) {
	if sess.cfg.Role != RoleClient {
		return 0, NewStatusError(StatusClientOnly, "", nil)
	}
	if sess.nextBidiStreamID > sess.cfg.Limits.HighestBidiStreamID {
		return 0, NewStatusError(StatusTooManyRequests, "stream-id limit reached", nil)
	}
	id := sess.nextBidiStreamID
	sess.nextBidiStreamID += 4

	st := stream.New(id, stream.NotFound, streamUser)
	sess.transfers.Add(st, true)
	if err := sess.sendHeaders(st, headers, frame.NoPushID, final); err != nil {
		sess.transfers.Remove(id, true)
		return 0, err
	}
	return id, nil
}

// SubmitPushPromise allocates a push-id and queues a PUSH_PROMISE
// frame on parentStreamID (spec.md §3, §4.4). Server-only.
func (sess *Session) SubmitPushPromise(parentStreamID uint64, headers []HeaderField, promiseUser interface{}) (uint64, error) {
	if sess.cfg.Role != RoleServer {
		return 0, NewStatusError(StatusServerOnly, "", nil)
	}
	if sess.nextPushID >= sess.cfg.Limits.MaxPushPromise {
		return 0, NewStatusError(StatusPushLimitReached, "", nil)
	}
	parent := sess.transfers.Find(parentStreamID)
	if parent == nil {
		return 0, NewStatusError(StatusBadUserData, "unknown parent stream", nil)
	}

	pushID := sess.nextPushID
	sess.nextPushID++
	sess.promises.Add(&promiseEntry{pushID: pushID, handle: promiseUser, parentStreamID: parentStreamID}, false)

	block, err := sess.codec.Encode(toHPACKFields(headers))
	if err != nil {
		return 0, NewStatusError(StatusHdrCompressFailure, "hpack encode", err)
	}
	frameBytes := frame.CreatePushPromise(pushID, block)
	parent.(*stream.Stream).SendChain.Push(&buffer.Segment{Buf: frameBytes, Remaining: len(frameBytes)})
	return pushID, nil
}

// MaterializePromise moves a promise out of the promises map and onto
// a freshly allocated unidirectional stream, emitting its
// push-continuation header block (spec.md §3, §8 scenario S6).
// Server-only.
func (sess *Session) MaterializePromise(pushID uint64, headers []HeaderField, final bool, streamUser interface{}) (uint64, error) {
	if sess.cfg.Role != RoleServer {
		return 0, NewStatusError(StatusServerOnly, "", nil)
	}
	e := sess.promises.Find(pushID)
	if e == nil {
		return 0, NewStatusError(StatusBadUserData, "unknown push id", nil)
	}

	id := sess.nextUniStreamID
	sess.nextUniStreamID += 4
	st := stream.New(id, pushID, streamUser)
	sess.transfers.Add(st, false)
	sess.promises.Remove(pushID, false)

	if err := sess.sendHeaders(st, headers, int64(pushID), final); err != nil {
		return 0, err
	}
	return id, nil
}

// CancelPromise cancels a promise that has not yet been materialised,
// emitting CANCEL_PUSH on the local control stream instead of touching
// the transport engine (spec.md §5).
func (sess *Session) CancelPromise(pushID uint64) error {
	if sess.promises.Find(pushID) == nil {
		return NewStatusError(StatusBadUserData, "unknown push id", nil)
	}
	sess.promises.Remove(pushID, false)

	ctrl := sess.transfers.Find(sess.ownControlStreamID)
	if ctrl == nil {
		return NewStatusError(StatusInternalError, "missing own control stream", nil)
	}
	frameBytes := frame.CreateCancelPush(pushID)
	ctrl.(*stream.Stream).SendChain.Push(&buffer.Segment{Buf: frameBytes, Remaining: len(frameBytes)})
	return nil
}

// FeedHeaders drives a stream's send-side state machine on a further
// header block: a trailers block if the stream's first block promised
// one, otherwise a re-entrant HEADERS call before any body (spec.md
// §4.6, §8 scenario S2).
func (sess *Session) FeedHeaders(streamID uint64, headers []HeaderField, final bool) error {
	e := sess.transfers.Find(streamID)
	if e == nil {
		return NewStatusError(StatusRequestClosed, "unknown stream", nil)
	}
	st := e.(*stream.Stream)
	pushID := frame.NoPushID
	if st.PushID != stream.NotFound {
		pushID = int64(st.PushID)
	}
	return sess.sendHeaders(st, headers, pushID, final)
}

func (sess *Session) sendHeaders(st *stream.Stream, headers []HeaderField, pushID int64, final bool) error {
	if err := st.FeedHeaders(hasTrailerField(headers)); err != nil {
		return NewStatusError(statusForStreamErr(err), "", err)
	}
	block, err := sess.codec.Encode(toHPACKFields(headers))
	if err != nil {
		return NewStatusError(StatusHdrCompressFailure, "hpack encode", err)
	}
	frameBytes := frame.CreateHeaders(pushID, block)
	st.SendChain.Push(&buffer.Segment{Buf: frameBytes, Remaining: len(frameBytes), Complete: final})
	return nil
}

// FeedPayloadData drives a stream's send-side state machine on a body
// chunk (spec.md §4.6).
func (sess *Session) FeedPayloadData(streamID uint64, data []byte, final bool) error {
	e := sess.transfers.Find(streamID)
	if e == nil {
		return NewStatusError(StatusRequestClosed, "unknown stream", nil)
	}
	st := e.(*stream.Stream)
	if err := st.FeedPayloadData(); err != nil {
		return NewStatusError(statusForStreamErr(err), "", err)
	}
	frameBytes := frame.CreateData(data)
	st.SendChain.Push(&buffer.Segment{Buf: frameBytes, Remaining: len(frameBytes), Complete: final})
	return nil
}

// EndRequest cancels an in-flight request (spec.md §5): it drives both
// state machines DONE, reports on_request_close, and drops the stream
// from the transfers table.
func (sess *Session) EndRequest(streamID uint64) error {
	e := sess.transfers.Find(streamID)
	if e == nil {
		return NewStatusError(StatusRequestClosed, "unknown stream", nil)
	}
	st := e.(*stream.Stream)
	st.FinishSend()
	st.FinishRecv()
	if err := sess.engine.ShutdownStream(streamID, ErrCodeRequestCancelled); err != nil {
		sess.log.WithField("stream", streamID).WithError(err).Warn("shutdown stream")
	}
	sess.cb.OnRequestClose(StatusNotInterested, st.Handle)
	sess.transfers.Remove(st.ID, !isUniStreamID(st.ID))
	return nil
}

func (sess *Session) liveStreamsSorted() []*stream.Stream {
	var out []*stream.Stream
	for e := sess.transfers.Iterator(nil); e != nil; e = sess.transfers.Iterator(e) {
		out = append(out, e.(*stream.Stream))
	}
	return out
}

// Recv reads whatever the host's Recv callback has ready, hands each
// chunk to the transport engine, and drains any resulting stream data
// through the reassembly pipeline into user callbacks (spec.md §5).
func (sess *Session) Recv(nowNanos uint64) error {
	buf := make([]byte, BufferReadSize)
	for {
		n, err := sess.cb.Recv(buf)
		if err != nil {
			return NewStatusError(StatusSessionClosed, "recv", err)
		}
		if n == 0 {
			break
		}
		if err := sess.engine.ReadPacket(buf[:n]); err != nil {
			return NewStatusError(TranslateTransportError(err), "transport read", err)
		}
		sess.drainStreamData()
		sess.drainStreamCloses()
	}
	sess.reconcileTimers(nowNanos)
	return nil
}

func (sess *Session) drainStreamData() {
	for {
		streamID, data, offset, eos, ok := sess.engine.ReadyStreamData()
		if !ok {
			return
		}
		if err := sess.feedRecv(streamID, data, offset, eos); err != nil {
			sess.log.WithField("stream", streamID).WithError(err).Warn("stream closed on protocol error")
			if e := sess.transfers.Find(streamID); e != nil {
				st := e.(*stream.Stream)
				sess.cb.OnRequestClose(TranslateTransportError(err), st.Handle)
				sess.transfers.Remove(streamID, !isUniStreamID(streamID))
			}
		}
	}
}

// drainStreamCloses routes every stream-close event the engine has
// observed since the last ReadPacket call — whether locally requested
// via EndRequest or signalled by the peer resetting the stream — into
// the matching request's OnRequestClose callback.
func (sess *Session) drainStreamCloses() {
	for {
		streamID, code, ok := sess.engine.ReadyStreamClose()
		if !ok {
			return
		}
		e := sess.transfers.Find(streamID)
		if e == nil {
			continue
		}
		st := e.(*stream.Stream)
		sess.cb.OnRequestClose(TranslateApplicationErrorCode(code), st.Handle)
		sess.transfers.Remove(streamID, !isUniStreamID(streamID))
	}
}

func (sess *Session) feedRecv(streamID uint64, data []byte, offset uint64, eos bool) error {
	e := sess.transfers.Find(streamID)
	var st *stream.Stream
	if e == nil {
		st = stream.New(streamID, stream.NotFound, nil)
		sess.transfers.Add(st, !isUniStreamID(streamID))
	} else {
		st = e.(*stream.Stream)
	}
	if eos {
		sess.streamEOS[streamID] = true
	}
	return reassembly.RecvStreamData(st, data, offset, eos, isPushStream(streamID), sess)
}

func (sess *Session) finishRecvIfDone(s *stream.Stream, done bool) {
	if !done {
		return
	}
	s.FinishRecv()
	if s.Done() {
		sess.cb.OnRequestClose(StatusOK, s.Handle)
		sess.transfers.Remove(s.ID, !isUniStreamID(s.ID))
	}
}

// OnBeginHeaders implements reassembly.Dispatcher.
func (sess *Session) OnBeginHeaders(s *stream.Stream) {
	sess.cb.OnBeginHeaders(s.Handle)
}

// OnHeaders implements reassembly.Dispatcher, translating one decoded
// header block into one on_headers callback per field (spec.md §6, §8
// scenario S1).
func (sess *Session) OnHeaders(s *stream.Stream, headerBlock []byte, pushID uint64, hasPushID bool, _ bool) {
	fields, err := sess.codec.Decode(headerBlock)
	if err != nil {
		sess.log.WithField("stream", s.ID).WithError(err).Warn("hpack decode failed")
		sess.cb.OnRequestClose(StatusHdrCompressFailure, s.Handle)
		sess.transfers.Remove(s.ID, !isUniStreamID(s.ID))
		return
	}
	if hasPushID && s.PushID == stream.NotFound {
		s.PushID = pushID
	}

	trailers := s.RecvState == stream.RecvTrailers
	endRequest := (s.RecvState == stream.RecvHdrs || trailers) && sess.streamEOS[s.ID] && isLastKnownActiveFrame(s)
	for i, f := range fields {
		flags := HeaderFlags{Trailers: trailers}
		if i == len(fields)-1 {
			flags.EndRequest = endRequest
		}
		sess.cb.OnHeaders(flags, HeaderField{Name: f.Name, Value: f.Value}, s.Handle)
	}
	sess.finishRecvIfDone(s, endRequest)
}

// OnData implements reassembly.Dispatcher.
func (sess *Session) OnData(s *stream.Stream, data []byte, offset uint64, _ bool) {
	endData := sess.streamEOS[s.ID] && isLastKnownActiveFrame(s)
	sess.cb.OnDataRecv(DataFlags{EndData: endData}, data, offset, s.Handle)
	sess.finishRecvIfDone(s, endData)
}

// OnPriority implements reassembly.Dispatcher; PRIORITY is
// surface-validated only and never acts on scheduler fairness
// (SPEC_FULL.md §4.16).
func (sess *Session) OnPriority(s *stream.Stream, _ frame.Priority) error {
	return sess.requirePeerControlStream(s)
}

// OnCancelPush implements reassembly.Dispatcher.
func (sess *Session) OnCancelPush(s *stream.Stream, pushID uint64) error {
	if err := sess.requirePeerControlStream(s); err != nil {
		return err
	}
	if sess.promises.Find(pushID) != nil {
		sess.promises.Remove(pushID, false)
		return nil
	}
	sess.log.WithField("push_id", pushID).Debug("cancel_push for unknown or already-materialised push id")
	return nil
}

// OnSettings implements reassembly.Dispatcher; unknown setting ids are
// consumed and ignored (spec.md §4.4).
func (sess *Session) OnSettings(s *stream.Stream, _ []frame.Setting) error {
	return sess.requirePeerControlStream(s)
}

// OnPushPromise implements reassembly.Dispatcher: a client receiving a
// server's announcement of an upcoming push, delivered on the parent
// request stream rather than the control stream.
func (sess *Session) OnPushPromise(s *stream.Stream, pushID uint64, headerBlock []byte) error {
	fields, err := sess.codec.Decode(headerBlock)
	if err != nil {
		return NewStatusError(StatusHdrCompressFailure, "push promise decode", err)
	}
	if isGoawaySentinel(fields) {
		sess.closeOnGoaway()
		return nil
	}
	handle := sess.cb.OnBeginPromise(s.Handle)
	sess.promises.Add(&promiseEntry{pushID: pushID, handle: handle, parentStreamID: s.ID}, false)
	if pushID >= sess.nextPushID {
		sess.nextPushID = pushID + 1
	}
	for i, f := range fields {
		sess.cb.OnHeaders(HeaderFlags{EndRequest: i == len(fields)-1}, HeaderField{Name: f.Name, Value: f.Value}, handle)
	}
	return nil
}

// OnGoaway implements reassembly.Dispatcher.
func (sess *Session) OnGoaway(s *stream.Stream, lastID uint64) error {
	if err := sess.requirePeerControlStream(s); err != nil {
		return err
	}
	sess.goawayReceived = true
	sess.log.WithField("last_id", lastID).Info("received GOAWAY")
	return nil
}

// OnMaxPushID implements reassembly.Dispatcher.
func (sess *Session) OnMaxPushID(s *stream.Stream, maxPushID uint64) error {
	if err := sess.requirePeerControlStream(s); err != nil {
		return err
	}
	if maxPushID > sess.cfg.Limits.MaxPushPromise {
		sess.cfg.Limits.MaxPushPromise = maxPushID
	}
	return nil
}

func (sess *Session) requirePeerControlStream(s *stream.Stream) error {
	if s.ID != sess.peerControlStreamID {
		return NewStatusError(StatusHTTPWrongStream, "connection-scoped frame off the control stream", nil)
	}
	return nil
}

// Send drains every stream's outbound queue through the scheduler,
// flushes whatever packets the transport engine produced, and, on a
// multicast server, reflects each one as a synthetic ACK onto the
// engine's own receive queue (spec.md §4.8, §4.9).
func (sess *Session) Send(nowNanos uint64) error {
	onClose := func(s *stream.Stream) {
		sess.cb.OnRequestClose(StatusOK, s.Handle)
		sess.transfers.Remove(s.ID, !isUniStreamID(s.ID))
	}

	blocked, err := scheduler.Send(sess.liveStreamsSorted(), sess.engine, sess.cfg.MaxPacketSize, onClose)
	if err != nil {
		return NewStatusError(TranslateTransportError(err), "scheduler", err)
	}

	for {
		pkt, ok, werr := sess.engine.WritePacket()
		if werr != nil {
			return NewStatusError(StatusTransportError, "write packet", werr)
		}
		if !ok {
			break
		}
		if _, serr := sess.cb.Send(pkt); serr != nil {
			return NewStatusError(StatusSessionClosed, "send", serr)
		}
		if sess.cfg.Mode == ModeMulticast && sess.cfg.Role == RoleServer && sess.forger != nil {
			ack, ferr := sess.forger.ReflectOutboundPacket(pkt)
			if ferr != nil {
				sess.log.WithError(ferr).Debug("skipping fake ack reflection for undersized packet")
			} else if err := sess.engine.ReadPacket(ack); err != nil {
				return NewStatusError(TranslateTransportError(err), "fake ack reflection", err)
			}
		}
	}

	sess.reconcileTimers(nowNanos)
	if blocked {
		return NewStatusError(StatusSessionBlocked, "", nil)
	}
	return nil
}

func (sess *Session) reconcileTimers(nowNanos uint64) {
	if sess.timers.Host == nil {
		return
	}
	sess.timers.Reconcile(sess.engine, nowNanos)
}

// FireLossDetectionTimer is called by the host once its loss-detection
// timer fires (spec.md §4.10).
func (sess *Session) FireLossDetectionTimer() error {
	return sess.timers.FireLossDetection(sess.engine)
}

// FireAckDelayTimer is called by the host once its ACK-delay timer
// fires; any packet the engine produces is sent immediately.
func (sess *Session) FireAckDelayTimer() error {
	pkt, err := sess.timers.FireAckDelay(sess.engine)
	if err != nil {
		return err
	}
	if len(pkt) == 0 {
		return nil
	}
	_, err = sess.cb.Send(pkt)
	return err
}

// Close tears the session down: it emits a goaway push promise on a
// multicast server (spec.md §8 scenario S3), cancels every outstanding
// promise, flushes the result, and drives every remaining stream DONE.
// Errors encountered along the way are aggregated rather than
// abandoning the teardown at the first failure (SPEC_FULL.md §4.13).
func (sess *Session) Close() error {
	var result *multierror.Error

	if sess.cfg.Mode == ModeMulticast && sess.cfg.Role == RoleServer {
		sess.emitGoawayPushPromise()
	}

	var pushIDs []uint64
	for e := sess.promises.Iterator(nil); e != nil; e = sess.promises.Iterator(e) {
		pushIDs = append(pushIDs, e.(*promiseEntry).pushID)
	}
	for _, pushID := range pushIDs {
		if err := sess.CancelPromise(pushID); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if err := sess.Send(0); err != nil {
		if se, ok := err.(*StatusError); !ok || se.Status != StatusSessionBlocked {
			result = multierror.Append(result, err)
		}
	}

	for _, st := range sess.liveStreamsSorted() {
		if st.Done() {
			continue
		}
		st.FinishSend()
		st.FinishRecv()
		sess.cb.OnRequestClose(StatusSessionClosed, st.Handle)
	}

	sess.closed = true
	return result.ErrorOrNil()
}

// isGoawaySentinel reports whether fields carry the :path=goaway /
// connection=close pair emitGoawayPushPromise constructs, the
// multicast server's signal that no further requests are coming
// (spec.md §8 scenario S3).
func isGoawaySentinel(fields []ihpack.HeaderField) bool {
	var path, connection string
	for _, f := range fields {
		switch f.Name {
		case ":path":
			path = f.Value
		case "connection":
			connection = f.Value
		}
	}
	return path == "goaway" && connection == "close"
}

// closeOnGoaway implements the client side of spec.md §8 scenario S3:
// on receiving the goaway push promise the session immediately
// transitions to closed and discards whatever is left in every
// stream's receive buffer, since nothing further will ever be
// dispatched from it.
func (sess *Session) closeOnGoaway() {
	sess.log.Info("received goaway push promise; closing session")
	for _, st := range sess.liveStreamsSorted() {
		st.RecvChain.Clear()
	}
	sess.closed = true
}

// emitGoawayPushPromise implements spec.md §9(a): the original
// dereferences a null stream when the init-request stream is absent
// on session_close; here the close is simply skipped and logged.
func (sess *Session) emitGoawayPushPromise() {
	e := sess.transfers.Find(stream.InitRequestStreamID)
	if e == nil {
		sess.log.Debug("session close: no init-request stream, skipping goaway push promise")
		return
	}
	st := e.(*stream.Stream)
	_, err := sess.SubmitPushPromise(st.ID, []HeaderField{
		{Name: ":path", Value: "goaway"},
		{Name: "connection", Value: "close"},
	}, nil)
	if err != nil {
		sess.log.WithError(err).Warn("failed to emit goaway push promise")
	}
}

// Closed reports whether Close has already run.
func (sess *Session) Closed() bool { return sess.closed }

// GoawayReceived reports whether a GOAWAY frame has been observed on
// the peer's control stream.
func (sess *Session) GoawayReceived() bool { return sess.goawayReceived }
