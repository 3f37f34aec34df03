// SPDX-FileCopyrightText: 2026 mchttp3 contributors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package mchttp3

import (
	"errors"
	"fmt"

	"github.com/mchttp3/mchttp3/transport"
)

// Status enumerates the error kinds spec.md §7 lists, keeping the
// vocabulary distinct from the wrapped-error mechanism Go's stdlib
// provides so callers can switch on a stable kind without string
// matching.
type Status int

const (
	StatusOK Status = iota
	StatusSessionClosed
	StatusSessionBlocked
	StatusNoMoreData
	StatusOutOfMemory
	StatusInternalError
	StatusTransportError
	StatusTransportProtocol
	StatusTransportVersion
	StatusCryptoError
	StatusBadUserData
	StatusClientOnly
	StatusServerOnly
	StatusTooManyRequests
	StatusPushLimitReached
	StatusInvalidPushLimit
	StatusRequestClosed
	StatusTrailersNotPromised
	StatusHdrCompressFailure
	StatusHTTPPushRefused
	StatusHTTPPushAlreadyInCache
	StatusNotInterested
	StatusHTTPWrongStream
	StatusHTTPConnectError
	StatusHTTPALPNFailed
	StatusHTTPMalformedFrame
	StatusHTTPDuplicatePush
	StatusEOF
	StatusGenericError
)

var statusNames = map[Status]string{
	StatusOK:                     "ok",
	StatusSessionClosed:          "session-closed",
	StatusSessionBlocked:         "session-blocked",
	StatusNoMoreData:             "no-more-data",
	StatusOutOfMemory:            "out-of-memory",
	StatusInternalError:          "internal-error",
	StatusTransportError:         "transport-error",
	StatusTransportProtocol:      "transport-protocol",
	StatusTransportVersion:       "transport-version",
	StatusCryptoError:            "crypto-error",
	StatusBadUserData:            "bad-user-data",
	StatusClientOnly:             "client-only",
	StatusServerOnly:             "server-only",
	StatusTooManyRequests:        "too-many-requests",
	StatusPushLimitReached:       "push-limit-reached",
	StatusInvalidPushLimit:       "invalid-push-limit",
	StatusRequestClosed:          "request-closed",
	StatusTrailersNotPromised:    "trailers-not-promised",
	StatusHdrCompressFailure:     "hdr-compress-failure",
	StatusHTTPPushRefused:        "http-push-refused",
	StatusHTTPPushAlreadyInCache: "http-push-already-in-cache",
	StatusNotInterested:          "not-interested",
	StatusHTTPWrongStream:        "http-wrong-stream",
	StatusHTTPConnectError:       "http-connect-error",
	StatusHTTPALPNFailed:         "http-alpn-failed",
	StatusHTTPMalformedFrame:     "http-malformed-frame",
	StatusHTTPDuplicatePush:      "http-duplicate-push",
	StatusEOF:                    "eof",
	StatusGenericError:           "generic-error",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown-status"
}

// StatusError pairs a Status with an optional wrapped cause, the way
// the teacher's *internal.HandshakeError pairs a message with an
// application error code and an underlying cause
// (pkg/cla/quicl/internal/errors.go).
type StatusError struct {
	Status Status
	Msg    string
	Cause  error
}

// NewStatusError builds a StatusError. msg may be empty, in which case
// Error() falls back to the Status's own name.
func NewStatusError(status Status, msg string, cause error) *StatusError {
	return &StatusError{Status: status, Msg: msg, Cause: cause}
}

func (e *StatusError) Error() string {
	if e.Msg == "" {
		return e.Status.String()
	}
	return fmt.Sprintf("%s: %s", e.Status, e.Msg)
}

func (e *StatusError) Unwrap() error {
	return e.Cause
}

// TranslateTransportError maps a transport-engine error into the
// user-visible Status it corresponds to, per spec.md §7's translation
// table at the session/transport boundary: out-of-buffers becomes
// internal-error, a protocol violation becomes transport-protocol, a
// crypto/decrypt failure becomes crypto-error, and everything else
// falls back to internal-error. ErrStreamDataBlocked, ErrShutWr and
// ErrStreamNotFound never reach here: the send scheduler absorbs all
// three as "no progress this round" before this boundary.
func TranslateTransportError(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, transport.ErrProtocolViolation):
		return StatusTransportProtocol
	case errors.Is(err, transport.ErrCryptoFailure):
		return StatusCryptoError
	case errors.Is(err, transport.ErrOutOfBuffers):
		return StatusInternalError
	default:
		return StatusInternalError
	}
}

// ApplicationErrorCode is an HTTP/3 application-level error code
// carried on a QUIC stream/connection close. It is an alias of
// transport.ApplicationErrorCode since the Engine boundary
// (ShutdownStream, ReadyStreamClose) needs the same type; re-exported
// here so callers of this package's translation functions don't need
// to import transport separately.
type ApplicationErrorCode = transport.ApplicationErrorCode

// HTTP/3 application error codes recognised at stream close, per
// spec.md §7's mapping table.
const (
	ErrCodePushRefused        = transport.ErrCodePushRefused
	ErrCodePushAlreadyInCache = transport.ErrCodePushAlreadyInCache
	ErrCodeRequestCancelled   = transport.ErrCodeRequestCancelled
	ErrCodeHPACKDecompression = transport.ErrCodeHPACKDecompression
	ErrCodeWrongStream        = transport.ErrCodeWrongStream
	ErrCodePushLimitExceeded  = transport.ErrCodePushLimitExceeded
	ErrCodeDuplicatePush      = transport.ErrCodeDuplicatePush
	ErrCodeMalformedFrameBase = transport.ErrCodeMalformedFrameBase
)

// TranslateApplicationErrorCode maps an HTTP/3 application error code
// observed on stream close into a user-visible Status, per spec.md §7.
func TranslateApplicationErrorCode(code ApplicationErrorCode) Status {
	switch {
	case code == ErrCodePushRefused:
		return StatusHTTPPushRefused
	case code == ErrCodePushAlreadyInCache:
		return StatusHTTPPushAlreadyInCache
	case code == ErrCodeRequestCancelled:
		return StatusNotInterested
	case code == ErrCodeHPACKDecompression:
		return StatusHdrCompressFailure
	case code == ErrCodeWrongStream:
		return StatusHTTPWrongStream
	case code == ErrCodePushLimitExceeded:
		return StatusPushLimitReached
	case code == ErrCodeDuplicatePush:
		return StatusHTTPDuplicatePush
	case code >= ErrCodeMalformedFrameBase && code < ErrCodeMalformedFrameBase+0x100:
		return StatusHTTPMalformedFrame
	default:
		return StatusInternalError
	}
}
