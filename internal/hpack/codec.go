// SPDX-FileCopyrightText: 2026 mchttp3 contributors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package hpack wraps golang.org/x/net/http2/hpack behind the
// session-scoped header-compression adapter spec.md §4.5 describes.
// The core treats the codec as an opaque collaborator: it never
// inspects the compressed representation, only the decoded
// (name, value) pairs it produces or the header block bytes it emits.
package hpack

import (
	"bytes"

	"golang.org/x/net/http2/hpack"
)

// HeaderField is one decoded header name/value pair.
type HeaderField struct {
	Name  string
	Value string
}

// Codec is a session-scoped encoding/decoding context. It is not safe
// for concurrent use; the session that owns it serialises all calls,
// per spec.md §4.5 and §5.
type Codec struct {
	encBuf *bytes.Buffer
	enc    *hpack.Encoder
}

// New allocates a fresh Codec. There is nothing to Close: the
// underlying hpack.Encoder/Decoder hold no external resources, unlike
// the opaque C context spec.md §4.5 describes freeing explicitly.
func New() *Codec {
	buf := &bytes.Buffer{}
	enc := hpack.NewEncoder(buf)
	enc.SetMaxDynamicTableSize(0)
	return &Codec{
		encBuf: buf,
		enc:    enc,
	}
}

// Encode compresses fields into a single header block.
func (c *Codec) Encode(fields []HeaderField) ([]byte, error) {
	c.encBuf.Reset()
	for _, f := range fields {
		if err := c.enc.WriteField(hpack.HeaderField{Name: f.Name, Value: f.Value}); err != nil {
			return nil, err
		}
	}
	out := make([]byte, c.encBuf.Len())
	copy(out, c.encBuf.Bytes())
	return out, nil
}

// Decode decompresses a header block into fields. Each Codec keeps its
// own hpack.Decoder instantiated per call because http2/hpack's decoder
// carries no long-lived dynamic-table state we need across header
// blocks in this codec's usage (New caps the encoder's dynamic table
// at zero, so no block ever references an entry indexed by an earlier
// one, and HTTP/3's real QPACK dynamic table is explicitly out of
// scope per spec.md §1); the session-scoped encoder is retained across
// calls.
func (c *Codec) Decode(block []byte) ([]HeaderField, error) {
	var out []HeaderField
	dec := hpack.NewDecoder(4096, func(f hpack.HeaderField) {
		out = append(out, HeaderField{Name: f.Name, Value: f.Value})
	})
	if _, err := dec.Write(block); err != nil {
		return nil, err
	}
	if err := dec.Close(); err != nil {
		return nil, err
	}
	return out, nil
}
