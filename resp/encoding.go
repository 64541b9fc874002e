// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package resp

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// SetEncoding configures how BulkString payloads are delivered. An empty
// name means raw bytes (the default); a non-empty name is resolved
// through the IANA character-set registry and, once resolved, every
// subsequent BulkString payload is decoded as text in that encoding.
//
// The lookup itself happens here, once, rather than per payload — but
// per spec.md §4.4 a bad name doesn't fail SetEncoding: it's recorded
// and, once a BulkString is decoded, Get returns it as a DecodeError
// alongside the completed top-level reply that contains it, keeping set_encoding's "never fails" contract (§4.3) intact.
func (p *Parser) SetEncoding(name string) {
	name = strings.TrimSpace(name)
	p.encodingName = name
	if name == "" {
		p.enc = nil
		p.encUnresolved = false
		return
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		p.enc = nil
		p.encUnresolved = true
		return
	}
	p.enc = enc
	p.encUnresolved = false
}

// decodeBulkPayload applies the configured text-decoding policy to a
// freshly-read BulkString payload.
//
//   - No encoding configured: raw bytes.
//   - Encoding name didn't resolve: store the first such error (later
//     ones are dropped — spec.md's "Store error when this is the
//     first"), return a Null placeholder for this payload.
//   - Encoding resolved but these particular bytes aren't valid in it:
//     silently fall back to raw bytes, no error recorded.
func (p *Parser) decodeBulkPayload(raw []byte) Value {
	if p.enc == nil {
		if p.encUnresolved {
			if p.deferredErr == nil {
				p.deferredErr = &DecodeError{Encoding: p.encodingName}
				decodeErrorsTotal.Inc()
			}
			return Value{Kind: BulkString, Null: true}
		}
		return Value{Kind: BulkString, Bytes: raw}
	}

	text, err := decodeText(p.enc, raw)
	if err != nil {
		return Value{Kind: BulkString, Bytes: raw}
	}
	return Value{Kind: BulkString, Bytes: raw, Text: text, IsText: true}
}

func decodeText(enc encoding.Encoding, raw []byte) (string, error) {
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
