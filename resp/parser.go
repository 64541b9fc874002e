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

// Package resp implements an incremental, non-blocking parser for the
// RESP (REdis Serialization Protocol) reply stream.
//
// A Parser accepts arbitrary byte chunks from a transport via Feed,
// buffers them, and emits fully-decoded Values one at a time via Get as
// the stream delivers enough bytes to complete them. A reply that spans
// many Feed calls, or many replies packed into a single Feed call, are
// both handled: Get drains exactly one reply per call and reports
// "not ready" when none is complete yet.
//
// A Parser is not safe for concurrent use. All calls (Feed, Get,
// SetEncoding) must be serialized by the caller.
package resp

import (
	"strconv"

	"github.com/google/uuid"
	"golang.org/x/text/encoding"
)

// ReplyErrorFunc wraps a raw "-"-reply error message into the error
// value carried by Value.Err. Matches the spec's caller-supplied
// reply-error constructor, offered here as a functional option rather
// than a host callback since this parser has no embedding host.
type ReplyErrorFunc func(msg []byte) error

// ProtocolErrorFunc wraps a descriptive message into the error returned
// by Get on an unrecoverable framing violation.
type ProtocolErrorFunc func(msg string) error

// Option configures a Parser at construction time.
type Option func(*Parser)

// WithReplyErrorFunc overrides how "-" replies are turned into errors.
func WithReplyErrorFunc(f ReplyErrorFunc) Option {
	return func(p *Parser) { p.replyErrFn = f }
}

// WithProtocolErrorFunc overrides how protocol errors are constructed.
func WithProtocolErrorFunc(f ProtocolErrorFunc) Option {
	return func(p *Parser) { p.protoErrFn = f }
}

// WithEncoding configures the initial text-decoding policy; see
// SetEncoding.
func WithEncoding(name string) Option {
	return func(p *Parser) { p.SetEncoding(name) }
}

// Parser is the RESP reply-stream state machine: a byte buffer plus a
// task stack of in-progress aggregate decodes.
type Parser struct {
	id uuid.UUID

	buf   *buffer
	stack *stack

	replyErrFn ReplyErrorFunc
	protoErrFn ProtocolErrorFunc

	encodingName  string
	enc           encoding.Encoding
	encUnresolved bool
	deferredErr   *DecodeError
}

// New constructs a Parser ready to Feed.
func New(opts ...Option) *Parser {
	p := &Parser{
		id:         uuid.New(),
		buf:        newBuffer(),
		stack:      &stack{},
		replyErrFn: defaultReplyErrorFunc,
		protoErrFn: defaultProtocolErrorFunc,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ID identifies this Parser instance, for correlating logs and metrics
// across many concurrently-open streams.
func (p *Parser) ID() uuid.UUID {
	return p.id
}

// Feed appends bytes to the internal buffer. It never parses and never
// fails — backpressure is the caller's responsibility.
func (p *Parser) Feed(b []byte) {
	if len(b) == 0 {
		return
	}
	p.buf.append(b)
	bufferedBytes.Add(float64(len(b)))
}

// SnapshotBuffer exposes the bytes currently buffered and undelivered,
// for diagnostic inspection. It does not consume them.
func (p *Parser) SnapshotBuffer() []byte {
	return p.buf.snapshot()
}

// Get attempts to produce the next fully-decoded reply.
//
// Returns (value, true, nil) on success; (Value{}, false, nil) when the
// buffered bytes don't yet complete a reply (feed more and retry); or a
// non-nil error. A *ProtocolError means the stream is unrecoverable —
// the buffer and stack have already been cleared. A *DecodeError is not
// fatal: the returned Value is valid (with a Null placeholder standing
// in for whichever BulkString failed to resolve its text encoding) and
// the stream remains usable.
//
// At most one reply is produced per call; drain a Feed by calling Get in
// a loop until it reports "not ready".
func (p *Parser) Get() (Value, bool, error) {
	var pending Value
	havePending := false

	for {
		top := p.stack.top()

		if top == nil {
			if havePending {
				return p.deliver(pending)
			}

			v, res, err := p.readHeader()
			if err != nil {
				p.abort()
				return Value{}, false, err
			}
			switch res {
			case headerNotReady:
				return Value{}, false, nil
			case headerValue:
				pending, havePending = v, true
				continue
			case headerPushed:
				continue
			}
		}

		switch top.kind {
		case frameBulk:
			payload, ok, err := p.buf.readExact(top.bulkLen)
			if err != nil {
				p.abort()
				return Value{}, false, p.protocolError(err.Error())
			}
			if !ok {
				return Value{}, false, nil
			}
			p.stack.pop()
			pending, havePending = p.decodeBulkPayload(payload), true
			continue

		case frameArray:
			if havePending {
				top.arrayAcc = append(top.arrayAcc, pending)
				top.arrayRemain--
				havePending = false
			}
			if top.arrayRemain == 0 {
				p.stack.pop()
				pending, havePending = Value{Kind: Array, Items: top.arrayAcc}, true
				continue
			}

			v, res, err := p.readHeader()
			if err != nil {
				p.abort()
				return Value{}, false, err
			}
			switch res {
			case headerNotReady:
				return Value{}, false, nil
			case headerValue:
				top.arrayAcc = append(top.arrayAcc, v)
				top.arrayRemain--
				continue
			case headerPushed:
				continue
			}
		}
	}
}

// headerResult classifies what readHeader did.
type headerResult int

const (
	// headerNotReady: no CRLF-terminated line buffered yet; nothing
	// consumed.
	headerNotReady headerResult = iota
	// headerValue: a leaf reply (SimpleString, Error, Integer, or a
	// Null bulk/array) resolved directly from the header line.
	headerValue
	// headerPushed: the header declared a non-null bulk string (including
	// $0) or a non-empty array; a frame was pushed and the stack grew by one.
	headerPushed
)

// readHeader consumes one RESP header line (the byte up to and including
// its type tag, through the terminating CRLF) and dispatches on the type
// byte, per spec.md §4.3's table.
func (p *Parser) readHeader() (Value, headerResult, error) {
	line, ok := p.buf.readLine()
	if !ok {
		return Value{}, headerNotReady, nil
	}
	if len(line) == 0 {
		return Value{}, headerNotReady, p.protocolError("empty reply header")
	}

	tag, rest := line[0], line[1:]
	switch tag {
	case '+':
		return Value{Kind: SimpleString, Bytes: rest}, headerValue, nil

	case '-':
		return Value{Kind: Error, Bytes: rest, Err: p.replyErrFn(rest)}, headerValue, nil

	case ':':
		n, err := strconv.ParseInt(string(rest), 10, 64)
		if err != nil {
			return Value{}, headerNotReady, p.protocolError("illegal integer: " + string(rest))
		}
		return Value{Kind: Integer, Int: n}, headerValue, nil

	case '$':
		n, err := strconv.ParseInt(string(rest), 10, 64)
		if err != nil || n < -1 {
			return Value{}, headerNotReady, p.protocolError("illegal bulk string length: " + string(rest))
		}
		if n == -1 {
			return Value{Kind: BulkString, Null: true}, headerValue, nil
		}
		p.stack.push(&frame{kind: frameBulk, bulkLen: n})
		return Value{}, headerPushed, nil

	case '*':
		n, err := strconv.ParseInt(string(rest), 10, 64)
		if err != nil || n < -1 {
			return Value{}, headerNotReady, p.protocolError("illegal array length: " + string(rest))
		}
		if n == -1 {
			return Value{Kind: Array, Null: true}, headerValue, nil
		}
		if n == 0 {
			return Value{Kind: Array, Items: []Value{}}, headerValue, nil
		}
		p.stack.push(&frame{kind: frameArray, arrayRemain: n, arrayAcc: make([]Value, 0, n)})
		return Value{}, headerPushed, nil

	default:
		return Value{}, headerNotReady, p.protocolError("unknown reply type byte " + strconv.QuoteRune(rune(tag)))
	}
}

// deliver hands a fully-resolved top-level reply back to the caller,
// surfacing (and clearing) any deferred decode error stored while
// decoding one of its BulkString descendants.
func (p *Parser) deliver(v Value) (Value, bool, error) {
	repliesDecodedTotal.Inc()
	if p.deferredErr != nil {
		err := p.deferredErr
		p.deferredErr = nil
		return v, true, err
	}
	return v, true, nil
}

// abort clears the buffer and stack after a protocol error, per
// spec.md §7: the stream is unrecoverable and must be resynchronized by
// the caller.
func (p *Parser) abort() {
	p.buf.reset()
	p.stack.reset()
	protocolErrorsTotal.Inc()
}

func (p *Parser) protocolError(msg string) error {
	return p.protoErrFn(msg)
}
