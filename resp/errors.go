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
	"strconv"

	"github.com/pkg/errors"
)

// ProtocolError marks the stream as unrecoverable: the buffer and task
// stack have been cleared and the caller must resynchronize (typically by
// reconnecting).
type ProtocolError struct {
	Msg string
}

func (e *ProtocolError) Error() string {
	return "resp: protocol error: " + e.Msg
}

// protocolSentinel carries a bare message up from the buffer layer before
// the parser wraps it with its configured protocol-error constructor.
type protocolSentinel struct {
	msg string
}

func (e *protocolSentinel) Error() string { return e.msg }

func newProtocolError(msg string) error {
	return &protocolSentinel{msg: msg}
}

// DecodeError is the deferred text-decoding failure described in
// spec.md §4.4: a BulkString payload could not be interpreted in the
// configured encoding because the encoding name itself didn't resolve.
// Unlike ProtocolError, it does not reset the stream — the reply that
// carries it is still valid, with a Null placeholder standing in for the
// payload that failed to decode.
type DecodeError struct {
	Encoding string
}

func (e *DecodeError) Error() string {
	return "resp: unknown encoding " + strconv.Quote(e.Encoding)
}

func defaultReplyErrorFunc(msg []byte) error {
	return errors.New(string(msg))
}

func defaultProtocolErrorFunc(msg string) error {
	return errors.WithStack(&ProtocolError{Msg: msg})
}
