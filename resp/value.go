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
	"fmt"
	"strconv"
)

// Kind identifies which of the five RESP reply variants a Value holds.
type Kind int

const (
	// SimpleString corresponds to the '+' reply marker.
	SimpleString Kind = iota
	// Error corresponds to the '-' reply marker.
	Error
	// Integer corresponds to the ':' reply marker.
	Integer
	// BulkString corresponds to the '$' reply marker.
	BulkString
	// Array corresponds to the '*' reply marker.
	Array
)

func (k Kind) String() string {
	switch k {
	case SimpleString:
		return "SimpleString"
	case Error:
		return "Error"
	case Integer:
		return "Integer"
	case BulkString:
		return "BulkString"
	case Array:
		return "Array"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a fully-decoded RESP reply. Exactly one of the payload fields
// is meaningful, selected by Kind:
//
//   - SimpleString: Bytes
//   - Error:        Bytes (the raw error message) and Err (the wrapped error)
//   - Integer:      Int
//   - BulkString:   Bytes (or Null==true for a $-1 reply), Text/IsText if a
//     text encoding was configured and decoding succeeded
//   - Array:        Items (or Null==true for a *-1 reply)
type Value struct {
	Kind Kind

	Bytes  []byte
	Text   string
	IsText bool

	Int int64

	Items []Value

	// Null is set for a $-1 or *-1 reply, which never carries a frame and
	// is produced directly by the header dispatch. It is also set on a
	// BulkString whose payload could not be decoded because the configured
	// encoding name didn't resolve (see DecodeError).
	Null bool

	// Err is populated for Kind==Error: the reply-error constructor applied
	// to Bytes.
	Err error
}

// IsNil reports whether v is a Null bulk string or Null array.
func (v Value) IsNil() bool {
	return v.Null && (v.Kind == BulkString || v.Kind == Array)
}

// String renders v for diagnostics. It is not the wire encoding.
func (v Value) String() string {
	switch v.Kind {
	case SimpleString:
		return string(v.Bytes)
	case Error:
		return fmt.Sprintf("(error) %s", string(v.Bytes))
	case Integer:
		return strconv.FormatInt(v.Int, 10)
	case BulkString:
		if v.Null {
			return "(nil)"
		}
		if v.IsText {
			return v.Text
		}
		return string(v.Bytes)
	case Array:
		if v.Null {
			return "(nil)"
		}
		return fmt.Sprintf("%v", v.Items)
	default:
		return "(unknown)"
	}
}
