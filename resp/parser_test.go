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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSimpleString(t *testing.T) {
	p := New()
	p.Feed([]byte("+OK\r\n"))

	v, ok, err := p.Get()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, SimpleString, v.Kind)
	assert.Equal(t, "OK", string(v.Bytes))
}

func TestGetInteger(t *testing.T) {
	p := New()
	p.Feed([]byte(":-123\r\n"))

	v, ok, err := p.Get()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Integer, v.Kind)
	assert.EqualValues(t, -123, v.Int)
}

func TestGetBulkString(t *testing.T) {
	p := New()
	p.Feed([]byte("$6\r\nfoobar\r\n"))

	v, ok, err := p.Get()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, BulkString, v.Kind)
	assert.Equal(t, "foobar", string(v.Bytes))
	assert.False(t, v.IsText)
}

func TestGetBulkStringWithEncoding(t *testing.T) {
	p := New(WithEncoding("utf-8"))
	p.Feed([]byte("$6\r\nfoobar\r\n"))

	v, ok, err := p.Get()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, v.IsText)
	assert.Equal(t, "foobar", v.Text)
}

func TestGetNullBulkString(t *testing.T) {
	p := New()
	p.Feed([]byte("$-1\r\n"))

	v, ok, err := p.Get()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, v.IsNil())
}

func TestGetArray(t *testing.T) {
	p := New()
	p.Feed([]byte("*3\r\n:1\r\n:2\r\n$3\r\nabc\r\n"))

	v, ok, err := p.Get()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, Array, v.Kind)
	require.Len(t, v.Items, 3)
	assert.EqualValues(t, 1, v.Items[0].Int)
	assert.EqualValues(t, 2, v.Items[1].Int)
	assert.Equal(t, "abc", string(v.Items[2].Bytes))
}

func TestGetChunkedFeed(t *testing.T) {
	p := New()
	p.Feed([]byte("*2\r\n$3\r\nfo"))

	_, ok, err := p.Get()
	require.NoError(t, err)
	assert.False(t, ok, "a partial reply must report not ready")

	p.Feed([]byte("o\r\n$3\r\nbar\r\n"))

	v, ok, err := p.Get()
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, v.Items, 2)
	assert.Equal(t, "foo", string(v.Items[0].Bytes))
	assert.Equal(t, "bar", string(v.Items[1].Bytes))
}

func TestGetNestedArray(t *testing.T) {
	p := New()
	p.Feed([]byte("*2\r\n*2\r\n:1\r\n:2\r\n*1\r\n+x\r\n"))

	v, ok, err := p.Get()
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, v.Items, 2)

	inner := v.Items[0]
	require.Equal(t, Array, inner.Kind)
	require.Len(t, inner.Items, 2)
	assert.EqualValues(t, 1, inner.Items[0].Int)
	assert.EqualValues(t, 2, inner.Items[1].Int)

	outer := v.Items[1]
	require.Equal(t, Array, outer.Kind)
	require.Len(t, outer.Items, 1)
	assert.Equal(t, "x", string(outer.Items[0].Bytes))
}

func TestGetDeeplyNestedArrayDoesNotRecurse(t *testing.T) {
	// Builds *1\r\n*1\r\n...*1\r\n+leaf\r\n nested many levels deep, to
	// exercise the explicit task stack rather than Go call recursion.
	const depth = 5000
	buf := make([]byte, 0, depth*8+16)
	for i := 0; i < depth; i++ {
		buf = append(buf, "*1\r\n"...)
	}
	buf = append(buf, "+leaf\r\n"...)

	p := New()
	p.Feed(buf)

	v, ok, err := p.Get()
	require.NoError(t, err)
	require.True(t, ok)

	for i := 0; i < depth; i++ {
		require.Equal(t, Array, v.Kind)
		require.Len(t, v.Items, 1)
		v = v.Items[0]
	}
	assert.Equal(t, SimpleString, v.Kind)
	assert.Equal(t, "leaf", string(v.Bytes))
}

func TestGetProtocolError(t *testing.T) {
	p := New()
	p.Feed([]byte("?bad\r\n"))

	_, ok, err := p.Get()
	assert.False(t, ok)
	require.Error(t, err)
	assert.Empty(t, p.SnapshotBuffer(), "an aborted stream must clear its buffer")
}

func TestGetReplyError(t *testing.T) {
	p := New()
	p.Feed([]byte("-ERR wrong type\r\n"))

	v, ok, err := p.Get()
	require.True(t, ok)
	require.NoError(t, err, "a reply-level error is carried on the Value, not returned from Get")
	assert.Equal(t, Error, v.Kind)
	require.Error(t, v.Err)
	assert.Equal(t, "ERR wrong type", v.Err.Error())
}

func TestGetNotReadyIsIdempotent(t *testing.T) {
	p := New()
	p.Feed([]byte("*2\r\n:1\r\n"))

	_, ok1, err1 := p.Get()
	require.NoError(t, err1)
	assert.False(t, ok1)

	before := append([]byte(nil), p.SnapshotBuffer()...)

	_, ok2, err2 := p.Get()
	require.NoError(t, err2)
	assert.False(t, ok2)

	assert.Equal(t, before, p.SnapshotBuffer(), "repeated not-ready Get calls must not mutate state")
}

func TestGetDeferredEncodingErrorSurfacesOnce(t *testing.T) {
	p := New(WithEncoding("this-is-not-a-real-encoding"))
	p.Feed([]byte("*2\r\n$3\r\nfoo\r\n$3\r\nbar\r\n"))

	v, ok, err := p.Get()
	require.True(t, ok)
	require.Error(t, err, "the unresolved encoding name surfaces on the first completed top-level reply")
	assert.True(t, v.Items[0].IsNil())
	assert.True(t, v.Items[1].IsNil())

	p.Feed([]byte("+OK\r\n"))
	_, ok, err = p.Get()
	require.True(t, ok)
	assert.NoError(t, err, "the deferred error is consumed, not repeated, by the next reply")
}

func TestGetBuffersMultipleRepliesInOneFeed(t *testing.T) {
	p := New()
	p.Feed([]byte("+OK\r\n:7\r\n"))

	v1, ok, err := p.Get()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, SimpleString, v1.Kind)

	v2, ok, err := p.Get()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Integer, v2.Kind)
	assert.EqualValues(t, 7, v2.Int)

	_, ok, err = p.Get()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetEmptyArray(t *testing.T) {
	p := New()
	p.Feed([]byte("*0\r\n"))

	v, ok, err := p.Get()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Array, v.Kind)
	assert.Empty(t, v.Items)
	assert.False(t, v.IsNil())
}

func TestGetNullArray(t *testing.T) {
	p := New()
	p.Feed([]byte("*-1\r\n"))

	v, ok, err := p.Get()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, v.IsNil())
}

func TestParserIDIsStable(t *testing.T) {
	p := New()
	id1 := p.ID()
	id2 := p.ID()
	assert.Equal(t, id1, id2)
}

func TestWithReplyErrorFunc(t *testing.T) {
	var seen []byte
	p := New(WithReplyErrorFunc(func(msg []byte) error {
		seen = append([]byte(nil), msg...)
		return assert.AnError
	}))
	p.Feed([]byte("-boom\r\n"))

	v, ok, err := p.Get()
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, "boom", string(seen))
	assert.Equal(t, assert.AnError, v.Err)
}
