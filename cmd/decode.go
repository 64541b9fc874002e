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

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"github.com/valyala/bytebufferpool"

	"github.com/respwire/respwire/internal/options"
	"github.com/respwire/respwire/internal/rescue"
	"github.com/respwire/respwire/logger"
	"github.com/respwire/respwire/resp"
)

type decodeConfig struct {
	File          string
	Encoding      string
	JSON          bool
	Dedupe        bool
	ChunkSize     int
	ContinueOnErr bool
}

var (
	decodeConf decodeConfig
	decodeOpts []string
)

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode a RESP reply stream, read from --file or stdin",
	Example: "# respwire decode --file replies.resp --encoding utf-8\n" +
		"# redis-cli --pipe-mode ... | respwire decode --json",
	RunE: runDecode,
}

func init() {
	decodeCmd.Flags().StringVar(&decodeConf.File, "file", "", "Path to a file of raw RESP bytes (defaults to stdin)")
	decodeCmd.Flags().StringVar(&decodeConf.Encoding, "encoding", "", "IANA name to decode BulkString payloads as text (e.g. utf-8)")
	decodeCmd.Flags().BoolVar(&decodeConf.JSON, "json", false, "Emit one JSON object per reply instead of the diagnostic text form")
	decodeCmd.Flags().BoolVar(&decodeConf.Dedupe, "dedupe", false, "Suppress a reply identical to the one immediately preceding it")
	decodeCmd.Flags().IntVar(&decodeConf.ChunkSize, "chunk-size", 4096, "Bytes read per Feed call, to exercise the incremental parser like a real transport would")
	decodeCmd.Flags().BoolVar(&decodeConf.ContinueOnErr, "continue-on-error", false, "Keep decoding after a protocol error instead of stopping at the first one")
	decodeCmd.Flags().StringArrayVar(&decodeOpts, "opt", nil, "Additional key=value option, repeatable, overriding the typed flag of the same name (e.g. --opt chunk-size=8192)")
	rootCmd.AddCommand(decodeCmd)
}

func runDecode(cmd *cobra.Command, args []string) error {
	defer rescue.HandleCrash()

	extra := options.New()
	if err := options.ParseInto(extra, decodeOpts); err != nil {
		return err
	}
	applyOptionOverrides(extra)

	src := io.Reader(os.Stdin)
	if decodeConf.File != "" {
		f, err := os.Open(decodeConf.File)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", decodeConf.File, err)
		}
		defer f.Close()
		src = f
	}

	var parserOpts []resp.Option
	if decodeConf.Encoding != "" {
		parserOpts = append(parserOpts, resp.WithEncoding(decodeConf.Encoding))
	}
	p := resp.New(parserOpts...)

	w := cmd.OutOrStdout()
	d := &dedupeFilter{enabled: decodeConf.Dedupe}

	var errs *multierror.Error
	chunk := make([]byte, decodeConf.ChunkSize)
	for {
		n, readErr := src.Read(chunk)
		if n > 0 {
			p.Feed(chunk[:n])
			if err := drainReplies(p, w, d); err != nil {
				errs = multierror.Append(errs, err)
				if !decodeConf.ContinueOnErr {
					return errs.ErrorOrNil()
				}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("failed to read input: %w", readErr)
		}
	}

	if leftover := p.SnapshotBuffer(); len(leftover) > 0 {
		logger.Warnf("stream ended with %d undelivered bytes (truncated reply)", len(leftover))
	}
	return errs.ErrorOrNil()
}

// applyOptionOverrides lets the untyped --opt escape hatch override the
// encoding, chunk-size, dedupe and json flags, coercing through cast since
// every --opt value arrives as a string. Other keys are ignored.
func applyOptionOverrides(extra options.Options) {
	if v, err := extra.GetString("encoding"); err == nil && v != "" {
		decodeConf.Encoding = v
	}
	if v, err := extra.GetInt("chunk-size"); err == nil && v > 0 {
		decodeConf.ChunkSize = v
	}
	if _, set := extra["dedupe"]; set {
		if v, err := extra.GetBool("dedupe"); err == nil {
			decodeConf.Dedupe = v
		}
	}
	if _, set := extra["json"]; set {
		if v, err := extra.GetBool("json"); err == nil {
			decodeConf.JSON = v
		}
	}
}

// drainReplies pulls every reply the most recent Feed completed, per
// Get's "at most one reply per call" contract.
func drainReplies(p *resp.Parser, w io.Writer, d *dedupeFilter) error {
	for {
		v, ok, err := p.Get()
		if err != nil {
			var perr *resp.ProtocolError
			if errors.As(err, &perr) {
				return err
			}
			// DecodeError: non-fatal, the value still printed below carries
			// a Null placeholder for whichever BulkString didn't resolve.
			logger.Warnf("decode error: %v", err)
		}
		if !ok {
			return nil
		}
		if d.seen(v) {
			continue
		}
		printValue(w, v)
	}
}

func printValue(w io.Writer, v resp.Value) {
	if decodeConf.JSON {
		b, err := json.Marshal(toJSON(v))
		if err != nil {
			logger.Errorf("failed to marshal reply: %v", err)
			return
		}
		fmt.Fprintln(w, string(b))
		return
	}
	fmt.Fprintln(w, v.String())
}

// replyJSON is the wire-agnostic projection of a Value used for --json
// output; Value itself isn't JSON-friendly (it carries a raw error and a
// byte slice that may or may not be text).
type replyJSON struct {
	Kind  string      `json:"kind"`
	Value interface{} `json:"value,omitempty"`
	Null  bool        `json:"null,omitempty"`
	Error string      `json:"error,omitempty"`
}

func toJSON(v resp.Value) replyJSON {
	out := replyJSON{Kind: v.Kind.String()}
	switch v.Kind {
	case resp.SimpleString:
		out.Value = string(v.Bytes)
	case resp.Error:
		out.Value = string(v.Bytes)
		if v.Err != nil {
			out.Error = v.Err.Error()
		}
	case resp.Integer:
		out.Value = v.Int
	case resp.BulkString:
		out.Null = v.Null
		if !v.Null {
			if v.IsText {
				out.Value = v.Text
			} else {
				out.Value = string(v.Bytes)
			}
		}
	case resp.Array:
		out.Null = v.Null
		if !v.Null {
			items := make([]replyJSON, len(v.Items))
			for i, item := range v.Items {
				items[i] = toJSON(item)
			}
			out.Value = items
		}
	}
	return out
}

// dedupeFilter suppresses a reply identical to its immediate predecessor.
// Canonicalizing through a pooled buffer and hashing with xxhash avoids
// an allocation-heavy deep comparison for every reply in a busy stream.
//
// Grounded on internal/labels/labels.go's xxhash+bytebufferpool pairing,
// used there to build a stable cache key for a label set.
type dedupeFilter struct {
	enabled bool
	has     bool
	last    uint64
}

func (d *dedupeFilter) seen(v resp.Value) bool {
	if !d.enabled {
		return false
	}
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	canonicalize(buf, v)

	h := xxhash.Sum64(buf.B)
	dup := d.has && h == d.last
	d.has, d.last = true, h
	return dup
}

func canonicalize(buf *bytebufferpool.ByteBuffer, v resp.Value) {
	_ = buf.WriteByte(byte(v.Kind))
	switch v.Kind {
	case resp.SimpleString, resp.Error:
		_, _ = buf.Write(v.Bytes)
	case resp.Integer:
		_, _ = fmt.Fprintf(buf, "%d", v.Int)
	case resp.BulkString:
		if v.Null {
			_, _ = buf.WriteString("\x00nil")
			return
		}
		_, _ = buf.Write(v.Bytes)
	case resp.Array:
		if v.Null {
			_, _ = buf.WriteString("\x00nil")
			return
		}
		for _, item := range v.Items {
			canonicalize(buf, item)
		}
	}
}
