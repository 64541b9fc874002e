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

// Package options is a small untyped string-keyed bag, for the
// "--opt key=value" escape hatch CLI commands offer alongside their typed
// flags. Values arrive as strings off the command line; cast handles the
// coercion so callers can ask for the type they actually want.
package options

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// Options is deliberately bare: a map, not a struct, since the whole point
// is holding keys its callers didn't need to predeclare.
type Options map[string]any

func New() Options {
	return make(Options)
}

func (o Options) Merge(k string, v any) {
	o[k] = v
}

func (o Options) GetInt(k string) (int, error) {
	return cast.ToIntE(o[k])
}

func (o Options) GetBool(k string) (bool, error) {
	return cast.ToBoolE(o[k])
}

func (o Options) GetString(k string) (string, error) {
	return cast.ToStringE(o[k])
}

func (o Options) GetStringSlice(k string) ([]string, error) {
	return cast.ToStringSliceE(o[k])
}

// ParseInto splits "key=value" CLI arguments (as produced by a repeated
// --opt flag) and merges them in. Entries without an "=" are rejected.
func ParseInto(o Options, raw []string) error {
	for _, kv := range raw {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("malformed option %q, expected key=value", kv)
		}
		o.Merge(strings.TrimSpace(k), strings.TrimSpace(v))
	}
	return nil
}
