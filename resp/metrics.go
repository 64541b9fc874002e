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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Grounded on controller/metrics.go's promauto.NewCounter/NewGaugeVec
// idiom. Package-level like the teacher's, since every Parser instance
// in a process shares the same Prometheus registry.
var (
	repliesDecodedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "respwire",
			Name:      "replies_decoded_total",
			Help:      "Fully-decoded RESP replies returned by Get.",
		},
	)

	protocolErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "respwire",
			Name:      "protocol_errors_total",
			Help:      "Unrecoverable RESP framing violations, each resetting the stream.",
		},
	)

	decodeErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "respwire",
			Name:      "deferred_decode_errors_total",
			Help:      "Deferred decode errors stored because the configured encoding name didn't resolve (at most one per top-level reply).",
		},
	)

	bufferedBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "respwire",
			Name:      "buffered_bytes",
			Help:      "Bytes currently buffered and undelivered across all live parsers.",
		},
	)
)
