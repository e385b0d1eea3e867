// Package converter maps decoded OTLP resource groups into the seven fixed
// columnar schemas (spec.md §4.3): data-point explosion and attribute
// flattening into plain columnar rows.
package converter

import (
	"encoding/hex"
	"math"
)

// hexID renders a trace/span ID byte slice as lowercase hex, the standard
// representation for JSON-shaped IDs.
func hexID(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return hex.EncodeToString(b)
}

// clampTimestamp converts a FixedUint64 OTLP timestamp to the int64
// nanosecond form every schema stores, saturating rather than wrapping if
// it exceeds int64's range.
func clampTimestamp(u uint64) int64 {
	if u > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(u)
}

// clampDuration computes a non-negative nanosecond duration from start/end
// timestamps, clamping to zero if the end precedes the start (a malformed
// or clock-skewed span should not produce a negative duration column).
func clampDuration(startNano, endNano uint64) int64 {
	if endNano <= startNano {
		return 0
	}
	return clampTimestamp(endNano - startNano)
}
