// Package partition builds the deterministic, Hive-style object key every
// sealed, encoded batch is written under (spec.md §4.5/§6):
//
//	{signal}/[{metric_kind}/]{service}/year=YYYY/month=MM/day=DD/hour=HH/{ts_ms}-{hash}.parquet
package partition

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"otlp2parquet/internal/signal"
)

// BuildPath returns the object-store key for one encoded batch. minTimestampNs
// anchors the Hive date/hour path segments to the batch's earliest event,
// partitioning by the data rather than by wall-clock write time; a batch
// whose earliest row never carried a timestamp leaves minTimestampNs at 0,
// which would otherwise partition under the 1970-01-01 epoch, so nowNs is
// substituted in that case. content is the encoded Parquet bytes, hashed
// to give the filename a content-addressed, collision-resistant suffix.
func BuildPath(key signal.Key, minTimestampNs int64, nowNs int64, content []byte) string {
	effectiveNs := minTimestampNs
	if effectiveNs == 0 {
		effectiveNs = nowNs
	}
	t := time.Unix(0, effectiveNs).UTC()

	sum := sha256.Sum256(content)
	hash := hex.EncodeToString(sum[:8]) // 16 hex chars, well above the 8-hex floor

	tsMs := effectiveNs / int64(time.Millisecond)

	prefix := key.Signal.String()
	if key.Signal == signal.Metrics {
		prefix = prefix + "/" + key.MetricKind.String()
	}

	return fmt.Sprintf("%s/%s/year=%04d/month=%02d/day=%02d/hour=%02d/%013d-%s.parquet",
		prefix, sanitizeService(key.ServiceName),
		t.Year(), t.Month(), t.Day(), t.Hour(),
		tsMs, hash,
	)
}

// BuildDeadLetterPath builds the path for a batch that exhausted its write
// retries (spec.md §4.7/§9): failed/{signal}/{service}/{ts_ms}.ipc — an
// internal format, not part of the read-side contract.
func BuildDeadLetterPath(key signal.Key, nowNs int64) string {
	tsMs := nowNs / int64(time.Millisecond)
	return fmt.Sprintf("failed/%s/%s/%d.ipc", key.Signal.String(), sanitizeService(key.ServiceName), tsMs)
}

// sanitizeService makes a service name safe to use as a path segment
// (spec.md §4.5): characters outside [A-Za-z0-9._-] become '_'; empty or
// dot-only names collapse to "unknown" so a path segment is never "" or
// ".."/"." .
func sanitizeService(service string) string {
	out := make([]byte, len(service))
	onlyDots := true
	for i := 0; i < len(service); i++ {
		c := service[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '.', c == '-', c == '_':
			out[i] = c
			if c != '.' {
				onlyDots = false
			}
		default:
			out[i] = '_'
			onlyDots = false
		}
	}
	if len(out) == 0 || onlyDots {
		return "unknown"
	}
	return string(out)
}
