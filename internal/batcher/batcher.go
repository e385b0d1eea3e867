// Package batcher accumulates columnar rows in memory, keyed by
// (signal, metric kind, service name), and seals them into sealed batches
// once one of three independent triggers fires: max row count, an
// estimated max byte size, or max age (spec.md §4.4). A single mutex
// guards the whole slot map; sealed batches are handed back to the caller
// unlocked, so encode/write work never holds the slot-map lock.
package batcher

import (
	"sort"
	"sync"
	"time"

	"otlp2parquet/internal/columnar"
	"otlp2parquet/internal/schema"
	"otlp2parquet/internal/signal"
)

// Config controls the three flush triggers and the disabled/pass-through
// mode (spec.md §4.4's "batching can be turned off" escape hatch, used by
// the request-scoped and edge deployments when every request must flush
// exactly what it carried).
type Config struct {
	MaxRows     int
	MaxBytes    int64
	MaxAge      time.Duration
	Disabled    bool
	CapacityHint int
}

// Sealed is one flushed batch, still tagged with the key it was
// accumulated under, ready for the partition builder and encoder.
type Sealed struct {
	Key     signal.Key
	Batch   *columnar.Batch
	Trigger string // max_rows|max_bytes|max_age|disabled|drain
}

type slot struct {
	batch     *columnar.Batch
	createdAt time.Time
}

// Batcher is the keyed in-memory accumulator described above.
type Batcher struct {
	mu    sync.Mutex
	cfg   Config
	slots map[signal.Key]*slot
	now   func() time.Time
}

// New creates a Batcher. nowFn defaults to time.Now; tests may override it
// to make max_age flushing deterministic.
func New(cfg Config, nowFn func() time.Time) *Batcher {
	if nowFn == nil {
		nowFn = time.Now
	}
	if cfg.CapacityHint <= 0 {
		cfg.CapacityHint = 64
	}
	return &Batcher{
		cfg:   cfg,
		slots: make(map[signal.Key]*slot),
		now:   nowFn,
	}
}

// Append gets or creates the batch slot for key, lets fn append one or more
// rows to it, and returns the slot sealed if a flush trigger fired (row
// count, estimated bytes, or — in disabled mode — unconditionally after
// every call). The caller owns everything in the returned slice and must
// not touch it again via this Batcher.
func (b *Batcher) Append(key signal.Key, fn func(batch *columnar.Batch)) []Sealed {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.slots[key]
	if !ok {
		s = &slot{
			batch:     columnar.NewBatch(schema.ForKey(key.Signal, key.MetricKind), b.cfg.CapacityHint),
			createdAt: b.now(),
		}
		b.slots[key] = s
	}

	fn(s.batch)

	if b.cfg.Disabled {
		delete(b.slots, key)
		return []Sealed{{Key: key, Batch: s.batch, Trigger: "disabled"}}
	}

	if trigger := b.triggerFired(s); trigger != "" {
		delete(b.slots, key)
		return []Sealed{{Key: key, Batch: s.batch, Trigger: trigger}}
	}
	return nil
}

// triggerFired reports which flush trigger fired, if any, checked in a
// fixed order (rows, then bytes) so the metric recorded for a batch that
// tripped both is deterministic.
func (b *Batcher) triggerFired(s *slot) string {
	if b.cfg.MaxRows > 0 && s.batch.RowCount >= b.cfg.MaxRows {
		return "max_rows"
	}
	if b.cfg.MaxBytes > 0 && s.batch.EstimatedBytes() >= b.cfg.MaxBytes {
		return "max_bytes"
	}
	return ""
}

// Tick seals every slot whose age has reached MaxAge. Call periodically
// (spec.md §4.4/§5): a long-running deployment drives this from a
// scheduler tick at a cadence <= MaxAge/2.
func (b *Batcher) Tick(now time.Time) []Sealed {
	if b.cfg.MaxAge <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	var sealed []Sealed
	for _, key := range b.sortedKeys() {
		s := b.slots[key]
		if now.Sub(s.createdAt) >= b.cfg.MaxAge {
			sealed = append(sealed, Sealed{Key: key, Batch: s.batch, Trigger: "max_age"})
			delete(b.slots, key)
		}
	}
	return sealed
}

// Drain unconditionally seals every remaining slot, used on graceful
// shutdown and at the end of a request-scoped invocation.
func (b *Batcher) Drain() []Sealed {
	b.mu.Lock()
	defer b.mu.Unlock()

	sealed := make([]Sealed, 0, len(b.slots))
	for _, key := range b.sortedKeys() {
		s := b.slots[key]
		sealed = append(sealed, Sealed{Key: key, Batch: s.batch, Trigger: "drain"})
		delete(b.slots, key)
	}
	return sealed
}

// sortedKeys returns the slot-map keys in a stable lexical order by
// String(), so Tick and Drain emit sealed batches in deterministic,
// reproducible key order (spec.md §4.4's emission-ordering guarantee)
// instead of Go's randomized map iteration order. Caller must hold mu.
func (b *Batcher) sortedKeys() []signal.Key {
	keys := make([]signal.Key, 0, len(b.slots))
	for key := range b.slots {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// Len reports the number of open slots, used by tests and metrics.
func (b *Batcher) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.slots)
}
