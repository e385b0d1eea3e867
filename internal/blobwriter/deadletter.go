package blobwriter

import (
	"bytes"
	"context"
	"encoding/binary"

	"otlp2parquet/internal/signal"
)

// deadLetterMagic tags the framing below so a reader can distinguish it
// from a raw Parquet file; the dead-letter path is internal (spec.md §9),
// never read by the same code that reads the main partition layout.
var deadLetterMagic = [4]byte{'o', '2', 'p', 1}

// frameDeadLetter serializes one failed write's original encoded content
// plus enough context to retry it offline, using a minimal self-describing
// length-prefixed record rather than a full Arrow IPC writer: no Arrow
// dependency is present anywhere in the reference pack to ground one on
// (see DESIGN.md).
func frameDeadLetter(key signal.Key, originalKey string, content []byte) []byte {
	var buf bytes.Buffer
	buf.Write(deadLetterMagic[:])

	writeLenPrefixed(&buf, []byte(key.String()))
	writeLenPrefixed(&buf, []byte(originalKey))
	writeLenPrefixed(&buf, content)

	return buf.Bytes()
}

func writeLenPrefixed(buf *bytes.Buffer, b []byte) {
	var lenBytes [8]byte
	binary.BigEndian.PutUint64(lenBytes[:], uint64(len(b)))
	buf.Write(lenBytes[:])
	buf.Write(b)
}

// WriteDeadLetter routes content that exhausted its write retries (or hit
// a permanent object-store error) to the dead-letter sink, under
// failed/{signal}/{service}/{ts}.ipc. This is itself a best-effort put:
// if even the dead-letter write fails, the caller can only log and drop,
// since there is no further fallback sink defined by spec.md.
func (w *Writer) WriteDeadLetter(ctx context.Context, key signal.Key, deadLetterPath, originalKey string, content []byte) error {
	framed := frameDeadLetter(key, originalKey, content)
	return w.store.Put(ctx, deadLetterPath, framed)
}
