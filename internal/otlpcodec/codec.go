// Package otlpcodec decodes OTLP export requests off the wire: protobuf,
// protobuf/JSON, or newline-delimited JSON, each optionally gzip-compressed,
// bounded in both compressed and decompressed size, against the official
// collector proto types, sharing one decode path across all three signals
// via Go generics.
package otlpcodec

import (
	"bytes"
	"compress/gzip"
	"io"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	colmetricspb "go.opentelemetry.io/proto/otlp/collector/metrics/v1"
	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"

	apperrors "otlp2parquet/pkg/errors"
)

// Limits bounds how much a single request is allowed to cost to decode.
type Limits struct {
	MaxCompressedBytes   int64
	MaxDecompressedBytes int64
}

// decompress returns body as-is when encoding is empty, or gunzips it under
// a hard decompressed-size bound, guarding against zip-bomb payloads.
func decompress(body []byte, contentEncoding string, limits Limits) ([]byte, error) {
	if int64(len(body)) > limits.MaxCompressedBytes {
		return nil, apperrors.NewPayloadTooLargeError("compressed payload exceeds configured limit")
	}

	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "", "identity":
		if int64(len(body)) > limits.MaxDecompressedBytes {
			return nil, apperrors.NewPayloadTooLargeError("payload exceeds configured limit")
		}
		return body, nil
	case "gzip":
		gz, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, apperrors.NewMalformedError("invalid gzip payload", err.Error())
		}
		defer gz.Close()

		limited := io.LimitReader(gz, limits.MaxDecompressedBytes+1)
		out, err := io.ReadAll(limited)
		if err != nil {
			return nil, apperrors.NewMalformedError("failed to decompress gzip payload", err.Error())
		}
		if int64(len(out)) > limits.MaxDecompressedBytes {
			return nil, apperrors.NewPayloadTooLargeError("decompressed payload exceeds configured limit")
		}
		return out, nil
	default:
		return nil, apperrors.NewUnsupportedEncodingError(contentEncoding)
	}
}

// contentFormat classifies the Content-Type header into one of the three
// wire formats the codec understands.
type contentFormat int

const (
	formatProtobuf contentFormat = iota
	formatProtoJSON
	formatJSONL
)

func classify(contentType string) (contentFormat, error) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(ct, ";"); idx >= 0 {
		ct = strings.TrimSpace(ct[:idx])
	}
	switch ct {
	case "application/x-protobuf", "application/protobuf":
		return formatProtobuf, nil
	case "application/json":
		return formatProtoJSON, nil
	case "application/x-ndjson", "application/jsonl", "application/x-jsonlines":
		return formatJSONL, nil
	default:
		return 0, apperrors.NewUnsupportedContentTypeError(contentType)
	}
}

var protoJSONUnmarshal = protojson.UnmarshalOptions{DiscardUnknown: true}

// message is the minimal surface every Export*ServiceRequest proto shares:
// enough to decode it and, for JSONL, to merge several decoded lines.
type message[T any] interface {
	*T
	proto.Message
}

func decode[T any, PT message[T]](body []byte, contentType, contentEncoding string, limits Limits, mergeLines func(dst, src PT)) (PT, error) {
	plain, err := decompress(body, contentEncoding, limits)
	if err != nil {
		return nil, err
	}

	format, err := classify(contentType)
	if err != nil {
		return nil, err
	}

	switch format {
	case formatProtobuf:
		out := PT(new(T))
		if err := proto.Unmarshal(plain, out); err != nil {
			return nil, apperrors.NewMalformedError("invalid protobuf payload", err.Error())
		}
		return out, nil

	case formatProtoJSON:
		out := PT(new(T))
		if err := protoJSONUnmarshal.Unmarshal(plain, out); err != nil {
			return nil, apperrors.NewMalformedError("invalid protobuf/JSON payload", err.Error())
		}
		return out, nil

	case formatJSONL:
		merged := PT(new(T))
		first := true
		for _, line := range bytes.Split(plain, []byte("\n")) {
			line = bytes.TrimSpace(line)
			if len(line) == 0 {
				continue
			}
			next := PT(new(T))
			if err := protoJSONUnmarshal.Unmarshal(line, next); err != nil {
				return nil, apperrors.NewMalformedError("invalid JSONL line", err.Error())
			}
			if first {
				merged = next
				first = false
				continue
			}
			mergeLines(merged, next)
		}
		if first {
			return nil, apperrors.NewMalformedError("empty JSONL payload", "")
		}
		return merged, nil
	}

	return nil, apperrors.NewUnsupportedContentTypeError(contentType)
}

// DecodeLogs decodes an ExportLogsServiceRequest from one of the three
// supported wire formats.
func DecodeLogs(body []byte, contentType, contentEncoding string, limits Limits) (*collogspb.ExportLogsServiceRequest, error) {
	return decode[collogspb.ExportLogsServiceRequest](body, contentType, contentEncoding, limits, func(dst, src *collogspb.ExportLogsServiceRequest) {
		dst.ResourceLogs = append(dst.ResourceLogs, src.ResourceLogs...)
	})
}

// DecodeTraces decodes an ExportTraceServiceRequest from one of the three
// supported wire formats.
func DecodeTraces(body []byte, contentType, contentEncoding string, limits Limits) (*coltracepb.ExportTraceServiceRequest, error) {
	return decode[coltracepb.ExportTraceServiceRequest](body, contentType, contentEncoding, limits, func(dst, src *coltracepb.ExportTraceServiceRequest) {
		dst.ResourceSpans = append(dst.ResourceSpans, src.ResourceSpans...)
	})
}

// DecodeMetrics decodes an ExportMetricsServiceRequest from one of the
// three supported wire formats.
func DecodeMetrics(body []byte, contentType, contentEncoding string, limits Limits) (*colmetricspb.ExportMetricsServiceRequest, error) {
	return decode[colmetricspb.ExportMetricsServiceRequest](body, contentType, contentEncoding, limits, func(dst, src *colmetricspb.ExportMetricsServiceRequest) {
		dst.ResourceMetrics = append(dst.ResourceMetrics, src.ResourceMetrics...)
	})
}
