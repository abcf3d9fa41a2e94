package render

import (
	otlptrace "go.opentelemetry.io/proto/otlp/trace/v1"

	apperrors "github.com/liamcoop/spanecho/internal/errors"
	"github.com/liamcoop/spanecho/internal/models"
)

var kindNames = map[models.SpanKind]string{
	otlptrace.Span_SPAN_KIND_UNSPECIFIED: "unspecified",
	otlptrace.Span_SPAN_KIND_INTERNAL:    "internal",
	otlptrace.Span_SPAN_KIND_CLIENT:      "client",
	otlptrace.Span_SPAN_KIND_SERVER:      "server",
	otlptrace.Span_SPAN_KIND_PRODUCER:    "producer",
	otlptrace.Span_SPAN_KIND_CONSUMER:    "consumer",
}

// KindName maps an OTLP span kind to its lowercase name. Values outside the
// six known kinds fail with a DecodeError.
func KindName(kind models.SpanKind) (string, error) {
	name, ok := kindNames[kind]
	if !ok {
		return "", &apperrors.DecodeError{Field: "span kind", Value: int64(kind)}
	}
	return name, nil
}
