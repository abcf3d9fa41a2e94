// Package otlpfakes builds OTLP export requests for tests.
package otlpfakes

import (
	"fmt"

	"google.golang.org/protobuf/proto"

	otlptrace "go.opentelemetry.io/proto/otlp/trace/v1"

	"github.com/liamcoop/spanecho/internal/models"
)

// Seq returns the bytes 0x00, 0x01, ... of length n.
func Seq(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

// RootSpan is a client span with both is-remote bits set and no parent.
func RootSpan() *models.ProtoSpan {
	return &models.ProtoSpan{
		Name:    "root",
		Kind:    otlptrace.Span_SPAN_KIND_CLIENT,
		TraceId: Seq(16),
		SpanId:  Seq(8),
		Flags: uint32(otlptrace.SpanFlags_SPAN_FLAGS_CONTEXT_HAS_IS_REMOTE_MASK |
			otlptrace.SpanFlags_SPAN_FLAGS_CONTEXT_IS_REMOTE_MASK),
	}
}

// RootSpanLine is the rendered line of RootSpan, without the trailing newline.
const RootSpanLine = `{"Span":{"name":"root","kind":"client","traceId":"000102030405060708090a0b0c0d0e0f","id":"0001020304050607","parentSpanId":null,"flags":"768 (HAS_IS_REMOTE | IS_REMOTE)"}}`

// Request wraps spans in a single resource and a single scope.
func Request(spans ...*models.ProtoSpan) *models.ExportTraceServiceRequest {
	return &models.ExportTraceServiceRequest{
		ResourceSpans: []*models.ResourceSpans{{
			ScopeSpans: []*models.ScopeSpans{{Spans: spans}},
		}},
	}
}

// Grid builds resources x scopes x spans internal spans named "r<i>/s<j>/p<k>".
func Grid(resources, scopes, spans int) *models.ExportTraceServiceRequest {
	req := &models.ExportTraceServiceRequest{}
	for r := 0; r < resources; r++ {
		rs := &models.ResourceSpans{}
		for s := 0; s < scopes; s++ {
			ss := &models.ScopeSpans{}
			for p := 0; p < spans; p++ {
				ss.Spans = append(ss.Spans, &models.ProtoSpan{
					Name:    fmt.Sprintf("r%d/s%d/p%d", r, s, p),
					Kind:    otlptrace.Span_SPAN_KIND_INTERNAL,
					TraceId: Seq(16),
					SpanId:  []byte{byte(r), byte(s), byte(p), 0, 0, 0, 0, 1},
				})
			}
			rs.ScopeSpans = append(rs.ScopeSpans, ss)
		}
		req.ResourceSpans = append(req.ResourceSpans, rs)
	}
	return req
}

// Marshal encodes req, panicking on failure.
func Marshal(req *models.ExportTraceServiceRequest) []byte {
	b, err := proto.Marshal(req)
	if err != nil {
		panic(fmt.Sprintf("marshal export request: %v", err))
	}
	return b
}
