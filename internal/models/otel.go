package models

import (
	otlpcollectortrace "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	otlptrace "go.opentelemetry.io/proto/otlp/trace/v1"
)

// The top-level message of an OTLP trace export
type ExportTraceServiceRequest = otlpcollectortrace.ExportTraceServiceRequest

// ResourceSpans contains spans from a single resource
type ResourceSpans = otlptrace.ResourceSpans

// ScopeSpans contains spans from a single instrumentation scope
type ScopeSpans = otlptrace.ScopeSpans

// The actual span data
type ProtoSpan = otlptrace.Span

// Span kinds (CLIENT, SERVER, INTERNAL, etc.)
type SpanKind = otlptrace.Span_SpanKind

// Bit masks carried in Span.Flags
type SpanFlags = otlptrace.SpanFlags
