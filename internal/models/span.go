package models

// SpanRecord is the rendered form of one span. Field order is the order of the
// keys in the output line.
type SpanRecord struct {
	Name         string  `json:"name"`
	Kind         string  `json:"kind"`
	TraceID      *string `json:"traceId"`
	ID           *string `json:"id"`
	ParentSpanID *string `json:"parentSpanId"`
	Flags        string  `json:"flags"`
}

// SpanLine wraps a record under the "Span" key.
type SpanLine struct {
	Span SpanRecord `json:"Span"`
}
