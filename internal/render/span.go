package render

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/liamcoop/spanecho/internal/models"
)

// NewSpanRecord converts a decoded OTLP span into its rendered record.
func NewSpanRecord(span *models.ProtoSpan) (models.SpanRecord, error) {
	kind, err := KindName(span.GetKind())
	if err != nil {
		return models.SpanRecord{}, err
	}

	return models.SpanRecord{
		Name:         span.GetName(),
		Kind:         kind,
		TraceID:      FormatID(span.GetTraceId()),
		ID:           FormatID(span.GetSpanId()),
		ParentSpanID: FormatID(span.GetParentSpanId()),
		Flags:        FlagsString(span.GetFlags()),
	}, nil
}

// EncodeLine serializes a record as a single newline-terminated JSON line.
// Invalid UTF-8 in the name is replaced with U+FFFD by the encoder.
func EncodeLine(rec models.SpanRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(models.SpanLine{Span: rec}); err != nil {
		return nil, fmt.Errorf("failed to encode span %q: %w", rec.Name, err)
	}
	return buf.Bytes(), nil
}

// Renderer writes span records to a Sink.
type Renderer struct {
	sink *Sink
}

func NewRenderer(sink *Sink) *Renderer {
	return &Renderer{sink: sink}
}

// Emit encodes rec and writes it as one flushed line.
func (r *Renderer) Emit(rec models.SpanRecord) error {
	line, err := EncodeLine(rec)
	if err != nil {
		return err
	}
	return r.sink.WriteLine(line)
}

// Announce writes a "Received request for <target>" line.
func (r *Renderer) Announce(target string) error {
	return r.sink.WriteLine([]byte("Received request for " + target))
}
