// Package envelope decodes OTLP trace export requests and renders every span
// they carry, in wire order.
package envelope

import (
	"fmt"
	"log/slog"

	"google.golang.org/protobuf/proto"

	apperrors "github.com/liamcoop/spanecho/internal/errors"
	"github.com/liamcoop/spanecho/internal/models"
	"github.com/liamcoop/spanecho/internal/render"
)

type Walker struct {
	renderer *render.Renderer
	logger   *slog.Logger
}

func NewWalker(renderer *render.Renderer, logger *slog.Logger) *Walker {
	return &Walker{
		renderer: renderer,
		logger:   logger,
	}
}

// WalkBytes decodes raw as an ExportTraceServiceRequest and renders its spans.
func (w *Walker) WalkBytes(raw []byte) (int, error) {
	var traceData models.ExportTraceServiceRequest

	if err := proto.Unmarshal(raw, &traceData); err != nil {
		return 0, &apperrors.MalformedPayloadError{Err: err}
	}

	return w.Walk(&traceData)
}

// Walk renders every span of req and returns how many lines were written.
// All spans are converted before the first line is written, so a request with
// an undecodable span produces no output at all.
func (w *Walker) Walk(req *models.ExportTraceServiceRequest) (int, error) {
	records, err := collect(req)
	if err != nil {
		return 0, err
	}

	for i, rec := range records {
		if err := w.renderer.Emit(rec); err != nil {
			return i, err
		}
	}

	w.logger.Debug("Rendered export request",
		slog.Int("resource_spans", len(req.GetResourceSpans())),
		slog.Int("spans", len(records)),
	)
	return len(records), nil
}

// collect flattens resource -> scope -> span, keeping the order of each level.
func collect(req *models.ExportTraceServiceRequest) ([]models.SpanRecord, error) {
	var records []models.SpanRecord

	for ri, resourceSpans := range req.GetResourceSpans() {
		for si, scopeSpans := range resourceSpans.GetScopeSpans() {
			for pi, span := range scopeSpans.GetSpans() {
				rec, err := render.NewSpanRecord(span)
				if err != nil {
					return nil, fmt.Errorf("resource %d scope %d span %d: %w", ri, si, pi, err)
				}
				records = append(records, rec)
			}
		}
	}

	return records, nil
}
