package envelope

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otlptrace "go.opentelemetry.io/proto/otlp/trace/v1"

	apperrors "github.com/liamcoop/spanecho/internal/errors"
	"github.com/liamcoop/spanecho/internal/models"
	"github.com/liamcoop/spanecho/internal/render"
	"github.com/liamcoop/spanecho/internal/testkit/otlpfakes"
)

// Helper function to create a walker writing into buf
func newTestWalker(buf *bytes.Buffer) *Walker {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewWalker(render.NewRenderer(render.NewSink(buf)), logger)
}

func lines(buf *bytes.Buffer) []string {
	s := strings.TrimSuffix(buf.String(), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func TestWalkBytesSingleSpan(t *testing.T) {
	var buf bytes.Buffer
	w := newTestWalker(&buf)

	n, err := w.WalkBytes(otlpfakes.Marshal(otlpfakes.Request(otlpfakes.RootSpan())))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{otlpfakes.RootSpanLine}, lines(&buf))
}

func TestWalkPreservesNestingOrder(t *testing.T) {
	tests := []struct {
		name                     string
		resources, scopes, spans int
	}{
		{"one of each", 1, 1, 1},
		{"many spans", 1, 1, 7},
		{"many scopes", 1, 4, 2},
		{"full grid", 3, 2, 5},
		{"empty scopes", 2, 3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := newTestWalker(&buf)

			n, err := w.WalkBytes(otlpfakes.Marshal(otlpfakes.Grid(tt.resources, tt.scopes, tt.spans)))
			require.NoError(t, err)

			expected := tt.resources * tt.scopes * tt.spans
			assert.Equal(t, expected, n)

			got := lines(&buf)
			require.Len(t, got, expected)

			i := 0
			for r := 0; r < tt.resources; r++ {
				for s := 0; s < tt.scopes; s++ {
					for p := 0; p < tt.spans; p++ {
						name := `"name":"r` + string(rune('0'+r)) + "/s" + string(rune('0'+s)) + "/p" + string(rune('0'+p)) + `"`
						assert.Contains(t, got[i], name)
						i++
					}
				}
			}
		})
	}
}

func TestWalkBytesEmptyRequest(t *testing.T) {
	var buf bytes.Buffer
	w := newTestWalker(&buf)

	n, err := w.WalkBytes(otlpfakes.Marshal(&models.ExportTraceServiceRequest{}))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, buf.String())
}

func TestWalkBytesMalformed(t *testing.T) {
	var buf bytes.Buffer
	w := newTestWalker(&buf)

	for _, raw := range [][]byte{
		[]byte("not a protobuf"),
		{0x0a, 0x05, 0x01},
		{0xff, 0xff, 0xff},
	} {
		_, err := w.WalkBytes(raw)
		require.Error(t, err)
		assert.True(t, apperrors.IsMalformed(err), "expected malformed payload error, got %v", err)
	}
	assert.Empty(t, buf.String())
}

func TestWalkUnknownKindEmitsNothing(t *testing.T) {
	var buf bytes.Buffer
	w := newTestWalker(&buf)

	req := otlpfakes.Grid(1, 1, 3)
	req.ResourceSpans[0].ScopeSpans[0].Spans[2].Kind = otlptrace.Span_SpanKind(17)

	n, err := w.WalkBytes(otlpfakes.Marshal(req))
	require.Error(t, err)
	assert.True(t, apperrors.IsDecode(err))
	assert.Contains(t, err.Error(), "unexpected span kind: 17")
	assert.Zero(t, n)
	assert.Empty(t, buf.String(), "no partial output for a failed request")
}

func TestWalkTwiceIsIdentical(t *testing.T) {
	var first, second bytes.Buffer
	raw := otlpfakes.Marshal(otlpfakes.Grid(2, 2, 2))

	_, err := newTestWalker(&first).WalkBytes(raw)
	require.NoError(t, err)
	_, err = newTestWalker(&second).WalkBytes(raw)
	require.NoError(t, err)

	assert.Equal(t, first.String(), second.String())
}
