package render

import (
	"bytes"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otlptrace "go.opentelemetry.io/proto/otlp/trace/v1"

	apperrors "github.com/liamcoop/spanecho/internal/errors"
	"github.com/liamcoop/spanecho/internal/models"
)

// Helper to build a sequence 0x00, 0x01, ... of length n
func seqBytes(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func strPtr(s string) *string {
	return &s
}

func TestFormatID(t *testing.T) {
	tests := []struct {
		name     string
		id       []byte
		expected *string
	}{
		{"nil", nil, nil},
		{"empty", []byte{}, nil},
		{"trace id", seqBytes(16), strPtr("000102030405060708090a0b0c0d0e0f")},
		{"span id", seqBytes(8), strPtr("0001020304050607")},
		{"uppercase digits rendered lowercase", []byte{0xAB, 0xCD, 0xEF}, strPtr("abcdef")},
		{"odd length passes through", []byte{0xff}, strPtr("ff")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatID(tt.id))
		})
	}
}

func TestFormatIDLength(t *testing.T) {
	hexRe := regexp.MustCompile(`^[0-9a-f]*$`)
	for n := 1; n <= 40; n++ {
		b := make([]byte, n)
		for i := range b {
			b[i] = byte(255 - i*7)
		}
		got := FormatID(b)
		require.NotNil(t, got)
		assert.Len(t, *got, 2*n)
		assert.Regexp(t, hexRe, *got)
	}
}

func TestKindName(t *testing.T) {
	tests := []struct {
		kind     models.SpanKind
		expected string
	}{
		{otlptrace.Span_SPAN_KIND_UNSPECIFIED, "unspecified"},
		{otlptrace.Span_SPAN_KIND_INTERNAL, "internal"},
		{otlptrace.Span_SPAN_KIND_CLIENT, "client"},
		{otlptrace.Span_SPAN_KIND_SERVER, "server"},
		{otlptrace.Span_SPAN_KIND_PRODUCER, "producer"},
		{otlptrace.Span_SPAN_KIND_CONSUMER, "consumer"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			name, err := KindName(tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, name)
		})
	}
}

func TestKindNameUnknown(t *testing.T) {
	for _, code := range []int32{6, 7, -1, 1000} {
		_, err := KindName(models.SpanKind(code))
		require.Error(t, err)

		var de *apperrors.DecodeError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, int64(code), de.Value)
	}
}

func TestFlagsString(t *testing.T) {
	tests := []struct {
		name     string
		flags    uint32
		expected string
	}{
		{"zero", 0, "0"},
		{"sampled trace flag only", 0x01, "1"},
		{"has is remote", 0x100, "256 (HAS_IS_REMOTE)"},
		{"is remote without has", 0x200, "512 (IS_REMOTE)"},
		{"both", 0x300, "768 (HAS_IS_REMOTE | IS_REMOTE)"},
		{"both plus sampled", 0x301, "769 (HAS_IS_REMOTE | IS_REMOTE)"},
		{"unknown high bits ignored", 0x80000100, "2147483904 (HAS_IS_REMOTE)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FlagsString(tt.flags))
		})
	}
}

func TestNewSpanRecordAndEncode(t *testing.T) {
	span := &models.ProtoSpan{
		Name:    "root",
		Kind:    otlptrace.Span_SPAN_KIND_CLIENT,
		TraceId: seqBytes(16),
		SpanId:  seqBytes(8),
		Flags:   0x300,
	}

	rec, err := NewSpanRecord(span)
	require.NoError(t, err)
	assert.Nil(t, rec.ParentSpanID)

	line, err := EncodeLine(rec)
	require.NoError(t, err)
	assert.Equal(t,
		`{"Span":{"name":"root","kind":"client","traceId":"000102030405060708090a0b0c0d0e0f","id":"0001020304050607","parentSpanId":null,"flags":"768 (HAS_IS_REMOTE | IS_REMOTE)"}}`+"\n",
		string(line))

	again, err := EncodeLine(rec)
	require.NoError(t, err)
	assert.Equal(t, line, again, "encoding is idempotent")
}

func TestNewSpanRecordUnknownKind(t *testing.T) {
	_, err := NewSpanRecord(&models.ProtoSpan{Name: "bad", Kind: models.SpanKind(9)})
	assert.True(t, apperrors.IsDecode(err))
}

func TestEncodeLineText(t *testing.T) {
	t.Run("html characters are kept", func(t *testing.T) {
		line, err := EncodeLine(models.SpanRecord{Name: "<a&b>", Kind: "internal", Flags: "0"})
		require.NoError(t, err)
		assert.Contains(t, string(line), `"name":"<a&b>"`)
	})

	t.Run("invalid utf-8 is substituted", func(t *testing.T) {
		line, err := EncodeLine(models.SpanRecord{Name: "ok\xffok", Kind: "internal", Flags: "0"})
		require.NoError(t, err)
		assert.Contains(t, string(line), `"name":"ok\ufffdok"`)
	})

	t.Run("single line", func(t *testing.T) {
		line, err := EncodeLine(models.SpanRecord{Name: "multi\nline", Kind: "server", Flags: "0"})
		require.NoError(t, err)
		assert.Equal(t, 1, strings.Count(string(line), "\n"))
		assert.True(t, strings.HasSuffix(string(line), "}}\n"))
	})
}

// writeRecorder keeps every Write call separately
type writeRecorder struct {
	mu     sync.Mutex
	writes []string
}

func (w *writeRecorder) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writes = append(w.writes, string(p))
	return len(p), nil
}

func TestSinkWriteLine(t *testing.T) {
	rec := &writeRecorder{}
	sink := NewSink(rec)

	require.NoError(t, sink.WriteLine([]byte("first")))
	require.NoError(t, sink.WriteLine([]byte("second\n")))

	assert.Equal(t, []string{"first\n", "second\n"}, rec.writes, "each line is flushed in one write")
}

func TestSinkConcurrentLines(t *testing.T) {
	rec := &writeRecorder{}
	sink := NewSink(rec)

	const writers, perWriter = 8, 50
	line := strings.Repeat("x", 200)

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				_ = sink.WriteLine([]byte(line))
			}
		}()
	}
	wg.Wait()

	require.Len(t, rec.writes, writers*perWriter)
	for _, w := range rec.writes {
		assert.Equal(t, line+"\n", w)
	}
}

func TestRenderer(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(NewSink(&buf))

	require.NoError(t, r.Announce("/v1/traces"))
	require.NoError(t, r.Emit(models.SpanRecord{Name: "a", Kind: "server", ID: strPtr("01"), Flags: "0"}))

	assert.Equal(t,
		"Received request for /v1/traces\n"+
			`{"Span":{"name":"a","kind":"server","traceId":null,"id":"01","parentSpanId":null,"flags":"0"}}`+"\n",
		buf.String())
}
