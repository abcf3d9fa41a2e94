// Package intake validates OTLP/HTTP trace export requests before handing
// their payload to the envelope walker.
package intake

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	apperrors "github.com/liamcoop/spanecho/internal/errors"
	"github.com/liamcoop/spanecho/internal/envelope"
)

const ContentTypeProtobuf = "application/x-protobuf"

// DefaultMaxBodyBytes bounds the decompressed payload when no limit is configured.
const DefaultMaxBodyBytes = 4 << 20

type Endpoint struct {
	walker       *envelope.Walker
	maxBodyBytes int64
}

func NewEndpoint(walker *envelope.Walker, maxBodyBytes int64) *Endpoint {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &Endpoint{
		walker:       walker,
		maxBodyBytes: maxBodyBytes,
	}
}

// Handle validates the request metadata, decodes body and renders its spans.
// It stops at the first failed check. A nil error means the caller should
// reply 202 Accepted with an empty body.
func (e *Endpoint) Handle(header http.Header, body []byte) (int, error) {
	if len(body) == 0 {
		return 0, apperrors.Validation("empty body")
	}

	if err := checkContentLength(header, len(body)); err != nil {
		return 0, err
	}

	contentType, err := SingleHeaderValue(header, "Content-Type")
	if err != nil {
		return 0, err
	}
	if contentType != ContentTypeProtobuf {
		return 0, apperrors.Validation("unsupported Content-Type %q, expected %q", contentType, ContentTypeProtobuf)
	}

	payload, err := e.decodeContent(header, body)
	if err != nil {
		return 0, err
	}

	return e.walker.WalkBytes(payload)
}

func checkContentLength(header http.Header, actual int) error {
	raw, err := SingleHeaderValue(header, "Content-Length")
	if err != nil {
		return err
	}

	declared, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return apperrors.Validation("invalid Content-Length %q", raw)
	}
	if declared != actual {
		return apperrors.Validation("Content-Length %d does not match body length %d", declared, actual)
	}
	return nil
}

func (e *Endpoint) decodeContent(header http.Header, body []byte) ([]byte, error) {
	encoding, ok, err := optionalHeaderValue(header, "Content-Encoding")
	if err != nil {
		return nil, err
	}
	if !ok {
		return body, nil
	}

	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		return body, nil
	case "gzip":
		return e.gunzip(body)
	default:
		return nil, apperrors.Validation("unsupported Content-Encoding %q", encoding)
	}
}

func (e *Endpoint) gunzip(body []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, &apperrors.MalformedPayloadError{Err: fmt.Errorf("gzip: %w", err)}
	}
	defer zr.Close()

	out, err := io.ReadAll(io.LimitReader(zr, e.maxBodyBytes+1))
	if err != nil {
		return nil, &apperrors.MalformedPayloadError{Err: fmt.Errorf("gzip: %w", err)}
	}
	if int64(len(out)) > e.maxBodyBytes {
		return nil, apperrors.Validation("decompressed body exceeds %d bytes", e.maxBodyBytes)
	}
	return out, nil
}
