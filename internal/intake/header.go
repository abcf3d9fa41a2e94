package intake

import (
	"net/http"

	apperrors "github.com/liamcoop/spanecho/internal/errors"
)

// SingleHeaderValue returns the value of a header that must occur exactly once.
func SingleHeaderValue(header http.Header, name string) (string, error) {
	values := header.Values(name)
	if len(values) != 1 {
		return "", apperrors.Validation("expected exactly one %s header, got %d", name, len(values))
	}
	return values[0], nil
}

// optionalHeaderValue is SingleHeaderValue for headers that may be absent.
func optionalHeaderValue(header http.Header, name string) (string, bool, error) {
	values := header.Values(name)
	switch len(values) {
	case 0:
		return "", false, nil
	case 1:
		return values[0], true, nil
	default:
		return "", false, apperrors.Validation("expected at most one %s header, got %d", name, len(values))
	}
}
