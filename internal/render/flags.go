package render

import (
	"strconv"
	"strings"

	otlptrace "go.opentelemetry.io/proto/otlp/trace/v1"
)

// Checked in this order; the order is the order names appear in the output.
var flagNames = []struct {
	mask uint32
	name string
}{
	{uint32(otlptrace.SpanFlags_SPAN_FLAGS_CONTEXT_HAS_IS_REMOTE_MASK), "HAS_IS_REMOTE"},
	{uint32(otlptrace.SpanFlags_SPAN_FLAGS_CONTEXT_IS_REMOTE_MASK), "IS_REMOTE"},
}

// FlagsString renders span flags as their decimal value followed by the
// names of the known bits that are set, e.g. "768 (HAS_IS_REMOTE | IS_REMOTE)".
// Unknown bits only show up in the number.
func FlagsString(flags uint32) string {
	result := strconv.FormatUint(uint64(flags), 10)

	var found []string
	for _, f := range flagNames {
		if flags&f.mask != 0 {
			found = append(found, f.name)
		}
	}
	if len(found) == 0 {
		return result
	}
	return result + " (" + strings.Join(found, " | ") + ")"
}
