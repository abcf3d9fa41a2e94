package render

import "encoding/hex"

// FormatID renders a trace or span id as lowercase hex in stored byte order.
// An empty id yields nil. Lengths are not checked.
func FormatID(id []byte) *string {
	if len(id) == 0 {
		return nil
	}
	s := hex.EncodeToString(id)
	return &s
}
