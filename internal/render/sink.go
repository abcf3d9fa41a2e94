package render

import (
	"bufio"
	"fmt"
	"io"
	"sync"
)

// Sink is the shared output stream for rendered lines. Each line is written
// and flushed while holding the lock, so concurrent writers never interleave
// partial lines and a reader sees every line as soon as it is written.
type Sink struct {
	mu sync.Mutex
	w  *bufio.Writer
}

func NewSink(w io.Writer) *Sink {
	return &Sink{w: bufio.NewWriter(w)}
}

// WriteLine writes line, adding a trailing newline if it lacks one, and flushes.
func (s *Sink) WriteLine(line []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.w.Write(line); err != nil {
		return fmt.Errorf("failed to write line: %w", err)
	}
	if len(line) == 0 || line[len(line)-1] != '\n' {
		if err := s.w.WriteByte('\n'); err != nil {
			return fmt.Errorf("failed to write line: %w", err)
		}
	}
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush line: %w", err)
	}
	return nil
}
