package log

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

// CircularBuffer is an [io.Writer] that keeps the most recent writes.
// It holds log output while the terminal UI owns the screen; the entries
// are written out with [CircularBuffer.WriteTo] once the UI exits.
type CircularBuffer struct {
	entries [][]byte
	head    int
	size    int
	mu      sync.RWMutex
}

// NewCircularBuffer creates a new buffer holding up to capacity writes.
func NewCircularBuffer(capacity int) *CircularBuffer {
	if capacity <= 0 {
		capacity = 100
	}

	return &CircularBuffer{
		entries: make([][]byte, capacity),
	}
}

// Write stores a copy of p, overwriting the oldest entry when full.
func (cb *CircularBuffer) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.entries[cb.head] = bytes.Clone(p)
	cb.head = (cb.head + 1) % len(cb.entries)

	if cb.size < len(cb.entries) {
		cb.size++
	}

	return len(p), nil
}

// Entries returns copies of the stored entries, oldest first.
func (cb *CircularBuffer) Entries() [][]byte {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	if cb.size == 0 {
		return nil
	}

	result := make([][]byte, 0, cb.size)
	start := (cb.head - cb.size + len(cb.entries)) % len(cb.entries)

	for i := range cb.size {
		result = append(result, bytes.Clone(cb.entries[(start+i)%len(cb.entries)]))
	}

	return result
}

// Size returns the current number of entries in the buffer.
func (cb *CircularBuffer) Size() int {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	return cb.size
}

// WriteTo writes all current entries to w in chronological order.
func (cb *CircularBuffer) WriteTo(w io.Writer) (int64, error) {
	var total int64

	for _, entry := range cb.Entries() {
		written, err := w.Write(entry)
		total += int64(written)

		if err != nil {
			return total, fmt.Errorf("writing entry: %w", err)
		}
	}

	return total, nil
}
