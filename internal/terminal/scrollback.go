package terminal

import (
	"sync"
)

// defaultScrollbackCap is the maximum scrollback buffer size in bytes.
const defaultScrollbackCap = 50_000

// ScrollbackBuffer is a thread-safe byte buffer that retains recent terminal
// output for replay when a viewer joins a running session. When the buffer
// exceeds its cap, older data is trimmed from the front so the most recent
// bytes are always kept.
type ScrollbackBuffer struct {
	mu     sync.Mutex
	data   []byte
	maxLen int
}

// NewScrollbackBuffer creates a scrollback buffer with the given maximum
// size. If maxLen <= 0, defaultScrollbackCap is used.
func NewScrollbackBuffer(maxLen int) *ScrollbackBuffer {
	if maxLen <= 0 {
		maxLen = defaultScrollbackCap
	}
	return &ScrollbackBuffer{maxLen: maxLen}
}

// Write appends data, trimming from the front if the total exceeds the cap.
func (s *ScrollbackBuffer) Write(p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append(s.data, p...)
	if len(s.data) > s.maxLen {
		trimmed := make([]byte, s.maxLen)
		copy(trimmed, s.data[len(s.data)-s.maxLen:])
		s.data = trimmed
	}
}

// Snapshot returns a copy of the current buffer contents.
func (s *ScrollbackBuffer) Snapshot() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]byte, len(s.data))
	copy(result, s.data)
	return result
}

// Len returns the current buffer length.
func (s *ScrollbackBuffer) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}
