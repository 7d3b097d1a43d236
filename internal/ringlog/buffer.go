// Package ringlog provides a fixed-capacity rolling text buffer: appends
// evict the oldest bytes once the configured byte capacity is reached.
package ringlog

// Buffer accumulates newline-terminated lines up to a byte capacity.
// It is not safe for concurrent use; the orchestrator owns every instance.
type Buffer struct {
	capacity int
	data     []byte
}

func New(capacity int) *Buffer {
	return &Buffer{
		capacity: capacity,
		data:     make([]byte, 0, capacity),
	}
}

// Append adds line (plus its terminating newline) to the buffer. A line
// whose size alone exceeds the capacity is truncated to exactly the
// capacity. Otherwise enough leading bytes are evicted, rounded up to a
// rune boundary, to make room.
func (b *Buffer) Append(line string) {
	needed := len(line) + 1

	if needed > b.capacity {
		b.data = append(b.data[:0], line[:b.capacity]...)
		return
	}

	if overflow := len(b.data) + needed - b.capacity; overflow > 0 {
		drop := overflow
		for drop < len(b.data) && isContinuationByte(b.data[drop]) {
			drop++
		}
		b.data = append(b.data[:0], b.data[drop:]...)
	}

	b.data = append(b.data, line...)
	b.data = append(b.data, '\n')
}

// String returns the buffered text, oldest line first.
func (b *Buffer) String() string {
	return string(b.data)
}

// Len returns the buffered size in bytes.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Capacity returns the configured byte capacity.
func (b *Buffer) Capacity() int {
	return b.capacity
}

// Reset discards all buffered text.
func (b *Buffer) Reset() {
	b.data = b.data[:0]
}

// isContinuationByte reports whether c is a UTF-8 continuation byte
// (0b10xxxxxx), i.e. not a rune boundary.
func isContinuationByte(c byte) bool {
	return c&0xC0 == 0x80
}
