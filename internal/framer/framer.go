// Package framer reassembles newline-delimited text lines from a raw byte
// stream whose reads may split or coalesce lines arbitrarily.
package framer

import (
	"io"
	"log"
	"unicode/utf8"
)

// DefaultBufferSize is the working buffer capacity used when none is given.
const DefaultBufferSize = 1000

// Framer pulls complete lines out of an io.Reader. A line is terminated by
// '\n'; a '\r' immediately before it is stripped. The working buffer has a
// fixed capacity: if it fills without a terminator the accumulated bytes are
// dropped and accumulation restarts from empty. A Framer is not resumable
// after Next returns an error; create a new one.
type Framer struct {
	r       io.Reader
	buf     []byte
	used    int
	pending []string
	err     error
}

func New(r io.Reader, bufferSize int) *Framer {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Framer{
		r:   r,
		buf: make([]byte, bufferSize),
	}
}

// Next returns the next complete line. It blocks on the underlying reader
// until a terminator arrives. At end of stream it returns io.EOF; an
// unterminated trailing partial line is never emitted. Lines that do not
// decode as UTF-8 are skipped.
func (f *Framer) Next() (string, error) {
	for {
		if len(f.pending) > 0 {
			line := f.pending[0]
			f.pending = f.pending[1:]
			return line, nil
		}
		if f.err != nil {
			return "", f.err
		}

		// Drop data if the buffer fills without a terminator.
		if f.used == len(f.buf) {
			log.Printf("framer: buffer filled with no line terminator, dropping %d bytes", f.used)
			f.used = 0
		}

		n, err := f.r.Read(f.buf[f.used:])
		oldUsed := f.used
		f.used += n

		// Extract completed lines from the newly read region.
		lineStart := 0
		for i := oldUsed; i < f.used; i++ {
			if f.buf[i] != '\n' {
				continue
			}
			lineEnd := i
			if lineStart < i && f.buf[i-1] == '\r' {
				lineEnd = i - 1
			}
			raw := f.buf[lineStart:lineEnd]
			if !utf8.Valid(raw) {
				log.Printf("framer: dropping non-UTF8 line (%d bytes)", len(raw))
			} else {
				f.pending = append(f.pending, string(raw))
			}
			lineStart = i + 1
		}

		// Shift the unconsumed partial line to the front.
		f.used -= lineStart
		copy(f.buf, f.buf[lineStart:lineStart+f.used])

		if err != nil {
			f.err = err
		}
	}
}

// Stream drains r through a Framer, calling emit for each complete line.
// It returns nil at end of stream and the read error otherwise.
func Stream(r io.Reader, bufferSize int, emit func(line string)) error {
	f := New(r, bufferSize)
	for {
		line, err := f.Next()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		emit(line)
	}
}
