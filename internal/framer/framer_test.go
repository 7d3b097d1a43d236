package framer

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkReader returns its chunks one per Read call, regardless of the
// buffer size offered, to simulate arbitrary stream splitting.
type chunkReader struct {
	chunks []string
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	chunk := r.chunks[0]
	if len(chunk) > len(p) {
		n := copy(p, chunk)
		r.chunks[0] = chunk[n:]
		return n, nil
	}
	r.chunks = r.chunks[1:]
	return copy(p, chunk), nil
}

func drain(t *testing.T, f *Framer) []string {
	t.Helper()
	var lines []string
	for {
		line, err := f.Next()
		if err != nil {
			require.Equal(t, io.EOF, err)
			return lines
		}
		lines = append(lines, line)
	}
}

func TestChunkingInvariance(t *testing.T) {
	tests := []struct {
		name   string
		chunks []string
	}{
		{name: "single_read", chunks: []string{"AB\nCD\n"}},
		{name: "split_mid_line", chunks: []string{"A", "B\n", "C", "D\n"}},
		{name: "split_at_terminator", chunks: []string{"AB", "\n", "CD", "\n"}},
		{name: "byte_at_a_time", chunks: []string{"A", "B", "\n", "C", "D", "\n"}},
		{name: "coalesced_with_partial", chunks: []string{"AB\nC", "D\n"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(&chunkReader{chunks: tt.chunks}, 100)
			assert.Equal(t, []string{"AB", "CD"}, drain(t, f))
		})
	}
}

func TestCarriageReturnStripped(t *testing.T) {
	f := New(strings.NewReader("one\r\ntwo\nthree\r\n"), 100)
	assert.Equal(t, []string{"one", "two", "three"}, drain(t, f))
}

func TestUnterminatedTrailingLineNotEmitted(t *testing.T) {
	f := New(strings.NewReader("complete\npartial"), 100)
	assert.Equal(t, []string{"complete"}, drain(t, f))
}

func TestOverflowDropsAndResyncs(t *testing.T) {
	// 40 bytes with no terminator overflow a 16-byte buffer; the next
	// terminated line must still come through.
	input := strings.Repeat("x", 40) + "after\n"
	f := New(strings.NewReader(input), 16)

	lines := drain(t, f)
	require.Len(t, lines, 1)
	// Whatever tail of the oversized run survived the final drop is glued
	// to the next line; the framer must resync at the terminator.
	assert.True(t, strings.HasSuffix(lines[0], "after"))
}

func TestNonUTF8LineSkipped(t *testing.T) {
	input := "good\n\xff\xfe\xfd\nalso good\n"
	f := New(strings.NewReader(input), 100)
	assert.Equal(t, []string{"good", "also good"}, drain(t, f))
}

func TestEmptyLines(t *testing.T) {
	f := New(strings.NewReader("\n\na\n"), 100)
	assert.Equal(t, []string{"", "", "a"}, drain(t, f))
}

func TestReadErrorPropagates(t *testing.T) {
	readErr := errors.New("boom")
	f := New(io.MultiReader(strings.NewReader("one\n"), &failReader{err: readErr}), 100)

	line, err := f.Next()
	require.NoError(t, err)
	assert.Equal(t, "one", line)

	_, err = f.Next()
	assert.Equal(t, readErr, err)

	// Framer is not resumable after an error.
	_, err = f.Next()
	assert.Equal(t, readErr, err)
}

type failReader struct {
	err error
}

func (r *failReader) Read([]byte) (int, error) {
	return 0, r.err
}

func TestStream(t *testing.T) {
	var lines []string
	err := Stream(strings.NewReader("a\nb\nc"), 100, func(line string) {
		lines = append(lines, line)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, lines)
}

func TestStreamReturnsReadError(t *testing.T) {
	readErr := errors.New("torn pipe")
	err := Stream(&failReader{err: readErr}, 100, func(string) {
		t.Fatal("no lines expected")
	})
	assert.Equal(t, readErr, err)
}
