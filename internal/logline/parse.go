// Package logline parses the structured console log format emitted by the
// game server:
//
//	[HH:MM:SS] [source] [label]: content
//
// Positions are checked structurally rather than by generic splitting, so a
// line either parses completely or is rejected with a specific error.
package logline

import (
	"errors"
	"unicode/utf8"
)

var (
	ErrTooShort       = errors.New("line shorter than minimum header")
	ErrInvalidFormat  = errors.New("invalid header format")
	ErrNoSourceEnd    = errors.New("no closing bracket for source segment")
	ErrNoLabelEnd     = errors.New("no closing bracket for label segment")
	ErrEmptyContent   = errors.New("empty or missing content")
	ErrLabelNotUTF8   = errors.New("label is not valid UTF-8")
	ErrContentNotUTF8 = errors.New("content is not valid UTF-8")
)

// Record is a parsed log line. Label and Content are substring views of the
// input line; no copies are made.
type Record struct {
	Label   string
	Content string
}

// minHeaderLen covers "[HH:MM:SS] [" plus one byte of source segment.
const minHeaderLen = 13

// Parse extracts the label and content from a log line. It is total: any
// input returns either a Record or one of the sentinel errors above.
func Parse(line string) (Record, error) {
	if len(line) < minHeaderLen {
		return Record{}, ErrTooShort
	}

	// The header must look like "[__:__:__] [".
	if line[0] != '[' ||
		line[3] != ':' ||
		line[6] != ':' ||
		line[9] != ']' ||
		line[10] != ' ' ||
		line[11] != '[' {
		return Record{}, ErrInvalidFormat
	}

	// Find the closing bracket of the source segment; the label starts
	// 3 bytes after it (skipping "] [").
	srcEnd := indexByte(line, 12, ']')
	if srcEnd < 0 {
		return Record{}, ErrNoSourceEnd
	}
	labelStart := srcEnd + 3
	if len(line) <= labelStart {
		return Record{}, ErrNoLabelEnd
	}

	labelEnd := indexByte(line, labelStart, ']')
	if labelEnd < 0 {
		return Record{}, ErrNoLabelEnd
	}

	// Content starts 3 bytes after the label's bracket (skipping "]: ").
	contentStart := labelEnd + 3
	if len(line) <= contentStart {
		return Record{}, ErrEmptyContent
	}

	label := line[labelStart:labelEnd]
	content := line[contentStart:]
	if !utf8.ValidString(label) {
		return Record{}, ErrLabelNotUTF8
	}
	if !utf8.ValidString(content) {
		return Record{}, ErrContentNotUTF8
	}

	return Record{Label: label, Content: content}, nil
}

// indexByte returns the absolute index of the first occurrence of c in s at
// or after from, or -1.
func indexByte(s string, from int, c byte) int {
	for i := from; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}
