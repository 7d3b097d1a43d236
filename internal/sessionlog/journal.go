// Package sessionlog appends join/leave timing records to a diagnostic
// JSONL file. The file is write-only: nothing in the daemon reads it back.
package sessionlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type record struct {
	Event     string `json:"event"`
	Player    string `json:"player"`
	At        string `json:"at"`
	LoginAt   string `json:"login_at,omitempty"`
	ElapsedMs int64  `json:"elapsed_ms,omitempty"`
}

// Journal holds an open append handle to the diagnostic log.
type Journal struct {
	path   string
	file   *os.File
}

func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create session log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open session log: %w", err)
	}
	return &Journal{path: path, file: file}, nil
}

// RecordJoin appends a join record. Write failures are swallowed: the
// journal is diagnostic only.
func (j *Journal) RecordJoin(player string, at time.Time) {
	j.write(record{
		Event:  "join",
		Player: player,
		At:     at.UTC().Format(time.RFC3339Nano),
	})
}

// RecordLeave appends a leave record with the session's timing.
func (j *Journal) RecordLeave(player string, loginAt time.Time, elapsed time.Duration) {
	j.write(record{
		Event:     "leave",
		Player:    player,
		At:        time.Now().UTC().Format(time.RFC3339Nano),
		LoginAt:   loginAt.UTC().Format(time.RFC3339Nano),
		ElapsedMs: elapsed.Milliseconds(),
	})
}

func (j *Journal) write(rec record) {
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if _, err := j.file.Write(data); err != nil {
		return
	}
	_, _ = j.file.WriteString("\n")
}

func (j *Journal) Close() error {
	return j.file.Close()
}
