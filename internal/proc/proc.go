// Package proc scans /proc to find running processes by command line. The
// status subcommand uses it to tell whether a server process is up without
// talking to the daemon.
package proc

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Entry struct {
	Pid     int
	Comm    string
	Cmdline string
}

type Snapshot struct {
	entries []Entry
}

func TakeSnapshot() *Snapshot {
	var entries []Entry

	dirs, err := os.ReadDir("/proc")
	if err != nil {
		return &Snapshot{}
	}

	for _, dir := range dirs {
		if !dir.IsDir() {
			continue
		}
		pid, ok := parsePID(dir.Name())
		if !ok {
			continue
		}

		stat, err := os.ReadFile(filepath.Join("/proc", dir.Name(), "stat"))
		if err != nil {
			continue
		}
		comm, ok := parseComm(string(stat))
		if !ok {
			continue
		}

		entries = append(entries, Entry{
			Pid:     pid,
			Comm:    comm,
			Cmdline: readCmdline(pid),
		})
	}

	return &Snapshot{entries: entries}
}

// MatchCmdline returns every process whose command line (or comm, when the
// command line is unreadable) contains substr, case-insensitively.
func (s *Snapshot) MatchCmdline(substr string) []Entry {
	if substr == "" {
		return nil
	}
	needle := strings.ToLower(substr)

	var matches []Entry
	for _, entry := range s.entries {
		haystack := strings.ToLower(entry.Cmdline)
		if haystack == "" {
			haystack = strings.ToLower(entry.Comm)
		}
		if strings.Contains(haystack, needle) {
			matches = append(matches, entry)
		}
	}
	return matches
}

func parsePID(name string) (int, bool) {
	if name == "" {
		return 0, false
	}
	for _, ch := range name {
		if ch < '0' || ch > '9' {
			return 0, false
		}
	}
	pid, err := strconv.Atoi(name)
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// parseComm extracts the parenthesised comm field from /proc/<pid>/stat.
func parseComm(stat string) (string, bool) {
	lparen := strings.Index(stat, "(")
	rparen := strings.LastIndex(stat, ")")
	if lparen == -1 || rparen == -1 || rparen <= lparen {
		return "", false
	}
	return stat[lparen+1 : rparen], true
}

func readCmdline(pid int) string {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/cmdline", pid))
	if err != nil || len(data) == 0 {
		return ""
	}
	var fields []string
	for _, part := range strings.Split(string(data), "\x00") {
		if part == "" {
			continue
		}
		fields = append(fields, part)
	}
	return strings.Join(fields, " ")
}
