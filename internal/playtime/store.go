package playtime

import (
	"fmt"
	"os"

	"github.com/bytedance/sonic"
)

// Store holds cumulative online milliseconds per player and persists them
// as a JSON object to a single file. The in-memory totals are authoritative;
// a failed write is reported but does not roll anything back.
type Store struct {
	path   string
	Totals map[string]int64 `json:"play_times"`
}

// LoadStore reads the store file at path. A missing file yields an empty
// store; a malformed file is an error (the caller treats it as fatal rather
// than silently zeroing everyone's history).
func LoadStore(path string) (*Store, error) {
	s := &Store{
		path:   path,
		Totals: make(map[string]int64),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read playtime store: %w", err)
	}

	if err := sonic.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse playtime store %s: %w", path, err)
	}
	if s.Totals == nil {
		s.Totals = make(map[string]int64)
	}
	return s, nil
}

// Ensure creates a zero-valued entry for player if none exists.
func (s *Store) Ensure(player string) {
	if _, ok := s.Totals[player]; !ok {
		s.Totals[player] = 0
	}
}

// Add accumulates ms onto the player's total.
func (s *Store) Add(player string, ms int64) {
	s.Totals[player] += ms
}

// Get returns the player's cumulative milliseconds.
func (s *Store) Get(player string) int64 {
	return s.Totals[player]
}

// Save rewrites the store file wholesale.
func (s *Store) Save() error {
	data, err := sonic.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal playtime store: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write playtime store: %w", err)
	}
	return nil
}
