// Package playtime tracks which players are online and accumulates their
// total historical online duration across restarts.
package playtime

import (
	"log"
	"sort"
	"time"
)

// Journal receives join/leave timing details for the write-only diagnostic
// log. Implementations must not block for long; they are called from the
// orchestrator loop.
type Journal interface {
	RecordJoin(player string, at time.Time)
	RecordLeave(player string, loginAt time.Time, elapsed time.Duration)
}

// Entry is one row of a playtime report.
type Entry struct {
	Player string
	Total  time.Duration
}

// Tracker owns the per-player Offline/Online state machine and the
// cumulative store. It is driven only from the orchestrator loop and
// needs no locking.
type Tracker struct {
	store   *Store
	journal Journal
	online  map[string]time.Time
	now     func() time.Time
}

func NewTracker(store *Store, journal Journal) *Tracker {
	return &Tracker{
		store:   store,
		journal: journal,
		online:  make(map[string]time.Time),
		now:     time.Now,
	}
}

// SetClock overrides the time source. Used by tests.
func (t *Tracker) SetClock(now func() time.Time) {
	t.now = now
}

// Join marks the player online. A duplicate join refreshes the login
// instant rather than double counting.
func (t *Tracker) Join(player string) {
	at := t.now()
	t.online[player] = at
	t.store.Ensure(player)
	if t.journal != nil {
		t.journal.RecordJoin(player, at)
	}
}

// Leave marks the player offline, adds the elapsed session duration to the
// cumulative store, and persists the store. A leave with no matching
// session is a no-op. The persisted write failing is logged; the in-memory
// total stays authoritative.
func (t *Tracker) Leave(player string) (time.Duration, bool) {
	loginAt, ok := t.online[player]
	if !ok {
		return 0, false
	}
	delete(t.online, player)

	elapsed := t.now().Sub(loginAt)
	t.store.Add(player, elapsed.Milliseconds())
	if err := t.store.Save(); err != nil {
		log.Printf("Failed to persist playtime store: %v", err)
	}
	if t.journal != nil {
		t.journal.RecordLeave(player, loginAt, elapsed)
	}
	return elapsed, true
}

// IsOnline reports whether the player currently has a session.
func (t *Tracker) IsOnline(player string) bool {
	_, ok := t.online[player]
	return ok
}

// Online returns the sorted names of all online players.
func (t *Tracker) Online() []string {
	names := make([]string, 0, len(t.online))
	for name := range t.online {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OnlineCount returns the number of active sessions.
func (t *Tracker) OnlineCount() int {
	return len(t.online)
}

// Report returns every known player with their current total, online
// players including the elapsed time since login. Entries are sorted
// ascending by total; callers render them reversed (largest first).
func (t *Tracker) Report() []Entry {
	now := t.now()
	entries := make([]Entry, 0, len(t.store.Totals))
	for player, ms := range t.store.Totals {
		total := time.Duration(ms) * time.Millisecond
		if loginAt, ok := t.online[player]; ok {
			total += now.Sub(loginAt)
		}
		entries = append(entries, Entry{Player: player, Total: total})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Total != entries[j].Total {
			return entries[i].Total < entries[j].Total
		}
		return entries[i].Player < entries[j].Player
	})
	return entries
}
