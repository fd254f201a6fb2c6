// Package leaderboard keeps the client's merged view of the leaderboard and
// reports finished sessions to the server.
package leaderboard

import (
	"sort"
	"sync"

	"github.com/VanXodus305/Reaction-Time-Game/internal/apiclient"
	"github.com/VanXodus305/Reaction-Time-Game/internal/difficulty"
)

// Entry is one player's best result. RollNo is the identity.
type Entry struct {
	Name       string
	RollNo     int64
	BestMs     int64
	Difficulty difficulty.Difficulty
}

type View struct {
	mu      sync.Mutex
	entries map[int64]Entry
}

func NewView() *View {
	return &View{
		entries: make(map[int64]Entry),
	}
}

// Merge folds e into the view and returns the stored entry. The lower score
// wins and carries its difficulty; the name always follows the latest entry.
func (v *View) Merge(e Entry) Entry {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.merge(e)
}

func (v *View) merge(e Entry) Entry {
	cur, ok := v.entries[e.RollNo]
	if !ok || e.BestMs < cur.BestMs {
		v.entries[e.RollNo] = e
		return e
	}
	if e.Name != "" {
		cur.Name = e.Name
	}
	v.entries[e.RollNo] = cur
	return cur
}

// MergeAll folds a batch of entries, typically a server fetch.
func (v *View) MergeAll(entries []Entry) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, e := range entries {
		v.merge(e)
	}
}

func (v *View) Get(rollNo int64) (Entry, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	e, ok := v.entries[rollNo]
	return e, ok
}

// List returns all entries, fastest first. Ties keep roll number order.
func (v *View) List() []Entry {
	v.mu.Lock()
	defer v.mu.Unlock()
	list := make([]Entry, 0, len(v.entries))
	for _, e := range v.entries {
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].BestMs != list[j].BestMs {
			return list[i].BestMs < list[j].BestMs
		}
		return list[i].RollNo < list[j].RollNo
	})
	return list
}

// Top returns at most n entries from the head of List.
func (v *View) Top(n int) []Entry {
	list := v.List()
	if n >= 0 && len(list) > n {
		list = list[:n]
	}
	return list
}

// Rank is the 1-based position of rollNo, or 0 if it is not on the board.
func (v *View) Rank(rollNo int64) int {
	for i, e := range v.List() {
		if e.RollNo == rollNo {
			return i + 1
		}
	}
	return 0
}

func (v *View) Count() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.entries)
}

// FromRecords converts server rows into entries.
func FromRecords(recs []apiclient.Record) []Entry {
	out := make([]Entry, 0, len(recs))
	for _, r := range recs {
		out = append(out, Entry{
			Name:       r.User.Name,
			RollNo:     r.RollNo,
			BestMs:     r.Time,
			Difficulty: difficulty.Difficulty(r.Difficulty),
		})
	}
	return out
}

// FromLive converts a live feed message into an entry.
func FromLive(m apiclient.LiveMessage) Entry {
	return Entry{
		Name:       m.Name,
		RollNo:     m.RollNo,
		BestMs:     m.Time,
		Difficulty: difficulty.Difficulty(m.Difficulty),
	}
}
