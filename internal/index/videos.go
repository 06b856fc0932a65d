package index

import (
	"sort"
	"sync"
	"time"

	"github.com/MrSnakeDoc/clipsort/internal/domain"
)

// VideoList is the ordered, in-memory list of videos awaiting triage.
// Entries stay sorted by path; ids and paths are unique.
type VideoList struct {
	mu         sync.RWMutex
	entries    []domain.VideoEntry
	byID       map[string]int // ID -> position in entries
	lastReload time.Time
}

// NewVideoList creates an empty list.
func NewVideoList() *VideoList {
	return &VideoList{byID: make(map[string]int)}
}

// Replace swaps the whole list for entries, e.g. after a scan.
func (l *VideoList) Replace(entries []domain.VideoEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = make([]domain.VideoEntry, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.Path]; dup {
			continue
		}
		seen[e.Path] = struct{}{}
		l.entries = append(l.entries, e)
	}
	sort.SliceStable(l.entries, func(i, j int) bool { return l.entries[i].Path < l.entries[j].Path })
	l.reindex()
	l.lastReload = time.Now()
}

// Clear empties the list.
func (l *VideoList) Clear() {
	l.Replace(nil)
}

// All returns a copy of the entries in order.
func (l *VideoList) All() []domain.VideoEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.VideoEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *VideoList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.entries)
}

// At returns the entry at position i.
func (l *VideoList) At(i int) (domain.VideoEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if i < 0 || i >= len(l.entries) {
		return domain.VideoEntry{}, false
	}
	return l.entries[i], true
}

// IndexOf returns the position of the entry with id.
func (l *VideoList) IndexOf(id string) (int, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	i, ok := l.byID[id]
	return i, ok
}

// FindByPath returns the position of the entry whose path is path.
func (l *VideoList) FindByPath(path string) (int, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.findByPath(path)
}

// Insert adds e at its sorted position. It returns the position and
// false when an entry with the same path is already listed.
func (l *VideoList) Insert(e domain.VideoEntry) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if i, ok := l.findByPath(e.Path); ok {
		return i, false
	}
	i := sort.Search(len(l.entries), func(i int) bool { return l.entries[i].Path >= e.Path })
	l.entries = append(l.entries, domain.VideoEntry{})
	copy(l.entries[i+1:], l.entries[i:])
	l.entries[i] = e
	l.reindex()
	return i, true
}

// Remove deletes the entry with id and returns its former position.
func (l *VideoList) Remove(id string) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i, ok := l.byID[id]
	if !ok {
		return -1, false
	}
	l.entries = append(l.entries[:i], l.entries[i+1:]...)
	l.reindex()
	return i, true
}

// Paths returns every listed path, in order.
func (l *VideoList) Paths() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]string, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Path
	}
	return out
}

// LastReload returns when Replace last ran.
func (l *VideoList) LastReload() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.lastReload
}

func (l *VideoList) findByPath(path string) (int, bool) {
	i := sort.Search(len(l.entries), func(i int) bool { return l.entries[i].Path >= path })
	if i < len(l.entries) && l.entries[i].Path == path {
		return i, true
	}
	return -1, false
}

// reindex rebuilds byID; callers hold the write lock.
func (l *VideoList) reindex() {
	l.byID = make(map[string]int, len(l.entries))
	for i, e := range l.entries {
		l.byID[e.ID] = i
	}
}
