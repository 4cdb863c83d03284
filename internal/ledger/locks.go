package ledger

import (
	"sort"
	"sync"
)

// accountLocks hands out one mutex per account number. Entries are reference
// counted and dropped once nobody holds or waits on them.
type accountLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newAccountLocks() *accountLocks {
	return &accountLocks{entries: make(map[string]*lockEntry)}
}

// lock acquires the mutexes for all given account numbers in ascending order
// and returns the function that releases them. Duplicates are collapsed.
func (l *accountLocks) lock(numbers ...string) (unlock func()) {
	keys := sortedUnique(numbers)

	held := make([]*lockEntry, 0, len(keys))
	for _, key := range keys {
		l.mu.Lock()
		e, ok := l.entries[key]
		if !ok {
			e = &lockEntry{}
			l.entries[key] = e
		}
		e.refs++
		l.mu.Unlock()

		e.mu.Lock()
		held = append(held, e)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()
			l.mu.Lock()
			held[i].refs--
			if held[i].refs == 0 {
				delete(l.entries, keys[i])
			}
			l.mu.Unlock()
		}
	}
}

func (l *accountLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func sortedUnique(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	j := 0
	for i := range out {
		if i == 0 || out[i] != out[j-1] {
			out[j] = out[i]
			j++
		}
	}
	return out[:j]
}
