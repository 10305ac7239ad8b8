package content

import (
	"strings"
	"sync"
)

// Store exposes informational replies to the dispatcher.
type Store interface {
	List() []Entry
	Match(text string) (Entry, bool)
}

// MemoryStore implements Store with an in-memory slice that can be swapped
// atomically when the content file changes.
type MemoryStore struct {
	mu    sync.RWMutex
	items []Entry
	index map[string]int
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied entries.
func NewMemoryStore(items []Entry) *MemoryStore {
	s := &MemoryStore{}
	s.Replace(items)
	return s
}

// List returns the loaded entries.
func (s *MemoryStore) List() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry(nil), s.items...)
}

// Match looks up the entry whose keyword equals the trimmed text. Commands
// also match with a "@botname" suffix.
func (s *MemoryStore) Match(text string) (Entry, bool) {
	key := normalizeKeyword(text)

	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[key]
	if !ok {
		return Entry{}, false
	}
	return s.items[i], true
}

// Replace swaps the whole entry set. Earlier entries win on keyword clashes.
func (s *MemoryStore) Replace(items []Entry) {
	copied := append([]Entry(nil), items...)
	index := make(map[string]int, len(copied))
	for i, item := range copied {
		for _, kw := range item.Keywords {
			key := normalizeKeyword(kw)
			if _, taken := index[key]; !taken {
				index[key] = i
			}
		}
	}

	s.mu.Lock()
	s.items = copied
	s.index = index
	s.mu.Unlock()
}

func normalizeKeyword(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "/") {
		if at := strings.IndexByte(text, '@'); at > 0 {
			text = text[:at]
		}
		return strings.ToLower(text)
	}
	return text
}
