package services

import "sync"

// conversationLocks hands out one mutex per conversation id so delivery
// writes to the same conversation serialize while different conversations
// proceed independently. Entries are reference counted and removed when the
// last holder releases, keeping the map bounded by in-flight writes.
type conversationLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newConversationLocks() *conversationLocks {
	return &conversationLocks{entries: make(map[string]*lockEntry)}
}

// Lock blocks until the conversation's mutex is held and returns the release
// function.
func (l *conversationLocks) Lock(conversationID string) func() {
	l.mu.Lock()
	entry, ok := l.entries[conversationID]
	if !ok {
		entry = &lockEntry{}
		l.entries[conversationID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, conversationID)
		}
		l.mu.Unlock()
	}
}
