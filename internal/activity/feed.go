// Package activity keeps the bounded, newest-first event history shown in
// the feed panel. Nothing here is persisted; the feed exists only for the
// lifetime of the process.
package activity

import (
	"sync"

	"github.com/deckwatch/deckwatch/internal/model"
	"github.com/jonboulle/clockwork"
)

// Feed is a capped history of human-readable events, newest first.
type Feed struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	cap     int
	entries []model.FeedEntry
}

// NewFeed returns a feed capped at model.MaxFeedEntries.
func NewFeed(clock clockwork.Clock) *Feed {
	return NewFeedWithCap(clock, model.MaxFeedEntries)
}

// NewFeedWithCap returns a feed with an explicit capacity.
func NewFeedWithCap(clock clockwork.Clock, capacity int) *Feed {
	if capacity < 1 {
		capacity = 1
	}
	return &Feed{
		clock:   clock,
		cap:     capacity,
		entries: make([]model.FeedEntry, 0, capacity),
	}
}

// Append prepends a new entry stamped with the current time and evicts from
// the tail until the cap holds.
func (f *Feed) Append(message string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entry := model.FeedEntry{At: f.clock.Now(), Message: message}
	f.entries = append([]model.FeedEntry{entry}, f.entries...)
	if len(f.entries) > f.cap {
		f.entries = f.entries[:f.cap]
	}
}

// Entries returns a copy of the feed, newest first.
func (f *Feed) Entries() []model.FeedEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.FeedEntry(nil), f.entries...)
}

// Len returns the current entry count.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}
