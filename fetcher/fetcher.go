package fetcher

import (
	"context"
	"time"
)

// Feed represents a parsed syndication document
type Feed struct {
	Title       string
	Description string
	Entries     []Entry
}

// Entry represents a single item in a feed
type Entry struct {
	Title       string
	Link        string
	Description string
	Published   string    // Display string as the feed provided it
	PublishedAt time.Time // Parsed timestamp, falls back to fetch time
}

// FeedFetcher is an interface for fetching feeds from different sources
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) (Feed, error)
}

// Latest returns the newest entry of the feed. Feeds list entries
// newest first, so this is the head of the list.
func (f Feed) Latest() (Entry, bool) {
	if len(f.Entries) == 0 {
		return Entry{}, false
	}
	return f.Entries[0], true
}
