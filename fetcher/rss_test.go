package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/scipunch/geosite/cache"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>World Watch</title>
    <description>Global affairs coverage</description>
    <item>
      <title>Sanctions &amp;amp; Security</title>
      <link>https://example.com/articles/sanctions</link>
      <description>An overview of the latest &amp;amp; greatest developments.</description>
      <pubDate>Mon, 24 Aug 2026 09:30:00 +0000</pubDate>
    </item>
    <item>
      <title>Older Story</title>
      <link>https://example.com/articles/older</link>
      <description>Yesterday's news.</description>
      <pubDate>Sun, 23 Aug 2026 08:00:00 +0000</pubDate>
    </item>
  </channel>
</rss>`

const emptyFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Quiet Feed</title>
    <description>Nothing yet</description>
  </channel>
</rss>`

const undatedFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Undated</title>
    <item>
      <title>No Timestamp</title>
      <link>https://example.com/articles/undated</link>
      <description>Whenever.</description>
    </item>
  </channel>
</rss>`

func serveFeed(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRSSFetch(t *testing.T) {
	srv := serveFeed(t, feedXML)

	feed, err := NewRSS().Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if feed.Title != "World Watch" {
		t.Errorf("Feed title mismatch: got %q", feed.Title)
	}
	if len(feed.Entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(feed.Entries))
	}

	entry, ok := feed.Latest()
	if !ok {
		t.Fatal("Expected a latest entry")
	}
	if entry.Title != "Sanctions & Security" {
		t.Errorf("Entity-escaped title not unescaped: got %q", entry.Title)
	}
	if entry.Link != "https://example.com/articles/sanctions" {
		t.Errorf("Link mismatch: got %q", entry.Link)
	}
	if entry.Description != "An overview of the latest & greatest developments." {
		t.Errorf("Description mismatch: got %q", entry.Description)
	}
	want := time.Date(2026, 8, 24, 9, 30, 0, 0, time.UTC)
	if !entry.PublishedAt.Equal(want) {
		t.Errorf("PublishedAt mismatch: got %v, want %v", entry.PublishedAt, want)
	}
	if entry.Published == "" {
		t.Error("Expected published display string to be set")
	}
}

func TestRSSFetch_EmptyFeed(t *testing.T) {
	srv := serveFeed(t, emptyFeedXML)

	feed, err := NewRSS().Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if _, ok := feed.Latest(); ok {
		t.Error("Expected no latest entry for an empty feed")
	}
}

func TestRSSFetch_MissingDateFallsBack(t *testing.T) {
	srv := serveFeed(t, undatedFeedXML)

	feed, err := NewRSS().Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	entry, ok := feed.Latest()
	if !ok {
		t.Fatal("Expected a latest entry")
	}
	if entry.PublishedAt.IsZero() {
		t.Error("Expected PublishedAt fallback, got zero time")
	}
	if time.Since(entry.PublishedAt) > time.Minute {
		t.Errorf("Fallback PublishedAt not recent: %v", entry.PublishedAt)
	}
	if _, err := time.Parse(time.RFC3339, entry.Published); err != nil {
		t.Errorf("Fallback published string not RFC 3339: %q", entry.Published)
	}
}

func TestRSSFetch_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	if _, err := NewRSS().Fetch(context.Background(), srv.URL); err == nil {
		t.Error("Expected error on non-200 response")
	}
}

func TestCachedRSSFetch(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(feedXML))
	}))
	defer srv.Close()

	c, err := cache.New(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("cache.New failed: %v", err)
	}
	defer c.Close()

	f := NewCachedRSS(c, time.Hour)

	first, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("First fetch failed: %v", err)
	}
	second, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Second fetch failed: %v", err)
	}

	if requests != 1 {
		t.Errorf("Expected 1 upstream request, got %d", requests)
	}
	if len(first.Entries) != len(second.Entries) {
		t.Errorf("Cached parse differs: %d vs %d entries", len(first.Entries), len(second.Entries))
	}
}
