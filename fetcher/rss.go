package fetcher

import (
	"context"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/scipunch/geosite/cache"
)

const userAgent = "geosite/1.0 (+https://github.com/scipunch/geosite)"

// RSS fetches feed documents over HTTP and parses them with gofeed
type RSS struct {
	parser *gofeed.Parser
	client *http.Client
	cache  *cache.Cache
	ttl    time.Duration
}

// NewRSS creates a new RSS fetcher without a fetch cache
func NewRSS() *RSS {
	return &RSS{
		parser: gofeed.NewParser(),
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// NewCachedRSS creates an RSS fetcher that serves feed bodies from the
// cache when they are younger than ttl
func NewCachedRSS(c *cache.Cache, ttl time.Duration) *RSS {
	f := NewRSS()
	f.cache = c
	f.ttl = ttl
	return f
}

// Fetch retrieves and parses the RSS feed at the given URL
func (f *RSS) Fetch(ctx context.Context, url string) (Feed, error) {
	var feed Feed

	body, err := f.load(ctx, url)
	if err != nil {
		return feed, err
	}

	parsed, err := f.parser.ParseString(string(body))
	if err != nil {
		return feed, fmt.Errorf("failed to parse RSS feed: %w", err)
	}

	feed.Title = parsed.Title
	feed.Description = parsed.Description
	feed.Entries = make([]Entry, 0, len(parsed.Items))

	now := time.Now().UTC()
	for _, item := range parsed.Items {
		entry := Entry{
			// Feeds routinely double-encode entities in titles and summaries
			Title:       html.UnescapeString(item.Title),
			Link:        item.Link,
			Description: html.UnescapeString(item.Description),
			Published:   item.Published,
		}

		if item.PublishedParsed != nil {
			entry.PublishedAt = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			entry.PublishedAt = *item.UpdatedParsed
		} else {
			entry.PublishedAt = now
		}
		if entry.Published == "" {
			entry.Published = entry.PublishedAt.Format(time.RFC3339)
		}

		feed.Entries = append(feed.Entries, entry)
	}

	return feed, nil
}

// load returns the raw feed body, consulting the cache first
func (f *RSS) load(ctx context.Context, url string) ([]byte, error) {
	if f.cache != nil {
		if body, hit, _ := f.cache.GetFeed(url, f.ttl); hit {
			slog.Debug("feed served from cache", "url", url)
			return body, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build feed request with %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed at '%s' with %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching feed at '%s'", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed body with %w", err)
	}

	if f.cache != nil {
		if err := f.cache.SetFeed(url, body); err != nil {
			slog.Warn("failed to cache feed body", "url", url, "error", err)
		}
	}

	return body, nil
}
