package source

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/mmcdole/gofeed"
	"github.com/tkivela/dealwatch/app/alert"
)

// RSSAdapter reads an RSS/Atom feed, for marketplaces that expose saved
// searches or new-listing feeds.
type RSSAdapter struct {
	name       string
	url        string
	httpClient *http.Client
	userAgent  string
	parser     *gofeed.Parser
}

func NewRSSAdapter(name, url string, httpClient *http.Client, userAgent string) *RSSAdapter {
	return &RSSAdapter{
		name:       name,
		url:        url,
		httpClient: httpClient,
		userAgent:  userAgent,
		parser:     gofeed.NewParser(),
	}
}

func (r *RSSAdapter) Name() string {
	return r.name
}

func (r *RSSAdapter) Fetch(ctx context.Context, _ alert.Alert) ([]RawItem, error) {
	data, err := fetchURL(ctx, r.httpClient, r.userAgent, r.url)
	if err != nil {
		return nil, err
	}

	feed, err := r.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]RawItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		if entry == nil {
			continue
		}

		item := RawItem{
			Source:      r.name,
			SourceID:    entry.GUID,
			Title:       entry.Title,
			URL:         entry.Link,
			Description: entry.Description,
		}

		if entry.PublishedParsed != nil {
			posted := entry.PublishedParsed.UTC()
			item.PostedAt = &posted
		}

		if entry.Image != nil {
			item.Thumbnail = entry.Image.URL
		}

		items = append(items, item)
	}

	return items, nil
}
