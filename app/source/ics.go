package source

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/apognu/gocal"
	"github.com/tkivela/dealwatch/app/alert"
)

// ICSAdapter reads an iCalendar feed and exposes upcoming events as items.
// Event sources carry no price; price-bounded alerts simply never match them.
type ICSAdapter struct {
	name       string
	url        string
	region     string
	httpClient *http.Client
	userAgent  string
}

func NewICSAdapter(name, url, region string, httpClient *http.Client, userAgent string) *ICSAdapter {
	return &ICSAdapter{
		name:       name,
		url:        url,
		region:     region,
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

func (c *ICSAdapter) Name() string {
	return c.name
}

func (c *ICSAdapter) Fetch(ctx context.Context, _ alert.Alert) ([]RawItem, error) {
	data, err := fetchURL(ctx, c.httpClient, c.userAgent, c.url)
	if err != nil {
		return nil, err
	}

	return c.parseICS(data)
}

func (c *ICSAdapter) parseICS(data []byte) ([]RawItem, error) {
	parser := gocal.NewParser(bytes.NewReader(data))

	// Window for expanding recurring events: yesterday through one year out.
	start := time.Now().AddDate(0, 0, -1)
	end := time.Now().AddDate(1, 0, 0)
	parser.Start, parser.End = &start, &end

	if err := parser.Parse(); err != nil {
		return nil, fmt.Errorf("failed to parse ICS feed: %w", err)
	}

	items := make([]RawItem, 0, len(parser.Events))
	for _, event := range parser.Events {
		title := strings.TrimSpace(event.Summary)
		if title == "" {
			title = "Tapahtuma"
		}

		sourceID := event.Uid
		if sourceID == "" && event.Start != nil {
			sourceID = title + "@" + event.Start.UTC().Format(time.RFC3339)
		}

		item := RawItem{
			Source:      c.name,
			SourceID:    sourceID,
			Title:       title,
			Description: strings.TrimSpace(event.Description),
			Location:    locationOrRegion(event.Location, c.region),
			URL:         c.url,
		}

		if event.URL != "" {
			item.URL = event.URL
		} else if eventURL, ok := event.CustomAttributes["X-URL"]; ok && eventURL != "" {
			item.URL = eventURL
		}

		if event.Start != nil {
			posted := event.Start.UTC()
			item.PostedAt = &posted
		}

		items = append(items, item)
	}

	return items, nil
}

func locationOrRegion(location, region string) string {
	if loc := strings.TrimSpace(location); loc != "" {
		return loc
	}
	return region
}
