package source

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tkivela/dealwatch/app/alert"
)

// ICSPageAdapter handles event pages that publish no direct calendar URL. It
// loads the page, locates an .ics export link in the markup, and delegates to
// an ICSAdapter pointed at the discovered URL.
type ICSPageAdapter struct {
	name       string
	pageURL    string
	region     string
	httpClient *http.Client
	userAgent  string
}

func NewICSPageAdapter(name, pageURL, region string, httpClient *http.Client, userAgent string) *ICSPageAdapter {
	return &ICSPageAdapter{
		name:       name,
		pageURL:    pageURL,
		region:     region,
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

func (p *ICSPageAdapter) Name() string {
	return p.name
}

func (p *ICSPageAdapter) Fetch(ctx context.Context, a alert.Alert) ([]RawItem, error) {
	html, err := fetchURL(ctx, p.httpClient, p.userAgent, p.pageURL)
	if err != nil {
		return nil, err
	}

	icsURL, err := findICSLink(html, p.pageURL)
	if err != nil {
		return nil, err
	}
	if icsURL == "" {
		// Page carries no calendar export; not an error.
		return nil, nil
	}

	ics := NewICSAdapter(p.name, icsURL, p.region, p.httpClient, p.userAgent)
	return ics.Fetch(ctx, a)
}

// findICSLink returns the first .ics export link on the page, made absolute
// against the page URL. Returns "" when the page has none.
func findICSLink(html []byte, pageURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}

	href, ok := doc.Find(`a[href$=".ics"]`).First().Attr("href")
	if !ok {
		doc.Find("a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			text := strings.ToLower(sel.Text())
			if strings.Contains(text, ".ics") || strings.Contains(text, "icalendar") {
				href, ok = sel.Attr("href")
				return !ok
			}
			return true
		})
	}
	if href == "" {
		return "", nil
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("invalid page URL: %w", err)
	}
	resolved, err := base.Parse(href)
	if err != nil {
		return "", fmt.Errorf("invalid ICS link %q: %w", href, err)
	}

	return resolved.String(), nil
}
