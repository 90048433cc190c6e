package source

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tkivela/dealwatch/app/alert"
)

const ebayDefaultBaseURL = "https://www.ebay.com/sch/i.html"

// EbayAdapter scrapes the ebay search result page. There is no stable public
// search API without a developer key, so this parses the listing cards the
// same way a browser sees them.
type EbayAdapter struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

func NewEbayAdapter(httpClient *http.Client, userAgent string) *EbayAdapter {
	return &EbayAdapter{
		baseURL:    ebayDefaultBaseURL,
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

func (e *EbayAdapter) Name() string {
	return "ebay"
}

func (e *EbayAdapter) Fetch(ctx context.Context, a alert.Alert) ([]RawItem, error) {
	reqURL := fmt.Sprintf("%s?_nkw=%s", e.baseURL, searchQuery(a))

	data, err := fetchURL(ctx, e.httpClient, e.userAgent, reqURL)
	if err != nil {
		return nil, err
	}

	return parseEbaySearchPage(data)
}

var ebayItemIDPattern = regexp.MustCompile(`/itm/(?:[^/]*/)?(\d+)`)

func parseEbaySearchPage(html []byte) ([]RawItem, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ebay page: %w", err)
	}

	var items []RawItem
	doc.Find("li.s-item").Each(func(_ int, sel *goquery.Selection) {
		title := strings.TrimSpace(sel.Find(".s-item__title").First().Text())
		link, _ := sel.Find("a.s-item__link").First().Attr("href")
		if title == "" || link == "" {
			return
		}
		// ebay injects a placeholder card at the top of every result page
		if strings.EqualFold(title, "Shop on eBay") {
			return
		}

		item := RawItem{
			Source:   "ebay",
			Title:    title,
			URL:      link,
			Location: strings.TrimSpace(sel.Find(".s-item__location").First().Text()),
		}

		if m := ebayItemIDPattern.FindStringSubmatch(link); m != nil {
			item.SourceID = m[1]
		}

		if price, ok := parseEbayPrice(sel.Find(".s-item__price").First().Text()); ok {
			item.Price = &price
		}

		if thumb, ok := sel.Find(".s-item__image img").First().Attr("src"); ok {
			item.Thumbnail = thumb
		}

		items = append(items, item)
	})

	return items, nil
}

var ebayPricePattern = regexp.MustCompile(`[0-9][0-9.,]*`)

// parseEbayPrice extracts the first amount from strings like "EUR 210,00",
// "$210.00" or "EUR 95,00 to EUR 120,00".
func parseEbayPrice(text string) (float64, bool) {
	raw := ebayPricePattern.FindString(text)
	if raw == "" {
		return 0, false
	}

	// Normalize European decimal commas; drop thousands separators.
	if idx := strings.LastIndexAny(raw, ".,"); idx != -1 && len(raw)-idx-1 == 2 {
		raw = strings.Map(func(r rune) rune {
			if r == '.' || r == ',' {
				return -1
			}
			return r
		}, raw[:idx]) + "." + raw[idx+1:]
	} else {
		raw = strings.ReplaceAll(strings.ReplaceAll(raw, ",", ""), ".", "")
	}

	price, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return price, true
}
