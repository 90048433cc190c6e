package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tkivela/dealwatch/app/alert"
)

const toriDefaultBaseURL = "https://api.tori.fi/api/v1.2/public/ads"

// ToriAdapter queries the tori.fi public listing API.
type ToriAdapter struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

func NewToriAdapter(httpClient *http.Client, userAgent string) *ToriAdapter {
	return &ToriAdapter{
		baseURL:    toriDefaultBaseURL,
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

func (t *ToriAdapter) Name() string {
	return "tori"
}

type toriResponse struct {
	ListAds []struct {
		Ad toriAd `json:"ad"`
	} `json:"list_ads"`
}

type toriAd struct {
	AdID    string `json:"ad_id"`
	Subject string `json:"subject"`

	ListPrice struct {
		PriceValue float64 `json:"price_value"`
	} `json:"list_price"`

	Locations []struct {
		Name string `json:"name"`
	} `json:"locations"`

	ShareLink string `json:"share_link"`

	ListTime struct {
		Value int64 `json:"value"`
	} `json:"list_time"`

	Thumbnail struct {
		Path string `json:"path"`
	} `json:"thumb"`
}

func (t *ToriAdapter) Fetch(ctx context.Context, a alert.Alert) ([]RawItem, error) {
	reqURL := fmt.Sprintf("%s?query=%s&limit=40", t.baseURL, searchQuery(a))

	data, err := fetchURL(ctx, t.httpClient, t.userAgent, reqURL)
	if err != nil {
		return nil, err
	}

	var resp toriResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse tori response: %w", err)
	}

	items := make([]RawItem, 0, len(resp.ListAds))
	for _, entry := range resp.ListAds {
		items = append(items, toriItem(entry.Ad))
	}

	return items, nil
}

func toriItem(ad toriAd) RawItem {
	item := RawItem{
		Source:    "tori",
		SourceID:  ad.AdID,
		Title:     ad.Subject,
		URL:       ad.ShareLink,
		Thumbnail: ad.Thumbnail.Path,
	}

	if ad.ListPrice.PriceValue > 0 {
		price := ad.ListPrice.PriceValue
		item.Price = &price
	}

	if len(ad.Locations) > 0 {
		item.Location = ad.Locations[0].Name
	}

	if ad.ListTime.Value > 0 {
		posted := time.Unix(ad.ListTime.Value, 0).UTC()
		item.PostedAt = &posted
	}

	return item
}
