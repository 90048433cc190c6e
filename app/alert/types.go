package alert

import (
	"time"
)

// Alert is a user-defined search the engine evaluates on every run. The engine
// treats an Alert as a read-only snapshot; all mutation happens through the
// repository before a run starts.
type Alert struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Keywords       []string   `json:"keywords"`
	Sources        []string   `json:"sources"`
	PriceMin       *float64   `json:"price_min"`
	PriceMax       *float64   `json:"price_max"`
	NotifyChannels []string   `json:"notify"`
	ChannelTarget  string     `json:"channel_target,omitempty"`
	Active         bool       `json:"active"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Finding is a listing that matched an alert and passed deduplication. Findings
// are append-only; once emitted they are never updated or removed.
type Finding struct {
	Fingerprint string     `json:"fingerprint"`
	AlertID     string     `json:"alert_id"`
	Source      string     `json:"source"`
	SourceID    string     `json:"source_id,omitempty"`
	Title       string     `json:"title"`
	Price       *float64   `json:"price,omitempty"`
	Location    string     `json:"location,omitempty"`
	URL         string     `json:"url"`
	PostedAt    *time.Time `json:"posted_at,omitempty"`
	Thumbnail   string     `json:"thumb,omitempty"`
	Description string     `json:"description,omitempty"`
	EmittedAt   time.Time  `json:"created_at"`
}
