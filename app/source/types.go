package source

import (
	"context"
	"time"

	"github.com/tkivela/dealwatch/app/alert"
)

// RawItem is one candidate listing or event as returned by a source, before
// any matching. Items are ephemeral; the engine owns nothing here.
type RawItem struct {
	Source      string
	SourceID    string
	Title       string
	Price       *float64
	Location    string
	URL         string
	PostedAt    *time.Time
	Thumbnail   string
	Description string
}

// Adapter fetches candidate items from one external source. An empty result is
// not an error; adapters return an error only when the fetch or parse itself
// failed. Adapters never mutate alert state.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, a alert.Alert) ([]RawItem, error)
}
