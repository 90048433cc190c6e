package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/tkivela/dealwatch/app/alert"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// IFTTTNotifier triggers an IFTTT-style webhook with a GET request carrying
// value1..value3 query parameters. The alert's channel target is the webhook
// URL; alerts without one are skipped. Registered as the "email" channel
// because the typical applet forwards the trigger as mail.
type IFTTTNotifier struct {
	httpClient *http.Client
}

func NewIFTTTNotifier(httpClient *http.Client) *IFTTTNotifier {
	return &IFTTTNotifier{httpClient: httpClient}
}

func (n *IFTTTNotifier) Channel() string {
	return "email"
}

var upperCaser = cases.Upper(language.Und)

func (n *IFTTTNotifier) Send(ctx context.Context, a alert.Alert, f alert.Finding) error {
	if a.ChannelTarget == "" {
		slog.Debug("No webhook target configured, skipping", "channel", n.Channel(), "alert_id", a.ID)
		return nil
	}

	target, err := url.Parse(a.ChannelTarget)
	if err != nil {
		return fmt.Errorf("invalid webhook URL: %w", err)
	}

	price := ""
	if f.Price != nil {
		price = fmt.Sprintf(" – %.0f €", *f.Price)
	}

	posted := ""
	if f.PostedAt != nil {
		posted = " • " + f.PostedAt.In(time.Local).Format("2.1.2006 15:04")
	}

	query := target.Query()
	query.Set("value1", fmt.Sprintf("%s%s (%s)", f.Title, price, upperCaser.String(f.Source)))
	query.Set("value2", f.URL)
	query.Set("value3", f.Location+posted)
	target.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to trigger webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
