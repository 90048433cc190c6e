package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tkivela/dealwatch/app/alert"
)

// WebhookNotifier POSTs the finding as JSON to the alert's channel target.
type WebhookNotifier struct {
	httpClient *http.Client
}

func NewWebhookNotifier(httpClient *http.Client) *WebhookNotifier {
	return &WebhookNotifier{httpClient: httpClient}
}

func (n *WebhookNotifier) Channel() string {
	return "webhook"
}

type webhookPayload struct {
	AlertID   string        `json:"alert_id"`
	AlertName string        `json:"alert_name"`
	Finding   alert.Finding `json:"finding"`
}

func (n *WebhookNotifier) Send(ctx context.Context, a alert.Alert, f alert.Finding) error {
	if a.ChannelTarget == "" {
		slog.Debug("No webhook target configured, skipping", "channel", n.Channel(), "alert_id", a.ID)
		return nil
	}
	if !strings.HasPrefix(a.ChannelTarget, "http://") && !strings.HasPrefix(a.ChannelTarget, "https://") {
		return fmt.Errorf("invalid webhook URL: %q", a.ChannelTarget)
	}

	payload, err := json.Marshal(webhookPayload{
		AlertID:   a.ID,
		AlertName: a.Name,
		Finding:   f,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.ChannelTarget, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
