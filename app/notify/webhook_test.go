package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tkivela/dealwatch/app/alert"
)

func TestWebhookNotifier_Send(t *testing.T) {
	var gotContentType string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.Client())
	if notifier.Channel() != "webhook" {
		t.Errorf("Expected channel webhook, got %q", notifier.Channel())
	}

	a := alert.Alert{ID: "alrt_1", Name: "Weber haku", ChannelTarget: server.URL}
	f := alert.Finding{
		Fingerprint: "tori#100500",
		AlertID:     "alrt_1",
		Title:       "Weber 45 DCOE carb set",
		URL:         "https://www.tori.fi/vi/100500.htm",
	}

	if err := notifier.Send(context.Background(), a, f); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if gotContentType != "application/json" {
		t.Errorf("Expected JSON content type, got %q", gotContentType)
	}

	var payload struct {
		AlertID   string        `json:"alert_id"`
		AlertName string        `json:"alert_name"`
		Finding   alert.Finding `json:"finding"`
	}
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("Failed to decode payload: %v", err)
	}
	if payload.AlertID != "alrt_1" || payload.AlertName != "Weber haku" {
		t.Errorf("Unexpected alert fields: %+v", payload)
	}
	if payload.Finding.Fingerprint != "tori#100500" {
		t.Errorf("Expected finding fingerprint, got %q", payload.Finding.Fingerprint)
	}
}

func TestWebhookNotifier_InvalidTarget(t *testing.T) {
	notifier := NewWebhookNotifier(http.DefaultClient)
	a := alert.Alert{ID: "alrt_1", ChannelTarget: "not-a-url"}

	if err := notifier.Send(context.Background(), a, alert.Finding{}); err == nil {
		t.Error("Expected error for non-HTTP target, got nil")
	}
}

func TestWebhookNotifier_NoTargetIsSkipped(t *testing.T) {
	notifier := NewWebhookNotifier(http.DefaultClient)

	if err := notifier.Send(context.Background(), alert.Alert{ID: "alrt_1"}, alert.Finding{}); err != nil {
		t.Errorf("Missing target must not be an error: %v", err)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(NewWebhookNotifier(http.DefaultClient))
	r.Register(NewIFTTTNotifier(http.DefaultClient))

	if _, ok := r.Get("webhook"); !ok {
		t.Error("Expected webhook channel to be registered")
	}
	if _, ok := r.Get("sms"); ok {
		t.Error("Expected lookup of unknown channel to fail")
	}

	channels := r.Channels()
	if len(channels) != 2 || channels[0] != "email" || channels[1] != "webhook" {
		t.Errorf("Unexpected channel list %v", channels)
	}
}
