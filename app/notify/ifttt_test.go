package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/tkivela/dealwatch/app/alert"
)

func TestIFTTTNotifier_Send(t *testing.T) {
	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte("Congratulations! You've fired the event"))
	}))
	defer server.Close()

	notifier := NewIFTTTNotifier(server.Client())
	if notifier.Channel() != "email" {
		t.Errorf("Expected channel email, got %q", notifier.Channel())
	}

	price := 210.0
	posted := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	a := alert.Alert{ID: "alrt_1", ChannelTarget: server.URL + "/trigger/deal/with/key/abc"}
	f := alert.Finding{
		Title:    "Weber 45 DCOE carb set",
		Source:   "tori",
		URL:      "https://www.tori.fi/vi/100500.htm",
		Location: "Tampere",
		Price:    &price,
		PostedAt: &posted,
	}

	if err := notifier.Send(context.Background(), a, f); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	value1 := gotQuery.Get("value1")
	if !strings.Contains(value1, "Weber 45 DCOE carb set") {
		t.Errorf("Expected title in value1, got %q", value1)
	}
	if !strings.Contains(value1, "210 €") {
		t.Errorf("Expected price in value1, got %q", value1)
	}
	if !strings.Contains(value1, "(TORI)") {
		t.Errorf("Expected uppercased source in value1, got %q", value1)
	}
	if gotQuery.Get("value2") != "https://www.tori.fi/vi/100500.htm" {
		t.Errorf("Expected listing URL in value2, got %q", gotQuery.Get("value2"))
	}
	if !strings.HasPrefix(gotQuery.Get("value3"), "Tampere") {
		t.Errorf("Expected location in value3, got %q", gotQuery.Get("value3"))
	}
}

func TestIFTTTNotifier_NoTargetIsSkipped(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	defer server.Close()

	notifier := NewIFTTTNotifier(server.Client())

	err := notifier.Send(context.Background(), alert.Alert{ID: "alrt_1"}, alert.Finding{Title: "x"})
	if err != nil {
		t.Fatalf("Missing target must not be an error: %v", err)
	}
	if called {
		t.Error("Expected no HTTP call without a target")
	}
}

func TestIFTTTNotifier_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	notifier := NewIFTTTNotifier(server.Client())
	a := alert.Alert{ID: "alrt_1", ChannelTarget: server.URL}

	if err := notifier.Send(context.Background(), a, alert.Finding{Title: "x"}); err == nil {
		t.Error("Expected error for HTTP 401, got nil")
	}
}
