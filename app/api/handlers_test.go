package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tkivela/dealwatch/app/alert"
	"github.com/tkivela/dealwatch/app/cfg"
	"github.com/tkivela/dealwatch/app/database"
	"github.com/tkivela/dealwatch/app/dedup"
	"github.com/tkivela/dealwatch/app/engine"
	"github.com/tkivela/dealwatch/app/notify"
	"github.com/tkivela/dealwatch/app/source"
	"github.com/tkivela/dealwatch/app/uid"
)

type MockAlertRepository struct {
	alerts map[string]alert.Alert
}

var _ database.AlertRepository = (*MockAlertRepository)(nil)

func NewMockAlertRepository() *MockAlertRepository {
	return &MockAlertRepository{alerts: make(map[string]alert.Alert)}
}

func (m *MockAlertRepository) CreateAlert(a alert.Alert) error {
	m.alerts[a.ID] = a
	return nil
}

func (m *MockAlertRepository) GetAlert(id string) (*alert.Alert, error) {
	a, ok := m.alerts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *MockAlertRepository) UpdateAlert(a alert.Alert) error {
	m.alerts[a.ID] = a
	return nil
}

func (m *MockAlertRepository) DeleteAlert(id string) (bool, error) {
	_, ok := m.alerts[id]
	delete(m.alerts, id)
	return ok, nil
}

func (m *MockAlertRepository) ListAlerts() ([]alert.Alert, error) {
	alerts := make([]alert.Alert, 0, len(m.alerts))
	for _, a := range m.alerts {
		alerts = append(alerts, a)
	}
	return alerts, nil
}

func (m *MockAlertRepository) ListActiveAlerts() ([]alert.Alert, error) {
	var active []alert.Alert
	for _, a := range m.alerts {
		if a.Active {
			active = append(active, a)
		}
	}
	return active, nil
}

func (m *MockAlertRepository) GetAlertCount() (int, error) {
	return len(m.alerts), nil
}

type StubAdapter struct {
	items []source.RawItem
}

var _ source.Adapter = (*StubAdapter)(nil)

func (s *StubAdapter) Name() string { return "tori" }

func (s *StubAdapter) Fetch(context.Context, alert.Alert) ([]source.RawItem, error) {
	return s.items, nil
}

func setupAPI(t *testing.T, adapter source.Adapter) (http.Handler, *MockAlertRepository) {
	t.Helper()

	cfg.Set(&cfg.Cfg{
		DefaultSource:  "tori",
		DefaultChannel: "email",
		FeedLimit:      100,
		Version:        "test",
	})

	repo := NewMockAlertRepository()
	sources := source.NewRegistry(nil, "test")
	if adapter != nil {
		sources.Register(adapter)
	}
	notifiers := notify.NewRegistry()

	eng := engine.New(repo, sources, dedup.NewMemoryIndex(), notifiers, time.Second, time.Second)
	handler := NewHandler(eng, repo, sources, notifiers, uid.NewSequenceGenerator("alrt"))

	return NewServer(handler, ""), repo
}

func doJSON(t *testing.T, server http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

func TestCreateAlert_Defaults(t *testing.T) {
	server, repo := setupAPI(t, nil)

	w := doJSON(t, server, http.MethodPost, "/api/alerts", map[string]any{
		"keywords": "weber 45, dcoe",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var created alert.Alert
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if created.ID != "alrt_1" {
		t.Errorf("Expected generated id alrt_1, got %q", created.ID)
	}
	if created.Name != "Uusi hälytys" {
		t.Errorf("Expected default name, got %q", created.Name)
	}
	if len(created.Keywords) != 2 || created.Keywords[0] != "weber 45" || created.Keywords[1] != "dcoe" {
		t.Errorf("Expected normalized keywords, got %v", created.Keywords)
	}
	if len(created.Sources) != 1 || created.Sources[0] != "tori" {
		t.Errorf("Expected default source, got %v", created.Sources)
	}
	if len(created.NotifyChannels) != 1 || created.NotifyChannels[0] != "email" {
		t.Errorf("Expected default channel, got %v", created.NotifyChannels)
	}
	if !created.Active {
		t.Error("Expected new alert to be active")
	}

	if stored, _ := repo.GetAlert("alrt_1"); stored == nil {
		t.Error("Expected alert to be persisted")
	}
}

func TestCreateAlert_InvalidBounds(t *testing.T) {
	server, _ := setupAPI(t, nil)

	w := doJSON(t, server, http.MethodPost, "/api/alerts", map[string]any{
		"keywords":  []string{"weber"},
		"price_min": 300,
		"price_max": 100,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for inverted bounds, got %d", w.Code)
	}
}

func TestListAlerts_EmptyIsArray(t *testing.T) {
	server, _ := setupAPI(t, nil)

	w := doJSON(t, server, http.MethodGet, "/api/alerts", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if body := w.Body.String(); body != "[]" {
		t.Errorf("Expected empty JSON array, got %q", body)
	}
}

func TestPatchAlert(t *testing.T) {
	server, repo := setupAPI(t, nil)

	repo.CreateAlert(alert.Alert{
		ID:       "alrt_1",
		Name:     "Weber haku",
		Keywords: []string{"weber"},
		Sources:  []string{"tori"},
		PriceMax: floatPtr(300),
		Active:   true,
	})

	w := doJSON(t, server, http.MethodPatch, "/api/alerts/alrt_1", map[string]any{
		"name":      "Weber haku 2",
		"price_max": nil,
		"active":    false,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	stored, _ := repo.GetAlert("alrt_1")
	if stored.Name != "Weber haku 2" {
		t.Errorf("Expected updated name, got %q", stored.Name)
	}
	if stored.PriceMax != nil {
		t.Errorf("Expected explicit null to clear price_max, got %v", *stored.PriceMax)
	}
	if stored.Active {
		t.Error("Expected active to be patched to false")
	}
	if len(stored.Keywords) != 1 || stored.Keywords[0] != "weber" {
		t.Errorf("Expected untouched keywords to survive, got %v", stored.Keywords)
	}
}

func TestPatchAlert_NotFound(t *testing.T) {
	server, _ := setupAPI(t, nil)

	w := doJSON(t, server, http.MethodPatch, "/api/alerts/missing", map[string]any{"name": "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestDeleteAlert(t *testing.T) {
	server, repo := setupAPI(t, nil)
	repo.CreateAlert(alert.Alert{ID: "alrt_1", Sources: []string{"tori"}})

	w := doJSON(t, server, http.MethodDelete, "/api/alerts/alrt_1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	w = doJSON(t, server, http.MethodDelete, "/api/alerts/alrt_1", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 on second delete, got %d", w.Code)
	}
}

func TestRunAlert(t *testing.T) {
	price := 210.0
	adapter := &StubAdapter{items: []source.RawItem{{
		Source:   "tori",
		SourceID: "100500",
		Title:    "Weber 45 DCOE carb set",
		Price:    &price,
		URL:      "https://www.tori.fi/vi/100500.htm",
	}}}
	server, repo := setupAPI(t, adapter)

	repo.CreateAlert(alert.Alert{
		ID:       "alrt_1",
		Keywords: []string{"weber 45"},
		Sources:  []string{"tori"},
		Active:   true,
	})

	w := doJSON(t, server, http.MethodPost, "/api/run/alrt_1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Count    int             `json:"count"`
		Findings []alert.Finding `json:"findings"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Count != 1 || len(resp.Findings) != 1 {
		t.Fatalf("Expected 1 finding, got count=%d findings=%d", resp.Count, len(resp.Findings))
	}
	if resp.Findings[0].Fingerprint != "tori#100500" {
		t.Errorf("Unexpected fingerprint %q", resp.Findings[0].Fingerprint)
	}

	// Re-running the same alert finds nothing new
	w = doJSON(t, server, http.MethodPost, "/api/run/alrt_1", nil)
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Count != 0 {
		t.Errorf("Expected 0 findings on repeat run, got %d", resp.Count)
	}

	// The emitted finding is visible on the feed
	w = doJSON(t, server, http.MethodGet, "/api/feed", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 from feed, got %d", w.Code)
	}
	var feed []alert.Finding
	if err := json.Unmarshal(w.Body.Bytes(), &feed); err != nil {
		t.Fatalf("Failed to decode feed: %v", err)
	}
	if len(feed) != 1 || feed[0].Fingerprint != "tori#100500" {
		t.Errorf("Expected the finding on the feed, got %v", feed)
	}
}

func TestRunAlert_NotFound(t *testing.T) {
	server, _ := setupAPI(t, nil)

	w := doJSON(t, server, http.MethodPost, "/api/run/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestGetFeed_InvalidLimit(t *testing.T) {
	server, _ := setupAPI(t, nil)

	w := doJSON(t, server, http.MethodGet, "/api/feed?limit=banana", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid limit, got %d", w.Code)
	}
}

func TestGetHealth(t *testing.T) {
	server, _ := setupAPI(t, nil)

	w := doJSON(t, server, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var health map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatalf("Failed to decode health: %v", err)
	}
	if health["version"] != "test" {
		t.Errorf("Expected version test, got %v", health["version"])
	}
}

func TestAuthMiddleware(t *testing.T) {
	cfg.Set(&cfg.Cfg{FeedLimit: 100, Version: "test"})

	repo := NewMockAlertRepository()
	sources := source.NewRegistry(nil, "test")
	notifiers := notify.NewRegistry()
	eng := engine.New(repo, sources, dedup.NewMemoryIndex(), notifiers, time.Second, time.Second)
	handler := NewHandler(eng, repo, sources, notifiers, uid.NewSequenceGenerator("alrt"))
	server := NewServer(handler, "secret")

	req := httptest.NewRequest(http.MethodGet, "/api/alerts", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without key, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/alerts", nil)
	req.Header.Set("X-API-Key", "wrong")
	w = httptest.NewRecorder()
	server.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with wrong key, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/alerts", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	server.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 with bearer key, got %d", w.Code)
	}

	// Health endpoint stays open
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	w = httptest.NewRecorder()
	server.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 from health without key, got %d", w.Code)
	}
}

func floatPtr(v float64) *float64 {
	return &v
}
