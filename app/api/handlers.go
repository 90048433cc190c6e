package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tkivela/dealwatch/app/alert"
	"github.com/tkivela/dealwatch/app/cfg"
	"github.com/tkivela/dealwatch/app/database"
	"github.com/tkivela/dealwatch/app/engine"
	"github.com/tkivela/dealwatch/app/metrics"
	"github.com/tkivela/dealwatch/app/notify"
	"github.com/tkivela/dealwatch/app/source"
	"github.com/tkivela/dealwatch/app/uid"
)

func NewHandler(eng *engine.Engine, alertRepo database.AlertRepository,
	sources *source.Registry, notifiers *notify.Registry, ids uid.Generator) *Handler {
	return &Handler{
		engine:    eng,
		alertRepo: alertRepo,
		sources:   sources,
		notifiers: notifiers,
		ids:       ids,
	}
}

func (h *Handler) CreateAlert(c *gin.Context) {
	var req createAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	conf := cfg.Get()

	a := alert.Alert{
		ID:             h.ids.NewID(),
		Name:           req.Name,
		Keywords:       alert.NormalizeKeywords(req.Keywords),
		Sources:        req.Sources,
		PriceMin:       req.PriceMin,
		PriceMax:       req.PriceMax,
		NotifyChannels: req.Notify,
		ChannelTarget:  req.ChannelTarget,
		Active:         true,
		CreatedAt:      time.Now().UTC(),
	}

	if a.Name == "" {
		a.Name = "Uusi hälytys"
	}
	if len(a.Sources) == 0 {
		a.Sources = []string{conf.DefaultSource}
	}
	if len(a.NotifyChannels) == 0 {
		a.NotifyChannels = []string{conf.DefaultChannel}
	}
	if req.Active != nil {
		a.Active = *req.Active
	}

	if err := alert.Validate(&a); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert", "details": err.Error()})
		return
	}

	if len(a.Keywords) == 0 {
		slog.Warn("Alert created without keywords; it will never match", "alert_id", a.ID, "name", a.Name)
	}

	if err := h.alertRepo.CreateAlert(a); err != nil {
		slog.Error("Database error", "operation", "create_alert", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return
	}

	c.JSON(http.StatusOK, a)
}

func (h *Handler) ListAlerts(c *gin.Context) {
	alerts, err := h.alertRepo.ListAlerts()
	if err != nil {
		slog.Error("Database error", "operation", "list_alerts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return
	}

	if alerts == nil {
		alerts = []alert.Alert{}
	}
	c.JSON(http.StatusOK, alerts)
}

// PatchAlert applies a partial update: present fields overwrite, absent
// fields stay, explicit nulls clear nullable fields.
func (h *Handler) PatchAlert(c *gin.Context) {
	a, ok := h.loadAlert(c)
	if !ok {
		return
	}

	var fields map[string]json.RawMessage
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	if err := applyPatch(a, fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid patch", "details": err.Error()})
		return
	}

	if err := alert.Validate(a); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert", "details": err.Error()})
		return
	}

	if err := h.alertRepo.UpdateAlert(*a); err != nil {
		slog.Error("Database error", "operation", "update_alert", "alert_id", a.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return
	}

	c.JSON(http.StatusOK, a)
}

func applyPatch(a *alert.Alert, fields map[string]json.RawMessage) error {
	for key, raw := range fields {
		var err error
		switch key {
		case "name":
			err = json.Unmarshal(raw, &a.Name)
		case "keywords":
			var keywords KeywordList
			if err = json.Unmarshal(raw, &keywords); err == nil {
				a.Keywords = alert.NormalizeKeywords(keywords)
			}
		case "sources":
			err = json.Unmarshal(raw, &a.Sources)
		case "price_min":
			err = json.Unmarshal(raw, &a.PriceMin)
		case "price_max":
			err = json.Unmarshal(raw, &a.PriceMax)
		case "notify":
			err = json.Unmarshal(raw, &a.NotifyChannels)
		case "channel_target":
			err = json.Unmarshal(raw, &a.ChannelTarget)
		case "active":
			err = json.Unmarshal(raw, &a.Active)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) DeleteAlert(c *gin.Context) {
	id := c.Param("id")

	deleted, err := h.alertRepo.DeleteAlert(id)
	if err != nil {
		slog.Error("Database error", "operation", "delete_alert", "alert_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "not-found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) RunAlert(c *gin.Context) {
	id := c.Param("id")

	metrics.AlertRuns.WithLabelValues("manual").Inc()

	findings, err := h.engine.RunOnce(c.Request.Context(), id)
	if err != nil {
		h.renderRunError(c, id, err)
		return
	}

	if findings == nil {
		findings = []alert.Finding{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(findings), "findings": findings})
}

func (h *Handler) RunAll(c *gin.Context) {
	metrics.AlertRuns.WithLabelValues("manual").Inc()

	findings, err := h.engine.RunAll(c.Request.Context())
	if err != nil {
		slog.Error("Run all failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "run failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": len(findings)})
}

func (h *Handler) renderRunError(c *gin.Context, alertID string, err error) {
	var verr *engine.ValidationError

	switch {
	case errors.Is(err, engine.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not-found"})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert", "details": verr.Error()})
	default:
		slog.Error("Alert run failed", "alert_id", alertID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "run failed"})
	}
}

func (h *Handler) GetFeed(c *gin.Context) {
	limit := cfg.Get().FeedLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	findings, err := h.engine.RecentFindings(c.Request.Context(), limit)
	if err != nil {
		slog.Error("Failed to read findings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return
	}

	if findings == nil {
		findings = []alert.Finding{}
	}
	c.JSON(http.StatusOK, findings)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := gin.H{
		"version":   cfg.Get().Version,
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if count, err := h.alertRepo.GetAlertCount(); err == nil {
		health["alerts"] = count
	}
	if count, err := h.engine.FindingCount(c.Request.Context()); err == nil {
		health["findings"] = count
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := gin.H{
		"sources":  h.sources.Names(),
		"channels": h.notifiers.Channels(),
	}

	if count, err := h.alertRepo.GetAlertCount(); err == nil {
		stats["alerts"] = count
	}
	if alerts, err := h.alertRepo.ListActiveAlerts(); err == nil {
		stats["active_alerts"] = len(alerts)
	}
	if count, err := h.engine.FindingCount(c.Request.Context()); err == nil {
		stats["findings"] = count
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) loadAlert(c *gin.Context) (*alert.Alert, bool) {
	id := c.Param("id")

	a, err := h.alertRepo.GetAlert(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_alert", "alert_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return nil, false
	}
	if a == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not-found"})
		return nil, false
	}

	return a, true
}
