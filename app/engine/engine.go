package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tkivela/dealwatch/app/alert"
	"github.com/tkivela/dealwatch/app/database"
	"github.com/tkivela/dealwatch/app/dedup"
	"github.com/tkivela/dealwatch/app/metrics"
	"github.com/tkivela/dealwatch/app/notify"
	"github.com/tkivela/dealwatch/app/source"
)

// Engine runs the evaluation pipeline per alert: fetch from each selected
// source, match, deduplicate, notify. Failures of individual sources,
// notifications or alerts are logged and contained; only the dedup index is
// shared state, and it handles its own synchronization.
type Engine struct {
	alertRepo database.AlertRepository
	sources   *source.Registry
	index     dedup.Index
	notifiers *notify.Registry

	sourceTimeout time.Duration
	notifyTimeout time.Duration

	now func() time.Time
}

func New(alertRepo database.AlertRepository, sources *source.Registry,
	index dedup.Index, notifiers *notify.Registry,
	sourceTimeout, notifyTimeout time.Duration) *Engine {
	return &Engine{
		alertRepo:     alertRepo,
		sources:       sources,
		index:         index,
		notifiers:     notifiers,
		sourceTimeout: sourceTimeout,
		notifyTimeout: notifyTimeout,
		now:           time.Now,
	}
}

// RunOnce evaluates the alert with the given id and returns the new findings.
func (e *Engine) RunOnce(ctx context.Context, alertID string) ([]alert.Finding, error) {
	a, err := e.alertRepo.GetAlert(alertID)
	if err != nil {
		return nil, fmt.Errorf("failed to load alert: %w", err)
	}
	if a == nil {
		return nil, ErrNotFound
	}

	return e.RunAlert(ctx, *a)
}

// RunAlert evaluates one alert snapshot. An inactive alert is a no-op, not an
// error. New findings are returned in discovery order: the alert's source
// list order, then each adapter's own return order.
func (e *Engine) RunAlert(ctx context.Context, a alert.Alert) ([]alert.Finding, error) {
	if !a.Active {
		return nil, nil
	}

	if err := alert.Validate(&a); err != nil {
		return nil, &ValidationError{AlertID: a.ID, Err: err}
	}

	items := e.fetchAll(ctx, a)

	var findings []alert.Finding
	for _, item := range items {
		if !Matches(a, item) {
			continue
		}

		finding := alert.Finding{
			Fingerprint: dedup.Fingerprint(item.Source, item.SourceID, item.URL),
			AlertID:     a.ID,
			Source:      item.Source,
			SourceID:    item.SourceID,
			Title:       item.Title,
			Price:       item.Price,
			Location:    item.Location,
			URL:         item.URL,
			PostedAt:    item.PostedAt,
			Thumbnail:   item.Thumbnail,
			Description: item.Description,
			EmittedAt:   e.now().UTC(),
		}

		inserted, err := e.index.CheckAndInsert(ctx, finding)
		if err != nil {
			slog.Error("Dedup index failure, skipping item", "alert_id", a.ID, "fingerprint", finding.Fingerprint, "error", err)
			continue
		}
		if !inserted {
			continue
		}

		metrics.FindingsEmitted.WithLabelValues(finding.Source).Inc()
		findings = append(findings, finding)

		// Dedup is committed at this point; delivery is fire-and-forget.
		e.notifyAll(ctx, a, finding)
	}

	return findings, nil
}

// RunAll evaluates every active alert and concatenates the new findings. One
// alert's failure never prevents the others from being evaluated.
func (e *Engine) RunAll(ctx context.Context) ([]alert.Finding, error) {
	alerts, err := e.alertRepo.ListActiveAlerts()
	if err != nil {
		return nil, fmt.Errorf("failed to list active alerts: %w", err)
	}

	var findings []alert.Finding
	for _, a := range alerts {
		fresh, err := e.RunAlert(ctx, a)
		if err != nil {
			slog.Error("Alert evaluation failed", "alert_id", a.ID, "name", a.Name, "error", err)
			continue
		}
		findings = append(findings, fresh...)
	}

	return findings, nil
}

// RecentFindings is a read-only view over emitted findings, most recent first.
func (e *Engine) RecentFindings(ctx context.Context, limit int) ([]alert.Finding, error) {
	return e.index.Recent(ctx, limit)
}

// FindingCount returns the size of the dedup index.
func (e *Engine) FindingCount(ctx context.Context) (int, error) {
	return e.index.Count(ctx)
}

// fetchAll collects items from every source the alert selects. A failing
// source is logged and excluded; the remaining sources still contribute.
func (e *Engine) fetchAll(ctx context.Context, a alert.Alert) []source.RawItem {
	var items []source.RawItem
	for _, name := range a.Sources {
		adapter, ok := e.sources.Get(name)
		if !ok {
			aerr := &AdapterError{Source: name, Err: fmt.Errorf("no adapter registered")}
			slog.Warn("Unknown source, skipping", "alert_id", a.ID, "source", name, "error", aerr)
			metrics.AdapterErrors.WithLabelValues(name).Inc()
			continue
		}

		fetched, err := e.fetchOne(ctx, adapter, a)
		if err != nil {
			aerr := &AdapterError{Source: name, Err: err}
			slog.Warn("Source fetch failed, skipping", "alert_id", a.ID, "source", name, "error", aerr)
			metrics.AdapterErrors.WithLabelValues(name).Inc()
			continue
		}

		items = append(items, fetched...)
	}
	return items
}

func (e *Engine) fetchOne(ctx context.Context, adapter source.Adapter, a alert.Alert) ([]source.RawItem, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, e.sourceTimeout)
	defer cancel()
	return adapter.Fetch(fetchCtx, a)
}

// notifyAll delivers one finding on every channel the alert selects. Failures
// are logged per channel and never propagate.
func (e *Engine) notifyAll(ctx context.Context, a alert.Alert, f alert.Finding) {
	for _, channel := range a.NotifyChannels {
		notifier, ok := e.notifiers.Get(channel)
		if !ok {
			slog.Warn("Unknown notify channel, skipping", "alert_id", a.ID, "channel", channel)
			continue
		}

		sendCtx, cancel := context.WithTimeout(ctx, e.notifyTimeout)
		err := notifier.Send(sendCtx, a, f)
		cancel()

		if err != nil {
			nerr := &NotifyError{Channel: channel, Fingerprint: f.Fingerprint, Err: err}
			slog.Error("Notification failed", "alert_id", a.ID, "channel", channel, "fingerprint", f.Fingerprint, "error", nerr)
			metrics.NotifyErrors.WithLabelValues(channel).Inc()
			continue
		}

		slog.Debug("Notification sent", "alert_id", a.ID, "channel", channel, "fingerprint", f.Fingerprint)
	}
}
