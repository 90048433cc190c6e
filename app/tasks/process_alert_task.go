package tasks

import (
	"context"
	"log/slog"

	"github.com/tkivela/dealwatch/app/alert"
	"github.com/tkivela/dealwatch/app/engine"
	"github.com/tkivela/dealwatch/app/metrics"
)

// ProcessAlertTask evaluates one alert snapshot through the engine.
type ProcessAlertTask struct {
	Task
	Alert  alert.Alert
	engine *engine.Engine
}

func NewProcessAlertTask(a alert.Alert, eng *engine.Engine) *ProcessAlertTask {
	return &ProcessAlertTask{
		Task:   NewTask(TaskTypeProcessAlert, a.ID),
		Alert:  a,
		engine: eng,
	}
}

func (t *ProcessAlertTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.Alert.Active {
		slog.Debug("Alert inactive, skipping", "alert_id", t.AlertID)
		return nil
	}

	metrics.AlertRuns.WithLabelValues("schedule").Inc()

	findings, err := t.engine.RunAlert(ctx, t.Alert)
	if err != nil {
		return err
	}

	slog.Info("Task completed",
		"type", "ProcessAlert",
		"alert_id", t.AlertID,
		"name", t.Alert.Name,
		"duration", t.GetDuration(),
		"new", len(findings))

	return nil
}
