package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AlertRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dealwatch_alert_runs_total",
		Help: "Alert evaluations, by trigger (schedule, manual).",
	}, []string{"trigger"})

	FindingsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dealwatch_findings_emitted_total",
		Help: "New findings emitted, by source.",
	}, []string{"source"})

	AdapterErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dealwatch_adapter_errors_total",
		Help: "Source adapter fetch failures, by source.",
	}, []string{"source"})

	NotifyErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dealwatch_notify_errors_total",
		Help: "Notification delivery failures, by channel.",
	}, []string{"channel"})

	SkippedRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dealwatch_skipped_runs_total",
		Help: "Scheduled evaluations skipped because the previous run was still in flight.",
	})
)
