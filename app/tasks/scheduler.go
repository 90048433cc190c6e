package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tkivela/dealwatch/app/cfg"
	"github.com/tkivela/dealwatch/app/database"
	"github.com/tkivela/dealwatch/app/engine"
	"github.com/tkivela/dealwatch/app/metrics"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Scheduler ticks on a fixed interval and enqueues one evaluation task per
// active alert onto a worker pool. An alert whose previous evaluation is
// still in flight is skipped for that tick, never queued up behind itself.
type Scheduler struct {
	alertRepo   database.AlertRepository
	engine      *engine.Engine
	interval    time.Duration
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface

	inFlightMu sync.Mutex
	inFlight   map[string]bool
}

func NewScheduler(alertRepo database.AlertRepository, eng *engine.Engine) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	c := cfg.Get()

	return &Scheduler{
		alertRepo:   alertRepo,
		engine:      eng,
		interval:    time.Duration(c.SchedulerInterval) * time.Second,
		workerCount: c.WorkerCount,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 300),
		inFlight:    make(map[string]bool),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueTasks() {
	alerts, err := s.alertRepo.ListActiveAlerts()
	if err != nil {
		slog.Error("Failed to list active alerts", "error", err)
		return
	}
	if len(alerts) == 0 {
		slog.Debug("No active alerts to schedule")
		return
	}

	slog.Debug("Scheduling alert evaluations", "count", len(alerts))

	for _, a := range alerts {
		if !s.markInFlight(a.ID) {
			slog.Warn("Previous evaluation still running, skipping tick", "alert_id", a.ID, "name", a.Name)
			metrics.SkippedRuns.Inc()
			continue
		}

		task := NewProcessAlertTask(a, s.engine)
		if err := s.EnqueueTask(task); err != nil {
			s.clearInFlight(a.ID)
			slog.Warn("Failed to enqueue ProcessAlertTask", "alert_id", a.ID, "error", err)
		}
	}
}

func (s *Scheduler) markInFlight(alertID string) bool {
	s.inFlightMu.Lock()
	defer s.inFlightMu.Unlock()
	if s.inFlight[alertID] {
		return false
	}
	s.inFlight[alertID] = true
	return true
}

func (s *Scheduler) clearInFlight(alertID string) {
	s.inFlightMu.Lock()
	defer s.inFlightMu.Unlock()
	delete(s.inFlight, alertID)
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err == nil {
		s.clearInFlight(task.GetAlertID())
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		s.clearInFlight(task.GetAlertID())
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		return
	}

	task.IncrementRetryCount()
	retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
	if retryDelay > 30*time.Second {
		retryDelay = 30 * time.Second
	}

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "alert_id", task.GetAlertID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	// Tracked in the WaitGroup so Stop never closes the queue under a
	// pending retry.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		select {
		case <-time.After(retryDelay):
		case <-s.ctx.Done():
			s.clearInFlight(task.GetAlertID())
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
			return
		}

		if retryErr := s.EnqueueTask(task); retryErr != nil {
			s.clearInFlight(task.GetAlertID())
			slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
		}
	}()
}
