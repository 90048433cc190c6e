package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tkivela/dealwatch/app/api"
	"github.com/tkivela/dealwatch/app/cfg"
	"github.com/tkivela/dealwatch/app/database"
	"github.com/tkivela/dealwatch/app/dedup"
	"github.com/tkivela/dealwatch/app/engine"
	"github.com/tkivela/dealwatch/app/notify"
	"github.com/tkivela/dealwatch/app/source"
	"github.com/tkivela/dealwatch/app/tasks"
	"github.com/tkivela/dealwatch/app/uid"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Dealwatch server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBDriver, appCfg.DBDSN)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "driver", appCfg.DBDriver, "migration_version", version, "dirty", dirty)

	alertRepo := database.NewAlertRepository(db)
	findingRepo := database.NewFindingRepository(db)

	index, err := buildDedupIndex(appCfg, findingRepo)
	if err != nil {
		slog.Error("Failed to initialize dedup index", "error", err)
		os.Exit(1)
	}
	slog.Info("Dedup index ready", "backend", appCfg.DedupBackend)

	httpClient := &http.Client{Timeout: time.Duration(appCfg.SourceTimeout) * time.Second}

	sources := source.NewRegistry(httpClient, appCfg.UserAgent)
	calendarCount, err := sources.LoadCalendars(appCfg.CalendarsFile, httpClient, appCfg.UserAgent)
	if err != nil {
		slog.Error("Failed to load calendar sources", "file", appCfg.CalendarsFile, "error", err)
		os.Exit(1)
	}
	slog.Info("Sources registered", "sources", sources.Names(), "calendars", calendarCount)

	notifiers := notify.NewRegistry()
	notifiers.Register(notify.NewIFTTTNotifier(httpClient))
	notifiers.Register(notify.NewWebhookNotifier(httpClient))
	if len(appCfg.KafkaBrokers) > 0 {
		kafkaNotifier := notify.NewKafkaNotifier(appCfg.KafkaBrokers, appCfg.KafkaTopic)
		defer kafkaNotifier.Close()
		notifiers.Register(kafkaNotifier)
	}
	slog.Info("Notify channels registered", "channels", notifiers.Channels())

	eng := engine.New(alertRepo, sources, index, notifiers,
		time.Duration(appCfg.SourceTimeout)*time.Second,
		time.Duration(appCfg.NotifyTimeout)*time.Second)

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount, "interval", appCfg.SchedulerInterval)
	scheduler := tasks.NewScheduler(alertRepo, eng)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(eng, alertRepo, sources, notifiers, uid.NewUUIDGenerator("alrt"))
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler and connections are stopped via defers
	slog.Info("Shutdown complete")
}

func buildDedupIndex(appCfg *cfg.Cfg, findingRepo database.FindingRepository) (dedup.Index, error) {
	switch appCfg.DedupBackend {
	case "memory":
		return dedup.NewMemoryIndex(), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr: appCfg.RedisAddr,
			DB:   appCfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return dedup.NewRedisIndex(client), nil
	default:
		return dedup.NewStoreIndex(findingRepo), nil
	}
}
