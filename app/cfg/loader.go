package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBDriver string `long:"db-driver" env:"DB_DRIVER" default:"sqlite" choice:"sqlite" choice:"postgres" description:"Database driver"`
	DBDSN    string `long:"db-dsn" env:"DB_DSN" default:"file:dealwatch.db?_pragma=busy_timeout(5000)" description:"Database DSN (sqlite file or postgres URL)"`

	// Dedup index configuration
	DedupBackend string `long:"dedup-backend" env:"DEDUP_BACKEND" default:"db" choice:"db" choice:"memory" choice:"redis" description:"Backend for the finding dedup index"`
	RedisAddr    string `long:"redis-addr" env:"REDIS_ADDR" default:"localhost:6379" description:"Redis address (dedup-backend=redis)"`
	RedisDB      int    `long:"redis-db" env:"REDIS_DB" default:"0" description:"Redis database number"`

	// Notification configuration
	KafkaBrokers []string `long:"kafka-broker" env:"KAFKA_BROKERS" env-delim:"," description:"Kafka broker address for the kafka notify channel (repeatable)"`
	KafkaTopic   string   `long:"kafka-topic" env:"KAFKA_TOPIC" default:"dealwatch.findings" description:"Kafka topic for finding events"`

	// Application configuration
	Port              string `long:"port" env:"PORT" default:"8787" description:"HTTP server port"`
	CalendarsFile     string `long:"calendars-file" env:"CALENDARS_FILE" description:"YAML file declaring calendar/rss sources (optional)"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of background workers for alert evaluation"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"300" description:"Scheduler interval in seconds"`
	SourceTimeout     int    `long:"source-timeout" env:"SOURCE_TIMEOUT" default:"15" description:"Per-source fetch timeout in seconds"`
	NotifyTimeout     int    `long:"notify-timeout" env:"NOTIFY_TIMEOUT" default:"10" description:"Per-channel notification timeout in seconds"`
	DefaultSource     string `long:"default-source" env:"DEFAULT_SOURCE" default:"tori" description:"Source used when an alert lists none"`
	DefaultChannel    string `long:"default-channel" env:"DEFAULT_CHANNEL" default:"email" description:"Notify channel used when an alert lists none"`
	FeedLimit         int    `long:"feed-limit" env:"FEED_LIMIT" default:"100" description:"Default number of findings returned by the feed endpoint"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Dealwatch/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Europe/Helsinki)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBDriver:          raw.DBDriver,
		DBDSN:             raw.DBDSN,
		DedupBackend:      raw.DedupBackend,
		RedisAddr:         raw.RedisAddr,
		RedisDB:           raw.RedisDB,
		KafkaBrokers:      raw.KafkaBrokers,
		KafkaTopic:        raw.KafkaTopic,
		Port:              raw.Port,
		CalendarsFile:     raw.CalendarsFile,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		SourceTimeout:     raw.SourceTimeout,
		NotifyTimeout:     raw.NotifyTimeout,
		DefaultSource:     raw.DefaultSource,
		DefaultChannel:    raw.DefaultChannel,
		FeedLimit:         raw.FeedLimit,
		APIAccessKey:      raw.APIAccessKey,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Set replaces the global configuration. Intended for tests.
func Set(c *Cfg) {
	globalCfg = c
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
