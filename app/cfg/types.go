package cfg

type Cfg struct {
	// Database configuration
	DBDriver string
	DBDSN    string

	// Dedup index configuration
	DedupBackend string
	RedisAddr    string
	RedisDB      int

	// Notification configuration
	KafkaBrokers []string
	KafkaTopic   string

	// Application configuration
	Port              string
	CalendarsFile     string
	WorkerCount       int
	SchedulerInterval int
	SourceTimeout     int
	NotifyTimeout     int
	DefaultSource     string
	DefaultChannel    string
	FeedLimit         int
	APIAccessKey      string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
