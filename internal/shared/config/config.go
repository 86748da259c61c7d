package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	Env             string

	DatabaseURL string
	RedisURL    string

	JobStoreType    string
	CacheType       string
	QueueBackend    string
	SQSQueueURL     string
	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string

	WorkerConcurrency int
	QueueBuffer       int

	CacheTTL      time.Duration
	CacheCapacity int

	JobRetention    time.Duration
	LivenessWindow  time.Duration
	MonitorInterval time.Duration

	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")
	redisURL := os.Getenv("REDIS_URL")

	jobStore := normalizeBackend(getEnv("JOB_STORE", defaultJobStore(dbURL, redisURL)), "memory", "redis", "postgres")
	cache := normalizeBackend(getEnv("RESULT_CACHE", defaultCache(redisURL)), "memory", "redis")
	queueBackend := normalizeBackend(getEnv("QUEUE_BACKEND", defaultQueue(redisURL)), "memory", "redis", "sqs")

	if env == "production" && jobStore == "memory" {
		log.Printf("JOB_STORE=memory in production loses jobs on restart")
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		Env:             env,

		DatabaseURL: dbURL,
		RedisURL:    redisURL,

		JobStoreType:    jobStore,
		CacheType:       cache,
		QueueBackend:    queueBackend,
		SQSQueueURL:     getEnv("SQS_QUEUE_URL", ""),
		ObjectStoreType: normalizeBackend(getEnv("OBJECT_STORE", "local"), "local", "s3"),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),

		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 4),
		QueueBuffer:       getEnvInt("QUEUE_BUFFER", 256),

		CacheTTL:      getEnvDuration("CACHE_TTL", 7*24*time.Hour),
		CacheCapacity: getEnvInt("CACHE_CAPACITY", 1024),

		JobRetention:    getEnvDuration("JOB_RETENTION", 7*24*time.Hour),
		LivenessWindow:  getEnvDuration("LIVENESS_WINDOW", 20*time.Minute),
		MonitorInterval: getEnvDuration("MONITOR_INTERVAL", time.Minute),

		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 25*time.Second),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		log.Printf("%s=%q is not a positive integer, using %d", key, raw, def)
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || d <= 0 {
		log.Printf("%s=%q is not a positive duration, using %s", key, raw, def)
		return def
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

// normalizeBackend lowercases raw and returns it when allowed; otherwise the
// first allowed value wins.
func normalizeBackend(raw string, allowed ...string) string {
	v := strings.ToLower(strings.TrimSpace(raw))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return allowed[0]
}

func defaultJobStore(dbURL, redisURL string) string {
	switch {
	case dbURL != "":
		return "postgres"
	case redisURL != "":
		return "redis"
	default:
		return "memory"
	}
}

func defaultCache(redisURL string) string {
	if redisURL != "" {
		return "redis"
	}
	return "memory"
}

func defaultQueue(redisURL string) string {
	if redisURL != "" {
		return "redis"
	}
	return "memory"
}
