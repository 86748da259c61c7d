// Package bootstrap assembles the configured backends shared by the API
// and worker processes.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"finsight-backend/internal/jobs"
	"finsight-backend/internal/orchestrator"
	"finsight-backend/internal/pipeline"
	"finsight-backend/internal/queue"
	"finsight-backend/internal/results"
	"finsight-backend/internal/shared/config"
	"finsight-backend/internal/shared/server"
	"finsight-backend/internal/shared/storage/db"
	"finsight-backend/internal/shared/storage/object"
	localstore "finsight-backend/internal/shared/storage/object/local"
	s3store "finsight-backend/internal/shared/storage/object/s3"
	"finsight-backend/internal/worker"
)

const redisDialTimeout = 5 * time.Second

// App holds shared dependencies for a process.
type App struct {
	Config config.Config
	Router *gin.Engine

	DB    *sql.DB
	Redis *redis.Client

	Jobs     jobs.Store
	Cache    results.Cache
	Producer queue.Producer
	Consumer queue.Consumer
	Docs     object.ObjectStore

	Service *orchestrator.Service
	Handler *orchestrator.Handler
	Monitor *orchestrator.Monitor
	Pool    *worker.Pool
}

// Build prepares shared dependencies and wires the router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{Config: cfg}

	if needsRedis(cfg) {
		client, err := buildRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		app.Redis = client
	}

	if cfg.JobStoreType == "postgres" {
		sqlDB, err := buildDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		app.DB = sqlDB
	}

	if err := buildBackends(ctx, app); err != nil {
		return nil, err
	}

	app.Service = &orchestrator.Service{
		Jobs:  app.Jobs,
		Cache: app.Cache,
		Queue: app.Producer,
		Docs:  app.Docs,
	}
	app.Handler = orchestrator.NewHandler(app.Service)
	app.Monitor = &orchestrator.Monitor{
		Jobs:           app.Jobs,
		LivenessWindow: cfg.LivenessWindow,
		Interval:       cfg.MonitorInterval,
		Retention:      cfg.JobRetention,
	}
	app.Pool = &worker.Pool{
		Consumer:    app.Consumer,
		Jobs:        app.Jobs,
		Cache:       app.Cache,
		Docs:        app.Docs,
		Runner:      pipeline.NewExtractor(),
		Concurrency: cfg.WorkerConcurrency,
	}
	app.Router = server.NewRouter(cfg, app.Handler)

	return app, nil
}

// Close releases connections held by the app.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
}

func needsRedis(cfg config.Config) bool {
	return cfg.JobStoreType == "redis" || cfg.CacheType == "redis" || cfg.QueueBackend == "redis"
}

func buildRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL is required for redis-backed components")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, redisDialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connect: %w", err)
	}
	return client, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildBackends(ctx context.Context, app *App) error {
	cfg := app.Config

	switch cfg.JobStoreType {
	case "postgres":
		app.Jobs = &jobs.PGStore{DB: app.DB}
	case "redis":
		app.Jobs = jobs.NewRedisStore(app.Redis, cfg.JobRetention)
	default:
		log.Printf("bootstrap: using in-memory job store; jobs are lost on restart")
		app.Jobs = jobs.NewMemoryStore()
	}

	switch cfg.CacheType {
	case "redis":
		app.Cache = results.NewRedisCache(app.Redis, cfg.CacheTTL)
	default:
		app.Cache = results.NewMemoryCache(cfg.CacheTTL, cfg.CacheCapacity)
	}

	switch cfg.QueueBackend {
	case "sqs":
		q, err := queue.NewSQSQueue(ctx, queue.DocumentProcessing, cfg.SQSQueueURL, cfg.AWSRegion, 0)
		if err != nil {
			return fmt.Errorf("build sqs queue: %w", err)
		}
		app.Producer, app.Consumer = q, q
	case "redis":
		q, err := queue.NewRedisQueue(app.Redis, queue.DocumentProcessing)
		if err != nil {
			return fmt.Errorf("build redis queue: %w", err)
		}
		app.Producer, app.Consumer = q, q
	default:
		q, err := queue.NewMemoryQueue(queue.DocumentProcessing, cfg.QueueBuffer)
		if err != nil {
			return fmt.Errorf("build memory queue: %w", err)
		}
		app.Producer, app.Consumer = q, q
	}

	switch cfg.ObjectStoreType {
	case "s3":
		store, err := s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
		if err != nil {
			return fmt.Errorf("build s3 store: %w", err)
		}
		app.Docs = store
	default:
		app.Docs = localstore.New(cfg.LocalStoreDir)
	}

	return nil
}
