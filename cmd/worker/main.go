package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finsight-backend/internal/bootstrap"
	"finsight-backend/internal/shared/config"
	"finsight-backend/internal/shared/telemetry"
)

func main() {
	telemetry.SetService("finsight-worker")
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	defer app.Close()

	go app.Monitor.Run(ctx)

	log.Printf("worker started queue=document_processing backend=%s concurrency=%d",
		cfg.QueueBackend, cfg.WorkerConcurrency)

	done := make(chan struct{})
	go func() {
		app.Pool.Run(ctx)
		close(done)
	}()

	<-ctx.Done()
	log.Printf("shutdown requested, waiting up to %s for in-flight jobs", cfg.ShutdownTimeout)
	select {
	case <-done:
	case <-time.After(cfg.ShutdownTimeout):
		log.Printf("shutdown timeout reached; exiting with in-flight jobs")
	}
}
