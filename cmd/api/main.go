package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"finsight-backend/internal/bootstrap"
	"finsight-backend/internal/shared/config"
	"finsight-backend/internal/shared/server"
	"finsight-backend/internal/shared/telemetry"
)

func main() {
	telemetry.SetService("finsight-api")
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	defer app.Close()

	// The monitor runs alongside the API so abandoned jobs are recovered
	// even when no worker process is healthy.
	go app.Monitor.Run(ctx)

	addr := server.Addr(cfg.Port)
	log.Printf("Starting API server on %s", addr)

	if err := app.Router.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
