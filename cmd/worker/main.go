package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ai-tutor-be/internal/bootstrap"
	"ai-tutor-be/internal/config"
	"ai-tutor-be/pkg/database"
)

// The worker binary drains the async ask queue. It shares the container
// with the REST binary so jobs run through the exact same pipeline.
func main() {
	cfg := config.Load()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	container := bootstrap.NewContainer(gormDB, cfg)

	if container.WorkerService == nil {
		log.Fatal("Worker requires a NATS connection (set NATS_URL)")
	}

	if err := container.WorkerService.Start(); err != nil {
		log.Fatalf("Failed to start worker: %v", err)
	}
	log.Println("✅ Worker is running, waiting for ask jobs...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Worker shutting down...")
	_ = container.GraphClient.Close(context.Background())
}
