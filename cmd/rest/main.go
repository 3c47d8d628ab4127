package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"library-ai-be/internal/bootstrap"
	"library-ai-be/internal/config"
	"library-ai-be/internal/server"
	"library-ai-be/internal/tracer"
	"library-ai-be/pkg/database"
)

const drainTimeout = 30 * time.Second

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer(cfg.Tracing, cfg.App.Environment)
	defer shutdownTracer(context.Background())

	// 2. Initialize Database
	dbOpts := []database.Option{database.WithPool(cfg.Database.MaxIdleConns, cfg.Database.MaxOpenConns)}
	if cfg.IsProduction() {
		dbOpts = append(dbOpts, database.WithQuietLogging())
	}
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection, dbOpts...)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Services
	bgCtx, stopBackground := context.WithCancel(context.Background())
	if err := container.StartBackground(bgCtx); err != nil {
		log.Printf("Background services error: %v", err)
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		if err := srv.Run(); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	// 6. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	if err := srv.Shutdown(); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := container.Orchestrator.Drain(ctx); err != nil {
		log.Printf("Pending answers not persisted before timeout: %v", err)
	}

	stopBackground()
	container.Close()
	log.Println("Bye")
}
