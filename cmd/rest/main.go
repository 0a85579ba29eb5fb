package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ppm-intake-be/internal/bootstrap"
	"ppm-intake-be/internal/config"
	"ppm-intake-be/internal/server"
	"ppm-intake-be/internal/tracer"
	"ppm-intake-be/pkg/database"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	shutdownTracer := tracer.InitTracer(cfg.Tracing)
	defer shutdownTracer(context.Background())

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.Database.Verbose)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(ctx, gormDB, cfg)
	if err != nil {
		log.Fatalf("Unable to bootstrap: %v", err)
	}
	defer container.Close()

	// 4. Start Background Services
	if err := container.ConsumerService.Consume(ctx); err != nil {
		log.Fatalf("Consumer Service Error: %v", err)
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	// 6. Wait for a signal or a listener failure
	select {
	case <-ctx.Done():
		log.Println("Shutting down...")
	case err := <-errCh:
		log.Printf("Server stopped: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to close sessions: %v", err)
	}
	log.Println("✅ Shutdown complete")
}
