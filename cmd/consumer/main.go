package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ppm-intake-be/internal/config"
	"ppm-intake-be/internal/pkg/logger"
	"ppm-intake-be/pkg/events"
	pktNats "ppm-intake-be/pkg/nats"
)

const durableName = "intake-audit-worker"

// Audit worker: writes every completed intake relayed through NATS to the audit log.
func main() {
	cfg := config.Load()
	if cfg.App.NatsURL == "" {
		log.Fatal("Error: NATS_URL is not set")
	}

	auditLogger := logger.NewIsolatedLogger(cfg.App.AuditLogFilePath)
	defer auditLogger.Sync()

	sub, err := pktNats.NewSubscriber(cfg.App.NatsURL, auditLogger)
	if err != nil {
		log.Fatalf("Failed to connect to NATS Subscriber: %v", err)
	}
	defer sub.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = sub.Subscribe(ctx, events.IntakeCompleted, durableName, func(_ context.Context, event events.Event) error {
		auditLogger.Info("IntakeAudit", "Intake completed", event.Payload())
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to subscribe: %v", err)
	}

	log.Println("✅ Audit worker listening for completed intakes")
	<-ctx.Done()
	log.Println("Audit worker stopped")
}
