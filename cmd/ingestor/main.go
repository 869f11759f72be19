package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ezrakhuzadi/atc-drone/internal/capture"
	"github.com/ezrakhuzadi/atc-drone/internal/config"
	"github.com/ezrakhuzadi/atc-drone/internal/nats"
	"github.com/ezrakhuzadi/atc-drone/internal/types"
)

// TelemetryPublisher interface for testability
type TelemetryPublisher interface {
	PublishTelemetry(msg *types.TelemetryMessage) error
	Close()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.RequireSources(); err != nil {
		log.Fatal(err)
	}

	client, err := nats.New(cfg.NATSUrl)
	if err != nil {
		log.Printf("Failed to create NATS client: %v", err)
		os.Exit(1)
	}
	defer client.Close()

	cap := capture.New(cfg.Sources)
	if err := cap.Start(); err != nil {
		log.Fatalf("Failed to start telemetry capture: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go pumpReports(ctx, cap.Reports(), client)

	log.Printf("Ingestor started with %d telemetry source(s)", len(cfg.Sources))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")
	cancel()
	cap.Stop()
	time.Sleep(time.Second) // Give time for in-flight publishes
}

// pumpReports forwards captured telemetry lines to NATS
func pumpReports(ctx context.Context, reports <-chan capture.Report, client TelemetryPublisher) {
	for {
		select {
		case <-ctx.Done():
			return
		case report, ok := <-reports:
			if !ok {
				return
			}

			msg := &types.TelemetryMessage{
				Raw:       report.Line,
				Timestamp: report.Timestamp,
				Source:    report.Source,
			}

			if err := client.PublishTelemetry(msg); err != nil {
				log.Printf("Failed to publish telemetry: %v", err)
			}
		}
	}
}
