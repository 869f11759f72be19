package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ezrakhuzadi/atc-drone/internal/config"
	"github.com/ezrakhuzadi/atc-drone/internal/db"
	"github.com/ezrakhuzadi/atc-drone/internal/nats"
	"github.com/ezrakhuzadi/atc-drone/internal/parser"
	"github.com/ezrakhuzadi/atc-drone/internal/storage"
	"github.com/ezrakhuzadi/atc-drone/internal/types"
)

// Archiver interface for testability
type Archiver interface {
	WriteRecord(record []byte) error
}

// PositionStore interface for testability
type PositionStore interface {
	StorePosition(pos *types.DronePosition) error
}

// Recorder archives raw telemetry and persists parsed positions
type Recorder struct {
	archive Archiver
	store   PositionStore
}

// NewRecorder creates a new Recorder instance
func NewRecorder(archive Archiver, store PositionStore) *Recorder {
	return &Recorder{
		archive: archive,
		store:   store,
	}
}

// Record writes one telemetry envelope to the archive and, when it parses
// cleanly, to the position history table
func (r *Recorder) Record(msg *types.TelemetryMessage) error {
	if err := r.archive.WriteRecord([]byte(msg.Raw)); err != nil {
		return fmt.Errorf("failed to archive telemetry: %w", err)
	}

	pos, err := parser.ParsePosition(msg.Raw, msg.Timestamp)
	if err != nil {
		// Malformed lines still land in the archive, just not the database
		return nil
	}

	if err := r.store.StorePosition(pos); err != nil {
		return fmt.Errorf("failed to store position: %w", err)
	}

	return nil
}

func main() {
	if err := runRecorder(); err != nil {
		log.Printf("Recorder failed: %v", err)
		os.Exit(1)
	}
}

// runRecorder contains the main application logic
func runRecorder() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	archive := storage.New(cfg.OutputDir)
	if err := archive.Start(); err != nil {
		return fmt.Errorf("failed to start archive: %w", err)
	}

	dbClient, err := db.New(cfg.DBConnStr)
	if err != nil {
		return fmt.Errorf("failed to create database client: %w", err)
	}

	client, err := nats.New(cfg.NATSUrl)
	if err != nil {
		if closeErr := dbClient.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing dbClient: %v\n", closeErr)
		}
		return fmt.Errorf("failed to create NATS client: %w", err)
	}

	recorder := NewRecorder(archive, dbClient)

	if err := client.SubscribeTelemetry(func(msg *types.TelemetryMessage) {
		if err := recorder.Record(msg); err != nil {
			log.Printf("Failed to record telemetry: %v", err)
		}
	}); err != nil {
		client.Close()
		if closeErr := dbClient.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing dbClient: %v\n", closeErr)
		}
		return fmt.Errorf("failed to subscribe to telemetry: %w", err)
	}

	log.Printf("Recorder started, archiving to %s", cfg.OutputDir)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")
	client.Close()
	if err := archive.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "error stopping archive: %v\n", err)
	}
	if err := dbClient.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "error closing dbClient: %v\n", err)
	}
	time.Sleep(time.Second) // Give time for in-flight handlers

	return nil
}
