package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ezrakhuzadi/atc-drone/internal/config"
	"github.com/ezrakhuzadi/atc-drone/internal/nats"
	"github.com/ezrakhuzadi/atc-drone/internal/sim"
	"github.com/ezrakhuzadi/atc-drone/internal/types"
)

// TelemetryPublisher interface for testability
type TelemetryPublisher interface {
	PublishTelemetry(msg *types.TelemetryMessage) error
}

func main() {
	scenarioName := flag.String("scenario", "crossing", "scenario to simulate (crossing, parallel, converging)")
	centerLat := flag.Float64("lat", 33.6846, "center latitude")
	centerLon := flag.Float64("lon", -117.8265, "center longitude")
	duration := flag.Duration("duration", 60*time.Second, "simulation duration")
	rateHz := flag.Float64("rate", 1.0, "position update rate in Hz")
	reset := flag.Bool("reset", false, "request an engine reset and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	client, err := nats.New(cfg.NATSUrl)
	if err != nil {
		log.Printf("Failed to create NATS client: %v", err)
		os.Exit(1)
	}
	defer client.Close()

	if *reset {
		if err := client.PublishAdminReset(); err != nil {
			log.Fatalf("Failed to request reset: %v", err)
		}
		log.Println("Engine reset requested")
		return
	}

	builder, ok := sim.Scenarios[*scenarioName]
	if !ok {
		names := make([]string, 0, len(sim.Scenarios))
		for name := range sim.Scenarios {
			names = append(names, name)
		}
		log.Fatalf("Unknown scenario %q, choose one of: %s", *scenarioName, strings.Join(names, ", "))
	}

	drones := builder(*centerLat, *centerLon)

	log.Printf("Scenario: %s", *scenarioName)
	log.Printf("Starting simulation with %d drone(s) for %s at %.1fHz", len(drones), *duration, *rateHz)
	for _, drone := range drones {
		log.Printf("  - %s", drone.ID)
	}

	if err := runSimulation(client, drones, *duration, *rateHz); err != nil {
		log.Fatalf("Simulation failed: %v", err)
	}
}

// runSimulation publishes position updates for every drone until the
// duration elapses
func runSimulation(client TelemetryPublisher, drones []sim.Drone, duration time.Duration, rateHz float64) error {
	if rateHz <= 0 {
		return fmt.Errorf("update rate must be positive, got %f", rateHz)
	}

	interval := time.Duration(float64(time.Second) / rateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	start := time.Now()
	updates := 0

	for time.Since(start) < duration {
		elapsed := time.Since(start).Seconds()

		for _, drone := range drones {
			report := sim.ReportAt(drone, elapsed)

			raw, err := json.Marshal(report)
			if err != nil {
				return fmt.Errorf("failed to marshal report for %s: %w", drone.ID, err)
			}

			msg := &types.TelemetryMessage{
				Raw:       string(raw),
				Timestamp: time.Now().UTC(),
				Source:    "simulator",
			}

			if err := client.PublishTelemetry(msg); err != nil {
				log.Printf("Failed to publish update for %s: %v", drone.ID, err)
				continue
			}
			updates++
		}

		<-ticker.C
	}

	log.Printf("Simulation complete, sent %d updates", updates)
	return nil
}
