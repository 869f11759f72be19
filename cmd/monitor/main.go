package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ezrakhuzadi/atc-drone/internal/config"
	"github.com/ezrakhuzadi/atc-drone/internal/db"
	"github.com/ezrakhuzadi/atc-drone/internal/detector"
	"github.com/ezrakhuzadi/atc-drone/internal/nats"
	"github.com/ezrakhuzadi/atc-drone/internal/parser"
	"github.com/ezrakhuzadi/atc-drone/internal/redis"
	"github.com/ezrakhuzadi/atc-drone/internal/stats"
	"github.com/ezrakhuzadi/atc-drone/internal/types"
	"github.com/ezrakhuzadi/atc-drone/internal/ws"
)

// DBClient interface for testability
type DBClient interface {
	StoreConflict(conflict *types.Conflict) error
	Close() error
}

// RedisClient interface for testability
type RedisClient interface {
	StorePosition(ctx context.Context, pos *types.DronePosition) error
	DeletePosition(ctx context.Context, droneID string) error
	ReplaceActiveConflicts(ctx context.Context, conflicts []types.Conflict) error
	Close() error
}

// ConflictPublisher interface for testability
type ConflictPublisher interface {
	PublishConflicts(conflicts []types.Conflict) error
}

// Broadcaster interface for testability
type Broadcaster interface {
	Broadcast(message interface{})
}

// AirspaceUpdate is the snapshot pushed to WebSocket subscribers after a scan
type AirspaceUpdate struct {
	Type      string                `json:"type"`
	Drones    []types.DronePosition `json:"drones"`
	Conflicts []types.Conflict      `json:"conflicts"`
	Timestamp float64               `json:"timestamp"`
}

// Monitor owns the conflict detection engine and serializes access to it
type Monitor struct {
	detector *detector.Detector
	mu       sync.Mutex

	db        DBClient
	redis     RedisClient
	publisher ConflictPublisher
	hub       Broadcaster
	stats     *stats.Stats

	staleAfterSeconds float64
}

// NewMonitor creates a monitor around a fresh detection engine
func NewMonitor(engineCfg config.Engine, staleAfterSeconds float64, dbClient DBClient, redisClient RedisClient, publisher ConflictPublisher, hub Broadcaster) *Monitor {
	return &Monitor{
		detector: detector.New(
			engineCfg.LookaheadSeconds,
			engineCfg.SeparationHorizontalM,
			engineCfg.SeparationVerticalM,
			engineCfg.WarningMultiplier,
		),
		db:                dbClient,
		redis:             redisClient,
		publisher:         publisher,
		hub:               hub,
		stats:             stats.New(),
		staleAfterSeconds: staleAfterSeconds,
	}
}

// Start hooks up statistics persistence and logging
func (m *Monitor) Start(ctx context.Context) {
	if dbClient, ok := m.db.(*db.Client); ok {
		m.stats.SetDB(dbClient)
	}

	go m.logStats(ctx)
	go m.stats.StartPersistence(ctx, 5*time.Minute)
}

// ProcessTelemetry parses a raw telemetry envelope and feeds it to the engine
func (m *Monitor) ProcessTelemetry(msg *types.TelemetryMessage) error {
	m.stats.IncrementTelemetryReceived()
	m.stats.UpdateLastTelemetryTime()

	pos, err := parser.ParsePosition(msg.Raw, msg.Timestamp)
	if err != nil {
		m.stats.IncrementTelemetryRejected()
		return fmt.Errorf("failed to parse telemetry: %w", err)
	}
	m.stats.IncrementTelemetryParsed()

	m.mu.Lock()
	m.detector.UpdatePosition(*pos)
	m.stats.SetTrackedDrones(uint64(m.detector.DroneCount()))
	m.mu.Unlock()

	if err := m.redis.StorePosition(context.Background(), pos); err != nil {
		log.Printf("Warning: Failed to cache position in Redis: %v", err)
	}

	return nil
}

// Scan sweeps stale drones, runs one detection pass and fans the results out
func (m *Monitor) Scan() []types.Conflict {
	start := time.Now()

	m.mu.Lock()
	m.sweepStale()
	conflicts := m.detector.DetectConflicts()
	drones := m.detector.AllPositions()
	m.stats.SetTrackedDrones(uint64(m.detector.DroneCount()))
	m.mu.Unlock()

	m.stats.IncrementScansCompleted()
	m.stats.AddScanTime(time.Since(start))
	for _, conflict := range conflicts {
		m.stats.CountConflict(string(conflict.Severity))
	}

	if len(conflicts) > 0 {
		if err := m.publisher.PublishConflicts(conflicts); err != nil {
			log.Printf("Warning: Failed to publish conflicts: %v", err)
		}
		for i := range conflicts {
			if err := m.db.StoreConflict(&conflicts[i]); err != nil {
				log.Printf("Warning: Failed to store conflict: %v", err)
			}
		}
	}

	if err := m.redis.ReplaceActiveConflicts(context.Background(), conflicts); err != nil {
		log.Printf("Warning: Failed to update conflict cache: %v", err)
	}

	m.hub.Broadcast(AirspaceUpdate{
		Type:      "airspace",
		Drones:    drones,
		Conflicts: conflicts,
		Timestamp: float64(time.Now().UnixNano()) / 1e9,
	})

	return conflicts
}

// sweepStale drops drones whose last report is older than the stale window.
// Caller must hold m.mu.
func (m *Monitor) sweepStale() {
	if m.staleAfterSeconds <= 0 {
		return
	}

	now := float64(time.Now().UnixNano()) / 1e9
	for _, pos := range m.detector.AllPositions() {
		if now-pos.Timestamp > m.staleAfterSeconds {
			m.detector.RemoveDrone(pos.DroneID)
			if err := m.redis.DeletePosition(context.Background(), pos.DroneID); err != nil {
				log.Printf("Warning: Failed to drop stale position from Redis: %v", err)
			}
			log.Printf("Dropped stale drone %s", pos.DroneID)
		}
	}
}

// Reset clears all tracked drones and active conflicts
func (m *Monitor) Reset() {
	m.mu.Lock()
	m.detector.Reset()
	m.stats.SetTrackedDrones(0)
	m.mu.Unlock()

	if err := m.redis.ReplaceActiveConflicts(context.Background(), nil); err != nil {
		log.Printf("Warning: Failed to clear conflict cache: %v", err)
	}

	m.hub.Broadcast(AirspaceUpdate{
		Type:      "airspace",
		Drones:    []types.DronePosition{},
		Conflicts: []types.Conflict{},
		Timestamp: float64(time.Now().UnixNano()) / 1e9,
	})

	log.Println("Engine reset: all drones and conflicts cleared")
}

// runScanLoop runs detection passes at the configured interval
func (m *Monitor) runScanLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Scan()
		}
	}
}

// logStats periodically logs statistics
func (m *Monitor) logStats(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			log.Printf("Statistics:\n%s", m.stats)
		}
	}
}

// createClients creates all the required clients for the application
func createClients(cfg *config.Config) (*nats.Client, *db.Client, *redis.Client, error) {
	natsClient, err := nats.New(cfg.NATSUrl)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create NATS client: %w", err)
	}

	dbClient, err := db.New(cfg.DBConnStr)
	if err != nil {
		natsClient.Close()
		return nil, nil, nil, fmt.Errorf("failed to create database client: %w", err)
	}

	redisClient, err := redis.New(cfg.RedisAddr)
	if err != nil {
		natsClient.Close()
		if closeErr := dbClient.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing dbClient: %v\n", closeErr)
		}
		return nil, nil, nil, fmt.Errorf("failed to create Redis client: %w", err)
	}

	return natsClient, dbClient, redisClient, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	natsClient, dbClient, redisClient, err := createClients(cfg)
	if err != nil {
		log.Printf("Failed to create clients: %v", err)
		os.Exit(1)
	}

	hub := ws.NewHub()
	go hub.Run()

	monitor := NewMonitor(cfg.Engine, cfg.StaleAfterSeconds, dbClient, redisClient, natsClient, hub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	monitor.Start(ctx)

	if err := natsClient.SubscribeTelemetry(func(msg *types.TelemetryMessage) {
		if err := monitor.ProcessTelemetry(msg); err != nil {
			log.Printf("Failed to process telemetry: %v", err)
		}
	}); err != nil {
		log.Fatalf("Failed to subscribe to telemetry: %v", err)
	}

	if err := natsClient.SubscribeAdminReset(func() {
		monitor.Reset()
	}); err != nil {
		log.Fatalf("Failed to subscribe to admin reset: %v", err)
	}

	scanInterval := time.Duration(cfg.ScanIntervalSeconds * float64(time.Second))
	go monitor.runScanLoop(ctx, scanInterval)

	httpServer := &http.Server{
		Addr:              cfg.WSListenAddr,
		ReadHeaderTimeout: 5 * time.Second,
	}
	http.HandleFunc("/ws", hub.HandleWebSocket)
	go func() {
		log.Printf("WebSocket endpoint listening on %s", cfg.WSListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("WebSocket server error: %v", err)
		}
	}()

	log.Printf("Monitor started, scanning every %s", scanInterval)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "error shutting down WebSocket server: %v\n", err)
	}
	natsClient.Close()
	if err := dbClient.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "error closing dbClient: %v\n", err)
	}
	if err := redisClient.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "error closing redisClient: %v\n", err)
	}
}
