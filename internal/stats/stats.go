package stats

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ezrakhuzadi/atc-drone/internal/db"
)

// Stats tracks telemetry and conflict-scan statistics
type Stats struct {
	// Telemetry counts
	TelemetryReceived uint64
	TelemetryParsed   uint64
	TelemetryRejected uint64

	// Scan counts
	ScansCompleted    uint64
	ConflictsWarning  uint64
	ConflictsCritical uint64

	// Active tracking
	TrackedDrones uint64

	// Timing
	LastTelemetryTime time.Time
	ScanTime          time.Duration

	// Database client for persistence
	db *db.Client

	mu sync.RWMutex
}

// New creates a new Stats instance
func New() *Stats {
	return &Stats{
		LastTelemetryTime: time.Now(),
	}
}

// SetDB sets the database client for persistence
func (s *Stats) SetDB(db *db.Client) {
	s.mu.Lock()
	s.db = db
	s.mu.Unlock()
}

// Persist stores the current statistics in the database
func (s *Stats) Persist() error {
	s.mu.RLock()
	if s.db == nil {
		s.mu.RUnlock()
		return fmt.Errorf("database client not set")
	}
	s.mu.RUnlock()

	return s.db.StoreScanStats(s.GetStats())
}

// IncrementTelemetryReceived increments the received telemetry counter
func (s *Stats) IncrementTelemetryReceived() {
	atomic.AddUint64(&s.TelemetryReceived, 1)
}

// IncrementTelemetryParsed increments the parsed telemetry counter
func (s *Stats) IncrementTelemetryParsed() {
	atomic.AddUint64(&s.TelemetryParsed, 1)
}

// IncrementTelemetryRejected increments the rejected telemetry counter
func (s *Stats) IncrementTelemetryRejected() {
	atomic.AddUint64(&s.TelemetryRejected, 1)
}

// IncrementScansCompleted increments the completed scans counter
func (s *Stats) IncrementScansCompleted() {
	atomic.AddUint64(&s.ScansCompleted, 1)
}

// CountConflict increments the counter matching a conflict severity
func (s *Stats) CountConflict(severity string) {
	switch severity {
	case "warning":
		atomic.AddUint64(&s.ConflictsWarning, 1)
	case "critical":
		atomic.AddUint64(&s.ConflictsCritical, 1)
	}
}

// SetTrackedDrones sets the number of currently tracked drones
func (s *Stats) SetTrackedDrones(count uint64) {
	atomic.StoreUint64(&s.TrackedDrones, count)
}

// UpdateLastTelemetryTime updates the last telemetry time
func (s *Stats) UpdateLastTelemetryTime() {
	s.mu.Lock()
	s.LastTelemetryTime = time.Now()
	s.mu.Unlock()
}

// AddScanTime adds to the total scan time
func (s *Stats) AddScanTime(duration time.Duration) {
	s.mu.Lock()
	s.ScanTime += duration
	s.mu.Unlock()
}

// GetStats returns a copy of the current statistics
func (s *Stats) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"telemetry_received":  atomic.LoadUint64(&s.TelemetryReceived),
		"telemetry_parsed":    atomic.LoadUint64(&s.TelemetryParsed),
		"telemetry_rejected":  atomic.LoadUint64(&s.TelemetryRejected),
		"scans_completed":     atomic.LoadUint64(&s.ScansCompleted),
		"conflicts_warning":   atomic.LoadUint64(&s.ConflictsWarning),
		"conflicts_critical":  atomic.LoadUint64(&s.ConflictsCritical),
		"tracked_drones":      atomic.LoadUint64(&s.TrackedDrones),
		"last_telemetry_time": s.LastTelemetryTime,
		"scan_time":           s.ScanTime,
	}
}

// String returns a string representation of the statistics
func (s *Stats) String() string {
	stats := s.GetStats()
	return fmt.Sprintf(
		"Telemetry Received: %d\n"+
			"Telemetry Parsed: %d\n"+
			"Telemetry Rejected: %d\n"+
			"Scans Completed: %d\n"+
			"Warning Conflicts: %d\n"+
			"Critical Conflicts: %d\n"+
			"Tracked Drones: %d\n"+
			"Last Telemetry Time: %s\n"+
			"Scan Time: %s",
		stats["telemetry_received"],
		stats["telemetry_parsed"],
		stats["telemetry_rejected"],
		stats["scans_completed"],
		stats["conflicts_warning"],
		stats["conflicts_critical"],
		stats["tracked_drones"],
		stats["last_telemetry_time"],
		stats["scan_time"],
	)
}

// StartPersistence starts periodic persistence of statistics
func (s *Stats) StartPersistence(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Final persistence before shutdown
			if err := s.Persist(); err != nil {
				fmt.Printf("Failed to persist final statistics: %v\n", err)
			}
			return
		case <-ticker.C:
			if err := s.Persist(); err != nil {
				fmt.Printf("Failed to persist statistics: %v\n", err)
			}
		}
	}
}
