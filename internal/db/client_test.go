package db

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/ezrakhuzadi/atc-drone/internal/types"
)

func newMockClient(t *testing.T) (*Client, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	return NewWithDB(db), mock
}

func TestStorePosition(t *testing.T) {
	client, mock := newMockClient(t)
	defer client.Close()

	mock.ExpectExec("INSERT INTO drone_positions").
		WithArgs(sqlmock.AnyArg(), "drone-1", 33.6846, -117.8265, 50.0, 90.0, 10.0).
		WillReturnResult(sqlmock.NewResult(1, 1))

	pos := &types.DronePosition{
		DroneID:    "drone-1",
		Lat:        33.6846,
		Lon:        -117.8265,
		AltitudeM:  50,
		HeadingDeg: 90,
		SpeedMps:   10,
		Timestamp:  1700000000,
	}
	if err := client.StorePosition(pos); err != nil {
		t.Fatalf("StorePosition() failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestStoreConflict(t *testing.T) {
	client, mock := newMockClient(t)
	defer client.Close()

	mock.ExpectExec("INSERT INTO conflict_events").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "drone-1", "drone-2", "critical",
			33.4, 0.0, 33.4, 33.68, -117.82, 50.0).
		WillReturnResult(sqlmock.NewResult(1, 1))

	conflict := &types.Conflict{
		Drone1ID:         "drone-1",
		Drone2ID:         "drone-2",
		Severity:         types.SeverityCritical,
		DistanceM:        33.4,
		TimeToClosest:    0,
		ClosestDistanceM: 33.4,
		CPALat:           33.68,
		CPALon:           -117.82,
		CPAAltitudeM:     50,
		Timestamp:        1700000000,
	}
	if err := client.StoreConflict(conflict); err != nil {
		t.Fatalf("StoreConflict() failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestGetRecentConflicts(t *testing.T) {
	client, mock := newMockClient(t)
	defer client.Close()

	since := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"time", "drone1_id", "drone2_id", "severity",
		"distance_m", "time_to_closest", "closest_distance_m",
		"cpa_latitude", "cpa_longitude", "cpa_altitude_m",
	}).AddRow(
		since.Add(time.Hour), "drone-1", "drone-2", "warning",
		80.0, 12.0, 80.0, 33.68, -117.82, 50.0,
	)

	mock.ExpectQuery("SELECT (.+) FROM conflict_events").
		WithArgs(since).
		WillReturnRows(rows)

	conflicts, err := client.GetRecentConflicts(since)
	if err != nil {
		t.Fatalf("GetRecentConflicts() failed: %v", err)
	}
	if len(conflicts) != 1 {
		t.Fatalf("GetRecentConflicts() = %d rows, want 1", len(conflicts))
	}

	c := conflicts[0]
	if c.Severity != types.SeverityWarning {
		t.Errorf("Severity = %v, want warning", c.Severity)
	}
	if c.Drone1ID != "drone-1" || c.Drone2ID != "drone-2" {
		t.Errorf("Pair = %s/%s, want drone-1/drone-2", c.Drone1ID, c.Drone2ID)
	}
	if c.Timestamp == 0 {
		t.Error("Timestamp not populated from row time")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestGetPositionHistory(t *testing.T) {
	client, mock := newMockClient(t)
	defer client.Close()

	start := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	rows := sqlmock.NewRows([]string{
		"time", "drone_id", "latitude", "longitude", "altitude_m",
		"heading_deg", "speed_mps",
	}).
		AddRow(start.Add(time.Minute), "drone-1", 33.6846, -117.8265, 50.0, 90.0, 10.0).
		AddRow(start.Add(2*time.Minute), "drone-1", 33.6846, -117.8255, 50.0, 90.0, 10.0)

	mock.ExpectQuery("SELECT (.+) FROM drone_positions").
		WithArgs("drone-1", start, end).
		WillReturnRows(rows)

	positions, err := client.GetPositionHistory("drone-1", start, end)
	if err != nil {
		t.Fatalf("GetPositionHistory() failed: %v", err)
	}
	if len(positions) != 2 {
		t.Fatalf("GetPositionHistory() = %d rows, want 2", len(positions))
	}
	if positions[0].DroneID != "drone-1" {
		t.Errorf("DroneID = %s, want drone-1", positions[0].DroneID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestStoreScanStats(t *testing.T) {
	client, mock := newMockClient(t)
	defer client.Close()

	mock.ExpectExec("INSERT INTO scan_stats").
		WithArgs(sqlmock.AnyArg(), uint64(100), uint64(95), uint64(5),
			uint64(10), uint64(2), uint64(1), uint64(4), int64(15)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	stats := map[string]interface{}{
		"telemetry_received": uint64(100),
		"telemetry_parsed":   uint64(95),
		"telemetry_rejected": uint64(5),
		"scans_completed":    uint64(10),
		"conflicts_warning":  uint64(2),
		"conflicts_critical": uint64(1),
		"tracked_drones":     uint64(4),
		"scan_time":          15 * time.Millisecond,
	}
	if err := client.StoreScanStats(stats); err != nil {
		t.Fatalf("StoreScanStats() failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}
