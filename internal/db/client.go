package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // postgres driver

	"github.com/ezrakhuzadi/atc-drone/internal/types"
)

type Client struct {
	db *sql.DB
}

// New creates a new database client
func New(connStr string) (*Client, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	return &Client{db: db}, nil
}

// NewWithDB creates a client around an existing handle (useful for testing)
func NewWithDB(db *sql.DB) *Client {
	return &Client{db: db}
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.db.Close()
}

func unixToTime(ts float64) time.Time {
	return time.Unix(0, int64(ts*1e9)).UTC()
}

// StorePosition appends a telemetry sample to the position history
func (c *Client) StorePosition(pos *types.DronePosition) error {
	query := `
		INSERT INTO drone_positions (
			time, drone_id, latitude, longitude, altitude_m,
			heading_deg, speed_mps
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := c.db.Exec(query,
		unixToTime(pos.Timestamp), pos.DroneID, pos.Lat, pos.Lon,
		pos.AltitudeM, pos.HeadingDeg, pos.SpeedMps,
	)
	return err
}

// StoreConflict records a detected conflict as an event row
func (c *Client) StoreConflict(conflict *types.Conflict) error {
	query := `
		INSERT INTO conflict_events (
			event_id, time, drone1_id, drone2_id, severity,
			distance_m, time_to_closest, closest_distance_m,
			cpa_latitude, cpa_longitude, cpa_altitude_m
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := c.db.Exec(query,
		uuid.New().String(), unixToTime(conflict.Timestamp),
		conflict.Drone1ID, conflict.Drone2ID, string(conflict.Severity),
		conflict.DistanceM, conflict.TimeToClosest, conflict.ClosestDistanceM,
		conflict.CPALat, conflict.CPALon, conflict.CPAAltitudeM,
	)
	return err
}

// GetRecentConflicts retrieves conflict events newer than the given time
func (c *Client) GetRecentConflicts(since time.Time) ([]*types.Conflict, error) {
	query := `
		SELECT time, drone1_id, drone2_id, severity,
			distance_m, time_to_closest, closest_distance_m,
			cpa_latitude, cpa_longitude, cpa_altitude_m
		FROM conflict_events
		WHERE time >= $1
		ORDER BY time DESC
	`
	rows, err := c.db.Query(query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conflicts []*types.Conflict
	for rows.Next() {
		var c types.Conflict
		var ts time.Time
		var severity string
		if err := rows.Scan(
			&ts, &c.Drone1ID, &c.Drone2ID, &severity,
			&c.DistanceM, &c.TimeToClosest, &c.ClosestDistanceM,
			&c.CPALat, &c.CPALon, &c.CPAAltitudeM,
		); err != nil {
			return nil, err
		}
		c.Severity = types.Severity(severity)
		c.Timestamp = float64(ts.UnixNano()) / 1e9
		conflicts = append(conflicts, &c)
	}
	return conflicts, rows.Err()
}

// GetPositionHistory retrieves the position history for one drone in a time range
func (c *Client) GetPositionHistory(droneID string, start, end time.Time) ([]*types.DronePosition, error) {
	query := `
		SELECT time, drone_id, latitude, longitude, altitude_m,
			heading_deg, speed_mps
		FROM drone_positions
		WHERE drone_id = $1 AND time BETWEEN $2 AND $3
		ORDER BY time
	`
	rows, err := c.db.Query(query, droneID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []*types.DronePosition
	for rows.Next() {
		var p types.DronePosition
		var ts time.Time
		if err := rows.Scan(
			&ts, &p.DroneID, &p.Lat, &p.Lon, &p.AltitudeM,
			&p.HeadingDeg, &p.SpeedMps,
		); err != nil {
			return nil, err
		}
		p.Timestamp = float64(ts.UnixNano()) / 1e9
		positions = append(positions, &p)
	}
	return positions, rows.Err()
}

// StoreScanStats records the outcome of one scan cycle
func (c *Client) StoreScanStats(stats map[string]interface{}) error {
	query := `
		INSERT INTO scan_stats (
			time, telemetry_received, telemetry_parsed, telemetry_rejected,
			scans_completed, conflicts_warning, conflicts_critical,
			tracked_drones, scan_time_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	scanTime := stats["scan_time"].(time.Duration).Milliseconds()

	_, err := c.db.Exec(query,
		time.Now(),
		stats["telemetry_received"],
		stats["telemetry_parsed"],
		stats["telemetry_rejected"],
		stats["scans_completed"],
		stats["conflicts_warning"],
		stats["conflicts_critical"],
		stats["tracked_drones"],
		scanTime,
	)

	return err
}
