package types

import (
	"time"
)

// Severity classifies how serious a detected conflict is.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Rank returns the ordering of a severity, higher is more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityWarning:
		return 1
	case SeverityCritical:
		return 2
	default:
		return 0
	}
}

// TelemetryMessage represents a raw telemetry report as received from a feed
type TelemetryMessage struct {
	Raw       string    `json:"raw"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

// DronePosition is the latest known position and velocity of a drone.
// Timestamp is Unix seconds; the field layout is the telemetry wire contract
// shared with the drone SDKs and must not change.
type DronePosition struct {
	DroneID    string  `json:"drone_id"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	AltitudeM  float64 `json:"altitude_m"`
	HeadingDeg float64 `json:"heading_deg"`
	SpeedMps   float64 `json:"speed_mps"`
	Timestamp  float64 `json:"timestamp"`
}

// Conflict is a detected or predicted separation violation between two drones.
// DistanceM is the current 3D separation at detection time; the CPA fields
// describe the predicted closest point of approach (midpoint between the two
// predicted positions).
type Conflict struct {
	Drone1ID         string   `json:"drone1_id"`
	Drone2ID         string   `json:"drone2_id"`
	Severity         Severity `json:"severity"`
	DistanceM        float64  `json:"distance_m"`
	TimeToClosest    float64  `json:"time_to_closest"`
	ClosestDistanceM float64  `json:"closest_distance_m"`
	CPALat           float64  `json:"cpa_lat"`
	CPALon           float64  `json:"cpa_lon"`
	CPAAltitudeM     float64  `json:"cpa_altitude_m"`
	Timestamp        float64  `json:"timestamp"`
}

// PairKey returns the conflict's drone pair in lexicographic order, so that
// (A,B) and (B,A) map to the same key.
func (c *Conflict) PairKey() [2]string {
	if c.Drone1ID < c.Drone2ID {
		return [2]string{c.Drone1ID, c.Drone2ID}
	}
	return [2]string{c.Drone2ID, c.Drone1ID}
}

// Involves reports whether the conflict references the given drone.
func (c *Conflict) Involves(droneID string) bool {
	return c.Drone1ID == droneID || c.Drone2ID == droneID
}
