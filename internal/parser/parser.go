package parser

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/ezrakhuzadi/atc-drone/internal/types"
)

// ParsePosition decodes one raw telemetry line into a DronePosition and
// validates it. The detection engine itself is permissive and will happily
// propagate NaN through its arithmetic, so malformed reports are rejected
// here at the ingestion boundary instead.
func ParsePosition(raw string, received time.Time) (*types.DronePosition, error) {
	var pos types.DronePosition
	if err := json.Unmarshal([]byte(raw), &pos); err != nil {
		return nil, fmt.Errorf("failed to decode telemetry: %w", err)
	}

	if err := Validate(&pos); err != nil {
		return nil, err
	}

	if pos.Timestamp == 0 {
		pos.Timestamp = float64(received.UnixNano()) / 1e9
	}

	return &pos, nil
}

// Validate checks that a position is usable by the detection engine.
func Validate(pos *types.DronePosition) error {
	if pos.DroneID == "" {
		return fmt.Errorf("missing drone_id")
	}
	for name, v := range map[string]float64{
		"lat":         pos.Lat,
		"lon":         pos.Lon,
		"altitude_m":  pos.AltitudeM,
		"heading_deg": pos.HeadingDeg,
		"speed_mps":   pos.SpeedMps,
		"timestamp":   pos.Timestamp,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite %s for drone %s", name, pos.DroneID)
		}
	}
	if pos.Lat < -90 || pos.Lat > 90 {
		return fmt.Errorf("latitude %v out of range for drone %s", pos.Lat, pos.DroneID)
	}
	if pos.Lon < -180 || pos.Lon > 180 {
		return fmt.Errorf("longitude %v out of range for drone %s", pos.Lon, pos.DroneID)
	}
	if pos.SpeedMps < 0 {
		return fmt.Errorf("negative speed %v for drone %s", pos.SpeedMps, pos.DroneID)
	}
	return nil
}
