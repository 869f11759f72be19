package testutils

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ezrakhuzadi/atc-drone/internal/types"
)

// MockDronePosition creates a position report for testing
func MockDronePosition(droneID string, lat, lon, altitudeM float64) types.DronePosition {
	return types.DronePosition{
		DroneID:   droneID,
		Lat:       lat,
		Lon:       lon,
		AltitudeM: altitudeM,
		Timestamp: float64(time.Now().UnixNano()) / 1e9,
	}
}

// MockTelemetryLine creates a raw telemetry JSON line for testing
func MockTelemetryLine(droneID string, lat, lon, altitudeM float64) string {
	raw, _ := json.Marshal(MockDronePosition(droneID, lat, lon, altitudeM))
	return string(raw)
}

// WaitForCondition waits for a condition to be true with timeout
func WaitForCondition(condition func() bool, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for condition")
		case <-ticker.C:
			if condition() {
				return nil
			}
		}
	}
}
