package sim

import (
	"math"
	"testing"

	"github.com/ezrakhuzadi/atc-drone/internal/geo"
)

const (
	centerLat = 33.6846
	centerLon = -117.8265
)

func TestLinearPath_Endpoints(t *testing.T) {
	path := NewLinearPath(centerLat, centerLon-0.003, centerLat, centerLon+0.003, 50, 10)

	lat, lon, alt := path.Position(0)
	if lat != centerLat || lon != centerLon-0.003 {
		t.Errorf("Position(0) = (%f, %f), want start point", lat, lon)
	}
	if alt != 50 {
		t.Errorf("Expected altitude 50, got %f", alt)
	}

	// Far past the duration the path clamps at the end point
	lat, lon, _ = path.Position(1e6)
	if lat != centerLat || lon != centerLon+0.003 {
		t.Errorf("Position(1e6) = (%f, %f), want end point", lat, lon)
	}
}

func TestLinearPath_Midpoint(t *testing.T) {
	path := NewLinearPath(33.0, -117.0, 34.0, -117.0, 80, 10)

	half := path.durationS / 2
	lat, lon, _ := path.Position(half)

	if math.Abs(lat-33.5) > 1e-9 {
		t.Errorf("Expected midpoint lat 33.5, got %f", lat)
	}
	if lon != -117.0 {
		t.Errorf("Expected lon -117.0, got %f", lon)
	}
}

func TestLinearPath_ZeroSpeed(t *testing.T) {
	path := NewLinearPath(33.0, -117.0, 34.0, -117.0, 80, 0)

	lat, lon, _ := path.Position(100)
	if lat != 33.0 || lon != -117.0 {
		t.Errorf("Zero-speed path should stay at start, got (%f, %f)", lat, lon)
	}
}

func TestCircularPath_StaysOnRadius(t *testing.T) {
	path := NewCircularPath(centerLat, centerLon, 200, 60, 10)

	for _, tt := range []float64{0, 5, 17, 60, 123} {
		lat, lon, alt := path.Position(tt)
		if alt != 60 {
			t.Errorf("Expected altitude 60 at t=%f, got %f", tt, alt)
		}

		dist := geo.HaversineMeters(centerLat, centerLon, lat, lon)
		if math.Abs(dist-200) > 5 {
			t.Errorf("At t=%f distance from center = %f, want ~200m", tt, dist)
		}
	}
}

func TestCircularPath_Period(t *testing.T) {
	path := NewCircularPath(centerLat, centerLon, 100, 60, 10)

	lat0, lon0, _ := path.Position(0)
	latP, lonP, _ := path.Position(path.periodS)

	if math.Abs(latP-lat0) > 1e-9 || math.Abs(lonP-lon0) > 1e-9 {
		t.Errorf("Position after one period (%f, %f) should match start (%f, %f)", latP, lonP, lat0, lon0)
	}
}

func TestCrossingScenario(t *testing.T) {
	drones := CrossingScenario(centerLat, centerLon)

	if len(drones) != 2 {
		t.Fatalf("Expected 2 drones, got %d", len(drones))
	}

	// Both paths pass through the center at the same altitude
	for _, drone := range drones {
		path := drone.Path.(*LinearPath)
		half := path.durationS / 2
		lat, lon, _ := drone.Path.Position(half)
		dist := geo.HaversineMeters(centerLat, centerLon, lat, lon)
		if dist > 10 {
			t.Errorf("%s midpoint is %fm from center, want near 0", drone.ID, dist)
		}
	}
}

func TestParallelScenario_SeparationHolds(t *testing.T) {
	drones := ParallelScenario(centerLat, centerLon)

	if len(drones) != 2 {
		t.Fatalf("Expected 2 drones, got %d", len(drones))
	}

	for _, tt := range []float64{0, 10, 30, 60} {
		lat1, lon1, _ := drones[0].Path.Position(tt)
		lat2, lon2, _ := drones[1].Path.Position(tt)
		dist := geo.HaversineMeters(lat1, lon1, lat2, lon2)
		if dist < 100 {
			t.Errorf("At t=%f separation is %fm, want >= 100m", tt, dist)
		}
	}
}

func TestConvergingScenario(t *testing.T) {
	drones := ConvergingScenario(centerLat, centerLon)

	if len(drones) != 4 {
		t.Fatalf("Expected 4 drones, got %d", len(drones))
	}

	ids := map[string]bool{}
	for _, drone := range drones {
		ids[drone.ID] = true

		// Every drone ends at the center
		lat, lon, _ := drone.Path.Position(1e6)
		if lat != centerLat || lon != centerLon {
			t.Errorf("%s should end at center, got (%f, %f)", drone.ID, lat, lon)
		}
	}

	if len(ids) != 4 {
		t.Errorf("Expected 4 unique drone IDs, got %d", len(ids))
	}
}

func TestScenarios_Registry(t *testing.T) {
	for _, name := range []string{"crossing", "parallel", "converging"} {
		builder, ok := Scenarios[name]
		if !ok {
			t.Errorf("Missing scenario %q", name)
			continue
		}
		if drones := builder(centerLat, centerLon); len(drones) == 0 {
			t.Errorf("Scenario %q built no drones", name)
		}
	}
}

func TestReportAt(t *testing.T) {
	drones := CrossingScenario(centerLat, centerLon)

	report := ReportAt(drones[0], 0)

	if report.DroneID != "DRONE001" {
		t.Errorf("Expected DroneID DRONE001, got %s", report.DroneID)
	}
	if report.SpeedMps != 10 {
		t.Errorf("Expected SpeedMps 10, got %f", report.SpeedMps)
	}
	if report.Timestamp == 0 {
		t.Error("Expected Timestamp to be set")
	}

	// Drone 1 flies west to east, so heading should be near 90 degrees
	if math.Abs(report.HeadingDeg-90) > 5 {
		t.Errorf("Expected heading near 90, got %f", report.HeadingDeg)
	}
}

func TestReportAt_NorthboundHeading(t *testing.T) {
	drones := CrossingScenario(centerLat, centerLon)

	// Drone 2 flies south to north, heading near 0
	report := ReportAt(drones[1], 0)
	heading := report.HeadingDeg
	if heading > 180 {
		heading -= 360
	}
	if math.Abs(heading) > 5 {
		t.Errorf("Expected heading near 0, got %f", report.HeadingDeg)
	}
}
