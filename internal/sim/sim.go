// Package sim generates synthetic drone flight paths for exercising the
// conflict detection pipeline.
package sim

import (
	"fmt"
	"math"
	"time"

	"github.com/ezrakhuzadi/atc-drone/internal/geo"
	"github.com/ezrakhuzadi/atc-drone/internal/types"
)

const metersPerDegreeLat = 111320.0

// Path yields a position along a flight path at time t seconds from start
type Path interface {
	Position(t float64) (lat, lon, altitudeM float64)
}

// Drone pairs a drone ID with its scripted path
type Drone struct {
	ID       string
	Path     Path
	SpeedMps float64
}

// LinearPath is a constant-speed great-circle-free straight segment
// between two points, clamped at the endpoint
type LinearPath struct {
	StartLat, StartLon float64
	EndLat, EndLon     float64
	AltitudeM          float64
	SpeedMps           float64

	durationS float64
}

// NewLinearPath creates a linear path and precomputes its duration
func NewLinearPath(startLat, startLon, endLat, endLon, altitudeM, speedMps float64) *LinearPath {
	p := &LinearPath{
		StartLat:  startLat,
		StartLon:  startLon,
		EndLat:    endLat,
		EndLon:    endLon,
		AltitudeM: altitudeM,
		SpeedMps:  speedMps,
	}
	if speedMps > 0 {
		p.durationS = geo.HaversineMeters(startLat, startLon, endLat, endLon) / speedMps
	}
	return p
}

func (p *LinearPath) Position(t float64) (float64, float64, float64) {
	progress := 0.0
	if p.durationS > 0 {
		progress = math.Min(1.0, math.Max(0.0, t/p.durationS))
	}

	lat := p.StartLat + progress*(p.EndLat-p.StartLat)
	lon := p.StartLon + progress*(p.EndLon-p.StartLon)
	return lat, lon, p.AltitudeM
}

// CircularPath orbits a center point at a fixed radius and altitude
type CircularPath struct {
	CenterLat, CenterLon float64
	RadiusM              float64
	AltitudeM            float64
	SpeedMps             float64
	StartAngleRad        float64
	Clockwise            bool

	periodS float64
}

// NewCircularPath creates a circular path and precomputes its orbital period
func NewCircularPath(centerLat, centerLon, radiusM, altitudeM, speedMps float64) *CircularPath {
	p := &CircularPath{
		CenterLat: centerLat,
		CenterLon: centerLon,
		RadiusM:   radiusM,
		AltitudeM: altitudeM,
		SpeedMps:  speedMps,
		Clockwise: true,
	}
	if speedMps > 0 {
		p.periodS = 2 * math.Pi * radiusM / speedMps
	}
	return p
}

func (p *CircularPath) Position(t float64) (float64, float64, float64) {
	angleRad := p.StartAngleRad
	if p.periodS > 0 {
		angleRad += 2 * math.Pi * t / p.periodS
	}
	if p.Clockwise {
		angleRad = -angleRad
	}

	latOffset := (p.RadiusM / metersPerDegreeLat) * math.Cos(angleRad)
	lonOffset := (p.RadiusM / (metersPerDegreeLat * math.Cos(p.CenterLat*math.Pi/180))) * math.Sin(angleRad)

	return p.CenterLat + latOffset, p.CenterLon + lonOffset, p.AltitudeM
}

// CrossingScenario puts two drones on a collision course through the
// center point, one west-to-east and one south-to-north
func CrossingScenario(centerLat, centerLon float64) []Drone {
	const offset = 0.003 // roughly 300m in degrees

	return []Drone{
		{
			ID:       "DRONE001",
			Path:     NewLinearPath(centerLat, centerLon-offset, centerLat, centerLon+offset, 50, 10),
			SpeedMps: 10,
		},
		{
			ID:       "DRONE002",
			Path:     NewLinearPath(centerLat-offset, centerLon, centerLat+offset, centerLon, 50, 10),
			SpeedMps: 10,
		},
	}
}

// ParallelScenario flies two drones on parallel tracks far enough apart
// that no conflict should trigger
func ParallelScenario(centerLat, centerLon float64) []Drone {
	const offset = 0.003
	const separation = 0.001 // roughly 100m

	return []Drone{
		{
			ID:       "DRONE001",
			Path:     NewLinearPath(centerLat, centerLon-offset, centerLat, centerLon+offset, 50, 10),
			SpeedMps: 10,
		},
		{
			ID:       "DRONE002",
			Path:     NewLinearPath(centerLat+separation, centerLon-offset, centerLat+separation, centerLon+offset, 50, 10),
			SpeedMps: 10,
		},
	}
}

// ConvergingScenario sends four drones from the cardinal directions
// toward the same center point
func ConvergingScenario(centerLat, centerLon float64) []Drone {
	const offset = 0.003

	drones := make([]Drone, 0, 4)
	for i, angle := range []float64{0, 90, 180, 270} {
		angleRad := angle * math.Pi / 180
		startLat := centerLat + offset*math.Cos(angleRad)
		startLon := centerLon + offset*math.Sin(angleRad)

		drones = append(drones, Drone{
			ID:       fmt.Sprintf("DRONE%03d", i+1),
			Path:     NewLinearPath(startLat, startLon, centerLat, centerLon, 50, 8),
			SpeedMps: 8,
		})
	}
	return drones
}

// Scenarios maps scenario names to their builders
var Scenarios = map[string]func(centerLat, centerLon float64) []Drone{
	"crossing":   CrossingScenario,
	"parallel":   ParallelScenario,
	"converging": ConvergingScenario,
}

// ReportAt produces the telemetry report for a drone at time t, deriving
// heading from the path's direction of travel
func ReportAt(drone Drone, t float64) types.DronePosition {
	lat, lon, alt := drone.Path.Position(t)
	nextLat, nextLon, _ := drone.Path.Position(t + 1)

	heading := 0.0
	dLat := nextLat - lat
	dLon := nextLon - lon
	if dLat != 0 || dLon != 0 {
		north := dLat * metersPerDegreeLat
		east := dLon * metersPerDegreeLat * math.Cos(lat*math.Pi/180)
		heading = math.Atan2(east, north) * 180 / math.Pi
		if heading < 0 {
			heading += 360
		}
	}

	return types.DronePosition{
		DroneID:    drone.ID,
		Lat:        lat,
		Lon:        lon,
		AltitudeM:  alt,
		HeadingDeg: heading,
		SpeedMps:   drone.SpeedMps,
		Timestamp:  float64(time.Now().UnixNano()) / 1e9,
	}
}
