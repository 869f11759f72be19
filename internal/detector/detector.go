package detector

import (
	"math"
	"time"

	"github.com/ezrakhuzadi/atc-drone/internal/geo"
	"github.com/ezrakhuzadi/atc-drone/internal/types"
)

// Default separation envelope, tuned for small multirotor traffic.
const (
	DefaultLookaheadSeconds      = 20.0
	DefaultSeparationHorizontalM = 50.0
	DefaultSeparationVerticalM   = 30.0
	DefaultWarningMultiplier     = 2.0
)

// Detector predicts separation violations between tracked drones within a
// bounded lookahead window.
//
// It keeps only the latest position per drone and rebuilds the active
// conflict set from scratch on every scan. The detector does no locking of
// its own; callers running updates and scans from different goroutines must
// serialize access behind a single boundary.
type Detector struct {
	LookaheadSeconds      float64
	SeparationHorizontalM float64
	SeparationVerticalM   float64
	WarningMultiplier     float64

	drones          map[string]types.DronePosition
	activeConflicts map[[2]string]types.Conflict
}

// New creates a detector with the given separation parameters.
func New(lookaheadSeconds, separationHorizontalM, separationVerticalM, warningMultiplier float64) *Detector {
	return &Detector{
		LookaheadSeconds:      lookaheadSeconds,
		SeparationHorizontalM: separationHorizontalM,
		SeparationVerticalM:   separationVerticalM,
		WarningMultiplier:     warningMultiplier,
		drones:                make(map[string]types.DronePosition),
		activeConflicts:       make(map[[2]string]types.Conflict),
	}
}

// NewDefault creates a detector with the default separation envelope.
func NewDefault() *Detector {
	return New(DefaultLookaheadSeconds, DefaultSeparationHorizontalM,
		DefaultSeparationVerticalM, DefaultWarningMultiplier)
}

// UpdatePosition records the latest position for a drone, replacing any
// prior sample unconditionally. No staleness or ordering check is applied.
func (d *Detector) UpdatePosition(position types.DronePosition) {
	d.drones[position.DroneID] = position
}

// RemoveDrone stops tracking a drone and purges any active conflicts that
// reference it. Removing an untracked drone is a no-op.
func (d *Detector) RemoveDrone(droneID string) {
	delete(d.drones, droneID)

	for key := range d.activeConflicts {
		if key[0] == droneID || key[1] == droneID {
			delete(d.activeConflicts, key)
		}
	}
}

// AllPositions returns a snapshot of all tracked positions.
func (d *Detector) AllPositions() []types.DronePosition {
	positions := make([]types.DronePosition, 0, len(d.drones))
	for _, p := range d.drones {
		positions = append(positions, p)
	}
	return positions
}

// ActiveConflicts returns a snapshot of the conflicts found by the most
// recent scan.
func (d *Detector) ActiveConflicts() []types.Conflict {
	conflicts := make([]types.Conflict, 0, len(d.activeConflicts))
	for _, c := range d.activeConflicts {
		conflicts = append(conflicts, c)
	}
	return conflicts
}

// DroneCount returns the number of tracked drones.
func (d *Detector) DroneCount() int {
	return len(d.drones)
}

// Reset drops all tracked positions and active conflicts.
func (d *Detector) Reset() {
	d.drones = make(map[string]types.DronePosition)
	d.activeConflicts = make(map[[2]string]types.Conflict)
}

// separation returns the horizontal and vertical distance in meters between
// two (lat, lon, altitude) triples.
func separation(lat1, lon1, alt1, lat2, lon2, alt2 float64) (horizontal, vertical float64) {
	horizontal = geo.HaversineMeters(lat1, lon1, lat2, lon2)
	vertical = math.Abs(alt1 - alt2)
	return horizontal, vertical
}

// findClosestApproach samples both trajectories on a one-second grid over
// the lookahead window and returns the time and 3D distance of minimum
// separation, plus the predicted CPA midpoint. The grid deliberately trades
// sub-second accuracy for simplicity; the earliest minimum wins on ties.
func (d *Detector) findClosestApproach(a, b types.DronePosition) (timeOfMin, minDistance, cpaLat, cpaLon, cpaAltM float64) {
	minDistance = math.Inf(1)
	cpaLat1, cpaLon1, cpaAlt1 := a.Lat, a.Lon, a.AltitudeM
	cpaLat2, cpaLon2, cpaAlt2 := b.Lat, b.Lon, b.AltitudeM

	for t := 0; t <= int(d.LookaheadSeconds); t++ {
		dt := float64(t)
		lat1, lon1, alt1 := geo.Extrapolate(a.Lat, a.Lon, a.AltitudeM, a.HeadingDeg, a.SpeedMps, dt)
		lat2, lon2, alt2 := geo.Extrapolate(b.Lat, b.Lon, b.AltitudeM, b.HeadingDeg, b.SpeedMps, dt)

		hDist, vDist := separation(lat1, lon1, alt1, lat2, lon2, alt2)
		distance := math.Sqrt(hDist*hDist + vDist*vDist)

		if distance < minDistance {
			minDistance = distance
			timeOfMin = dt
			cpaLat1, cpaLon1, cpaAlt1 = lat1, lon1, alt1
			cpaLat2, cpaLon2, cpaAlt2 = lat2, lon2, alt2
		}
	}

	cpaLat = (cpaLat1 + cpaLat2) / 2
	cpaLon = (cpaLon1 + cpaLon2) / 2
	cpaAltM = (cpaAlt1 + cpaAlt2) / 2

	return timeOfMin, minDistance, cpaLat, cpaLon, cpaAltM
}

// DetectConflicts scans every unordered pair of tracked drones and returns
// the conflicts found. The active conflict set is replaced, not merged, so
// conflicts cleared since the last scan simply disappear.
func (d *Detector) DetectConflicts() []types.Conflict {
	var conflicts []types.Conflict
	now := float64(time.Now().UnixNano()) / 1e9

	droneList := make([]types.DronePosition, 0, len(d.drones))
	for _, p := range d.drones {
		droneList = append(droneList, p)
	}

	for i := 0; i < len(droneList); i++ {
		for j := i + 1; j < len(droneList); j++ {
			drone1 := droneList[i]
			drone2 := droneList[j]

			hDist, vDist := separation(
				drone1.Lat, drone1.Lon, drone1.AltitudeM,
				drone2.Lat, drone2.Lon, drone2.AltitudeM,
			)
			currentDistance := math.Sqrt(hDist*hDist + vDist*vDist)

			// Both minimums broken right now: immediate violation, no
			// prediction needed.
			if hDist < d.SeparationHorizontalM && vDist < d.SeparationVerticalM {
				conflicts = append(conflicts, types.Conflict{
					Drone1ID:         drone1.DroneID,
					Drone2ID:         drone2.DroneID,
					Severity:         types.SeverityCritical,
					DistanceM:        currentDistance,
					TimeToClosest:    0,
					ClosestDistanceM: currentDistance,
					CPALat:           (drone1.Lat + drone2.Lat) / 2,
					CPALon:           (drone1.Lon + drone2.Lon) / 2,
					CPAAltitudeM:     (drone1.AltitudeM + drone2.AltitudeM) / 2,
					Timestamp:        now,
				})
				continue
			}

			timeToClosest, closestDistance, cpaLat, cpaLon, cpaAltM := d.findClosestApproach(drone1, drone2)

			// Only the horizontal minimum drives classification of the
			// predicted approach.
			warningThreshold := d.SeparationHorizontalM * d.WarningMultiplier

			var severity types.Severity
			switch {
			case closestDistance < d.SeparationHorizontalM:
				severity = types.SeverityCritical
			case closestDistance < warningThreshold:
				severity = types.SeverityWarning
			default:
				continue
			}

			conflicts = append(conflicts, types.Conflict{
				Drone1ID:         drone1.DroneID,
				Drone2ID:         drone2.DroneID,
				Severity:         severity,
				DistanceM:        currentDistance,
				TimeToClosest:    timeToClosest,
				ClosestDistanceM: closestDistance,
				CPALat:           cpaLat,
				CPALon:           cpaLon,
				CPAAltitudeM:     cpaAltM,
				Timestamp:        now,
			})
		}
	}

	d.activeConflicts = make(map[[2]string]types.Conflict, len(conflicts))
	for _, c := range conflicts {
		d.activeConflicts[c.PairKey()] = c
	}

	return conflicts
}
