package geo

import (
	"math"
)

// earthRadiusM is the mean Earth radius used for great-circle distances.
const earthRadiusM = 6371000.0

// metersPerDegreeLat is the flat-Earth conversion used when extrapolating
// short displacements. Longitude scale shrinks with cos(latitude).
const metersPerDegreeLat = 111320.0

// HaversineMeters returns the great-circle distance in meters between two
// points given in decimal degrees.
func HaversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)

	return 2 * earthRadiusM * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Extrapolate projects a position dt seconds ahead along a constant heading
// and ground speed, holding altitude. Heading is degrees clockwise from
// north. It uses a local-tangent-plane approximation: valid for short
// displacements, degrades near the poles where cos(lat) approaches zero.
// A non-positive speed returns the position unchanged.
func Extrapolate(lat, lon, altitudeM, headingDeg, speedMps, dt float64) (float64, float64, float64) {
	if speedMps <= 0 {
		return lat, lon, altitudeM
	}

	distanceM := speedMps * dt
	headingRad := headingDeg * math.Pi / 180

	northM := distanceM * math.Cos(headingRad)
	eastM := distanceM * math.Sin(headingRad)

	latOffset := northM / metersPerDegreeLat
	lonOffset := eastM / (metersPerDegreeLat * math.Cos(lat*math.Pi/180))

	return lat + latOffset, lon + lonOffset, altitudeM
}
