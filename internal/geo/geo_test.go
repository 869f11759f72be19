package geo

import (
	"math"
	"testing"
)

func TestHaversineMeters(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
		tolerance              float64
	}{
		{
			name: "identical points",
			lat1: 33.6846, lon1: -117.8265,
			lat2: 33.6846, lon2: -117.8265,
			want: 0, tolerance: 0.001,
		},
		{
			name: "one hundredth degree of latitude",
			lat1: 33.6846, lon1: -117.8265,
			lat2: 33.6946, lon2: -117.8265,
			want: 1112, tolerance: 5,
		},
		{
			name: "equator one degree of longitude",
			lat1: 0, lon1: 0,
			lat2: 0, lon2: 1,
			want: 111195, tolerance: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineMeters(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("HaversineMeters() = %v, want %v +/- %v", got, tt.want, tt.tolerance)
			}
		})
	}
}

func TestHaversineMeters_Symmetric(t *testing.T) {
	d1 := HaversineMeters(33.6846, -117.8265, 33.7, -117.8)
	d2 := HaversineMeters(33.7, -117.8, 33.6846, -117.8265)

	if math.Abs(d1-d2) > 1e-9 {
		t.Errorf("HaversineMeters not symmetric: %v vs %v", d1, d2)
	}
}

func TestExtrapolate(t *testing.T) {
	tests := []struct {
		name       string
		headingDeg float64
		speedMps   float64
		dt         float64
		wantNorthM float64
		wantEastM  float64
	}{
		{name: "due north", headingDeg: 0, speedMps: 10, dt: 10, wantNorthM: 100, wantEastM: 0},
		{name: "due east", headingDeg: 90, speedMps: 10, dt: 10, wantNorthM: 0, wantEastM: 100},
		{name: "due south", headingDeg: 180, speedMps: 5, dt: 20, wantNorthM: -100, wantEastM: 0},
		{name: "due west", headingDeg: 270, speedMps: 20, dt: 5, wantNorthM: 0, wantEastM: -100},
	}

	startLat, startLon, startAlt := 33.6846, -117.8265, 50.0

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, lon, alt := Extrapolate(startLat, startLon, startAlt, tt.headingDeg, tt.speedMps, tt.dt)

			if alt != startAlt {
				t.Errorf("Extrapolate() altitude = %v, want unchanged %v", alt, startAlt)
			}

			gotNorthM := (lat - startLat) * metersPerDegreeLat
			gotEastM := (lon - startLon) * metersPerDegreeLat * math.Cos(startLat*math.Pi/180)

			if math.Abs(gotNorthM-tt.wantNorthM) > 0.1 {
				t.Errorf("Extrapolate() north displacement = %vm, want %vm", gotNorthM, tt.wantNorthM)
			}
			if math.Abs(gotEastM-tt.wantEastM) > 0.1 {
				t.Errorf("Extrapolate() east displacement = %vm, want %vm", gotEastM, tt.wantEastM)
			}
		})
	}
}

func TestExtrapolate_ZeroSpeed(t *testing.T) {
	lat, lon, alt := Extrapolate(33.6846, -117.8265, 50, 45, 0, 60)

	if lat != 33.6846 || lon != -117.8265 || alt != 50 {
		t.Errorf("Extrapolate() with zero speed moved the position: %v %v %v", lat, lon, alt)
	}

	lat, lon, alt = Extrapolate(33.6846, -117.8265, 50, 45, -5, 60)
	if lat != 33.6846 || lon != -117.8265 || alt != 50 {
		t.Errorf("Extrapolate() with negative speed moved the position: %v %v %v", lat, lon, alt)
	}
}
