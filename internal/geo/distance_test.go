package geo

import (
	"math"
	"testing"
)

func TestHaversineMeters_ZeroDistance(t *testing.T) {
	d := HaversineMeters(10, 20, 10, 20)
	if d < 0 || d > 1e-9 {
		t.Fatalf("zero distance expected ~0, got %v", d)
	}
}

func TestHaversineMeters_OneDegreeLatitude(t *testing.T) {
	// One degree along a meridian is ~111.2 km.
	d := HaversineMeters(0, 0, 1, 0)
	if math.Abs(d-111195) > 100 {
		t.Fatalf("one degree latitude = %v m, want ~111195", d)
	}
}

func TestIsWithinRadius_Boundary(t *testing.T) {
	// ~0.0009 degrees of latitude is ~100 m.
	if !IsWithinRadius(0, 0, 0.0008, 0, 100) {
		t.Fatalf("expected ~89 m to be within 100 m")
	}
	if IsWithinRadius(0, 0, 0.0010, 0, 100) {
		t.Fatalf("expected ~111 m to be outside 100 m")
	}
}

func TestValidLatLon(t *testing.T) {
	if !ValidLatLon(51.1, 71.4) || ValidLatLon(91, 0) || ValidLatLon(0, -181) || ValidLatLon(math.NaN(), 0) {
		t.Fatalf("ValidLatLon range checks failed")
	}
}

func TestPointInPolygon(t *testing.T) {
	square := [][2]float64{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	if !PointInPolygon([2]float64{5, 5}, square) {
		t.Fatalf("center should be inside")
	}
	if PointInPolygon([2]float64{15, 5}, square) {
		t.Fatalf("point right of square should be outside")
	}
	// Concave L shape: the notch is outside.
	ell := [][2]float64{{0, 0}, {10, 0}, {10, 4}, {4, 4}, {4, 10}, {0, 10}, {0, 0}}
	if PointInPolygon([2]float64{7, 7}, ell) {
		t.Fatalf("notch should be outside")
	}
	if !PointInPolygon([2]float64{2, 8}, ell) {
		t.Fatalf("arm should be inside")
	}
	if PointInPolygon([2]float64{1, 1}, square[:2]) {
		t.Fatalf("degenerate ring contains nothing")
	}
}
