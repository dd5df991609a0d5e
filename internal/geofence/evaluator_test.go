package geofence

import (
	"context"
	"reflect"
	"testing"
	"time"

	"droneFlightAuthority/internal/apperr"
	"droneFlightAuthority/models"
)

func f(v float64) *float64 { return &v }

func circle(name string, lat, lon, r float64) models.RestrictedZone {
	return models.RestrictedZone{
		Name: name, Geometry: models.GeometryCircle, IsActive: true,
		Definition: models.ZoneDefinition{CenterLat: lat, CenterLon: lon, RadiusM: r},
	}
}

func square(name string) models.RestrictedZone {
	return models.RestrictedZone{
		Name: name, Geometry: models.GeometryPolygon, IsActive: true,
		Definition: models.ZoneDefinition{Coordinates: [][][2]float64{{{71.0, 51.0}, {71.1, 51.0}, {71.1, 51.1}, {71.0, 51.1}, {71.0, 51.0}}}},
	}
}

func TestCheckPoint_CircleAndPolygon(t *testing.T) {
	zones := []models.RestrictedZone{circle("Airport", 50.0, 70.0, 1000), square("Park")}

	if got := CheckPoint(50.001, 70.001, 50, zones); len(got) != 1 || got[0].Name != "Airport" {
		t.Fatalf("expected Airport breach, got %+v", got)
	}
	if got := CheckPoint(51.05, 71.05, 50, zones); len(got) != 1 || got[0].Name != "Park" {
		t.Fatalf("expected Park breach, got %+v", got)
	}
	if got := CheckPoint(52, 72, 50, zones); len(got) != 0 {
		t.Fatalf("expected no breach, got %+v", got)
	}
}

func TestCheckPoint_AltitudeBand(t *testing.T) {
	z := circle("Stadium", 51.0, 71.0, 1000)
	z.MinAltitudeM = f(30)
	z.MaxAltitudeM = f(120)
	zones := []models.RestrictedZone{z}

	for _, tc := range []struct {
		alt  float64
		want bool
	}{
		{alt: 10, want: false},
		{alt: 30, want: true},
		{alt: 80, want: true},
		{alt: 120, want: true},
		{alt: 150, want: false},
	} {
		got := len(CheckPoint(51.0, 71.0, tc.alt, zones)) > 0
		if got != tc.want {
			t.Fatalf("alt=%v breached=%v want %v", tc.alt, got, tc.want)
		}
	}

	// Only a max bound: everything below is inside the band.
	z2 := circle("Ceiling", 51.0, 71.0, 1000)
	z2.MaxAltitudeM = f(60)
	if len(CheckPoint(51.0, 71.0, 0, []models.RestrictedZone{z2})) != 1 {
		t.Fatalf("ground level should be inside a max-only band")
	}
}

func TestCheckPoint_IgnoresInactive(t *testing.T) {
	z := circle("Airport", 51.0, 71.0, 1000)
	z.IsActive = false
	if got := CheckPoint(51.0, 71.0, 10, []models.RestrictedZone{z}); len(got) != 0 {
		t.Fatalf("inactive zone must not be breached: %+v", got)
	}
}

func TestCheckPath_UnionSortedUnique(t *testing.T) {
	zones := []models.RestrictedZone{circle("Zulu", 51.0, 71.0, 1000), square("Alpha")}
	wps := []models.Waypoint{
		{Latitude: 51.0, Longitude: 71.0, AltitudeM: 10, Sequence: 0},
		{Latitude: 51.05, Longitude: 71.05, AltitudeM: 10, Sequence: 1},
		{Latitude: 51.0001, Longitude: 71.0001, AltitudeM: 10, Sequence: 2},
		{Latitude: 40, Longitude: 10, AltitudeM: 10, Sequence: 3},
	}
	got := CheckPath(wps, zones)
	if !reflect.DeepEqual(got, []string{"Alpha", "Zulu"}) {
		t.Fatalf("CheckPath=%v", got)
	}
	if got := CheckPath(wps[3:], zones); got != nil {
		t.Fatalf("expected nil for clean path, got %v", got)
	}
}

func TestValidateZone(t *testing.T) {
	good := circle("Ok", 51, 71, 100)
	if err := ValidateZone(&good); err != nil {
		t.Fatalf("valid zone rejected: %v", err)
	}
	bad := []models.RestrictedZone{
		circle("", 51, 71, 100),
		circle("NoRadius", 51, 71, 0),
		circle("OffGlobe", 95, 71, 100),
		{Name: "Tri", Geometry: models.GeometryPolygon, Definition: models.ZoneDefinition{Coordinates: [][][2]float64{{{0, 0}, {1, 1}}}}},
		{Name: "Blob", Geometry: "BLOB"},
	}
	inverted := circle("Inverted", 51, 71, 100)
	inverted.MinAltitudeM, inverted.MaxAltitudeM = f(100), f(50)
	bad = append(bad, inverted)
	for _, z := range bad {
		z := z
		if err := ValidateZone(&z); !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("zone %q: expected validation error, got %v", z.Name, err)
		}
	}
}

type countingLister struct {
	calls int
	zones []models.RestrictedZone
}

func (c *countingLister) ListActive(context.Context) ([]models.RestrictedZone, error) {
	c.calls++
	return c.zones, nil
}

func TestZoneCache_TTLAndInvalidate(t *testing.T) {
	src := &countingLister{zones: []models.RestrictedZone{circle("A", 0, 0, 10)}}
	c := NewZoneCache(src, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		zones, err := c.Active(ctx)
		if err != nil || len(zones) != 1 {
			t.Fatalf("active: %v %+v", err, zones)
		}
	}
	if src.calls != 1 {
		t.Fatalf("expected one source call, got %d", src.calls)
	}
	c.Invalidate()
	if _, err := c.Active(ctx); err != nil {
		t.Fatalf("active after invalidate: %v", err)
	}
	if src.calls != 2 {
		t.Fatalf("expected reload after invalidate, got %d calls", src.calls)
	}

	direct := NewZoneCache(src, 0)
	_, _ = direct.Active(ctx)
	_, _ = direct.Active(ctx)
	if src.calls != 4 {
		t.Fatalf("ttl=0 should not cache, got %d calls", src.calls)
	}
}
