package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"droneFlightAuthority/internal/testutil"
	"droneFlightAuthority/models"
	"droneFlightAuthority/repository"
)

const sampleZones = `
zones:
  - name: Airport
    description: control zone
    geometry_type: circle
    definition:
      center_lat: 52.0
      center_lon: 13.0
      radius_m: 1500
    max_altitude_m: 120
  - name: Stadium
    geometry_type: POLYGON
    definition:
      coordinates:
        - [[13.1, 52.1], [13.2, 52.1], [13.2, 52.2], [13.1, 52.1]]
    inactive: true
`

func TestParseZoneFile(t *testing.T) {
	zones, err := parseZoneFile(strings.NewReader(sampleZones))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(zones) != 2 {
		t.Fatalf("expected 2 zones, got %d", len(zones))
	}
	if zones[0].Geometry != models.GeometryCircle || zones[0].Definition.RadiusM != 1500 || !zones[0].IsActive {
		t.Fatalf("unexpected circle zone: %+v", zones[0])
	}
	if zones[0].MaxAltitudeM == nil || *zones[0].MaxAltitudeM != 120 {
		t.Fatalf("max altitude not decoded: %+v", zones[0].MaxAltitudeM)
	}
	if zones[1].IsActive || len(zones[1].Definition.Coordinates[0]) != 4 {
		t.Fatalf("unexpected polygon zone: %+v", zones[1])
	}
	if zones[1].Definition.Coordinates[0][1] != [2]float64{13.2, 52.1} {
		t.Fatalf("polygon point order changed: %v", zones[1].Definition.Coordinates[0][1])
	}
}

func TestParseZoneFile_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown field": "zones:\n  - name: A\n    radius: 3\n",
		"bad radius":    "zones:\n  - name: A\n    geometry_type: CIRCLE\n    definition: {center_lat: 1, center_lon: 1, radius_m: 0}\n",
		"duplicate": "zones:\n  - name: A\n    geometry_type: CIRCLE\n    definition: {center_lat: 1, center_lon: 1, radius_m: 5}\n" +
			"  - name: A\n    geometry_type: CIRCLE\n    definition: {center_lat: 2, center_lon: 2, radius_m: 5}\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := parseZoneFile(strings.NewReader(doc)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestImportZones_SkipsExisting(t *testing.T) {
	d := testutil.OpenInMemoryDB(t, "zones_import")
	ctx := context.Background()
	admin, err := repository.NewUserRepository(d).Create(ctx, &models.User{Username: "caa", Role: models.RoleAuthorityAdmin})
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	zones, err := parseZoneFile(strings.NewReader(sampleZones))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	repo := repository.NewZoneRepository(d)

	created, skipped, err := importZones(ctx, repo, zones, admin.ID)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(created) != 2 || len(skipped) != 0 {
		t.Fatalf("first import: created %d skipped %v", len(created), skipped)
	}
	if created[0].CreatedBy != admin.ID {
		t.Fatalf("creator not recorded: %d", created[0].CreatedBy)
	}

	created, skipped, err = importZones(ctx, repo, zones, admin.ID)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if len(created) != 0 || len(skipped) != 2 {
		t.Fatalf("second import: created %d skipped %v", len(created), skipped)
	}
	active, err := repo.ListActive(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 1 || active[0].Name != "Airport" {
		t.Fatalf("expected only Airport active, got %+v", active)
	}
}

func TestCacheNotice(t *testing.T) {
	if got := cacheNotice(30 * time.Second); !strings.Contains(got, "30s") || !strings.Contains(got, "ZONE_CACHE_TTL") {
		t.Fatalf("notice with ttl: %q", got)
	}
	if got := cacheNotice(0); strings.Contains(got, "ZONE_CACHE_TTL") {
		t.Fatalf("uncached notice mentions ttl: %q", got)
	}
	if !strings.Contains(zonesImportCmd.Long, "ZONE_CACHE_TTL") {
		t.Fatalf("import help should describe the cache window")
	}
}
