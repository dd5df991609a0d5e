// Package geofence decides whether points and paths enter restricted zones.
package geofence

import (
	"math"
	"sort"

	"droneFlightAuthority/internal/apperr"
	"droneFlightAuthority/internal/geo"
	"droneFlightAuthority/models"
)

// Breach identifies a zone a point falls into.
type Breach struct {
	ZoneID int64
	Name   string
}

// CheckPoint returns the active zones containing the 3D point. A zone with an
// altitude band is only breached when alt is within the band.
func CheckPoint(lat, lon, alt float64, zones []models.RestrictedZone) []Breach {
	var out []Breach
	for i := range zones {
		z := &zones[i]
		if !z.IsActive {
			continue
		}
		if Contains(z, lat, lon, alt) {
			out = append(out, Breach{ZoneID: z.ID, Name: z.Name})
		}
	}
	return out
}

// CheckPath applies CheckPoint to every waypoint and returns the sorted,
// de-duplicated names of breached zones.
func CheckPath(waypoints []models.Waypoint, zones []models.RestrictedZone) []string {
	seen := map[string]struct{}{}
	for _, wp := range waypoints {
		for _, b := range CheckPoint(wp.Latitude, wp.Longitude, wp.AltitudeM, zones) {
			seen[b.Name] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// Names returns the sorted, de-duplicated names of breaches.
func Names(breaches []Breach) []string {
	seen := make(map[string]struct{}, len(breaches))
	for _, b := range breaches {
		seen[b.Name] = struct{}{}
	}
	return sortedKeys(seen)
}

func sortedKeys(m map[string]struct{}) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Contains reports whether the point is inside z, ignoring the active flag.
func Contains(z *models.RestrictedZone, lat, lon, alt float64) bool {
	if z.MinAltitudeM != nil && alt < *z.MinAltitudeM {
		return false
	}
	if z.MaxAltitudeM != nil && alt > *z.MaxAltitudeM {
		return false
	}
	switch z.Geometry {
	case models.GeometryCircle:
		d := z.Definition
		return geo.IsWithinRadius(d.CenterLat, d.CenterLon, lat, lon, d.RadiusM)
	case models.GeometryPolygon:
		if len(z.Definition.Coordinates) == 0 {
			return false
		}
		return geo.PointInPolygon([2]float64{lon, lat}, z.Definition.Coordinates[0])
	}
	return false
}

// ValidateZone checks that a zone definition can be evaluated.
func ValidateZone(z *models.RestrictedZone) error {
	if z == nil {
		return apperr.Validation("zone_required", "zone is required")
	}
	if z.Name == "" {
		return apperr.Validation("zone_name", "zone name is required")
	}
	if z.MinAltitudeM != nil && z.MaxAltitudeM != nil && *z.MinAltitudeM > *z.MaxAltitudeM {
		return apperr.Validation("zone_altitude", "min altitude %.1f exceeds max altitude %.1f", *z.MinAltitudeM, *z.MaxAltitudeM)
	}
	d := z.Definition
	switch z.Geometry {
	case models.GeometryCircle:
		if !geo.ValidLatLon(d.CenterLat, d.CenterLon) {
			return apperr.Validation("zone_center", "circle center (%v, %v) is out of range", d.CenterLat, d.CenterLon)
		}
		if d.RadiusM <= 0 || math.IsNaN(d.RadiusM) || math.IsInf(d.RadiusM, 0) {
			return apperr.Validation("zone_radius", "circle radius must be positive")
		}
	case models.GeometryPolygon:
		if len(d.Coordinates) == 0 || len(d.Coordinates[0]) < 3 {
			return apperr.Validation("zone_ring", "polygon needs a ring of at least 3 points")
		}
		for _, pt := range d.Coordinates[0] {
			if !geo.ValidLatLon(pt[1], pt[0]) {
				return apperr.Validation("zone_ring", "polygon point [%v, %v] is out of range", pt[0], pt[1])
			}
		}
	default:
		return apperr.Validation("zone_geometry", "unknown geometry type %q", z.Geometry)
	}
	return nil
}
