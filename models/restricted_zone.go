package models

import "time"

// GeometryKind is the planar shape of a restricted zone.
type GeometryKind string

const (
	GeometryCircle  GeometryKind = "CIRCLE"
	GeometryPolygon GeometryKind = "POLYGON"
)

// ZoneDefinition is the JSON geometry of a restricted zone. Circles use the
// center and radius; polygons use GeoJSON style rings of [lon, lat] pairs
// where only the first ring is evaluated.
type ZoneDefinition struct {
	CenterLat   float64        `json:"center_lat,omitempty" yaml:"center_lat"`
	CenterLon   float64        `json:"center_lon,omitempty" yaml:"center_lon"`
	RadiusM     float64        `json:"radius_m,omitempty" yaml:"radius_m"`
	Coordinates [][][2]float64 `json:"coordinates,omitempty" yaml:"coordinates"`
}

// RestrictedZone is a geofenced no-fly volume.
type RestrictedZone struct {
	ID           int64          `db:"id" json:"id"`
	Name         string         `db:"name" json:"name"`
	Description  string         `db:"description" json:"description"`
	Geometry     GeometryKind   `db:"geometry_type" json:"geometry_type"`
	Definition   ZoneDefinition `db:"definition_json" json:"definition"`
	MinAltitudeM *float64       `db:"min_altitude_m" json:"min_altitude_m,omitempty"`
	MaxAltitudeM *float64       `db:"max_altitude_m" json:"max_altitude_m,omitempty"`
	IsActive     bool           `db:"is_active" json:"is_active"`
	CreatedBy    int64          `db:"created_by_authority_id" json:"created_by_authority_id"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}
