package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"droneFlightAuthority/internal/geofence"
	"droneFlightAuthority/models"
	"droneFlightAuthority/repository"
)

// zoneFile is the YAML layout accepted by "zones import".
type zoneFile struct {
	Zones []zoneEntry `yaml:"zones"`
}

type zoneEntry struct {
	Name         string                `yaml:"name"`
	Description  string                `yaml:"description"`
	GeometryType string                `yaml:"geometry_type"`
	Definition   models.ZoneDefinition `yaml:"definition"`
	MinAltitudeM *float64              `yaml:"min_altitude_m"`
	MaxAltitudeM *float64              `yaml:"max_altitude_m"`
	Inactive     bool                  `yaml:"inactive"`
}

type zoneStore interface {
	GetByName(ctx context.Context, name string) (*models.RestrictedZone, error)
	Create(ctx context.Context, z *models.RestrictedZone) (*models.RestrictedZone, error)
}

var zonesCreatedBy string

var zonesCmd = &cobra.Command{
	Use:   "zones",
	Short: "Manage restricted zones",
}

var zonesImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Create restricted zones from a YAML file, skipping names that already exist",
	Long: `Create restricted zones from a YAML file, skipping names that already exist.

The import writes to the database directly. A server already running on the
same database keeps serving its cached zone list for up to ZONE_CACHE_TTL, so
submissions in that window are checked without the new zones. Use the
AdminService CreateRestrictedZone call when zones must apply at once.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		zones, err := parseZoneFile(f)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		d, err := openDB()
		if err != nil {
			return err
		}
		defer d.Close()

		ctx := cmd.Context()
		creator, err := repository.NewUserRepository(d).GetByUsername(ctx, zonesCreatedBy)
		if err != nil {
			return err
		}
		if creator == nil || creator.Role != models.RoleAuthorityAdmin {
			return fmt.Errorf("--created-by %q is not an authority admin", zonesCreatedBy)
		}

		created, skipped, err := importZones(ctx, repository.NewZoneRepository(d), zones, creator.ID)
		out := cmd.OutOrStdout()
		for _, name := range skipped {
			colorWarn.Fprintf(out, "skipped %s: already exists\n", name)
		}
		for _, z := range created {
			colorOK.Fprintf(out, "created zone %d %s\n", z.ID, z.Name)
		}
		if len(created) > 0 {
			if cfg, cerr := loadConfig(); cerr == nil {
				colorWarn.Fprintln(out, cacheNotice(cfg.Simulation.ZoneCacheTTL))
			}
		}
		return err
	},
}

func init() {
	zonesImportCmd.Flags().StringVar(&zonesCreatedBy, "created-by", "", "username of the authority admin recorded as creator")
	_ = zonesImportCmd.MarkFlagRequired("created-by")
	zonesCmd.AddCommand(zonesImportCmd)
}

// parseZoneFile decodes and validates every zone in r. Nothing is returned
// unless all entries are valid.
func parseZoneFile(r io.Reader) ([]models.RestrictedZone, error) {
	var f zoneFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	seen := make(map[string]bool, len(f.Zones))
	zones := make([]models.RestrictedZone, 0, len(f.Zones))
	for i, e := range f.Zones {
		z := models.RestrictedZone{
			Name:         e.Name,
			Description:  e.Description,
			Geometry:     models.GeometryKind(strings.ToUpper(e.GeometryType)),
			Definition:   e.Definition,
			MinAltitudeM: e.MinAltitudeM,
			MaxAltitudeM: e.MaxAltitudeM,
			IsActive:     !e.Inactive,
		}
		if err := geofence.ValidateZone(&z); err != nil {
			return nil, fmt.Errorf("zone %d (%s): %w", i, e.Name, err)
		}
		if seen[z.Name] {
			return nil, fmt.Errorf("zone %d: duplicate name %q", i, z.Name)
		}
		seen[z.Name] = true
		zones = append(zones, z)
	}
	return zones, nil
}

func importZones(ctx context.Context, store zoneStore, zones []models.RestrictedZone, createdBy int64) (created []*models.RestrictedZone, skipped []string, err error) {
	for i := range zones {
		z := zones[i]
		existing, err := store.GetByName(ctx, z.Name)
		if err != nil {
			return created, skipped, err
		}
		if existing != nil {
			skipped = append(skipped, z.Name)
			continue
		}
		z.CreatedBy = createdBy
		c, err := store.Create(ctx, &z)
		if err != nil {
			return created, skipped, fmt.Errorf("create %s: %w", z.Name, err)
		}
		created = append(created, c)
	}
	return created, skipped, nil
}

// cacheNotice tells the operator when a running server will see imported zones.
func cacheNotice(ttl time.Duration) string {
	if ttl <= 0 {
		return "running servers read zones from the database on every check"
	}
	return fmt.Sprintf("running servers apply new zones within %s (ZONE_CACHE_TTL)", ttl)
}
