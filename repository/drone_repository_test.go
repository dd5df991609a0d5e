package repository

import (
	"context"
	"testing"
	"time"

	"droneFlightAuthority/internal/db"
	"droneFlightAuthority/models"
)

func TestDroneRepository_CRUD_Status_Telemetry(t *testing.T) {
	d, err := db.Open("file:dronerepo?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	drones := NewDroneRepository(d)
	users := NewUserRepository(d)
	orgs := NewOrganizationRepository(d)
	telemetry := NewTelemetryRepository(d)
	ctx := context.Background()

	solo, err := users.Create(ctx, &models.User{Username: "solo", Role: models.RoleSoloPilot})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	org, err := orgs.Create(ctx, "Acme Air")
	if err != nil {
		t.Fatalf("create org: %v", err)
	}

	// Exactly one owner must be set.
	if _, err := drones.Create(ctx, &models.Drone{SerialNumber: "BAD-1"}); err == nil {
		t.Fatalf("expected ownerless drone to be rejected")
	}
	if _, err := drones.Create(ctx, &models.Drone{SerialNumber: "BAD-2", OrganizationID: &org.ID, SoloOwnerID: &solo.ID}); err == nil {
		t.Fatalf("expected doubly owned drone to be rejected")
	}

	dr, err := drones.Create(ctx, &models.Drone{Brand: "DJI", Model: "M30", SerialNumber: "S-1", SoloOwnerID: &solo.ID})
	if err != nil {
		t.Fatalf("create drone: %v", err)
	}
	if dr.ID == 0 || dr.Status != models.DroneStatusIdle || dr.OwnerType() != models.OwnerSoloPilot {
		t.Fatalf("unexpected drone: %+v", dr)
	}
	orgDrone, err := drones.Create(ctx, &models.Drone{SerialNumber: "S-2", OrganizationID: &org.ID})
	if err != nil {
		t.Fatalf("create org drone: %v", err)
	}
	if _, err := drones.Create(ctx, &models.Drone{SerialNumber: "S-1", SoloOwnerID: &solo.ID}); err == nil {
		t.Fatalf("expected duplicate serial to fail")
	}

	if got, _ := drones.GetBySerial(ctx, "S-1"); got == nil || got.ID != dr.ID {
		t.Fatalf("GetBySerial mismatch: %+v", got)
	}

	if err := drones.UpdateStatus(ctx, dr.ID, models.DroneStatusActive); err != nil {
		t.Fatalf("update status: %v", err)
	}
	sample, err := telemetry.Create(ctx, &models.TelemetrySample{DroneID: dr.ID, Timestamp: time.Now(), Latitude: 1, Longitude: 2, AltitudeM: 30, Status: models.TelemetryOnSchedule})
	if err != nil {
		t.Fatalf("create telemetry: %v", err)
	}
	seen := time.Now().UTC().Truncate(time.Second)
	if err := drones.RecordTelemetry(ctx, dr.ID, sample.ID, seen); err != nil {
		t.Fatalf("record telemetry: %v", err)
	}
	got, _ := drones.GetByID(ctx, dr.ID)
	if got.Status != models.DroneStatusActive {
		t.Fatalf("status not updated: %+v", got)
	}
	if got.LastTelemetryID == nil || *got.LastTelemetryID != sample.ID || got.LastSeenAt == nil || !got.LastSeenAt.Equal(seen) {
		t.Fatalf("telemetry reference not updated: %+v", got)
	}

	// Admin listing with filters.
	active := models.DroneStatusActive
	list, err := drones.ListAdmin(ctx, ListDronesAdminParams{Status: &active})
	if err != nil || len(list) != 1 || list[0].ID != dr.ID {
		t.Fatalf("list by status: %v %+v", err, list)
	}
	list, err = drones.ListAdmin(ctx, ListDronesAdminParams{OrganizationID: &org.ID})
	if err != nil || len(list) != 1 || list[0].ID != orgDrone.ID {
		t.Fatalf("list by org: %v %+v", err, list)
	}
	list, err = drones.ListAdmin(ctx, ListDronesAdminParams{PageSize: 1})
	if err != nil || len(list) != 1 {
		t.Fatalf("page 1: %v %+v", err, list)
	}
	list, err = drones.ListAdmin(ctx, ListDronesAdminParams{PageSize: 1, AfterID: list[0].ID})
	if err != nil || len(list) != 1 || list[0].ID != orgDrone.ID {
		t.Fatalf("page 2: %v %+v", err, list)
	}

	if err := drones.SoftDelete(ctx, dr.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if got, _ := drones.GetByID(ctx, dr.ID); got != nil {
		t.Fatalf("expected deleted drone hidden, got %+v", got)
	}
}

func TestAssignmentRepository(t *testing.T) {
	d, err := db.Open("file:assignrepo?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	ctx := context.Background()

	org, _ := NewOrganizationRepository(d).Create(ctx, "Acme Air")
	pilot, err := NewUserRepository(d).Create(ctx, &models.User{Username: "p1", Role: models.RoleOrganizationPilot, OrganizationID: &org.ID})
	if err != nil {
		t.Fatalf("create pilot: %v", err)
	}
	dr, err := NewDroneRepository(d).Create(ctx, &models.Drone{SerialNumber: "A-1", OrganizationID: &org.ID})
	if err != nil {
		t.Fatalf("create drone: %v", err)
	}

	repo := NewAssignmentRepository(d)
	if ok, _ := repo.Exists(ctx, pilot.ID, dr.ID); ok {
		t.Fatalf("no assignment expected yet")
	}
	if err := repo.Assign(ctx, pilot.ID, dr.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := repo.Assign(ctx, pilot.ID, dr.ID); err != nil {
		t.Fatalf("assign twice: %v", err)
	}
	if ok, _ := repo.Exists(ctx, pilot.ID, dr.ID); !ok {
		t.Fatalf("assignment expected")
	}
	ids, err := repo.DroneIDsForUser(ctx, pilot.ID)
	if err != nil || len(ids) != 1 || ids[0] != dr.ID {
		t.Fatalf("drone ids: %v %v", err, ids)
	}
	removed, err := repo.Unassign(ctx, pilot.ID, dr.ID)
	if err != nil || !removed {
		t.Fatalf("unassign: %v removed=%v", err, removed)
	}
	if removed, _ := repo.Unassign(ctx, pilot.ID, dr.ID); removed {
		t.Fatalf("second unassign should report nothing removed")
	}
}
