package repository

import (
	"context"
	"testing"

	"droneFlightAuthority/internal/db"
	"droneFlightAuthority/models"
)

func TestUserRepository_CRUDAndQueries(t *testing.T) {
	d, err := db.Open("file:userrepo?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	orgs := NewOrganizationRepository(d)
	repo := NewUserRepository(d)
	ctx := context.Background()

	org, err := orgs.Create(ctx, "Skyline Surveys")
	if err != nil {
		t.Fatalf("create org: %v", err)
	}

	u, err := repo.Create(ctx, &models.User{Username: "alice", FullName: "Alice A", Role: models.RoleOrganizationPilot, OrganizationID: &org.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID == 0 || u.Username != "alice" || !u.IsActive || u.OrganizationID == nil || *u.OrganizationID != org.ID {
		t.Fatalf("unexpected created user: %+v", u)
	}

	if _, err := repo.Create(ctx, &models.User{Username: "bob", Role: "PILOT"}); err == nil {
		t.Fatalf("expected invalid role to be rejected")
	}

	g, err := repo.GetByID(ctx, u.ID)
	if err != nil || g == nil || g.Username != "alice" {
		t.Fatalf("get by id: %v %+v", err, g)
	}

	g2, err := repo.GetByUsername(ctx, "alice")
	if err != nil || g2 == nil || g2.ID != u.ID {
		t.Fatalf("get by username: %v %+v", err, g2)
	}

	list, err := repo.List(ctx, 10, 0)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v len=%d", err, len(list))
	}

	if err := repo.UpdateRoleByUsername(ctx, "alice", models.RoleOrganizationAdmin); err != nil {
		t.Fatalf("update role: %v", err)
	}
	if err := repo.SetActive(ctx, u.ID, false); err != nil {
		t.Fatalf("set active: %v", err)
	}
	g3, _ := repo.GetByID(ctx, u.ID)
	if g3.Role != models.RoleOrganizationAdmin || g3.IsActive {
		t.Fatalf("role/active not updated: %+v", g3)
	}

	if err := repo.SoftDelete(ctx, u.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if g4, err := repo.GetByID(ctx, u.ID); err != nil || g4 != nil {
		t.Fatalf("expected deleted user to be hidden, got %+v err=%v", g4, err)
	}
}
