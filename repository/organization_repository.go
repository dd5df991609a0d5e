package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"droneFlightAuthority/models"
)

type OrganizationRepository struct {
	db DBTX
}

func NewOrganizationRepository(db DBTX) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

func scanOrganization(s rowScanner) (*models.Organization, error) {
	var o models.Organization
	if err := s.Scan(&o.ID, &o.Name, &o.IsActive, &o.CreatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrganizationRepository) Create(ctx context.Context, name string) (*models.Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("organization name is empty")
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `INSERT INTO organizations (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("insert organization: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *OrganizationRepository) GetByID(ctx context.Context, id int64) (*models.Organization, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	o, err := scanOrganization(r.db.QueryRowContext(ctx, `SELECT id, name, is_active, created_at FROM organizations WHERE id = ? AND deleted_at IS NULL`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return o, nil
}

func (r *OrganizationRepository) List(ctx context.Context) ([]models.Organization, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, is_active, created_at FROM organizations WHERE deleted_at IS NULL ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Organization
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}
