package repository

import (
	"context"
	"errors"
	"fmt"

	"coursehub/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrganizationRepository interface {
	CreateOrganization(ctx context.Context, o *model.Organization) error
	GetOrganizationByID(ctx context.Context, id string) (*model.Organization, error)
	UpdateOrganization(ctx context.Context, o *model.Organization) error
	ListOrganizations(ctx context.Context, limit, offset int) ([]model.Organization, int, error)
}

type organizationRepo struct {
	pool *pgxpool.Pool
}

func NewOrganizationRepo(pool *pgxpool.Pool) OrganizationRepository {
	return &organizationRepo{pool: pool}
}

const organizationColumns = `o.id, o.name, o.slug, o.contact_email,
	(SELECT COUNT(*) FROM profiles p WHERE p.organization_id = o.id), o.created_at, o.updated_at`

func scanOrganization(row pgx.Row, o *model.Organization) error {
	return row.Scan(&o.ID, &o.Name, &o.Slug, &o.ContactEmail, &o.MemberCount, &o.CreatedAt, &o.UpdatedAt)
}

func (r *organizationRepo) CreateOrganization(ctx context.Context, o *model.Organization) error {
	query := `
		INSERT INTO organizations AS o (name, slug, contact_email)
		VALUES ($1, $2, $3)
		RETURNING ` + organizationColumns
	if err := scanOrganization(r.pool.QueryRow(ctx, query, o.Name, o.Slug, o.ContactEmail), o); err != nil {
		return wrapErr(err, "creating organization")
	}
	return nil
}

func (r *organizationRepo) GetOrganizationByID(ctx context.Context, id string) (*model.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations o WHERE o.id = $1`
	var o model.Organization
	if err := scanOrganization(r.pool.QueryRow(ctx, query, id), &o); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting organization %s: %w", id, err)
	}
	return &o, nil
}

func (r *organizationRepo) UpdateOrganization(ctx context.Context, o *model.Organization) error {
	query := `
		UPDATE organizations AS o
		SET name = $2, slug = $3, contact_email = $4, updated_at = now()
		WHERE o.id = $1
		RETURNING ` + organizationColumns
	if err := scanOrganization(r.pool.QueryRow(ctx, query, o.ID, o.Name, o.Slug, o.ContactEmail), o); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return wrapErr(err, fmt.Sprintf("updating organization %s", o.ID))
	}
	return nil
}

func (r *organizationRepo) ListOrganizations(ctx context.Context, limit, offset int) ([]model.Organization, int, error) {
	limit, offset = pageArgs(limit, offset)
	query := `
		SELECT ` + organizationColumns + `, COUNT(*) OVER ()
		FROM organizations o
		ORDER BY o.name
		LIMIT $1 OFFSET $2
	`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("querying organizations: %w", err)
	}
	defer rows.Close()

	orgs := []model.Organization{}
	total := 0
	for rows.Next() {
		var o model.Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.Slug, &o.ContactEmail, &o.MemberCount, &o.CreatedAt, &o.UpdatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scanning organization row: %w", err)
		}
		orgs = append(orgs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating organization rows: %w", err)
	}
	total, err = pageTotal(ctx, r.pool, total, len(orgs), offset, `SELECT COUNT(*) FROM organizations`)
	if err != nil {
		return nil, 0, err
	}
	return orgs, total, nil
}
