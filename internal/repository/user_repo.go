package repository

import (
	"context"
	"errors"
	"fmt"

	"coursehub/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository defines access to user profiles
type UserRepository interface {
	// UpsertProfile creates the profile on first login and refreshes email and name afterwards
	UpsertProfile(ctx context.Context, p *model.Profile) error
	GetProfileByID(ctx context.Context, id string) (*model.Profile, error)
	UpdateFullName(ctx context.Context, id, fullName string) (*model.Profile, error)
	// UpdateAccess changes role and organization membership
	UpdateAccess(ctx context.Context, id, role string, organizationID *string) (*model.Profile, error)
	// ListProfiles lists profiles, optionally restricted to one organization
	ListProfiles(ctx context.Context, organizationID *string, limit, offset int) ([]model.Profile, int, error)
}

type userRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) UserRepository {
	return &userRepo{pool: pool}
}

const profileColumns = `id, email, full_name, role, organization_id, created_at, updated_at`

func scanProfile(row pgx.Row, p *model.Profile) error {
	return row.Scan(&p.ID, &p.Email, &p.FullName, &p.Role, &p.OrganizationID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *userRepo) UpsertProfile(ctx context.Context, p *model.Profile) error {
	query := `
		INSERT INTO profiles (id, email, full_name, role)
		VALUES ($1, $2, $3, 'member')
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email,
		    full_name = CASE WHEN EXCLUDED.full_name = '' THEN profiles.full_name ELSE EXCLUDED.full_name END,
		    updated_at = now()
		RETURNING ` + profileColumns
	if err := scanProfile(r.pool.QueryRow(ctx, query, p.ID, p.Email, p.FullName), p); err != nil {
		return wrapErr(err, fmt.Sprintf("upserting profile %s", p.ID))
	}
	return nil
}

func (r *userRepo) GetProfileByID(ctx context.Context, id string) (*model.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	var p model.Profile
	if err := scanProfile(r.pool.QueryRow(ctx, query, id), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting profile %s: %w", id, err)
	}
	return &p, nil
}

func (r *userRepo) UpdateFullName(ctx context.Context, id, fullName string) (*model.Profile, error) {
	query := `
		UPDATE profiles SET full_name = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + profileColumns
	var p model.Profile
	if err := scanProfile(r.pool.QueryRow(ctx, query, id, fullName), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("updating profile %s: %w", id, err)
	}
	return &p, nil
}

func (r *userRepo) UpdateAccess(ctx context.Context, id, role string, organizationID *string) (*model.Profile, error) {
	query := `
		UPDATE profiles SET role = $2, organization_id = $3, updated_at = now()
		WHERE id = $1
		RETURNING ` + profileColumns
	var p model.Profile
	if err := scanProfile(r.pool.QueryRow(ctx, query, id, role, organizationID), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr(err, fmt.Sprintf("updating access for profile %s", id))
	}
	return &p, nil
}

func (r *userRepo) ListProfiles(ctx context.Context, organizationID *string, limit, offset int) ([]model.Profile, int, error) {
	limit, offset = pageArgs(limit, offset)
	query := `
		SELECT ` + profileColumns + `, COUNT(*) OVER ()
		FROM profiles
		WHERE ($1::uuid IS NULL OR organization_id = $1)
		ORDER BY full_name, email
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, organizationID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("querying profiles: %w", err)
	}
	defer rows.Close()

	profiles := []model.Profile{}
	total := 0
	for rows.Next() {
		var p model.Profile
		if err := rows.Scan(&p.ID, &p.Email, &p.FullName, &p.Role, &p.OrganizationID, &p.CreatedAt, &p.UpdatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scanning profile row: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating profile rows: %w", err)
	}
	total, err = pageTotal(ctx, r.pool, total, len(profiles), offset, `SELECT COUNT(*) FROM profiles WHERE ($1::uuid IS NULL OR organization_id = $1)`, organizationID)
	if err != nil {
		return nil, 0, err
	}
	return profiles, total, nil
}
