package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coursehub/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EnrollmentRepository interface {
	// Enroll creates an enrollment, or reactivates an expired one for the same
	// organization and course. An enrollment that is still active yields ErrDuplicate.
	Enroll(ctx context.Context, e *model.Enrollment) error
	GetEnrollmentByID(ctx context.Context, id string) (*model.Enrollment, error)
	ListEnrollmentsByOrganization(ctx context.Context, organizationID string) ([]model.Enrollment, error)
	ListEnrollmentsByCourse(ctx context.Context, courseID string) ([]model.Enrollment, error)
}

type enrollmentRepo struct {
	pool *pgxpool.Pool
}

func NewEnrollmentRepo(pool *pgxpool.Pool) EnrollmentRepository {
	return &enrollmentRepo{pool: pool}
}

const enrollmentSelect = `
	SELECT e.id, e.organization_id, o.name, e.course_id, c.title, e.status, e.enrolled_by, e.enrolled_at, e.expires_at
	FROM enrollments e
	JOIN organizations o ON o.id = e.organization_id
	JOIN courses c ON c.id = e.course_id
`

func scanEnrollment(row pgx.Row, e *model.Enrollment) error {
	return row.Scan(
		&e.ID,
		&e.OrganizationID,
		&e.OrganizationName,
		&e.CourseID,
		&e.CourseTitle,
		&e.Status,
		&e.EnrolledBy,
		&e.EnrolledAt,
		&e.ExpiresAt,
	)
}

func (r *enrollmentRepo) Enroll(ctx context.Context, e *model.Enrollment) error {
	query := `
		INSERT INTO enrollments (organization_id, course_id, status, enrolled_by, expires_at)
		VALUES ($1, $2, 'active', $3, $4)
		ON CONFLICT (organization_id, course_id) DO UPDATE
		SET status = 'active',
		    enrolled_by = EXCLUDED.enrolled_by,
		    enrolled_at = now(),
		    expires_at = EXCLUDED.expires_at
		WHERE enrollments.status = 'expired'
		   OR (enrollments.expires_at IS NOT NULL AND enrollments.expires_at <= now())
		RETURNING id
	`
	var id string
	if err := r.pool.QueryRow(ctx, query, e.OrganizationID, e.CourseID, e.EnrolledBy, expiresAtOrNil(e.ExpiresAt)).Scan(&id); err != nil {
		// The conflict clause skipped the update: an active enrollment already exists.
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("enrolling %s in %s: %w", e.OrganizationID, e.CourseID, ErrDuplicate)
		}
		return wrapErr(err, fmt.Sprintf("enrolling %s in %s", e.OrganizationID, e.CourseID))
	}
	if err := scanEnrollment(r.pool.QueryRow(ctx, enrollmentSelect+` WHERE e.id = $1`, id), e); err != nil {
		return fmt.Errorf("reading enrollment %s: %w", id, err)
	}
	return nil
}

func (r *enrollmentRepo) GetEnrollmentByID(ctx context.Context, id string) (*model.Enrollment, error) {
	var e model.Enrollment
	if err := scanEnrollment(r.pool.QueryRow(ctx, enrollmentSelect+` WHERE e.id = $1`, id), &e); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting enrollment %s: %w", id, err)
	}
	return &e, nil
}

func (r *enrollmentRepo) ListEnrollmentsByOrganization(ctx context.Context, organizationID string) ([]model.Enrollment, error) {
	return r.list(ctx, enrollmentSelect+` WHERE e.organization_id = $1 ORDER BY c.title`, organizationID)
}

func (r *enrollmentRepo) ListEnrollmentsByCourse(ctx context.Context, courseID string) ([]model.Enrollment, error) {
	return r.list(ctx, enrollmentSelect+` WHERE e.course_id = $1 ORDER BY o.name`, courseID)
}

func (r *enrollmentRepo) list(ctx context.Context, query, arg string) ([]model.Enrollment, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("querying enrollments: %w", err)
	}
	defer rows.Close()

	enrollments := []model.Enrollment{}
	for rows.Next() {
		var e model.Enrollment
		if err := scanEnrollment(rows, &e); err != nil {
			return nil, fmt.Errorf("scanning enrollment row: %w", err)
		}
		enrollments = append(enrollments, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating enrollment rows: %w", err)
	}
	return enrollments, nil
}

// expiresAtOrNil keeps zero times out of the database.
func expiresAtOrNil(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	return t
}
