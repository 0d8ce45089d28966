package repository

import (
	"context"
	"errors"
	"fmt"

	"coursehub/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CourseRepository defines the interface for interacting with course data
type CourseRepository interface {
	CreateCourse(ctx context.Context, c *model.Course) error
	// GetCourseByID retrieves a course by its ID
	GetCourseByID(ctx context.Context, courseID string) (*model.Course, error)
	// UpdateCourse updates title, slug, description and publication state
	UpdateCourse(ctx context.Context, c *model.Course) error
	// ListCourses lists every course, newest first
	ListCourses(ctx context.Context, limit, offset int) ([]model.Course, int, error)
	// ListCoursesForOrganization lists published courses the organization holds an active, unexpired enrollment for
	ListCoursesForOrganization(ctx context.Context, organizationID string) ([]model.Course, error)
	// HasActiveEnrollment reports whether the organization may currently access the course
	HasActiveEnrollment(ctx context.Context, organizationID, courseID string) (bool, error)
}

type courseRepo struct {
	pool *pgxpool.Pool
}

// NewCourseRepo creates a new CourseRepository
func NewCourseRepo(pool *pgxpool.Pool) CourseRepository {
	return &courseRepo{pool: pool}
}

const courseColumns = `c.id, c.slug, c.title, c.description, c.is_published, c.created_by, c.created_at, c.updated_at`

func scanCourse(row pgx.Row, c *model.Course) error {
	return row.Scan(&c.ID, &c.Slug, &c.Title, &c.Description, &c.IsPublished, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
}

// CreateCourse inserts a new course and fills in generated fields
func (r *courseRepo) CreateCourse(ctx context.Context, c *model.Course) error {
	query := `
		INSERT INTO courses AS c (slug, title, description, is_published, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + courseColumns
	err := scanCourse(r.pool.QueryRow(ctx, query, c.Slug, c.Title, c.Description, c.IsPublished, c.CreatedBy), c)
	if err != nil {
		return wrapErr(err, "creating course")
	}
	return nil
}

// GetCourseByID retrieves a course by its ID
func (r *courseRepo) GetCourseByID(ctx context.Context, courseID string) (*model.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses c WHERE c.id = $1`
	var c model.Course
	if err := scanCourse(r.pool.QueryRow(ctx, query, courseID), &c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting course by id %s: %w", courseID, err)
	}
	return &c, nil
}

// UpdateCourse updates an existing course
func (r *courseRepo) UpdateCourse(ctx context.Context, c *model.Course) error {
	query := `
		UPDATE courses AS c
		SET slug = $2, title = $3, description = $4, is_published = $5, updated_at = now()
		WHERE c.id = $1
		RETURNING ` + courseColumns
	err := scanCourse(r.pool.QueryRow(ctx, query, c.ID, c.Slug, c.Title, c.Description, c.IsPublished), c)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return wrapErr(err, fmt.Sprintf("updating course %s", c.ID))
	}
	return nil
}

func (r *courseRepo) ListCourses(ctx context.Context, limit, offset int) ([]model.Course, int, error) {
	limit, offset = pageArgs(limit, offset)
	query := `
		SELECT ` + courseColumns + `, COUNT(*) OVER ()
		FROM courses c
		ORDER BY c.updated_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("querying courses: %w", err)
	}
	defer rows.Close()

	courses := []model.Course{}
	total := 0
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(&c.ID, &c.Slug, &c.Title, &c.Description, &c.IsPublished, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scanning course row: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating course rows: %w", err)
	}
	total, err = pageTotal(ctx, r.pool, total, len(courses), offset, `SELECT COUNT(*) FROM courses`)
	if err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}

func (r *courseRepo) ListCoursesForOrganization(ctx context.Context, organizationID string) ([]model.Course, error) {
	query := `
		SELECT ` + courseColumns + `
		FROM courses c
		JOIN enrollments e ON e.course_id = c.id
		WHERE e.organization_id = $1
		  AND e.status = 'active'
		  AND (e.expires_at IS NULL OR e.expires_at > now())
		  AND c.is_published
		ORDER BY c.title
	`
	rows, err := r.pool.Query(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("querying courses for organization %s: %w", organizationID, err)
	}
	defer rows.Close()

	courses := []model.Course{}
	for rows.Next() {
		var c model.Course
		if err := scanCourse(rows, &c); err != nil {
			return nil, fmt.Errorf("scanning course row: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating course rows: %w", err)
	}
	return courses, nil
}

func (r *courseRepo) HasActiveEnrollment(ctx context.Context, organizationID, courseID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM enrollments
			WHERE organization_id = $1 AND course_id = $2
			  AND status = 'active'
			  AND (expires_at IS NULL OR expires_at > now())
		)
	`
	var ok bool
	if err := r.pool.QueryRow(ctx, query, organizationID, courseID).Scan(&ok); err != nil {
		return false, fmt.Errorf("checking enrollment of %s in %s: %w", organizationID, courseID, err)
	}
	return ok, nil
}
