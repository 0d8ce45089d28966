package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"coursehub/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WorkflowRepository covers the book workflow catalog: categories,
// departments and workflows.
type WorkflowRepository interface {
	// ListCategories returns categories with their workflow counts; drafts are counted only when includeDrafts is set
	ListCategories(ctx context.Context, includeDrafts bool) ([]model.WorkflowCategory, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*model.WorkflowCategory, error)
	CreateCategory(ctx context.Context, c *model.WorkflowCategory) error
	ListDepartments(ctx context.Context, categoryID string, includeDrafts bool) ([]model.WorkflowDepartment, error)
	GetDepartmentByID(ctx context.Context, id string) (*model.WorkflowDepartment, error)
	CreateDepartment(ctx context.Context, d *model.WorkflowDepartment) error

	CreateWorkflow(ctx context.Context, w *model.Workflow) error
	UpdateWorkflow(ctx context.Context, w *model.Workflow) error
	GetWorkflowByID(ctx context.Context, id string) (*model.Workflow, error)
	GetWorkflowBySlug(ctx context.Context, slug string) (*model.Workflow, error)
	// SearchWorkflows runs a full-text search, or browses by title when the query is empty
	SearchWorkflows(ctx context.Context, f model.WorkflowFilter) ([]model.Workflow, int, error)
}

type workflowRepo struct {
	pool *pgxpool.Pool
}

func NewWorkflowRepo(pool *pgxpool.Pool) WorkflowRepository {
	return &workflowRepo{pool: pool}
}

func (r *workflowRepo) ListCategories(ctx context.Context, includeDrafts bool) ([]model.WorkflowCategory, error) {
	query := `
		SELECT c.id, c.slug, c.name, c.description, c.position, COUNT(w.id), c.created_at
		FROM workflow_categories c
		LEFT JOIN workflow_departments d ON d.category_id = c.id
		LEFT JOIN workflows w ON w.department_id = d.id AND ($1::boolean OR w.is_published)
		GROUP BY c.id
		ORDER BY c.position, c.name
	`
	rows, err := r.pool.Query(ctx, query, includeDrafts)
	if err != nil {
		return nil, fmt.Errorf("querying workflow categories: %w", err)
	}
	defer rows.Close()

	categories := []model.WorkflowCategory{}
	for rows.Next() {
		var c model.WorkflowCategory
		if err := rows.Scan(&c.ID, &c.Slug, &c.Name, &c.Description, &c.Position, &c.WorkflowCount, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning workflow category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating workflow category rows: %w", err)
	}
	return categories, nil
}

func (r *workflowRepo) GetCategoryBySlug(ctx context.Context, slug string) (*model.WorkflowCategory, error) {
	query := `SELECT id, slug, name, description, position, created_at FROM workflow_categories WHERE slug = $1`
	var c model.WorkflowCategory
	if err := r.pool.QueryRow(ctx, query, slug).Scan(&c.ID, &c.Slug, &c.Name, &c.Description, &c.Position, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting workflow category %s: %w", slug, err)
	}
	return &c, nil
}

func (r *workflowRepo) CreateCategory(ctx context.Context, c *model.WorkflowCategory) error {
	query := `
		INSERT INTO workflow_categories (slug, name, description, position)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	if err := r.pool.QueryRow(ctx, query, c.Slug, c.Name, c.Description, c.Position).Scan(&c.ID, &c.CreatedAt); err != nil {
		return wrapErr(err, "creating workflow category")
	}
	return nil
}

func (r *workflowRepo) ListDepartments(ctx context.Context, categoryID string, includeDrafts bool) ([]model.WorkflowDepartment, error) {
	query := `
		SELECT d.id, d.category_id, d.slug, d.name, d.description, COUNT(w.id), d.created_at
		FROM workflow_departments d
		LEFT JOIN workflows w ON w.department_id = d.id AND ($2::boolean OR w.is_published)
		WHERE d.category_id = $1
		GROUP BY d.id
		ORDER BY d.name
	`
	rows, err := r.pool.Query(ctx, query, categoryID, includeDrafts)
	if err != nil {
		return nil, fmt.Errorf("querying departments of category %s: %w", categoryID, err)
	}
	defer rows.Close()

	departments := []model.WorkflowDepartment{}
	for rows.Next() {
		var d model.WorkflowDepartment
		if err := rows.Scan(&d.ID, &d.CategoryID, &d.Slug, &d.Name, &d.Description, &d.WorkflowCount, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning department row: %w", err)
		}
		departments = append(departments, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating department rows: %w", err)
	}
	return departments, nil
}

func (r *workflowRepo) GetDepartmentByID(ctx context.Context, id string) (*model.WorkflowDepartment, error) {
	query := `SELECT id, category_id, slug, name, description, created_at FROM workflow_departments WHERE id = $1`
	var d model.WorkflowDepartment
	if err := r.pool.QueryRow(ctx, query, id).Scan(&d.ID, &d.CategoryID, &d.Slug, &d.Name, &d.Description, &d.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting department %s: %w", id, err)
	}
	return &d, nil
}

func (r *workflowRepo) CreateDepartment(ctx context.Context, d *model.WorkflowDepartment) error {
	query := `
		INSERT INTO workflow_departments (category_id, slug, name, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	if err := r.pool.QueryRow(ctx, query, d.CategoryID, d.Slug, d.Name, d.Description).Scan(&d.ID, &d.CreatedAt); err != nil {
		return wrapErr(err, fmt.Sprintf("creating department in category %s", d.CategoryID))
	}
	return nil
}

const workflowColumns = `w.id, w.department_id, d.slug, c.slug, w.slug, w.title, w.summary, w.content,
	w.book_title, w.book_author, w.tags, w.is_published, w.created_at, w.updated_at`

const workflowFrom = `
	FROM workflows w
	JOIN workflow_departments d ON d.id = w.department_id
	JOIN workflow_categories c ON c.id = d.category_id
`

const workflowSelect = `SELECT ` + workflowColumns + workflowFrom

func scanWorkflow(row pgx.Row, w *model.Workflow, extra ...any) error {
	dest := []any{
		&w.ID, &w.DepartmentID, &w.DepartmentSlug, &w.CategorySlug, &w.Slug, &w.Title, &w.Summary, &w.Content,
		&w.BookTitle, &w.BookAuthor, &w.Tags, &w.IsPublished, &w.CreatedAt, &w.UpdatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

func (r *workflowRepo) CreateWorkflow(ctx context.Context, w *model.Workflow) error {
	query := `
		INSERT INTO workflows (department_id, slug, title, summary, content, book_title, book_author, tags, is_published)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	var id string
	err := r.pool.QueryRow(ctx, query,
		w.DepartmentID, w.Slug, w.Title, w.Summary, w.Content, w.BookTitle, w.BookAuthor, nonNilTags(w.Tags), w.IsPublished,
	).Scan(&id)
	if err != nil {
		return wrapErr(err, "creating workflow")
	}
	return r.reload(ctx, id, w)
}

func (r *workflowRepo) UpdateWorkflow(ctx context.Context, w *model.Workflow) error {
	query := `
		UPDATE workflows
		SET department_id = $2, slug = $3, title = $4, summary = $5, content = $6,
		    book_title = $7, book_author = $8, tags = $9, is_published = $10, updated_at = now()
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		w.ID, w.DepartmentID, w.Slug, w.Title, w.Summary, w.Content, w.BookTitle, w.BookAuthor, nonNilTags(w.Tags), w.IsPublished,
	)
	if err != nil {
		return wrapErr(err, fmt.Sprintf("updating workflow %s", w.ID))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return r.reload(ctx, w.ID, w)
}

func (r *workflowRepo) reload(ctx context.Context, id string, w *model.Workflow) error {
	if err := scanWorkflow(r.pool.QueryRow(ctx, workflowSelect+` WHERE w.id = $1`, id), w); err != nil {
		return fmt.Errorf("reading workflow %s: %w", id, err)
	}
	return nil
}

func (r *workflowRepo) GetWorkflowByID(ctx context.Context, id string) (*model.Workflow, error) {
	return r.getOne(ctx, `w.id = $1`, id)
}

func (r *workflowRepo) GetWorkflowBySlug(ctx context.Context, slug string) (*model.Workflow, error) {
	return r.getOne(ctx, `w.slug = $1`, slug)
}

func (r *workflowRepo) getOne(ctx context.Context, where, arg string) (*model.Workflow, error) {
	var w model.Workflow
	if err := scanWorkflow(r.pool.QueryRow(ctx, workflowSelect+` WHERE `+where, arg), &w); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting workflow %s: %w", arg, err)
	}
	return &w, nil
}

func (r *workflowRepo) SearchWorkflows(ctx context.Context, f model.WorkflowFilter) ([]model.Workflow, int, error) {
	limit, offset := pageArgs(f.Limit, f.Offset)
	query := strings.TrimSpace(f.Query)

	args := []any{f.CategorySlug, f.DepartmentSlug, f.IncludeDrafts, limit, offset}
	filters := `
		WHERE ($1::text = '' OR c.slug = $1)
		  AND ($2::text = '' OR d.slug = $2)
		  AND ($3::boolean OR w.is_published)
	`
	countArgs := []any{f.CategorySlug, f.DepartmentSlug, f.IncludeDrafts}
	var sql, countSQL string
	if query == "" {
		countSQL = `SELECT COUNT(*)` + workflowFrom + filters
		sql = `SELECT ` + workflowColumns + `, 0::real, COUNT(*) OVER ()` + workflowFrom + filters + `
		ORDER BY w.title
		LIMIT $4 OFFSET $5`
	} else {
		args = append(args, query)
		countArgs = append(countArgs, query)
		countSQL = `SELECT COUNT(*)` + workflowFrom + `
	CROSS JOIN websearch_to_tsquery('english', $4) q` + filters + `
		  AND w.search_vector @@ q`
		sql = `SELECT ` + workflowColumns + `, ts_rank(w.search_vector, q), COUNT(*) OVER ()` +
			workflowFrom + `
	CROSS JOIN websearch_to_tsquery('english', $6) q` + filters + `
		  AND w.search_vector @@ q
		ORDER BY ts_rank(w.search_vector, q) DESC, w.title
		LIMIT $4 OFFSET $5`
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("searching workflows: %w", err)
	}
	defer rows.Close()

	workflows := []model.Workflow{}
	total := 0
	for rows.Next() {
		var w model.Workflow
		if err := scanWorkflow(rows, &w, &w.Rank, &total); err != nil {
			return nil, 0, fmt.Errorf("scanning workflow row: %w", err)
		}
		workflows = append(workflows, w)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating workflow rows: %w", err)
	}

	total, err = pageTotal(ctx, r.pool, total, len(workflows), offset, countSQL, countArgs...)
	if err != nil {
		return nil, 0, err
	}
	return workflows, total, nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
