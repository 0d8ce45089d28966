package repository

import (
	"context"
	"errors"
	"fmt"

	"coursehub/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ModuleRepository interface {
	// CreateModule appends the module to its course when Position is zero
	CreateModule(ctx context.Context, m *model.Module) error
	GetModuleByID(ctx context.Context, moduleID string) (*model.Module, error)
	UpdateModule(ctx context.Context, m *model.Module) error
	ListModulesByCourse(ctx context.Context, courseID string) ([]model.Module, error)
	// ReorderModules assigns positions 1..n following orderedIDs
	ReorderModules(ctx context.Context, courseID string, orderedIDs []string) error
}

type moduleRepo struct {
	pool *pgxpool.Pool
}

func NewModuleRepo(pool *pgxpool.Pool) ModuleRepository {
	return &moduleRepo{pool: pool}
}

const moduleColumns = `id, course_id, title, description, position, created_at, updated_at`

func scanModule(row pgx.Row, m *model.Module) error {
	return row.Scan(&m.ID, &m.CourseID, &m.Title, &m.Description, &m.Position, &m.CreatedAt, &m.UpdatedAt)
}

func (r *moduleRepo) CreateModule(ctx context.Context, m *model.Module) error {
	query := `
		INSERT INTO modules (course_id, title, description, position)
		VALUES ($1, $2, $3,
			CASE WHEN $4::int > 0 THEN $4::int
			ELSE (SELECT COALESCE(MAX(position), 0) + 1 FROM modules WHERE course_id = $1) END)
		RETURNING ` + moduleColumns
	if err := scanModule(r.pool.QueryRow(ctx, query, m.CourseID, m.Title, m.Description, m.Position), m); err != nil {
		return wrapErr(err, fmt.Sprintf("creating module in course %s", m.CourseID))
	}
	return nil
}

func (r *moduleRepo) GetModuleByID(ctx context.Context, moduleID string) (*model.Module, error) {
	query := `SELECT ` + moduleColumns + ` FROM modules WHERE id = $1`
	var m model.Module
	if err := scanModule(r.pool.QueryRow(ctx, query, moduleID), &m); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting module %s: %w", moduleID, err)
	}
	return &m, nil
}

func (r *moduleRepo) UpdateModule(ctx context.Context, m *model.Module) error {
	query := `
		UPDATE modules SET title = $2, description = $3, updated_at = now()
		WHERE id = $1
		RETURNING ` + moduleColumns
	if err := scanModule(r.pool.QueryRow(ctx, query, m.ID, m.Title, m.Description), m); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("updating module %s: %w", m.ID, err)
	}
	return nil
}

func (r *moduleRepo) ListModulesByCourse(ctx context.Context, courseID string) ([]model.Module, error) {
	query := `SELECT ` + moduleColumns + ` FROM modules WHERE course_id = $1 ORDER BY position, created_at`
	rows, err := r.pool.Query(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("querying modules for course %s: %w", courseID, err)
	}
	defer rows.Close()

	modules := []model.Module{}
	for rows.Next() {
		var m model.Module
		if err := scanModule(rows, &m); err != nil {
			return nil, fmt.Errorf("scanning module row: %w", err)
		}
		modules = append(modules, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating module rows: %w", err)
	}
	return modules, nil
}

func (r *moduleRepo) ReorderModules(ctx context.Context, courseID string, orderedIDs []string) error {
	return reorder(ctx, r.pool, "modules", "course_id", courseID, orderedIDs)
}

// reorder rewrites positions of the children of one parent in a single
// transaction. orderedIDs must already be validated against the parent.
func reorder(ctx context.Context, pool *pgxpool.Pool, table, parentColumn, parentID string, orderedIDs []string) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("starting reorder of %s: %w", table, err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	query := fmt.Sprintf(`UPDATE %s SET position = $1, updated_at = now() WHERE id = $2 AND %s = $3`, table, parentColumn)
	for i, id := range orderedIDs {
		tag, err := tx.Exec(ctx, query, i+1, id, parentID)
		if err != nil {
			return fmt.Errorf("setting position of %s %s: %w", table, id, err)
		}
		if tag.RowsAffected() != 1 {
			return fmt.Errorf("reordering %s: %s: %w", table, id, ErrNotFound)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing reorder of %s: %w", table, err)
	}
	return nil
}
