package repository

import (
	"context"
	"errors"
	"fmt"

	"coursehub/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FileRepository stores file metadata for one owner kind: lesson files or
// workflow files. Both tables share a shape.
type FileRepository interface {
	// CreateFile inserts a row in the uploading state. ID and StoragePath are set by the caller.
	CreateFile(ctx context.Context, f *model.StoredFile) error
	GetFileByID(ctx context.Context, fileID string) (*model.StoredFile, error)
	ListFilesByOwner(ctx context.Context, ownerID string) ([]model.StoredFile, error)
	MarkReady(ctx context.Context, fileID, contentType string, sizeBytes int64) (*model.StoredFile, error)
	MarkFailed(ctx context.Context, fileID string) error
	// DeleteFiles removes rows without touching storage; used to roll back failed upload batches
	DeleteFiles(ctx context.Context, fileIDs []string) error
}

type fileRepo struct {
	pool        *pgxpool.Pool
	table       string
	ownerColumn string
}

func NewLessonFileRepo(pool *pgxpool.Pool) FileRepository {
	return &fileRepo{pool: pool, table: "lesson_files", ownerColumn: "lesson_id"}
}

func NewWorkflowFileRepo(pool *pgxpool.Pool) FileRepository {
	return &fileRepo{pool: pool, table: "workflow_files", ownerColumn: "workflow_id"}
}

func (r *fileRepo) columns() string {
	return fmt.Sprintf(`id, %s, file_name, storage_path, content_type, size_bytes, status, created_at, updated_at`, r.ownerColumn)
}

func scanFile(row pgx.Row, f *model.StoredFile) error {
	return row.Scan(&f.ID, &f.OwnerID, &f.FileName, &f.StoragePath, &f.ContentType, &f.SizeBytes, &f.Status, &f.CreatedAt, &f.UpdatedAt)
}

func (r *fileRepo) CreateFile(ctx context.Context, f *model.StoredFile) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, %s, file_name, storage_path, content_type, status)
		VALUES ($1, $2, $3, $4, $5, 'uploading')
		RETURNING %s`, r.table, r.ownerColumn, r.columns())
	if err := scanFile(r.pool.QueryRow(ctx, query, f.ID, f.OwnerID, f.FileName, f.StoragePath, f.ContentType), f); err != nil {
		return wrapErr(err, fmt.Sprintf("creating %s row for %s", r.table, f.OwnerID))
	}
	return nil
}

func (r *fileRepo) GetFileByID(ctx context.Context, fileID string) (*model.StoredFile, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, r.columns(), r.table)
	var f model.StoredFile
	if err := scanFile(r.pool.QueryRow(ctx, query, fileID), &f); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting %s %s: %w", r.table, fileID, err)
	}
	return &f, nil
}

func (r *fileRepo) ListFilesByOwner(ctx context.Context, ownerID string) ([]model.StoredFile, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY created_at, file_name`, r.columns(), r.table, r.ownerColumn)
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying %s for %s: %w", r.table, ownerID, err)
	}
	defer rows.Close()

	files := []model.StoredFile{}
	for rows.Next() {
		var f model.StoredFile
		if err := scanFile(rows, &f); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", r.table, err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", r.table, err)
	}
	return files, nil
}

func (r *fileRepo) MarkReady(ctx context.Context, fileID, contentType string, sizeBytes int64) (*model.StoredFile, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET status = 'ready', content_type = $2, size_bytes = $3, updated_at = now()
		WHERE id = $1
		RETURNING %s`, r.table, r.columns())
	var f model.StoredFile
	if err := scanFile(r.pool.QueryRow(ctx, query, fileID, contentType, sizeBytes), &f); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("marking %s %s ready: %w", r.table, fileID, err)
	}
	return &f, nil
}

func (r *fileRepo) MarkFailed(ctx context.Context, fileID string) error {
	query := fmt.Sprintf(`UPDATE %s SET status = 'failed', updated_at = now() WHERE id = $1`, r.table)
	if _, err := r.pool.Exec(ctx, query, fileID); err != nil {
		return fmt.Errorf("marking %s %s failed: %w", r.table, fileID, err)
	}
	return nil
}

func (r *fileRepo) DeleteFiles(ctx context.Context, fileIDs []string) error {
	if len(fileIDs) == 0 {
		return nil
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, r.table)
	if _, err := r.pool.Exec(ctx, query, fileIDs); err != nil {
		return fmt.Errorf("deleting %d %s rows: %w", len(fileIDs), r.table, err)
	}
	return nil
}
