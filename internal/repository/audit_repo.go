package repository

import (
	"context"
	"fmt"

	"coursehub/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditRepository reads and writes the deletion audit trail
type AuditRepository interface {
	// RecordAttempt stores an audit row outside of any deletion transaction
	RecordAttempt(ctx context.Context, a *model.DeletionAudit) error
	ListAudit(ctx context.Context, entityType string, limit, offset int) ([]model.DeletionAudit, int, error)
}

type auditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) AuditRepository {
	return &auditRepo{pool: pool}
}

func (r *auditRepo) RecordAttempt(ctx context.Context, a *model.DeletionAudit) error {
	return insertAudit(ctx, r.pool, a)
}

func insertAudit(ctx context.Context, db DBTX, a *model.DeletionAudit) error {
	query := `
		INSERT INTO deletion_audit_log (actor_id, entity_type, entity_id, entity_name, severity, outcome, reason, impact)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb)
		RETURNING id, created_at
	`
	impact := string(a.Impact)
	if impact == "" {
		impact = "{}"
	}
	err := db.QueryRow(ctx, query, a.ActorID, a.EntityType, a.EntityID, a.EntityName, a.Severity, a.Outcome, a.Reason, impact).
		Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("recording %s audit for %s %s: %w", a.Outcome, a.EntityType, a.EntityID, err)
	}
	return nil
}

func (r *auditRepo) ListAudit(ctx context.Context, entityType string, limit, offset int) ([]model.DeletionAudit, int, error) {
	limit, offset = pageArgs(limit, offset)
	query := `
		SELECT id, actor_id, entity_type, entity_id, entity_name, severity, outcome, reason, impact::text, created_at,
		       COUNT(*) OVER ()
		FROM deletion_audit_log
		WHERE ($1::text = '' OR entity_type = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, entityType, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("querying deletion audit: %w", err)
	}
	defer rows.Close()

	entries := []model.DeletionAudit{}
	total := 0
	for rows.Next() {
		var a model.DeletionAudit
		var impact string
		if err := rows.Scan(&a.ID, &a.ActorID, &a.EntityType, &a.EntityID, &a.EntityName, &a.Severity, &a.Outcome, &a.Reason, &impact, &a.CreatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scanning deletion audit row: %w", err)
		}
		a.Impact = []byte(impact)
		entries = append(entries, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating deletion audit rows: %w", err)
	}
	total, err = pageTotal(ctx, r.pool, total, len(entries), offset, `SELECT COUNT(*) FROM deletion_audit_log WHERE ($1::text = '' OR entity_type = $1)`, entityType)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
