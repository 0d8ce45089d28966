package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"coursehub/internal/deletion"
	"coursehub/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DeletionRepository computes deletion impact and executes deletions
// together with their audit row and storage cleanup job.
type DeletionRepository interface {
	// The impact methods return nil, nil when the entity does not exist.
	CourseImpact(ctx context.Context, courseID string) (*deletion.Impact, error)
	ModuleImpact(ctx context.Context, moduleID string) (*deletion.Impact, error)
	LessonImpact(ctx context.Context, lessonID string) (*deletion.Impact, error)
	LessonFileImpact(ctx context.Context, fileID string) (*deletion.Impact, error)
	OrganizationImpact(ctx context.Context, organizationID, actorID string) (*deletion.Impact, error)
	EnrollmentImpact(ctx context.Context, enrollmentID string) (*deletion.Impact, error)
	WorkflowImpact(ctx context.Context, workflowID string) (*deletion.Impact, error)

	// ExecuteDeletion deletes the entity in one transaction. The impact is
	// recomputed under the row lock and passed to cmd.Authorize; an error
	// from it aborts the deletion and is returned as is. It returns the
	// storage keys handed to the cleanup queue, or ErrNotFound.
	ExecuteDeletion(ctx context.Context, cmd DeletionCommand) ([]string, error)
}

// DeletionCommand describes a requested deletion.
type DeletionCommand struct {
	EntityType   deletion.EntityType
	EntityID     string
	ActorID      string
	CleanupQueue string
	// Authorize returns the executed audit row for the locked impact.
	Authorize func(impact deletion.Impact) (*model.DeletionAudit, error)
}

type deletionRepo struct {
	pool *pgxpool.Pool
}

func NewDeletionRepo(pool *pgxpool.Pool) DeletionRepository {
	return &deletionRepo{pool: pool}
}

var entityTables = map[deletion.EntityType]string{
	deletion.EntityCourse:       "courses",
	deletion.EntityModule:       "modules",
	deletion.EntityLesson:       "lessons",
	deletion.EntityLessonFile:   "lesson_files",
	deletion.EntityOrganization: "organizations",
	deletion.EntityEnrollment:   "enrollments",
	deletion.EntityWorkflow:     "workflows",
}

// storageKeyQueries lists the objects that disappear with each entity.
// Organizations and enrollments own no files.
var storageKeyQueries = map[deletion.EntityType]string{
	deletion.EntityCourse: `
		SELECT f.storage_path FROM lesson_files f
		JOIN lessons l ON l.id = f.lesson_id
		JOIN modules m ON m.id = l.module_id
		WHERE m.course_id = $1`,
	deletion.EntityModule: `
		SELECT f.storage_path FROM lesson_files f
		JOIN lessons l ON l.id = f.lesson_id
		WHERE l.module_id = $1`,
	deletion.EntityLesson:     `SELECT storage_path FROM lesson_files WHERE lesson_id = $1`,
	deletion.EntityLessonFile: `SELECT storage_path FROM lesson_files WHERE id = $1`,
	deletion.EntityWorkflow:   `SELECT storage_path FROM workflow_files WHERE workflow_id = $1`,
}

// lessonScopes select the lesson IDs removed with a course, module or lesson.
var lessonScopes = map[deletion.EntityType]string{
	deletion.EntityCourse: `SELECT l.id FROM lessons l JOIN modules m ON m.id = l.module_id WHERE m.course_id = $1`,
	deletion.EntityModule: `SELECT id FROM lessons WHERE module_id = $1`,
	deletion.EntityLesson: `SELECT id FROM lessons WHERE id = $1`,
}

// addLessonScope fills file, storage and progress counts for every lesson in
// the entity's scope. Learners with progress count as affected users.
func addLessonScope(ctx context.Context, db DBTX, impact *deletion.Impact, countLessons bool) error {
	query := `
		WITH scope AS (` + lessonScopes[impact.EntityType] + `)
		SELECT
			(SELECT COUNT(*) FROM scope),
			(SELECT COUNT(*) FROM lesson_files f WHERE f.lesson_id IN (SELECT id FROM scope)),
			(SELECT COALESCE(SUM(f.size_bytes), 0)::bigint FROM lesson_files f WHERE f.lesson_id IN (SELECT id FROM scope)),
			(SELECT COUNT(*) FROM lesson_progress lp WHERE lp.lesson_id IN (SELECT id FROM scope)),
			(SELECT COUNT(DISTINCT lp.user_id) FROM lesson_progress lp WHERE lp.lesson_id IN (SELECT id FROM scope))
	`
	var lessons int
	err := db.QueryRow(ctx, query, impact.EntityID).Scan(
		&lessons,
		&impact.AffectedFiles,
		&impact.StorageBytes,
		&impact.AffectedProgressRecords,
		&impact.AffectedUsers,
	)
	if err != nil {
		return fmt.Errorf("computing lesson impact of %s %s: %w", impact.EntityType, impact.EntityID, err)
	}
	if countLessons {
		impact.AffectedLessons = lessons
	}
	return nil
}

func courseImpact(ctx context.Context, db DBTX, courseID string) (*deletion.Impact, error) {
	impact := &deletion.Impact{EntityType: deletion.EntityCourse, EntityID: courseID}
	query := `
		SELECT c.title, c.is_published,
			(SELECT COUNT(*) FROM modules m WHERE m.course_id = c.id),
			(SELECT COUNT(*) FROM enrollments e WHERE e.course_id = c.id),
			(SELECT COUNT(*) FROM enrollments e WHERE e.course_id = c.id
				AND e.status = 'active' AND (e.expires_at IS NULL OR e.expires_at > now())),
			(SELECT COUNT(DISTINCT e.organization_id) FROM enrollments e WHERE e.course_id = c.id)
		FROM courses c
		WHERE c.id = $1
	`
	err := db.QueryRow(ctx, query, courseID).Scan(
		&impact.EntityName,
		&impact.Facts.Published,
		&impact.AffectedModules,
		&impact.AffectedEnrollments,
		&impact.ActiveEnrollments,
		&impact.AffectedOrganizations,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("computing impact of course %s: %w", courseID, err)
	}
	if err := addLessonScope(ctx, db, impact, true); err != nil {
		return nil, err
	}

	// Members of actively enrolled organizations lose access even without progress.
	usersQuery := `
		SELECT COUNT(*) FROM (
			SELECT p.id FROM profiles p
			JOIN enrollments e ON e.organization_id = p.organization_id
			WHERE e.course_id = $1 AND e.status = 'active' AND (e.expires_at IS NULL OR e.expires_at > now())
			UNION
			SELECT lp.user_id FROM lesson_progress lp
			JOIN lessons l ON l.id = lp.lesson_id
			JOIN modules m ON m.id = l.module_id
			WHERE m.course_id = $1
		) affected
	`
	if err := db.QueryRow(ctx, usersQuery, courseID).Scan(&impact.AffectedUsers); err != nil {
		return nil, fmt.Errorf("counting users affected by course %s: %w", courseID, err)
	}
	return impact, nil
}

func moduleImpact(ctx context.Context, db DBTX, moduleID string) (*deletion.Impact, error) {
	impact := &deletion.Impact{EntityType: deletion.EntityModule, EntityID: moduleID}
	query := `
		SELECT m.title, c.is_published,
			c.is_published AND (SELECT COUNT(*) FROM modules o WHERE o.course_id = c.id) = 1
		FROM modules m
		JOIN courses c ON c.id = m.course_id
		WHERE m.id = $1
	`
	err := db.QueryRow(ctx, query, moduleID).Scan(
		&impact.EntityName,
		&impact.Facts.Published,
		&impact.Facts.LastModuleOfPublishedCourse,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("computing impact of module %s: %w", moduleID, err)
	}
	if err := addLessonScope(ctx, db, impact, true); err != nil {
		return nil, err
	}
	return impact, nil
}

func lessonImpact(ctx context.Context, db DBTX, lessonID string) (*deletion.Impact, error) {
	impact := &deletion.Impact{EntityType: deletion.EntityLesson, EntityID: lessonID}
	query := `
		SELECT l.title, c.is_published
		FROM lessons l
		JOIN modules m ON m.id = l.module_id
		JOIN courses c ON c.id = m.course_id
		WHERE l.id = $1
	`
	if err := db.QueryRow(ctx, query, lessonID).Scan(&impact.EntityName, &impact.Facts.Published); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("computing impact of lesson %s: %w", lessonID, err)
	}
	// The lesson itself is the target, not a cascade.
	if err := addLessonScope(ctx, db, impact, false); err != nil {
		return nil, err
	}
	return impact, nil
}

func lessonFileImpact(ctx context.Context, db DBTX, fileID string) (*deletion.Impact, error) {
	impact := &deletion.Impact{EntityType: deletion.EntityLessonFile, EntityID: fileID, AffectedFiles: 1}
	query := `
		SELECT f.file_name, f.size_bytes, f.status = 'uploading', c.is_published
		FROM lesson_files f
		JOIN lessons l ON l.id = f.lesson_id
		JOIN modules m ON m.id = l.module_id
		JOIN courses c ON c.id = m.course_id
		WHERE f.id = $1
	`
	err := db.QueryRow(ctx, query, fileID).Scan(
		&impact.EntityName,
		&impact.StorageBytes,
		&impact.Facts.UploadInProgress,
		&impact.Facts.Published,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("computing impact of lesson file %s: %w", fileID, err)
	}
	return impact, nil
}

func organizationImpact(ctx context.Context, db DBTX, organizationID, actorID string) (*deletion.Impact, error) {
	impact := &deletion.Impact{EntityType: deletion.EntityOrganization, EntityID: organizationID}
	query := `
		SELECT o.name,
			(SELECT COUNT(*) FROM profiles p WHERE p.organization_id = o.id),
			(SELECT COUNT(*) FROM enrollments e WHERE e.organization_id = o.id),
			(SELECT COUNT(*) FROM enrollments e WHERE e.organization_id = o.id
				AND e.status = 'active' AND (e.expires_at IS NULL OR e.expires_at > now())),
			EXISTS (SELECT 1 FROM profiles p WHERE p.id = $2 AND p.organization_id = o.id)
		FROM organizations o
		WHERE o.id = $1
	`
	err := db.QueryRow(ctx, query, organizationID, actorID).Scan(
		&impact.EntityName,
		&impact.AffectedUsers,
		&impact.AffectedEnrollments,
		&impact.ActiveEnrollments,
		&impact.Facts.ActorIsMember,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("computing impact of organization %s: %w", organizationID, err)
	}
	return impact, nil
}

func enrollmentImpact(ctx context.Context, db DBTX, enrollmentID string) (*deletion.Impact, error) {
	impact := &deletion.Impact{EntityType: deletion.EntityEnrollment, EntityID: enrollmentID, AffectedOrganizations: 1}
	query := `
		SELECT o.slug || '/' || c.slug, c.is_published,
			e.status = 'active' AND (e.expires_at IS NULL OR e.expires_at > now()),
			(SELECT COUNT(*) FROM profiles p WHERE p.organization_id = e.organization_id)
		FROM enrollments e
		JOIN organizations o ON o.id = e.organization_id
		JOIN courses c ON c.id = e.course_id
		WHERE e.id = $1
	`
	var active bool
	var members int
	if err := db.QueryRow(ctx, query, enrollmentID).Scan(&impact.EntityName, &impact.Facts.Published, &active, &members); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("computing impact of enrollment %s: %w", enrollmentID, err)
	}
	// Revoking an expired enrollment takes nothing away from anyone.
	if active {
		impact.AffectedEnrollments = 1
		impact.ActiveEnrollments = 1
		impact.AffectedUsers = members
	}
	return impact, nil
}

func workflowImpact(ctx context.Context, db DBTX, workflowID string) (*deletion.Impact, error) {
	impact := &deletion.Impact{EntityType: deletion.EntityWorkflow, EntityID: workflowID}
	query := `
		SELECT w.title, w.is_published,
			(SELECT COUNT(*) FROM workflow_files f WHERE f.workflow_id = w.id),
			(SELECT COALESCE(SUM(f.size_bytes), 0)::bigint FROM workflow_files f WHERE f.workflow_id = w.id)
		FROM workflows w
		WHERE w.id = $1
	`
	err := db.QueryRow(ctx, query, workflowID).Scan(
		&impact.EntityName,
		&impact.Facts.Published,
		&impact.AffectedFiles,
		&impact.StorageBytes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("computing impact of workflow %s: %w", workflowID, err)
	}
	return impact, nil
}

func (r *deletionRepo) CourseImpact(ctx context.Context, courseID string) (*deletion.Impact, error) {
	return courseImpact(ctx, r.pool, courseID)
}

func (r *deletionRepo) ModuleImpact(ctx context.Context, moduleID string) (*deletion.Impact, error) {
	return moduleImpact(ctx, r.pool, moduleID)
}

func (r *deletionRepo) LessonImpact(ctx context.Context, lessonID string) (*deletion.Impact, error) {
	return lessonImpact(ctx, r.pool, lessonID)
}

func (r *deletionRepo) LessonFileImpact(ctx context.Context, fileID string) (*deletion.Impact, error) {
	return lessonFileImpact(ctx, r.pool, fileID)
}

func (r *deletionRepo) OrganizationImpact(ctx context.Context, organizationID, actorID string) (*deletion.Impact, error) {
	return organizationImpact(ctx, r.pool, organizationID, actorID)
}

func (r *deletionRepo) EnrollmentImpact(ctx context.Context, enrollmentID string) (*deletion.Impact, error) {
	return enrollmentImpact(ctx, r.pool, enrollmentID)
}

func (r *deletionRepo) WorkflowImpact(ctx context.Context, workflowID string) (*deletion.Impact, error) {
	return workflowImpact(ctx, r.pool, workflowID)
}

func impactOf(ctx context.Context, db DBTX, entityType deletion.EntityType, entityID, actorID string) (*deletion.Impact, error) {
	switch entityType {
	case deletion.EntityCourse:
		return courseImpact(ctx, db, entityID)
	case deletion.EntityModule:
		return moduleImpact(ctx, db, entityID)
	case deletion.EntityLesson:
		return lessonImpact(ctx, db, entityID)
	case deletion.EntityLessonFile:
		return lessonFileImpact(ctx, db, entityID)
	case deletion.EntityOrganization:
		return organizationImpact(ctx, db, entityID, actorID)
	case deletion.EntityEnrollment:
		return enrollmentImpact(ctx, db, entityID)
	case deletion.EntityWorkflow:
		return workflowImpact(ctx, db, entityID)
	}
	return nil, fmt.Errorf("unknown entity type %q", entityType)
}

func (r *deletionRepo) ExecuteDeletion(ctx context.Context, cmd DeletionCommand) ([]string, error) {
	table, ok := entityTables[cmd.EntityType]
	if !ok {
		return nil, fmt.Errorf("unknown entity type %q", cmd.EntityType)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("starting deletion of %s %s: %w", cmd.EntityType, cmd.EntityID, err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// Locking the row blocks concurrent inserts of children that reference it.
	var one int
	lockQuery := fmt.Sprintf(`SELECT 1 FROM %s WHERE id = $1 FOR UPDATE`, table)
	if err := tx.QueryRow(ctx, lockQuery, cmd.EntityID).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("deleting %s %s: %w", cmd.EntityType, cmd.EntityID, ErrNotFound)
		}
		return nil, fmt.Errorf("locking %s %s: %w", cmd.EntityType, cmd.EntityID, err)
	}

	impact, err := impactOf(ctx, tx, cmd.EntityType, cmd.EntityID, cmd.ActorID)
	if err != nil {
		return nil, err
	}
	if impact == nil {
		return nil, fmt.Errorf("deleting %s %s: %w", cmd.EntityType, cmd.EntityID, ErrNotFound)
	}
	audit, err := cmd.Authorize(*impact)
	if err != nil {
		return nil, err
	}

	keys, err := collectKeys(ctx, tx, cmd.EntityType, cmd.EntityID)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table), cmd.EntityID); err != nil {
		return nil, wrapErr(err, fmt.Sprintf("deleting %s %s", cmd.EntityType, cmd.EntityID))
	}

	if audit != nil {
		if err := insertAudit(ctx, tx, audit); err != nil {
			return nil, err
		}
	}

	if len(keys) > 0 {
		job := model.CleanupJob{
			Reason:     "deletion",
			EntityType: string(cmd.EntityType),
			EntityID:   cmd.EntityID,
			Keys:       keys,
		}
		payload, err := json.Marshal(job)
		if err != nil {
			return nil, fmt.Errorf("encoding cleanup job: %w", err)
		}
		if _, err := tx.Exec(ctx, `SELECT pgmq.send($1, $2::jsonb, 0)`, cmd.CleanupQueue, string(payload)); err != nil {
			return nil, fmt.Errorf("enqueueing cleanup of %d objects: %w", len(keys), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing deletion of %s %s: %w", cmd.EntityType, cmd.EntityID, err)
	}
	return keys, nil
}

func collectKeys(ctx context.Context, db DBTX, entityType deletion.EntityType, entityID string) ([]string, error) {
	query, ok := storageKeyQueries[entityType]
	if !ok {
		return nil, nil
	}
	rows, err := db.Query(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("collecting storage keys of %s %s: %w", entityType, entityID, err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning storage keys of %s %s: %w", entityType, entityID, err)
	}
	return keys, nil
}
