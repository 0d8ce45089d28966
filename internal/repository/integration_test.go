package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"coursehub/internal/deletion"
	"coursehub/internal/model"
	"coursehub/internal/testdb"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T) (*pgxpool.Pool, testdb.DB) {
	t.Helper()
	db := testdb.New(t)
	pool, err := pgxpool.New(context.Background(), db.DSN)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool, db
}

// insertID runs an INSERT ... RETURNING id.
func insertID(t *testing.T, pool *pgxpool.Pool, sql string, args ...any) string {
	t.Helper()
	var id string
	require.NoError(t, pool.QueryRow(context.Background(), sql, args...).Scan(&id))
	return id
}

func exec(t *testing.T, pool *pgxpool.Pool, sql string, args ...any) {
	t.Helper()
	_, err := pool.Exec(context.Background(), sql, args...)
	require.NoError(t, err)
}

type courseFixture struct {
	courseID  string
	moduleIDs []string
	lessonIDs []string
}

// seedCourse creates a published course with two modules. The first holds
// two lessons and a 100 byte file, the second is empty.
func seedCourse(t *testing.T, pool *pgxpool.Pool, slug string) courseFixture {
	t.Helper()
	f := courseFixture{}
	f.courseID = insertID(t, pool,
		`INSERT INTO courses (slug, title, is_published, created_by) VALUES ($1, $1, true, $2) RETURNING id`,
		slug, uuid.NewString())
	for i := 1; i <= 2; i++ {
		f.moduleIDs = append(f.moduleIDs, insertID(t, pool,
			`INSERT INTO modules (course_id, title, position) VALUES ($1, 'Module', $2) RETURNING id`, f.courseID, i))
	}
	for i := 1; i <= 2; i++ {
		f.lessonIDs = append(f.lessonIDs, insertID(t, pool,
			`INSERT INTO lessons (module_id, title, lesson_type, position) VALUES ($1, 'Lesson', 'content', $2) RETURNING id`,
			f.moduleIDs[0], i))
	}
	exec(t, pool,
		`INSERT INTO lesson_files (id, lesson_id, file_name, storage_path, size_bytes, status) VALUES ($1, $2, 'notes.pdf', $3, 100, 'ready')`,
		uuid.NewString(), f.lessonIDs[0], "lessons/"+slug+"/notes.pdf")
	return f
}

func seedOrganization(t *testing.T, pool *pgxpool.Pool, slug string, members int) (string, []string) {
	t.Helper()
	orgID := insertID(t, pool, `INSERT INTO organizations (name, slug) VALUES ($1, $1) RETURNING id`, slug)
	var profileIDs []string
	for i := 0; i < members; i++ {
		profileIDs = append(profileIDs, insertID(t, pool,
			`INSERT INTO profiles (id, email, organization_id) VALUES ($1, $1 || '@example.com', $2) RETURNING id`,
			uuid.NewString(), orgID))
	}
	return orgID, profileIDs
}

func TestCourseImpactWithDatabase(t *testing.T) {
	pool, _ := newTestPool(t)
	ctx := context.Background()
	repo := NewDeletionRepo(pool)

	course := seedCourse(t, pool, "go-basics")
	activeOrg, activeMembers := seedOrganization(t, pool, "acme", 2)
	expiredOrg, _ := seedOrganization(t, pool, "globex", 1)
	outsider := insertID(t, pool, `INSERT INTO profiles (id, email) VALUES ($1, 'solo@example.com') RETURNING id`, uuid.NewString())

	exec(t, pool, `INSERT INTO enrollments (organization_id, course_id, enrolled_by) VALUES ($1, $2, $3)`,
		activeOrg, course.courseID, uuid.NewString())
	exec(t, pool, `INSERT INTO enrollments (organization_id, course_id, status, enrolled_by) VALUES ($1, $2, 'expired', $3)`,
		expiredOrg, course.courseID, uuid.NewString())
	exec(t, pool, `INSERT INTO lesson_progress (user_id, lesson_id, completed_at) VALUES ($1, $2, now())`,
		activeMembers[0], course.lessonIDs[0])
	exec(t, pool, `INSERT INTO lesson_progress (user_id, lesson_id) VALUES ($1, $2)`, outsider, course.lessonIDs[1])

	impact, err := repo.CourseImpact(ctx, course.courseID)
	require.NoError(t, err)
	require.NotNil(t, impact)

	assert.Equal(t, "go-basics", impact.EntityName)
	assert.True(t, impact.Facts.Published)
	assert.Equal(t, 2, impact.AffectedModules)
	assert.Equal(t, 2, impact.AffectedLessons)
	assert.Equal(t, 1, impact.AffectedFiles)
	assert.Equal(t, int64(100), impact.StorageBytes)
	assert.Equal(t, 2, impact.AffectedProgressRecords)
	assert.Equal(t, 2, impact.AffectedEnrollments)
	assert.Equal(t, 1, impact.ActiveEnrollments)
	assert.Equal(t, 2, impact.AffectedOrganizations)
	// Both active members plus the outsider with progress; the member with
	// progress is counted once.
	assert.Equal(t, 3, impact.AffectedUsers)

	missing, err := repo.CourseImpact(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestModuleImpactLastModuleOfPublishedCourse(t *testing.T) {
	pool, _ := newTestPool(t)
	ctx := context.Background()
	repo := NewDeletionRepo(pool)
	course := seedCourse(t, pool, "rust-intro")

	impact, err := repo.ModuleImpact(ctx, course.moduleIDs[0])
	require.NoError(t, err)
	assert.False(t, impact.Facts.LastModuleOfPublishedCourse)
	assert.Equal(t, 2, impact.AffectedLessons)

	exec(t, pool, `DELETE FROM modules WHERE id = $1`, course.moduleIDs[1])
	impact, err = repo.ModuleImpact(ctx, course.moduleIDs[0])
	require.NoError(t, err)
	assert.True(t, impact.Facts.LastModuleOfPublishedCourse)

	exec(t, pool, `UPDATE courses SET is_published = false WHERE id = $1`, course.courseID)
	impact, err = repo.ModuleImpact(ctx, course.moduleIDs[0])
	require.NoError(t, err)
	assert.False(t, impact.Facts.LastModuleOfPublishedCourse)
}

func TestEnrollReactivatesExpiredEnrollment(t *testing.T) {
	pool, _ := newTestPool(t)
	ctx := context.Background()
	repo := NewEnrollmentRepo(pool)
	course := seedCourse(t, pool, "sql-deep-dive")
	orgID, _ := seedOrganization(t, pool, "initech", 0)

	first := &model.Enrollment{OrganizationID: orgID, CourseID: course.courseID, EnrolledBy: uuid.NewString()}
	require.NoError(t, repo.Enroll(ctx, first))
	assert.Equal(t, model.EnrollmentStatusActive, first.Status)
	assert.Equal(t, "initech", first.OrganizationName)

	again := &model.Enrollment{OrganizationID: orgID, CourseID: course.courseID, EnrolledBy: uuid.NewString()}
	err := repo.Enroll(ctx, again)
	assert.True(t, errors.Is(err, ErrDuplicate), "got %v", err)

	exec(t, pool, `UPDATE enrollments SET status = 'expired' WHERE id = $1`, first.ID)
	renewedBy := uuid.NewString()
	renewed := &model.Enrollment{OrganizationID: orgID, CourseID: course.courseID, EnrolledBy: renewedBy}
	require.NoError(t, repo.Enroll(ctx, renewed))
	assert.Equal(t, first.ID, renewed.ID)
	assert.Equal(t, model.EnrollmentStatusActive, renewed.Status)
	assert.Equal(t, renewedBy, renewed.EnrolledBy)

	exec(t, pool, `UPDATE enrollments SET expires_at = now() - interval '1 day' WHERE id = $1`, first.ID)
	lapsed := &model.Enrollment{OrganizationID: orgID, CourseID: course.courseID, EnrolledBy: renewedBy}
	require.NoError(t, repo.Enroll(ctx, lapsed))
	assert.Equal(t, first.ID, lapsed.ID)
	assert.Nil(t, lapsed.ExpiresAt)
}

func TestSearchWorkflowsTotalPastLastPage(t *testing.T) {
	pool, _ := newTestPool(t)
	ctx := context.Background()
	repo := NewWorkflowRepo(pool)

	categoryID := insertID(t, pool, `INSERT INTO workflow_categories (slug, name) VALUES ('people', 'People') RETURNING id`)
	departmentID := insertID(t, pool,
		`INSERT INTO workflow_departments (category_id, slug, name) VALUES ($1, 'hr', 'HR') RETURNING id`, categoryID)
	for _, slug := range []string{"onboarding-day-one", "onboarding-week-one", "onboarding-buddy"} {
		exec(t, pool,
			`INSERT INTO workflows (department_id, slug, title, summary, is_published) VALUES ($1, $2, $2, 'Onboarding checklist', true)`,
			departmentID, slug)
	}
	exec(t, pool,
		`INSERT INTO workflows (department_id, slug, title, summary) VALUES ($1, 'onboarding-draft', 'onboarding draft', 'Onboarding')`,
		departmentID)

	tests := []struct {
		name   string
		filter model.WorkflowFilter
		rows   int
		total  int
	}{
		{"search first page", model.WorkflowFilter{Query: "onboarding", Limit: 2}, 2, 3},
		{"search past last page", model.WorkflowFilter{Query: "onboarding", Limit: 2, Offset: 10}, 0, 3},
		{"browse past last page", model.WorkflowFilter{CategorySlug: "people", Limit: 5, Offset: 50}, 0, 3},
		{"drafts included", model.WorkflowFilter{Query: "onboarding", IncludeDrafts: true, Limit: 10}, 4, 4},
		{"no match", model.WorkflowFilter{Query: "payroll", Limit: 10, Offset: 10}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			workflows, total, err := repo.SearchWorkflows(ctx, tt.filter)
			require.NoError(t, err)
			assert.Len(t, workflows, tt.rows)
			assert.Equal(t, tt.total, total)
		})
	}
}

var errStillEnrolled = errors.New("course still has active enrollments")

func TestExecuteDeletionAuthorizesLockedImpact(t *testing.T) {
	pool, db := newTestPool(t)
	ctx := context.Background()
	repo := NewDeletionRepo(pool)
	actorID := uuid.NewString()

	authorize := func(impact deletion.Impact) (*model.DeletionAudit, error) {
		if impact.ActiveEnrollments > 0 {
			return nil, errStillEnrolled
		}
		body, err := json.Marshal(impact)
		if err != nil {
			return nil, err
		}
		return &model.DeletionAudit{
			ActorID:    actorID,
			EntityType: string(impact.EntityType),
			EntityID:   impact.EntityID,
			EntityName: impact.EntityName,
			Severity:   "high",
			Outcome:    "executed",
			Impact:     body,
		}, nil
	}

	t.Run("enrollment added after assessment blocks", func(t *testing.T) {
		course := seedCourse(t, pool, "late-enrollment")
		assessed, err := repo.CourseImpact(ctx, course.courseID)
		require.NoError(t, err)
		require.Zero(t, assessed.ActiveEnrollments)

		orgID, _ := seedOrganization(t, pool, "late-org", 1)
		exec(t, pool, `INSERT INTO enrollments (organization_id, course_id, enrolled_by) VALUES ($1, $2, $3)`,
			orgID, course.courseID, actorID)

		_, err = repo.ExecuteDeletion(ctx, DeletionCommand{
			EntityType:   deletion.EntityCourse,
			EntityID:     course.courseID,
			ActorID:      actorID,
			CleanupQueue: db.Queue,
			Authorize:    authorize,
		})
		assert.True(t, errors.Is(err, errStillEnrolled), "got %v", err)

		var exists bool
		require.NoError(t, pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM courses WHERE id = $1)`, course.courseID).Scan(&exists))
		assert.True(t, exists)
	})

	t.Run("authorized deletion commits audit and cleanup job", func(t *testing.T) {
		course := seedCourse(t, pool, "retired-course")

		keys, err := repo.ExecuteDeletion(ctx, DeletionCommand{
			EntityType:   deletion.EntityCourse,
			EntityID:     course.courseID,
			ActorID:      actorID,
			CleanupQueue: db.Queue,
			Authorize:    authorize,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"lessons/retired-course/notes.pdf"}, keys)

		var lessons int
		require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM lessons WHERE id::text = ANY($1)`, course.lessonIDs).Scan(&lessons))
		assert.Zero(t, lessons)

		var outcome string
		require.NoError(t, pool.QueryRow(ctx,
			`SELECT outcome FROM deletion_audit_log WHERE entity_id = $1`, course.courseID).Scan(&outcome))
		assert.Equal(t, "executed", outcome)

		var payload []byte
		require.NoError(t, pool.QueryRow(ctx,
			`SELECT message::text FROM pgmq.read($1, 30, 1)`, db.Queue).Scan(&payload))
		var job model.CleanupJob
		require.NoError(t, json.Unmarshal(payload, &job))
		assert.Equal(t, "deletion", job.Reason)
		assert.Equal(t, course.courseID, job.EntityID)
		assert.Equal(t, keys, job.Keys)
	})

	t.Run("missing entity", func(t *testing.T) {
		_, err := repo.ExecuteDeletion(ctx, DeletionCommand{
			EntityType: deletion.EntityCourse,
			EntityID:   uuid.NewString(),
			Authorize:  authorize,
		})
		assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
	})
}
