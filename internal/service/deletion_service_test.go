package service

import (
	"context"
	"encoding/json"
	"testing"

	"coursehub/internal/deletion"
	"coursehub/internal/model"
	"coursehub/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type deletionFixture struct {
	svc       DeletionService
	repo      *fakeDeletionRepo
	audit     *fakeAuditRepo
	publisher *fakePublisher
}

func newDeletionFixture(impacts ...deletion.Impact) *deletionFixture {
	f := &deletionFixture{
		repo:      &fakeDeletionRepo{impacts: map[deletion.EntityType]*deletion.Impact{}},
		audit:     &fakeAuditRepo{},
		publisher: &fakePublisher{},
	}
	for i := range impacts {
		f.repo.impacts[impacts[i].EntityType] = &impacts[i]
	}
	f.svc = NewDeletionService(f.repo, f.audit, deletion.DefaultPolicy(), f.publisher, "deletion-audit", "storage_cleanup", zerolog.Nop())
	return f
}

func TestValidateRecordsAssessment(t *testing.T) {
	f := newDeletionFixture(deletion.Impact{
		EntityType:      deletion.EntityLesson,
		EntityID:        "lesson-1",
		EntityName:      "Hello",
		AffectedFiles:   2,
		AffectedLessons: 1,
	})

	a, err := f.svc.Validate(context.Background(), adminProfile, deletion.EntityLesson, "lesson-1")
	require.NoError(t, err)
	assert.Equal(t, deletion.SeverityMedium, a.Severity)
	assert.True(t, a.RequiresConfirmation)
	assert.Empty(t, a.ConfirmationPhrase)
	assert.Equal(t, []string{model.AuditOutcomeAssessed}, f.audit.outcomes())

	var stored deletion.Impact
	require.NoError(t, json.Unmarshal(f.audit.rows[0].Impact, &stored))
	assert.Equal(t, 2, stored.AffectedFiles)
}

func TestValidateErrors(t *testing.T) {
	f := newDeletionFixture()
	ctx := context.Background()

	_, err := f.svc.Validate(ctx, memberProfile, deletion.EntityCourse, "course-1")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Validate(ctx, adminProfile, deletion.EntityCourse, "course-1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Validate(ctx, adminProfile, deletion.EntityType("profile"), "x")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, f.audit.rows)
}

func TestDeleteBlocked(t *testing.T) {
	f := newDeletionFixture(deletion.Impact{
		EntityType:          deletion.EntityCourse,
		EntityID:            "course-1",
		EntityName:          "go-basics",
		AffectedEnrollments: 1,
		ActiveEnrollments:   1,
	})

	_, err := f.svc.Delete(context.Background(), adminProfile, deletion.EntityCourse, "course-1",
		deletion.Confirmation{Confirmed: true, Phrase: "go-basics"})
	assert.ErrorIs(t, err, deletion.ErrBlocked)
	assert.Equal(t, []string{model.AuditOutcomeBlocked}, f.audit.outcomes())
	assert.Empty(t, f.repo.executed)
	assert.Empty(t, f.publisher.messages)
}

func TestDeleteConfirmationRules(t *testing.T) {
	high := deletion.Impact{
		EntityType:              deletion.EntityModule,
		EntityID:                "module-1",
		EntityName:              "Intro",
		AffectedLessons:         3,
		AffectedProgressRecords: 7,
	}

	tests := []struct {
		name string
		conf deletion.Confirmation
		want error
	}{
		{"no confirmation", deletion.Confirmation{}, deletion.ErrConfirmationRequired},
		{"wrong phrase", deletion.Confirmation{Confirmed: true, Phrase: "intro"}, deletion.ErrConfirmationMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDeletionFixture(high)
			_, err := f.svc.Delete(context.Background(), adminProfile, deletion.EntityModule, "module-1", tt.conf)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, []string{model.AuditOutcomeRejected}, f.audit.outcomes())
			assert.Empty(t, f.repo.executed)
		})
	}
}

func TestDeleteCriticalNeedsAcknowledgement(t *testing.T) {
	f := newDeletionFixture(deletion.Impact{
		EntityType:    deletion.EntityOrganization,
		EntityID:      "org-big",
		EntityName:    "big-corp",
		AffectedUsers: 120,
	})
	ctx := context.Background()

	_, err := f.svc.Delete(ctx, adminProfile, deletion.EntityOrganization, "org-big",
		deletion.Confirmation{Confirmed: true, Phrase: "big-corp"})
	assert.ErrorIs(t, err, deletion.ErrCriticalNotAcknowledged)

	res, err := f.svc.Delete(ctx, adminProfile, deletion.EntityOrganization, "org-big",
		deletion.Confirmation{Confirmed: true, Phrase: " big-corp ", AcknowledgeCritical: true})
	require.NoError(t, err)
	assert.Equal(t, deletion.SeverityCritical, res.Assessment.Severity)
}

func TestDeleteExecutesAndPublishes(t *testing.T) {
	f := newDeletionFixture(deletion.Impact{
		EntityType:    deletion.EntityWorkflow,
		EntityID:      "wf-1",
		EntityName:    "Hiring Loop",
		AffectedFiles: 2,
	})
	f.repo.keys = []string{"workflows/wf-1/a/x.pdf", "workflows/wf-1/b/y.pdf"}

	res, err := f.svc.Delete(context.Background(), adminProfile, deletion.EntityWorkflow, "wf-1",
		deletion.Confirmation{Confirmed: true})
	require.NoError(t, err)
	assert.Equal(t, 2, res.StorageObjects)
	assert.Equal(t, "audit-1", res.AuditID)

	require.Len(t, f.repo.executed, 1)
	cmd := f.repo.executed[0]
	assert.Equal(t, "storage_cleanup", cmd.CleanupQueue)
	assert.Equal(t, model.AuditOutcomeExecuted, cmd.Audit.Outcome)
	assert.Equal(t, string(deletion.SeverityMedium), cmd.Audit.Severity)
	assert.Empty(t, f.audit.rows, "executed audit is written inside the deletion transaction")

	require.Len(t, f.publisher.messages, 1)
	msg := f.publisher.messages[0]
	assert.Equal(t, "deletion-audit", msg.topic)
	assert.Equal(t, "workflow", msg.attributes["entity_type"])
	var ev AuditEvent
	require.NoError(t, json.Unmarshal(msg.payload, &ev))
	assert.Equal(t, "wf-1", ev.EntityID)
	assert.Equal(t, 2, ev.StorageObjects)
}

func TestDeleteRechecksImpactUnderLock(t *testing.T) {
	course := deletion.Impact{
		EntityType: deletion.EntityCourse,
		EntityID:   "course-1",
		EntityName: "go-basics",
	}

	t.Run("enrollment added meanwhile blocks", func(t *testing.T) {
		f := newDeletionFixture(course)
		enrolled := course
		enrolled.AffectedEnrollments = 1
		enrolled.ActiveEnrollments = 1
		f.repo.locked = &enrolled

		_, err := f.svc.Delete(context.Background(), adminProfile, deletion.EntityCourse, "course-1",
			deletion.Confirmation{Confirmed: true, Phrase: "go-basics"})
		assert.ErrorIs(t, err, deletion.ErrBlocked)
		assert.Empty(t, f.repo.executed)
		assert.Empty(t, f.publisher.messages)
		assert.Equal(t, []string{model.AuditOutcomeBlocked}, f.audit.outcomes())

		var stored deletion.Impact
		require.NoError(t, json.Unmarshal(f.audit.rows[0].Impact, &stored))
		assert.Equal(t, 1, stored.ActiveEnrollments)
	})

	t.Run("severity raised meanwhile needs the stronger confirmation", func(t *testing.T) {
		f := newDeletionFixture(course)
		grown := course
		grown.AffectedProgressRecords = 4
		f.repo.locked = &grown

		_, err := f.svc.Delete(context.Background(), adminProfile, deletion.EntityCourse, "course-1",
			deletion.Confirmation{Confirmed: true})
		assert.ErrorIs(t, err, deletion.ErrConfirmationMismatch)
		assert.Empty(t, f.repo.executed)
		assert.Equal(t, []string{model.AuditOutcomeRejected}, f.audit.outcomes())
	})

	t.Run("executed audit stores the locked impact", func(t *testing.T) {
		f := newDeletionFixture(course)
		withFile := course
		withFile.AffectedFiles = 1
		f.repo.locked = &withFile

		res, err := f.svc.Delete(context.Background(), adminProfile, deletion.EntityCourse, "course-1",
			deletion.Confirmation{Confirmed: true})
		require.NoError(t, err)
		assert.Equal(t, deletion.SeverityMedium, res.Assessment.Severity)

		require.Len(t, f.repo.executed, 1)
		var stored deletion.Impact
		require.NoError(t, json.Unmarshal(f.repo.executed[0].Audit.Impact, &stored))
		assert.Equal(t, 1, stored.AffectedFiles)
	})
}

func TestDeleteLowSeverityNeedsNoConfirmation(t *testing.T) {
	f := newDeletionFixture(deletion.Impact{
		EntityType: deletion.EntityEnrollment,
		EntityID:   "enr-1",
		EntityName: "acme/go-basics",
	})
	_, err := f.svc.Delete(context.Background(), adminProfile, deletion.EntityEnrollment, "enr-1", deletion.Confirmation{})
	require.NoError(t, err)
	assert.Len(t, f.repo.executed, 1)
}

func TestDeletePublishFailureIsNotFatal(t *testing.T) {
	f := newDeletionFixture(deletion.Impact{EntityType: deletion.EntityLessonFile, EntityID: "file-1", EntityName: "a.pdf"})
	f.publisher.err = errBoom

	_, err := f.svc.Delete(context.Background(), adminProfile, deletion.EntityLessonFile, "file-1", deletion.Confirmation{})
	assert.NoError(t, err)
}

func TestDeleteExecutionFailures(t *testing.T) {
	impact := deletion.Impact{EntityType: deletion.EntityLessonFile, EntityID: "file-1", EntityName: "a.pdf"}

	t.Run("vanished concurrently", func(t *testing.T) {
		f := newDeletionFixture(impact)
		f.repo.execErr = repository.ErrNotFound
		_, err := f.svc.Delete(context.Background(), adminProfile, deletion.EntityLessonFile, "file-1", deletion.Confirmation{})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("database error", func(t *testing.T) {
		f := newDeletionFixture(impact)
		f.repo.execErr = errBoom
		_, err := f.svc.Delete(context.Background(), adminProfile, deletion.EntityLessonFile, "file-1", deletion.Confirmation{})
		assert.ErrorIs(t, err, errBoom)
		assert.Equal(t, []string{model.AuditOutcomeFailed}, f.audit.outcomes())
		assert.Empty(t, f.publisher.messages)
	})
}

func TestListAuditValidatesEntityType(t *testing.T) {
	f := newDeletionFixture()
	_, _, err := f.svc.ListAudit(context.Background(), adminProfile, "users", 10, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	rows, total, err := f.svc.ListAudit(context.Background(), adminProfile, "course", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Zero(t, total)
}
