package service

import (
	"context"
	"testing"

	"coursehub/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetCompletionRequiresEnrollment(t *testing.T) {
	f := newCourseFixture()
	c, _, l := f.seed(t)
	svc := NewProgressService(f.progress, f.svc)
	ctx := context.Background()

	_, err := svc.SetCompletion(ctx, memberProfile, l.ID, true)
	assert.ErrorIs(t, err, ErrForbidden)

	f.courses.enrolled["org-acme/"+c.ID] = true
	p, err := svc.SetCompletion(ctx, memberProfile, l.ID, true)
	require.NoError(t, err)
	assert.NotNil(t, p.CompletedAt)

	p, err = svc.SetCompletion(ctx, memberProfile, l.ID, false)
	require.NoError(t, err)
	assert.Nil(t, p.CompletedAt)
}

func TestGetCourseProgress(t *testing.T) {
	f := newCourseFixture()
	c, _, l := f.seed(t)
	svc := NewProgressService(f.progress, f.svc)
	ctx := context.Background()

	got, err := svc.GetCourseProgress(ctx, adminProfile, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, got.Percent())

	_, err = svc.GetCourseProgress(ctx, adminProfile, "course-404")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.RecordAccess(ctx, adminProfile, l.ID))
	assert.Equal(t, 1, f.progress.touched[adminProfile.ID+"/"+l.ID])
}

func TestPercentWithoutLessons(t *testing.T) {
	assert.Zero(t, model.CourseProgress{}.Percent())
}
