package service

import (
	"context"
	"testing"

	"coursehub/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWorkflowFixture(t *testing.T) (WorkflowService, *fakeWorkflowRepo, *fakeFileRepo) {
	t.Helper()
	repo := newFakeWorkflowRepo()
	files := newFakeFileRepo()
	svc := NewWorkflowService(repo, NewFileService(files, newFakeStore(), "workflows", zerolog.Nop()), zerolog.Nop())

	ctx := context.Background()
	_, err := svc.CreateCategory(ctx, adminProfile, CategoryInput{Name: "People Ops"})
	require.NoError(t, err)
	d, err := svc.CreateDepartment(ctx, adminProfile, DepartmentInput{CategorySlug: "people-ops", Name: "Hiring"})
	require.NoError(t, err)
	_, err = svc.CreateWorkflow(ctx, adminProfile, WorkflowInput{
		DepartmentID: d.ID,
		Title:        "Structured Interviews",
		Content:      "## Steps\n\n1. Define the scorecard",
		BookTitle:    "Work Rules!",
		Tags:         []string{" Hiring", "hiring", "", "Interviews"},
		IsPublished:  true,
	})
	require.NoError(t, err)
	_, err = svc.CreateWorkflow(ctx, adminProfile, WorkflowInput{DepartmentID: d.ID, Title: "Draft Offer Process"})
	require.NoError(t, err)
	return svc, repo, files
}

func TestCreateWorkflowNormalizesTags(t *testing.T) {
	_, repo, _ := newWorkflowFixture(t)
	w := repo.workflows["wf-structured-interviews"]
	require.NotNil(t, w)
	assert.Equal(t, []string{"hiring", "interviews"}, w.Tags)
}

func TestCreateWorkflowNeedsDepartment(t *testing.T) {
	svc, _, _ := newWorkflowFixture(t)
	_, err := svc.CreateWorkflow(context.Background(), adminProfile, WorkflowInput{DepartmentID: "dept-404", Title: "Orphan"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateDepartment(context.Background(), adminProfile, DepartmentInput{CategorySlug: "nope", Name: "X"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearchHidesDraftsFromMembers(t *testing.T) {
	svc, repo, _ := newWorkflowFixture(t)
	ctx := context.Background()

	results, total, err := svc.Search(ctx, memberProfile, model.WorkflowFilter{Query: "  interview ", IncludeDrafts: true})
	require.NoError(t, err)
	assert.False(t, repo.lastFilter.IncludeDrafts)
	assert.Equal(t, "interview", repo.lastFilter.Query)
	assert.Equal(t, 1, total)
	assert.Len(t, results, 1)

	_, total, err = svc.Search(ctx, adminProfile, model.WorkflowFilter{IncludeDrafts: true})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestGetWorkflow(t *testing.T) {
	svc, _, files := newWorkflowFixture(t)
	ctx := context.Background()
	files.files["f1"] = &model.StoredFile{ID: "f1", OwnerID: "wf-structured-interviews", FileName: "scorecard.pdf", Status: model.FileStatusReady}
	files.files["f2"] = &model.StoredFile{ID: "f2", OwnerID: "wf-structured-interviews", FileName: "wip.pdf", Status: model.FileStatusUploading}

	view, err := svc.GetWorkflow(ctx, memberProfile, "structured-interviews")
	require.NoError(t, err)
	assert.Contains(t, view.ContentHTML, "<h2>Steps</h2>")
	assert.Len(t, view.Files, 1)

	_, err = svc.GetWorkflow(ctx, memberProfile, "draft-offer-process")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GetWorkflow(ctx, adminProfile, "draft-offer-process")
	assert.NoError(t, err)
}

func TestUpdateWorkflowPublishes(t *testing.T) {
	svc, _, _ := newWorkflowFixture(t)
	ctx := context.Background()

	w, err := svc.UpdateWorkflow(ctx, adminProfile, "wf-draft-offer-process", WorkflowPatch{IsPublished: boolPtr(true), Tags: &[]string{"Offers"}})
	require.NoError(t, err)
	assert.True(t, w.IsPublished)
	assert.Equal(t, []string{"offers"}, w.Tags)

	_, err = svc.UpdateWorkflow(ctx, adminProfile, "wf-draft-offer-process", WorkflowPatch{Slug: strPtr("Bad Slug")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.UpdateWorkflow(ctx, memberProfile, "wf-draft-offer-process", WorkflowPatch{})
	assert.ErrorIs(t, err, ErrForbidden)
}
