package service

import (
	"context"
	"testing"

	"coursehub/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type courseFixture struct {
	svc      CourseService
	courses  *fakeCourseRepo
	modules  *fakeModuleRepo
	lessons  *fakeLessonRepo
	files    *fakeFileRepo
	store    *fakeStore
	progress *fakeProgressRepo
}

func newCourseFixture() *courseFixture {
	f := &courseFixture{
		courses:  newFakeCourseRepo(),
		modules:  newFakeModuleRepo(),
		files:    newFakeFileRepo(),
		store:    newFakeStore(),
		progress: newFakeProgressRepo(),
	}
	f.lessons = newFakeLessonRepo(f.modules)
	files := NewFileService(f.files, f.store, "lessons", zerolog.Nop())
	f.svc = NewCourseService(f.courses, f.modules, f.lessons, f.progress, files, zerolog.Nop())
	return f
}

// seed creates a published course with one module and one markdown lesson.
func (f *courseFixture) seed(t *testing.T) (*model.Course, *model.Module, *model.Lesson) {
	t.Helper()
	ctx := context.Background()
	c, err := f.svc.CreateCourse(ctx, adminProfile, CourseInput{Title: "Go Basics", IsPublished: true})
	require.NoError(t, err)
	m, err := f.svc.CreateModule(ctx, adminProfile, c.ID, ModuleInput{Title: "Intro"})
	require.NoError(t, err)
	l, err := f.svc.CreateLesson(ctx, adminProfile, m.ID, LessonInput{
		Title:         "Hello",
		LessonType:    model.LessonTypeContent,
		Content:       "# Hi\n\n<script>alert(1)</script>",
		ContentFormat: model.ContentFormatMarkdown,
	})
	require.NoError(t, err)
	return c, m, l
}

func TestCreateCourseDerivesSlug(t *testing.T) {
	f := newCourseFixture()
	c, err := f.svc.CreateCourse(context.Background(), adminProfile, CourseInput{Title: "Crème Brûlée 101"})
	require.NoError(t, err)
	assert.Equal(t, "creme-brulee-101", c.Slug)
	assert.Equal(t, adminProfile.ID, c.CreatedBy)
}

func TestCreateCourseRejectsDuplicateSlug(t *testing.T) {
	f := newCourseFixture()
	ctx := context.Background()
	_, err := f.svc.CreateCourse(ctx, adminProfile, CourseInput{Title: "Go"})
	require.NoError(t, err)
	_, err = f.svc.CreateCourse(ctx, adminProfile, CourseInput{Title: "Another", Slug: "go"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCreateCourseValidation(t *testing.T) {
	f := newCourseFixture()
	ctx := context.Background()

	_, err := f.svc.CreateCourse(ctx, adminProfile, CourseInput{Title: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.CreateCourse(ctx, adminProfile, CourseInput{Title: "Go", Slug: "Not A Slug"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.CreateCourse(ctx, adminProfile, CourseInput{Title: "!!!"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCourseMutationsRequireAdmin(t *testing.T) {
	f := newCourseFixture()
	_, err := f.svc.CreateCourse(context.Background(), memberProfile, CourseInput{Title: "Go"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.CreateCourse(context.Background(), nil, CourseInput{Title: "Go"})
	assert.ErrorIs(t, err, ErrProfileMissing)
}

func TestUpdateCoursePatchesOnlyGivenFields(t *testing.T) {
	f := newCourseFixture()
	c, _, _ := f.seed(t)

	updated, err := f.svc.UpdateCourse(context.Background(), adminProfile, c.ID, CoursePatch{IsPublished: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, updated.IsPublished)
	assert.Equal(t, "Go Basics", updated.Title)
	assert.Equal(t, "go-basics", updated.Slug)

	_, err = f.svc.UpdateCourse(context.Background(), adminProfile, "missing", CoursePatch{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAuthorizeCourse(t *testing.T) {
	f := newCourseFixture()
	ctx := context.Background()
	c, _, _ := f.seed(t)
	draft, err := f.svc.CreateCourse(ctx, adminProfile, CourseInput{Title: "Draft"})
	require.NoError(t, err)

	_, err = f.svc.AuthorizeCourse(ctx, memberProfile, c.ID)
	assert.ErrorIs(t, err, ErrForbidden, "not enrolled yet")

	f.courses.enrolled["org-acme/"+c.ID] = true
	f.courses.enrolled["org-acme/"+draft.ID] = true

	got, err := f.svc.AuthorizeCourse(ctx, memberProfile, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	_, err = f.svc.AuthorizeCourse(ctx, memberProfile, draft.ID)
	assert.ErrorIs(t, err, ErrNotFound, "drafts stay hidden from members")

	_, err = f.svc.AuthorizeCourse(ctx, loneMember, c.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.AuthorizeCourse(ctx, adminProfile, draft.ID)
	assert.NoError(t, err)
}

func TestGetCourseOutlineGroupsLessons(t *testing.T) {
	f := newCourseFixture()
	ctx := context.Background()
	c, m1, _ := f.seed(t)
	m2, err := f.svc.CreateModule(ctx, adminProfile, c.ID, ModuleInput{Title: "Empty"})
	require.NoError(t, err)

	outline, err := f.svc.GetCourseOutline(ctx, adminProfile, c.ID)
	require.NoError(t, err)
	require.Len(t, outline.Modules, 2)
	assert.Equal(t, m1.ID, outline.Modules[0].ID)
	assert.Len(t, outline.Modules[0].Lessons, 1)
	assert.Equal(t, m2.ID, outline.Modules[1].ID)
	assert.NotNil(t, outline.Modules[1].Lessons)
	assert.Empty(t, outline.Modules[1].Lessons)
}

func TestReorderModulesRequiresExactSet(t *testing.T) {
	f := newCourseFixture()
	ctx := context.Background()
	c, m1, _ := f.seed(t)
	m2, err := f.svc.CreateModule(ctx, adminProfile, c.ID, ModuleInput{Title: "Second"})
	require.NoError(t, err)

	tests := []struct {
		name string
		ids  []string
	}{
		{"missing one", []string{m2.ID}},
		{"repeated", []string{m2.ID, m2.ID}},
		{"foreign id", []string{m2.ID, "module-999"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.ReorderModules(ctx, adminProfile, c.ID, tt.ids)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	modules, err := f.svc.ReorderModules(ctx, adminProfile, c.ID, []string{m2.ID, m1.ID})
	require.NoError(t, err)
	require.Len(t, modules, 2)
	assert.Equal(t, m2.ID, modules[0].ID)
	assert.Equal(t, 1, modules[0].Position)
}

func TestCreateLessonValidation(t *testing.T) {
	f := newCourseFixture()
	_, m, _ := f.seed(t)
	ctx := context.Background()

	_, err := f.svc.CreateLesson(ctx, adminProfile, m.ID, LessonInput{Title: "Clip", LessonType: model.LessonTypeVideo})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.CreateLesson(ctx, adminProfile, m.ID, LessonInput{Title: "Quiz", LessonType: "quiz"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	l, err := f.svc.CreateLesson(ctx, adminProfile, m.ID, LessonInput{Title: "Reading", LessonType: model.LessonTypeContent})
	require.NoError(t, err)
	assert.Equal(t, model.ContentFormatHTML, l.ContentFormat)

	_, err = f.svc.CreateLesson(ctx, adminProfile, "module-404", LessonInput{Title: "x", LessonType: model.LessonTypeContent})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetLessonRendersAndRecordsAccess(t *testing.T) {
	f := newCourseFixture()
	ctx := context.Background()
	c, _, l := f.seed(t)
	f.courses.enrolled["org-acme/"+c.ID] = true
	f.files.files["ready"] = &model.StoredFile{ID: "ready", OwnerID: l.ID, FileName: "a.pdf", Status: model.FileStatusReady}
	f.files.files["pending"] = &model.StoredFile{ID: "pending", OwnerID: l.ID, FileName: "b.pdf", Status: model.FileStatusUploading}

	view, err := f.svc.GetLesson(ctx, memberProfile, l.ID)
	require.NoError(t, err)
	assert.Contains(t, view.ContentHTML, "<h1>Hi</h1>")
	assert.NotContains(t, view.ContentHTML, "<script")
	require.Len(t, view.Files, 1)
	assert.Equal(t, "ready", view.Files[0].ID)
	assert.Equal(t, 1, f.progress.touched[memberProfile.ID+"/"+l.ID])

	adminView, err := f.svc.GetLesson(ctx, adminProfile, l.ID)
	require.NoError(t, err)
	assert.Len(t, adminView.Files, 2)
}

func TestGetLessonSurvivesProgressFailure(t *testing.T) {
	f := newCourseFixture()
	_, _, l := f.seed(t)
	f.progress.err = errBoom

	_, err := f.svc.GetLesson(context.Background(), adminProfile, l.ID)
	assert.NoError(t, err)
}

func TestLessonFileDownloadRequiresAccess(t *testing.T) {
	f := newCourseFixture()
	ctx := context.Background()
	c, _, l := f.seed(t)
	f.files.files["ready"] = &model.StoredFile{ID: "ready", OwnerID: l.ID, FileName: "a.pdf", StoragePath: "lessons/x/ready/a.pdf", Status: model.FileStatusReady}

	_, err := f.svc.GetFileDownloadURL(ctx, memberProfile, l.ID, "ready")
	assert.ErrorIs(t, err, ErrForbidden)

	f.courses.enrolled["org-acme/"+c.ID] = true
	url, err := f.svc.GetFileDownloadURL(ctx, memberProfile, l.ID, "ready")
	require.NoError(t, err)
	assert.Contains(t, url, "lessons/x/ready/a.pdf")
}
