package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"coursehub/internal/deletion"
	"coursehub/internal/model"
	"coursehub/internal/repository"
	"coursehub/internal/storage"
)

var errBoom = errors.New("boom")

type fakeCourseRepo struct {
	courses  map[string]*model.Course
	enrolled map[string]bool // orgID + "/" + courseID
	seq      int
}

func newFakeCourseRepo() *fakeCourseRepo {
	return &fakeCourseRepo{courses: map[string]*model.Course{}, enrolled: map[string]bool{}}
}

func (f *fakeCourseRepo) CreateCourse(_ context.Context, c *model.Course) error {
	for _, existing := range f.courses {
		if existing.Slug == c.Slug {
			return repository.ErrDuplicate
		}
	}
	f.seq++
	c.ID = fmt.Sprintf("course-%d", f.seq)
	cp := *c
	f.courses[c.ID] = &cp
	return nil
}

func (f *fakeCourseRepo) GetCourseByID(_ context.Context, id string) (*model.Course, error) {
	c, ok := f.courses[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCourseRepo) UpdateCourse(_ context.Context, c *model.Course) error {
	if _, ok := f.courses[c.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *c
	f.courses[c.ID] = &cp
	return nil
}

func (f *fakeCourseRepo) ListCourses(_ context.Context, _, _ int) ([]model.Course, int, error) {
	out := []model.Course{}
	for _, c := range f.courses {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (f *fakeCourseRepo) ListCoursesForOrganization(_ context.Context, orgID string) ([]model.Course, error) {
	out := []model.Course{}
	for _, c := range f.courses {
		if c.IsPublished && f.enrolled[orgID+"/"+c.ID] {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeCourseRepo) HasActiveEnrollment(_ context.Context, orgID, courseID string) (bool, error) {
	return f.enrolled[orgID+"/"+courseID], nil
}

type fakeModuleRepo struct {
	modules   map[string]*model.Module
	reordered []string
	seq       int
}

func newFakeModuleRepo() *fakeModuleRepo {
	return &fakeModuleRepo{modules: map[string]*model.Module{}}
}

func (f *fakeModuleRepo) CreateModule(_ context.Context, m *model.Module) error {
	f.seq++
	m.ID = fmt.Sprintf("module-%d", f.seq)
	if m.Position == 0 {
		m.Position = f.seq
	}
	cp := *m
	f.modules[m.ID] = &cp
	return nil
}

func (f *fakeModuleRepo) GetModuleByID(_ context.Context, id string) (*model.Module, error) {
	m, ok := f.modules[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (f *fakeModuleRepo) UpdateModule(_ context.Context, m *model.Module) error {
	cp := *m
	f.modules[m.ID] = &cp
	return nil
}

func (f *fakeModuleRepo) ListModulesByCourse(_ context.Context, courseID string) ([]model.Module, error) {
	out := []model.Module{}
	for _, m := range f.modules {
		if m.CourseID == courseID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (f *fakeModuleRepo) ReorderModules(_ context.Context, _ string, ids []string) error {
	f.reordered = ids
	for i, id := range ids {
		f.modules[id].Position = i + 1
	}
	return nil
}

type fakeLessonRepo struct {
	lessons map[string]*model.Lesson
	modules *fakeModuleRepo
	seq     int
}

func newFakeLessonRepo(modules *fakeModuleRepo) *fakeLessonRepo {
	return &fakeLessonRepo{lessons: map[string]*model.Lesson{}, modules: modules}
}

func (f *fakeLessonRepo) CreateLesson(_ context.Context, l *model.Lesson) error {
	f.seq++
	l.ID = fmt.Sprintf("lesson-%d", f.seq)
	if l.Position == 0 {
		l.Position = f.seq
	}
	l.CourseID = f.modules.modules[l.ModuleID].CourseID
	cp := *l
	f.lessons[l.ID] = &cp
	return nil
}

func (f *fakeLessonRepo) GetLessonByID(_ context.Context, id string) (*model.Lesson, error) {
	l, ok := f.lessons[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (f *fakeLessonRepo) UpdateLesson(_ context.Context, l *model.Lesson) error {
	cp := *l
	f.lessons[l.ID] = &cp
	return nil
}

func (f *fakeLessonRepo) ListLessonsByModule(_ context.Context, moduleID string) ([]model.Lesson, error) {
	out := []model.Lesson{}
	for _, l := range f.lessons {
		if l.ModuleID == moduleID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (f *fakeLessonRepo) ListLessonsByCourse(_ context.Context, courseID string) ([]model.Lesson, error) {
	out := []model.Lesson{}
	for _, l := range f.lessons {
		if l.CourseID == courseID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (f *fakeLessonRepo) ReorderLessons(_ context.Context, _ string, ids []string) error {
	for i, id := range ids {
		f.lessons[id].Position = i + 1
	}
	return nil
}

type fakeFileRepo struct {
	files     map[string]*model.StoredFile
	failOnNth int // CreateFile fails on this call when > 0
	calls     int
	deleted   []string
}

func newFakeFileRepo() *fakeFileRepo {
	return &fakeFileRepo{files: map[string]*model.StoredFile{}}
}

func (f *fakeFileRepo) CreateFile(_ context.Context, file *model.StoredFile) error {
	f.calls++
	if f.failOnNth > 0 && f.calls == f.failOnNth {
		return errBoom
	}
	file.Status = model.FileStatusUploading
	cp := *file
	f.files[file.ID] = &cp
	return nil
}

func (f *fakeFileRepo) GetFileByID(_ context.Context, id string) (*model.StoredFile, error) {
	file, ok := f.files[id]
	if !ok {
		return nil, nil
	}
	cp := *file
	return &cp, nil
}

func (f *fakeFileRepo) ListFilesByOwner(_ context.Context, ownerID string) ([]model.StoredFile, error) {
	out := []model.StoredFile{}
	for _, file := range f.files {
		if file.OwnerID == ownerID {
			out = append(out, *file)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FileName < out[j].FileName })
	return out, nil
}

func (f *fakeFileRepo) MarkReady(_ context.Context, id, contentType string, size int64) (*model.StoredFile, error) {
	file, ok := f.files[id]
	if !ok {
		return nil, nil
	}
	file.Status = model.FileStatusReady
	file.ContentType = contentType
	file.SizeBytes = size
	cp := *file
	return &cp, nil
}

func (f *fakeFileRepo) MarkFailed(_ context.Context, id string) error {
	if file, ok := f.files[id]; ok {
		file.Status = model.FileStatusFailed
	}
	return nil
}

func (f *fakeFileRepo) DeleteFiles(_ context.Context, ids []string) error {
	for _, id := range ids {
		delete(f.files, id)
	}
	f.deleted = append(f.deleted, ids...)
	return nil
}

type fakeStore struct {
	objects    map[string]storage.ObjectInfo
	putErrAt   int // PresignPut fails on this call when > 0
	putCalls   int
	deleteKeys []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string]storage.ObjectInfo{}}
}

func (s *fakeStore) PresignGet(_ context.Context, key, name string) (string, error) {
	return "https://bucket.test/" + key + "?download=" + name, nil
}

func (s *fakeStore) PresignPut(_ context.Context, key string) (string, error) {
	s.putCalls++
	if s.putErrAt > 0 && s.putCalls == s.putErrAt {
		return "", errBoom
	}
	return "https://bucket.test/" + key + "?upload", nil
}

func (s *fakeStore) Inspect(_ context.Context, key string) (*storage.ObjectInfo, error) {
	info, ok := s.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return &info, nil
}

func (s *fakeStore) DeleteKeys(_ context.Context, keys []string) error {
	s.deleteKeys = append(s.deleteKeys, keys...)
	return nil
}

type fakeProgressRepo struct {
	touched map[string]int // userID + "/" + lessonID
	err     error
}

func newFakeProgressRepo() *fakeProgressRepo {
	return &fakeProgressRepo{touched: map[string]int{}}
}

func (f *fakeProgressRepo) TouchLesson(_ context.Context, userID, lessonID string) error {
	if f.err != nil {
		return f.err
	}
	f.touched[userID+"/"+lessonID]++
	return nil
}

func (f *fakeProgressRepo) SetCompleted(_ context.Context, userID, lessonID string, completed bool) (*model.LessonProgress, error) {
	p := &model.LessonProgress{UserID: userID, LessonID: lessonID, LastAccessedAt: time.Now()}
	if completed {
		now := time.Now()
		p.CompletedAt = &now
	}
	return p, nil
}

func (f *fakeProgressRepo) GetCourseProgress(_ context.Context, _, courseID string) (*model.CourseProgress, error) {
	return &model.CourseProgress{CourseID: courseID, TotalLessons: 4, CompletedLessons: 1, CompletedLessonIDs: []string{"lesson-1"}}, nil
}

func (f *fakeProgressRepo) ListRecentLessons(_ context.Context, _ string, _, _ int) ([]model.RecentLesson, int, error) {
	return []model.RecentLesson{}, 0, nil
}

type fakeUserRepo struct {
	profiles map[string]*model.Profile
}

func newFakeUserRepo(profiles ...*model.Profile) *fakeUserRepo {
	f := &fakeUserRepo{profiles: map[string]*model.Profile{}}
	for _, p := range profiles {
		cp := *p
		f.profiles[p.ID] = &cp
	}
	return f
}

func (f *fakeUserRepo) UpsertProfile(_ context.Context, p *model.Profile) error {
	existing, ok := f.profiles[p.ID]
	if !ok {
		p.Role = model.RoleMember
		cp := *p
		f.profiles[p.ID] = &cp
		return nil
	}
	existing.Email = p.Email
	if p.FullName != "" {
		existing.FullName = p.FullName
	}
	*p = *existing
	return nil
}

func (f *fakeUserRepo) GetProfileByID(_ context.Context, id string) (*model.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeUserRepo) UpdateFullName(_ context.Context, id, name string) (*model.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, nil
	}
	p.FullName = name
	cp := *p
	return &cp, nil
}

func (f *fakeUserRepo) UpdateAccess(_ context.Context, id, role string, orgID *string) (*model.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, nil
	}
	p.Role = role
	p.OrganizationID = orgID
	cp := *p
	return &cp, nil
}

func (f *fakeUserRepo) ListProfiles(_ context.Context, orgID *string, _, _ int) ([]model.Profile, int, error) {
	out := []model.Profile{}
	for _, p := range f.profiles {
		if orgID == nil || p.BelongsTo(*orgID) {
			out = append(out, *p)
		}
	}
	return out, len(out), nil
}

type fakeOrgRepo struct {
	orgs map[string]*model.Organization
}

func (f *fakeOrgRepo) CreateOrganization(_ context.Context, o *model.Organization) error {
	for _, existing := range f.orgs {
		if existing.Slug == o.Slug {
			return repository.ErrDuplicate
		}
	}
	o.ID = "org-" + o.Slug
	cp := *o
	f.orgs[o.ID] = &cp
	return nil
}

func (f *fakeOrgRepo) GetOrganizationByID(_ context.Context, id string) (*model.Organization, error) {
	o, ok := f.orgs[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrgRepo) UpdateOrganization(_ context.Context, o *model.Organization) error {
	cp := *o
	f.orgs[o.ID] = &cp
	return nil
}

func (f *fakeOrgRepo) ListOrganizations(_ context.Context, _, _ int) ([]model.Organization, int, error) {
	out := []model.Organization{}
	for _, o := range f.orgs {
		out = append(out, *o)
	}
	return out, len(out), nil
}

type fakeEnrollmentRepo struct {
	byKey map[string]*model.Enrollment
}

func (f *fakeEnrollmentRepo) Enroll(_ context.Context, e *model.Enrollment) error {
	key := e.OrganizationID + "/" + e.CourseID
	if existing, ok := f.byKey[key]; ok && existing.IsActiveAt(time.Now()) {
		return repository.ErrDuplicate
	}
	e.ID = "enr-" + key
	e.Status = model.EnrollmentStatusActive
	cp := *e
	f.byKey[key] = &cp
	return nil
}

func (f *fakeEnrollmentRepo) GetEnrollmentByID(_ context.Context, id string) (*model.Enrollment, error) {
	for _, e := range f.byKey {
		if e.ID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeEnrollmentRepo) ListEnrollmentsByOrganization(_ context.Context, orgID string) ([]model.Enrollment, error) {
	out := []model.Enrollment{}
	for _, e := range f.byKey {
		if e.OrganizationID == orgID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeEnrollmentRepo) ListEnrollmentsByCourse(_ context.Context, courseID string) ([]model.Enrollment, error) {
	out := []model.Enrollment{}
	for _, e := range f.byKey {
		if e.CourseID == courseID {
			out = append(out, *e)
		}
	}
	return out, nil
}

type fakeWorkflowRepo struct {
	categories  map[string]*model.WorkflowCategory // by slug
	departments map[string]*model.WorkflowDepartment
	workflows   map[string]*model.Workflow
	lastFilter  model.WorkflowFilter
}

func newFakeWorkflowRepo() *fakeWorkflowRepo {
	return &fakeWorkflowRepo{
		categories:  map[string]*model.WorkflowCategory{},
		departments: map[string]*model.WorkflowDepartment{},
		workflows:   map[string]*model.Workflow{},
	}
}

func (f *fakeWorkflowRepo) ListCategories(_ context.Context, _ bool) ([]model.WorkflowCategory, error) {
	out := []model.WorkflowCategory{}
	for _, c := range f.categories {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeWorkflowRepo) GetCategoryBySlug(_ context.Context, slug string) (*model.WorkflowCategory, error) {
	c, ok := f.categories[slug]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeWorkflowRepo) CreateCategory(_ context.Context, c *model.WorkflowCategory) error {
	if _, ok := f.categories[c.Slug]; ok {
		return repository.ErrDuplicate
	}
	c.ID = "cat-" + c.Slug
	cp := *c
	f.categories[c.Slug] = &cp
	return nil
}

func (f *fakeWorkflowRepo) ListDepartments(_ context.Context, categoryID string, _ bool) ([]model.WorkflowDepartment, error) {
	out := []model.WorkflowDepartment{}
	for _, d := range f.departments {
		if d.CategoryID == categoryID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeWorkflowRepo) GetDepartmentByID(_ context.Context, id string) (*model.WorkflowDepartment, error) {
	d, ok := f.departments[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (f *fakeWorkflowRepo) CreateDepartment(_ context.Context, d *model.WorkflowDepartment) error {
	d.ID = "dept-" + d.Slug
	cp := *d
	f.departments[d.ID] = &cp
	return nil
}

func (f *fakeWorkflowRepo) CreateWorkflow(_ context.Context, w *model.Workflow) error {
	for _, existing := range f.workflows {
		if existing.Slug == w.Slug {
			return repository.ErrDuplicate
		}
	}
	w.ID = "wf-" + w.Slug
	cp := *w
	f.workflows[w.ID] = &cp
	return nil
}

func (f *fakeWorkflowRepo) UpdateWorkflow(_ context.Context, w *model.Workflow) error {
	if _, ok := f.workflows[w.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *w
	f.workflows[w.ID] = &cp
	return nil
}

func (f *fakeWorkflowRepo) GetWorkflowByID(_ context.Context, id string) (*model.Workflow, error) {
	w, ok := f.workflows[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (f *fakeWorkflowRepo) GetWorkflowBySlug(_ context.Context, slug string) (*model.Workflow, error) {
	for _, w := range f.workflows {
		if w.Slug == slug {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeWorkflowRepo) SearchWorkflows(_ context.Context, filter model.WorkflowFilter) ([]model.Workflow, int, error) {
	f.lastFilter = filter
	out := []model.Workflow{}
	for _, w := range f.workflows {
		if w.IsPublished || filter.IncludeDrafts {
			out = append(out, *w)
		}
	}
	return out, len(out), nil
}

// executedDeletion is a command the fake repository carried out, with the
// audit row its Authorize produced.
type executedDeletion struct {
	repository.DeletionCommand
	Audit *model.DeletionAudit
}

type fakeDeletionRepo struct {
	impacts map[deletion.EntityType]*deletion.Impact
	// locked, when set, is the impact seen inside the transaction.
	locked   *deletion.Impact
	executed []executedDeletion
	keys     []string
	execErr  error
}

func (f *fakeDeletionRepo) impact(t deletion.EntityType, id string) (*deletion.Impact, error) {
	i, ok := f.impacts[t]
	if !ok || i.EntityID != id {
		return nil, nil
	}
	cp := *i
	return &cp, nil
}

func (f *fakeDeletionRepo) CourseImpact(_ context.Context, id string) (*deletion.Impact, error) {
	return f.impact(deletion.EntityCourse, id)
}

func (f *fakeDeletionRepo) ModuleImpact(_ context.Context, id string) (*deletion.Impact, error) {
	return f.impact(deletion.EntityModule, id)
}

func (f *fakeDeletionRepo) LessonImpact(_ context.Context, id string) (*deletion.Impact, error) {
	return f.impact(deletion.EntityLesson, id)
}

func (f *fakeDeletionRepo) LessonFileImpact(_ context.Context, id string) (*deletion.Impact, error) {
	return f.impact(deletion.EntityLessonFile, id)
}

func (f *fakeDeletionRepo) OrganizationImpact(_ context.Context, id, _ string) (*deletion.Impact, error) {
	return f.impact(deletion.EntityOrganization, id)
}

func (f *fakeDeletionRepo) EnrollmentImpact(_ context.Context, id string) (*deletion.Impact, error) {
	return f.impact(deletion.EntityEnrollment, id)
}

func (f *fakeDeletionRepo) WorkflowImpact(_ context.Context, id string) (*deletion.Impact, error) {
	return f.impact(deletion.EntityWorkflow, id)
}

func (f *fakeDeletionRepo) ExecuteDeletion(_ context.Context, cmd repository.DeletionCommand) ([]string, error) {
	if f.execErr != nil {
		return nil, f.execErr
	}
	impact, _ := f.impact(cmd.EntityType, cmd.EntityID)
	if f.locked != nil {
		cp := *f.locked
		impact = &cp
	}
	if impact == nil {
		return nil, repository.ErrNotFound
	}
	audit, err := cmd.Authorize(*impact)
	if err != nil {
		return nil, err
	}
	audit.ID = fmt.Sprintf("audit-%d", len(f.executed)+1)
	audit.CreatedAt = time.Now()
	f.executed = append(f.executed, executedDeletion{DeletionCommand: cmd, Audit: audit})
	return f.keys, nil
}

type fakeAuditRepo struct {
	rows []model.DeletionAudit
}

func (f *fakeAuditRepo) RecordAttempt(_ context.Context, a *model.DeletionAudit) error {
	a.ID = fmt.Sprintf("attempt-%d", len(f.rows)+1)
	f.rows = append(f.rows, *a)
	return nil
}

func (f *fakeAuditRepo) ListAudit(_ context.Context, entityType string, _, _ int) ([]model.DeletionAudit, int, error) {
	out := []model.DeletionAudit{}
	for _, a := range f.rows {
		if entityType == "" || a.EntityType == entityType {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

func (f *fakeAuditRepo) outcomes() []string {
	out := make([]string, len(f.rows))
	for i, a := range f.rows {
		out[i] = a.Outcome
	}
	return out
}

type publishedMessage struct {
	topic      string
	payload    []byte
	attributes map[string]string
}

type fakePublisher struct {
	messages []publishedMessage
	err      error
}

func (p *fakePublisher) Publish(_ context.Context, topic string, payload []byte, attrs map[string]string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.messages = append(p.messages, publishedMessage{topic: topic, payload: payload, attributes: attrs})
	return fmt.Sprintf("msg-%d", len(p.messages)), nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeDLQRepo struct {
	saved []*model.DeadLetterMessage
}

func (f *fakeDLQRepo) Create(_ context.Context, m *model.DeadLetterMessage) error {
	f.saved = append(f.saved, m)
	return nil
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

var (
	adminProfile  = &model.Profile{ID: "admin-1", Email: "admin@example.com", Role: model.RoleAdmin}
	memberProfile = &model.Profile{ID: "member-1", Email: "member@example.com", Role: model.RoleMember, OrganizationID: strPtr("org-acme")}
	loneMember    = &model.Profile{ID: "member-2", Email: "solo@example.com", Role: model.RoleMember}
)
