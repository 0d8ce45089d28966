package service

import (
	"context"
	"fmt"
	"strings"

	"coursehub/internal/content"
	"coursehub/internal/model"
	"coursehub/internal/repository"
	"coursehub/internal/util"

	"github.com/rs/zerolog"
)

type CourseInput struct {
	Title       string
	Slug        string // derived from Title when empty
	Description string
	IsPublished bool
}

// CoursePatch updates only the non-nil fields.
type CoursePatch struct {
	Title       *string
	Slug        *string
	Description *string
	IsPublished *bool
}

type ModuleInput struct {
	Title       string
	Description string
	Position    int // 0 appends
}

type ModulePatch struct {
	Title       *string
	Description *string
}

type LessonInput struct {
	Title           string
	LessonType      string
	VideoURL        string
	Content         string
	ContentFormat   string
	DurationMinutes int
	Position        int // 0 appends
}

type LessonPatch struct {
	Title           *string
	LessonType      *string
	VideoURL        *string
	Content         *string
	ContentFormat   *string
	DurationMinutes *int
}

// LessonView is a lesson as shown to a reader: rendered content plus the
// files they may download.
type LessonView struct {
	Lesson      model.Lesson
	ContentHTML string
	Files       []model.StoredFile
}

// CourseService manages the course → module → lesson → file tree.
// Mutations are admin-only; reads require access to the course.
type CourseService interface {
	CreateCourse(ctx context.Context, actor *model.Profile, in CourseInput) (*model.Course, error)
	UpdateCourse(ctx context.Context, actor *model.Profile, courseID string, p CoursePatch) (*model.Course, error)
	ListCourses(ctx context.Context, actor *model.Profile, limit, offset int) ([]model.Course, int, error)
	GetCourseOutline(ctx context.Context, actor *model.Profile, courseID string) (*model.CourseOutline, error)

	CreateModule(ctx context.Context, actor *model.Profile, courseID string, in ModuleInput) (*model.Module, error)
	UpdateModule(ctx context.Context, actor *model.Profile, moduleID string, p ModulePatch) (*model.Module, error)
	// ReorderModules requires orderedIDs to list exactly the course's modules
	ReorderModules(ctx context.Context, actor *model.Profile, courseID string, orderedIDs []string) ([]model.Module, error)

	CreateLesson(ctx context.Context, actor *model.Profile, moduleID string, in LessonInput) (*model.Lesson, error)
	UpdateLesson(ctx context.Context, actor *model.Profile, lessonID string, p LessonPatch) (*model.Lesson, error)
	// GetLesson renders the lesson and records that the caller opened it
	GetLesson(ctx context.Context, actor *model.Profile, lessonID string) (*LessonView, error)
	ReorderLessons(ctx context.Context, actor *model.Profile, moduleID string, orderedIDs []string) ([]model.Lesson, error)

	InitiateFileUploads(ctx context.Context, actor *model.Profile, lessonID string, filenames []string) ([]UploadTicket, error)
	CompleteFileUpload(ctx context.Context, actor *model.Profile, lessonID, fileID string) (*model.StoredFile, error)
	GetFileDownloadURL(ctx context.Context, actor *model.Profile, lessonID, fileID string) (string, error)

	// AuthorizeCourse returns the course when the actor may read it
	AuthorizeCourse(ctx context.Context, actor *model.Profile, courseID string) (*model.Course, error)
	// AuthorizeLesson returns the lesson when the actor may read its course
	AuthorizeLesson(ctx context.Context, actor *model.Profile, lessonID string) (*model.Lesson, error)
}

type courseService struct {
	courseRepo   repository.CourseRepository
	moduleRepo   repository.ModuleRepository
	lessonRepo   repository.LessonRepository
	progressRepo repository.ProgressRepository
	files        FileService
	logger       zerolog.Logger
}

func NewCourseService(
	courseRepo repository.CourseRepository,
	moduleRepo repository.ModuleRepository,
	lessonRepo repository.LessonRepository,
	progressRepo repository.ProgressRepository,
	files FileService,
	logger zerolog.Logger,
) CourseService {
	return &courseService{
		courseRepo:   courseRepo,
		moduleRepo:   moduleRepo,
		lessonRepo:   lessonRepo,
		progressRepo: progressRepo,
		files:        files,
		logger:       logger.With().Str("service", "CourseService").Logger(),
	}
}

func (s *courseService) CreateCourse(ctx context.Context, actor *model.Profile, in CourseInput) (*model.Course, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	slug, err := resolveSlug(in.Slug, in.Title)
	if err != nil {
		return nil, err
	}
	c := &model.Course{
		Slug:        slug,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		IsPublished: in.IsPublished,
		CreatedBy:   actor.ID,
	}
	if err := s.courseRepo.CreateCourse(ctx, c); err != nil {
		return nil, translate(err, fmt.Sprintf("course slug %q", slug))
	}
	s.logger.Info().Str("course_id", c.ID).Str("slug", c.Slug).Msg("Course created")
	return c, nil
}

func (s *courseService) UpdateCourse(ctx context.Context, actor *model.Profile, courseID string, p CoursePatch) (*model.Course, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	c, err := s.course(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return nil, invalid("title cannot be empty")
		}
		c.Title = strings.TrimSpace(*p.Title)
	}
	if p.Slug != nil {
		if !util.IsSlug(*p.Slug) {
			return nil, invalid("%q is not a valid slug", *p.Slug)
		}
		c.Slug = *p.Slug
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.IsPublished != nil {
		c.IsPublished = *p.IsPublished
	}
	if err := s.courseRepo.UpdateCourse(ctx, c); err != nil {
		return nil, translate(err, fmt.Sprintf("course slug %q", c.Slug))
	}
	return c, nil
}

func (s *courseService) ListCourses(ctx context.Context, actor *model.Profile, limit, offset int) ([]model.Course, int, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, 0, err
	}
	return s.courseRepo.ListCourses(ctx, limit, offset)
}

func (s *courseService) GetCourseOutline(ctx context.Context, actor *model.Profile, courseID string) (*model.CourseOutline, error) {
	c, err := s.AuthorizeCourse(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}
	modules, err := s.moduleRepo.ListModulesByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	lessons, err := s.lessonRepo.ListLessonsByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	byModule := make(map[string][]model.Lesson, len(modules))
	for _, l := range lessons {
		byModule[l.ModuleID] = append(byModule[l.ModuleID], l)
	}
	outline := &model.CourseOutline{Course: *c, Modules: make([]model.ModuleOutline, 0, len(modules))}
	for _, m := range modules {
		ls := byModule[m.ID]
		if ls == nil {
			ls = []model.Lesson{}
		}
		outline.Modules = append(outline.Modules, model.ModuleOutline{Module: m, Lessons: ls})
	}
	return outline, nil
}

func (s *courseService) CreateModule(ctx context.Context, actor *model.Profile, courseID string, in ModuleInput) (*model.Module, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := s.course(ctx, courseID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, invalid("title is required")
	}
	if in.Position < 0 {
		return nil, invalid("position must not be negative")
	}
	m := &model.Module{
		CourseID:    courseID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Position:    in.Position,
	}
	if err := s.moduleRepo.CreateModule(ctx, m); err != nil {
		return nil, translate(err, "module")
	}
	return m, nil
}

func (s *courseService) UpdateModule(ctx context.Context, actor *model.Profile, moduleID string, p ModulePatch) (*model.Module, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	m, err := s.moduleRepo.GetModuleByID(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, notFound("module", moduleID)
	}
	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return nil, invalid("title cannot be empty")
		}
		m.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		m.Description = *p.Description
	}
	if err := s.moduleRepo.UpdateModule(ctx, m); err != nil {
		return nil, translate(err, "module")
	}
	return m, nil
}

func (s *courseService) ReorderModules(ctx context.Context, actor *model.Profile, courseID string, orderedIDs []string) ([]model.Module, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := s.course(ctx, courseID); err != nil {
		return nil, err
	}
	current, err := s.moduleRepo.ListModulesByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(current))
	for i, m := range current {
		ids[i] = m.ID
	}
	if err := sameSet(ids, orderedIDs); err != nil {
		return nil, err
	}
	if err := s.moduleRepo.ReorderModules(ctx, courseID, orderedIDs); err != nil {
		return nil, translate(err, "module")
	}
	return s.moduleRepo.ListModulesByCourse(ctx, courseID)
}

func (s *courseService) CreateLesson(ctx context.Context, actor *model.Profile, moduleID string, in LessonInput) (*model.Lesson, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	m, err := s.moduleRepo.GetModuleByID(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, notFound("module", moduleID)
	}
	if in.Position < 0 {
		return nil, invalid("position must not be negative")
	}
	l := &model.Lesson{
		ModuleID:        moduleID,
		Title:           strings.TrimSpace(in.Title),
		LessonType:      in.LessonType,
		VideoURL:        strings.TrimSpace(in.VideoURL),
		Content:         in.Content,
		ContentFormat:   in.ContentFormat,
		DurationMinutes: in.DurationMinutes,
		Position:        in.Position,
	}
	if err := checkLesson(l); err != nil {
		return nil, err
	}
	if err := s.lessonRepo.CreateLesson(ctx, l); err != nil {
		return nil, translate(err, "lesson")
	}
	return l, nil
}

func (s *courseService) UpdateLesson(ctx context.Context, actor *model.Profile, lessonID string, p LessonPatch) (*model.Lesson, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	l, err := s.lesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if p.Title != nil {
		l.Title = strings.TrimSpace(*p.Title)
	}
	if p.LessonType != nil {
		l.LessonType = *p.LessonType
	}
	if p.VideoURL != nil {
		l.VideoURL = strings.TrimSpace(*p.VideoURL)
	}
	if p.Content != nil {
		l.Content = *p.Content
	}
	if p.ContentFormat != nil {
		l.ContentFormat = *p.ContentFormat
	}
	if p.DurationMinutes != nil {
		l.DurationMinutes = *p.DurationMinutes
	}
	if err := checkLesson(l); err != nil {
		return nil, err
	}
	if err := s.lessonRepo.UpdateLesson(ctx, l); err != nil {
		return nil, translate(err, "lesson")
	}
	return l, nil
}

func (s *courseService) GetLesson(ctx context.Context, actor *model.Profile, lessonID string) (*LessonView, error) {
	l, err := s.AuthorizeLesson(ctx, actor, lessonID)
	if err != nil {
		return nil, err
	}
	files, err := s.files.List(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		files = readyOnly(files)
	}

	if err := s.progressRepo.TouchLesson(ctx, actor.ID, l.ID); err != nil {
		s.logger.Warn().Err(err).Str("lesson_id", l.ID).Str("user_id", actor.ID).Msg("Failed to record lesson access")
	}

	return &LessonView{
		Lesson:      *l,
		ContentHTML: content.Render(l.Content, l.ContentFormat),
		Files:       files,
	}, nil
}

func (s *courseService) ReorderLessons(ctx context.Context, actor *model.Profile, moduleID string, orderedIDs []string) ([]model.Lesson, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	m, err := s.moduleRepo.GetModuleByID(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, notFound("module", moduleID)
	}
	current, err := s.lessonRepo.ListLessonsByModule(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(current))
	for i, l := range current {
		ids[i] = l.ID
	}
	if err := sameSet(ids, orderedIDs); err != nil {
		return nil, err
	}
	if err := s.lessonRepo.ReorderLessons(ctx, moduleID, orderedIDs); err != nil {
		return nil, translate(err, "lesson")
	}
	return s.lessonRepo.ListLessonsByModule(ctx, moduleID)
}

func (s *courseService) InitiateFileUploads(ctx context.Context, actor *model.Profile, lessonID string, filenames []string) ([]UploadTicket, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := s.lesson(ctx, lessonID); err != nil {
		return nil, err
	}
	return s.files.Initiate(ctx, lessonID, filenames)
}

func (s *courseService) CompleteFileUpload(ctx context.Context, actor *model.Profile, lessonID, fileID string) (*model.StoredFile, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.files.Complete(ctx, lessonID, fileID)
}

func (s *courseService) GetFileDownloadURL(ctx context.Context, actor *model.Profile, lessonID, fileID string) (string, error) {
	if _, err := s.AuthorizeLesson(ctx, actor, lessonID); err != nil {
		return "", err
	}
	return s.files.DownloadURL(ctx, lessonID, fileID)
}

func (s *courseService) AuthorizeCourse(ctx context.Context, actor *model.Profile, courseID string) (*model.Course, error) {
	if err := requireProfile(actor); err != nil {
		return nil, err
	}
	c, err := s.course(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin() {
		return c, nil
	}
	// Drafts are invisible to members.
	if !c.IsPublished {
		return nil, notFound("course", courseID)
	}
	if actor.OrganizationID == nil {
		return nil, fmt.Errorf("%w: you are not part of an organization", ErrForbidden)
	}
	ok, err := s.courseRepo.HasActiveEnrollment(ctx, *actor.OrganizationID, courseID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: your organization is not enrolled in this course", ErrForbidden)
	}
	return c, nil
}

func (s *courseService) AuthorizeLesson(ctx context.Context, actor *model.Profile, lessonID string) (*model.Lesson, error) {
	if err := requireProfile(actor); err != nil {
		return nil, err
	}
	l, err := s.lesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if _, err := s.AuthorizeCourse(ctx, actor, l.CourseID); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *courseService) course(ctx context.Context, courseID string) (*model.Course, error) {
	c, err := s.courseRepo.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, notFound("course", courseID)
	}
	return c, nil
}

func (s *courseService) lesson(ctx context.Context, lessonID string) (*model.Lesson, error) {
	l, err := s.lessonRepo.GetLessonByID(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, notFound("lesson", lessonID)
	}
	return l, nil
}

func checkLesson(l *model.Lesson) error {
	if l.Title == "" {
		return invalid("title is required")
	}
	switch l.LessonType {
	case model.LessonTypeVideo:
		if l.VideoURL == "" {
			return invalid("video lessons need a video_url")
		}
	case model.LessonTypeContent, model.LessonTypeDownload:
	default:
		return invalid("unknown lesson type %q", l.LessonType)
	}
	if l.ContentFormat == "" {
		l.ContentFormat = model.ContentFormatHTML
	}
	if l.ContentFormat != model.ContentFormatHTML && l.ContentFormat != model.ContentFormatMarkdown {
		return invalid("unknown content format %q", l.ContentFormat)
	}
	if l.DurationMinutes < 0 {
		return invalid("duration_minutes must not be negative")
	}
	return nil
}

// resolveSlug validates an explicit slug or derives one from the title.
func resolveSlug(slug, title string) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", invalid("title is required")
	}
	if slug != "" {
		if !util.IsSlug(slug) {
			return "", invalid("%q is not a valid slug", slug)
		}
		return slug, nil
	}
	derived := util.Slugify(title)
	if derived == "" {
		return "", invalid("cannot derive a slug from %q; provide one", title)
	}
	return derived, nil
}

// sameSet checks that ordered is a permutation of current.
func sameSet(current, ordered []string) error {
	if len(current) != len(ordered) {
		return invalid("expected %d ids, got %d", len(current), len(ordered))
	}
	want := make(map[string]bool, len(current))
	for _, id := range current {
		want[id] = true
	}
	for _, id := range ordered {
		if !want[id] {
			return invalid("id %s is unknown or repeated", id)
		}
		delete(want, id)
	}
	return nil
}

func readyOnly(files []model.StoredFile) []model.StoredFile {
	out := make([]model.StoredFile, 0, len(files))
	for _, f := range files {
		if f.IsReady() {
			out = append(out, f)
		}
	}
	return out
}
