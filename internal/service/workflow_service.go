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

type CategoryInput struct {
	Name        string
	Slug        string
	Description string
	Position    int
}

type DepartmentInput struct {
	CategorySlug string
	Name         string
	Slug         string
	Description  string
}

type WorkflowInput struct {
	DepartmentID string
	Slug         string // derived from Title when empty
	Title        string
	Summary      string
	Content      string
	BookTitle    string
	BookAuthor   string
	Tags         []string
	IsPublished  bool
}

type WorkflowPatch struct {
	DepartmentID *string
	Slug         *string
	Title        *string
	Summary      *string
	Content      *string
	BookTitle    *string
	BookAuthor   *string
	Tags         *[]string
	IsPublished  *bool
}

// WorkflowView is a workflow as shown to a reader.
type WorkflowView struct {
	Workflow    model.Workflow
	ContentHTML string
	Files       []model.StoredFile
}

// WorkflowService is the book workflow library. Every signed-in profile can
// read published workflows; drafts and authoring are admin-only.
type WorkflowService interface {
	ListCategories(ctx context.Context, actor *model.Profile) ([]model.WorkflowCategory, error)
	ListDepartments(ctx context.Context, actor *model.Profile, categorySlug string) ([]model.WorkflowDepartment, error)
	Search(ctx context.Context, actor *model.Profile, f model.WorkflowFilter) ([]model.Workflow, int, error)
	GetWorkflow(ctx context.Context, actor *model.Profile, slug string) (*WorkflowView, error)
	GetFileDownloadURL(ctx context.Context, actor *model.Profile, slug, fileID string) (string, error)

	CreateCategory(ctx context.Context, actor *model.Profile, in CategoryInput) (*model.WorkflowCategory, error)
	CreateDepartment(ctx context.Context, actor *model.Profile, in DepartmentInput) (*model.WorkflowDepartment, error)
	CreateWorkflow(ctx context.Context, actor *model.Profile, in WorkflowInput) (*model.Workflow, error)
	UpdateWorkflow(ctx context.Context, actor *model.Profile, workflowID string, p WorkflowPatch) (*model.Workflow, error)
	InitiateFileUploads(ctx context.Context, actor *model.Profile, workflowID string, filenames []string) ([]UploadTicket, error)
	CompleteFileUpload(ctx context.Context, actor *model.Profile, workflowID, fileID string) (*model.StoredFile, error)
}

type workflowService struct {
	repo   repository.WorkflowRepository
	files  FileService
	logger zerolog.Logger
}

func NewWorkflowService(repo repository.WorkflowRepository, files FileService, logger zerolog.Logger) WorkflowService {
	return &workflowService{
		repo:   repo,
		files:  files,
		logger: logger.With().Str("service", "WorkflowService").Logger(),
	}
}

func (s *workflowService) ListCategories(ctx context.Context, actor *model.Profile) ([]model.WorkflowCategory, error) {
	if err := requireProfile(actor); err != nil {
		return nil, err
	}
	return s.repo.ListCategories(ctx, actor.IsAdmin())
}

func (s *workflowService) ListDepartments(ctx context.Context, actor *model.Profile, categorySlug string) ([]model.WorkflowDepartment, error) {
	if err := requireProfile(actor); err != nil {
		return nil, err
	}
	c, err := s.repo.GetCategoryBySlug(ctx, categorySlug)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, notFound("category", categorySlug)
	}
	return s.repo.ListDepartments(ctx, c.ID, actor.IsAdmin())
}

func (s *workflowService) Search(ctx context.Context, actor *model.Profile, f model.WorkflowFilter) ([]model.Workflow, int, error) {
	if err := requireProfile(actor); err != nil {
		return nil, 0, err
	}
	f.Query = strings.TrimSpace(f.Query)
	// Members never see drafts, whatever they ask for.
	f.IncludeDrafts = f.IncludeDrafts && actor.IsAdmin()
	return s.repo.SearchWorkflows(ctx, f)
}

func (s *workflowService) GetWorkflow(ctx context.Context, actor *model.Profile, slug string) (*WorkflowView, error) {
	w, err := s.readable(ctx, actor, slug)
	if err != nil {
		return nil, err
	}
	files, err := s.files.List(ctx, w.ID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		files = readyOnly(files)
	}
	return &WorkflowView{
		Workflow:    *w,
		ContentHTML: content.Render(w.Content, model.ContentFormatMarkdown),
		Files:       files,
	}, nil
}

func (s *workflowService) GetFileDownloadURL(ctx context.Context, actor *model.Profile, slug, fileID string) (string, error) {
	w, err := s.readable(ctx, actor, slug)
	if err != nil {
		return "", err
	}
	return s.files.DownloadURL(ctx, w.ID, fileID)
}

func (s *workflowService) CreateCategory(ctx context.Context, actor *model.Profile, in CategoryInput) (*model.WorkflowCategory, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	slug, err := resolveSlug(in.Slug, in.Name)
	if err != nil {
		return nil, err
	}
	c := &model.WorkflowCategory{
		Slug:        slug,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Position:    in.Position,
	}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, translate(err, fmt.Sprintf("category slug %q", slug))
	}
	return c, nil
}

func (s *workflowService) CreateDepartment(ctx context.Context, actor *model.Profile, in DepartmentInput) (*model.WorkflowDepartment, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	c, err := s.repo.GetCategoryBySlug(ctx, in.CategorySlug)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, notFound("category", in.CategorySlug)
	}
	slug, err := resolveSlug(in.Slug, in.Name)
	if err != nil {
		return nil, err
	}
	d := &model.WorkflowDepartment{
		CategoryID:  c.ID,
		Slug:        slug,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
	}
	if err := s.repo.CreateDepartment(ctx, d); err != nil {
		return nil, translate(err, fmt.Sprintf("department slug %q in %s", slug, c.Slug))
	}
	return d, nil
}

func (s *workflowService) CreateWorkflow(ctx context.Context, actor *model.Profile, in WorkflowInput) (*model.Workflow, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.checkDepartment(ctx, in.DepartmentID); err != nil {
		return nil, err
	}
	slug, err := resolveSlug(in.Slug, in.Title)
	if err != nil {
		return nil, err
	}
	w := &model.Workflow{
		DepartmentID: in.DepartmentID,
		Slug:         slug,
		Title:        strings.TrimSpace(in.Title),
		Summary:      in.Summary,
		Content:      in.Content,
		BookTitle:    in.BookTitle,
		BookAuthor:   in.BookAuthor,
		Tags:         normalizeTags(in.Tags),
		IsPublished:  in.IsPublished,
	}
	if err := s.repo.CreateWorkflow(ctx, w); err != nil {
		return nil, translate(err, fmt.Sprintf("workflow slug %q", slug))
	}
	s.logger.Info().Str("workflow_id", w.ID).Str("slug", w.Slug).Msg("Workflow created")
	return w, nil
}

func (s *workflowService) UpdateWorkflow(ctx context.Context, actor *model.Profile, workflowID string, p WorkflowPatch) (*model.Workflow, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	w, err := s.repo.GetWorkflowByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, notFound("workflow", workflowID)
	}
	if p.DepartmentID != nil && *p.DepartmentID != w.DepartmentID {
		if err := s.checkDepartment(ctx, *p.DepartmentID); err != nil {
			return nil, err
		}
		w.DepartmentID = *p.DepartmentID
	}
	if p.Slug != nil {
		if !util.IsSlug(*p.Slug) {
			return nil, invalid("%q is not a valid slug", *p.Slug)
		}
		w.Slug = *p.Slug
	}
	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return nil, invalid("title cannot be empty")
		}
		w.Title = strings.TrimSpace(*p.Title)
	}
	if p.Summary != nil {
		w.Summary = *p.Summary
	}
	if p.Content != nil {
		w.Content = *p.Content
	}
	if p.BookTitle != nil {
		w.BookTitle = *p.BookTitle
	}
	if p.BookAuthor != nil {
		w.BookAuthor = *p.BookAuthor
	}
	if p.Tags != nil {
		w.Tags = normalizeTags(*p.Tags)
	}
	if p.IsPublished != nil {
		w.IsPublished = *p.IsPublished
	}
	if err := s.repo.UpdateWorkflow(ctx, w); err != nil {
		return nil, translate(err, fmt.Sprintf("workflow slug %q", w.Slug))
	}
	return w, nil
}

func (s *workflowService) InitiateFileUploads(ctx context.Context, actor *model.Profile, workflowID string, filenames []string) ([]UploadTicket, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	w, err := s.repo.GetWorkflowByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, notFound("workflow", workflowID)
	}
	return s.files.Initiate(ctx, w.ID, filenames)
}

func (s *workflowService) CompleteFileUpload(ctx context.Context, actor *model.Profile, workflowID, fileID string) (*model.StoredFile, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.files.Complete(ctx, workflowID, fileID)
}

// readable loads a workflow by slug, hiding drafts from members.
func (s *workflowService) readable(ctx context.Context, actor *model.Profile, slug string) (*model.Workflow, error) {
	if err := requireProfile(actor); err != nil {
		return nil, err
	}
	w, err := s.repo.GetWorkflowBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if w == nil || (!w.IsPublished && !actor.IsAdmin()) {
		return nil, notFound("workflow", slug)
	}
	return w, nil
}

func (s *workflowService) checkDepartment(ctx context.Context, id string) error {
	d, err := s.repo.GetDepartmentByID(ctx, id)
	if err != nil {
		return err
	}
	if d == nil {
		return invalid("department %s does not exist", id)
	}
	return nil
}

// normalizeTags lowercases, trims and de-duplicates tags, keeping order.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
