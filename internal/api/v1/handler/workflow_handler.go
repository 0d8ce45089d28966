package handler

import (
	"context"

	"coursehub/internal/api/v1/dto"
	"coursehub/internal/api/v1/operation"
	"coursehub/internal/model"
	"coursehub/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// WorkflowHandler serves the book-workflow library
type WorkflowHandler struct {
	workflowService service.WorkflowService
	validate        *validator.Validate
	logger          zerolog.Logger
}

func NewWorkflowHandler(workflowService service.WorkflowService, validate *validator.Validate, logger zerolog.Logger) *WorkflowHandler {
	return &WorkflowHandler{
		workflowService: workflowService,
		validate:        validate,
		logger:          logger,
	}
}

func (h *WorkflowHandler) ListCategories(ctx context.Context, input *operation.ListCategoriesInput) (*operation.ListCategoriesOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}

	categories, err := h.workflowService.ListCategories(ctx, actor)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to list categories")
	}
	out := make([]dto.CategoryResponseDTO, 0, len(categories))
	for i := range categories {
		out = append(out, toCategoryDTO(&categories[i]))
	}
	return &operation.ListCategoriesOutput{Body: out}, nil
}

func (h *WorkflowHandler) ListDepartments(ctx context.Context, input *operation.ListDepartmentsInput) (*operation.ListDepartmentsOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}

	departments, err := h.workflowService.ListDepartments(ctx, actor, input.CategorySlug)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to list departments")
	}
	out := make([]dto.DepartmentResponseDTO, 0, len(departments))
	for i := range departments {
		out = append(out, toDepartmentDTO(&departments[i]))
	}
	return &operation.ListDepartmentsOutput{Body: out}, nil
}

// SearchWorkflows runs a ranked full-text search, or lists by recency when q is empty
func (h *WorkflowHandler) SearchWorkflows(ctx context.Context, input *operation.SearchWorkflowsInput) (*operation.SearchWorkflowsOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}

	workflows, total, err := h.workflowService.Search(ctx, actor, model.WorkflowFilter{
		Query:          input.Query,
		CategorySlug:   input.Category,
		DepartmentSlug: input.Department,
		IncludeDrafts:  input.IncludeDrafts,
		Limit:          input.Limit,
		Offset:         input.Offset,
	})
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to search workflows")
	}
	out := make([]dto.WorkflowSummaryDTO, 0, len(workflows))
	for i := range workflows {
		out = append(out, toWorkflowSummaryDTO(&workflows[i]))
	}
	return &operation.SearchWorkflowsOutput{
		Body: dto.WorkflowSearchResponseDTO{Workflows: out, Total: total},
	}, nil
}

func (h *WorkflowHandler) GetWorkflow(ctx context.Context, input *operation.GetWorkflowInput) (*operation.GetWorkflowOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}

	view, err := h.workflowService.GetWorkflow(ctx, actor, input.Slug)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to retrieve workflow")
	}
	return &operation.GetWorkflowOutput{
		Body: dto.WorkflowDetailResponseDTO{
			WorkflowSummaryDTO: toWorkflowSummaryDTO(&view.Workflow),
			DepartmentID:       view.Workflow.DepartmentID,
			Content:            view.Workflow.Content,
			ContentHTML:        view.ContentHTML,
			Files:              toFileDTOs(view.Files),
			CreatedAt:          view.Workflow.CreatedAt,
		},
	}, nil
}

func (h *WorkflowHandler) GetWorkflowFileURL(ctx context.Context, input *operation.GetWorkflowFileURLInput) (*operation.GetWorkflowFileURLOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}

	url, err := h.workflowService.GetFileDownloadURL(ctx, actor, input.Slug, input.FileID)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to generate signed URL")
	}
	return &operation.GetWorkflowFileURLOutput{Body: dto.SignedURLResponseDTO{URL: url}}, nil
}

func (h *WorkflowHandler) CreateCategory(ctx context.Context, input *operation.CreateCategoryInput) (*operation.CreateCategoryOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, input.Body); err != nil {
		return nil, err
	}

	c, err := h.workflowService.CreateCategory(ctx, actor, service.CategoryInput{
		Name:        input.Body.Name,
		Slug:        input.Body.Slug,
		Description: input.Body.Description,
		Position:    input.Body.Position,
	})
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to create category")
	}
	return &operation.CreateCategoryOutput{Body: toCategoryDTO(c)}, nil
}

func (h *WorkflowHandler) CreateDepartment(ctx context.Context, input *operation.CreateDepartmentInput) (*operation.CreateDepartmentOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, input.Body); err != nil {
		return nil, err
	}

	d, err := h.workflowService.CreateDepartment(ctx, actor, service.DepartmentInput{
		CategorySlug: input.CategorySlug,
		Name:         input.Body.Name,
		Slug:         input.Body.Slug,
		Description:  input.Body.Description,
	})
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to create department")
	}
	return &operation.CreateDepartmentOutput{Body: toDepartmentDTO(d)}, nil
}

func (h *WorkflowHandler) CreateWorkflow(ctx context.Context, input *operation.CreateWorkflowInput) (*operation.CreateWorkflowOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, input.Body); err != nil {
		return nil, err
	}

	w, err := h.workflowService.CreateWorkflow(ctx, actor, service.WorkflowInput{
		DepartmentID: input.Body.DepartmentID,
		Slug:         input.Body.Slug,
		Title:        input.Body.Title,
		Summary:      input.Body.Summary,
		Content:      input.Body.Content,
		BookTitle:    input.Body.BookTitle,
		BookAuthor:   input.Body.BookAuthor,
		Tags:         input.Body.Tags,
		IsPublished:  input.Body.IsPublished,
	})
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to create workflow")
	}
	return &operation.CreateWorkflowOutput{Body: toWorkflowSummaryDTO(w)}, nil
}

func (h *WorkflowHandler) UpdateWorkflow(ctx context.Context, input *operation.UpdateWorkflowInput) (*operation.UpdateWorkflowOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, input.Body); err != nil {
		return nil, err
	}

	w, err := h.workflowService.UpdateWorkflow(ctx, actor, input.WorkflowID, service.WorkflowPatch{
		DepartmentID: input.Body.DepartmentID,
		Slug:         input.Body.Slug,
		Title:        input.Body.Title,
		Summary:      input.Body.Summary,
		Content:      input.Body.Content,
		BookTitle:    input.Body.BookTitle,
		BookAuthor:   input.Body.BookAuthor,
		Tags:         input.Body.Tags,
		IsPublished:  input.Body.IsPublished,
	})
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to update workflow")
	}
	return &operation.UpdateWorkflowOutput{Body: toWorkflowSummaryDTO(w)}, nil
}

func (h *WorkflowHandler) InitiateWorkflowUpload(ctx context.Context, input *operation.InitiateWorkflowUploadInput) (*operation.InitiateWorkflowUploadOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, input.Body); err != nil {
		return nil, err
	}

	tickets, err := h.workflowService.InitiateFileUploads(ctx, actor, input.WorkflowID, input.Body.Filenames)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to create upload URLs")
	}
	return &operation.InitiateWorkflowUploadOutput{Body: toUploadResponse(tickets)}, nil
}

func (h *WorkflowHandler) CompleteWorkflowUpload(ctx context.Context, input *operation.CompleteWorkflowUploadInput) (*operation.CompleteWorkflowUploadOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}

	file, err := h.workflowService.CompleteFileUpload(ctx, actor, input.WorkflowID, input.FileID)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to complete upload")
	}
	return &operation.CompleteWorkflowUploadOutput{Body: toFileDTO(file)}, nil
}
