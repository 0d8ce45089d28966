package operation

import "coursehub/internal/api/v1/dto"

// Workflow library Operations

type ListCategoriesInput struct{}

type ListCategoriesOutput struct {
	Body []dto.CategoryResponseDTO `json:"body"`
}

type ListDepartmentsInput struct {
	CategorySlug string `path:"categorySlug" doc:"Category slug"`
}

type ListDepartmentsOutput struct {
	Body []dto.DepartmentResponseDTO `json:"body"`
}

type SearchWorkflowsInput struct {
	Query         string `query:"q" maxLength:"200" doc:"Full-text search query"`
	Category      string `query:"category" doc:"Category slug"`
	Department    string `query:"department" doc:"Department slug"`
	IncludeDrafts bool   `query:"include_drafts" doc:"Include unpublished workflows (admins only)"`
	Limit         int    `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Number of workflows"`
	Offset        int    `query:"offset" default:"0" minimum:"0" doc:"Offset for pagination"`
}

type SearchWorkflowsOutput struct {
	Body dto.WorkflowSearchResponseDTO `json:"body"`
}

type GetWorkflowInput struct {
	Slug string `path:"slug" doc:"Workflow slug"`
}

type GetWorkflowOutput struct {
	Body dto.WorkflowDetailResponseDTO `json:"body"`
}

type GetWorkflowFileURLInput struct {
	Slug   string `path:"slug" doc:"Workflow slug"`
	FileID string `path:"fileId" doc:"File ID"`
}

type GetWorkflowFileURLOutput struct {
	Body dto.SignedURLResponseDTO `json:"body"`
}

type CreateCategoryInput struct {
	Body dto.CategoryCreateDTO `json:"body"`
}

type CreateCategoryOutput struct {
	Body dto.CategoryResponseDTO `json:"body"`
}

type CreateDepartmentInput struct {
	CategorySlug string                  `path:"categorySlug" doc:"Category slug"`
	Body         dto.DepartmentCreateDTO `json:"body"`
}

type CreateDepartmentOutput struct {
	Body dto.DepartmentResponseDTO `json:"body"`
}

type CreateWorkflowInput struct {
	Body dto.WorkflowCreateDTO `json:"body"`
}

type CreateWorkflowOutput struct {
	Body dto.WorkflowSummaryDTO `json:"body"`
}

type UpdateWorkflowInput struct {
	WorkflowID string                `path:"workflowId" doc:"Workflow ID"`
	Body       dto.WorkflowUpdateDTO `json:"body"`
}

type UpdateWorkflowOutput struct {
	Body dto.WorkflowSummaryDTO `json:"body"`
}

type InitiateWorkflowUploadInput struct {
	WorkflowID string                   `path:"workflowId" doc:"Workflow ID"`
	Body       dto.FileUploadRequestDTO `json:"body"`
}

type InitiateWorkflowUploadOutput struct {
	Body dto.FileUploadResponseDTO `json:"body"`
}

type CompleteWorkflowUploadInput struct {
	WorkflowID string `path:"workflowId" doc:"Workflow ID"`
	FileID     string `path:"fileId" doc:"File ID"`
}

type CompleteWorkflowUploadOutput struct {
	Body dto.FileResponseDTO `json:"body"`
}
