package dto

import "time"

type CategoryCreateDTO struct {
	Name        string `json:"name" minLength:"1" maxLength:"200" validate:"required,max=200"`
	Slug        string `json:"slug,omitempty" validate:"omitempty,slug"`
	Description string `json:"description,omitempty"`
	Position    int    `json:"position,omitempty" minimum:"0"`
}

type CategoryResponseDTO struct {
	ID            string `json:"id"`
	Slug          string `json:"slug"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Position      int    `json:"position"`
	WorkflowCount int    `json:"workflow_count"`
}

type DepartmentCreateDTO struct {
	Name        string `json:"name" minLength:"1" maxLength:"200" validate:"required,max=200"`
	Slug        string `json:"slug,omitempty" validate:"omitempty,slug"`
	Description string `json:"description,omitempty"`
}

type DepartmentResponseDTO struct {
	ID            string `json:"id"`
	CategoryID    string `json:"category_id"`
	Slug          string `json:"slug"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	WorkflowCount int    `json:"workflow_count"`
}

type WorkflowCreateDTO struct {
	DepartmentID string   `json:"department_id" validate:"required,uuid_str"`
	Slug         string   `json:"slug,omitempty" validate:"omitempty,slug"`
	Title        string   `json:"title" minLength:"1" maxLength:"200" validate:"required,max=200"`
	Summary      string   `json:"summary,omitempty" validate:"max=1000"`
	Content      string   `json:"content,omitempty" doc:"Markdown"`
	BookTitle    string   `json:"book_title,omitempty" validate:"max=300"`
	BookAuthor   string   `json:"book_author,omitempty" validate:"max=300"`
	Tags         []string `json:"tags,omitempty" maxItems:"20" validate:"max=20,dive,max=50"`
	IsPublished  bool     `json:"is_published,omitempty"`
}

type WorkflowUpdateDTO struct {
	DepartmentID *string   `json:"department_id,omitempty" validate:"omitempty,uuid_str"`
	Slug         *string   `json:"slug,omitempty" validate:"omitempty,slug"`
	Title        *string   `json:"title,omitempty" validate:"omitempty,max=200"`
	Summary      *string   `json:"summary,omitempty" validate:"omitempty,max=1000"`
	Content      *string   `json:"content,omitempty"`
	BookTitle    *string   `json:"book_title,omitempty" validate:"omitempty,max=300"`
	BookAuthor   *string   `json:"book_author,omitempty" validate:"omitempty,max=300"`
	Tags         *[]string `json:"tags,omitempty" validate:"omitempty,max=20,dive,max=50"`
	IsPublished  *bool     `json:"is_published,omitempty"`
}

type WorkflowSummaryDTO struct {
	ID             string    `json:"id"`
	Slug           string    `json:"slug"`
	Title          string    `json:"title"`
	Summary        string    `json:"summary"`
	CategorySlug   string    `json:"category_slug"`
	DepartmentSlug string    `json:"department_slug"`
	BookTitle      string    `json:"book_title"`
	BookAuthor     string    `json:"book_author"`
	Tags           []string  `json:"tags"`
	IsPublished    bool      `json:"is_published"`
	Rank           float32   `json:"rank,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type WorkflowSearchResponseDTO struct {
	Workflows []WorkflowSummaryDTO `json:"workflows"`
	Total     int                  `json:"total"`
}

type WorkflowDetailResponseDTO struct {
	WorkflowSummaryDTO
	DepartmentID string            `json:"department_id"`
	Content      string            `json:"content"`
	ContentHTML  string            `json:"content_html"`
	Files        []FileResponseDTO `json:"files"`
	CreatedAt    time.Time         `json:"created_at"`
}
