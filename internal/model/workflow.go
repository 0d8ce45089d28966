package model

import "time"

type WorkflowCategory struct {
	ID            string    `db:"id" json:"id"`
	Slug          string    `db:"slug" json:"slug"`
	Name          string    `db:"name" json:"name"`
	Description   string    `db:"description" json:"description"`
	Position      int       `db:"position" json:"position"`
	WorkflowCount int       `db:"workflow_count" json:"workflow_count"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

type WorkflowDepartment struct {
	ID            string    `db:"id" json:"id"`
	CategoryID    string    `db:"category_id" json:"category_id"`
	Slug          string    `db:"slug" json:"slug"`
	Name          string    `db:"name" json:"name"`
	Description   string    `db:"description" json:"description"`
	WorkflowCount int       `db:"workflow_count" json:"workflow_count"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Workflow is a business workflow sourced from a book.
type Workflow struct {
	ID             string    `db:"id" json:"id"`
	DepartmentID   string    `db:"department_id" json:"department_id"`
	DepartmentSlug string    `db:"department_slug" json:"department_slug"`
	CategorySlug   string    `db:"category_slug" json:"category_slug"`
	Slug           string    `db:"slug" json:"slug"`
	Title          string    `db:"title" json:"title"`
	Summary        string    `db:"summary" json:"summary"`
	Content        string    `db:"content" json:"content"`
	BookTitle      string    `db:"book_title" json:"book_title"`
	BookAuthor     string    `db:"book_author" json:"book_author"`
	Tags           []string  `db:"tags" json:"tags"`
	IsPublished    bool      `db:"is_published" json:"is_published"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`

	// Rank is only set for full-text search results.
	Rank float32 `db:"rank" json:"rank,omitempty"`
}

// WorkflowFilter narrows a catalog listing. An empty Query browses.
type WorkflowFilter struct {
	Query          string
	CategorySlug   string
	DepartmentSlug string
	IncludeDrafts  bool
	Limit          int
	Offset         int
}
