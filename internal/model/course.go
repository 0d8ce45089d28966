package model

import "time"

// Course is the root of the content tree: course → modules → lessons → files.
type Course struct {
	ID          string    `db:"id" json:"id"`
	Slug        string    `db:"slug" json:"slug"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	IsPublished bool      `db:"is_published" json:"is_published"`
	CreatedBy   string    `db:"created_by" json:"created_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Module groups lessons inside a course. Position is 1-based.
type Module struct {
	ID          string    `db:"id" json:"id"`
	CourseID    string    `db:"course_id" json:"course_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Position    int       `db:"position" json:"position"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

const (
	LessonTypeVideo    = "video"
	LessonTypeContent  = "content"
	LessonTypeDownload = "download"

	ContentFormatHTML     = "html"
	ContentFormatMarkdown = "markdown"
)

// Lesson is a single unit of a module. CourseID is resolved through the
// module and is read-only.
type Lesson struct {
	ID              string    `db:"id" json:"id"`
	ModuleID        string    `db:"module_id" json:"module_id"`
	CourseID        string    `db:"course_id" json:"course_id"`
	Title           string    `db:"title" json:"title"`
	LessonType      string    `db:"lesson_type" json:"lesson_type"`
	VideoURL        string    `db:"video_url" json:"video_url"`
	Content         string    `db:"content" json:"content"`
	ContentFormat   string    `db:"content_format" json:"content_format"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	Position        int       `db:"position" json:"position"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// ModuleOutline is a module together with its ordered lessons.
type ModuleOutline struct {
	Module
	Lessons []Lesson `json:"lessons"`
}

// CourseOutline is the learner-facing table of contents of a course.
type CourseOutline struct {
	Course
	Modules []ModuleOutline `json:"modules"`
}
