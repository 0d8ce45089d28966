package dto

import "time"

type CourseCreateDTO struct {
	Title       string `json:"title" minLength:"1" maxLength:"200" validate:"required,max=200"`
	Slug        string `json:"slug,omitempty" maxLength:"80" validate:"omitempty,slug" doc:"Derived from the title when omitted"`
	Description string `json:"description,omitempty" maxLength:"5000" validate:"max=5000"`
	IsPublished bool   `json:"is_published,omitempty"`
}

type CourseUpdateDTO struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Slug        *string `json:"slug,omitempty" validate:"omitempty,slug"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=5000"`
	IsPublished *bool   `json:"is_published,omitempty"`
}

type CourseResponseDTO struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsPublished bool      `json:"is_published"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CourseListResponseDTO struct {
	Courses []CourseResponseDTO `json:"courses"`
	Total   int                 `json:"total"`
}

type ModuleCreateDTO struct {
	Title       string `json:"title" minLength:"1" maxLength:"200" validate:"required,max=200"`
	Description string `json:"description,omitempty" validate:"max=5000"`
	Position    int    `json:"position,omitempty" minimum:"0" doc:"1-based position; appended when 0"`
}

type ModuleUpdateDTO struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=5000"`
}

type ModuleResponseDTO struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"course_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ReorderDTO lists every child ID in the desired order.
type ReorderDTO struct {
	IDs []string `json:"ids" minItems:"1" validate:"required,min=1,dive,uuid_str"`
}

type LessonCreateDTO struct {
	Title           string `json:"title" minLength:"1" maxLength:"200" validate:"required,max=200"`
	LessonType      string `json:"lesson_type" enum:"video,content,download" validate:"required,oneof=video content download"`
	VideoURL        string `json:"video_url,omitempty" validate:"omitempty,url"`
	Content         string `json:"content,omitempty"`
	ContentFormat   string `json:"content_format,omitempty" enum:"html,markdown" validate:"omitempty,oneof=html markdown"`
	DurationMinutes int    `json:"duration_minutes,omitempty" minimum:"0"`
	Position        int    `json:"position,omitempty" minimum:"0"`
}

type LessonUpdateDTO struct {
	Title           *string `json:"title,omitempty" validate:"omitempty,max=200"`
	LessonType      *string `json:"lesson_type,omitempty" validate:"omitempty,oneof=video content download"`
	VideoURL        *string `json:"video_url,omitempty" validate:"omitempty,url"`
	Content         *string `json:"content,omitempty"`
	ContentFormat   *string `json:"content_format,omitempty" validate:"omitempty,oneof=html markdown"`
	DurationMinutes *int    `json:"duration_minutes,omitempty" validate:"omitempty,min=0"`
}

type LessonResponseDTO struct {
	ID              string    `json:"id"`
	ModuleID        string    `json:"module_id"`
	CourseID        string    `json:"course_id"`
	Title           string    `json:"title"`
	LessonType      string    `json:"lesson_type"`
	VideoURL        string    `json:"video_url"`
	DurationMinutes int       `json:"duration_minutes"`
	Position        int       `json:"position"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// LessonDetailResponseDTO is a lesson with its raw and rendered content.
type LessonDetailResponseDTO struct {
	LessonResponseDTO
	Content       string            `json:"content"`
	ContentFormat string            `json:"content_format"`
	ContentHTML   string            `json:"content_html"`
	Files         []FileResponseDTO `json:"files"`
}

type ModuleOutlineDTO struct {
	ModuleResponseDTO
	Lessons []LessonResponseDTO `json:"lessons"`
}

type CourseOutlineResponseDTO struct {
	CourseResponseDTO
	Modules []ModuleOutlineDTO `json:"modules"`
}

type LessonProgressUpdateDTO struct {
	Completed bool `json:"completed"`
}

type LessonProgressResponseDTO struct {
	LessonID       string     `json:"lesson_id"`
	CompletedAt    *time.Time `json:"completed_at"`
	LastAccessedAt time.Time  `json:"last_accessed_at"`
}

type CourseProgressResponseDTO struct {
	CourseID           string     `json:"course_id"`
	TotalLessons       int        `json:"total_lessons"`
	CompletedLessons   int        `json:"completed_lessons"`
	Percent            int        `json:"percent"`
	CompletedLessonIDs []string   `json:"completed_lesson_ids"`
	LastAccessedAt     *time.Time `json:"last_accessed_at"`
}
