package model

import "time"

// LessonProgress is a per-user completion/access timestamp on a lesson.
type LessonProgress struct {
	UserID         string     `db:"user_id" json:"user_id"`
	LessonID       string     `db:"lesson_id" json:"lesson_id"`
	CompletedAt    *time.Time `db:"completed_at" json:"completed_at"`
	LastAccessedAt time.Time  `db:"last_accessed_at" json:"last_accessed_at"`
}

// CourseProgress aggregates a user's lesson progress within a course.
type CourseProgress struct {
	CourseID           string     `json:"course_id"`
	TotalLessons       int        `json:"total_lessons"`
	CompletedLessons   int        `json:"completed_lessons"`
	CompletedLessonIDs []string   `json:"completed_lesson_ids"`
	LastAccessedAt     *time.Time `json:"last_accessed_at"`
}

// Percent returns the completion ratio rounded down to a whole percent.
func (p CourseProgress) Percent() int {
	if p.TotalLessons == 0 {
		return 0
	}
	return p.CompletedLessons * 100 / p.TotalLessons
}

// RecentLesson is a lesson the user opened recently, with enough context to
// link back into the course.
type RecentLesson struct {
	LessonID       string    `db:"lesson_id" json:"lesson_id"`
	LessonTitle    string    `db:"lesson_title" json:"lesson_title"`
	CourseID       string    `db:"course_id" json:"course_id"`
	CourseTitle    string    `db:"course_title" json:"course_title"`
	LastAccessedAt time.Time `db:"last_accessed_at" json:"last_accessed_at"`
	Completed      bool      `db:"completed" json:"completed"`
}
