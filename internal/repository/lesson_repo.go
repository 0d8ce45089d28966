package repository

import (
	"context"
	"errors"
	"fmt"

	"coursehub/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LessonRepository interface {
	// CreateLesson appends the lesson to its module when Position is zero
	CreateLesson(ctx context.Context, l *model.Lesson) error
	GetLessonByID(ctx context.Context, lessonID string) (*model.Lesson, error)
	UpdateLesson(ctx context.Context, l *model.Lesson) error
	ListLessonsByModule(ctx context.Context, moduleID string) ([]model.Lesson, error)
	// ListLessonsByCourse returns every lesson of the course ordered by module then lesson position
	ListLessonsByCourse(ctx context.Context, courseID string) ([]model.Lesson, error)
	ReorderLessons(ctx context.Context, moduleID string, orderedIDs []string) error
}

type lessonRepo struct {
	pool *pgxpool.Pool
}

func NewLessonRepo(pool *pgxpool.Pool) LessonRepository {
	return &lessonRepo{pool: pool}
}

const lessonColumns = `l.id, l.module_id, m.course_id, l.title, l.lesson_type, l.video_url, l.content,
	l.content_format, l.duration_minutes, l.position, l.created_at, l.updated_at`

func scanLesson(row pgx.Row, l *model.Lesson) error {
	return row.Scan(
		&l.ID,
		&l.ModuleID,
		&l.CourseID,
		&l.Title,
		&l.LessonType,
		&l.VideoURL,
		&l.Content,
		&l.ContentFormat,
		&l.DurationMinutes,
		&l.Position,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
}

func (r *lessonRepo) CreateLesson(ctx context.Context, l *model.Lesson) error {
	query := `
		WITH inserted AS (
			INSERT INTO lessons (module_id, title, lesson_type, video_url, content, content_format, duration_minutes, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7,
				CASE WHEN $8::int > 0 THEN $8::int
				ELSE (SELECT COALESCE(MAX(position), 0) + 1 FROM lessons WHERE module_id = $1) END)
			RETURNING *
		)
		SELECT ` + lessonColumns + `
		FROM inserted l
		JOIN modules m ON m.id = l.module_id
	`
	err := scanLesson(r.pool.QueryRow(ctx, query,
		l.ModuleID, l.Title, l.LessonType, l.VideoURL, l.Content, l.ContentFormat, l.DurationMinutes, l.Position,
	), l)
	if err != nil {
		return wrapErr(err, fmt.Sprintf("creating lesson in module %s", l.ModuleID))
	}
	return nil
}

func (r *lessonRepo) GetLessonByID(ctx context.Context, lessonID string) (*model.Lesson, error) {
	query := `
		SELECT ` + lessonColumns + `
		FROM lessons l
		JOIN modules m ON m.id = l.module_id
		WHERE l.id = $1
	`
	var l model.Lesson
	if err := scanLesson(r.pool.QueryRow(ctx, query, lessonID), &l); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting lesson %s: %w", lessonID, err)
	}
	return &l, nil
}

func (r *lessonRepo) UpdateLesson(ctx context.Context, l *model.Lesson) error {
	query := `
		WITH updated AS (
			UPDATE lessons
			SET title = $2, lesson_type = $3, video_url = $4, content = $5,
			    content_format = $6, duration_minutes = $7, updated_at = now()
			WHERE id = $1
			RETURNING *
		)
		SELECT ` + lessonColumns + `
		FROM updated l
		JOIN modules m ON m.id = l.module_id
	`
	err := scanLesson(r.pool.QueryRow(ctx, query,
		l.ID, l.Title, l.LessonType, l.VideoURL, l.Content, l.ContentFormat, l.DurationMinutes,
	), l)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return wrapErr(err, fmt.Sprintf("updating lesson %s", l.ID))
	}
	return nil
}

func (r *lessonRepo) ListLessonsByModule(ctx context.Context, moduleID string) ([]model.Lesson, error) {
	query := `
		SELECT ` + lessonColumns + `
		FROM lessons l
		JOIN modules m ON m.id = l.module_id
		WHERE l.module_id = $1
		ORDER BY l.position, l.created_at
	`
	return r.list(ctx, query, moduleID)
}

func (r *lessonRepo) ListLessonsByCourse(ctx context.Context, courseID string) ([]model.Lesson, error) {
	query := `
		SELECT ` + lessonColumns + `
		FROM lessons l
		JOIN modules m ON m.id = l.module_id
		WHERE m.course_id = $1
		ORDER BY m.position, l.position, l.created_at
	`
	return r.list(ctx, query, courseID)
}

func (r *lessonRepo) list(ctx context.Context, query string, arg string) ([]model.Lesson, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("querying lessons: %w", err)
	}
	defer rows.Close()

	lessons := []model.Lesson{}
	for rows.Next() {
		var l model.Lesson
		if err := scanLesson(rows, &l); err != nil {
			return nil, fmt.Errorf("scanning lesson row: %w", err)
		}
		lessons = append(lessons, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating lesson rows: %w", err)
	}
	return lessons, nil
}

func (r *lessonRepo) ReorderLessons(ctx context.Context, moduleID string, orderedIDs []string) error {
	return reorder(ctx, r.pool, "lessons", "module_id", moduleID, orderedIDs)
}
