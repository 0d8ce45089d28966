package repository

import (
	"context"
	"fmt"

	"coursehub/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ProgressRepository tracks per-user lesson access and completion
type ProgressRepository interface {
	// TouchLesson records that the user opened the lesson
	TouchLesson(ctx context.Context, userID, lessonID string) error
	SetCompleted(ctx context.Context, userID, lessonID string, completed bool) (*model.LessonProgress, error)
	GetCourseProgress(ctx context.Context, userID, courseID string) (*model.CourseProgress, error)
	ListRecentLessons(ctx context.Context, userID string, limit, offset int) ([]model.RecentLesson, int, error)
}

type progressRepo struct {
	pool *pgxpool.Pool
}

func NewProgressRepo(pool *pgxpool.Pool) ProgressRepository {
	return &progressRepo{pool: pool}
}

func (r *progressRepo) TouchLesson(ctx context.Context, userID, lessonID string) error {
	query := `
		INSERT INTO lesson_progress (user_id, lesson_id, last_accessed_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id, lesson_id) DO UPDATE SET last_accessed_at = now()
	`
	if _, err := r.pool.Exec(ctx, query, userID, lessonID); err != nil {
		return wrapErr(err, fmt.Sprintf("recording access of lesson %s", lessonID))
	}
	return nil
}

func (r *progressRepo) SetCompleted(ctx context.Context, userID, lessonID string, completed bool) (*model.LessonProgress, error) {
	// Re-completing keeps the original completion time.
	query := `
		INSERT INTO lesson_progress (user_id, lesson_id, completed_at, last_accessed_at)
		VALUES ($1, $2, CASE WHEN $3 THEN now() END, now())
		ON CONFLICT (user_id, lesson_id) DO UPDATE
		SET completed_at = CASE WHEN $3 THEN COALESCE(lesson_progress.completed_at, now()) END,
		    last_accessed_at = now()
		RETURNING user_id, lesson_id, completed_at, last_accessed_at
	`
	var p model.LessonProgress
	if err := r.pool.QueryRow(ctx, query, userID, lessonID, completed).Scan(&p.UserID, &p.LessonID, &p.CompletedAt, &p.LastAccessedAt); err != nil {
		return nil, wrapErr(err, fmt.Sprintf("setting completion of lesson %s", lessonID))
	}
	return &p, nil
}

func (r *progressRepo) GetCourseProgress(ctx context.Context, userID, courseID string) (*model.CourseProgress, error) {
	query := `
		SELECT
			COUNT(l.id),
			COALESCE(array_agg(l.id::text) FILTER (WHERE lp.completed_at IS NOT NULL), '{}'),
			MAX(lp.last_accessed_at)
		FROM lessons l
		JOIN modules m ON m.id = l.module_id
		LEFT JOIN lesson_progress lp ON lp.lesson_id = l.id AND lp.user_id = $1
		WHERE m.course_id = $2
	`
	p := model.CourseProgress{CourseID: courseID}
	if err := r.pool.QueryRow(ctx, query, userID, courseID).Scan(&p.TotalLessons, &p.CompletedLessonIDs, &p.LastAccessedAt); err != nil {
		return nil, fmt.Errorf("computing progress for course %s: %w", courseID, err)
	}
	p.CompletedLessons = len(p.CompletedLessonIDs)
	return &p, nil
}

func (r *progressRepo) ListRecentLessons(ctx context.Context, userID string, limit, offset int) ([]model.RecentLesson, int, error) {
	limit, offset = pageArgs(limit, offset)
	query := `
		SELECT l.id, l.title, c.id, c.title, lp.last_accessed_at, lp.completed_at IS NOT NULL, COUNT(*) OVER ()
		FROM lesson_progress lp
		JOIN lessons l ON l.id = lp.lesson_id
		JOIN modules m ON m.id = l.module_id
		JOIN courses c ON c.id = m.course_id
		WHERE lp.user_id = $1
		ORDER BY lp.last_accessed_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("querying recent lessons for %s: %w", userID, err)
	}
	defer rows.Close()

	recents := []model.RecentLesson{}
	total := 0
	for rows.Next() {
		var rl model.RecentLesson
		if err := rows.Scan(&rl.LessonID, &rl.LessonTitle, &rl.CourseID, &rl.CourseTitle, &rl.LastAccessedAt, &rl.Completed, &total); err != nil {
			return nil, 0, fmt.Errorf("scanning recent lesson row: %w", err)
		}
		recents = append(recents, rl)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating recent lesson rows: %w", err)
	}
	total, err = pageTotal(ctx, r.pool, total, len(recents), offset, `SELECT COUNT(*) FROM lesson_progress WHERE user_id = $1`, userID)
	if err != nil {
		return nil, 0, err
	}
	return recents, total, nil
}
