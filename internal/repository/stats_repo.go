package repository

import (
	"context"
	"fmt"

	"coursehub/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

type StatsRepository interface {
	GetAdminStats(ctx context.Context) (*model.AdminStats, error)
}

type statsRepo struct {
	pool *pgxpool.Pool
}

func NewStatsRepo(pool *pgxpool.Pool) StatsRepository {
	return &statsRepo{pool: pool}
}

func (r *statsRepo) GetAdminStats(ctx context.Context) (*model.AdminStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM courses),
			(SELECT COUNT(*) FROM courses WHERE is_published),
			(SELECT COUNT(*) FROM organizations),
			(SELECT COUNT(*) FROM profiles),
			(SELECT COUNT(*) FROM enrollments WHERE status = 'active' AND (expires_at IS NULL OR expires_at > now())),
			(SELECT COUNT(*) FROM workflows)
	`
	var s model.AdminStats
	if err := r.pool.QueryRow(ctx, query).Scan(
		&s.Courses,
		&s.PublishedCourses,
		&s.Organizations,
		&s.Users,
		&s.ActiveEnrollments,
		&s.Workflows,
	); err != nil {
		return nil, fmt.Errorf("computing admin stats: %w", err)
	}
	return &s, nil
}
