package service

import (
	"context"

	"coursehub/internal/model"
	"coursehub/internal/repository"
)

type StatsService interface {
	GetAdminStats(ctx context.Context, actor *model.Profile) (*model.AdminStats, error)
}

type statsService struct {
	repo repository.StatsRepository
}

func NewStatsService(repo repository.StatsRepository) StatsService {
	return &statsService{repo: repo}
}

func (s *statsService) GetAdminStats(ctx context.Context, actor *model.Profile) (*model.AdminStats, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.repo.GetAdminStats(ctx)
}
