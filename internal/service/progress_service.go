package service

import (
	"context"

	"coursehub/internal/model"
	"coursehub/internal/repository"
)

type ProgressService interface {
	RecordAccess(ctx context.Context, actor *model.Profile, lessonID string) error
	SetCompletion(ctx context.Context, actor *model.Profile, lessonID string, completed bool) (*model.LessonProgress, error)
	GetCourseProgress(ctx context.Context, actor *model.Profile, courseID string) (*model.CourseProgress, error)
}

type progressService struct {
	repo    repository.ProgressRepository
	courses CourseService
}

func NewProgressService(repo repository.ProgressRepository, courses CourseService) ProgressService {
	return &progressService{repo: repo, courses: courses}
}

func (s *progressService) RecordAccess(ctx context.Context, actor *model.Profile, lessonID string) error {
	if _, err := s.courses.AuthorizeLesson(ctx, actor, lessonID); err != nil {
		return err
	}
	return s.repo.TouchLesson(ctx, actor.ID, lessonID)
}

func (s *progressService) SetCompletion(ctx context.Context, actor *model.Profile, lessonID string, completed bool) (*model.LessonProgress, error) {
	if _, err := s.courses.AuthorizeLesson(ctx, actor, lessonID); err != nil {
		return nil, err
	}
	p, err := s.repo.SetCompleted(ctx, actor.ID, lessonID, completed)
	if err != nil {
		return nil, translate(err, "lesson progress")
	}
	return p, nil
}

func (s *progressService) GetCourseProgress(ctx context.Context, actor *model.Profile, courseID string) (*model.CourseProgress, error) {
	if _, err := s.courses.AuthorizeCourse(ctx, actor, courseID); err != nil {
		return nil, err
	}
	return s.repo.GetCourseProgress(ctx, actor.ID, courseID)
}
