package service

import (
	"context"
	"fmt"

	"coursehub/internal/model"
	"coursehub/internal/repository"

	"github.com/rs/zerolog"
)

// UserUpdate carries the admin-editable fields of a profile. A nil field is
// left unchanged; ClearOrganization detaches the user from their organization.
type UserUpdate struct {
	Role              *string
	OrganizationID    *string
	ClearOrganization bool
}

type UserService interface {
	// CreateOrUpdateMe syncs the caller's profile with the identity provider claims
	CreateOrUpdateMe(ctx context.Context, subject, email, fullName string) (*model.Profile, error)
	GetMe(ctx context.Context, subject string) (*model.Profile, error)
	UpdateMe(ctx context.Context, subject, fullName string) (*model.Profile, error)

	ListUsers(ctx context.Context, actor *model.Profile, organizationID *string, limit, offset int) ([]model.Profile, int, error)
	UpdateUser(ctx context.Context, actor *model.Profile, userID string, u UserUpdate) (*model.Profile, error)

	// ListMyCourses returns the courses the caller can open; admins see every course
	ListMyCourses(ctx context.Context, actor *model.Profile) ([]model.Course, error)
	ListRecentLessons(ctx context.Context, actor *model.Profile, limit, offset int) ([]model.RecentLesson, int, error)
}

type userService struct {
	userRepo     repository.UserRepository
	courseRepo   repository.CourseRepository
	progressRepo repository.ProgressRepository
	orgRepo      repository.OrganizationRepository
	logger       zerolog.Logger
}

func NewUserService(
	userRepo repository.UserRepository,
	courseRepo repository.CourseRepository,
	progressRepo repository.ProgressRepository,
	orgRepo repository.OrganizationRepository,
	logger zerolog.Logger,
) UserService {
	return &userService{
		userRepo:     userRepo,
		courseRepo:   courseRepo,
		progressRepo: progressRepo,
		orgRepo:      orgRepo,
		logger:       logger.With().Str("service", "UserService").Logger(),
	}
}

func (s *userService) CreateOrUpdateMe(ctx context.Context, subject, email, fullName string) (*model.Profile, error) {
	if email == "" {
		return nil, invalid("email is required")
	}
	p := &model.Profile{ID: subject, Email: email, FullName: fullName}
	if err := s.userRepo.UpsertProfile(ctx, p); err != nil {
		return nil, translate(err, "profile")
	}
	return p, nil
}

func (s *userService) GetMe(ctx context.Context, subject string) (*model.Profile, error) {
	p, err := s.userRepo.GetProfileByID(ctx, subject)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProfileMissing
	}
	return p, nil
}

func (s *userService) UpdateMe(ctx context.Context, subject, fullName string) (*model.Profile, error) {
	p, err := s.userRepo.UpdateFullName(ctx, subject, fullName)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProfileMissing
	}
	return p, nil
}

func (s *userService) ListUsers(ctx context.Context, actor *model.Profile, organizationID *string, limit, offset int) ([]model.Profile, int, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, 0, err
	}
	return s.userRepo.ListProfiles(ctx, organizationID, limit, offset)
}

func (s *userService) UpdateUser(ctx context.Context, actor *model.Profile, userID string, u UserUpdate) (*model.Profile, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	existing, err := s.userRepo.GetProfileByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, notFound("user", userID)
	}

	role := existing.Role
	if u.Role != nil {
		if *u.Role != model.RoleAdmin && *u.Role != model.RoleMember {
			return nil, invalid("unknown role %q", *u.Role)
		}
		role = *u.Role
	}
	if userID == actor.ID && role != model.RoleAdmin {
		return nil, fmt.Errorf("%w: you cannot remove your own admin role", ErrForbidden)
	}

	orgID := existing.OrganizationID
	switch {
	case u.ClearOrganization:
		orgID = nil
	case u.OrganizationID != nil:
		org, err := s.orgRepo.GetOrganizationByID(ctx, *u.OrganizationID)
		if err != nil {
			return nil, err
		}
		if org == nil {
			return nil, notFound("organization", *u.OrganizationID)
		}
		orgID = &org.ID
	}

	updated, err := s.userRepo.UpdateAccess(ctx, userID, role, orgID)
	if err != nil {
		return nil, translate(err, "user")
	}
	if updated == nil {
		return nil, notFound("user", userID)
	}
	s.logger.Info().
		Str("actor_id", actor.ID).
		Str("user_id", userID).
		Str("role", role).
		Msg("User access updated")
	return updated, nil
}

func (s *userService) ListMyCourses(ctx context.Context, actor *model.Profile) ([]model.Course, error) {
	if err := requireProfile(actor); err != nil {
		return nil, err
	}
	if actor.IsAdmin() {
		courses, _, err := s.courseRepo.ListCourses(ctx, 1000, 0)
		return courses, err
	}
	if actor.OrganizationID == nil {
		return []model.Course{}, nil
	}
	return s.courseRepo.ListCoursesForOrganization(ctx, *actor.OrganizationID)
}

func (s *userService) ListRecentLessons(ctx context.Context, actor *model.Profile, limit, offset int) ([]model.RecentLesson, int, error) {
	if err := requireProfile(actor); err != nil {
		return nil, 0, err
	}
	return s.progressRepo.ListRecentLessons(ctx, actor.ID, limit, offset)
}
