package handler

import (
	"context"

	"coursehub/internal/api/v1/dto"
	"coursehub/internal/api/v1/operation"
	"coursehub/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// UserHandler implements Huma-based user operations
type UserHandler struct {
	userService  service.UserService
	statsService service.StatsService
	validate     *validator.Validate
	logger       zerolog.Logger
}

func NewUserHandler(userService service.UserService, statsService service.StatsService, validate *validator.Validate, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		userService:  userService,
		statsService: statsService,
		validate:     validate,
		logger:       logger,
	}
}

// CreateUser creates or updates the caller's profile from the token claims
func (h *UserHandler) CreateUser(ctx context.Context, input *operation.CreateUserInput) (*operation.CreateUserOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, input.Body); err != nil {
		return nil, err
	}

	email := getEmailFromContext(ctx)
	if email == "" {
		email = input.Body.Email
	}
	profile, err := h.userService.CreateOrUpdateMe(ctx, userID, email, input.Body.FullName)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to create user")
	}
	return &operation.CreateUserOutput{Body: toUserDTO(profile)}, nil
}

// GetUser retrieves the authenticated user's profile
func (h *UserHandler) GetUser(ctx context.Context, input *operation.GetUserInput) (*operation.GetUserOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	profile, err := h.userService.GetMe(ctx, userID)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to get user")
	}
	return &operation.GetUserOutput{Body: toUserDTO(profile)}, nil
}

func (h *UserHandler) UpdateUser(ctx context.Context, input *operation.UpdateUserInput) (*operation.UpdateUserOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, input.Body); err != nil {
		return nil, err
	}

	profile, err := h.userService.UpdateMe(ctx, userID, input.Body.FullName)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to update user")
	}
	return &operation.UpdateUserOutput{Body: toUserDTO(profile)}, nil
}

// GetUserCourses lists the courses the caller can open
func (h *UserHandler) GetUserCourses(ctx context.Context, input *operation.GetUserCoursesInput) (*operation.GetUserCoursesOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}

	courses, err := h.userService.ListMyCourses(ctx, actor)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to retrieve user courses")
	}
	return &operation.GetUserCoursesOutput{Body: toCourseDTOs(courses)}, nil
}

// GetRecentLessons retrieves recently opened lessons for the caller
func (h *UserHandler) GetRecentLessons(ctx context.Context, input *operation.GetRecentLessonsInput) (*operation.GetRecentLessonsOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}

	recents, total, err := h.userService.ListRecentLessons(ctx, actor, input.Limit, input.Offset)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to retrieve recent lessons")
	}

	lessons := make([]dto.RecentLessonDTO, 0, len(recents))
	for _, r := range recents {
		lessons = append(lessons, dto.RecentLessonDTO{
			LessonID:       r.LessonID,
			LessonTitle:    r.LessonTitle,
			CourseID:       r.CourseID,
			CourseTitle:    r.CourseTitle,
			LastAccessedAt: r.LastAccessedAt,
			Completed:      r.Completed,
		})
	}
	return &operation.GetRecentLessonsOutput{
		Body: dto.RecentLessonsResponseDTO{Lessons: lessons, Total: total},
	}, nil
}

func (h *UserHandler) ListUsers(ctx context.Context, input *operation.ListUsersInput) (*operation.ListUsersOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var orgID *string
	if input.OrganizationID != "" {
		orgID = &input.OrganizationID
	}
	users, total, err := h.userService.ListUsers(ctx, actor, orgID, input.Limit, input.Offset)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to list users")
	}
	return &operation.ListUsersOutput{
		Body: dto.UserListResponseDTO{Users: toUserDTOs(users), Total: total},
	}, nil
}

// AdminUpdateUser changes another user's role or organization
func (h *UserHandler) AdminUpdateUser(ctx context.Context, input *operation.AdminUpdateUserInput) (*operation.AdminUpdateUserOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, input.Body); err != nil {
		return nil, err
	}

	profile, err := h.userService.UpdateUser(ctx, actor, input.UserID, service.UserUpdate{
		Role:              input.Body.Role,
		OrganizationID:    input.Body.OrganizationID,
		ClearOrganization: input.Body.ClearOrganization,
	})
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to update user")
	}

	h.logger.Info().
		Str("actor_id", actor.ID).
		Str("user_id", profile.ID).
		Str("role", profile.Role).
		Msg("User access updated")
	return &operation.AdminUpdateUserOutput{Body: toUserDTO(profile)}, nil
}

func (h *UserHandler) GetAdminStats(ctx context.Context, input *operation.GetAdminStatsInput) (*operation.GetAdminStatsOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := h.statsService.GetAdminStats(ctx, actor)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to load stats")
	}
	return &operation.GetAdminStatsOutput{Body: dto.AdminStatsDTO(*stats)}, nil
}
