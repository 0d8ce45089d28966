package operation

import "coursehub/internal/api/v1/dto"

// User Operations

type CreateUserInput struct {
	Body dto.UserUpsertDTO `json:"body"`
}

type CreateUserOutput struct {
	Body dto.UserResponseDTO `json:"body"`
}

type GetUserInput struct{}

type GetUserOutput struct {
	Body dto.UserResponseDTO `json:"body"`
}

type UpdateUserInput struct {
	Body dto.UserUpdateMeDTO `json:"body"`
}

type UpdateUserOutput struct {
	Body dto.UserResponseDTO `json:"body"`
}

type GetUserCoursesInput struct{}

type GetUserCoursesOutput struct {
	Body []dto.CourseResponseDTO `json:"body"`
}

type GetRecentLessonsInput struct {
	Limit  int `query:"limit" default:"10" minimum:"1" maximum:"100" doc:"Number of lessons"`
	Offset int `query:"offset" default:"0" minimum:"0" doc:"Offset for pagination"`
}

type GetRecentLessonsOutput struct {
	Body dto.RecentLessonsResponseDTO `json:"body"`
}

// Admin user management

type ListUsersInput struct {
	OrganizationID string `query:"organization_id" doc:"Only users of this organization"`
	Limit          int    `query:"limit" default:"50" minimum:"1" maximum:"200" doc:"Number of users"`
	Offset         int    `query:"offset" default:"0" minimum:"0" doc:"Offset for pagination"`
}

type ListUsersOutput struct {
	Body dto.UserListResponseDTO `json:"body"`
}

type AdminUpdateUserInput struct {
	UserID string                 `path:"userId" doc:"User ID"`
	Body   dto.AdminUserUpdateDTO `json:"body"`
}

type AdminUpdateUserOutput struct {
	Body dto.UserResponseDTO `json:"body"`
}

type GetAdminStatsInput struct{}

type GetAdminStatsOutput struct {
	Body dto.AdminStatsDTO `json:"body"`
}
