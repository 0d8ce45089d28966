package dto

import "time"

// UserUpsertDTO syncs the caller's profile. Email falls back to the token's
// email claim when omitted.
type UserUpsertDTO struct {
	FullName string `json:"full_name,omitempty" maxLength:"200" validate:"max=200" doc:"Display name"`
	Email    string `json:"email,omitempty" validate:"omitempty,email" doc:"Email, used when the token carries none"`
}

type UserUpdateMeDTO struct {
	FullName string `json:"full_name" minLength:"1" maxLength:"200" validate:"required,max=200" doc:"Display name"`
}

type UserResponseDTO struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	Role           string    `json:"role"`
	OrganizationID *string   `json:"organization_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type UserListResponseDTO struct {
	Users []UserResponseDTO `json:"users"`
	Total int               `json:"total"`
}

// AdminUserUpdateDTO changes a user's role or organization.
type AdminUserUpdateDTO struct {
	Role              *string `json:"role,omitempty" validate:"omitempty,oneof=admin member" doc:"admin or member"`
	OrganizationID    *string `json:"organization_id,omitempty" validate:"omitempty,uuid_str" doc:"Organization to move the user into"`
	ClearOrganization bool    `json:"clear_organization,omitempty" doc:"Detach the user from their organization"`
}

type RecentLessonDTO struct {
	LessonID       string    `json:"lesson_id"`
	LessonTitle    string    `json:"lesson_title"`
	CourseID       string    `json:"course_id"`
	CourseTitle    string    `json:"course_title"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
	Completed      bool      `json:"completed"`
}

type RecentLessonsResponseDTO struct {
	Lessons []RecentLessonDTO `json:"lessons"`
	Total   int               `json:"total"`
}
