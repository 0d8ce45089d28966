package dto

import "time"

type OrganizationCreateDTO struct {
	Name         string `json:"name" minLength:"1" maxLength:"200" validate:"required,max=200"`
	Slug         string `json:"slug,omitempty" validate:"omitempty,slug"`
	ContactEmail string `json:"contact_email,omitempty" validate:"omitempty,email"`
}

type OrganizationUpdateDTO struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Slug         *string `json:"slug,omitempty" validate:"omitempty,slug"`
	ContactEmail *string `json:"contact_email,omitempty" validate:"omitempty,email"`
}

type OrganizationResponseDTO struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	ContactEmail string    `json:"contact_email"`
	MemberCount  int       `json:"member_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type OrganizationListResponseDTO struct {
	Organizations []OrganizationResponseDTO `json:"organizations"`
	Total         int                       `json:"total"`
}

type EnrollmentCreateDTO struct {
	CourseID  string     `json:"course_id" validate:"required,uuid_str"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" doc:"Access ends at this instant; never when omitted"`
}

type EnrollmentResponseDTO struct {
	ID               string     `json:"id"`
	OrganizationID   string     `json:"organization_id"`
	OrganizationName string     `json:"organization_name"`
	CourseID         string     `json:"course_id"`
	CourseTitle      string     `json:"course_title"`
	Status           string     `json:"status"`
	Active           bool       `json:"active"`
	EnrolledBy       string     `json:"enrolled_by"`
	EnrolledAt       time.Time  `json:"enrolled_at"`
	ExpiresAt        *time.Time `json:"expires_at"`
}

type EnrollmentListResponseDTO struct {
	Enrollments []EnrollmentResponseDTO `json:"enrollments"`
}
