package operation

import "coursehub/internal/api/v1/dto"

// Organization Operations

type ListOrganizationsInput struct {
	Limit  int `query:"limit" default:"50" minimum:"1" maximum:"200" doc:"Number of organizations"`
	Offset int `query:"offset" default:"0" minimum:"0" doc:"Offset for pagination"`
}

type ListOrganizationsOutput struct {
	Body dto.OrganizationListResponseDTO `json:"body"`
}

type CreateOrganizationInput struct {
	Body dto.OrganizationCreateDTO `json:"body"`
}

type CreateOrganizationOutput struct {
	Body dto.OrganizationResponseDTO `json:"body"`
}

type GetOrganizationInput struct {
	OrgID string `path:"orgId" doc:"Organization ID"`
}

type GetOrganizationOutput struct {
	Body dto.OrganizationResponseDTO `json:"body"`
}

type UpdateOrganizationInput struct {
	OrgID string                    `path:"orgId" doc:"Organization ID"`
	Body  dto.OrganizationUpdateDTO `json:"body"`
}

type UpdateOrganizationOutput struct {
	Body dto.OrganizationResponseDTO `json:"body"`
}

type ListMembersInput struct {
	OrgID  string `path:"orgId" doc:"Organization ID"`
	Limit  int    `query:"limit" default:"50" minimum:"1" maximum:"200" doc:"Number of members"`
	Offset int    `query:"offset" default:"0" minimum:"0" doc:"Offset for pagination"`
}

type ListMembersOutput struct {
	Body dto.UserListResponseDTO `json:"body"`
}

// Enrollment Operations

type CreateEnrollmentInput struct {
	OrgID string                  `path:"orgId" doc:"Organization ID"`
	Body  dto.EnrollmentCreateDTO `json:"body"`
}

type CreateEnrollmentOutput struct {
	Body dto.EnrollmentResponseDTO `json:"body"`
}

type ListOrganizationEnrollmentsInput struct {
	OrgID string `path:"orgId" doc:"Organization ID"`
}

type ListCourseEnrollmentsInput struct {
	CourseID string `path:"courseId" doc:"Course ID"`
}

type ListEnrollmentsOutput struct {
	Body dto.EnrollmentListResponseDTO `json:"body"`
}
