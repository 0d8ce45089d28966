package handler

import (
	"context"
	"time"

	"coursehub/internal/api/v1/dto"
	"coursehub/internal/api/v1/operation"
	"coursehub/internal/model"
	"coursehub/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type OrganizationHandler struct {
	orgService service.OrganizationService
	validate   *validator.Validate
	logger     zerolog.Logger
}

func NewOrganizationHandler(orgService service.OrganizationService, validate *validator.Validate, logger zerolog.Logger) *OrganizationHandler {
	return &OrganizationHandler{
		orgService: orgService,
		validate:   validate,
		logger:     logger,
	}
}

func (h *OrganizationHandler) ListOrganizations(ctx context.Context, input *operation.ListOrganizationsInput) (*operation.ListOrganizationsOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}

	orgs, total, err := h.orgService.ListOrganizations(ctx, actor, input.Limit, input.Offset)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to list organizations")
	}
	out := make([]dto.OrganizationResponseDTO, 0, len(orgs))
	for i := range orgs {
		out = append(out, toOrganizationDTO(&orgs[i]))
	}
	return &operation.ListOrganizationsOutput{
		Body: dto.OrganizationListResponseDTO{Organizations: out, Total: total},
	}, nil
}

func (h *OrganizationHandler) CreateOrganization(ctx context.Context, input *operation.CreateOrganizationInput) (*operation.CreateOrganizationOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, input.Body); err != nil {
		return nil, err
	}

	org, err := h.orgService.CreateOrganization(ctx, actor, service.OrganizationInput{
		Name:         input.Body.Name,
		Slug:         input.Body.Slug,
		ContactEmail: input.Body.ContactEmail,
	})
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to create organization")
	}
	return &operation.CreateOrganizationOutput{Body: toOrganizationDTO(org)}, nil
}

func (h *OrganizationHandler) GetOrganization(ctx context.Context, input *operation.GetOrganizationInput) (*operation.GetOrganizationOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}

	org, err := h.orgService.GetOrganization(ctx, actor, input.OrgID)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to retrieve organization")
	}
	return &operation.GetOrganizationOutput{Body: toOrganizationDTO(org)}, nil
}

func (h *OrganizationHandler) UpdateOrganization(ctx context.Context, input *operation.UpdateOrganizationInput) (*operation.UpdateOrganizationOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, input.Body); err != nil {
		return nil, err
	}

	org, err := h.orgService.UpdateOrganization(ctx, actor, input.OrgID, service.OrganizationPatch{
		Name:         input.Body.Name,
		Slug:         input.Body.Slug,
		ContactEmail: input.Body.ContactEmail,
	})
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to update organization")
	}
	return &operation.UpdateOrganizationOutput{Body: toOrganizationDTO(org)}, nil
}

func (h *OrganizationHandler) ListMembers(ctx context.Context, input *operation.ListMembersInput) (*operation.ListMembersOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}

	members, total, err := h.orgService.ListMembers(ctx, actor, input.OrgID, input.Limit, input.Offset)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to list members")
	}
	return &operation.ListMembersOutput{
		Body: dto.UserListResponseDTO{Users: toUserDTOs(members), Total: total},
	}, nil
}

// CreateEnrollment grants an organization access to a course
func (h *OrganizationHandler) CreateEnrollment(ctx context.Context, input *operation.CreateEnrollmentInput) (*operation.CreateEnrollmentOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, input.Body); err != nil {
		return nil, err
	}

	e, err := h.orgService.Enroll(ctx, actor, input.OrgID, input.Body.CourseID, input.Body.ExpiresAt)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to enroll organization")
	}
	return &operation.CreateEnrollmentOutput{Body: toEnrollmentDTO(e, e.IsActiveAt(time.Now()))}, nil
}

func (h *OrganizationHandler) ListOrganizationEnrollments(ctx context.Context, input *operation.ListOrganizationEnrollmentsInput) (*operation.ListEnrollmentsOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}

	enrollments, err := h.orgService.ListEnrollmentsByOrganization(ctx, actor, input.OrgID)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to list enrollments")
	}
	return &operation.ListEnrollmentsOutput{Body: toEnrollmentList(enrollments)}, nil
}

func (h *OrganizationHandler) ListCourseEnrollments(ctx context.Context, input *operation.ListCourseEnrollmentsInput) (*operation.ListEnrollmentsOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}

	enrollments, err := h.orgService.ListEnrollmentsByCourse(ctx, actor, input.CourseID)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to list enrollments")
	}
	return &operation.ListEnrollmentsOutput{Body: toEnrollmentList(enrollments)}, nil
}

func toEnrollmentList(enrollments []model.Enrollment) dto.EnrollmentListResponseDTO {
	now := time.Now()
	out := make([]dto.EnrollmentResponseDTO, 0, len(enrollments))
	for i := range enrollments {
		out = append(out, toEnrollmentDTO(&enrollments[i], enrollments[i].IsActiveAt(now)))
	}
	return dto.EnrollmentListResponseDTO{Enrollments: out}
}
