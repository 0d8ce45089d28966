package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"coursehub/internal/model"
	"coursehub/internal/repository"
	"coursehub/internal/util"

	"github.com/rs/zerolog"
)

type OrganizationInput struct {
	Name         string
	Slug         string // derived from Name when empty
	ContactEmail string
}

type OrganizationPatch struct {
	Name         *string
	Slug         *string
	ContactEmail *string
}

// OrganizationService is the admin surface for tenants and their course
// enrollments. Revoking an enrollment goes through DeletionService.
type OrganizationService interface {
	CreateOrganization(ctx context.Context, actor *model.Profile, in OrganizationInput) (*model.Organization, error)
	UpdateOrganization(ctx context.Context, actor *model.Profile, id string, p OrganizationPatch) (*model.Organization, error)
	GetOrganization(ctx context.Context, actor *model.Profile, id string) (*model.Organization, error)
	ListOrganizations(ctx context.Context, actor *model.Profile, limit, offset int) ([]model.Organization, int, error)
	ListMembers(ctx context.Context, actor *model.Profile, id string, limit, offset int) ([]model.Profile, int, error)

	// Enroll grants the organization access to the course. An expired
	// enrollment is reactivated; an active one is a conflict.
	Enroll(ctx context.Context, actor *model.Profile, organizationID, courseID string, expiresAt *time.Time) (*model.Enrollment, error)
	ListEnrollmentsByOrganization(ctx context.Context, actor *model.Profile, organizationID string) ([]model.Enrollment, error)
	ListEnrollmentsByCourse(ctx context.Context, actor *model.Profile, courseID string) ([]model.Enrollment, error)
}

type organizationService struct {
	orgRepo        repository.OrganizationRepository
	enrollmentRepo repository.EnrollmentRepository
	courseRepo     repository.CourseRepository
	userRepo       repository.UserRepository
	now            func() time.Time
	logger         zerolog.Logger
}

func NewOrganizationService(
	orgRepo repository.OrganizationRepository,
	enrollmentRepo repository.EnrollmentRepository,
	courseRepo repository.CourseRepository,
	userRepo repository.UserRepository,
	logger zerolog.Logger,
) OrganizationService {
	return &organizationService{
		orgRepo:        orgRepo,
		enrollmentRepo: enrollmentRepo,
		courseRepo:     courseRepo,
		userRepo:       userRepo,
		now:            time.Now,
		logger:         logger.With().Str("service", "OrganizationService").Logger(),
	}
}

func (s *organizationService) CreateOrganization(ctx context.Context, actor *model.Profile, in OrganizationInput) (*model.Organization, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	slug, err := resolveSlug(in.Slug, in.Name)
	if err != nil {
		return nil, err
	}
	o := &model.Organization{
		Name:         strings.TrimSpace(in.Name),
		Slug:         slug,
		ContactEmail: strings.TrimSpace(in.ContactEmail),
	}
	if err := s.orgRepo.CreateOrganization(ctx, o); err != nil {
		return nil, translate(err, fmt.Sprintf("organization slug %q", slug))
	}
	s.logger.Info().Str("organization_id", o.ID).Str("slug", o.Slug).Msg("Organization created")
	return o, nil
}

func (s *organizationService) UpdateOrganization(ctx context.Context, actor *model.Profile, id string, p OrganizationPatch) (*model.Organization, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	o, err := s.organization(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Name != nil {
		if strings.TrimSpace(*p.Name) == "" {
			return nil, invalid("name cannot be empty")
		}
		o.Name = strings.TrimSpace(*p.Name)
	}
	if p.Slug != nil {
		if !util.IsSlug(*p.Slug) {
			return nil, invalid("%q is not a valid slug", *p.Slug)
		}
		o.Slug = *p.Slug
	}
	if p.ContactEmail != nil {
		o.ContactEmail = strings.TrimSpace(*p.ContactEmail)
	}
	if err := s.orgRepo.UpdateOrganization(ctx, o); err != nil {
		return nil, translate(err, fmt.Sprintf("organization slug %q", o.Slug))
	}
	return o, nil
}

func (s *organizationService) GetOrganization(ctx context.Context, actor *model.Profile, id string) (*model.Organization, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.organization(ctx, id)
}

func (s *organizationService) ListOrganizations(ctx context.Context, actor *model.Profile, limit, offset int) ([]model.Organization, int, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, 0, err
	}
	return s.orgRepo.ListOrganizations(ctx, limit, offset)
}

func (s *organizationService) ListMembers(ctx context.Context, actor *model.Profile, id string, limit, offset int) ([]model.Profile, int, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, 0, err
	}
	if _, err := s.organization(ctx, id); err != nil {
		return nil, 0, err
	}
	return s.userRepo.ListProfiles(ctx, &id, limit, offset)
}

func (s *organizationService) Enroll(ctx context.Context, actor *model.Profile, organizationID, courseID string, expiresAt *time.Time) (*model.Enrollment, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if expiresAt != nil && !expiresAt.After(s.now()) {
		return nil, invalid("expires_at must be in the future")
	}
	if _, err := s.organization(ctx, organizationID); err != nil {
		return nil, err
	}
	c, err := s.courseRepo.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, notFound("course", courseID)
	}

	e := &model.Enrollment{
		OrganizationID: organizationID,
		CourseID:       courseID,
		EnrolledBy:     actor.ID,
		ExpiresAt:      expiresAt,
	}
	if err := s.enrollmentRepo.Enroll(ctx, e); err != nil {
		return nil, translate(err, "active enrollment")
	}
	ev := s.logger.Info().
		Str("enrollment_id", e.ID).
		Str("organization_id", organizationID).
		Str("course_id", courseID)
	if !c.IsPublished {
		ev = ev.Bool("course_unpublished", true)
	}
	ev.Msg("Organization enrolled")
	return e, nil
}

func (s *organizationService) ListEnrollmentsByOrganization(ctx context.Context, actor *model.Profile, organizationID string) ([]model.Enrollment, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := s.organization(ctx, organizationID); err != nil {
		return nil, err
	}
	return s.enrollmentRepo.ListEnrollmentsByOrganization(ctx, organizationID)
}

func (s *organizationService) ListEnrollmentsByCourse(ctx context.Context, actor *model.Profile, courseID string) ([]model.Enrollment, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	c, err := s.courseRepo.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, notFound("course", courseID)
	}
	return s.enrollmentRepo.ListEnrollmentsByCourse(ctx, courseID)
}

func (s *organizationService) organization(ctx context.Context, id string) (*model.Organization, error) {
	o, err := s.orgRepo.GetOrganizationByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, notFound("organization", id)
	}
	return o, nil
}
