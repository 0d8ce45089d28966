package service

import (
	"context"
	"testing"
	"time"

	"coursehub/internal/api/v1/dto"
	"coursehub/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserFixture(profiles ...*model.Profile) (UserService, *fakeUserRepo, *fakeCourseRepo) {
	users := newFakeUserRepo(profiles...)
	courses := newFakeCourseRepo()
	orgs := &fakeOrgRepo{orgs: map[string]*model.Organization{
		"org-acme": {ID: "org-acme", Name: "Acme", Slug: "acme"},
	}}
	return NewUserService(users, courses, newFakeProgressRepo(), orgs, zerolog.Nop()), users, courses
}

func TestCreateOrUpdateMe(t *testing.T) {
	svc, users, _ := newUserFixture()
	ctx := context.Background()

	p, err := svc.CreateOrUpdateMe(ctx, "user-1", "ada@example.com", "Ada")
	require.NoError(t, err)
	assert.Equal(t, model.RoleMember, p.Role)
	assert.Nil(t, p.OrganizationID)

	p, err = svc.CreateOrUpdateMe(ctx, "user-1", "ada@new.example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.FullName, "empty name keeps the stored one")
	assert.Equal(t, "ada@new.example.com", users.profiles["user-1"].Email)

	_, err = svc.CreateOrUpdateMe(ctx, "user-2", "", "Nobody")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetMeWithoutProfile(t *testing.T) {
	svc, _, _ := newUserFixture()
	_, err := svc.GetMe(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrProfileMissing)
}

func TestUpdateUser(t *testing.T) {
	member := &model.Profile{ID: "member-9", Email: "m@example.com", Role: model.RoleMember}
	svc, _, _ := newUserFixture(adminProfile, member)
	ctx := context.Background()

	p, err := svc.UpdateUser(ctx, adminProfile, member.ID, UserUpdate{OrganizationID: strPtr("org-acme")})
	require.NoError(t, err)
	require.NotNil(t, p.OrganizationID)
	assert.Equal(t, "org-acme", *p.OrganizationID)

	p, err = svc.UpdateUser(ctx, adminProfile, member.ID, UserUpdate{Role: strPtr(model.RoleAdmin), ClearOrganization: true})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, p.Role)
	assert.Nil(t, p.OrganizationID)

	_, err = svc.UpdateUser(ctx, adminProfile, adminProfile.ID, UserUpdate{Role: strPtr(model.RoleMember)})
	assert.ErrorIs(t, err, ErrForbidden, "admins cannot demote themselves")

	_, err = svc.UpdateUser(ctx, adminProfile, member.ID, UserUpdate{Role: strPtr("owner")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.UpdateUser(ctx, adminProfile, member.ID, UserUpdate{OrganizationID: strPtr("org-missing")})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.UpdateUser(ctx, memberProfile, member.ID, UserUpdate{})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestListMyCourses(t *testing.T) {
	svc, _, courses := newUserFixture()
	ctx := context.Background()
	courses.courses["c1"] = &model.Course{ID: "c1", IsPublished: true}
	courses.courses["c2"] = &model.Course{ID: "c2", IsPublished: false}
	courses.enrolled["org-acme/c1"] = true
	courses.enrolled["org-acme/c2"] = true

	mine, err := svc.ListMyCourses(ctx, memberProfile)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "c1", mine[0].ID)

	all, err := svc.ListMyCourses(ctx, adminProfile)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	none, err := svc.ListMyCourses(ctx, loneMember)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestEnroll(t *testing.T) {
	courses := newFakeCourseRepo()
	courses.courses["c1"] = &model.Course{ID: "c1", Title: "Go", IsPublished: true}
	orgs := &fakeOrgRepo{orgs: map[string]*model.Organization{"org-acme": {ID: "org-acme", Slug: "acme"}}}
	enrollments := &fakeEnrollmentRepo{byKey: map[string]*model.Enrollment{}}
	svc := NewOrganizationService(orgs, enrollments, courses, newFakeUserRepo(), zerolog.Nop())
	ctx := context.Background()

	e, err := svc.Enroll(ctx, adminProfile, "org-acme", "c1", nil)
	require.NoError(t, err)
	assert.Equal(t, adminProfile.ID, e.EnrolledBy)

	_, err = svc.Enroll(ctx, adminProfile, "org-acme", "c1", nil)
	assert.ErrorIs(t, err, ErrConflict)

	past := time.Now().Add(-time.Hour)
	enrollments.byKey["org-acme/c1"].ExpiresAt = &past
	_, err = svc.Enroll(ctx, adminProfile, "org-acme", "c1", nil)
	assert.NoError(t, err, "expired enrollment is reactivated")

	_, err = svc.Enroll(ctx, adminProfile, "org-acme", "c1", &past)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Enroll(ctx, adminProfile, "org-acme", "c404", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateOrganizationSlug(t *testing.T) {
	orgs := &fakeOrgRepo{orgs: map[string]*model.Organization{}}
	svc := NewOrganizationService(orgs, &fakeEnrollmentRepo{}, newFakeCourseRepo(), newFakeUserRepo(), zerolog.Nop())
	ctx := context.Background()

	o, err := svc.CreateOrganization(ctx, adminProfile, OrganizationInput{Name: "Acme Corp"})
	require.NoError(t, err)
	assert.Equal(t, "acme-corp", o.Slug)

	_, err = svc.CreateOrganization(ctx, adminProfile, OrganizationInput{Name: "ACME corp"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestDLQStoresPayloadAsJSON(t *testing.T) {
	repo := &fakeDLQRepo{}
	svc := NewDLQService(repo)
	ctx := context.Background()

	// base64 of {"audit_id":"a1"}
	require.NoError(t, svc.ProcessAndSave(ctx, &dto.PubSubPushRequest{
		Subscription: "projects/p/subscriptions/audit-dlq",
		Message:      dto.PubSubMessage{MessageID: "m1", Data: "eyJhdWRpdF9pZCI6ImExIn0=", Attributes: map[string]string{"severity": "high"}},
	}))
	require.NoError(t, svc.ProcessAndSave(ctx, &dto.PubSubPushRequest{
		Message: dto.PubSubMessage{MessageID: "m2", Data: "not base64!"},
	}))

	require.Len(t, repo.saved, 2)
	assert.JSONEq(t, `{"audit_id":"a1"}`, string(repo.saved[0].Payload))
	assert.JSONEq(t, `{"severity":"high"}`, string(repo.saved[0].Attributes))
	assert.JSONEq(t, `"not base64!"`, string(repo.saved[1].Payload))
	assert.Nil(t, repo.saved[1].Attributes)
	assert.Equal(t, "unprocessed", repo.saved[1].Status)
}
