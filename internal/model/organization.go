package model

import "time"

// Organization is a tenant whose members share course enrollments.
type Organization struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Slug         string    `db:"slug" json:"slug"`
	ContactEmail string    `db:"contact_email" json:"contact_email"`
	MemberCount  int       `db:"member_count" json:"member_count"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

const (
	EnrollmentStatusActive  = "active"
	EnrollmentStatusExpired = "expired"
)

// Enrollment grants an organization's members access to a course.
type Enrollment struct {
	ID               string     `db:"id" json:"id"`
	OrganizationID   string     `db:"organization_id" json:"organization_id"`
	OrganizationName string     `db:"organization_name" json:"organization_name"`
	CourseID         string     `db:"course_id" json:"course_id"`
	CourseTitle      string     `db:"course_title" json:"course_title"`
	Status           string     `db:"status" json:"status"`
	EnrolledBy       string     `db:"enrolled_by" json:"enrolled_by"`
	EnrolledAt       time.Time  `db:"enrolled_at" json:"enrolled_at"`
	ExpiresAt        *time.Time `db:"expires_at" json:"expires_at"`
}

// IsActiveAt reports whether the enrollment grants access at t.
func (e *Enrollment) IsActiveAt(t time.Time) bool {
	if e.Status != EnrollmentStatusActive {
		return false
	}
	return e.ExpiresAt == nil || e.ExpiresAt.After(t)
}
