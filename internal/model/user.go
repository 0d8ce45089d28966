package model

import "time"

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Profile mirrors an identity from the external auth provider. ID is the
// token subject.
type Profile struct {
	ID             string    `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	FullName       string    `db:"full_name" json:"full_name"`
	Role           string    `db:"role" json:"role"`
	OrganizationID *string   `db:"organization_id" json:"organization_id"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

func (p *Profile) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// BelongsTo reports whether the profile is a member of the organization.
func (p *Profile) BelongsTo(organizationID string) bool {
	return p != nil && p.OrganizationID != nil && *p.OrganizationID == organizationID
}
