package model

import "time"

const (
	AuditOutcomeAssessed = "assessed"
	AuditOutcomeBlocked  = "blocked"
	AuditOutcomeRejected = "rejected"
	AuditOutcomeExecuted = "executed"
	AuditOutcomeFailed   = "failed"
)

// DeletionAudit is one row of the deletion audit trail. Impact holds the
// JSON-encoded impact assessment at the time of the attempt.
type DeletionAudit struct {
	ID         string    `db:"id" json:"id"`
	ActorID    string    `db:"actor_id" json:"actor_id"`
	EntityType string    `db:"entity_type" json:"entity_type"`
	EntityID   string    `db:"entity_id" json:"entity_id"`
	EntityName string    `db:"entity_name" json:"entity_name"`
	Severity   string    `db:"severity" json:"severity"`
	Outcome    string    `db:"outcome" json:"outcome"`
	Reason     string    `db:"reason" json:"reason"`
	Impact     []byte    `db:"impact" json:"impact"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AdminStats is the admin dashboard summary.
type AdminStats struct {
	Courses           int `db:"courses" json:"courses"`
	PublishedCourses  int `db:"published_courses" json:"published_courses"`
	Organizations     int `db:"organizations" json:"organizations"`
	Users             int `db:"users" json:"users"`
	ActiveEnrollments int `db:"active_enrollments" json:"active_enrollments"`
	Workflows         int `db:"workflows" json:"workflows"`
}
