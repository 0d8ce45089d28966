package dto

import (
	"time"

	"coursehub/internal/deletion"
)

type DeletionAssessmentDTO struct {
	EntityType           string          `json:"entity_type"`
	EntityID             string          `json:"entity_id"`
	EntityName           string          `json:"entity_name"`
	Severity             string          `json:"severity" enum:"low,medium,high,critical"`
	RequiresConfirmation bool            `json:"requires_confirmation"`
	ConfirmationPhrase   string          `json:"confirmation_phrase,omitempty" doc:"Text to send back as confirmation_text"`
	RequiresAcknowledge  bool            `json:"requires_acknowledge" doc:"acknowledge_critical=true is needed"`
	Blocked              bool            `json:"blocked"`
	Blockers             []string        `json:"blockers"`
	Warnings             []string        `json:"warnings"`
	Impact               deletion.Impact `json:"impact"`
}

type DeletionResultDTO struct {
	AuditID        string `json:"audit_id"`
	EntityType     string `json:"entity_type"`
	EntityID       string `json:"entity_id"`
	Severity       string `json:"severity"`
	StorageObjects int    `json:"storage_objects" doc:"Objects queued for storage cleanup"`
}

type AuditEntryDTO struct {
	ID         string    `json:"id"`
	ActorID    string    `json:"actor_id"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	EntityName string    `json:"entity_name"`
	Severity   string    `json:"severity"`
	Outcome    string    `json:"outcome"`
	Reason     string    `json:"reason"`
	Impact     any       `json:"impact"`
	CreatedAt  time.Time `json:"created_at"`
}

type AuditListResponseDTO struct {
	Entries []AuditEntryDTO `json:"entries"`
	Total   int             `json:"total"`
}

type AdminStatsDTO struct {
	Courses           int `json:"courses"`
	PublishedCourses  int `json:"published_courses"`
	Organizations     int `json:"organizations"`
	Users             int `json:"users"`
	ActiveEnrollments int `json:"active_enrollments"`
	Workflows         int `json:"workflows"`
}
