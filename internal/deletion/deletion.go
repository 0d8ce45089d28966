// Package deletion assesses the cascading impact of destructive admin actions
// and decides whether they may proceed.
//
// An assessment moves through a small state machine: the impact is computed,
// a severity tier is assigned, blocking rules are applied, and finally the
// caller's confirmation is checked against what the tier demands. Only an
// unblocked, sufficiently confirmed assessment may be executed.
package deletion

import (
	"errors"
	"fmt"
	"strings"
)

type EntityType string

const (
	EntityCourse       EntityType = "course"
	EntityModule       EntityType = "module"
	EntityLesson       EntityType = "lesson"
	EntityLessonFile   EntityType = "lesson_file"
	EntityOrganization EntityType = "organization"
	EntityEnrollment   EntityType = "enrollment"
	EntityWorkflow     EntityType = "workflow"
)

// Valid reports whether t names a deletable entity.
func (t EntityType) Valid() bool {
	switch t {
	case EntityCourse, EntityModule, EntityLesson, EntityLessonFile,
		EntityOrganization, EntityEnrollment, EntityWorkflow:
		return true
	}
	return false
}

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) rank() int {
	switch s {
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	case SeverityCritical:
		return 3
	}
	return 0
}

// AtLeast reports whether s is as severe as other or more.
func (s Severity) AtLeast(other Severity) bool {
	return s.rank() >= other.rank()
}

var (
	ErrBlocked                 = errors.New("deletion is blocked")
	ErrConfirmationRequired    = errors.New("deletion requires confirmation")
	ErrConfirmationMismatch    = errors.New("confirmation text does not match")
	ErrCriticalNotAcknowledged = errors.New("critical deletion must be acknowledged")
)

// Impact counts what a deletion would take with it. The Facts fields feed
// the blocking rules and are not part of the severity score.
type Impact struct {
	EntityType EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	EntityName string     `json:"entity_name"`

	AffectedUsers           int   `json:"affected_users"`
	AffectedEnrollments     int   `json:"affected_enrollments"`
	ActiveEnrollments       int   `json:"active_enrollments"`
	AffectedOrganizations   int   `json:"affected_organizations"`
	AffectedModules         int   `json:"affected_modules"`
	AffectedLessons         int   `json:"affected_lessons"`
	AffectedFiles           int   `json:"affected_files"`
	AffectedProgressRecords int   `json:"affected_progress_records"`
	StorageBytes            int64 `json:"storage_bytes"`

	Facts Facts `json:"facts"`
}

// Facts are entity-specific circumstances evaluated by the blocking rules.
type Facts struct {
	// Published is set when the entity (or its course) is visible to learners.
	Published bool `json:"published"`
	// ActorIsMember is set when the acting admin belongs to the organization
	// being deleted.
	ActorIsMember bool `json:"actor_is_member"`
	// LastModuleOfPublishedCourse is set when deleting a module would leave a
	// published course empty.
	LastModuleOfPublishedCourse bool `json:"last_module_of_published_course"`
	// UploadInProgress is set for files whose upload has not completed.
	UploadInProgress bool `json:"upload_in_progress"`
}

// Assessment is the outcome of evaluating an Impact against a Policy.
type Assessment struct {
	Impact               Impact   `json:"impact"`
	Severity             Severity `json:"severity"`
	RequiresConfirmation bool     `json:"requires_confirmation"`
	ConfirmationPhrase   string   `json:"confirmation_phrase,omitempty"`
	RequiresAcknowledge  bool     `json:"requires_acknowledge"`
	Blockers             []string `json:"blockers"`
	Warnings             []string `json:"warnings"`
}

// Blocked reports whether any blocking rule fired.
func (a *Assessment) Blocked() bool {
	return len(a.Blockers) > 0
}

// Confirmation is what the caller supplied alongside a delete request.
type Confirmation struct {
	Confirmed           bool
	Phrase              string
	AcknowledgeCritical bool
}

// Authorize checks the confirmation against the assessment. It returns nil
// only when the deletion may be executed.
func (a *Assessment) Authorize(c Confirmation) error {
	if a.Blocked() {
		return fmt.Errorf("%w: %s", ErrBlocked, strings.Join(a.Blockers, "; "))
	}
	if !a.RequiresConfirmation {
		return nil
	}
	if !c.Confirmed {
		return fmt.Errorf("%w: severity %s", ErrConfirmationRequired, a.Severity)
	}
	if a.ConfirmationPhrase != "" && strings.TrimSpace(c.Phrase) != a.ConfirmationPhrase {
		return fmt.Errorf("%w: type %q to confirm", ErrConfirmationMismatch, a.ConfirmationPhrase)
	}
	if a.RequiresAcknowledge && !c.AcknowledgeCritical {
		return ErrCriticalNotAcknowledged
	}
	return nil
}
