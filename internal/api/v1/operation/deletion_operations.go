package operation

import (
	"coursehub/internal/api/v1/dto"
	"coursehub/internal/deletion"
)

// Deletion Operations
//
// Every deletable entity gets an impact route and a delete route. The path
// inputs below expose the entity ID through EntityID so one handler serves
// all of them.

type CoursePath struct {
	CourseID string `path:"courseId" doc:"Course ID"`
}

func (p CoursePath) EntityID() string { return p.CourseID }

type ModulePath struct {
	ModuleID string `path:"moduleId" doc:"Module ID"`
}

func (p ModulePath) EntityID() string { return p.ModuleID }

type LessonPath struct {
	LessonID string `path:"lessonId" doc:"Lesson ID"`
}

func (p LessonPath) EntityID() string { return p.LessonID }

type LessonFilePath struct {
	FileID string `path:"fileId" doc:"Lesson file ID"`
}

func (p LessonFilePath) EntityID() string { return p.FileID }

type OrganizationPath struct {
	OrgID string `path:"orgId" doc:"Organization ID"`
}

func (p OrganizationPath) EntityID() string { return p.OrgID }

type EnrollmentPath struct {
	EnrollmentID string `path:"enrollmentId" doc:"Enrollment ID"`
}

func (p EnrollmentPath) EntityID() string { return p.EnrollmentID }

type WorkflowPath struct {
	WorkflowID string `path:"workflowId" doc:"Workflow ID"`
}

func (p WorkflowPath) EntityID() string { return p.WorkflowID }

// DeletionConfirmation carries what the caller acknowledges on a delete.
type DeletionConfirmation struct {
	Confirm             bool   `query:"confirm" doc:"Required from medium severity up"`
	ConfirmationText    string `query:"confirmation_text" doc:"Must equal the confirmation phrase from high severity up"`
	AcknowledgeCritical bool   `query:"acknowledge_critical" doc:"Required for critical severity"`
}

func (c DeletionConfirmation) Confirmation() deletion.Confirmation {
	return deletion.Confirmation{
		Confirmed:           c.Confirm,
		Phrase:              c.ConfirmationText,
		AcknowledgeCritical: c.AcknowledgeCritical,
	}
}

type DeleteCourseInput struct {
	CoursePath
	DeletionConfirmation
}

type DeleteModuleInput struct {
	ModulePath
	DeletionConfirmation
}

type DeleteLessonInput struct {
	LessonPath
	DeletionConfirmation
}

type DeleteLessonFileInput struct {
	LessonFilePath
	DeletionConfirmation
}

type DeleteOrganizationInput struct {
	OrganizationPath
	DeletionConfirmation
}

type DeleteEnrollmentInput struct {
	EnrollmentPath
	DeletionConfirmation
}

type DeleteWorkflowInput struct {
	WorkflowPath
	DeletionConfirmation
}

type DeletionImpactOutput struct {
	Body dto.DeletionAssessmentDTO `json:"body"`
}

type DeleteOutput struct {
	Body dto.DeletionResultDTO `json:"body"`
}

type ListAuditInput struct {
	EntityType string `query:"entity_type" doc:"Only entries for this entity type"`
	Limit      int    `query:"limit" default:"50" minimum:"1" maximum:"200" doc:"Number of entries"`
	Offset     int    `query:"offset" default:"0" minimum:"0" doc:"Offset for pagination"`
}

type ListAuditOutput struct {
	Body dto.AuditListResponseDTO `json:"body"`
}
