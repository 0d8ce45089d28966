package handler

import (
	"encoding/json"

	"coursehub/internal/api/v1/dto"
	"coursehub/internal/deletion"
	"coursehub/internal/model"
	"coursehub/internal/service"
)

func toUserDTO(p *model.Profile) dto.UserResponseDTO {
	return dto.UserResponseDTO{
		ID:             p.ID,
		Email:          p.Email,
		FullName:       p.FullName,
		Role:           p.Role,
		OrganizationID: p.OrganizationID,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func toUserDTOs(profiles []model.Profile) []dto.UserResponseDTO {
	out := make([]dto.UserResponseDTO, 0, len(profiles))
	for i := range profiles {
		out = append(out, toUserDTO(&profiles[i]))
	}
	return out
}

func toCourseDTO(c *model.Course) dto.CourseResponseDTO {
	return dto.CourseResponseDTO{
		ID:          c.ID,
		Slug:        c.Slug,
		Title:       c.Title,
		Description: c.Description,
		IsPublished: c.IsPublished,
		CreatedBy:   c.CreatedBy,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func toCourseDTOs(courses []model.Course) []dto.CourseResponseDTO {
	out := make([]dto.CourseResponseDTO, 0, len(courses))
	for i := range courses {
		out = append(out, toCourseDTO(&courses[i]))
	}
	return out
}

func toModuleDTO(m *model.Module) dto.ModuleResponseDTO {
	return dto.ModuleResponseDTO{
		ID:          m.ID,
		CourseID:    m.CourseID,
		Title:       m.Title,
		Description: m.Description,
		Position:    m.Position,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func toLessonDTO(l *model.Lesson) dto.LessonResponseDTO {
	return dto.LessonResponseDTO{
		ID:              l.ID,
		ModuleID:        l.ModuleID,
		CourseID:        l.CourseID,
		Title:           l.Title,
		LessonType:      l.LessonType,
		VideoURL:        l.VideoURL,
		DurationMinutes: l.DurationMinutes,
		Position:        l.Position,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}

func toLessonDTOs(lessons []model.Lesson) []dto.LessonResponseDTO {
	out := make([]dto.LessonResponseDTO, 0, len(lessons))
	for i := range lessons {
		out = append(out, toLessonDTO(&lessons[i]))
	}
	return out
}

func toOutlineDTO(o *model.CourseOutline) dto.CourseOutlineResponseDTO {
	modules := make([]dto.ModuleOutlineDTO, 0, len(o.Modules))
	for i := range o.Modules {
		m := &o.Modules[i]
		modules = append(modules, dto.ModuleOutlineDTO{
			ModuleResponseDTO: toModuleDTO(&m.Module),
			Lessons:           toLessonDTOs(m.Lessons),
		})
	}
	return dto.CourseOutlineResponseDTO{
		CourseResponseDTO: toCourseDTO(&o.Course),
		Modules:           modules,
	}
}

func toFileDTO(f *model.StoredFile) dto.FileResponseDTO {
	return dto.FileResponseDTO{
		ID:          f.ID,
		FileName:    f.FileName,
		ContentType: f.ContentType,
		SizeBytes:   f.SizeBytes,
		Status:      f.Status,
		CreatedAt:   f.CreatedAt,
	}
}

func toFileDTOs(files []model.StoredFile) []dto.FileResponseDTO {
	out := make([]dto.FileResponseDTO, 0, len(files))
	for i := range files {
		out = append(out, toFileDTO(&files[i]))
	}
	return out
}

func toUploadResponse(tickets []service.UploadTicket) dto.FileUploadResponseDTO {
	uploads := make([]dto.UploadTicketDTO, 0, len(tickets))
	for i := range tickets {
		uploads = append(uploads, dto.UploadTicketDTO{
			File:      toFileDTO(&tickets[i].File),
			UploadURL: tickets[i].UploadURL,
		})
	}
	return dto.FileUploadResponseDTO{Uploads: uploads}
}

func toOrganizationDTO(o *model.Organization) dto.OrganizationResponseDTO {
	return dto.OrganizationResponseDTO{
		ID:           o.ID,
		Name:         o.Name,
		Slug:         o.Slug,
		ContactEmail: o.ContactEmail,
		MemberCount:  o.MemberCount,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}

func toEnrollmentDTO(e *model.Enrollment, active bool) dto.EnrollmentResponseDTO {
	return dto.EnrollmentResponseDTO{
		ID:               e.ID,
		OrganizationID:   e.OrganizationID,
		OrganizationName: e.OrganizationName,
		CourseID:         e.CourseID,
		CourseTitle:      e.CourseTitle,
		Status:           e.Status,
		Active:           active,
		EnrolledBy:       e.EnrolledBy,
		EnrolledAt:       e.EnrolledAt,
		ExpiresAt:        e.ExpiresAt,
	}
}

func toCategoryDTO(c *model.WorkflowCategory) dto.CategoryResponseDTO {
	return dto.CategoryResponseDTO{
		ID:            c.ID,
		Slug:          c.Slug,
		Name:          c.Name,
		Description:   c.Description,
		Position:      c.Position,
		WorkflowCount: c.WorkflowCount,
	}
}

func toDepartmentDTO(d *model.WorkflowDepartment) dto.DepartmentResponseDTO {
	return dto.DepartmentResponseDTO{
		ID:            d.ID,
		CategoryID:    d.CategoryID,
		Slug:          d.Slug,
		Name:          d.Name,
		Description:   d.Description,
		WorkflowCount: d.WorkflowCount,
	}
}

func toWorkflowSummaryDTO(w *model.Workflow) dto.WorkflowSummaryDTO {
	tags := w.Tags
	if tags == nil {
		tags = []string{}
	}
	return dto.WorkflowSummaryDTO{
		ID:             w.ID,
		Slug:           w.Slug,
		Title:          w.Title,
		Summary:        w.Summary,
		CategorySlug:   w.CategorySlug,
		DepartmentSlug: w.DepartmentSlug,
		BookTitle:      w.BookTitle,
		BookAuthor:     w.BookAuthor,
		Tags:           tags,
		IsPublished:    w.IsPublished,
		Rank:           w.Rank,
		UpdatedAt:      w.UpdatedAt,
	}
}

func toAssessmentDTO(a *deletion.Assessment) dto.DeletionAssessmentDTO {
	blockers, warnings := a.Blockers, a.Warnings
	if blockers == nil {
		blockers = []string{}
	}
	if warnings == nil {
		warnings = []string{}
	}
	return dto.DeletionAssessmentDTO{
		EntityType:           string(a.Impact.EntityType),
		EntityID:             a.Impact.EntityID,
		EntityName:           a.Impact.EntityName,
		Severity:             string(a.Severity),
		RequiresConfirmation: a.RequiresConfirmation,
		ConfirmationPhrase:   a.ConfirmationPhrase,
		RequiresAcknowledge:  a.RequiresAcknowledge,
		Blocked:              a.Blocked(),
		Blockers:             blockers,
		Warnings:             warnings,
		Impact:               a.Impact,
	}
}

func toAuditDTO(a *model.DeletionAudit) dto.AuditEntryDTO {
	var impact any
	if len(a.Impact) > 0 {
		impact = json.RawMessage(a.Impact)
	}
	return dto.AuditEntryDTO{
		ID:         a.ID,
		ActorID:    a.ActorID,
		EntityType: a.EntityType,
		EntityID:   a.EntityID,
		EntityName: a.EntityName,
		Severity:   a.Severity,
		Outcome:    a.Outcome,
		Reason:     a.Reason,
		Impact:     impact,
		CreatedAt:  a.CreatedAt,
	}
}
