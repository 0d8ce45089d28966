package deletion

import "fmt"

// Policy holds the thresholds that separate the high and critical tiers.
type Policy struct {
	CriticalUserThreshold       int
	CriticalEnrollmentThreshold int
}

func DefaultPolicy() Policy {
	return Policy{
		CriticalUserThreshold:       50,
		CriticalEnrollmentThreshold: 10,
	}
}

// Severity assigns a tier to an impact.
func (p Policy) Severity(impact Impact) Severity {
	switch {
	case p.CriticalUserThreshold > 0 && impact.AffectedUsers >= p.CriticalUserThreshold,
		p.CriticalEnrollmentThreshold > 0 && impact.AffectedEnrollments >= p.CriticalEnrollmentThreshold:
		return SeverityCritical
	case impact.AffectedUsers > 0, impact.AffectedEnrollments > 0, impact.AffectedProgressRecords > 0:
		return SeverityHigh
	case impact.AffectedModules > 0, impact.AffectedLessons > 0, impact.AffectedFiles > 0:
		return SeverityMedium
	}
	return SeverityLow
}

// Assess evaluates an impact: severity, confirmation requirements, blocking
// rules and warnings.
func (p Policy) Assess(impact Impact) *Assessment {
	severity := p.Severity(impact)
	a := &Assessment{
		Impact:   impact,
		Severity: severity,
		Blockers: []string{},
		Warnings: []string{},
	}

	a.RequiresConfirmation = severity.AtLeast(SeverityMedium)
	if severity.AtLeast(SeverityHigh) {
		a.ConfirmationPhrase = impact.EntityName
	}
	a.RequiresAcknowledge = severity == SeverityCritical

	a.Blockers = append(a.Blockers, blockers(impact)...)
	a.Warnings = append(a.Warnings, warnings(impact)...)
	return a
}

func blockers(impact Impact) []string {
	var out []string
	switch impact.EntityType {
	case EntityCourse:
		if impact.ActiveEnrollments > 0 {
			out = append(out, fmt.Sprintf("course has %d active enrollment(s); revoke them first", impact.ActiveEnrollments))
		}
	case EntityOrganization:
		if impact.Facts.ActorIsMember {
			out = append(out, "you cannot delete the organization you belong to")
		}
	case EntityModule:
		if impact.Facts.LastModuleOfPublishedCourse {
			out = append(out, "module is the last one of a published course; unpublish the course first")
		}
	case EntityLessonFile:
		if impact.Facts.UploadInProgress {
			out = append(out, "file upload is still in progress")
		}
	}
	return out
}

func warnings(impact Impact) []string {
	var out []string
	if impact.Facts.Published {
		out = append(out, "content is published and visible to learners")
	}
	if impact.AffectedProgressRecords > 0 {
		out = append(out, fmt.Sprintf("%d learner progress record(s) will be lost", impact.AffectedProgressRecords))
	}
	if impact.AffectedFiles > 0 {
		out = append(out, fmt.Sprintf("%d file(s) will be removed from storage", impact.AffectedFiles))
	}
	if impact.EntityType == EntityOrganization && impact.AffectedUsers > 0 {
		out = append(out, fmt.Sprintf("%d member(s) will lose their organization", impact.AffectedUsers))
	}
	return out
}
