package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"coursehub/internal/deletion"
	"coursehub/internal/model"
	"coursehub/internal/pubsub"
	"coursehub/internal/repository"

	"github.com/rs/zerolog"
)

// DeletionResult describes an executed deletion.
type DeletionResult struct {
	Assessment     *deletion.Assessment
	AuditID        string
	StorageObjects int
}

// AuditEvent is published after every executed deletion.
type AuditEvent struct {
	AuditID        string              `json:"audit_id"`
	ActorID        string              `json:"actor_id"`
	EntityType     deletion.EntityType `json:"entity_type"`
	EntityID       string              `json:"entity_id"`
	EntityName     string              `json:"entity_name"`
	Severity       deletion.Severity   `json:"severity"`
	Impact         deletion.Impact     `json:"impact"`
	StorageObjects int                 `json:"storage_objects"`
	OccurredAt     time.Time           `json:"occurred_at"`
}

// DeletionService gates destructive admin actions behind an impact
// assessment. Every validation and deletion attempt lands in the audit log.
type DeletionService interface {
	// Validate assesses what deleting the entity would affect
	Validate(ctx context.Context, actor *model.Profile, entityType deletion.EntityType, entityID string) (*deletion.Assessment, error)
	// Delete re-assesses the entity and executes the deletion when it is not
	// blocked and the confirmation satisfies its severity
	Delete(ctx context.Context, actor *model.Profile, entityType deletion.EntityType, entityID string, c deletion.Confirmation) (*DeletionResult, error)
	ListAudit(ctx context.Context, actor *model.Profile, entityType string, limit, offset int) ([]model.DeletionAudit, int, error)
}

type deletionService struct {
	repo         repository.DeletionRepository
	auditRepo    repository.AuditRepository
	policy       deletion.Policy
	publisher    pubsub.Publisher
	auditTopic   string
	cleanupQueue string
	now          func() time.Time
	logger       zerolog.Logger
}

func NewDeletionService(
	repo repository.DeletionRepository,
	auditRepo repository.AuditRepository,
	policy deletion.Policy,
	publisher pubsub.Publisher,
	auditTopic string,
	cleanupQueue string,
	logger zerolog.Logger,
) DeletionService {
	return &deletionService{
		repo:         repo,
		auditRepo:    auditRepo,
		policy:       policy,
		publisher:    publisher,
		auditTopic:   auditTopic,
		cleanupQueue: cleanupQueue,
		now:          time.Now,
		logger:       logger.With().Str("service", "DeletionService").Logger(),
	}
}

func (s *deletionService) Validate(ctx context.Context, actor *model.Profile, entityType deletion.EntityType, entityID string) (*deletion.Assessment, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	a, err := s.assess(ctx, actor, entityType, entityID)
	if err != nil {
		return nil, err
	}
	s.record(ctx, actor, a, model.AuditOutcomeAssessed, "")
	return a, nil
}

func (s *deletionService) Delete(ctx context.Context, actor *model.Profile, entityType deletion.EntityType, entityID string, c deletion.Confirmation) (*DeletionResult, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	a, err := s.assess(ctx, actor, entityType, entityID)
	if err != nil {
		return nil, err
	}

	if err := a.Authorize(c); err != nil {
		return nil, s.refuse(ctx, actor, a, err)
	}

	// The impact may have changed since the check above. The repository
	// recomputes it under the row lock and the policy runs again on that.
	var (
		final *deletion.Assessment
		audit *model.DeletionAudit
	)
	keys, err := s.repo.ExecuteDeletion(ctx, repository.DeletionCommand{
		EntityType:   entityType,
		EntityID:     entityID,
		ActorID:      actor.ID,
		CleanupQueue: s.cleanupQueue,
		Authorize: func(impact deletion.Impact) (*model.DeletionAudit, error) {
			final = s.policy.Assess(impact)
			if err := final.Authorize(c); err != nil {
				return nil, err
			}
			row, err := s.auditRow(actor, final, model.AuditOutcomeExecuted, "")
			audit = row
			return row, err
		},
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound(string(entityType), entityID)
		}
		if isRefusal(err) && final != nil {
			return nil, s.refuse(context.WithoutCancel(ctx), actor, final, err)
		}
		if final != nil {
			a = final
		}
		s.record(context.WithoutCancel(ctx), actor, a, model.AuditOutcomeFailed, err.Error())
		return nil, translate(err, string(entityType))
	}
	a = final

	s.logger.Info().
		Str("actor_id", actor.ID).
		Str("entity_type", string(entityType)).
		Str("entity_id", entityID).
		Str("severity", string(a.Severity)).
		Int("storage_objects", len(keys)).
		Msg("Deletion executed")

	s.publish(ctx, AuditEvent{
		AuditID:        audit.ID,
		ActorID:        actor.ID,
		EntityType:     entityType,
		EntityID:       entityID,
		EntityName:     a.Impact.EntityName,
		Severity:       a.Severity,
		Impact:         a.Impact,
		StorageObjects: len(keys),
		OccurredAt:     audit.CreatedAt,
	})

	return &DeletionResult{Assessment: a, AuditID: audit.ID, StorageObjects: len(keys)}, nil
}

// refuse audits a blocked or unconfirmed deletion and returns err.
func (s *deletionService) refuse(ctx context.Context, actor *model.Profile, a *deletion.Assessment, err error) error {
	outcome := model.AuditOutcomeRejected
	if errors.Is(err, deletion.ErrBlocked) {
		outcome = model.AuditOutcomeBlocked
	}
	s.record(ctx, actor, a, outcome, err.Error())
	s.logger.Info().
		Str("actor_id", actor.ID).
		Str("entity_type", string(a.Impact.EntityType)).
		Str("entity_id", a.Impact.EntityID).
		Str("outcome", outcome).
		Err(err).
		Msg("Deletion refused")
	return err
}

func isRefusal(err error) bool {
	return errors.Is(err, deletion.ErrBlocked) ||
		errors.Is(err, deletion.ErrConfirmationRequired) ||
		errors.Is(err, deletion.ErrConfirmationMismatch) ||
		errors.Is(err, deletion.ErrCriticalNotAcknowledged)
}

func (s *deletionService) ListAudit(ctx context.Context, actor *model.Profile, entityType string, limit, offset int) ([]model.DeletionAudit, int, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, 0, err
	}
	if entityType != "" && !deletion.EntityType(entityType).Valid() {
		return nil, 0, invalid("unknown entity type %q", entityType)
	}
	return s.auditRepo.ListAudit(ctx, entityType, limit, offset)
}

func (s *deletionService) assess(ctx context.Context, actor *model.Profile, entityType deletion.EntityType, entityID string) (*deletion.Assessment, error) {
	var (
		impact *deletion.Impact
		err    error
	)
	switch entityType {
	case deletion.EntityCourse:
		impact, err = s.repo.CourseImpact(ctx, entityID)
	case deletion.EntityModule:
		impact, err = s.repo.ModuleImpact(ctx, entityID)
	case deletion.EntityLesson:
		impact, err = s.repo.LessonImpact(ctx, entityID)
	case deletion.EntityLessonFile:
		impact, err = s.repo.LessonFileImpact(ctx, entityID)
	case deletion.EntityOrganization:
		impact, err = s.repo.OrganizationImpact(ctx, entityID, actor.ID)
	case deletion.EntityEnrollment:
		impact, err = s.repo.EnrollmentImpact(ctx, entityID)
	case deletion.EntityWorkflow:
		impact, err = s.repo.WorkflowImpact(ctx, entityID)
	default:
		return nil, invalid("unknown entity type %q", entityType)
	}
	if err != nil {
		return nil, fmt.Errorf("assessing %s %s: %w", entityType, entityID, err)
	}
	if impact == nil {
		return nil, notFound(string(entityType), entityID)
	}
	return s.policy.Assess(*impact), nil
}

func (s *deletionService) auditRow(actor *model.Profile, a *deletion.Assessment, outcome, reason string) (*model.DeletionAudit, error) {
	impact, err := json.Marshal(a.Impact)
	if err != nil {
		return nil, fmt.Errorf("encoding impact: %w", err)
	}
	return &model.DeletionAudit{
		ActorID:    actor.ID,
		EntityType: string(a.Impact.EntityType),
		EntityID:   a.Impact.EntityID,
		EntityName: a.Impact.EntityName,
		Severity:   string(a.Severity),
		Outcome:    outcome,
		Reason:     reason,
		Impact:     impact,
	}, nil
}

// record stores an audit row outside of a deletion. Failures are logged;
// the attempt itself already has its answer.
func (s *deletionService) record(ctx context.Context, actor *model.Profile, a *deletion.Assessment, outcome, reason string) {
	audit, err := s.auditRow(actor, a, outcome, reason)
	if err == nil {
		err = s.auditRepo.RecordAttempt(ctx, audit)
	}
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("entity_type", string(a.Impact.EntityType)).
			Str("entity_id", a.Impact.EntityID).
			Str("outcome", outcome).
			Msg("Failed to record deletion audit")
	}
}

func (s *deletionService) publish(ctx context.Context, ev AuditEvent) {
	if s.publisher == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = s.now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		s.logger.Error().Err(err).Str("audit_id", ev.AuditID).Msg("Failed to encode audit event")
		return
	}
	attrs := map[string]string{
		"entity_type": string(ev.EntityType),
		"severity":    string(ev.Severity),
	}
	msgID, err := s.publisher.Publish(context.WithoutCancel(ctx), s.auditTopic, payload, attrs)
	if err != nil {
		s.logger.Error().Err(err).Str("audit_id", ev.AuditID).Msg("Failed to publish audit event")
		return
	}
	s.logger.Debug().Str("audit_id", ev.AuditID).Str("message_id", msgID).Msg("Audit event published")
}
