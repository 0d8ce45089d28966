package handler

import (
	"context"

	"coursehub/internal/api/v1/dto"
	"coursehub/internal/api/v1/operation"
	"coursehub/internal/deletion"
	"coursehub/internal/service"

	"github.com/rs/zerolog"
)

// DeletionHandler serves impact assessment, guarded deletion and the audit trail
type DeletionHandler struct {
	deletionService service.DeletionService
	logger          zerolog.Logger
}

func NewDeletionHandler(deletionService service.DeletionService, logger zerolog.Logger) *DeletionHandler {
	return &DeletionHandler{
		deletionService: deletionService,
		logger:          logger,
	}
}

type entityRef interface {
	EntityID() string
}

type confirmedEntityRef interface {
	entityRef
	Confirmation() deletion.Confirmation
}

// DeletionImpact builds the impact operation for one entity type.
func DeletionImpact[I entityRef](h *DeletionHandler, entityType deletion.EntityType) func(context.Context, *I) (*operation.DeletionImpactOutput, error) {
	return func(ctx context.Context, input *I) (*operation.DeletionImpactOutput, error) {
		actor, err := getProfileFromContext(ctx)
		if err != nil {
			return nil, err
		}

		a, err := h.deletionService.Validate(ctx, actor, entityType, (*input).EntityID())
		if err != nil {
			return nil, toHTTPError(h.logger, err, "Failed to assess deletion")
		}
		return &operation.DeletionImpactOutput{Body: toAssessmentDTO(a)}, nil
	}
}

// DeleteEntity builds the delete operation for one entity type.
func DeleteEntity[I confirmedEntityRef](h *DeletionHandler, entityType deletion.EntityType) func(context.Context, *I) (*operation.DeleteOutput, error) {
	return func(ctx context.Context, input *I) (*operation.DeleteOutput, error) {
		actor, err := getProfileFromContext(ctx)
		if err != nil {
			return nil, err
		}

		id := (*input).EntityID()
		res, err := h.deletionService.Delete(ctx, actor, entityType, id, (*input).Confirmation())
		if err != nil {
			return nil, toHTTPError(h.logger, err, "Failed to delete "+string(entityType))
		}
		return &operation.DeleteOutput{
			Body: dto.DeletionResultDTO{
				AuditID:        res.AuditID,
				EntityType:     string(entityType),
				EntityID:       id,
				Severity:       string(res.Assessment.Severity),
				StorageObjects: res.StorageObjects,
			},
		}, nil
	}
}

func (h *DeletionHandler) ListAudit(ctx context.Context, input *operation.ListAuditInput) (*operation.ListAuditOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, total, err := h.deletionService.ListAudit(ctx, actor, input.EntityType, input.Limit, input.Offset)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to list audit entries")
	}
	entries := make([]dto.AuditEntryDTO, 0, len(rows))
	for i := range rows {
		entries = append(entries, toAuditDTO(&rows[i]))
	}
	return &operation.ListAuditOutput{
		Body: dto.AuditListResponseDTO{Entries: entries, Total: total},
	}, nil
}
