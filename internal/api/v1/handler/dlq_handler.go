package handler

import (
	"context"

	"coursehub/internal/api/v1/operation"
	"coursehub/internal/service"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog"
)

type DLQHandler struct {
	service service.DLQService
	logger  zerolog.Logger
}

func NewDLQHandler(s service.DLQService, l zerolog.Logger) *DLQHandler {
	return &DLQHandler{service: s, logger: l}
}

func (h *DLQHandler) RecordDLQ(ctx context.Context, input *operation.RecordDLQInput) (*operation.RecordDLQOutput, error) {
	if input.Body.Message.MessageID == "" {
		return nil, huma.Error400BadRequest("Invalid Pub/Sub message format: missing message ID")
	}

	h.logger.Info().
		Str("messageId", input.Body.Message.MessageID).
		Str("subscription", input.Body.Subscription).
		Msg("Processing dead-letter queue message")

	if err := h.service.ProcessAndSave(ctx, &input.Body); err != nil {
		// Acknowledge anyway: the message is already dead-lettered and a
		// retry would only fail the same way.
		h.logger.Error().Err(err).Msg("Failed to save DLQ message to database")
		return &operation.RecordDLQOutput{}, nil
	}

	h.logger.Info().
		Str("messageId", input.Body.Message.MessageID).
		Msg("Saved DLQ message")
	return &operation.RecordDLQOutput{}, nil
}
