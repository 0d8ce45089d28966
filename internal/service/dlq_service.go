package service

import (
	"context"
	"encoding/base64"
	"encoding/json"

	"coursehub/internal/api/v1/dto"
	"coursehub/internal/model"
	"coursehub/internal/repository"
)

type DLQService interface {
	ProcessAndSave(ctx context.Context, req *dto.PubSubPushRequest) error
}

type dlqService struct {
	repo repository.DLQRepository
}

func NewDLQService(repo repository.DLQRepository) DLQService {
	return &dlqService{repo: repo}
}

func (s *dlqService) ProcessAndSave(ctx context.Context, req *dto.PubSubPushRequest) error {
	payload, err := base64.StdEncoding.DecodeString(req.Message.Data)
	if err != nil {
		// Keep what we received rather than losing the message.
		payload = []byte(req.Message.Data)
	}
	// The column is jsonb; anything that is not JSON is stored as a string.
	if !json.Valid(payload) {
		payload, err = json.Marshal(string(payload))
		if err != nil {
			return err
		}
	}

	var attributes []byte
	if len(req.Message.Attributes) > 0 {
		if b, err := json.Marshal(req.Message.Attributes); err == nil {
			attributes = b
		}
	}

	return s.repo.Create(ctx, &model.DeadLetterMessage{
		SubscriptionName: req.Subscription,
		MessageID:        req.Message.MessageID,
		Payload:          payload,
		Attributes:       attributes,
		Status:           "unprocessed",
	})
}
