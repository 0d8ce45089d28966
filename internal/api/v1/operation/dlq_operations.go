package operation

import "coursehub/internal/api/v1/dto"

// Dead Letter Queue Operations

type RecordDLQInput struct {
	Body dto.PubSubPushRequest `json:"body"`
}

type RecordDLQOutput struct {
	// 200 OK with empty body
}
