package model

import "time"

// DeadLetterMessage is an audit event that Pub/Sub gave up delivering,
// persisted for offline replay.
type DeadLetterMessage struct {
	ID               string    `db:"id"`
	SubscriptionName string    `db:"subscription_name"`
	MessageID        string    `db:"message_id"`
	Payload          []byte    `db:"payload"`    // JSON
	Attributes       []byte    `db:"attributes"` // JSON, may be empty
	Status           string    `db:"status"`
	CreatedAt        time.Time `db:"created_at"`
}
