package pgmq

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// Client wraps a Postgres DB for pgmq queue operations.
type Client struct {
	db *sql.DB
}

// New returns a new PGMQ client backed by the given DB connection.
func New(db *sql.DB) *Client {
	return &Client{db: db}
}

// Message represents a single pgmq message.
type Message struct {
	ID        int64  // message identifier
	ReadCount int    // times the message has been read, this read included
	Data      []byte // raw JSON payload
}

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Send pushes a JSON payload into the given queue.
func (c *Client) Send(ctx context.Context, queue string, payload []byte) error {
	return SendWith(ctx, c.db, queue, payload)
}

// SendWith enqueues through ex, so a caller can enqueue inside its own
// transaction.
func SendWith(ctx context.Context, ex Execer, queue string, payload []byte) error {
	query := "SELECT pgmq.send($1, $2::jsonb, 0)"
	if _, err := ex.ExecContext(ctx, query, queue, string(payload)); err != nil {
		return fmt.Errorf("pgmq send failed: %w", err)
	}
	return nil
}

// ReadWithPoll reads up to maxMessages from the queue, blocking up to
// pollSec seconds. Read messages stay invisible for visibilitySec seconds.
func (c *Client) ReadWithPoll(ctx context.Context, queue string, visibilitySec, maxMessages, pollSec int) ([]*Message, error) {
	query := "SELECT msg_id, read_ct, message FROM pgmq.read_with_poll($1, $2, $3, $4)"
	rows, err := c.db.QueryContext(ctx, query, queue, visibilitySec, maxMessages, pollSec)
	if err != nil {
		return nil, fmt.Errorf("pgmq read_with_poll failed: %w", err)
	}
	defer rows.Close()

	var msgs []*Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ReadCount, &m.Data); err != nil {
			return nil, fmt.Errorf("pgmq read scan failed: %w", err)
		}
		msgs = append(msgs, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgmq read rows error: %w", err)
	}
	return msgs, nil
}

// Delete removes messages by their IDs from the specified queue.
func (c *Client) Delete(ctx context.Context, queue string, msgIDs []int64) error {
	query := "SELECT pgmq.delete($1, $2::bigint[])"
	if _, err := c.db.ExecContext(ctx, query, queue, pq.Array(msgIDs)); err != nil {
		return fmt.Errorf("pgmq delete failed: %w", err)
	}
	return nil
}
