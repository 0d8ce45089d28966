// Package cleanup drains the storage cleanup queue, removing objects whose
// database rows are already gone.
package cleanup

import (
	"context"
	"encoding/json"
	"time"

	"coursehub/internal/config"
	"coursehub/internal/model"
	"coursehub/internal/pgmq"

	"github.com/rs/zerolog"
)

// Queue is the subset of the pgmq client the worker uses.
type Queue interface {
	ReadWithPoll(ctx context.Context, queue string, visibilitySec, maxMessages, pollSec int) ([]*pgmq.Message, error)
	Send(ctx context.Context, queue string, payload []byte) error
	Delete(ctx context.Context, queue string, msgIDs []int64) error
}

// ObjectDeleter removes storage objects by key.
type ObjectDeleter interface {
	DeleteKeys(ctx context.Context, keys []string) error
}

type Options struct {
	Queue           string
	DeadLetterQueue string
	VisibilitySec   int
	PollTimeoutSec  int
	PollMaxMsg      int
	MaxRetries      int
	BackoffInitial  time.Duration
	BackoffMax      time.Duration
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Queue:           cfg.CleanupQueueName,
		DeadLetterQueue: cfg.CleanupDeadLetterQueueName,
		VisibilitySec:   300,
		PollTimeoutSec:  cfg.CleanupPollTimeoutSec,
		PollMaxMsg:      cfg.CleanupPollMaxMsg,
		MaxRetries:      cfg.CleanupMaxRetries,
		BackoffInitial:  time.Duration(cfg.CleanupBackoffInitialSec) * time.Second,
		BackoffMax:      time.Duration(cfg.CleanupBackoffMaxSec) * time.Second,
	}
}

// Run starts the cleanup worker and blocks until ctx is cancelled.
func Run(ctx context.Context, logger zerolog.Logger, queue Queue, store ObjectDeleter, opts Options) error {
	w := &worker{queue: queue, store: store, opts: opts, logger: logger}
	logger.Info().Str("queue", opts.Queue).Msg("Starting storage cleanup worker")
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Shutting down storage cleanup worker")
			return nil
		default:
		}

		msgs, err := queue.ReadWithPoll(ctx, opts.Queue, opts.VisibilitySec, opts.PollMaxMsg, opts.PollTimeoutSec)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			logger.Error().Err(err).Msg("Error reading cleanup queue")
			sleep(ctx, time.Second)
			continue
		}
		for _, msg := range msgs {
			w.handle(ctx, msg)
		}
	}
}

type worker struct {
	queue  Queue
	store  ObjectDeleter
	opts   Options
	logger zerolog.Logger
}

// handle processes one message. Every path ends with the message deleted
// except a shutdown mid-retry, which leaves it for redelivery.
func (w *worker) handle(ctx context.Context, msg *pgmq.Message) {
	log := w.logger.With().Int64("msg_id", msg.ID).Int("read_count", msg.ReadCount).Logger()

	var job model.CleanupJob
	if err := json.Unmarshal(msg.Data, &job); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal cleanup job; deleting message")
		w.ack(ctx, msg)
		return
	}
	log = log.With().Str("reason", job.Reason).Str("entity_id", job.EntityID).Int("keys", len(job.Keys)).Logger()

	if len(job.Keys) == 0 {
		w.ack(ctx, msg)
		return
	}
	// A message read this often already exhausted its retries in an
	// earlier run that did not finish.
	if msg.ReadCount > w.opts.MaxRetries {
		w.deadLetter(ctx, msg, job, log)
		return
	}

	backoff := w.opts.BackoffInitial
	var lastErr error
	for attempt := 1; attempt <= w.opts.MaxRetries; attempt++ {
		lastErr = w.store.DeleteKeys(ctx, job.Keys)
		if lastErr == nil {
			log.Info().Int("attempt", attempt).Msg("Storage objects deleted")
			w.ack(ctx, msg)
			return
		}
		job.Attempts = attempt
		log.Warn().Err(lastErr).Int("attempt", attempt).Msg("Storage delete failed, retrying")
		if !sleep(ctx, backoff) {
			return
		}
		backoff *= 2
		if backoff > w.opts.BackoffMax {
			backoff = w.opts.BackoffMax
		}
	}

	log.Error().Err(lastErr).Int("attempts", job.Attempts).Msg("Exhausted storage cleanup retries; moving job to DLQ")
	w.deadLetter(ctx, msg, job, log)
}

func (w *worker) deadLetter(ctx context.Context, msg *pgmq.Message, job model.CleanupJob, log zerolog.Logger) {
	payload, err := json.Marshal(job)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal job for dead-letter queue")
		return
	}
	if err := w.queue.Send(ctx, w.opts.DeadLetterQueue, payload); err != nil {
		// Keep the original so it is redelivered and dead-lettered later.
		log.Error().Err(err).Str("dlq", w.opts.DeadLetterQueue).Msg("Failed to send message to dead-letter queue")
		return
	}
	w.ack(ctx, msg)
}

func (w *worker) ack(ctx context.Context, msg *pgmq.Message) {
	if err := w.queue.Delete(ctx, w.opts.Queue, []int64{msg.ID}); err != nil {
		w.logger.Error().Err(err).Int64("msg_id", msg.ID).Msg("Error deleting cleanup message")
	}
}

// sleep waits for d and reports false when ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
