// Package scheduler runs the periodic maintenance jobs: enrollment expiry
// and the sweep of uploads that never completed.
package scheduler

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"coursehub/internal/config"
	"coursehub/internal/model"
	"coursehub/internal/pgmq"

	"github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// fileTables hold upload rows that can be left behind by clients that never
// call the completion endpoint.
var fileTables = []string{"lesson_files", "workflow_files"}

type Jobs struct {
	db             *sql.DB
	cleanupQueue   string
	staleUploadAge time.Duration
	logger         zerolog.Logger
}

func NewJobs(db *sql.DB, cfg *config.Config, logger zerolog.Logger) *Jobs {
	return &Jobs{
		db:             db,
		cleanupQueue:   cfg.CleanupQueueName,
		staleUploadAge: time.Duration(cfg.StaleUploadAgeMinutes) * time.Minute,
		logger:         logger,
	}
}

// ExpireEnrollments flips active enrollments past their expiry to expired.
func (j *Jobs) ExpireEnrollments(ctx context.Context) (int64, error) {
	res, err := j.db.ExecContext(ctx,
		`UPDATE enrollments SET status = $1 WHERE status = $2 AND expires_at IS NOT NULL AND expires_at <= now()`,
		model.EnrollmentStatusExpired, model.EnrollmentStatusActive)
	if err != nil {
		return 0, fmt.Errorf("expire enrollments: %w", err)
	}
	return res.RowsAffected()
}

// SweepStaleUploads removes file rows stuck in uploading or failed state
// and queues their objects for storage cleanup in the same transaction.
func (j *Jobs) SweepStaleUploads(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-j.staleUploadAge)
	total := 0
	for _, table := range fileTables {
		n, err := j.sweepTable(ctx, table, cutoff)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (j *Jobs) sweepTable(ctx context.Context, table string, cutoff time.Time) (int, error) {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin sweep of %s: %w", table, err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(
		`DELETE FROM %s WHERE status IN ($1, $2) AND created_at < $3 RETURNING storage_path`,
		pq.QuoteIdentifier(table))
	rows, err := tx.QueryContext(ctx, query, model.FileStatusUploading, model.FileStatusFailed, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep %s: %w", table, err)
	}
	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan %s storage path: %w", table, err)
		}
		keys = append(keys, key)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("sweep %s rows: %w", table, err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	payload, err := json.Marshal(model.CleanupJob{Reason: "stale_upload", EntityType: table, Keys: keys})
	if err != nil {
		return 0, err
	}
	if err := pgmq.SendWith(ctx, tx, j.cleanupQueue, payload); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit sweep of %s: %w", table, err)
	}
	return len(keys), nil
}

// Run schedules the jobs and blocks until ctx is cancelled.
func Run(ctx context.Context, logger zerolog.Logger, jobs *Jobs, cfg *config.Config) error {
	c, err := newCron(ctx, logger, []entry{
		{name: "expire_enrollments", spec: cfg.SchedulerEnrollmentExpirySpec, fn: func(ctx context.Context) (int64, error) {
			return jobs.ExpireEnrollments(ctx)
		}},
		{name: "sweep_stale_uploads", spec: cfg.SchedulerStaleUploadSpec, fn: func(ctx context.Context) (int64, error) {
			n, err := jobs.SweepStaleUploads(ctx)
			return int64(n), err
		}},
	})
	if err != nil {
		return err
	}

	logger.Info().Int("jobs", len(c.Entries())).Msg("Starting scheduler")
	c.Start()
	<-ctx.Done()
	logger.Info().Msg("Shutting down scheduler")
	<-c.Stop().Done()
	return nil
}

type entry struct {
	name string
	spec string
	fn   func(ctx context.Context) (int64, error)
}

func newCron(ctx context.Context, logger zerolog.Logger, entries []entry) (*cron.Cron, error) {
	cl := cronLogger{logger: logger}
	c := cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	for _, e := range entries {
		e := e
		_, err := c.AddFunc(e.spec, func() {
			start := time.Now()
			n, err := e.fn(ctx)
			if err != nil {
				logger.Error().Err(err).Str("job", e.name).Msg("Scheduled job failed")
				return
			}
			logger.Info().Str("job", e.name).Int64("affected", n).Dur("took", time.Since(start)).Msg("Scheduled job finished")
		})
		if err != nil {
			return nil, fmt.Errorf("schedule %s (%q): %w", e.name, e.spec, err)
		}
	}
	return c, nil
}

// cronLogger routes cron's own logging into zerolog.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
