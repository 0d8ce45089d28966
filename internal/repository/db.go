package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"coursehub/internal/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

var (
	// ErrDuplicate is returned when a unique constraint (usually a slug) is violated.
	ErrDuplicate = errors.New("duplicate record")
	// ErrReference is returned when a foreign key points at a missing row.
	ErrReference = errors.New("referenced record does not exist")
	// ErrNotFound is returned by writes that expected to touch exactly one row.
	ErrNotFound = errors.New("record not found")
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PrepareDSN disables TLS for local development databases unless the DSN
// already says otherwise.
func PrepareDSN(dsn string, development bool) string {
	if !development || strings.Contains(dsn, "sslmode") {
		return dsn
	}
	separator := " "
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		if strings.Contains(dsn, "?") {
			separator = "&"
		} else {
			separator = "?"
		}
	}
	return dsn + separator + "sslmode=disable"
}

// NewPool opens the API connection pool.
func NewPool(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(PrepareDSN(cfg.DBConnectionString, cfg.IsDevelopment()))
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	// Transaction poolers such as pgbouncer break server-side prepared statements.
	if !cfg.IsDevelopment() {
		poolCfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}
	poolCfg.MaxConns = 25
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	logger.Info().
		Str("host", poolCfg.ConnConfig.Host).
		Uint16("port", poolCfg.ConnConfig.Port).
		Msg("Database connection successful")
	return pool, nil
}

// wrapErr attaches msg to err, translating constraint violations into
// ErrDuplicate and ErrReference.
func wrapErr(err error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%s: %w (%s)", msg, ErrDuplicate, pgErr.ConstraintName)
		case "23503":
			return fmt.Errorf("%s: %w (%s)", msg, ErrReference, pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pageTotal returns the total for a paged list. The window count rides on
// the page rows, so a page past the end has none and the total is counted
// with countSQL instead.
func pageTotal(ctx context.Context, db rowQuerier, windowTotal, pageLen, offset int, countSQL string, args ...any) (int, error) {
	if pageLen > 0 || offset == 0 {
		return windowTotal, nil
	}
	var total int
	if err := db.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("counting past the last page: %w", err)
	}
	return total, nil
}

// pageArgs normalizes paging parameters.
func pageArgs(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
