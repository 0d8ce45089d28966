// Package testdb provisions throwaway Postgres schemas for integration tests.
package testdb

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

// EnvDSN names the variable holding the integration database DSN. The
// database needs the pgmq extension available.
const EnvDSN = "COURSEHUB_TEST_DSN"

// DB is a migrated schema private to one test.
type DB struct {
	// DSN connects with search_path set to Schema. Both pgx and lib/pq accept it.
	DSN    string
	Schema string
	// Queue is a pgmq queue created for the test.
	Queue string
}

// New migrates a fresh schema and drops it when the test ends. The test is
// skipped when COURSEHUB_TEST_DSN is not set.
func New(t testing.TB) DB {
	t.Helper()
	base := os.Getenv(EnvDSN)
	if base == "" {
		t.Skipf("%s is not set, skip database integration test", EnvDSN)
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, base)
	require.NoError(t, err)
	defer conn.Close(ctx)

	name := "cht_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	_, err = conn.Exec(ctx, "CREATE SCHEMA "+name)
	require.NoError(t, err)
	_, err = conn.Exec(ctx, "SET search_path TO "+name+", public")
	require.NoError(t, err)
	for _, file := range migrations(t) {
		sql, err := os.ReadFile(file)
		require.NoError(t, err)
		_, err = conn.Exec(ctx, string(sql))
		require.NoError(t, err, "applying %s", filepath.Base(file))
	}
	_, err = conn.Exec(ctx, "SELECT pgmq.create($1)", name)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn, err := pgx.Connect(context.Background(), base)
		if err != nil {
			t.Logf("dropping schema %s: %v", name, err)
			return
		}
		defer conn.Close(context.Background())
		_, _ = conn.Exec(context.Background(), "SELECT pgmq.drop_queue($1)", name)
		_, _ = conn.Exec(context.Background(), "DROP SCHEMA "+name+" CASCADE")
	})

	return DB{DSN: withSearchPath(base, name), Schema: name, Queue: name}
}

func migrations(t testing.TB) []string {
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	files, err := filepath.Glob(filepath.Join(filepath.Dir(file), "..", "..", "db", "migrations", "*.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, files)
	sort.Strings(files)
	return files
}

func withSearchPath(dsn, schema string) string {
	path := schema + ",public"
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err == nil {
			q := u.Query()
			q.Set("search_path", path)
			u.RawQuery = q.Encode()
			return u.String()
		}
	}
	return dsn + " search_path=" + path
}
