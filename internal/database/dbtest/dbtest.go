// Package dbtest opens a throwaway PostgreSQL schema for integration tests.
package dbtest

import (
	"database/sql"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

// Open skips the test unless TEST_DATABASE_URL points at a reachable server. The
// returned handle is bound to a fresh schema holding the application tables.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	admin, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	if err := admin.Ping(); err != nil {
		admin.Close()
		t.Skipf("postgres not reachable: %v", err)
	}

	schema := "resumeworker_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	_, err = admin.Exec("CREATE SCHEMA " + schema)
	require.NoError(t, err)

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()

	db, err := sql.Open("postgres", u.String())
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
		_, _ = admin.Exec("DROP SCHEMA " + schema + " CASCADE")
		admin.Close()
	})

	ddl, err := os.ReadFile(schemaFile())
	require.NoError(t, err)
	_, err = db.Exec(string(ddl))
	require.NoError(t, err)

	return db
}

func schemaFile() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "sql", "schema", "001_init.sql")
}
