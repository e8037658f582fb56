package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grades.db")

	db, err := New(context.Background(), WithDataSource(SQLiteDSN(path)))
	require.NoError(t, err)
	defer db.Close()

	var fk int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(context.Background(), WithDriver(""))
	assert.Error(t, err)

	_, err = New(context.Background(), WithDataSource(""))
	assert.Error(t, err)
}

func TestNew_UnknownDriverRetries(t *testing.T) {
	_, err := New(context.Background(), WithDriver("nope"), WithRetry(2, time.Millisecond))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
}

func TestIsSQLitePath(t *testing.T) {
	assert.True(t, IsSQLitePath("grades.db"))
	assert.True(t, IsSQLitePath("/data/GRADES.SQLITE3"))
	assert.True(t, IsSQLitePath("x.sqlite"))
	assert.False(t, IsSQLitePath("grades.json"))
	assert.False(t, IsSQLitePath("dbfile"))
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file:grades.db?_busy_timeout=5000&_foreign_keys=on", SQLiteDSN("grades.db"))
	assert.Contains(t, SQLiteDSN(":memory:"), "memory")
}
