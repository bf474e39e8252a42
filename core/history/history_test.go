package history

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(Config{Path: filepath.Join(t.TempDir(), "history.db")})
	require.NoError(t, err)
	return l
}

func TestRecordAndForRun(t *testing.T) {
	l := openLog(t)

	require.NoError(t, l.Record("run-1", "blog-posts/hello", "devto", "create", "101"))
	require.NoError(t, l.Record("run-1", "blog-posts/hello", "medium", "manual", "m-1"))
	require.NoError(t, l.Record("run-2", "blog-posts/other", "devto", "update", "102"))

	entries, err := l.ForRun("run-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Pair-completion order within the run.
	assert.Equal(t, "devto", entries[0].Platform)
	assert.Equal(t, "create", entries[0].Action)
	assert.Equal(t, "101", entries[0].PostID)
	assert.Equal(t, "medium", entries[1].Platform)
	assert.False(t, entries[0].CreatedAt.IsZero())
}

func TestForRunUnknownRunIsEmpty(t *testing.T) {
	l := openLog(t)
	entries, err := l.ForRun("nope")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOpenReusesExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	first, err := Open(Config{Path: path})
	require.NoError(t, err)
	require.NoError(t, first.Record("run-1", "blog-posts/hello", "devto", "create", "101"))

	second, err := Open(Config{Path: path})
	require.NoError(t, err)
	entries, err := second.ForRun("run-1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
