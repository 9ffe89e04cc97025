package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "qs", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestRunLifecycle(t *testing.T) {
	st := testStore(t)

	runID, err := st.BeginRun("clean")
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	require.NoError(t, st.RecordIssue(runID, "123 Lied.sng", "title"))
	require.NoError(t, st.RecordIssue(runID, "123 Lied.sng", "songbook"))
	require.NoError(t, st.RecordIssue(runID, "456 Anderes.sng", "title"))
	require.NoError(t, st.FinishRun(runID, 10, 3))

	run, err := st.LastRun()
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, runID, run.ID)
	assert.Equal(t, "clean", run.Command)
	assert.Equal(t, 10, run.Songs)
	assert.Equal(t, 3, run.Issues)
	// timestamps survive the text round trip through the driver
	assert.False(t, run.StartedAt.IsZero())
	assert.False(t, run.FinishedAt.Before(run.StartedAt))

	counts, err := st.IssueCounts(runID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"title": 2, "songbook": 1}, counts)

	issues, err := st.Issues(runID)
	require.NoError(t, err)
	require.Len(t, issues, 3)
	assert.Equal(t, "123 Lied.sng", issues[0].File)
}

func TestLastRunEmpty(t *testing.T) {
	st := testStore(t)

	run, err := st.LastRun()
	require.NoError(t, err)
	assert.Nil(t, run)
}

func TestRecordUpload(t *testing.T) {
	st := testStore(t)

	runID, err := st.BeginRun("sync upload")
	require.NoError(t, err)
	require.NoError(t, st.RecordUpload(runID, "123 Lied.sng", 42))
	require.NoError(t, st.FinishRun(runID, 1, 0))
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	st, err := Open(path)
	require.NoError(t, err)
	runID, err := st.BeginRun("validate")
	require.NoError(t, err)
	require.NoError(t, st.Close())

	st2, err := Open(path)
	require.NoError(t, err)
	defer st2.Close()

	counts, err := st2.IssueCounts(runID)
	require.NoError(t, err)
	assert.Empty(t, counts)
}
