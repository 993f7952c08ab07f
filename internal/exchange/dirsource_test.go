package exchange

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/lussekatt/internal/models"
)

func dropSubmission(t *testing.T, root, id, meta string, files map[string]string) {
	t.Helper()
	dir := filepath.Join(root, id)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	if meta != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, metaFilename), []byte(meta), 0o644))
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func TestDirSource_FetchNew(t *testing.T) {
	root := t.TempDir()
	source, err := NewDirSource(root)
	require.NoError(t, err)

	dropSubmission(t, root, "msg-001",
		`{"timestamp": "2024-03-01 12:00:00 UTC", "email": " A@X.com ", "lesson_name": "Loops"}`,
		map[string]string{"Loops.ipynb": "{}"},
	)
	// Still being extracted: no metadata yet
	dropSubmission(t, root, "msg-002", "", map[string]string{"Loops.ipynb": "{}"})
	// Corrupted metadata gets skipped, not fetched
	dropSubmission(t, root, "msg-003", `{"timestamp": `, nil)
	// Stray file at top level is ignored
	require.NoError(t, os.WriteFile(filepath.Join(root, "README"), []byte("hi"), 0o644))

	submissions, err := source.FetchNew()
	require.NoError(t, err)
	require.Len(t, submissions, 1)

	sub := submissions[0]
	assert.Equal(t, "msg-001", sub.ID)
	assert.Equal(t, "A@X.com", sub.Email)
	assert.Equal(t, "Loops", sub.LessonName)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), sub.Timestamp)
	assert.Equal(t, filepath.Join(root, "msg-001"), sub.FilePath)
}

func TestDirSource_MarkCompleted(t *testing.T) {
	root := t.TempDir()
	source, err := NewDirSource(root)
	require.NoError(t, err)

	dropSubmission(t, root, "msg-010",
		`{"timestamp": "2024-03-01 12:00:00 UTC", "email": "a@x.com", "lesson_name": "Loops"}`,
		nil,
	)

	require.NoError(t, source.MarkCompleted("msg-010"))
	assert.NoDirExists(t, filepath.Join(root, "msg-010"))

	// Idempotent for already-consumed ids
	require.NoError(t, source.MarkCompleted("msg-010"))
}

func TestDirSink_Deliver(t *testing.T) {
	root := t.TempDir()
	sink, err := NewDirSink(root)
	require.NoError(t, err)

	result := &models.GradeResult{
		Status:    models.StatusSuccess,
		Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Email:     "A@x.com",
	}
	require.NoError(t, sink.Deliver(result))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), "a@x.com")
	assert.Contains(t, entries[0].Name(), "SUCCESS")
}
