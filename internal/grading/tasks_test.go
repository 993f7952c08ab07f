package grading

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLessonTasks(t *testing.T) {
	f := newFixture(t)
	f.writeSourceNotebook(t, "Loops", notebookJSON("cellA", "cellB", "cellC"))

	tasks, err := f.grader.lessonTasks("Loops")
	require.NoError(t, err)
	require.Len(t, tasks, 3)

	assert.Equal(t, "Task A", tasks[0].Name)
	assert.Equal(t, "cellA", tasks[0].TestCell)
	assert.Equal(t, "Task B", tasks[1].Name)
	assert.Equal(t, "Task C", tasks[2].Name)
	assert.Zero(t, tasks[0].Score)
}

func TestLessonTasks_CacheInvalidation(t *testing.T) {
	f := newFixture(t)
	f.writeSourceNotebook(t, "Loops", notebookJSON("cellA"))
	path := filepath.Join(f.root, "source", "Loops", "Loops.ipynb")

	tasks, err := f.grader.lessonTasks("Loops")
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	t.Run("same mtime serves the cached parse", func(t *testing.T) {
		// Replacing the content while pinning mtime must not re-parse
		info, err := os.Stat(path)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, notebookJSON("cellA", "cellB"), 0o644))
		require.NoError(t, os.Chtimes(path, info.ModTime(), info.ModTime()))

		tasks, err := f.grader.lessonTasks("Loops")
		require.NoError(t, err)
		assert.Len(t, tasks, 1)
	})

	t.Run("newer mtime re-parses", func(t *testing.T) {
		later := time.Now().Add(time.Hour)
		require.NoError(t, os.Chtimes(path, later, later))

		tasks, err := f.grader.lessonTasks("Loops")
		require.NoError(t, err)
		assert.Len(t, tasks, 2)
	})
}

func TestLessonTasks_CallersGetCopies(t *testing.T) {
	f := newFixture(t)
	f.writeSourceNotebook(t, "Loops", notebookJSON("cellA"))

	first, err := f.grader.lessonTasks("Loops")
	require.NoError(t, err)
	first[0].Score = 99

	second, err := f.grader.lessonTasks("Loops")
	require.NoError(t, err)
	assert.Zero(t, second[0].Score)
}

func TestParseLessonTasks_HeaderlessTestCell(t *testing.T) {
	content := []byte(`{
		"cells": [
			{
				"cell_type": "code",
				"source": ["assert f() == 1\n"],
				"metadata": {"nbgrader": {"grade": true, "grade_id": "orphan"}}
			}
		]
	}`)
	path := writeTempNotebook(t, content)

	_, err := parseLessonTasks(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no task header")
}

func TestParseLessonTasks_SourceAsSingleString(t *testing.T) {
	content := []byte(`{
		"cells": [
			{
				"cell_type": "markdown",
				"source": "#### TODO: Inline task\nsome details",
				"metadata": {"nbgrader": {"grade": false, "grade_id": "task_x"}}
			},
			{
				"cell_type": "code",
				"source": "assert f() == 1\n",
				"metadata": {"nbgrader": {"grade": true, "grade_id": "x"}}
			}
		]
	}`)
	path := writeTempNotebook(t, content)

	tasks, err := parseLessonTasks(path)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Inline task", tasks[0].Name)
	assert.Equal(t, "x", tasks[0].TestCell)
}
