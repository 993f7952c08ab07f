package grading

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/lussekatt/internal/models"
)

// Markdown cells whose first line matches this pattern declare a task;
// the next graded code cell is the task's test cell.
var taskNameRegex = regexp.MustCompile(`^#### TODO:\s+(.+)$`)

// taskCache keeps per-lesson task lists keyed by the source notebook's
// mtime, so editing a lesson invalidates the cached parse.
type taskCache struct {
	mu      sync.Mutex
	entries map[string]taskCacheEntry
}

type taskCacheEntry struct {
	tasks   []models.TaskGrade
	modTime time.Time
}

// lessonTasks returns the declared tasks of a lesson in notebook order,
// parsed from the instructor's original (unredacted) notebook. The
// result is a copy, callers fill in scores.
func (g *Grader) lessonTasks(lessonName string) ([]models.TaskGrade, error) {
	path := filepath.Join(g.sourceRoot, lessonName, lessonName+".ipynb")

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat source notebook: %w", err)
	}

	g.tasks.mu.Lock()
	defer g.tasks.mu.Unlock()

	if entry, ok := g.tasks.entries[lessonName]; ok && entry.modTime.Equal(info.ModTime()) {
		return copyTasks(entry.tasks), nil
	}

	tasks, err := parseLessonTasks(path)
	if err != nil {
		return nil, err
	}
	if g.tasks.entries == nil {
		g.tasks.entries = map[string]taskCacheEntry{}
	}
	g.tasks.entries[lessonName] = taskCacheEntry{tasks: tasks, modTime: info.ModTime()}
	logger.Debug.Printf("Task names were extracted for lesson %q.", lessonName)
	return copyTasks(tasks), nil
}

func parseLessonTasks(path string) ([]models.TaskGrade, error) {
	nb, err := readNotebook(path)
	if err != nil {
		return nil, err
	}

	var tasks []models.TaskGrade
	var current *models.TaskGrade
	for _, cell := range nb.Cells {
		meta := cell.Metadata.Nbgrader
		if meta == nil {
			continue
		}

		if cell.CellType == "markdown" {
			line := strings.TrimRight(cell.firstSourceLine(), "\r\n")
			if m := taskNameRegex.FindStringSubmatch(line); m != nil {
				current = &models.TaskGrade{Name: m[1]}
			}
			continue
		}

		if cell.CellType == "code" && meta.Grade {
			if current == nil {
				return nil, fmt.Errorf(
					"source notebook %s: test cell %q has no task header",
					path, meta.GradeID,
				)
			}
			current.TestCell = meta.GradeID
			tasks = append(tasks, *current)
			current = nil
		}
	}
	return tasks, nil
}

func copyTasks(tasks []models.TaskGrade) []models.TaskGrade {
	out := make([]models.TaskGrade, len(tasks))
	copy(out, tasks)
	return out
}
