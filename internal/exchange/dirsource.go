package exchange

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/lussekatt/internal/models"
)

// metaFilename sits inside each staged submission directory, written by
// the exchanger next to the extracted attachments.
const metaFilename = "submission.json"

type submissionMeta struct {
	Timestamp  string `json:"timestamp"`
	Email      string `json:"email"`
	LessonName string `json:"lesson_name"`
}

// DirSource scans a drop directory for staged submissions. Each
// subdirectory is one submission, named by its opaque exchange id.
type DirSource struct {
	root string
}

func NewDirSource(root string) (*DirSource, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create drop directory: %w", err)
	}
	return &DirSource{root: root}, nil
}

func (s *DirSource) FetchNew() ([]models.Submission, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to scan drop directory: %w", err)
	}

	var submissions []models.Submission
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		dir := filepath.Join(s.root, entry.Name())
		data, err := os.ReadFile(filepath.Join(dir, metaFilename))
		if err != nil {
			// The exchanger may still be writing this one, pick it up
			// next cycle.
			logger.Debug.Printf("Skipping %q: no readable metadata: %v", dir, err)
			continue
		}

		var meta submissionMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			logger.Error.Printf("Dropping %q: corrupted metadata: %v", dir, err)
			continue
		}
		timestamp, err := time.Parse(models.TimestampLayout, meta.Timestamp)
		if err != nil {
			logger.Error.Printf("Dropping %q: bad timestamp %q: %v", dir, meta.Timestamp, err)
			continue
		}

		submissions = append(submissions, models.NewSubmission(
			timestamp.UTC(),
			meta.Email,
			meta.LessonName,
			dir,
			entry.Name(),
		))
	}
	return submissions, nil
}

func (s *DirSource) MarkCompleted(id string) error {
	// Normally the grader has already consumed the directory; this only
	// sweeps leftovers.
	return os.RemoveAll(filepath.Join(s.root, id))
}
