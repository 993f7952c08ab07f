package exchange

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/lussekatt/internal/models"
)

// DirSink drops grade results as JSON into an outbox directory for the
// feedback renderer to pick up.
type DirSink struct {
	root string
}

func NewDirSink(root string) (*DirSink, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create outbox directory: %w", err)
	}
	return &DirSink{root: root}, nil
}

func (s *DirSink) Deliver(result *models.GradeResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode grade result: %w", err)
	}

	name := fmt.Sprintf("%d_%s_%s.json", result.Timestamp.Unix(), models.NormalizeEmail(result.Email), result.Status)
	path := filepath.Join(s.root, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write grade result: %w", err)
	}
	logger.Debug.Printf("Grade result was written to outbox as %q.", name)
	return nil
}
