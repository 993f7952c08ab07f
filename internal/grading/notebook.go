package grading

import (
	"encoding/json"
	"fmt"
	"os"
)

// Minimal slice of the ipynb format: cells with optional nbgrader
// metadata. Everything else in the file is ignored.
type notebook struct {
	Cells []notebookCell `json:"cells"`
}

type notebookCell struct {
	CellType string          `json:"cell_type"`
	Source   json.RawMessage `json:"source"`
	Metadata struct {
		Nbgrader *nbgraderMeta `json:"nbgrader"`
	} `json:"metadata"`
}

type nbgraderMeta struct {
	Grade   bool   `json:"grade"`
	GradeID string `json:"grade_id"`
}

func readNotebook(path string) (*notebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read notebook %s: %w", path, err)
	}

	var nb notebook
	if err := json.Unmarshal(data, &nb); err != nil {
		return nil, fmt.Errorf("notebook %s is not valid json: %w", path, err)
	}
	return &nb, nil
}

// firstSourceLine returns the first line of the cell source, which the
// ipynb format stores either as a string or as a list of lines.
func (c notebookCell) firstSourceLine() string {
	var lines []string
	if err := json.Unmarshal(c.Source, &lines); err == nil {
		if len(lines) == 0 {
			return ""
		}
		return lines[0]
	}

	var joined string
	if err := json.Unmarshal(c.Source, &joined); err != nil {
		return ""
	}
	for i, r := range joined {
		if r == '\n' {
			return joined[:i+1]
		}
	}
	return joined
}
