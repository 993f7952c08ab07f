package grading

import (
	"github.com/shrimpsizemoose/trekker/logger"
)

// isNotebookValid checks that the submitted notebook still carries
// exactly the graded cells the backend expects for the lesson. Graded
// cells that were tampered with, duplicated or removed make the engine
// mis-score or crash, so the multiset of grade_ids has to match the
// canonical one exactly. Unparseable files count as invalid, not as
// errors; a failing schema lookup is an environment problem and does
// propagate.
func (g *Grader) isNotebookValid(path, lessonName string) (bool, error) {
	nb, err := readNotebook(path)
	if err != nil {
		logger.Debug.Printf("File %q does not have a json structure: %v", path, err)
		return false, nil
	}

	submitted := map[string]int{}
	for _, cell := range nb.Cells {
		if cell.Metadata.Nbgrader != nil {
			submitted[cell.Metadata.Nbgrader.GradeID]++
		}
	}

	expectedIDs, err := g.backend.ExpectedCellIDs(lessonName)
	if err != nil {
		return false, err
	}
	expected := map[string]int{}
	for _, id := range expectedIDs {
		expected[id]++
	}

	if len(submitted) != len(expected) {
		return false, nil
	}
	for id, n := range expected {
		if submitted[id] != n {
			return false, nil
		}
	}
	return true, nil
}
