package grading

import "context"

// Outcome is what the backend reports for one autograde or feedback run.
type Outcome struct {
	Success bool
	Log     string
	Error   string
}

// Score is one recorded test-cell score.
type Score struct {
	Score    float64
	MaxScore float64
}

// Backend is the narrow surface of the notebook grading engine. The
// orchestrator never touches the engine's own gradebook objects, it
// only goes through these five operations.
type Backend interface {
	Autograde(ctx context.Context, lesson, studentID string) (Outcome, error)
	GenerateFeedback(ctx context.Context, lesson, studentID string) (Outcome, error)

	// ExpectedCellIDs returns the canonical graded-cell identifiers the
	// engine recorded for the lesson's source notebook.
	ExpectedCellIDs(lesson string) ([]string, error)

	// ScoresFor returns recorded scores keyed by test-cell id.
	ScoresFor(lesson, studentID string) (map[string]Score, error)

	// RemoveSubmission drops the engine's record for the pair so a
	// resubmission does not hit duplicate-key conflicts.
	RemoveSubmission(lesson, studentID string) error
}
