package models

import (
	"encoding/json"
	"time"
)

// GradeStatus is the terminal state of one submission run through the
// grading pipeline. Values are stable strings shared with the feedback
// side, do not rename.
type GradeStatus string

const (
	StatusSuccess           GradeStatus = "SUCCESS"
	StatusUsernameIsAbsent  GradeStatus = "ERROR_USERNAME_IS_ABSENT"
	StatusNoCorrectFiles    GradeStatus = "ERROR_NO_CORRECT_FILES"
	StatusLessonIsAbsent    GradeStatus = "ERROR_LESSON_IS_ABSENT"
	StatusNotebookCorrupted GradeStatus = "ERROR_NOTEBOOK_CORRUPTED"
	StatusSkipped           GradeStatus = "SKIPPED"
	StatusGraderFailed      GradeStatus = "ERROR_GRADER_FAILED"
)

// TaskGrade joins one declared task from the instructor's notebook with
// the score the backend recorded for its test cell.
type TaskGrade struct {
	Name     string  `json:"name"`
	TestCell string  `json:"test_cell"`
	Score    float64 `json:"score"`
	MaxScore float64 `json:"max_score"`
}

// GradeResult is the single artifact the orchestrator produces per
// submission. TaskGrades is non-nil iff Status is StatusSuccess.
type GradeResult struct {
	Status     GradeStatus `json:"status"`
	Timestamp  time.Time   `json:"timestamp"`
	Email      string      `json:"email"`
	StudentID  string      `json:"student_id,omitempty"`
	FirstName  string      `json:"first_name,omitempty"`
	LastName   string      `json:"last_name,omitempty"`
	LessonName string      `json:"lesson_name,omitempty"`
	DueDate    *int64      `json:"due_date,omitempty"`
	TaskGrades []TaskGrade `json:"task_grades,omitempty"`
}

// SubmissionLog is one appended ledger row. TaskGrades is kept as the
// serialized JSON so the table stays readable without the Go types.
type SubmissionLog struct {
	Timestamp  int64  `db:"timestamp" json:"timestamp"`
	StudentID  string `db:"student_id" json:"student_id"`
	LessonName string `db:"lesson_name" json:"lesson_name"`
	TaskGrades string `db:"task_grades" json:"task_grades"`
	Notebook   []byte `db:"notebook" json:"-"`
	Feedback   []byte `db:"feedback" json:"-"`
}

// MarshalTaskGrades serializes grades for the ledger's task_grades column.
func MarshalTaskGrades(grades []TaskGrade) (string, error) {
	data, err := json.Marshal(grades)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
