package models

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the on-disk timestamp format shared with the
// exchanger side (timestamp.txt and submission metadata).
const TimestampLayout = "2006-01-02 15:04:05 MST"

// Submission is one emailed attempt, already extracted to disk by the
// exchanger. Email and LessonName arrive untrusted from mail headers.
type Submission struct {
	Timestamp  time.Time `json:"timestamp"`
	Email      string    `json:"email"`
	LessonName string    `json:"lesson_name"`
	FilePath   string    `json:"file_path"`
	ID         string    `json:"id"`
}

// NewSubmission trims the untrusted header-derived fields.
func NewSubmission(timestamp time.Time, email, lessonName, filePath, id string) Submission {
	return Submission{
		Timestamp:  timestamp,
		Email:      strings.TrimSpace(email),
		LessonName: strings.TrimSpace(lessonName),
		FilePath:   filePath,
		ID:         id,
	}
}

func (s Submission) String() string {
	return fmt.Sprintf(
		"Timestamp: %s, Email: %s, Lesson name: %s, Submission ID: %s",
		s.Timestamp.Format(TimestampLayout),
		s.Email,
		s.LessonName,
		s.ID,
	)
}
