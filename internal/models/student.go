package models

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var nonAlnumRegex = regexp.MustCompile(`[^A-Za-z0-9]+`)

type Student struct {
	ID        string `db:"id" json:"id"`
	Email     string `db:"email" json:"email" validate:"required,email"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
}

type Lesson struct {
	Name    string `db:"name" json:"name" validate:"required"`
	DueDate *int64 `db:"due_date" json:"due_date,omitempty"`
}

func (s *Student) Validate() error {
	validate := validator.New()
	return validate.Struct(s)
}

func (l *Lesson) Validate() error {
	validate := validator.New()
	return validate.Struct(l)
}

// NormalizeEmail produces the lookup key used everywhere emails are
// compared: trimmed and lowercased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeLessonName mirrors NormalizeEmail for lesson lookups.
func NormalizeLessonName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func cleanNamePart(text string) string {
	return strings.ToLower(nonAlnumRegex.ReplaceAllString(text, ""))
}

// NewStudentID derives a stable-enough unique id from the student's
// name, e.g. "mosby_ted_1a2b3c...". Capped at 128 chars to fit the
// gradebook's student_id column.
func NewStudentID(firstName, lastName string) string {
	parts := []string{}
	for _, p := range []string{cleanNamePart(lastName), cleanNamePart(firstName)} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	parts = append(parts, strings.ReplaceAll(uuid.New().String(), "-", ""))
	id := strings.Join(parts, "_")
	if len(id) > 128 {
		id = id[:128]
	}
	return id
}
