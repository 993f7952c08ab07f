package store

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/shrimpsizemoose/lussekatt/internal/models"
)

// Store is the directory of students and lessons plus the append-only
// submission ledger the grader reconciles against.
type Store interface {
	Close() error
	ApplyMigrations(dir string) error

	GetStudentByEmail(email string) (*models.Student, error)
	GetLessonByName(name string) (*models.Lesson, error)
	CreateStudent(student *models.Student) error
	CreateLesson(lesson *models.Lesson) error
	DeleteStudent(id string) error
	ListStudents() ([]models.Student, error)

	CreateSubmissionLog(log *models.SubmissionLog) error
	ListLessonSubmissions(lessonName string) ([]models.SubmissionLog, error)
	ListStudentGrades(studentID string) ([]models.SubmissionLog, error)
}

// BaseStore provides common functionality for different DB implementations
type BaseStore struct {
	DB        *sqlx.DB
	Converter func(string) string
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// ApplyMigrations applies SQL migrations from a directory, translating dialect if needed
func (s *BaseStore) ApplyMigrations(dir string, translateSQL func(string) string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, file := range files {
		if !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		content, err := os.ReadFile(fmt.Sprintf("%s/%s", dir, file.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file.Name(), err)
		}

		sql := string(content)
		if translateSQL != nil {
			sql = translateSQL(sql)
		}

		if _, err := s.DB.Exec(sql); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file.Name(), err)
		}
	}

	return nil
}

func (s *BaseStore) GetStudentByEmail(email string) (*models.Student, error) {
	var student models.Student
	query := s.Converter(`
		SELECT id, email, first_name, last_name
		FROM students
		WHERE LOWER(email) = ?
	`)

	err := s.DB.Get(&student, query, models.NormalizeEmail(email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student by email: %w", err)
	}
	return &student, nil
}

func (s *BaseStore) GetLessonByName(name string) (*models.Lesson, error) {
	var lesson models.Lesson
	query := s.Converter(`
		SELECT name, due_date
		FROM lessons
		WHERE LOWER(name) = ?
	`)

	err := s.DB.Get(&lesson, query, models.NormalizeLessonName(name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson by name: %w", err)
	}
	return &lesson, nil
}

func (s *BaseStore) CreateStudent(student *models.Student) error {
	if err := student.Validate(); err != nil {
		return fmt.Errorf("invalid student: %w", err)
	}
	_, err := s.DB.NamedExec(`
		INSERT INTO students (id, email, first_name, last_name)
		VALUES (:id, :email, :first_name, :last_name)
	`, student)
	if err != nil {
		return fmt.Errorf("failed to create student: %w", err)
	}
	return nil
}

func (s *BaseStore) CreateLesson(lesson *models.Lesson) error {
	if err := lesson.Validate(); err != nil {
		return fmt.Errorf("invalid lesson: %w", err)
	}
	_, err := s.DB.NamedExec(`
		INSERT INTO lessons (name, due_date)
		VALUES (:name, :due_date)
	`, lesson)
	if err != nil {
		return fmt.Errorf("failed to create lesson: %w", err)
	}
	return nil
}

func (s *BaseStore) DeleteStudent(id string) error {
	query := s.Converter(`DELETE FROM submission_logs WHERE student_id = ?`)
	if _, err := s.DB.Exec(query, id); err != nil {
		return fmt.Errorf("failed to delete student ledger rows: %w", err)
	}
	query = s.Converter(`DELETE FROM students WHERE id = ?`)
	if _, err := s.DB.Exec(query, id); err != nil {
		return fmt.Errorf("failed to delete student: %w", err)
	}
	return nil
}

func (s *BaseStore) ListStudents() ([]models.Student, error) {
	var students []models.Student
	err := s.DB.Select(&students, `
		SELECT id, email, first_name, last_name
		FROM students
		ORDER BY last_name, first_name, email
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return students, nil
}

func (s *BaseStore) CreateSubmissionLog(log *models.SubmissionLog) error {
	_, err := s.DB.NamedExec(`
		INSERT INTO submission_logs (timestamp, student_id, lesson_name, task_grades, notebook, feedback)
		VALUES (:timestamp, :student_id, :lesson_name, :task_grades, :notebook, :feedback)
	`, log)
	if err != nil {
		return fmt.Errorf("failed to create submission log: %w", err)
	}
	return nil
}

// ListLessonSubmissions returns the latest accepted submission per
// student for one lesson. Blobs are left out of the listing.
func (s *BaseStore) ListLessonSubmissions(lessonName string) ([]models.SubmissionLog, error) {
	var logs []models.SubmissionLog
	query := s.Converter(`
		SELECT sl.timestamp, sl.student_id, sl.lesson_name, sl.task_grades
		FROM submission_logs sl
		JOIN (
			SELECT student_id, MAX(timestamp) AS latest
			FROM submission_logs
			WHERE lesson_name = ?
			GROUP BY student_id
		) last ON last.student_id = sl.student_id AND last.latest = sl.timestamp
		WHERE sl.lesson_name = ?
		ORDER BY sl.student_id
	`)

	err := s.DB.Select(&logs, query, lessonName, lessonName)
	if err != nil {
		return nil, fmt.Errorf("failed to list lesson submissions: %w", err)
	}
	return logs, nil
}

// ListStudentGrades returns the latest accepted submission per lesson
// for one student.
func (s *BaseStore) ListStudentGrades(studentID string) ([]models.SubmissionLog, error) {
	var logs []models.SubmissionLog
	query := s.Converter(`
		SELECT sl.timestamp, sl.student_id, sl.lesson_name, sl.task_grades
		FROM submission_logs sl
		JOIN (
			SELECT lesson_name, MAX(timestamp) AS latest
			FROM submission_logs
			WHERE student_id = ?
			GROUP BY lesson_name
		) last ON last.lesson_name = sl.lesson_name AND last.latest = sl.timestamp
		WHERE sl.student_id = ?
		ORDER BY sl.lesson_name
	`)

	err := s.DB.Select(&logs, query, studentID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list student grades: %w", err)
	}
	return logs, nil
}
