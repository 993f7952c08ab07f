package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/lussekatt/internal/app"
	"github.com/shrimpsizemoose/lussekatt/internal/metrics"
	"github.com/shrimpsizemoose/lussekatt/internal/models"
)

type stubStore struct {
	student *models.Student
	logs    []models.SubmissionLog
}

func (s *stubStore) Close() error                     { return nil }
func (s *stubStore) ApplyMigrations(dir string) error { return nil }

func (s *stubStore) GetStudentByEmail(email string) (*models.Student, error) {
	return s.student, nil
}

func (s *stubStore) GetLessonByName(name string) (*models.Lesson, error) { return nil, nil }
func (s *stubStore) CreateStudent(student *models.Student) error         { return nil }
func (s *stubStore) CreateLesson(lesson *models.Lesson) error            { return nil }
func (s *stubStore) DeleteStudent(id string) error                       { return nil }
func (s *stubStore) ListStudents() ([]models.Student, error)             { return nil, nil }
func (s *stubStore) CreateSubmissionLog(log *models.SubmissionLog) error { return nil }

func (s *stubStore) ListLessonSubmissions(lessonName string) ([]models.SubmissionLog, error) {
	return s.logs, nil
}

func (s *stubStore) ListStudentGrades(studentID string) ([]models.SubmissionLog, error) {
	return s.logs, nil
}

func newTestRouter(st *stubStore) *http.ServeMux {
	handler := NewSubmissionHandler(&app.Service{
		Config: &app.Config{},
		Store:  st,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/lessons/{lesson}/submissions", handler.HandleLessonSubmissions)
	mux.HandleFunc("GET /api/v1/students/{email}/grades", handler.HandleStudentGrades)
	return mux
}

func TestHandlers_TimeEveryAPIRoute(t *testing.T) {
	mux := newTestRouter(&stubStore{
		student: &models.Student{ID: "mosby_ted", Email: "tedmosby@architect.com"},
	})

	requests := []struct {
		name string
		path string
	}{
		{name: "lesson submissions", path: "/api/v1/lessons/Loops/submissions"},
		{name: "student grades", path: "/api/v1/students/tedmosby@architect.com/grades"},
	}

	for _, tc := range requests {
		t.Run(tc.name, func(t *testing.T) {
			before := testutil.CollectAndCount(metrics.APIRequestDuration)

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
			require.Equal(t, http.StatusOK, rec.Code)

			// each path is new to the registry, so the deferred
			// observation must add exactly one series
			after := testutil.CollectAndCount(metrics.APIRequestDuration)
			assert.Equal(t, before+1, after, "no duration observed for %s", tc.path)
		})
	}
}

func TestHandleStudentGrades_UnknownStudent(t *testing.T) {
	mux := newTestRouter(&stubStore{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/students/nobody@x.com/grades", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
