package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/lussekatt/internal/app"
	"github.com/shrimpsizemoose/lussekatt/internal/metrics"
)

type SubmissionHandler struct {
	service *app.Service
}

func NewSubmissionHandler(service *app.Service) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
	}
}

func (h *SubmissionHandler) HandleLessonSubmissions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		metrics.APIRequestDuration.WithLabelValues(
			r.URL.Path,
			r.Method,
		).Observe(time.Since(start).Seconds())
	}()

	lesson := r.PathValue("lesson")
	if lesson == "" {
		logger.Error.Printf("Failed to extract lesson from path: %s", r.URL.Path)
		http.Error(w, "Invalid lesson", http.StatusBadRequest)
		return
	}

	logs, err := h.service.Store.ListLessonSubmissions(lesson)
	if err != nil {
		logger.Error.Printf("Failed to list submissions for lesson %s: %v", lesson, err)
		http.Error(w, "Failed to fetch submissions", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"rows": logs,
	}); err != nil {
		logger.Error.Printf("Failed to encode response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

func (h *SubmissionHandler) HandleStudentGrades(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		metrics.APIRequestDuration.WithLabelValues(
			r.URL.Path,
			r.Method,
		).Observe(time.Since(start).Seconds())
	}()

	email := r.PathValue("email")
	if email == "" {
		logger.Error.Printf("Failed to extract email from path: %s", r.URL.Path)
		http.Error(w, "Invalid email", http.StatusBadRequest)
		return
	}

	student, err := h.service.Store.GetStudentByEmail(email)
	if err != nil {
		logger.Error.Printf("Failed to look up student %s: %v", email, err)
		http.Error(w, "Failed to look up student", http.StatusInternalServerError)
		return
	}
	if student == nil {
		http.Error(w, "Unknown student", http.StatusNotFound)
		return
	}

	logs, err := h.service.Store.ListStudentGrades(student.ID)
	if err != nil {
		logger.Error.Printf("Failed to list grades for student %s: %v", student.ID, err)
		http.Error(w, "Failed to fetch grades", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"student": student,
		"grades":  logs,
	}); err != nil {
		logger.Error.Printf("Failed to encode response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}
