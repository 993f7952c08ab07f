package grading

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/lussekatt/internal/metrics"
	"github.com/shrimpsizemoose/lussekatt/internal/models"
	"github.com/shrimpsizemoose/lussekatt/internal/store"
)

// Grader runs one submission at a time through admission, validation,
// the grading backend and ledger persistence. Not safe for concurrent
// use on the same (student, lesson) pair; the daemon feeds it
// sequentially.
type Grader struct {
	store   store.Store
	backend Backend

	sourceRoot    string
	submittedRoot string
	feedbackRoot  string

	tasks taskCache
}

// NewGrader wires the orchestrator against a course root containing the
// conventional source/, submitted/ and feedback/ trees.
func NewGrader(st store.Store, backend Backend, courseRoot string) *Grader {
	return &Grader{
		store:         st,
		backend:       backend,
		sourceRoot:    filepath.Join(courseRoot, "source"),
		submittedRoot: filepath.Join(courseRoot, "submitted"),
		feedbackRoot:  filepath.Join(courseRoot, "feedback"),
	}
}

// GradeSubmission takes one staged submission to a terminal status.
// Rejections come back as statuses on the result, never as errors; a
// non-nil error means an invariant or the environment broke and the
// whole processing run must stop. Every terminal outcome removes the
// staged directory, on success by promoting it first.
func (g *Grader) GradeSubmission(ctx context.Context, sub models.Submission) (result *models.GradeResult, err error) {
	logger.Info.Printf("Start grading the submission: %s.", sub)
	start := time.Now()
	defer func() {
		if result != nil {
			metrics.SubmissionsTotal.WithLabelValues(result.LessonName, string(result.Status)).Inc()
			metrics.GradingDuration.WithLabelValues(string(result.Status)).Observe(time.Since(start).Seconds())
		}
	}()

	result = &models.GradeResult{
		Status:    models.StatusSuccess,
		Timestamp: sub.Timestamp,
		Email:     sub.Email,
	}

	student, err := g.store.GetStudentByEmail(sub.Email)
	if err != nil {
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}
	if student == nil {
		logger.Info.Printf("The information about user with email %q was not found.", sub.Email)
		return g.reject(sub, result, models.StatusUsernameIsAbsent), nil
	}
	result.Email = student.Email
	result.StudentID = student.ID
	result.FirstName = student.FirstName
	result.LastName = student.LastName

	lesson, err := g.store.GetLessonByName(sub.LessonName)
	if err != nil {
		return nil, fmt.Errorf("lesson lookup failed: %w", err)
	}
	if lesson == nil {
		logger.Info.Printf("The information about lesson with name %q was not found.", sub.LessonName)
		return g.reject(sub, result, models.StatusLessonIsAbsent), nil
	}
	result.LessonName = lesson.Name
	result.DueDate = lesson.DueDate

	stagedNotebook := filepath.Join(sub.FilePath, lesson.Name+".ipynb")
	if _, err := os.Stat(stagedNotebook); err != nil {
		logger.Info.Printf("The notebook for grading was not found among submitted files.")
		return g.reject(sub, result, models.StatusNoCorrectFiles), nil
	}

	promotedDir := filepath.Join(g.submittedRoot, student.ID, lesson.Name)
	newer, err := g.isSubmissionNewer(promotedDir, sub.Timestamp)
	if err != nil {
		return nil, err
	}
	if !newer {
		logger.Info.Printf("The submission is not newer than the existing one. Skip it.")
		return g.reject(sub, result, models.StatusSkipped), nil
	}

	valid, err := g.isNotebookValid(stagedNotebook, lesson.Name)
	if err != nil {
		return nil, err
	}
	if !valid {
		logger.Info.Printf("Structure of the notebook %q is corrupted.", stagedNotebook)
		return g.reject(sub, result, models.StatusNotebookCorrupted), nil
	}

	// Promotion consumes the staged copy and is deliberately not rolled
	// back by later failures: the newest submitted artifact wins.
	if err := g.promote(sub.FilePath, promotedDir, sub.Timestamp); err != nil {
		return nil, err
	}

	ok, err := g.autograde(ctx, lesson.Name, student.ID, promotedDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		result.Status = models.StatusGraderFailed
		return result, nil
	}

	grades, err := g.submissionGrades(lesson.Name, student.ID)
	if err != nil {
		return nil, err
	}
	result.TaskGrades = grades
	for _, grade := range grades {
		if grade.MaxScore > 0 {
			metrics.TaskScoreHistogram.WithLabelValues(lesson.Name).Observe(grade.Score / grade.MaxScore)
		}
	}

	feedback, err := g.generateFeedback(ctx, lesson.Name, student.ID)
	if err != nil {
		return nil, err
	}

	notebook, err := os.ReadFile(filepath.Join(promotedDir, lesson.Name+".ipynb"))
	if err != nil {
		return nil, fmt.Errorf("failed to read promoted notebook: %w", err)
	}
	serialized, err := models.MarshalTaskGrades(grades)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize task grades: %w", err)
	}
	if err := g.store.CreateSubmissionLog(&models.SubmissionLog{
		Timestamp:  sub.Timestamp.Unix(),
		StudentID:  student.ID,
		LessonName: lesson.Name,
		TaskGrades: serialized,
		Notebook:   notebook,
		Feedback:   feedback,
	}); err != nil {
		return nil, fmt.Errorf("failed to persist submission log: %w", err)
	}
	logger.Debug.Printf(
		"Submission of student %q for lesson %q was saved to the ledger.",
		student.ID, lesson.Name,
	)

	return result, nil
}

// reject assigns a terminal rejection status and drops the staged
// files. No rejected submission may leak disk state.
func (g *Grader) reject(sub models.Submission, result *models.GradeResult, status models.GradeStatus) *models.GradeResult {
	result.Status = status
	if err := os.RemoveAll(sub.FilePath); err != nil {
		logger.Error.Printf("Failed to clean up staged submission %q: %v", sub.ID, err)
	}
	logger.Debug.Printf("Data of submission %q was dropped from downloaded folder.", sub.ID)
	return result
}

// isSubmissionNewer compares the submission against the timestamp
// marker of the promoted copy. No marker means first submission for the
// pair, which always passes.
func (g *Grader) isSubmissionNewer(promotedDir string, timestamp time.Time) (bool, error) {
	markerPath := filepath.Join(promotedDir, "timestamp.txt")
	data, err := os.ReadFile(markerPath)
	if os.IsNotExist(err) {
		logger.Debug.Printf("It is the first submission of the user for this lesson.")
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read timestamp marker: %w", err)
	}

	raw := firstLine(string(data))
	logger.Debug.Printf("The previous submission was made %q.", raw)
	previous, err := time.Parse(models.TimestampLayout, raw)
	if err != nil {
		return false, fmt.Errorf("corrupted timestamp marker %s: %w", markerPath, err)
	}
	return timestamp.After(previous), nil
}

// promote moves the staged files into the durable per-pair directory,
// wiping any prior promoted copy, and stamps the timestamp marker.
func (g *Grader) promote(stagedDir, promotedDir string, timestamp time.Time) error {
	if _, err := os.Stat(promotedDir); err == nil {
		if err := os.RemoveAll(promotedDir); err != nil {
			return fmt.Errorf("failed to clear submitted directory: %w", err)
		}
		logger.Info.Printf("Submitted directory %q was cleared.", promotedDir)
	}
	if err := os.MkdirAll(promotedDir, 0o755); err != nil {
		return fmt.Errorf("failed to create submitted directory: %w", err)
	}
	if err := os.CopyFS(promotedDir, os.DirFS(stagedDir)); err != nil {
		return fmt.Errorf("failed to copy submission files: %w", err)
	}

	markerPath := filepath.Join(promotedDir, "timestamp.txt")
	stamp := timestamp.Format(models.TimestampLayout)
	if err := os.WriteFile(markerPath, []byte(stamp), 0o644); err != nil {
		return fmt.Errorf("failed to write timestamp marker: %w", err)
	}
	logger.Debug.Printf("Submission timestamp %q was written to %q.", stamp, markerPath)
	logger.Info.Printf("Submission files were moved to %q.", promotedDir)

	if err := os.RemoveAll(stagedDir); err != nil {
		return fmt.Errorf("failed to remove staged files: %w", err)
	}
	logger.Debug.Printf("Downloaded files were removed from %q.", stagedDir)
	return nil
}

// autograde runs the backend for the pair. A failed run rolls back both
// the backend's partial record and the promoted copy, so the next
// attempt starts clean; the student has to resubmit.
func (g *Grader) autograde(ctx context.Context, lessonName, studentID, promotedDir string) (bool, error) {
	logger.Debug.Printf("Start autograding of user %q for lesson %q.", studentID, lessonName)
	outcome, err := g.backend.Autograde(ctx, lessonName, studentID)
	if err != nil {
		outcome = Outcome{Success: false, Error: err.Error()}
	}
	logger.Debug.Printf("Grader output: %s", flattenLog(outcome.Log))
	if outcome.Success {
		logger.Info.Printf("Submission of user %q for lesson %q was autograded.", studentID, lessonName)
		return true, nil
	}

	logger.Error.Printf("Traceback: %s", outcome.Error)
	if err := g.backend.RemoveSubmission(lessonName, studentID); err != nil {
		return false, fmt.Errorf("failed to remove partial grading record: %w", err)
	}
	logger.Debug.Printf(
		"Submission of user %q for lesson %q was removed from the grading database.",
		studentID, lessonName,
	)
	if err := os.RemoveAll(promotedDir); err != nil {
		return false, fmt.Errorf("failed to roll back promoted files: %w", err)
	}
	logger.Debug.Printf("Submitted directory %q was cleared.", promotedDir)
	return false, nil
}

// submissionGrades joins the backend's recorded scores onto the
// lesson's declared task list. A declared task without a score means
// the two sources diverged, which is a hard invariant violation.
func (g *Grader) submissionGrades(lessonName, studentID string) ([]models.TaskGrade, error) {
	scores, err := g.backend.ScoresFor(lessonName, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch scores: %w", err)
	}

	tasks, err := g.lessonTasks(lessonName)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		score, ok := scores[tasks[i].TestCell]
		if !ok {
			return nil, fmt.Errorf(
				"no recorded score for task %q (cell %q) of lesson %q",
				tasks[i].Name, tasks[i].TestCell, lessonName,
			)
		}
		tasks[i].Score = score.Score
		tasks[i].MaxScore = score.MaxScore
	}
	logger.Debug.Printf("Grades of user %q for lesson %q were extracted.", studentID, lessonName)
	return tasks, nil
}

// generateFeedback runs the backend's feedback generation and reads the
// produced html. Failure here is an environment problem, not a
// per-submission one, so it aborts the run.
func (g *Grader) generateFeedback(ctx context.Context, lessonName, studentID string) ([]byte, error) {
	logger.Debug.Printf(
		"Start generating feedback of user %q with lesson %q.",
		studentID, lessonName,
	)
	outcome, err := g.backend.GenerateFeedback(ctx, lessonName, studentID)
	if err != nil {
		return nil, fmt.Errorf("feedback generation failed: %w", err)
	}
	if !outcome.Success {
		logger.Error.Printf("Grader output: %s", flattenLog(outcome.Log))
		return nil, fmt.Errorf(
			"generating feedback of user %q with lesson %q failed",
			studentID, lessonName,
		)
	}
	logger.Debug.Printf("Grader output: %s", flattenLog(outcome.Log))

	path := filepath.Join(g.feedbackRoot, studentID, lessonName, lessonName+".html")
	feedback, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read generated feedback: %w", err)
	}
	logger.Info.Printf(
		"Feedback of user %q with lesson %q was generated and saved to %q.",
		studentID, lessonName, path,
	)
	return feedback, nil
}
