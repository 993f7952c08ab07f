// Package backend adapts the external notebook grading engine to the
// narrow surface the orchestrator needs. Grading runs go through the
// engine's CLI; schema and score lookups go straight to its gradebook
// database, which is the engine's durable source of truth.
package backend

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/lussekatt/internal/grading"
)

type Config struct {
	Command      string `toml:"command"`
	CourseRoot   string `toml:"course_root"`
	GradebookDSN string `toml:"gradebook_dsn"`
}

// NbGrader drives an nbgrader-compatible engine.
type NbGrader struct {
	db         *sqlx.DB
	command    string
	courseRoot string
	rebind     func(string) string
}

func New(config Config) (*NbGrader, error) {
	driver := "sqlite3"
	rebind := func(q string) string { return q }
	if strings.HasPrefix(config.GradebookDSN, "postgres") {
		driver = "postgres"
		rebind = func(query string) string {
			out := query
			for i := 1; strings.Contains(out, "?"); i++ {
				out = strings.Replace(out, "?", fmt.Sprintf("$%d", i), 1)
			}
			return out
		}
	}

	db, err := sqlx.Connect(driver, strings.TrimPrefix(config.GradebookDSN, "sqlite3://"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to gradebook: %w", err)
	}

	command := config.Command
	if command == "" {
		command = "nbgrader"
	}

	return &NbGrader{
		db:         db,
		command:    command,
		courseRoot: config.CourseRoot,
		rebind:     rebind,
	}, nil
}

func (b *NbGrader) Close() error {
	return b.db.Close()
}

func (b *NbGrader) run(ctx context.Context, args ...string) grading.Outcome {
	cmd := exec.CommandContext(ctx, b.command, args...)
	cmd.Dir = b.courseRoot

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	outcome := grading.Outcome{
		Success: err == nil,
		Log:     out.String(),
	}
	if err != nil {
		outcome.Error = err.Error()
	}
	return outcome
}

func (b *NbGrader) Autograde(ctx context.Context, lesson, studentID string) (grading.Outcome, error) {
	return b.run(ctx,
		"autograde", lesson,
		"--student", studentID,
		"--no-create",
	), nil
}

func (b *NbGrader) GenerateFeedback(ctx context.Context, lesson, studentID string) (grading.Outcome, error) {
	return b.run(ctx,
		"generate_feedback", lesson,
		"--student", studentID,
		"--force",
	), nil
}

func (b *NbGrader) ExpectedCellIDs(lesson string) ([]string, error) {
	query := b.rebind(`
		SELECT sc.name
		FROM source_cell sc
		JOIN notebook n ON sc.notebook_id = n.id
		JOIN assignment a ON n.assignment_id = a.id
		WHERE a.name = ? AND n.name = ?
		ORDER BY sc.id
	`)

	var ids []string
	if err := b.db.Select(&ids, query, lesson, lesson); err != nil {
		return nil, fmt.Errorf("failed to fetch expected cell ids: %w", err)
	}
	return ids, nil
}

func (b *NbGrader) ScoresFor(lesson, studentID string) (map[string]grading.Score, error) {
	query := b.rebind(`
		SELECT gc.name AS name,
		       COALESCE(g.auto_score, 0) AS score,
		       gc.max_score AS max_score
		FROM grade g
		JOIN grade_cell gc ON g.cell_id = gc.id
		JOIN submitted_notebook sn ON g.notebook_id = sn.id
		JOIN submitted_assignment sa ON sn.assignment_id = sa.id
		JOIN assignment a ON sa.assignment_id = a.id
		WHERE a.name = ? AND sa.student_id = ?
	`)

	var rows []struct {
		Name     string  `db:"name"`
		Score    float64 `db:"score"`
		MaxScore float64 `db:"max_score"`
	}
	if err := b.db.Select(&rows, query, lesson, studentID); err != nil {
		return nil, fmt.Errorf("failed to fetch grades: %w", err)
	}

	scores := make(map[string]grading.Score, len(rows))
	for _, row := range rows {
		scores[row.Name] = grading.Score{Score: row.Score, MaxScore: row.MaxScore}
	}
	return scores, nil
}

func (b *NbGrader) RemoveSubmission(lesson, studentID string) error {
	query := b.rebind(`
		DELETE FROM submitted_assignment
		WHERE student_id = ?
		AND assignment_id IN (SELECT id FROM assignment WHERE name = ?)
	`)
	if _, err := b.db.Exec(query, studentID, lesson); err != nil {
		return fmt.Errorf("failed to remove submission record: %w", err)
	}
	logger.Debug.Printf(
		"Gradebook record of student %q for lesson %q was removed.",
		studentID, lesson,
	)
	return nil
}
