package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/lussekatt/internal/backend"
	"github.com/shrimpsizemoose/lussekatt/internal/exchange"
	"github.com/shrimpsizemoose/lussekatt/internal/grading"
	"github.com/shrimpsizemoose/lussekatt/internal/models"
	"github.com/shrimpsizemoose/lussekatt/internal/retry"
	"github.com/shrimpsizemoose/lussekatt/internal/store"
)

type Service struct {
	Config  *Config
	Store   store.Store
	Grader  *grading.Grader
	Source  exchange.Source
	Sink    exchange.Sink
	Marker  *Marker
	Backend *backend.NbGrader
}

func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	st, err := NewStore(config.Database.DSN, config.Database.MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	nb, err := backend.New(backend.Config{
		Command:      config.Backend.Command,
		CourseRoot:   config.Course.Root,
		GradebookDSN: config.Backend.GradebookDSN,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init grading backend: %w", err)
	}

	source, err := exchange.NewDirSource(config.Course.DropDir)
	if err != nil {
		return nil, fmt.Errorf("failed to init submission source: %w", err)
	}
	sink, err := exchange.NewDirSink(config.Course.OutboxDir)
	if err != nil {
		return nil, fmt.Errorf("failed to init feedback sink: %w", err)
	}

	marker, err := NewMarker(config)
	if err != nil {
		return nil, fmt.Errorf("failed to init marker: %w", err)
	}

	return &Service{
		Config:  config,
		Store:   st,
		Grader:  grading.NewGrader(st, nb, config.Course.Root),
		Source:  source,
		Sink:    sink,
		Marker:  marker,
		Backend: nb,
	}, nil
}

// RunCycle processes one poll batch to completion. Rejections are
// per-submission outcomes; a returned error means the run hit a fatal
// invariant or environment problem and the process should die loudly.
func (s *Service) RunCycle(ctx context.Context) error {
	var submissions []models.Submission
	err := retry.Do(ctx, s.Config.RetryDelays(), func() error {
		var fetchErr error
		submissions, fetchErr = s.Source.FetchNew()
		return fetchErr
	})
	if err != nil {
		return fmt.Errorf("failed to fetch submissions: %w", err)
	}

	for _, sub := range submissions {
		processed, err := s.Marker.IsProcessed(ctx, sub.ID)
		if err != nil {
			return err
		}
		if processed {
			logger.Debug.Printf("Submission %q was already processed, sweeping it.", sub.ID)
			if err := s.Source.MarkCompleted(sub.ID); err != nil {
				return err
			}
			continue
		}

		result, err := s.Grader.GradeSubmission(ctx, sub)
		if err != nil {
			return fmt.Errorf("grading submission %s: %w", sub.ID, err)
		}

		// Skips are silent by design, the student hears nothing.
		if result.Status != models.StatusSkipped {
			if err := s.Sink.Deliver(result); err != nil {
				return fmt.Errorf("delivering result for %s: %w", sub.ID, err)
			}
		}

		if err := s.Source.MarkCompleted(sub.ID); err != nil {
			return fmt.Errorf("acknowledging submission %s: %w", sub.ID, err)
		}
		if err := s.Marker.MarkProcessed(ctx, sub.ID); err != nil {
			return err
		}
	}
	return nil
}

// RegisterLesson adds a lesson to the directory after checking the
// one-notebook invariant on its source folder: exactly one
// <lesson>.ipynb and nothing else notebook-shaped.
func (s *Service) RegisterLesson(lesson *models.Lesson) error {
	sourceDir := filepath.Join(s.Config.Course.Root, "source", lesson.Name)
	matches, err := filepath.Glob(filepath.Join(sourceDir, "*.ipynb"))
	if err != nil {
		return fmt.Errorf("failed to scan lesson source folder: %w", err)
	}
	if len(matches) != 1 {
		return fmt.Errorf(
			"lesson %q must have exactly one notebook in %s, found %d",
			lesson.Name, sourceDir, len(matches),
		)
	}
	expected := filepath.Join(sourceDir, lesson.Name+".ipynb")
	if matches[0] != expected {
		return fmt.Errorf("lesson notebook must be named %s, found %s", expected, matches[0])
	}

	return s.Store.CreateLesson(lesson)
}

func (s *Service) Close() error {
	var errs []error

	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if err := s.Backend.Close(); err != nil {
		errs = append(errs, fmt.Errorf("backend: %w", err))
	}
	if err := s.Marker.Close(); err != nil {
		errs = append(errs, fmt.Errorf("marker: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing: %v", errs)
	}
	return nil
}
