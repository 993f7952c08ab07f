// Package exchange is the boundary to the mail-shaped collaborators.
// The grader only sees these interfaces; the directory implementations
// below let the daemon run against a drop directory that an external
// exchanger fills and an outbox it drains.
package exchange

import (
	"github.com/shrimpsizemoose/lussekatt/internal/models"
)

// Source delivers staged submissions, one batch per poll cycle.
type Source interface {
	FetchNew() ([]models.Submission, error)

	// MarkCompleted acknowledges a submission so it is not delivered
	// again. Safe to call for already-acknowledged ids.
	MarkCompleted(id string) error
}

// Sink receives terminal grade results for everything except silent
// skips. Rendering and sending are the collaborator's business.
type Sink interface {
	Deliver(result *models.GradeResult) error
}
