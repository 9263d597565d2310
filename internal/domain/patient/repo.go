package patient

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string, limit, offset int) ([]*Patient, int, error)
	// ListDayCohort returns active, not-yet-checked patients belonging to the
	// given day's queue: walk-ins created or updated that day with no
	// appointment, plus patients whose appointment falls on that day.
	// Ordered ascending by order number.
	ListDayCohort(ctx context.Context, day time.Time) ([]*Patient, error)
	// ListAppointedOn returns active, not-yet-checked patients whose
	// appointment date falls on the given day, ordered ascending by order
	// number.
	ListAppointedOn(ctx context.Context, day time.Time) ([]*Patient, error)
	// UpdateStatus applies a partial update of status and, when non-nil,
	// appointment date.
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, appointmentDate *time.Time) error
}

type HistoryRepository interface {
	Create(ctx context.Context, h *History) error
	GetByID(ctx context.Context, id uuid.UUID) (*History, error)
	// GetOpenByPatient returns the most recent unchecked history for the
	// patient, or apperr.ErrNotFound when every visit is closed.
	GetOpenByPatient(ctx context.Context, patientID uuid.UUID) (*History, error)
	Update(ctx context.Context, h *History) error
	MarkChecked(ctx context.Context, id uuid.UUID) error
}
