package prescription

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type PrescriptionRepository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	Update(ctx context.Context, p *Prescription) error
	Search(ctx context.Context, query string, limit, offset int) ([]*Prescription, int, error)
	// ListDayQueue returns the given day's prescriptions ordered by last
	// update, oldest first, so the front desk prints in the order doctors
	// finished.
	ListDayQueue(ctx context.Context, day time.Time) ([]*Prescription, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
}

type LineRepository interface {
	// Replace drops every line of the prescription and inserts the given
	// ones. An edit never patches lines in place.
	Replace(ctx context.Context, prescriptionID uuid.UUID, lines []MedicineLine) error
	ListByPrescription(ctx context.Context, prescriptionID uuid.UUID) ([]MedicineLine, error)
}
