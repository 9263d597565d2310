package medicine

import (
	"context"

	"github.com/google/uuid"
)

type MedicineRepository interface {
	Create(ctx context.Context, m *Medicine) error
	GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error)
	Update(ctx context.Context, m *Medicine) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string, limit, offset int) ([]*Medicine, int, error)
	// AdjustQuantity applies a signed stock delta to a single medicine row.
	// Each call is its own commit; there is no batching across rows.
	AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) error
}
