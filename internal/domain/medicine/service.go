package medicine

import (
	"context"

	"github.com/google/uuid"

	"github.com/drkhoa/clinic/internal/platform/apperr"
)

// Service owns the medicine catalog and the stock ledger. Ledger operations
// are deliberately decoupled from prescription logic so an edit can restore
// previously deducted stock before deducting the new quantities.
type Service struct {
	medicines MedicineRepository
}

func NewService(medicines MedicineRepository) *Service {
	return &Service{medicines: medicines}
}

func (s *Service) CreateMedicine(ctx context.Context, m *Medicine) error {
	if m.Name == "" {
		return apperr.Invalid("name", "is required")
	}
	return s.medicines.Create(ctx, m)
}

func (s *Service) GetMedicine(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return s.medicines.GetByID(ctx, id)
}

func (s *Service) UpdateMedicine(ctx context.Context, m *Medicine) error {
	if m.Name == "" {
		return apperr.Invalid("name", "is required")
	}
	return s.medicines.Update(ctx, m)
}

func (s *Service) DeleteMedicine(ctx context.Context, id uuid.UUID) error {
	return s.medicines.SoftDelete(ctx, id)
}

func (s *Service) SearchMedicines(ctx context.Context, query string, limit, offset int) ([]*Medicine, int, error) {
	return s.medicines.Search(ctx, query, limit, offset)
}

// Deduct subtracts quantity from the medicine's stock. Stock is allowed to go
// negative; detecting oversell is the pharmacist's job, not the ledger's.
func (s *Service) Deduct(ctx context.Context, medicineID uuid.UUID, quantity int) error {
	if medicineID == uuid.Nil {
		return apperr.Invalid("medicine_id", "is required")
	}
	if quantity < 0 {
		return apperr.Invalid("quantity", "must not be negative")
	}
	return s.medicines.AdjustQuantity(ctx, medicineID, -quantity)
}

// Restore adds quantity back to the medicine's stock.
func (s *Service) Restore(ctx context.Context, medicineID uuid.UUID, quantity int) error {
	if medicineID == uuid.Nil {
		return apperr.Invalid("medicine_id", "is required")
	}
	if quantity < 0 {
		return apperr.Invalid("quantity", "must not be negative")
	}
	return s.medicines.AdjustQuantity(ctx, medicineID, quantity)
}

// DeductAll applies one Deduct per adjustment. Each row is independently
// committed; a failure aborts the remainder without undoing earlier rows.
func (s *Service) DeductAll(ctx context.Context, adjustments []QuantityAdjustment) error {
	for _, a := range adjustments {
		if err := s.Deduct(ctx, a.MedicineID, a.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// RestoreAll applies one Restore per adjustment, with the same per-row
// commit semantics as DeductAll.
func (s *Service) RestoreAll(ctx context.Context, adjustments []QuantityAdjustment) error {
	for _, a := range adjustments {
		if err := s.Restore(ctx, a.MedicineID, a.Quantity); err != nil {
			return err
		}
	}
	return nil
}
