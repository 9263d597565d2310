package medicine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/drkhoa/clinic/internal/platform/apperr"
)

// -- Mock Repository --

type mockMedicineRepo struct {
	meds map[uuid.UUID]*Medicine
}

func newMockMedicineRepo() *mockMedicineRepo {
	return &mockMedicineRepo{meds: make(map[uuid.UUID]*Medicine)}
}

func (m *mockMedicineRepo) Create(_ context.Context, med *Medicine) error {
	med.ID = uuid.New()
	med.CreatedAt = time.Now()
	med.UpdatedAt = time.Now()
	m.meds[med.ID] = med
	return nil
}

func (m *mockMedicineRepo) GetByID(_ context.Context, id uuid.UUID) (*Medicine, error) {
	med, ok := m.meds[id]
	if !ok || med.IsDeleted {
		return nil, apperr.ErrNotFound
	}
	return med, nil
}

func (m *mockMedicineRepo) Update(_ context.Context, med *Medicine) error {
	existing, ok := m.meds[med.ID]
	if !ok || existing.IsDeleted {
		return apperr.ErrNoRowsAffected
	}
	m.meds[med.ID] = med
	return nil
}

func (m *mockMedicineRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	med, ok := m.meds[id]
	if !ok {
		return apperr.ErrNotFound
	}
	med.IsDeleted = true
	return nil
}

func (m *mockMedicineRepo) Search(_ context.Context, _ string, limit, offset int) ([]*Medicine, int, error) {
	var result []*Medicine
	for _, med := range m.meds {
		if !med.IsDeleted {
			result = append(result, med)
		}
	}
	total := len(result)
	if offset >= len(result) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], total, nil
}

func (m *mockMedicineRepo) AdjustQuantity(_ context.Context, id uuid.UUID, delta int) error {
	med, ok := m.meds[id]
	if !ok || med.IsDeleted {
		return apperr.ErrNotFound
	}
	med.Quantity += delta
	return nil
}

func newTestService() (*Service, *mockMedicineRepo) {
	repo := newMockMedicineRepo()
	return NewService(repo), repo
}

func seedMedicine(t *testing.T, svc *Service, name string, quantity int) *Medicine {
	t.Helper()
	m := &Medicine{Name: name, Quantity: quantity}
	if err := svc.CreateMedicine(context.Background(), m); err != nil {
		t.Fatalf("seed medicine: %v", err)
	}
	return m
}

// -- Catalog --

func TestCreateMedicine_NameRequired(t *testing.T) {
	svc, _ := newTestService()
	err := svc.CreateMedicine(context.Background(), &Medicine{})
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestDeleteMedicine_HidesFromReads(t *testing.T) {
	svc, _ := newTestService()
	m := seedMedicine(t, svc, "Amoxicillin", 10)

	if err := svc.DeleteMedicine(context.Background(), m.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.GetMedicine(context.Background(), m.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found after soft delete, got %v", err)
	}
}

// -- Ledger --

func TestDeduct_SubtractsStock(t *testing.T) {
	svc, _ := newTestService()
	m := seedMedicine(t, svc, "Paracetamol", 10)

	if err := svc.Deduct(context.Background(), m.ID, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := svc.GetMedicine(context.Background(), m.ID)
	if got.Quantity != 7 {
		t.Errorf("expected quantity 7, got %d", got.Quantity)
	}
}

func TestDeduct_AllowsNegativeStock(t *testing.T) {
	svc, _ := newTestService()
	m := seedMedicine(t, svc, "Paracetamol", 2)

	if err := svc.Deduct(context.Background(), m.ID, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := svc.GetMedicine(context.Background(), m.ID)
	if got.Quantity != -3 {
		t.Errorf("expected quantity -3, got %d", got.Quantity)
	}
}

func TestDeduct_UnknownMedicine(t *testing.T) {
	svc, _ := newTestService()
	err := svc.Deduct(context.Background(), uuid.New(), 1)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestRestore_AddsStock(t *testing.T) {
	svc, _ := newTestService()
	m := seedMedicine(t, svc, "Paracetamol", 4)

	if err := svc.Restore(context.Background(), m.ID, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := svc.GetMedicine(context.Background(), m.ID)
	if got.Quantity != 7 {
		t.Errorf("expected quantity 7, got %d", got.Quantity)
	}
}

func TestRestoreThenDeduct_NetZero(t *testing.T) {
	svc, _ := newTestService()
	m := seedMedicine(t, svc, "Paracetamol", 10)

	if err := svc.Restore(context.Background(), m.ID, 6); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if err := svc.Deduct(context.Background(), m.ID, 6); err != nil {
		t.Fatalf("deduct: %v", err)
	}
	got, _ := svc.GetMedicine(context.Background(), m.ID)
	if got.Quantity != 10 {
		t.Errorf("expected round trip to leave stock unchanged, got %d", got.Quantity)
	}
}

func TestDeduct_NegativeQuantityRejected(t *testing.T) {
	svc, _ := newTestService()
	m := seedMedicine(t, svc, "Paracetamol", 10)

	if err := svc.Deduct(context.Background(), m.ID, -1); !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestDeductAll_StopsAtFirstFailure(t *testing.T) {
	svc, _ := newTestService()
	a := seedMedicine(t, svc, "A", 10)
	b := seedMedicine(t, svc, "B", 10)

	adjustments := []QuantityAdjustment{
		{MedicineID: a.ID, Quantity: 2},
		{MedicineID: uuid.New(), Quantity: 1}, // unknown medicine
		{MedicineID: b.ID, Quantity: 3},
	}
	err := svc.DeductAll(context.Background(), adjustments)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	// The first row is already committed; the row after the failure is untouched.
	gotA, _ := svc.GetMedicine(context.Background(), a.ID)
	if gotA.Quantity != 8 {
		t.Errorf("expected A at 8, got %d", gotA.Quantity)
	}
	gotB, _ := svc.GetMedicine(context.Background(), b.ID)
	if gotB.Quantity != 10 {
		t.Errorf("expected B untouched at 10, got %d", gotB.Quantity)
	}
}
