package prescription

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/drkhoa/clinic/internal/platform/apperr"
)

// Saga step identifiers, reported back to the caller when finalization stops
// partway. Clients retry from the failed step, so these names are part of the
// API contract and must stay stable.
const (
	StepPrescription     = "prescription"
	StepLines            = "lines"
	StepPatientStatus    = "patient_status"
	StepInventoryRestore = "inventory_restore"
	StepInventoryDeduct  = "inventory_deduct"
)

// StepError wraps a failure inside Finalize with the step it happened in.
// Steps already completed stay committed; there is no rollback.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// PatientStatusUpdater closes out the patient's visit once a prescription is
// finalized.
type PatientStatusUpdater interface {
	MarkChecked(ctx context.Context, patientID, historyID uuid.UUID, appointmentDate *time.Time) error
}

// InventoryAdjuster moves stock in and out of the medicine ledger.
type InventoryAdjuster interface {
	Deduct(ctx context.Context, medicineID uuid.UUID, quantity int) error
	Restore(ctx context.Context, medicineID uuid.UUID, quantity int) error
}

// FinalizeRequest carries everything one finalization touches. PreviousLines
// is the quantity snapshot taken before an edit; it is empty on first
// creation, and an empty snapshot means nothing to restore.
type FinalizeRequest struct {
	Prescription *Prescription
	Lines        []MedicineLine
	// NoMedicine finalizes a visit that ends without dispensing: lines are
	// not persisted and nothing is deducted.
	NoMedicine      bool
	PreviousLines   []LineSnapshot
	AppointmentDate *time.Time
}

// FinalizeResult reports which steps committed. When Finalize also returns a
// StepError, Completed tells the client where to resume.
type FinalizeResult struct {
	PrescriptionID uuid.UUID `json:"prescription_id"`
	Completed      []string  `json:"completed"`
}

// Service runs the prescription fulfillment flow. Finalization is a sequence
// of independently committed steps, not a transaction: a mid-sequence failure
// leaves earlier steps in place and reports the failed step to the caller.
type Service struct {
	prescriptions PrescriptionRepository
	lines         LineRepository
	patients      PatientStatusUpdater
	inventory     InventoryAdjuster

	now func() time.Time
}

func NewService(prescriptions PrescriptionRepository, lines LineRepository, patients PatientStatusUpdater, inventory InventoryAdjuster) *Service {
	return &Service{
		prescriptions: prescriptions,
		lines:         lines,
		patients:      patients,
		inventory:     inventory,
		now:           time.Now,
	}
}

func (s *Service) validate(req *FinalizeRequest) error {
	p := req.Prescription
	if p == nil {
		return apperr.Invalid("prescription", "is required")
	}
	if p.PatientID == uuid.Nil {
		return apperr.Invalid("patient_id", "is required")
	}
	if p.HistoryID == uuid.Nil {
		return apperr.Invalid("history_id", "is required")
	}
	if p.DoctorID == uuid.Nil {
		return apperr.Invalid("doctor_id", "is required")
	}
	if p.Diagnosis == "" {
		return apperr.Invalid("diagnosis", "is required")
	}
	if !req.NoMedicine && len(req.Lines) == 0 {
		return apperr.Invalid("lines", "are required unless no medicine is dispensed")
	}
	for _, l := range req.Lines {
		if l.MedicineID == uuid.Nil {
			return apperr.Invalid("lines", "every line needs a medicine")
		}
		if l.Quantity <= 0 {
			return apperr.Invalid("lines", "every line needs a positive quantity")
		}
	}
	return nil
}

// Create finalizes a brand-new prescription.
func (s *Service) Create(ctx context.Context, req *FinalizeRequest) (*FinalizeResult, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	p := req.Prescription
	p.Status = StatusNew
	p.DateCreated = s.now()
	return s.finalize(ctx, req, func(ctx context.Context) error {
		return s.prescriptions.Create(ctx, p)
	})
}

// Edit finalizes changes to an existing prescription. The caller supplies the
// pre-edit quantity snapshot so the stock deducted last time can be restored
// before the new quantities are deducted.
func (s *Service) Edit(ctx context.Context, req *FinalizeRequest) (*FinalizeResult, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	if req.Prescription.ID == uuid.Nil {
		return nil, apperr.Invalid("id", "is required")
	}
	// Status is not client-writable here: an edit keeps whatever the stored
	// row carries, so a printed prescription never regresses.
	stored, err := s.prescriptions.GetByID(ctx, req.Prescription.ID)
	if err != nil {
		return nil, err
	}
	req.Prescription.Status = stored.Status
	return s.finalize(ctx, req, func(ctx context.Context) error {
		return s.prescriptions.Update(ctx, req.Prescription)
	})
}

func (s *Service) finalize(ctx context.Context, req *FinalizeRequest, persist func(context.Context) error) (*FinalizeResult, error) {
	p := req.Prescription
	result := &FinalizeResult{}

	fail := func(step string, err error) (*FinalizeResult, error) {
		log.Warn().Str("step", step).Str("prescription_id", p.ID.String()).
			Err(err).Msg("prescription finalization stopped")
		return result, &StepError{Step: step, Err: err}
	}
	done := func(step string) { result.Completed = append(result.Completed, step) }

	if err := persist(ctx); err != nil {
		return fail(StepPrescription, err)
	}
	result.PrescriptionID = p.ID
	done(StepPrescription)

	if !req.NoMedicine {
		if err := s.lines.Replace(ctx, p.ID, req.Lines); err != nil {
			return fail(StepLines, err)
		}
	}
	done(StepLines)

	if err := s.patients.MarkChecked(ctx, p.PatientID, p.HistoryID, req.AppointmentDate); err != nil {
		return fail(StepPatientStatus, err)
	}
	done(StepPatientStatus)

	// Restore runs even for a no-medicine edit: a quantity deducted on an
	// earlier version must come back regardless of what the new version
	// dispenses.
	for _, prev := range req.PreviousLines {
		if err := s.inventory.Restore(ctx, prev.MedicineID, prev.Quantity); err != nil {
			return fail(StepInventoryRestore, err)
		}
	}
	done(StepInventoryRestore)

	if !req.NoMedicine {
		for _, l := range req.Lines {
			if err := s.inventory.Deduct(ctx, l.MedicineID, l.Quantity); err != nil {
				return fail(StepInventoryDeduct, err)
			}
		}
	}
	done(StepInventoryDeduct)

	return result, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Prescription, []MedicineLine, error) {
	p, err := s.prescriptions.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	lines, err := s.lines.ListByPrescription(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return p, lines, nil
}

func (s *Service) Search(ctx context.Context, query string, limit, offset int) ([]*Prescription, int, error) {
	return s.prescriptions.Search(ctx, query, limit, offset)
}

// TodayQueue returns today's prescriptions in the order doctors finished
// them, for the front desk's print queue.
func (s *Service) TodayQueue(ctx context.Context) ([]*Prescription, error) {
	return s.prescriptions.ListDayQueue(ctx, s.now())
}

// MarkPrinted advances a pending prescription to printed. Printing twice is a
// no-op; the status never moves backwards.
func (s *Service) MarkPrinted(ctx context.Context, id uuid.UUID) error {
	p, err := s.prescriptions.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if statusRank[p.Status] >= statusRank[StatusPrinted] {
		return nil
	}
	return s.prescriptions.UpdateStatus(ctx, id, StatusPrinted)
}
