package patient

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/drkhoa/clinic/internal/platform/apperr"
)

// Service owns patient registration, the daily queue and visit histories.
type Service struct {
	patients  PatientRepository
	histories HistoryRepository

	// now is injectable so ordering can be tested against a fixed clock.
	now func() time.Time
}

func NewService(patients PatientRepository, histories HistoryRepository) *Service {
	return &Service{patients: patients, histories: histories, now: time.Now}
}

// afterDay reports whether a's calendar date is strictly after b's.
func afterDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC).
		After(time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC))
}

// AssignOrderNumber computes the patient's position in their queue cohort and
// stores it on p. The cohort is today's queue, unless the patient carries an
// appointment on a future date, in which case the cohort is that date's
// appointments. The number is one past the highest number already handed out
// in the cohort, starting from 1. Numbers are never reused: a patient leaving
// the queue leaves a gap.
//
// Two registrations landing concurrently can read the same cohort and receive
// the same number; the clinic runs a single front desk, so the window is
// accepted rather than locked around.
func (s *Service) AssignOrderNumber(ctx context.Context, p *Patient) error {
	today := s.now()

	var cohort []*Patient
	var err error
	if p.AppointmentDate != nil && afterDay(*p.AppointmentDate, today) {
		cohort, err = s.patients.ListAppointedOn(ctx, *p.AppointmentDate)
	} else {
		cohort, err = s.patients.ListDayCohort(ctx, today)
	}
	if err != nil {
		return err
	}

	// Cohorts come back ordered ascending by order number, so the last entry
	// carries the highest number handed out so far. The patient's own stored
	// row counts too: an update always re-queues at the back.
	order := 1
	for _, member := range cohort {
		if member.OrderNumber >= order {
			order = member.OrderNumber + 1
		}
	}
	p.OrderNumber = order
	return nil
}

func (s *Service) validate(p *Patient) error {
	if p.FullName == "" {
		return apperr.Invalid("full_name", "is required")
	}
	if p.Gender == "" {
		p.Gender = GenderNone
	}
	if !validGenders[p.Gender] {
		return apperr.Invalid("gender", "is not a recognised value")
	}
	if p.Status == "" {
		p.Status = StatusNew
	}
	if !validStatuses[p.Status] {
		return apperr.Invalid("status", "is not a recognised value")
	}
	return nil
}

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if err := s.validate(p); err != nil {
		return err
	}
	if err := s.AssignOrderNumber(ctx, p); err != nil {
		return err
	}
	return s.patients.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

// UpdatePatient saves the patient and hands them a fresh order number. An
// update re-enters the patient into today's queue (the cohort includes rows
// updated today), so they queue again at the back rather than keeping a
// number from an earlier visit.
func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	if err := s.validate(p); err != nil {
		return err
	}
	if err := s.AssignOrderNumber(ctx, p); err != nil {
		return err
	}
	return s.patients.Update(ctx, p)
}

func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	return s.patients.SoftDelete(ctx, id)
}

func (s *Service) SearchPatients(ctx context.Context, query string, limit, offset int) ([]*Patient, int, error) {
	return s.patients.Search(ctx, query, limit, offset)
}

// TodayQueue returns today's active queue in order-number order.
func (s *Service) TodayQueue(ctx context.Context) ([]*Patient, error) {
	return s.patients.ListDayCohort(ctx, s.now())
}

// MarkChecked closes out a visit: the patient leaves the queue and the open
// history is sealed. A follow-up appointment, when given, is stored so the
// patient re-enters the queue on that date.
func (s *Service) MarkChecked(ctx context.Context, patientID, historyID uuid.UUID, appointmentDate *time.Time) error {
	if err := s.patients.UpdateStatus(ctx, patientID, StatusChecked, appointmentDate); err != nil {
		return err
	}
	return s.histories.MarkChecked(ctx, historyID)
}

// =========== Histories ===========

func (s *Service) CreateHistory(ctx context.Context, h *History) error {
	if h.PatientID == uuid.Nil {
		return apperr.Invalid("patient_id", "is required")
	}
	if h.DoctorID == uuid.Nil {
		return apperr.Invalid("doctor_id", "is required")
	}
	return s.histories.Create(ctx, h)
}

func (s *Service) GetHistory(ctx context.Context, id uuid.UUID) (*History, error) {
	return s.histories.GetByID(ctx, id)
}

// OpenHistory returns the patient's current unchecked visit, creating one
// when none exists so the doctor always has a visit to write against.
func (s *Service) OpenHistory(ctx context.Context, patientID, doctorID uuid.UUID) (*History, error) {
	h, err := s.histories.GetOpenByPatient(ctx, patientID)
	if err == nil {
		return h, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	h = &History{PatientID: patientID, DoctorID: doctorID}
	if err := s.histories.Create(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

func (s *Service) UpdateHistory(ctx context.Context, h *History) error {
	if h.ID == uuid.Nil {
		return apperr.Invalid("id", "is required")
	}
	return s.histories.Update(ctx, h)
}
