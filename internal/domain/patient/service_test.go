package patient

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/drkhoa/clinic/internal/platform/apperr"
)

var day1 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type mockPatientRepo struct {
	patients map[uuid.UUID]*Patient
	now      time.Time
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{patients: make(map[uuid.UUID]*Patient), now: day1}
}

func (m *mockPatientRepo) Create(_ context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = m.now
	p.UpdatedAt = m.now
	cp := *p
	m.patients[p.ID] = &cp
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok || p.IsDeleted {
		return nil, apperr.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockPatientRepo) Update(_ context.Context, p *Patient) error {
	existing, ok := m.patients[p.ID]
	if !ok || existing.IsDeleted {
		return apperr.ErrNoRowsAffected
	}
	cp := *p
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = m.now
	m.patients[p.ID] = &cp
	return nil
}

func (m *mockPatientRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	p, ok := m.patients[id]
	if !ok || p.IsDeleted {
		return apperr.ErrNotFound
	}
	p.IsDeleted = true
	return nil
}

func (m *mockPatientRepo) Search(_ context.Context, _ string, limit, offset int) ([]*Patient, int, error) {
	var all []*Patient
	for _, p := range m.patients {
		if !p.IsDeleted {
			cp := *p
			all = append(all, &cp)
		}
	}
	return all, len(all), nil
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (m *mockPatientRepo) ListDayCohort(_ context.Context, day time.Time) ([]*Patient, error) {
	var cohort []*Patient
	for _, p := range m.patients {
		if p.IsDeleted || p.Status == StatusChecked {
			continue
		}
		walkIn := p.AppointmentDate == nil && (sameDate(p.CreatedAt, day) || sameDate(p.UpdatedAt, day))
		appointed := p.AppointmentDate != nil && sameDate(*p.AppointmentDate, day)
		if walkIn || appointed {
			cp := *p
			cohort = append(cohort, &cp)
		}
	}
	sort.Slice(cohort, func(i, j int) bool { return cohort[i].OrderNumber < cohort[j].OrderNumber })
	return cohort, nil
}

func (m *mockPatientRepo) ListAppointedOn(_ context.Context, day time.Time) ([]*Patient, error) {
	var cohort []*Patient
	for _, p := range m.patients {
		if p.IsDeleted || p.Status == StatusChecked {
			continue
		}
		if p.AppointmentDate != nil && sameDate(*p.AppointmentDate, day) {
			cp := *p
			cohort = append(cohort, &cp)
		}
	}
	sort.Slice(cohort, func(i, j int) bool { return cohort[i].OrderNumber < cohort[j].OrderNumber })
	return cohort, nil
}

func (m *mockPatientRepo) UpdateStatus(_ context.Context, id uuid.UUID, status Status, appointmentDate *time.Time) error {
	p, ok := m.patients[id]
	if !ok || p.IsDeleted {
		return apperr.ErrNotFound
	}
	p.Status = status
	if appointmentDate != nil {
		p.AppointmentDate = appointmentDate
	}
	p.UpdatedAt = m.now
	return nil
}

type mockHistoryRepo struct {
	histories map[uuid.UUID]*History
}

func newMockHistoryRepo() *mockHistoryRepo {
	return &mockHistoryRepo{histories: make(map[uuid.UUID]*History)}
}

func (m *mockHistoryRepo) Create(_ context.Context, h *History) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	h.CreatedAt = time.Now()
	cp := *h
	m.histories[h.ID] = &cp
	return nil
}

func (m *mockHistoryRepo) GetByID(_ context.Context, id uuid.UUID) (*History, error) {
	h, ok := m.histories[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *h
	return &cp, nil
}

func (m *mockHistoryRepo) GetOpenByPatient(_ context.Context, patientID uuid.UUID) (*History, error) {
	var latest *History
	for _, h := range m.histories {
		if h.PatientID != patientID || h.IsChecked {
			continue
		}
		if latest == nil || h.CreatedAt.After(latest.CreatedAt) {
			latest = h
		}
	}
	if latest == nil {
		return nil, apperr.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *mockHistoryRepo) Update(_ context.Context, h *History) error {
	if _, ok := m.histories[h.ID]; !ok {
		return apperr.ErrNoRowsAffected
	}
	cp := *h
	m.histories[h.ID] = &cp
	return nil
}

func (m *mockHistoryRepo) MarkChecked(_ context.Context, id uuid.UUID) error {
	h, ok := m.histories[id]
	if !ok {
		return apperr.ErrNotFound
	}
	h.IsChecked = true
	return nil
}

func newTestService() (*Service, *mockPatientRepo, *mockHistoryRepo) {
	patients := newMockPatientRepo()
	histories := newMockHistoryRepo()
	svc := NewService(patients, histories)
	svc.now = func() time.Time { return day1 }
	return svc, patients, histories
}

func TestCreatePatient_FirstGetsOrderOne(t *testing.T) {
	svc, _, _ := newTestService()

	p := &Patient{FullName: "Alice"}
	if err := svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("CreatePatient: %v", err)
	}
	if p.OrderNumber != 1 {
		t.Errorf("order = %d, want 1", p.OrderNumber)
	}
	if p.Status != StatusNew {
		t.Errorf("status = %q, want %q", p.Status, StatusNew)
	}
}

func TestCreatePatient_OrderStrictlyIncreases(t *testing.T) {
	svc, _, _ := newTestService()

	for i, name := range []string{"A", "B", "C"} {
		p := &Patient{FullName: name}
		if err := svc.CreatePatient(context.Background(), p); err != nil {
			t.Fatalf("CreatePatient %s: %v", name, err)
		}
		if p.OrderNumber != i+1 {
			t.Errorf("%s order = %d, want %d", name, p.OrderNumber, i+1)
		}
	}
}

func TestCreatePatient_MissingName(t *testing.T) {
	svc, _, _ := newTestService()

	err := svc.CreatePatient(context.Background(), &Patient{})
	if !apperr.IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

// A checked patient leaves the queue; their number is never handed out again.
func TestAssignOrderNumber_GapNotReused(t *testing.T) {
	svc, patients, _ := newTestService()

	var first *Patient
	for _, name := range []string{"A", "B", "C"} {
		p := &Patient{FullName: name}
		if err := svc.CreatePatient(context.Background(), p); err != nil {
			t.Fatalf("CreatePatient: %v", err)
		}
		if name == "A" {
			first = p
		}
	}

	if err := patients.UpdateStatus(context.Background(), first.ID, StatusChecked, nil); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	next := &Patient{FullName: "D"}
	if err := svc.CreatePatient(context.Background(), next); err != nil {
		t.Fatalf("CreatePatient: %v", err)
	}
	if next.OrderNumber != 4 {
		t.Errorf("order = %d, want 4 (number 1 left a gap)", next.OrderNumber)
	}
}

func TestAssignOrderNumber_FutureAppointmentCohort(t *testing.T) {
	svc, _, _ := newTestService()

	// Fill today's queue so the two cohorts would collide if shared.
	for _, name := range []string{"A", "B"} {
		if err := svc.CreatePatient(context.Background(), &Patient{FullName: name}); err != nil {
			t.Fatalf("CreatePatient: %v", err)
		}
	}

	future := day1.AddDate(0, 0, 3)
	p1 := &Patient{FullName: "F1", AppointmentDate: &future}
	if err := svc.CreatePatient(context.Background(), p1); err != nil {
		t.Fatalf("CreatePatient: %v", err)
	}
	if p1.OrderNumber != 1 {
		t.Errorf("future cohort first order = %d, want 1", p1.OrderNumber)
	}

	p2 := &Patient{FullName: "F2", AppointmentDate: &future}
	if err := svc.CreatePatient(context.Background(), p2); err != nil {
		t.Fatalf("CreatePatient: %v", err)
	}
	if p2.OrderNumber != 2 {
		t.Errorf("future cohort second order = %d, want 2", p2.OrderNumber)
	}

	// Today's queue keeps its own numbering.
	walkIn := &Patient{FullName: "C"}
	if err := svc.CreatePatient(context.Background(), walkIn); err != nil {
		t.Fatalf("CreatePatient: %v", err)
	}
	if walkIn.OrderNumber != 3 {
		t.Errorf("today order = %d, want 3", walkIn.OrderNumber)
	}
}

// An appointment on today's date joins today's queue rather than a separate
// cohort.
func TestAssignOrderNumber_AppointmentTodayJoinsQueue(t *testing.T) {
	svc, _, _ := newTestService()

	for _, name := range []string{"A", "B"} {
		if err := svc.CreatePatient(context.Background(), &Patient{FullName: name}); err != nil {
			t.Fatalf("CreatePatient: %v", err)
		}
	}

	today := day1.Add(2 * time.Hour)
	appointed := &Patient{FullName: "C", AppointmentDate: &today, Status: StatusAppointed}
	if err := svc.CreatePatient(context.Background(), appointed); err != nil {
		t.Fatalf("CreatePatient: %v", err)
	}
	if appointed.OrderNumber != 3 {
		t.Errorf("order = %d, want 3", appointed.OrderNumber)
	}
}

func TestUpdatePatient_RejoinsAtBack(t *testing.T) {
	svc, _, _ := newTestService()

	a := &Patient{FullName: "A"}
	b := &Patient{FullName: "B"}
	for _, p := range []*Patient{a, b} {
		if err := svc.CreatePatient(context.Background(), p); err != nil {
			t.Fatalf("CreatePatient: %v", err)
		}
	}

	a.FullName = "A (edited)"
	if err := svc.UpdatePatient(context.Background(), a); err != nil {
		t.Fatalf("UpdatePatient: %v", err)
	}
	if a.OrderNumber != 3 {
		t.Errorf("order after update = %d, want 3", a.OrderNumber)
	}
}

// Updating the patient already at the back of the queue still hands out a
// fresh number; their own stored row counts toward the cohort maximum.
func TestUpdatePatient_BackOfQueueRejoins(t *testing.T) {
	svc, _, _ := newTestService()

	a := &Patient{FullName: "A"}
	b := &Patient{FullName: "B"}
	for _, p := range []*Patient{a, b} {
		if err := svc.CreatePatient(context.Background(), p); err != nil {
			t.Fatalf("CreatePatient: %v", err)
		}
	}

	b.FullName = "B (edited)"
	if err := svc.UpdatePatient(context.Background(), b); err != nil {
		t.Fatalf("UpdatePatient: %v", err)
	}
	if b.OrderNumber != 3 {
		t.Errorf("order after update = %d, want 3", b.OrderNumber)
	}
}

func TestTodayQueue_OrderedAndExcludesCheckedAndDeleted(t *testing.T) {
	svc, patients, _ := newTestService()

	var ids []uuid.UUID
	for _, name := range []string{"A", "B", "C", "D"} {
		p := &Patient{FullName: name}
		if err := svc.CreatePatient(context.Background(), p); err != nil {
			t.Fatalf("CreatePatient: %v", err)
		}
		ids = append(ids, p.ID)
	}
	if err := patients.UpdateStatus(context.Background(), ids[1], StatusChecked, nil); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if err := svc.DeletePatient(context.Background(), ids[3]); err != nil {
		t.Fatalf("DeletePatient: %v", err)
	}

	queue, err := svc.TodayQueue(context.Background())
	if err != nil {
		t.Fatalf("TodayQueue: %v", err)
	}
	if len(queue) != 2 {
		t.Fatalf("queue len = %d, want 2", len(queue))
	}
	if queue[0].OrderNumber != 1 || queue[1].OrderNumber != 3 {
		t.Errorf("queue orders = %d,%d, want 1,3", queue[0].OrderNumber, queue[1].OrderNumber)
	}
}

func TestMarkChecked(t *testing.T) {
	svc, patients, histories := newTestService()

	p := &Patient{FullName: "A"}
	if err := svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("CreatePatient: %v", err)
	}
	h := &History{PatientID: p.ID, DoctorID: uuid.New()}
	if err := svc.CreateHistory(context.Background(), h); err != nil {
		t.Fatalf("CreateHistory: %v", err)
	}

	followUp := day1.AddDate(0, 0, 7)
	if err := svc.MarkChecked(context.Background(), p.ID, h.ID, &followUp); err != nil {
		t.Fatalf("MarkChecked: %v", err)
	}

	stored := patients.patients[p.ID]
	if stored.Status != StatusChecked {
		t.Errorf("status = %q, want %q", stored.Status, StatusChecked)
	}
	if stored.AppointmentDate == nil || !stored.AppointmentDate.Equal(followUp) {
		t.Errorf("appointment = %v, want %v", stored.AppointmentDate, followUp)
	}
	if !histories.histories[h.ID].IsChecked {
		t.Error("history not marked checked")
	}
}

func TestMarkChecked_UnknownPatient(t *testing.T) {
	svc, _, _ := newTestService()

	err := svc.MarkChecked(context.Background(), uuid.New(), uuid.New(), nil)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestOpenHistory_ReturnsExisting(t *testing.T) {
	svc, _, _ := newTestService()

	p := &Patient{FullName: "A"}
	if err := svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("CreatePatient: %v", err)
	}
	doctor := uuid.New()
	h := &History{PatientID: p.ID, DoctorID: doctor}
	if err := svc.CreateHistory(context.Background(), h); err != nil {
		t.Fatalf("CreateHistory: %v", err)
	}

	open, err := svc.OpenHistory(context.Background(), p.ID, doctor)
	if err != nil {
		t.Fatalf("OpenHistory: %v", err)
	}
	if open.ID != h.ID {
		t.Errorf("open history = %s, want %s", open.ID, h.ID)
	}
}

func TestOpenHistory_CreatesWhenMissing(t *testing.T) {
	svc, _, histories := newTestService()

	p := &Patient{FullName: "A"}
	if err := svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("CreatePatient: %v", err)
	}

	doctor := uuid.New()
	open, err := svc.OpenHistory(context.Background(), p.ID, doctor)
	if err != nil {
		t.Fatalf("OpenHistory: %v", err)
	}
	if open.ID == uuid.Nil {
		t.Fatal("expected a created history")
	}
	if _, ok := histories.histories[open.ID]; !ok {
		t.Error("history not persisted")
	}
	if open.DoctorID != doctor {
		t.Errorf("doctor = %s, want %s", open.DoctorID, doctor)
	}
}
