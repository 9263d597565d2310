package patient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/drkhoa/clinic/internal/platform/apperr"
)

// =========== Patient Repository ===========

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

const patientCols = `id, id_code, full_name, gender, date_of_birth, age, address,
	phone_number, relative_phone_number, email, job, status, appointment_date,
	order_number, is_deleted, created_at, updated_at`

func (r *patientRepoPG) scan(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.IDCode, &p.FullName, &p.Gender, &p.DateOfBirth,
		&p.Age, &p.Address, &p.PhoneNumber, &p.RelativePhoneNumber, &p.Email,
		&p.Job, &p.Status, &p.AppointmentDate, &p.OrderNumber, &p.IsDeleted,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO patient (id, id_code, full_name, gender, date_of_birth, age, address,
			phone_number, relative_phone_number, email, job, status, appointment_date, order_number)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		p.ID, p.IDCode, p.FullName, p.Gender, p.DateOfBirth, p.Age, p.Address,
		p.PhoneNumber, p.RelativePhoneNumber, p.Email, p.Job, p.Status,
		p.AppointmentDate, p.OrderNumber)
	return err
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return r.scan(r.pool.QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE id = $1 AND NOT is_deleted`, id))
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE patient SET id_code=$2, full_name=$3, gender=$4, date_of_birth=$5,
			age=$6, address=$7, phone_number=$8, relative_phone_number=$9,
			email=$10, job=$11, status=$12, appointment_date=$13, order_number=$14,
			updated_at=NOW()
		WHERE id = $1 AND NOT is_deleted`,
		p.ID, p.IDCode, p.FullName, p.Gender, p.DateOfBirth, p.Age, p.Address,
		p.PhoneNumber, p.RelativePhoneNumber, p.Email, p.Job, p.Status,
		p.AppointmentDate, p.OrderNumber)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNoRowsAffected
	}
	return nil
}

func (r *patientRepoPG) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE patient SET is_deleted = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *patientRepoPG) Search(ctx context.Context, query string, limit, offset int) ([]*Patient, int, error) {
	where := `NOT is_deleted`
	args := []interface{}{}
	if query != "" {
		where += ` AND (full_name ILIKE '%' || $1 || '%' OR id_code ILIKE '%' || $1 || '%' OR phone_number ILIKE '%' || $1 || '%')`
		args = append(args, query)
	}

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM patient WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}

	args = append(args, limit, offset)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM patient WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		patientCols, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	result, err := r.collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *patientRepoPG) ListDayCohort(ctx context.Context, day time.Time) ([]*Patient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+patientCols+` FROM patient
		WHERE NOT is_deleted
		  AND status <> $2
		  AND ((appointment_date IS NULL AND (created_at::date = $1::date OR updated_at::date = $1::date))
		    OR appointment_date::date = $1::date)
		ORDER BY order_number`,
		day, StatusChecked)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *patientRepoPG) ListAppointedOn(ctx context.Context, day time.Time) ([]*Patient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+patientCols+` FROM patient
		WHERE NOT is_deleted
		  AND status <> $2
		  AND appointment_date::date = $1::date
		ORDER BY order_number`,
		day, StatusChecked)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *patientRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, appointmentDate *time.Time) error {
	var (
		tag pgconn.CommandTag
		err error
	)
	if appointmentDate != nil {
		tag, err = r.pool.Exec(ctx, `
			UPDATE patient SET status = $2, appointment_date = $3, updated_at = NOW()
			WHERE id = $1 AND NOT is_deleted`, id, status, appointmentDate)
	} else {
		tag, err = r.pool.Exec(ctx, `
			UPDATE patient SET status = $2, updated_at = NOW()
			WHERE id = $1 AND NOT is_deleted`, id, status)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *patientRepoPG) collect(rows pgx.Rows) ([]*Patient, error) {
	var result []*Patient
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// =========== History Repository ===========

type historyRepoPG struct{ pool *pgxpool.Pool }

func NewHistoryRepoPG(pool *pgxpool.Pool) HistoryRepository {
	return &historyRepoPG{pool: pool}
}

const historyCols = `id, patient_id, doctor_id, note, is_checked, created_at, updated_at`

func (r *historyRepoPG) scan(row pgx.Row) (*History, error) {
	var h History
	err := row.Scan(&h.ID, &h.PatientID, &h.DoctorID, &h.Note, &h.IsChecked,
		&h.CreatedAt, &h.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *historyRepoPG) Create(ctx context.Context, h *History) error {
	h.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO history (id, patient_id, doctor_id, note, is_checked)
		VALUES ($1,$2,$3,$4,$5)`,
		h.ID, h.PatientID, h.DoctorID, h.Note, h.IsChecked)
	return err
}

func (r *historyRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*History, error) {
	return r.scan(r.pool.QueryRow(ctx,
		`SELECT `+historyCols+` FROM history WHERE id = $1`, id))
}

func (r *historyRepoPG) GetOpenByPatient(ctx context.Context, patientID uuid.UUID) (*History, error) {
	return r.scan(r.pool.QueryRow(ctx, `
		SELECT `+historyCols+` FROM history
		WHERE patient_id = $1 AND NOT is_checked
		ORDER BY created_at DESC
		LIMIT 1`, patientID))
}

func (r *historyRepoPG) Update(ctx context.Context, h *History) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE history SET doctor_id=$2, note=$3, is_checked=$4, updated_at=NOW()
		WHERE id = $1`,
		h.ID, h.DoctorID, h.Note, h.IsChecked)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNoRowsAffected
	}
	return nil
}

func (r *historyRepoPG) MarkChecked(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE history SET is_checked = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
