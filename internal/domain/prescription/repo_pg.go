package prescription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/drkhoa/clinic/internal/platform/apperr"
)

type prescriptionRepoPG struct{ pool *pgxpool.Pool }

func NewPrescriptionRepoPG(pool *pgxpool.Pool) PrescriptionRepository {
	return &prescriptionRepoPG{pool: pool}
}

const prescriptionCols = `id, id_code, diagnosis, other_diagnosis, note, status,
	patient_id, history_id, doctor_id, date_created, created_at, updated_at`

func (r *prescriptionRepoPG) scan(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.IDCode, &p.Diagnosis, &p.OtherDiagnosis, &p.Note,
		&p.Status, &p.PatientID, &p.HistoryID, &p.DoctorID, &p.DateCreated,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *prescriptionRepoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO prescription (id, id_code, diagnosis, other_diagnosis, note, status,
			patient_id, history_id, doctor_id, date_created)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		p.ID, p.IDCode, p.Diagnosis, p.OtherDiagnosis, p.Note, p.Status,
		p.PatientID, p.HistoryID, p.DoctorID, p.DateCreated)
	return err
}

func (r *prescriptionRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return r.scan(r.pool.QueryRow(ctx,
		`SELECT `+prescriptionCols+` FROM prescription WHERE id = $1`, id))
}

func (r *prescriptionRepoPG) Update(ctx context.Context, p *Prescription) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE prescription SET id_code=$2, diagnosis=$3, other_diagnosis=$4, note=$5,
			status=$6, patient_id=$7, history_id=$8, doctor_id=$9, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.IDCode, p.Diagnosis, p.OtherDiagnosis, p.Note, p.Status,
		p.PatientID, p.HistoryID, p.DoctorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNoRowsAffected
	}
	return nil
}

func (r *prescriptionRepoPG) Search(ctx context.Context, query string, limit, offset int) ([]*Prescription, int, error) {
	where := `TRUE`
	args := []interface{}{}
	if query != "" {
		where = `(id_code ILIKE '%' || $1 || '%' OR diagnosis ILIKE '%' || $1 || '%')`
		args = append(args, query)
	}

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM prescription WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count prescriptions: %w", err)
	}

	args = append(args, limit, offset)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM prescription WHERE %s ORDER BY date_created DESC LIMIT $%d OFFSET $%d`,
		prescriptionCols, where, len(args)-1, len(args)), args...)
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

func (r *prescriptionRepoPG) ListDayQueue(ctx context.Context, day time.Time) ([]*Prescription, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+prescriptionCols+` FROM prescription
		WHERE date_created::date = $1::date OR updated_at::date = $1::date
		ORDER BY updated_at ASC`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *prescriptionRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE prescription SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *prescriptionRepoPG) collect(rows pgx.Rows) ([]*Prescription, error) {
	var result []*Prescription
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

type lineRepoPG struct{ pool *pgxpool.Pool }

func NewLineRepoPG(pool *pgxpool.Pool) LineRepository {
	return &lineRepoPG{pool: pool}
}

func (r *lineRepoPG) Replace(ctx context.Context, prescriptionID uuid.UUID, lines []MedicineLine) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM prescription_medicine WHERE prescription_id = $1`, prescriptionID); err != nil {
		return err
	}
	for i := range lines {
		lines[i].ID = uuid.New()
		lines[i].PrescriptionID = prescriptionID
		l := lines[i]
		if _, err := tx.Exec(ctx, `
			INSERT INTO prescription_medicine (id, prescription_id, medicine_id, medicine_name,
				ingredient, net_weight, quantity, unit, take_period, take_method,
				take_times, amount_per_time, meal_time, note)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
			l.ID, l.PrescriptionID, l.MedicineID, l.MedicineName, l.Ingredient,
			l.NetWeight, l.Quantity, l.Unit, l.TakePeriod, l.TakeMethod,
			l.TakeTimes, l.AmountPerTime, l.MealTime, l.Note); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *lineRepoPG) ListByPrescription(ctx context.Context, prescriptionID uuid.UUID) ([]MedicineLine, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, prescription_id, medicine_id, medicine_name, ingredient, net_weight,
			quantity, unit, take_period, take_method, take_times, amount_per_time,
			meal_time, note
		FROM prescription_medicine
		WHERE prescription_id = $1
		ORDER BY medicine_name`, prescriptionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []MedicineLine
	for rows.Next() {
		var l MedicineLine
		if err := rows.Scan(&l.ID, &l.PrescriptionID, &l.MedicineID, &l.MedicineName,
			&l.Ingredient, &l.NetWeight, &l.Quantity, &l.Unit, &l.TakePeriod,
			&l.TakeMethod, &l.TakeTimes, &l.AmountPerTime, &l.MealTime, &l.Note); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
