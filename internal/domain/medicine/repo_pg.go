package medicine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/drkhoa/clinic/internal/platform/apperr"
)

type medicineRepoPG struct{ pool *pgxpool.Pool }

func NewMedicineRepoPG(pool *pgxpool.Pool) MedicineRepository {
	return &medicineRepoPG{pool: pool}
}

const medCols = `id, id_code, name, ingredient, net_weight, quantity, unit, price,
	expired_date, is_deleted, created_at, updated_at`

func (r *medicineRepoPG) scan(row pgx.Row) (*Medicine, error) {
	var m Medicine
	err := row.Scan(&m.ID, &m.IDCode, &m.Name, &m.Ingredient, &m.NetWeight,
		&m.Quantity, &m.Unit, &m.Price, &m.ExpiredDate, &m.IsDeleted,
		&m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *medicineRepoPG) Create(ctx context.Context, m *Medicine) error {
	m.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO medicine (id, id_code, name, ingredient, net_weight, quantity, unit, price, expired_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		m.ID, m.IDCode, m.Name, m.Ingredient, m.NetWeight, m.Quantity, m.Unit, m.Price, m.ExpiredDate)
	return err
}

func (r *medicineRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return r.scan(r.pool.QueryRow(ctx,
		`SELECT `+medCols+` FROM medicine WHERE id = $1 AND NOT is_deleted`, id))
}

func (r *medicineRepoPG) Update(ctx context.Context, m *Medicine) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE medicine SET id_code=$2, name=$3, ingredient=$4, net_weight=$5,
			quantity=$6, unit=$7, price=$8, expired_date=$9, updated_at=NOW()
		WHERE id = $1 AND NOT is_deleted`,
		m.ID, m.IDCode, m.Name, m.Ingredient, m.NetWeight, m.Quantity, m.Unit, m.Price, m.ExpiredDate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNoRowsAffected
	}
	return nil
}

func (r *medicineRepoPG) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE medicine SET is_deleted = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *medicineRepoPG) Search(ctx context.Context, query string, limit, offset int) ([]*Medicine, int, error) {
	where := `NOT is_deleted`
	args := []interface{}{}
	if query != "" {
		where += ` AND (name ILIKE '%' || $1 || '%' OR id_code ILIKE '%' || $1 || '%' OR ingredient ILIKE '%' || $1 || '%')`
		args = append(args, query)
	}

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM medicine WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count medicines: %w", err)
	}

	args = append(args, limit, offset)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM medicine WHERE %s ORDER BY name LIMIT $%d OFFSET $%d`,
		medCols, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []*Medicine
	for rows.Next() {
		m, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, m)
	}
	return result, total, rows.Err()
}

func (r *medicineRepoPG) AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) error {
	// No lower-bound check: stock may go negative.
	tag, err := r.pool.Exec(ctx,
		`UPDATE medicine SET quantity = quantity + $2, updated_at = NOW()
		 WHERE id = $1 AND NOT is_deleted`, id, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
