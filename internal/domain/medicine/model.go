package medicine

import (
	"time"

	"github.com/google/uuid"
)

// Medicine maps to the medicine table (drug catalog plus stock on hand).
// Quantity is adjusted only through the ledger operations; it is expected to
// stay non-negative but no lower bound is enforced, matching the front-desk
// workflow this system replaces.
type Medicine struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	IDCode      string     `db:"id_code" json:"id_code"`
	Name        string     `db:"name" json:"name"`
	Ingredient  *string    `db:"ingredient" json:"ingredient,omitempty"`
	NetWeight   *string    `db:"net_weight" json:"net_weight,omitempty"`
	Quantity    int        `db:"quantity" json:"quantity"`
	Unit        *string    `db:"unit" json:"unit,omitempty"`
	Price       *int64     `db:"price" json:"price,omitempty"`
	ExpiredDate *time.Time `db:"expired_date" json:"expired_date,omitempty"`
	IsDeleted   bool       `db:"is_deleted" json:"is_deleted"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// QuantityAdjustment is one ledger entry: a stock delta for a single medicine.
type QuantityAdjustment struct {
	MedicineID uuid.UUID `json:"medicine_id"`
	Quantity   int       `json:"quantity"`
}
