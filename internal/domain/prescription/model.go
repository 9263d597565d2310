package prescription

import (
	"time"

	"github.com/google/uuid"
)

// Status tracks a prescription from the doctor's desk to the printer. The
// status only ever moves forward.
type Status string

const (
	StatusNew     Status = "new"
	StatusPending Status = "pending"
	StatusPrinted Status = "printed"
)

// statusRank orders statuses so transitions can be checked for monotonicity.
var statusRank = map[Status]int{
	StatusNew:     0,
	StatusPending: 1,
	StatusPrinted: 2,
}

type Prescription struct {
	ID             uuid.UUID `db:"id" json:"id"`
	IDCode         string    `db:"id_code" json:"id_code"`
	Diagnosis      string    `db:"diagnosis" json:"diagnosis"`
	OtherDiagnosis *string   `db:"other_diagnosis" json:"other_diagnosis,omitempty"`
	Note           *string   `db:"note" json:"note,omitempty"`
	Status         Status    `db:"status" json:"status"`
	PatientID      uuid.UUID `db:"patient_id" json:"patient_id"`
	HistoryID      uuid.UUID `db:"history_id" json:"history_id"`
	DoctorID       uuid.UUID `db:"doctor_id" json:"doctor_id"`
	DateCreated    time.Time `db:"date_created" json:"date_created"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Take periods for a dosage schedule.
const (
	TakePeriodDay   = "day"
	TakePeriodWeek  = "week"
	TakePeriodMonth = "month"
)

// MedicineLine is one medicine on a prescription, with the dosage schedule
// the printout carries. Quantity is what gets deducted from stock.
type MedicineLine struct {
	ID             uuid.UUID `db:"id" json:"id"`
	PrescriptionID uuid.UUID `db:"prescription_id" json:"prescription_id"`
	MedicineID     uuid.UUID `db:"medicine_id" json:"medicine_id"`
	MedicineName   string    `db:"medicine_name" json:"medicine_name"`
	Ingredient     *string   `db:"ingredient" json:"ingredient,omitempty"`
	NetWeight      *string   `db:"net_weight" json:"net_weight,omitempty"`
	Quantity       int       `db:"quantity" json:"quantity"`
	Unit           *string   `db:"unit" json:"unit,omitempty"`
	TakePeriod     *string   `db:"take_period" json:"take_period,omitempty"`
	TakeMethod     *string   `db:"take_method" json:"take_method,omitempty"`
	TakeTimes      *int      `db:"take_times" json:"take_times,omitempty"`
	AmountPerTime  *int      `db:"amount_per_time" json:"amount_per_time,omitempty"`
	MealTime       *string   `db:"meal_time" json:"meal_time,omitempty"`
	Note           *string   `db:"note" json:"note,omitempty"`
}

// LineSnapshot is the pre-edit quantity of one line, kept so an edit can put
// the previously deducted stock back before deducting the new quantities.
type LineSnapshot struct {
	MedicineID uuid.UUID `json:"medicine_id"`
	Quantity   int       `json:"quantity"`
}
