package patient

import (
	"time"

	"github.com/google/uuid"
)

// Status tracks a patient through the front-desk workflow. Checked removes
// the patient from the active queue.
type Status string

const (
	StatusNew        Status = "new"
	StatusAppointed  Status = "appointed"
	StatusChecking   Status = "checking"
	StatusChecked    Status = "checked"
	StatusRechecking Status = "rechecking"
)

var validStatuses = map[Status]bool{
	StatusNew: true, StatusAppointed: true, StatusChecking: true,
	StatusChecked: true, StatusRechecking: true,
}

type Gender string

const (
	GenderNone   Gender = "none"
	GenderFemale Gender = "female"
	GenderMale   Gender = "male"
)

var validGenders = map[Gender]bool{
	GenderNone: true, GenderFemale: true, GenderMale: true,
}

// Patient maps to the patient table. OrderNumber is the patient's position in
// the day's queue: unique within a cohort, strictly increasing from 1, never
// reused after deletion or status change.
type Patient struct {
	ID                  uuid.UUID  `db:"id" json:"id"`
	IDCode              string     `db:"id_code" json:"id_code"`
	FullName            string     `db:"full_name" json:"full_name"`
	Gender              Gender     `db:"gender" json:"gender"`
	DateOfBirth         *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Age                 *int       `db:"age" json:"age,omitempty"`
	Address             *string    `db:"address" json:"address,omitempty"`
	PhoneNumber         *string    `db:"phone_number" json:"phone_number,omitempty"`
	RelativePhoneNumber *string    `db:"relative_phone_number" json:"relative_phone_number,omitempty"`
	Email               *string    `db:"email" json:"email,omitempty"`
	Job                 *string    `db:"job" json:"job,omitempty"`
	Status              Status     `db:"status" json:"status"`
	AppointmentDate     *time.Time `db:"appointment_date" json:"appointment_date,omitempty"`
	OrderNumber         int        `db:"order_number" json:"order_number"`
	IsDeleted           bool       `db:"is_deleted" json:"is_deleted"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// History is one clinical visit record. A patient has at most one open
// (unchecked) history at a time; finalizing a prescription closes it.
type History struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Note      *string   `db:"note" json:"note,omitempty"`
	IsChecked bool      `db:"is_checked" json:"is_checked"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
