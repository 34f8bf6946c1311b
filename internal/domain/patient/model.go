// Package patient implements the registration surface shared by the
// general admission, pathology and infertility clinics.
package patient

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Clinic kinds a patient can be registered under.
const (
	KindGeneral     = "general"
	KindPathology   = "pathology"
	KindInfertility = "infertility"
)

type Patient struct {
	ID     uuid.UUID `json:"id"`
	Serial int64     `json:"-"`
	// RegistrationID is the human-facing registration number derived
	// from the serial, e.g. REG-000123.
	RegistrationID     string     `json:"registration_id"`
	ClinicKind         string     `json:"clinic_kind"`
	FullName           string     `json:"full_name"`
	Phone              string     `json:"phone"`
	Gender             string     `json:"gender"`
	DateOfBirth        *time.Time `json:"date_of_birth,omitempty"`
	Address            string     `json:"address,omitempty"`
	AdmittedAt         *time.Time `json:"admitted_at,omitempty"`
	DischargedAt       *time.Time `json:"discharged_at,omitempty"`
	PathologyCompleted bool       `json:"pathology_completed"`
	Notes              string     `json:"notes,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// FormatRegistrationID renders a registration serial in the printed
// card format used on receipts and reports.
func FormatRegistrationID(serial int64) string {
	return fmt.Sprintf("REG-%06d", serial)
}

// Visit is a follow-up consultation record, used by the infertility
// clinic for its repeat-visit schedule.
type Visit struct {
	ID        uuid.UUID `json:"id"`
	PatientID uuid.UUID `json:"patient_id"`
	VisitedAt time.Time `json:"visited_at"`
	Remarks   string    `json:"remarks,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats holds the patient counters shown on the main dashboard. Window
// bounds are supplied by the caller so the counts line up with the
// clinic-local day.
type Stats struct {
	ActivePatients     int `json:"active_patients"`
	Admissions         int `json:"admissions"`
	Discharges         int `json:"discharges"`
	PathologyCompleted int `json:"pathology_completed"`
	TotalRegistrations int `json:"total_registrations"`
}
