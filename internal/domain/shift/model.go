// Package shift implements staff cash-handling sessions: the shift
// lifecycle from open to close, the payment and refund ledger recorded
// against a shift, and per-department payment allocations.
package shift

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Shift struct {
	ID        uuid.UUID  `json:"id"`
	StaffID   uuid.UUID  `json:"staff_id"`
	StaffName string     `json:"staff_name,omitempty"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Active    bool       `json:"active"`

	OpeningCash decimal.Decimal `json:"opening_cash"`
	// ClosingCash is what the staff member counted in the drawer at
	// close; SystemCash is what the ledger says should be there.
	ClosingCash *decimal.Decimal `json:"closing_cash,omitempty"`
	SystemCash  *decimal.Decimal `json:"system_cash,omitempty"`
	Variance    *decimal.Decimal `json:"variance,omitempty"`

	TotalCollected decimal.Decimal `json:"total_collected"`
	TotalRefunded  decimal.Decimal `json:"total_refunded"`
	AutoClosed     bool            `json:"auto_closed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Payments is populated by window queries for reporting; plain
	// lookups leave it nil.
	Payments []*Payment `json:"payments,omitempty"`
}

// Payment methods accepted at the counter.
const (
	MethodCash   = "cash"
	MethodCard   = "card"
	MethodMobile = "mobile"
)

type Payment struct {
	ID      uuid.UUID `json:"id"`
	ShiftID uuid.UUID `json:"shift_id"`

	PatientID     uuid.UUID `json:"patient_id"`
	PatientName   string    `json:"patient_name,omitempty"`
	PatientSerial int64     `json:"-"`

	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method"`
	PaidAt time.Time       `json:"paid_at"`

	Allocations []*Allocation `json:"allocations,omitempty"`
}

// Allocation attributes part of a payment to one department's service
// charge.
type Allocation struct {
	ID              uuid.UUID       `json:"id"`
	PaymentID       uuid.UUID       `json:"payment_id"`
	ServiceChargeID uuid.UUID       `json:"service_charge_id"`
	DepartmentID    uuid.UUID       `json:"department_id"`
	DepartmentName  string          `json:"department_name,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
}

type Refund struct {
	ID         uuid.UUID       `json:"id"`
	ShiftID    uuid.UUID       `json:"shift_id"`
	PaymentID  *uuid.UUID      `json:"payment_id,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	Reason     string          `json:"reason,omitempty"`
	RefundedAt time.Time       `json:"refunded_at"`
}
