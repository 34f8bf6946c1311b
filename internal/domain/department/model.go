package department

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Department groups service charges for reporting. Payments are broken down
// per department on the cash dashboards, so only active departments show up
// in filter lists.
type Department struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ServiceCharge is a billable item offered by a department.
type ServiceCharge struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	DepartmentID uuid.UUID       `db:"department_id" json:"department_id"`
	Name         string          `db:"name" json:"name"`
	Price        decimal.Decimal `db:"price" json:"price"`
	Active       bool            `db:"active" json:"active"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}
