// Package crm implements the sales dashboard: lead pipeline tracking
// and monthly targets with completion percentage.
package crm

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Lead pipeline statuses.
const (
	StatusNew       = "new"
	StatusContacted = "contacted"
	StatusQualified = "qualified"
	StatusWon       = "won"
	StatusLost      = "lost"
)

type Lead struct {
	ID              uuid.UUID       `json:"id"`
	SalespersonID   uuid.UUID       `json:"salesperson_id"`
	SalespersonName string          `json:"salesperson_name,omitempty"`
	Name            string          `json:"name"`
	Phone           string          `json:"phone,omitempty"`
	Source          string          `json:"source,omitempty"`
	Status          string          `json:"status"`
	Value           decimal.Decimal `json:"value"`
	Notes           string          `json:"notes,omitempty"`
	WonAt           *time.Time      `json:"won_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Target is a salesperson's monthly sales goal.
type Target struct {
	ID            uuid.UUID       `json:"id"`
	SalespersonID uuid.UUID       `json:"salesperson_id"`
	Year          int             `json:"year"`
	Month         int             `json:"month"`
	Amount        decimal.Decimal `json:"amount"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Dashboard summarizes one salesperson's current month.
type Dashboard struct {
	PeriodLabel   string          `json:"period_label"`
	Target        decimal.Decimal `json:"target"`
	WonValue      decimal.Decimal `json:"won_value"`
	CompletionPct decimal.Decimal `json:"completion_pct"`
	StatusCounts  map[string]int  `json:"status_counts"`
}
