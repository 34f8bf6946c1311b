package crm

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LeadFilter struct {
	SalespersonID *uuid.UUID
	Status        string
	Limit         int
	Offset        int
}

type Repository interface {
	CreateLead(ctx context.Context, l *Lead) error
	GetLead(ctx context.Context, id uuid.UUID) (*Lead, error)
	UpdateLead(ctx context.Context, l *Lead) error
	ListLeads(ctx context.Context, f LeadFilter) ([]*Lead, int, error)

	// UpsertTarget creates or replaces the salesperson's goal for the
	// given month.
	UpsertTarget(ctx context.Context, t *Target) error
	GetTarget(ctx context.Context, salespersonID uuid.UUID, year, month int) (*Target, error)

	// SumWonValue totals the value of leads won in [start, end).
	SumWonValue(ctx context.Context, salespersonID uuid.UUID, start, end time.Time) (decimal.Decimal, error)
	CountByStatus(ctx context.Context, salespersonID uuid.UUID) (map[string]int, error)
}
