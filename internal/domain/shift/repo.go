package shift

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinicore/clinicore/internal/platform/period"
)

type Repository interface {
	Create(ctx context.Context, s *Shift) error
	GetByID(ctx context.Context, id uuid.UUID) (*Shift, error)
	GetActiveByStaff(ctx context.Context, staffID uuid.UUID) (*Shift, error)
	Close(ctx context.Context, s *Shift) error
	List(ctx context.Context, staffID *uuid.UUID, limit, offset int) ([]*Shift, int, error)
	ListStale(ctx context.Context, startedBefore time.Time) ([]*Shift, error)

	// ListForWindow returns shifts relevant to a cash report: those
	// that started inside the window, are still active, or have at
	// least one payment dated in the window. Nested payments are
	// restricted to [window.Start, window.End) and carry allocations
	// with department names plus patient identity.
	ListForWindow(ctx context.Context, staffID *uuid.UUID, w period.Window) ([]*Shift, error)

	CreatePayment(ctx context.Context, p *Payment) error
	CreateAllocation(ctx context.Context, a *Allocation) error
	AddCollected(ctx context.Context, shiftID uuid.UUID, amount decimal.Decimal) error

	CreateRefund(ctx context.Context, r *Refund) error
	AddRefunded(ctx context.Context, shiftID uuid.UUID, amount decimal.Decimal) error
}
