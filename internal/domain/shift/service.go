package shift

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/clinicore/clinicore/internal/platform/apperr"
	"github.com/clinicore/clinicore/internal/platform/db"
	"github.com/clinicore/clinicore/internal/platform/period"
)

type Service struct {
	shifts Repository
	tx     db.TxRunner
	log    zerolog.Logger
	now    func() time.Time

	// maxOpenHours is how long a shift may stay open before the
	// auto-close job force-closes it.
	maxOpenHours int
}

func NewService(shifts Repository, tx db.TxRunner, log zerolog.Logger, maxOpenHours int) *Service {
	return &Service{shifts: shifts, tx: tx, log: log, now: time.Now, maxOpenHours: maxOpenHours}
}

// Open starts a cash-handling session. A staff member can hold only one
// active shift at a time.
func (s *Service) Open(ctx context.Context, staffID uuid.UUID, openingCash decimal.Decimal) (*Shift, error) {
	if openingCash.IsNegative() {
		return nil, apperr.Invalid("opening cash cannot be negative")
	}
	if existing, err := s.shifts.GetActiveByStaff(ctx, staffID); err == nil && existing != nil {
		return nil, apperr.Conflict("an active shift already exists for this staff member")
	}

	sh := &Shift{
		StaffID:     staffID,
		StartedAt:   s.now(),
		Active:      true,
		OpeningCash: openingCash,
	}
	if err := s.shifts.Create(ctx, sh); err != nil {
		return nil, err
	}
	return sh, nil
}

// Close ends a shift against the counted drawer amount. System cash is
// opening + collected - refunded; variance is counted minus system.
func (s *Service) Close(ctx context.Context, shiftID uuid.UUID, closingCash decimal.Decimal) (*Shift, error) {
	if closingCash.IsNegative() {
		return nil, apperr.Invalid("closing cash cannot be negative")
	}
	sh, err := s.shifts.GetByID(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if !sh.Active {
		return nil, apperr.Conflict("shift is already closed")
	}

	system := sh.OpeningCash.Add(sh.TotalCollected).Sub(sh.TotalRefunded)
	variance := closingCash.Sub(system)
	now := s.now()

	sh.EndedAt = &now
	sh.Active = false
	sh.ClosingCash = &closingCash
	sh.SystemCash = &system
	sh.Variance = &variance
	if err := s.shifts.Close(ctx, sh); err != nil {
		return nil, err
	}
	return sh, nil
}

// ForceClose closes a shift at system cash, recording zero variance. Used
// for stale shifts and manager overrides.
func (s *Service) ForceClose(ctx context.Context, shiftID uuid.UUID) (*Shift, error) {
	sh, err := s.shifts.GetByID(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if !sh.Active {
		return nil, apperr.Conflict("shift is already closed")
	}

	system := sh.OpeningCash.Add(sh.TotalCollected).Sub(sh.TotalRefunded)
	zero := decimal.Zero
	now := s.now()

	sh.EndedAt = &now
	sh.Active = false
	sh.ClosingCash = &system
	sh.SystemCash = &system
	sh.Variance = &zero
	sh.AutoClosed = true
	if err := s.shifts.Close(ctx, sh); err != nil {
		return nil, err
	}
	return sh, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Shift, error) {
	return s.shifts.GetByID(ctx, id)
}

func (s *Service) ActiveForStaff(ctx context.Context, staffID uuid.UUID) (*Shift, error) {
	return s.shifts.GetActiveByStaff(ctx, staffID)
}

func (s *Service) List(ctx context.Context, staffID *uuid.UUID, limit, offset int) ([]*Shift, int, error) {
	return s.shifts.List(ctx, staffID, limit, offset)
}

func (s *Service) ListForWindow(ctx context.Context, staffID *uuid.UUID, w period.Window) ([]*Shift, error) {
	return s.shifts.ListForWindow(ctx, staffID, w)
}

// RecordPayment writes a payment and its allocations atomically and
// bumps the shift's collected total. Allocations may cover less than
// the payment; the remainder is reported as unallocated. They may not
// exceed it.
func (s *Service) RecordPayment(ctx context.Context, p *Payment) error {
	if !p.Amount.IsPositive() {
		return apperr.Invalid("payment amount must be positive")
	}
	switch p.Method {
	case MethodCash, MethodCard, MethodMobile:
	case "":
		p.Method = MethodCash
	default:
		return apperr.Invalid("unknown payment method %q", p.Method)
	}

	allocated := decimal.Zero
	for _, a := range p.Allocations {
		if !a.Amount.IsPositive() {
			return apperr.Invalid("allocation amounts must be positive")
		}
		allocated = allocated.Add(a.Amount)
	}
	if allocated.GreaterThan(p.Amount) {
		return apperr.Invalid("allocations (%s) exceed payment amount (%s)", allocated, p.Amount)
	}

	sh, err := s.shifts.GetByID(ctx, p.ShiftID)
	if err != nil {
		return err
	}
	if !sh.Active {
		return apperr.Conflict("cannot record payments on a closed shift")
	}

	if p.PaidAt.IsZero() {
		p.PaidAt = s.now()
	}
	return s.tx.RunTx(ctx, func(ctx context.Context) error {
		if err := s.shifts.CreatePayment(ctx, p); err != nil {
			return err
		}
		for _, a := range p.Allocations {
			a.PaymentID = p.ID
			if err := s.shifts.CreateAllocation(ctx, a); err != nil {
				return err
			}
		}
		return s.shifts.AddCollected(ctx, p.ShiftID, p.Amount)
	})
}

// RecordRefund writes a refund and bumps the shift's refunded total in
// one transaction.
func (s *Service) RecordRefund(ctx context.Context, r *Refund) error {
	if !r.Amount.IsPositive() {
		return apperr.Invalid("refund amount must be positive")
	}
	sh, err := s.shifts.GetByID(ctx, r.ShiftID)
	if err != nil {
		return err
	}
	if !sh.Active {
		return apperr.Conflict("cannot record refunds on a closed shift")
	}

	if r.RefundedAt.IsZero() {
		r.RefundedAt = s.now()
	}
	return s.tx.RunTx(ctx, func(ctx context.Context) error {
		if err := s.shifts.CreateRefund(ctx, r); err != nil {
			return err
		}
		return s.shifts.AddRefunded(ctx, r.ShiftID, r.Amount)
	})
}

// AutoCloseStale force-closes shifts open longer than the configured
// limit. Returns how many were closed; called from the cron job.
func (s *Service) AutoCloseStale(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-time.Duration(s.maxOpenHours) * time.Hour)
	stale, err := s.shifts.ListStale(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, sh := range stale {
		if _, err := s.ForceClose(ctx, sh.ID); err != nil {
			s.log.Error().Err(err).Str("shift_id", sh.ID.String()).Msg("auto-close failed")
			continue
		}
		s.log.Info().
			Str("shift_id", sh.ID.String()).
			Str("staff_id", sh.StaffID.String()).
			Time("started_at", sh.StartedAt).
			Msg("auto-closed stale shift")
		closed++
	}
	return closed, nil
}
