package shift

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/clinicore/clinicore/internal/platform/apperr"
	"github.com/clinicore/clinicore/internal/platform/db"
	"github.com/clinicore/clinicore/internal/platform/period"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const shiftCols = `s.id, s.staff_id, st.full_name, s.started_at, s.ended_at, s.active,
	s.opening_cash, s.closing_cash, s.system_cash, s.variance,
	s.total_collected, s.total_refunded, s.auto_closed, s.created_at, s.updated_at`

func scanShift(row pgx.Row) (*Shift, error) {
	var s Shift
	err := row.Scan(&s.ID, &s.StaffID, &s.StaffName, &s.StartedAt, &s.EndedAt, &s.Active,
		&s.OpeningCash, &s.ClosingCash, &s.SystemCash, &s.Variance,
		&s.TotalCollected, &s.TotalRefunded, &s.AutoClosed, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("shift not found")
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repoPG) Create(ctx context.Context, s *Shift) error {
	s.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx,
		`INSERT INTO shift (id, staff_id, started_at, active, opening_cash)
		 VALUES ($1, $2, $3, TRUE, $4)
		 RETURNING created_at, updated_at`,
		s.ID, s.StaffID, s.StartedAt, s.OpeningCash,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if db.UniqueViolation(err) {
		return apperr.Conflict("an active shift already exists for this staff member")
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Shift, error) {
	return scanShift(r.conn(ctx).QueryRow(ctx,
		`SELECT `+shiftCols+` FROM shift s JOIN staff st ON st.id = s.staff_id
		 WHERE s.id = $1`, id))
}

func (r *repoPG) GetActiveByStaff(ctx context.Context, staffID uuid.UUID) (*Shift, error) {
	return scanShift(r.conn(ctx).QueryRow(ctx,
		`SELECT `+shiftCols+` FROM shift s JOIN staff st ON st.id = s.staff_id
		 WHERE s.staff_id = $1 AND s.active`, staffID))
}

func (r *repoPG) Close(ctx context.Context, s *Shift) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE shift
		 SET ended_at=$2, active=FALSE, closing_cash=$3, system_cash=$4,
		     variance=$5, auto_closed=$6, updated_at=NOW()
		 WHERE id = $1 AND active`,
		s.ID, s.EndedAt, s.ClosingCash, s.SystemCash, s.Variance, s.AutoClosed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("shift is already closed")
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, staffID *uuid.UUID, limit, offset int) ([]*Shift, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM shift WHERE $1::uuid IS NULL OR staff_id = $1`,
		staffID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+shiftCols+` FROM shift s JOIN staff st ON st.id = s.staff_id
		 WHERE $1::uuid IS NULL OR s.staff_id = $1
		 ORDER BY s.started_at DESC LIMIT $2 OFFSET $3`,
		staffID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Shift
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ListStale(ctx context.Context, startedBefore time.Time) ([]*Shift, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+shiftCols+` FROM shift s JOIN staff st ON st.id = s.staff_id
		 WHERE s.active AND s.started_at < $1`, startedBefore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Shift
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func (r *repoPG) ListForWindow(ctx context.Context, staffID *uuid.UUID, w period.Window) ([]*Shift, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+shiftCols+` FROM shift s JOIN staff st ON st.id = s.staff_id
		 WHERE ($1::uuid IS NULL OR s.staff_id = $1)
		   AND ((s.started_at >= $2 AND s.started_at < $3)
		     OR s.active
		     OR EXISTS (SELECT 1 FROM payment p
		                WHERE p.shift_id = s.id AND p.paid_at >= $2 AND p.paid_at < $3))
		 ORDER BY s.started_at DESC`,
		staffID, w.Start, w.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shifts []*Shift
	byID := make(map[uuid.UUID]*Shift)
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, s)
		byID[s.ID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(shifts) == 0 {
		return nil, nil
	}

	shiftIDs := make([]uuid.UUID, 0, len(shifts))
	for _, s := range shifts {
		shiftIDs = append(shiftIDs, s.ID)
	}
	if err := r.attachPayments(ctx, byID, shiftIDs, w); err != nil {
		return nil, err
	}
	return shifts, nil
}

func (r *repoPG) attachPayments(ctx context.Context, byID map[uuid.UUID]*Shift, shiftIDs []uuid.UUID, w period.Window) error {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT p.id, p.shift_id, p.patient_id, pa.full_name, pa.serial,
		        p.amount, p.method, p.paid_at
		 FROM payment p JOIN patient pa ON pa.id = p.patient_id
		 WHERE p.shift_id = ANY($1) AND p.paid_at >= $2 AND p.paid_at < $3
		 ORDER BY p.paid_at`,
		shiftIDs, w.Start, w.End)
	if err != nil {
		return err
	}
	defer rows.Close()

	payByID := make(map[uuid.UUID]*Payment)
	var payIDs []uuid.UUID
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.ShiftID, &p.PatientID, &p.PatientName,
			&p.PatientSerial, &p.Amount, &p.Method, &p.PaidAt); err != nil {
			return err
		}
		if s, ok := byID[p.ShiftID]; ok {
			s.Payments = append(s.Payments, &p)
		}
		payByID[p.ID] = &p
		payIDs = append(payIDs, p.ID)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(payIDs) == 0 {
		return nil
	}

	allocRows, err := r.conn(ctx).Query(ctx,
		`SELECT a.id, a.payment_id, a.service_charge_id, sc.department_id, d.name, a.amount
		 FROM payment_allocation a
		 JOIN service_charge sc ON sc.id = a.service_charge_id
		 JOIN department d ON d.id = sc.department_id
		 WHERE a.payment_id = ANY($1)`,
		payIDs)
	if err != nil {
		return err
	}
	defer allocRows.Close()

	for allocRows.Next() {
		var a Allocation
		if err := allocRows.Scan(&a.ID, &a.PaymentID, &a.ServiceChargeID,
			&a.DepartmentID, &a.DepartmentName, &a.Amount); err != nil {
			return err
		}
		if p, ok := payByID[a.PaymentID]; ok {
			p.Allocations = append(p.Allocations, &a)
		}
	}
	return allocRows.Err()
}

func (r *repoPG) CreatePayment(ctx context.Context, p *Payment) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO payment (id, shift_id, patient_id, amount, method, paid_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.ShiftID, p.PatientID, p.Amount, p.Method, p.PaidAt)
	return err
}

func (r *repoPG) CreateAllocation(ctx context.Context, a *Allocation) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO payment_allocation (id, payment_id, service_charge_id, amount)
		 VALUES ($1, $2, $3, $4)`,
		a.ID, a.PaymentID, a.ServiceChargeID, a.Amount)
	return err
}

func (r *repoPG) AddCollected(ctx context.Context, shiftID uuid.UUID, amount decimal.Decimal) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE shift SET total_collected = total_collected + $2, updated_at=NOW()
		 WHERE id = $1`, shiftID, amount)
	return err
}

func (r *repoPG) CreateRefund(ctx context.Context, rf *Refund) error {
	rf.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO refund (id, shift_id, payment_id, amount, reason, refunded_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rf.ID, rf.ShiftID, rf.PaymentID, rf.Amount, rf.Reason, rf.RefundedAt)
	return err
}

func (r *repoPG) AddRefunded(ctx context.Context, shiftID uuid.UUID, amount decimal.Decimal) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE shift SET total_refunded = total_refunded + $2, updated_at=NOW()
		 WHERE id = $1`, shiftID, amount)
	return err
}
