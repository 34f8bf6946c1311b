package crm

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/clinicore/clinicore/internal/platform/apperr"
	"github.com/clinicore/clinicore/internal/platform/db"
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

const leadCols = `l.id, l.salesperson_id, st.full_name, l.name, l.phone, l.source,
	l.status, l.value, l.notes, l.won_at, l.created_at, l.updated_at`

func scanLead(row pgx.Row) (*Lead, error) {
	var l Lead
	err := row.Scan(&l.ID, &l.SalespersonID, &l.SalespersonName, &l.Name, &l.Phone,
		&l.Source, &l.Status, &l.Value, &l.Notes, &l.WonAt, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("lead not found")
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repoPG) CreateLead(ctx context.Context, l *Lead) error {
	l.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx,
		`INSERT INTO crm_lead (id, salesperson_id, name, phone, source, status, value, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at, updated_at`,
		l.ID, l.SalespersonID, l.Name, l.Phone, l.Source, l.Status, l.Value, l.Notes,
	).Scan(&l.CreatedAt, &l.UpdatedAt)
}

func (r *repoPG) GetLead(ctx context.Context, id uuid.UUID) (*Lead, error) {
	return scanLead(r.conn(ctx).QueryRow(ctx,
		`SELECT `+leadCols+` FROM crm_lead l JOIN staff st ON st.id = l.salesperson_id
		 WHERE l.id = $1`, id))
}

func (r *repoPG) UpdateLead(ctx context.Context, l *Lead) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE crm_lead
		 SET name=$2, phone=$3, source=$4, status=$5, value=$6, notes=$7,
		     won_at=$8, updated_at=NOW()
		 WHERE id = $1`,
		l.ID, l.Name, l.Phone, l.Source, l.Status, l.Value, l.Notes, l.WonAt)
	return err
}

func (r *repoPG) ListLeads(ctx context.Context, f LeadFilter) ([]*Lead, int, error) {
	where := ` WHERE 1=1`
	var args []interface{}
	if f.SalespersonID != nil {
		args = append(args, *f.SalespersonID)
		where += ` AND l.salesperson_id = $` + strconv.Itoa(len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where += ` AND l.status = $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM crm_lead l`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Offset)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+leadCols+` FROM crm_lead l JOIN staff st ON st.id = l.salesperson_id`+
			where+` ORDER BY l.created_at DESC LIMIT $`+strconv.Itoa(len(args)-1)+
			` OFFSET $`+strconv.Itoa(len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, l)
	}
	return items, total, rows.Err()
}

func (r *repoPG) UpsertTarget(ctx context.Context, t *Target) error {
	t.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx,
		`INSERT INTO crm_target (id, salesperson_id, year, month, amount)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (salesperson_id, year, month)
		 DO UPDATE SET amount = EXCLUDED.amount, updated_at = NOW()
		 RETURNING id, created_at, updated_at`,
		t.ID, t.SalespersonID, t.Year, t.Month, t.Amount,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (r *repoPG) GetTarget(ctx context.Context, salespersonID uuid.UUID, year, month int) (*Target, error) {
	var t Target
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, salesperson_id, year, month, amount, created_at, updated_at
		 FROM crm_target WHERE salesperson_id = $1 AND year = $2 AND month = $3`,
		salespersonID, year, month,
	).Scan(&t.ID, &t.SalespersonID, &t.Year, &t.Month, &t.Amount, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("no target set for this month")
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repoPG) SumWonValue(ctx context.Context, salespersonID uuid.UUID, start, end time.Time) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COALESCE(SUM(value), 0) FROM crm_lead
		 WHERE salesperson_id = $1 AND status = 'won'
		   AND won_at >= $2 AND won_at < $3`,
		salespersonID, start, end).Scan(&sum)
	return sum, err
}

func (r *repoPG) CountByStatus(ctx context.Context, salespersonID uuid.UUID) (map[string]int, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT status, COUNT(*) FROM crm_lead WHERE salesperson_id = $1 GROUP BY status`,
		salespersonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
