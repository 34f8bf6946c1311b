package department

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

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

const deptCols = `id, name, active, created_at, updated_at`

func scanDepartment(row pgx.Row) (*Department, error) {
	var d Department
	err := row.Scan(&d.ID, &d.Name, &d.Active, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("department not found")
	}
	return &d, err
}

func (r *repoPG) Create(ctx context.Context, d *Department) error {
	d.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO department (id, name, active) VALUES ($1, $2, $3)`,
		d.ID, d.Name, d.Active)
	if db.UniqueViolation(err) {
		return apperr.Conflict("department %q already exists", d.Name)
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Department, error) {
	return scanDepartment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+deptCols+` FROM department WHERE id = $1`, id))
}

func (r *repoPG) GetByName(ctx context.Context, name string) (*Department, error) {
	return scanDepartment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+deptCols+` FROM department WHERE lower(name) = lower($1)`, name))
}

func (r *repoPG) Update(ctx context.Context, d *Department) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE department SET name=$2, active=$3, updated_at=NOW() WHERE id = $1`,
		d.ID, d.Name, d.Active)
	if db.UniqueViolation(err) {
		return apperr.Conflict("department %q already exists", d.Name)
	}
	return err
}

func (r *repoPG) List(ctx context.Context, activeOnly bool) ([]*Department, error) {
	query := `SELECT ` + deptCols + ` FROM department`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY name`

	rows, err := r.conn(ctx).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Department
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

type chargeRepoPG struct{ pool *pgxpool.Pool }

func NewServiceChargeRepoPG(pool *pgxpool.Pool) ServiceChargeRepository {
	return &chargeRepoPG{pool: pool}
}

func (r *chargeRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const chargeCols = `id, department_id, name, price, active, created_at, updated_at`

func scanCharge(row pgx.Row) (*ServiceCharge, error) {
	var sc ServiceCharge
	err := row.Scan(&sc.ID, &sc.DepartmentID, &sc.Name, &sc.Price, &sc.Active, &sc.CreatedAt, &sc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("service charge not found")
	}
	return &sc, err
}

func (r *chargeRepoPG) Create(ctx context.Context, sc *ServiceCharge) error {
	sc.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO service_charge (id, department_id, name, price, active)
		 VALUES ($1, $2, $3, $4, $5)`,
		sc.ID, sc.DepartmentID, sc.Name, sc.Price, sc.Active)
	return err
}

func (r *chargeRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*ServiceCharge, error) {
	return scanCharge(r.conn(ctx).QueryRow(ctx,
		`SELECT `+chargeCols+` FROM service_charge WHERE id = $1`, id))
}

func (r *chargeRepoPG) Update(ctx context.Context, sc *ServiceCharge) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE service_charge SET name=$2, price=$3, active=$4, updated_at=NOW() WHERE id = $1`,
		sc.ID, sc.Name, sc.Price, sc.Active)
	return err
}

func (r *chargeRepoPG) ListByDepartment(ctx context.Context, departmentID uuid.UUID, activeOnly bool) ([]*ServiceCharge, error) {
	query := `SELECT ` + chargeCols + ` FROM service_charge WHERE department_id = $1`
	if activeOnly {
		query += ` AND active`
	}
	query += ` ORDER BY name`

	rows, err := r.conn(ctx).Query(ctx, query, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*ServiceCharge
	for rows.Next() {
		sc, err := scanCharge(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, sc)
	}
	return items, rows.Err()
}
