package patient

import (
	"context"
	"errors"
	"strconv"
	"time"

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

const patientCols = `id, serial, clinic_kind, full_name, phone, gender, date_of_birth,
	address, admitted_at, discharged_at, pathology_completed, notes, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Serial, &p.ClinicKind, &p.FullName, &p.Phone, &p.Gender,
		&p.DateOfBirth, &p.Address, &p.AdmittedAt, &p.DischargedAt,
		&p.PathologyCompleted, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("patient not found")
	}
	if err != nil {
		return nil, err
	}
	p.RegistrationID = FormatRegistrationID(p.Serial)
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	// serial comes from the table's bigserial column.
	err := r.conn(ctx).QueryRow(ctx,
		`INSERT INTO patient (id, clinic_kind, full_name, phone, gender, date_of_birth,
		   address, admitted_at, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING serial, created_at, updated_at`,
		p.ID, p.ClinicKind, p.FullName, p.Phone, p.Gender, p.DateOfBirth,
		p.Address, p.AdmittedAt, p.Notes,
	).Scan(&p.Serial, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return err
	}
	p.RegistrationID = FormatRegistrationID(p.Serial)
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
}

func (r *repoPG) GetBySerial(ctx context.Context, serial int64) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE serial = $1`, serial))
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE patient
		 SET full_name=$2, phone=$3, gender=$4, date_of_birth=$5, address=$6,
		     notes=$7, updated_at=NOW()
		 WHERE id = $1`,
		p.ID, p.FullName, p.Phone, p.Gender, p.DateOfBirth, p.Address, p.Notes)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patient WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("patient not found")
	}
	return nil
}

func (r *repoPG) Search(ctx context.Context, f SearchFilter) ([]*Patient, int, error) {
	where := ` WHERE 1=1`
	var args []interface{}

	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		p := "$" + strconv.Itoa(len(args))
		where += ` AND (full_name ILIKE ` + p + ` OR phone ILIKE ` + p +
			` OR 'REG-' || lpad(serial::text, 6, '0') ILIKE ` + p + `)`
	}
	if f.ClinicKind != "" {
		args = append(args, f.ClinicKind)
		where += ` AND clinic_kind = $` + strconv.Itoa(len(args))
	}
	if f.ActiveOnly {
		where += ` AND admitted_at IS NOT NULL AND discharged_at IS NULL`
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM patient`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Offset)
	query := `SELECT ` + patientCols + ` FROM patient` + where +
		` ORDER BY serial DESC LIMIT $` + strconv.Itoa(len(args)-1) +
		` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *repoPG) Discharge(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE patient SET discharged_at=$2, updated_at=NOW()
		 WHERE id = $1 AND discharged_at IS NULL`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("patient is not admitted or already discharged")
	}
	return nil
}

func (r *repoPG) MarkPathologyComplete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE patient SET pathology_completed=TRUE, updated_at=NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("patient not found")
	}
	return nil
}

func (r *repoPG) AddVisit(ctx context.Context, v *Visit) error {
	v.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx,
		`INSERT INTO patient_visit (id, patient_id, visited_at, remarks)
		 VALUES ($1, $2, $3, $4) RETURNING created_at`,
		v.ID, v.PatientID, v.VisitedAt, v.Remarks).Scan(&v.CreatedAt)
}

func (r *repoPG) ListVisits(ctx context.Context, patientID uuid.UUID) ([]*Visit, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, patient_id, visited_at, remarks, created_at
		 FROM patient_visit WHERE patient_id = $1 ORDER BY visited_at DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Visit
	for rows.Next() {
		var v Visit
		if err := rows.Scan(&v.ID, &v.PatientID, &v.VisitedAt, &v.Remarks, &v.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &v)
	}
	return items, rows.Err()
}

func (r *repoPG) Stats(ctx context.Context, start, end time.Time) (*Stats, error) {
	var s Stats
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT
		   COUNT(*) FILTER (WHERE admitted_at IS NOT NULL AND discharged_at IS NULL),
		   COUNT(*) FILTER (WHERE admitted_at >= $1 AND admitted_at < $2),
		   COUNT(*) FILTER (WHERE discharged_at >= $1 AND discharged_at < $2),
		   COUNT(*) FILTER (WHERE pathology_completed AND updated_at >= $1 AND updated_at < $2),
		   COUNT(*)
		 FROM patient`, start, end,
	).Scan(&s.ActivePatients, &s.Admissions, &s.Discharges, &s.PathologyCompleted, &s.TotalRegistrations)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repoPG) ListRecent(ctx context.Context, limit int) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+patientCols+` FROM patient ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}
