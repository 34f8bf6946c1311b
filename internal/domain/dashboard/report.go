package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinicore/clinicore/internal/domain/department"
	"github.com/clinicore/clinicore/internal/domain/patient"
	"github.com/clinicore/clinicore/internal/domain/shift"
	"github.com/clinicore/clinicore/internal/platform/period"
)

// ShiftSource fetches shifts with in-window payments for reporting.
type ShiftSource interface {
	ListForWindow(ctx context.Context, staffID *uuid.UUID, w period.Window) ([]*shift.Shift, error)
}

// DepartmentSource lists departments for filter population.
type DepartmentSource interface {
	List(ctx context.Context, activeOnly bool) ([]*department.Department, error)
}

// PatientSource provides the counters and recent registrations shown on
// the overview dashboard.
type PatientSource interface {
	Stats(ctx context.Context, start, end time.Time) (*patient.Stats, error)
	ListRecent(ctx context.Context, limit int) ([]*patient.Patient, error)
}

type Service struct {
	shifts      ShiftSource
	departments DepartmentSource
	patients    PatientSource
	calc        *period.Calculator
	now         func() time.Time
}

func NewService(shifts ShiftSource, departments DepartmentSource, patients PatientSource, calc *period.Calculator) *Service {
	return &Service{
		shifts:      shifts,
		departments: departments,
		patients:    patients,
		calc:        calc,
		now:         time.Now,
	}
}

// ReportQuery carries the request parameters for the session-cash
// report family.
type ReportQuery struct {
	Preset       period.Preset
	CustomStart  string
	CustomEnd    string
	DepartmentID string
	StaffID      *uuid.UUID
	StaffName    string
}

// CashReport is the base session-cash response payload.
type CashReport struct {
	Totals
	StaffName   string                   `json:"staff_name,omitempty"`
	PeriodLabel string                   `json:"period_label"`
	StartDate   string                   `json:"start_date"`
	EndDate     string                   `json:"end_date"`
	ShiftsCount int                      `json:"shifts_count"`
	Departments []*department.Department `json:"departments,omitempty"`
}

// PaymentRow is one line of the detailed report, used for export.
type PaymentRow struct {
	RegistrationID string          `json:"registration_id"`
	PatientName    string          `json:"patient_name"`
	DepartmentName string          `json:"department_name"`
	Amount         decimal.Decimal `json:"amount"`
	Method         string          `json:"method"`
	PaidAt         string          `json:"paid_at"`
	StaffName      string          `json:"staff_name"`
}

// DetailedReport adds the per-payment rows to the base report.
type DetailedReport struct {
	CashReport
	Payments []PaymentRow `json:"payments"`
}

// SessionCash builds the base report: window resolution, fetch,
// aggregation, and the active department list for the client's filter
// dropdown.
func (s *Service) SessionCash(ctx context.Context, q ReportQuery) (*CashReport, error) {
	w := s.calc.Resolve(q.Preset, q.CustomStart, q.CustomEnd, s.now())

	shifts, err := s.shifts.ListForWindow(ctx, q.StaffID, w)
	if err != nil {
		return nil, err
	}
	depts, err := s.departments.List(ctx, true)
	if err != nil {
		return nil, err
	}

	report := s.assemble(shifts, q, w)
	report.Departments = depts
	return report, nil
}

// SessionCashDetailed builds the report with one row per in-window
// payment or allocation, carrying patient identity for export.
func (s *Service) SessionCashDetailed(ctx context.Context, q ReportQuery) (*DetailedReport, error) {
	w := s.calc.Resolve(q.Preset, q.CustomStart, q.CustomEnd, s.now())

	shifts, err := s.shifts.ListForWindow(ctx, q.StaffID, w)
	if err != nil {
		return nil, err
	}

	return &DetailedReport{
		CashReport: *s.assemble(shifts, q, w),
		Payments:   paymentRows(shifts, q.DepartmentID),
	}, nil
}

func (s *Service) assemble(shifts []*shift.Shift, q ReportQuery, w period.Window) *CashReport {
	totals := Aggregate(shifts, q.DepartmentID)
	return &CashReport{
		Totals:      totals,
		StaffName:   q.StaffName,
		PeriodLabel: w.Label,
		StartDate:   w.Start.UTC().Format(time.RFC3339),
		EndDate:     w.End.UTC().Format(time.RFC3339),
		ShiftsCount: len(totals.Shifts),
	}
}

func paymentRows(shifts []*shift.Shift, departmentID string) []PaymentRow {
	filtered := departmentID != "" && departmentID != FilterAll

	var rows []PaymentRow
	for _, sh := range shifts {
		for _, p := range sh.Payments {
			base := PaymentRow{
				RegistrationID: patient.FormatRegistrationID(p.PatientSerial),
				PatientName:    p.PatientName,
				Method:         p.Method,
				PaidAt:         p.PaidAt.UTC().Format(time.RFC3339),
				StaffName:      sh.StaffName,
			}
			allocated := decimal.Zero
			for _, a := range p.Allocations {
				allocated = allocated.Add(a.Amount)
				if filtered && a.DepartmentID.String() != departmentID {
					continue
				}
				row := base
				row.DepartmentName = a.DepartmentName
				row.Amount = a.Amount
				rows = append(rows, row)
			}
			if remainder := p.Amount.Sub(allocated); remainder.IsPositive() && !filtered {
				row := base
				row.DepartmentName = "Unallocated"
				row.Amount = remainder
				rows = append(rows, row)
			}
		}
	}
	return rows
}

// Overview is the landing dashboard payload: clinic-day patient
// counters plus recent registrations and today's cash totals.
type Overview struct {
	Date           string             `json:"date"`
	Patients       *patient.Stats     `json:"patients"`
	TotalCollected decimal.Decimal    `json:"total_collected"`
	TotalRefunded  decimal.Decimal    `json:"total_refunded"`
	NetCash        decimal.Decimal    `json:"net_cash"`
	ActiveShifts   int                `json:"active_shifts"`
	RecentPatients []*patient.Patient `json:"recent_patients"`
}

// Overview computes the landing dashboard for the clinic-local "today"
// window.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	w := s.calc.Resolve(period.PresetToday, "", "", s.now())

	stats, err := s.patients.Stats(ctx, w.Start, w.End)
	if err != nil {
		return nil, err
	}
	shifts, err := s.shifts.ListForWindow(ctx, nil, w)
	if err != nil {
		return nil, err
	}
	recent, err := s.patients.ListRecent(ctx, 10)
	if err != nil {
		return nil, err
	}

	totals := Aggregate(shifts, "")
	active := 0
	for _, sh := range shifts {
		if sh.Active {
			active++
		}
	}

	return &Overview{
		Date:           w.Start.UTC().Format(time.RFC3339),
		Patients:       stats,
		TotalCollected: totals.TotalCollected,
		TotalRefunded:  totals.TotalRefunded,
		NetCash:        totals.NetCash,
		ActiveShifts:   active,
		RecentPatients: recent,
	}, nil
}
