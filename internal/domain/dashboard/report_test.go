package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinicore/clinicore/internal/domain/department"
	"github.com/clinicore/clinicore/internal/domain/patient"
	"github.com/clinicore/clinicore/internal/domain/shift"
	"github.com/clinicore/clinicore/internal/platform/period"
)

type mockShiftSource struct {
	shifts []*shift.Shift
}

func (m *mockShiftSource) ListForWindow(_ context.Context, staffID *uuid.UUID, _ period.Window) ([]*shift.Shift, error) {
	if staffID == nil {
		return m.shifts, nil
	}
	var out []*shift.Shift
	for _, s := range m.shifts {
		if s.StaffID == *staffID {
			out = append(out, s)
		}
	}
	return out, nil
}

type mockDeptSource struct {
	depts []*department.Department
}

func (m *mockDeptSource) List(_ context.Context, _ bool) ([]*department.Department, error) {
	return m.depts, nil
}

type mockPatientSource struct {
	stats  patient.Stats
	recent []*patient.Patient
}

func (m *mockPatientSource) Stats(_ context.Context, _, _ time.Time) (*patient.Stats, error) {
	s := m.stats
	return &s, nil
}

func (m *mockPatientSource) ListRecent(_ context.Context, limit int) ([]*patient.Patient, error) {
	if len(m.recent) > limit {
		return m.recent[:limit], nil
	}
	return m.recent, nil
}

func newTestService(t *testing.T, shifts *mockShiftSource) *Service {
	t.Helper()
	calc, err := period.NewCalculator("Asia/Dhaka")
	if err != nil {
		t.Fatalf("NewCalculator: %v", err)
	}
	depts := &mockDeptSource{depts: []*department.Department{
		{ID: uuid.New(), Name: "Pathology", Active: true},
	}}
	patients := &mockPatientSource{stats: patient.Stats{ActivePatients: 3}}
	return NewService(shifts, depts, patients, calc)
}

func TestSessionCashReportShape(t *testing.T) {
	deptA := uuid.New()
	sh := testShift(allocatedPayment(deptA, "Pathology", 500), unallocatedPayment(300))
	svc := newTestService(t, &mockShiftSource{shifts: []*shift.Shift{sh}})

	report, err := svc.SessionCash(context.Background(), ReportQuery{
		Preset:    period.PresetToday,
		StaffName: "Accounts Clerk",
	})
	if err != nil {
		t.Fatalf("SessionCash: %v", err)
	}

	if !report.TotalCollected.Equal(decimal.NewFromInt(800)) {
		t.Errorf("total collected = %s, want 800", report.TotalCollected)
	}
	if report.ShiftsCount != 1 {
		t.Errorf("shifts count = %d, want 1", report.ShiftsCount)
	}
	if report.PeriodLabel == "" {
		t.Error("period label should be set")
	}
	if report.StartDate == "" || report.EndDate == "" {
		t.Error("ISO window bounds should be set")
	}
	if len(report.Departments) != 1 {
		t.Errorf("departments = %d, want 1 for filter population", len(report.Departments))
	}
	if report.StaffName != "Accounts Clerk" {
		t.Errorf("staff name = %q", report.StaffName)
	}
}

func TestDetailedReportRows(t *testing.T) {
	deptA := uuid.New()
	paid := allocatedPayment(deptA, "Pathology", 500)
	paid.PatientName = "Rahim Uddin"
	paid.PatientSerial = 123
	open := unallocatedPayment(300)
	open.PatientName = "Karima Begum"
	open.PatientSerial = 7

	sh := testShift(paid, open)
	svc := newTestService(t, &mockShiftSource{shifts: []*shift.Shift{sh}})

	report, err := svc.SessionCashDetailed(context.Background(), ReportQuery{Preset: period.PresetToday})
	if err != nil {
		t.Fatalf("SessionCashDetailed: %v", err)
	}

	if len(report.Payments) != 2 {
		t.Fatalf("payment rows = %d, want 2", len(report.Payments))
	}
	if report.Payments[0].RegistrationID != "REG-000123" {
		t.Errorf("registration id = %q, want REG-000123", report.Payments[0].RegistrationID)
	}
	if report.Payments[1].DepartmentName != "Unallocated" {
		t.Errorf("unallocated row department = %q, want Unallocated", report.Payments[1].DepartmentName)
	}
	if report.Payments[1].RegistrationID != "REG-000007" {
		t.Errorf("registration id = %q, want REG-000007", report.Payments[1].RegistrationID)
	}
}

func TestDetailedReportPartialAllocationRemainderRow(t *testing.T) {
	deptA := uuid.New()
	paid := partiallyAllocatedPayment(deptA, "Pathology", 1000, 600)
	paid.PatientName = "Rahim Uddin"
	paid.PatientSerial = 42

	sh := testShift(paid)
	svc := newTestService(t, &mockShiftSource{shifts: []*shift.Shift{sh}})

	report, err := svc.SessionCashDetailed(context.Background(), ReportQuery{Preset: period.PresetToday})
	if err != nil {
		t.Fatalf("SessionCashDetailed: %v", err)
	}

	if len(report.Payments) != 2 {
		t.Fatalf("payment rows = %d, want allocation + remainder", len(report.Payments))
	}
	if !report.Payments[0].Amount.Equal(decimal.NewFromInt(600)) {
		t.Errorf("allocation row amount = %s, want 600", report.Payments[0].Amount)
	}
	rem := report.Payments[1]
	if rem.DepartmentName != "Unallocated" {
		t.Errorf("remainder row department = %q, want Unallocated", rem.DepartmentName)
	}
	if !rem.Amount.Equal(decimal.NewFromInt(400)) {
		t.Errorf("remainder row amount = %s, want 400", rem.Amount)
	}
	if rem.RegistrationID != "REG-000042" {
		t.Errorf("remainder row registration = %q, want REG-000042", rem.RegistrationID)
	}
	if !report.TotalCollected.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("report total = %s, want the full 1000 drawer amount", report.TotalCollected)
	}
}

func TestDetailedReportDepartmentFilterDropsUnallocated(t *testing.T) {
	deptA := uuid.New()
	sh := testShift(allocatedPayment(deptA, "Pathology", 500), unallocatedPayment(300))
	svc := newTestService(t, &mockShiftSource{shifts: []*shift.Shift{sh}})

	report, err := svc.SessionCashDetailed(context.Background(), ReportQuery{
		Preset:       period.PresetToday,
		DepartmentID: deptA.String(),
	})
	if err != nil {
		t.Fatalf("SessionCashDetailed: %v", err)
	}
	if len(report.Payments) != 1 {
		t.Fatalf("payment rows = %d, want 1 under department filter", len(report.Payments))
	}
	if report.Payments[0].DepartmentName != "Pathology" {
		t.Errorf("row department = %q", report.Payments[0].DepartmentName)
	}
}

func TestOverview(t *testing.T) {
	deptA := uuid.New()
	active := testShift(allocatedPayment(deptA, "Pathology", 500))
	closedAt := time.Now()
	closed := testShift(unallocatedPayment(200))
	closed.Active = false
	closed.EndedAt = &closedAt
	closed.TotalRefunded = decimal.NewFromInt(50)

	svc := newTestService(t, &mockShiftSource{shifts: []*shift.Shift{active, closed}})

	overview, err := svc.Overview(context.Background())
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if overview.Patients.ActivePatients != 3 {
		t.Errorf("active patients = %d, want 3", overview.Patients.ActivePatients)
	}
	if !overview.TotalCollected.Equal(decimal.NewFromInt(700)) {
		t.Errorf("total collected = %s, want 700", overview.TotalCollected)
	}
	if !overview.NetCash.Equal(decimal.NewFromInt(650)) {
		t.Errorf("net cash = %s, want 650", overview.NetCash)
	}
	if overview.ActiveShifts != 1 {
		t.Errorf("active shifts = %d, want 1", overview.ActiveShifts)
	}
}

func TestExportXLSX(t *testing.T) {
	deptA := uuid.New()
	paid := allocatedPayment(deptA, "Pathology", 500)
	paid.PatientName = "Rahim Uddin"
	paid.PatientSerial = 1

	sh := testShift(paid)
	svc := newTestService(t, &mockShiftSource{shifts: []*shift.Shift{sh}})

	f, err := svc.ExportXLSX(context.Background(), ReportQuery{Preset: period.PresetToday})
	if err != nil {
		t.Fatalf("ExportXLSX: %v", err)
	}
	defer f.Close()

	title, err := f.GetCellValue(exportSheet, "A1")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if title != "Session Cash Report" {
		t.Errorf("title cell = %q", title)
	}
	reg, err := f.GetCellValue(exportSheet, "A10")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if reg != "REG-000001" {
		t.Errorf("first data row registration = %q, want REG-000001", reg)
	}
}
