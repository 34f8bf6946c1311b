package patient

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/platform/apperr"
)

type mockRepo struct {
	items      map[uuid.UUID]*Patient
	visits     map[uuid.UUID][]*Visit
	nextSerial int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		items:  make(map[uuid.UUID]*Patient),
		visits: make(map[uuid.UUID][]*Visit),
	}
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	m.nextSerial++
	p.ID = uuid.New()
	p.Serial = m.nextSerial
	p.RegistrationID = FormatRegistrationID(p.Serial)
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.items[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.items[id]
	if !ok {
		return nil, apperr.NotFound("patient not found")
	}
	return p, nil
}

func (m *mockRepo) GetBySerial(_ context.Context, serial int64) (*Patient, error) {
	for _, p := range m.items {
		if p.Serial == serial {
			return p, nil
		}
	}
	return nil, apperr.NotFound("patient not found")
}

func (m *mockRepo) Update(_ context.Context, p *Patient) error {
	m.items[p.ID] = p
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.items[id]; !ok {
		return apperr.NotFound("patient not found")
	}
	delete(m.items, id)
	return nil
}

func (m *mockRepo) Search(_ context.Context, f SearchFilter) ([]*Patient, int, error) {
	var result []*Patient
	for _, p := range m.items {
		if f.ClinicKind != "" && p.ClinicKind != f.ClinicKind {
			continue
		}
		if f.Query != "" && !strings.Contains(strings.ToLower(p.FullName), strings.ToLower(f.Query)) {
			continue
		}
		if f.ActiveOnly && (p.AdmittedAt == nil || p.DischargedAt != nil) {
			continue
		}
		result = append(result, p)
	}
	return result, len(result), nil
}

func (m *mockRepo) Discharge(_ context.Context, id uuid.UUID, at time.Time) error {
	p, ok := m.items[id]
	if !ok {
		return apperr.NotFound("patient not found")
	}
	if p.DischargedAt != nil {
		return apperr.Conflict("already discharged")
	}
	p.DischargedAt = &at
	return nil
}

func (m *mockRepo) MarkPathologyComplete(_ context.Context, id uuid.UUID) error {
	p, ok := m.items[id]
	if !ok {
		return apperr.NotFound("patient not found")
	}
	p.PathologyCompleted = true
	return nil
}

func (m *mockRepo) AddVisit(_ context.Context, v *Visit) error {
	v.ID = uuid.New()
	v.CreatedAt = time.Now()
	m.visits[v.PatientID] = append(m.visits[v.PatientID], v)
	return nil
}

func (m *mockRepo) ListVisits(_ context.Context, patientID uuid.UUID) ([]*Visit, error) {
	return m.visits[patientID], nil
}

func (m *mockRepo) Stats(_ context.Context, start, end time.Time) (*Stats, error) {
	s := &Stats{TotalRegistrations: len(m.items)}
	for _, p := range m.items {
		if p.AdmittedAt != nil && p.DischargedAt == nil {
			s.ActivePatients++
		}
	}
	return s, nil
}

func (m *mockRepo) ListRecent(_ context.Context, limit int) ([]*Patient, error) {
	var result []*Patient
	for _, p := range m.items {
		result = append(result, p)
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func TestFormatRegistrationID(t *testing.T) {
	cases := []struct {
		serial int64
		want   string
	}{
		{1, "REG-000001"},
		{123, "REG-000123"},
		{999999, "REG-999999"},
		{1234567, "REG-1234567"},
	}
	for _, tc := range cases {
		if got := FormatRegistrationID(tc.serial); got != tc.want {
			t.Errorf("FormatRegistrationID(%d) = %q, want %q", tc.serial, got, tc.want)
		}
	}
}

func TestRegisterGeneralAdmitsImmediately(t *testing.T) {
	svc := NewService(newMockRepo())
	p := &Patient{ClinicKind: "General", FullName: " Rahim Uddin ", Phone: "01712345678"}
	if err := svc.Register(context.Background(), p); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if p.FullName != "Rahim Uddin" {
		t.Errorf("name should be trimmed, got %q", p.FullName)
	}
	if p.ClinicKind != KindGeneral {
		t.Errorf("clinic kind should be normalized, got %q", p.ClinicKind)
	}
	if p.AdmittedAt == nil {
		t.Error("general registration should be admitted immediately")
	}
	if p.RegistrationID != "REG-000001" {
		t.Errorf("registration id = %q, want REG-000001", p.RegistrationID)
	}
}

func TestRegisterPathologyNotAdmitted(t *testing.T) {
	svc := NewService(newMockRepo())
	p := &Patient{ClinicKind: KindPathology, FullName: "Karima Begum"}
	if err := svc.Register(context.Background(), p); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if p.AdmittedAt != nil {
		t.Error("pathology registration should not be auto-admitted")
	}
}

func TestRegisterValidation(t *testing.T) {
	cases := []struct {
		name    string
		patient Patient
	}{
		{"empty name", Patient{ClinicKind: KindGeneral}},
		{"unknown kind", Patient{ClinicKind: "dental", FullName: "X"}},
		{"bad phone", Patient{ClinicKind: KindGeneral, FullName: "X", Phone: "12345"}},
		{"bad gender", Patient{ClinicKind: KindGeneral, FullName: "X", Gender: "unknown"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewService(newMockRepo())
			p := tc.patient
			err := svc.Register(context.Background(), &p)
			if !apperr.Is(err, apperr.KindInvalid) {
				t.Errorf("want KindInvalid, got %v", err)
			}
		})
	}
}

func TestDischarge(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	p := &Patient{ClinicKind: KindGeneral, FullName: "Rahim Uddin"}
	if err := svc.Register(ctx, p); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := svc.Discharge(ctx, p.ID); err != nil {
		t.Fatalf("Discharge: %v", err)
	}
	if p.DischargedAt == nil {
		t.Fatal("discharge should set discharged_at")
	}

	err := svc.Discharge(ctx, p.ID)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("second discharge: want KindConflict, got %v", err)
	}
}

func TestDischargeNeverAdmitted(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	p := &Patient{ClinicKind: KindPathology, FullName: "Karima Begum"}
	if err := svc.Register(ctx, p); err != nil {
		t.Fatalf("Register: %v", err)
	}
	err := svc.Discharge(ctx, p.ID)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("want KindConflict, got %v", err)
	}
}

func TestCompletePathologyRejectsOtherKinds(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	p := &Patient{ClinicKind: KindGeneral, FullName: "Rahim Uddin"}
	if err := svc.Register(ctx, p); err != nil {
		t.Fatalf("Register: %v", err)
	}
	err := svc.CompletePathology(ctx, p.ID)
	if !apperr.Is(err, apperr.KindInvalid) {
		t.Errorf("want KindInvalid, got %v", err)
	}
}

func TestRecordVisitInfertilityOnly(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	inf := &Patient{ClinicKind: KindInfertility, FullName: "Nasreen Akter"}
	if err := svc.Register(ctx, inf); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := svc.RecordVisit(ctx, &Visit{PatientID: inf.ID, Remarks: "first consult"}); err != nil {
		t.Fatalf("RecordVisit: %v", err)
	}
	visits, err := svc.ListVisits(ctx, inf.ID)
	if err != nil {
		t.Fatalf("ListVisits: %v", err)
	}
	if len(visits) != 1 {
		t.Fatalf("expected 1 visit, got %d", len(visits))
	}
	if visits[0].VisitedAt.IsZero() {
		t.Error("visit time should default to now")
	}

	gen := &Patient{ClinicKind: KindGeneral, FullName: "Rahim Uddin"}
	if err := svc.Register(ctx, gen); err != nil {
		t.Fatalf("Register: %v", err)
	}
	err = svc.RecordVisit(ctx, &Visit{PatientID: gen.ID})
	if !apperr.Is(err, apperr.KindInvalid) {
		t.Errorf("want KindInvalid for non-infertility patient, got %v", err)
	}
}

func TestGetByRegistrationID(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	p := &Patient{ClinicKind: KindGeneral, FullName: "Rahim Uddin"}
	if err := svc.Register(ctx, p); err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, err := svc.GetByRegistrationID(ctx, "reg-000001")
	if err != nil {
		t.Fatalf("GetByRegistrationID: %v", err)
	}
	if got.ID != p.ID {
		t.Errorf("got patient %s, want %s", got.ID, p.ID)
	}

	if _, err := svc.GetByRegistrationID(ctx, "REG-ABC"); !apperr.Is(err, apperr.KindInvalid) {
		t.Errorf("want KindInvalid for malformed id, got %v", err)
	}
}
