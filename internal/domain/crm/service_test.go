package crm

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinicore/clinicore/internal/platform/apperr"
	"github.com/clinicore/clinicore/internal/platform/period"
)

type mockRepo struct {
	leads   map[uuid.UUID]*Lead
	targets map[string]*Target
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		leads:   make(map[uuid.UUID]*Lead),
		targets: make(map[string]*Target),
	}
}

func targetKey(salespersonID uuid.UUID, year, month int) string {
	return salespersonID.String() + "/" + time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

func (m *mockRepo) CreateLead(_ context.Context, l *Lead) error {
	l.ID = uuid.New()
	l.CreatedAt = time.Now()
	l.UpdatedAt = l.CreatedAt
	m.leads[l.ID] = l
	return nil
}

func (m *mockRepo) GetLead(_ context.Context, id uuid.UUID) (*Lead, error) {
	l, ok := m.leads[id]
	if !ok {
		return nil, apperr.NotFound("lead not found")
	}
	return l, nil
}

func (m *mockRepo) UpdateLead(_ context.Context, l *Lead) error {
	if _, ok := m.leads[l.ID]; !ok {
		return apperr.NotFound("lead not found")
	}
	m.leads[l.ID] = l
	return nil
}

func (m *mockRepo) ListLeads(_ context.Context, f LeadFilter) ([]*Lead, int, error) {
	var result []*Lead
	for _, l := range m.leads {
		if f.SalespersonID != nil && l.SalespersonID != *f.SalespersonID {
			continue
		}
		if f.Status != "" && l.Status != f.Status {
			continue
		}
		result = append(result, l)
	}
	return result, len(result), nil
}

func (m *mockRepo) UpsertTarget(_ context.Context, t *Target) error {
	t.ID = uuid.New()
	m.targets[targetKey(t.SalespersonID, t.Year, t.Month)] = t
	return nil
}

func (m *mockRepo) GetTarget(_ context.Context, salespersonID uuid.UUID, year, month int) (*Target, error) {
	t, ok := m.targets[targetKey(salespersonID, year, month)]
	if !ok {
		return nil, apperr.NotFound("no target set for this month")
	}
	return t, nil
}

func (m *mockRepo) SumWonValue(_ context.Context, salespersonID uuid.UUID, start, end time.Time) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, l := range m.leads {
		if l.SalespersonID != salespersonID || l.Status != StatusWon || l.WonAt == nil {
			continue
		}
		if !l.WonAt.Before(start) && l.WonAt.Before(end) {
			sum = sum.Add(l.Value)
		}
	}
	return sum, nil
}

func (m *mockRepo) CountByStatus(_ context.Context, salespersonID uuid.UUID) (map[string]int, error) {
	counts := make(map[string]int)
	for _, l := range m.leads {
		if l.SalespersonID == salespersonID {
			counts[l.Status]++
		}
	}
	return counts, nil
}

func newTestService(t *testing.T) (*Service, *mockRepo) {
	t.Helper()
	calc, err := period.NewCalculator("Asia/Dhaka")
	if err != nil {
		t.Fatalf("NewCalculator: %v", err)
	}
	repo := newMockRepo()
	return NewService(repo, calc), repo
}

func TestCreateLeadDefaultsToNew(t *testing.T) {
	svc, _ := newTestService(t)
	l := &Lead{SalespersonID: uuid.New(), Name: "City Diagnostics", Value: decimal.NewFromInt(50000)}
	if err := svc.CreateLead(context.Background(), l); err != nil {
		t.Fatalf("CreateLead: %v", err)
	}
	if l.Status != StatusNew {
		t.Errorf("status = %q, want new", l.Status)
	}
}

func TestCreateLeadValidation(t *testing.T) {
	svc, _ := newTestService(t)
	cases := []struct {
		name string
		lead Lead
	}{
		{"empty name", Lead{SalespersonID: uuid.New()}},
		{"no salesperson", Lead{Name: "X"}},
		{"negative value", Lead{SalespersonID: uuid.New(), Name: "X", Value: decimal.NewFromInt(-1)}},
		{"bad status", Lead{SalespersonID: uuid.New(), Name: "X", Status: "maybe"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := tc.lead
			err := svc.CreateLead(context.Background(), &l)
			if !apperr.Is(err, apperr.KindInvalid) {
				t.Errorf("want KindInvalid, got %v", err)
			}
		})
	}
}

func TestUpdateLeadStampsWonAt(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	l := &Lead{SalespersonID: uuid.New(), Name: "City Diagnostics", Value: decimal.NewFromInt(50000)}
	if err := svc.CreateLead(ctx, l); err != nil {
		t.Fatalf("CreateLead: %v", err)
	}

	update := &Lead{ID: l.ID, Name: l.Name, Status: StatusWon, Value: l.Value}
	if err := svc.UpdateLead(ctx, update); err != nil {
		t.Fatalf("UpdateLead: %v", err)
	}
	if update.WonAt == nil {
		t.Fatal("moving to won should stamp won_at")
	}
	firstWonAt := *update.WonAt

	// A second save while already won must not move the stamp.
	repeat := &Lead{ID: l.ID, Name: l.Name, Status: StatusWon, Value: l.Value}
	if err := svc.UpdateLead(ctx, repeat); err != nil {
		t.Fatalf("UpdateLead: %v", err)
	}
	if repeat.WonAt == nil || !repeat.WonAt.Equal(firstWonAt) {
		t.Error("won_at should be stable across repeated saves")
	}

	// Moving away from won clears it.
	lost := &Lead{ID: l.ID, Name: l.Name, Status: StatusLost, Value: l.Value}
	if err := svc.UpdateLead(ctx, lost); err != nil {
		t.Fatalf("UpdateLead: %v", err)
	}
	if repo.leads[l.ID].WonAt != nil {
		t.Error("leaving won should clear won_at")
	}
}

func TestDashboardCompletion(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	salesperson := uuid.New()

	loc, err := time.LoadLocation("Asia/Dhaka")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	now := time.Now().In(loc)
	if err := svc.SetTarget(ctx, &Target{
		SalespersonID: salesperson,
		Year:          now.Year(),
		Month:         int(now.Month()),
		Amount:        decimal.NewFromInt(100000),
	}); err != nil {
		t.Fatalf("SetTarget: %v", err)
	}

	won := &Lead{SalespersonID: salesperson, Name: "Won Deal", Value: decimal.NewFromInt(25000)}
	if err := svc.CreateLead(ctx, won); err != nil {
		t.Fatalf("CreateLead: %v", err)
	}
	if err := svc.UpdateLead(ctx, &Lead{ID: won.ID, Name: won.Name, Status: StatusWon, Value: won.Value}); err != nil {
		t.Fatalf("UpdateLead: %v", err)
	}
	open := &Lead{SalespersonID: salesperson, Name: "Open Deal", Value: decimal.NewFromInt(10000)}
	if err := svc.CreateLead(ctx, open); err != nil {
		t.Fatalf("CreateLead: %v", err)
	}

	d, err := svc.Dashboard(ctx, salesperson)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if !d.WonValue.Equal(decimal.NewFromInt(25000)) {
		t.Errorf("won value = %s, want 25000", d.WonValue)
	}
	if !d.CompletionPct.Equal(decimal.NewFromInt(25)) {
		t.Errorf("completion = %s%%, want 25%%", d.CompletionPct)
	}
	if d.StatusCounts[StatusWon] != 1 || d.StatusCounts[StatusNew] != 1 {
		t.Errorf("status counts = %v", d.StatusCounts)
	}
}

func TestDashboardWithoutTarget(t *testing.T) {
	svc, _ := newTestService(t)
	d, err := svc.Dashboard(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if !d.Target.IsZero() || !d.CompletionPct.IsZero() {
		t.Errorf("missing target should report zero target and completion, got %s / %s",
			d.Target, d.CompletionPct)
	}
}
