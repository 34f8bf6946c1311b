package crm

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinicore/clinicore/internal/platform/apperr"
	"github.com/clinicore/clinicore/internal/platform/period"
)

var validStatuses = map[string]bool{
	StatusNew:       true,
	StatusContacted: true,
	StatusQualified: true,
	StatusWon:       true,
	StatusLost:      true,
}

type Service struct {
	leads Repository
	calc  *period.Calculator
	now   func() time.Time
}

func NewService(leads Repository, calc *period.Calculator) *Service {
	return &Service{leads: leads, calc: calc, now: time.Now}
}

func (s *Service) CreateLead(ctx context.Context, l *Lead) error {
	l.Name = strings.TrimSpace(l.Name)
	if l.Name == "" {
		return apperr.Invalid("lead name is required")
	}
	if l.SalespersonID == uuid.Nil {
		return apperr.Invalid("salesperson is required")
	}
	if l.Value.IsNegative() {
		return apperr.Invalid("lead value cannot be negative")
	}
	if l.Status == "" {
		l.Status = StatusNew
	}
	if !validStatuses[l.Status] {
		return apperr.Invalid("unknown lead status %q", l.Status)
	}
	return s.leads.CreateLead(ctx, l)
}

// UpdateLead applies edits and stamps won_at when the lead first moves
// to won.
func (s *Service) UpdateLead(ctx context.Context, l *Lead) error {
	current, err := s.leads.GetLead(ctx, l.ID)
	if err != nil {
		return err
	}
	l.Name = strings.TrimSpace(l.Name)
	if l.Name == "" {
		return apperr.Invalid("lead name is required")
	}
	if !validStatuses[l.Status] {
		return apperr.Invalid("unknown lead status %q", l.Status)
	}
	if l.Value.IsNegative() {
		return apperr.Invalid("lead value cannot be negative")
	}

	l.SalespersonID = current.SalespersonID
	l.WonAt = current.WonAt
	if l.Status == StatusWon && current.Status != StatusWon {
		now := s.now()
		l.WonAt = &now
	}
	if l.Status != StatusWon {
		l.WonAt = nil
	}
	return s.leads.UpdateLead(ctx, l)
}

func (s *Service) GetLead(ctx context.Context, id uuid.UUID) (*Lead, error) {
	return s.leads.GetLead(ctx, id)
}

func (s *Service) ListLeads(ctx context.Context, f LeadFilter) ([]*Lead, int, error) {
	if f.Status != "" && !validStatuses[f.Status] {
		return nil, 0, apperr.Invalid("unknown lead status %q", f.Status)
	}
	return s.leads.ListLeads(ctx, f)
}

func (s *Service) SetTarget(ctx context.Context, t *Target) error {
	if t.SalespersonID == uuid.Nil {
		return apperr.Invalid("salesperson is required")
	}
	if t.Year < 2000 || t.Year > 2100 {
		return apperr.Invalid("invalid year %d", t.Year)
	}
	if t.Month < 1 || t.Month > 12 {
		return apperr.Invalid("invalid month %d", t.Month)
	}
	if t.Amount.IsNegative() {
		return apperr.Invalid("target amount cannot be negative")
	}
	return s.leads.UpsertTarget(ctx, t)
}

// Dashboard computes the salesperson's current-month summary. With no
// target set, completion is zero rather than an error.
func (s *Service) Dashboard(ctx context.Context, salespersonID uuid.UUID) (*Dashboard, error) {
	w := s.calc.Resolve(period.PresetThisMonth, "", "", s.now())

	won, err := s.leads.SumWonValue(ctx, salespersonID, w.Start, w.End)
	if err != nil {
		return nil, err
	}
	counts, err := s.leads.CountByStatus(ctx, salespersonID)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		PeriodLabel:   w.Label,
		Target:        decimal.Zero,
		WonValue:      won,
		CompletionPct: decimal.Zero,
		StatusCounts:  counts,
	}

	local := s.now().In(s.calc.Location())
	target, err := s.leads.GetTarget(ctx, salespersonID, local.Year(), int(local.Month()))
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return d, nil
		}
		return nil, err
	}
	d.Target = target.Amount
	if target.Amount.IsPositive() {
		d.CompletionPct = won.Div(target.Amount).Mul(decimal.NewFromInt(100)).Round(2)
	}
	return d, nil
}
