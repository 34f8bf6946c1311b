package department

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinicore/clinicore/internal/platform/apperr"
)

type Service struct {
	departments Repository
	charges     ServiceChargeRepository
}

func NewService(departments Repository, charges ServiceChargeRepository) *Service {
	return &Service{departments: departments, charges: charges}
}

func (s *Service) CreateDepartment(ctx context.Context, d *Department) error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return apperr.Invalid("department name is required")
	}
	if existing, err := s.departments.GetByName(ctx, d.Name); err == nil && existing != nil {
		return apperr.Conflict("department %q already exists", d.Name)
	}
	d.Active = true
	return s.departments.Create(ctx, d)
}

func (s *Service) GetDepartment(ctx context.Context, id uuid.UUID) (*Department, error) {
	return s.departments.GetByID(ctx, id)
}

func (s *Service) UpdateDepartment(ctx context.Context, d *Department) error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return apperr.Invalid("department name is required")
	}
	if _, err := s.departments.GetByID(ctx, d.ID); err != nil {
		return err
	}
	return s.departments.Update(ctx, d)
}

func (s *Service) ListDepartments(ctx context.Context, activeOnly bool) ([]*Department, error) {
	return s.departments.List(ctx, activeOnly)
}

func (s *Service) CreateServiceCharge(ctx context.Context, sc *ServiceCharge) error {
	sc.Name = strings.TrimSpace(sc.Name)
	if sc.Name == "" {
		return apperr.Invalid("service charge name is required")
	}
	if sc.Price.LessThan(decimal.Zero) {
		return apperr.Invalid("service charge price cannot be negative")
	}
	if _, err := s.departments.GetByID(ctx, sc.DepartmentID); err != nil {
		return err
	}
	sc.Active = true
	return s.charges.Create(ctx, sc)
}

func (s *Service) UpdateServiceCharge(ctx context.Context, sc *ServiceCharge) error {
	if sc.Price.LessThan(decimal.Zero) {
		return apperr.Invalid("service charge price cannot be negative")
	}
	if _, err := s.charges.GetByID(ctx, sc.ID); err != nil {
		return err
	}
	return s.charges.Update(ctx, sc)
}

func (s *Service) ListServiceCharges(ctx context.Context, departmentID uuid.UUID, activeOnly bool) ([]*ServiceCharge, error) {
	return s.charges.ListByDepartment(ctx, departmentID, activeOnly)
}
