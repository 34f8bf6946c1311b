package department

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, d *Department) error
	GetByID(ctx context.Context, id uuid.UUID) (*Department, error)
	GetByName(ctx context.Context, name string) (*Department, error)
	Update(ctx context.Context, d *Department) error
	List(ctx context.Context, activeOnly bool) ([]*Department, error)
}

type ServiceChargeRepository interface {
	Create(ctx context.Context, sc *ServiceCharge) error
	GetByID(ctx context.Context, id uuid.UUID) (*ServiceCharge, error)
	Update(ctx context.Context, sc *ServiceCharge) error
	ListByDepartment(ctx context.Context, departmentID uuid.UUID, activeOnly bool) ([]*ServiceCharge, error)
}
