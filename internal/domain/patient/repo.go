package patient

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SearchFilter narrows List results. Zero values mean no filtering.
type SearchFilter struct {
	Query      string // matches name, phone or registration id
	ClinicKind string
	ActiveOnly bool // admitted and not yet discharged
	Limit      int
	Offset     int
}

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetBySerial(ctx context.Context, serial int64) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, f SearchFilter) ([]*Patient, int, error)

	Discharge(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkPathologyComplete(ctx context.Context, id uuid.UUID) error

	AddVisit(ctx context.Context, v *Visit) error
	ListVisits(ctx context.Context, patientID uuid.UUID) ([]*Visit, error)

	// Stats computes dashboard counters for the half-open window
	// [start, end).
	Stats(ctx context.Context, start, end time.Time) (*Stats, error)
	ListRecent(ctx context.Context, limit int) ([]*Patient, error)
}
