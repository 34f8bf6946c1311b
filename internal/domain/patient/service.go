package patient

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/platform/apperr"
)

// Bangladeshi mobile numbers: optional +88 country code then 01xxxxxxxxx.
var phoneRe = regexp.MustCompile(`^(\+?88)?01[3-9]\d{8}$`)

var validKinds = map[string]bool{
	KindGeneral:     true,
	KindPathology:   true,
	KindInfertility: true,
}

var validGenders = map[string]bool{
	"male": true, "female": true, "other": true,
}

type Service struct {
	patients Repository
	now      func() time.Time
}

func NewService(patients Repository) *Service {
	return &Service{patients: patients, now: time.Now}
}

// Register creates a patient under one of the clinic kinds. General
// admissions are marked admitted immediately.
func (s *Service) Register(ctx context.Context, p *Patient) error {
	p.FullName = strings.TrimSpace(p.FullName)
	p.Phone = strings.TrimSpace(p.Phone)
	p.ClinicKind = strings.ToLower(strings.TrimSpace(p.ClinicKind))
	p.Gender = strings.ToLower(strings.TrimSpace(p.Gender))

	if err := s.validate(p); err != nil {
		return err
	}
	if p.ClinicKind == KindGeneral && p.AdmittedAt == nil {
		now := s.now()
		p.AdmittedAt = &now
	}
	return s.patients.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) GetByRegistrationID(ctx context.Context, regID string) (*Patient, error) {
	serial, err := parseRegistrationID(regID)
	if err != nil {
		return nil, err
	}
	return s.patients.GetBySerial(ctx, serial)
}

func (s *Service) Update(ctx context.Context, p *Patient) error {
	current, err := s.patients.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	p.FullName = strings.TrimSpace(p.FullName)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Gender = strings.ToLower(strings.TrimSpace(p.Gender))
	// Clinic kind and serial are fixed at registration.
	p.ClinicKind = current.ClinicKind
	p.Serial = current.Serial
	p.RegistrationID = current.RegistrationID
	if err := s.validate(p); err != nil {
		return err
	}
	return s.patients.Update(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.patients.Delete(ctx, id)
}

func (s *Service) Search(ctx context.Context, f SearchFilter) ([]*Patient, int, error) {
	return s.patients.Search(ctx, f)
}

func (s *Service) Discharge(ctx context.Context, id uuid.UUID) error {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.AdmittedAt == nil {
		return apperr.Conflict("patient %s was never admitted", p.RegistrationID)
	}
	return s.patients.Discharge(ctx, id, s.now())
}

// CompletePathology marks a pathology registration's orders as done.
func (s *Service) CompletePathology(ctx context.Context, id uuid.UUID) error {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.ClinicKind != KindPathology {
		return apperr.Invalid("patient %s is not a pathology registration", p.RegistrationID)
	}
	return s.patients.MarkPathologyComplete(ctx, id)
}

func (s *Service) RecordVisit(ctx context.Context, v *Visit) error {
	p, err := s.patients.GetByID(ctx, v.PatientID)
	if err != nil {
		return err
	}
	if p.ClinicKind != KindInfertility {
		return apperr.Invalid("visit records apply to infertility registrations only")
	}
	if v.VisitedAt.IsZero() {
		v.VisitedAt = s.now()
	}
	return s.patients.AddVisit(ctx, v)
}

func (s *Service) ListVisits(ctx context.Context, patientID uuid.UUID) ([]*Visit, error) {
	if _, err := s.patients.GetByID(ctx, patientID); err != nil {
		return nil, err
	}
	return s.patients.ListVisits(ctx, patientID)
}

func (s *Service) validate(p *Patient) error {
	if p.FullName == "" {
		return apperr.Invalid("full name is required")
	}
	if !validKinds[p.ClinicKind] {
		return apperr.Invalid("clinic kind must be general, pathology or infertility")
	}
	if p.Phone != "" && !phoneRe.MatchString(p.Phone) {
		return apperr.Invalid("invalid phone number %q", p.Phone)
	}
	if p.Gender != "" && !validGenders[p.Gender] {
		return apperr.Invalid("gender must be male, female or other")
	}
	if p.DateOfBirth != nil && p.DateOfBirth.After(s.now()) {
		return apperr.Invalid("date of birth is in the future")
	}
	return nil
}

func parseRegistrationID(regID string) (int64, error) {
	trimmed := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(regID)), "REG-")
	var serial int64
	for _, r := range trimmed {
		if r < '0' || r > '9' {
			return 0, apperr.Invalid("invalid registration id %q", regID)
		}
		serial = serial*10 + int64(r-'0')
	}
	if serial == 0 {
		return 0, apperr.Invalid("invalid registration id %q", regID)
	}
	return serial, nil
}
