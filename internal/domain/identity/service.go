package identity

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinicore/clinicore/internal/platform/apperr"
	"github.com/clinicore/clinicore/internal/platform/auth"
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9._-]{3,40}$`)
	// Bangladeshi mobile numbers: optional +88 country code then 01xxxxxxxxx.
	phoneRe = regexp.MustCompile(`^(\+?88)?01[3-9]\d{8}$`)
	emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

var validRoles = map[string]bool{
	auth.RoleAdmin:     true,
	auth.RoleManager:   true,
	auth.RoleReception: true,
	auth.RoleAccounts:  true,
	auth.RoleSales:     true,
}

type Service struct {
	staff Repository
	log   zerolog.Logger
}

func NewService(staff Repository, log zerolog.Logger) *Service {
	return &Service{staff: staff, log: log}
}

// Authenticate verifies credentials and returns the staff record. Inactive
// accounts cannot sign in.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*Staff, error) {
	staff, err := s.staff.GetByUsername(ctx, username)
	if err != nil {
		// Same response for unknown user and bad password.
		return nil, apperr.Unauthorized("invalid username or password")
	}
	if !staff.Active {
		return nil, apperr.Forbidden("account is disabled")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.Unauthorized("invalid username or password")
	}
	// Best effort: a failed timestamp update must not block the login.
	if err := s.staff.RecordLogin(ctx, staff.ID); err != nil {
		s.log.Error().Err(err).
			Str("staff_id", staff.ID.String()).
			Msg("failed to record login time")
	}
	return staff, nil
}

func (s *Service) CreateStaff(ctx context.Context, st *Staff, password string) error {
	st.Username = strings.TrimSpace(st.Username)
	st.FullName = strings.TrimSpace(st.FullName)

	if !usernameRe.MatchString(st.Username) {
		return apperr.Invalid("username must be 3-40 characters (letters, digits, . _ -)")
	}
	if st.FullName == "" {
		return apperr.Invalid("full name is required")
	}
	if len(password) < 8 {
		return apperr.Invalid("password must be at least 8 characters")
	}
	if err := validateContact(st); err != nil {
		return err
	}
	if len(st.Roles) == 0 {
		return apperr.Invalid("at least one role is required")
	}
	for _, role := range st.Roles {
		if !validRoles[role] {
			return apperr.Invalid("unknown role %q", role)
		}
	}
	if existing, err := s.staff.GetByUsername(ctx, st.Username); err == nil && existing != nil {
		return apperr.Conflict("username %q already exists", st.Username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Wrap(err, apperr.KindInternal, "hash password")
	}
	st.PasswordHash = string(hash)
	st.Active = true
	return s.staff.Create(ctx, st)
}

func (s *Service) GetStaff(ctx context.Context, id uuid.UUID) (*Staff, error) {
	return s.staff.GetByID(ctx, id)
}

func (s *Service) UpdateStaff(ctx context.Context, st *Staff) error {
	current, err := s.staff.GetByID(ctx, st.ID)
	if err != nil {
		return err
	}
	if st.FullName == "" {
		return apperr.Invalid("full name is required")
	}
	if err := validateContact(st); err != nil {
		return err
	}
	for _, role := range st.Roles {
		if !validRoles[role] {
			return apperr.Invalid("unknown role %q", role)
		}
	}
	// Username and password are immutable through this path.
	st.Username = current.Username
	st.PasswordHash = current.PasswordHash
	return s.staff.Update(ctx, st)
}

// ChangePassword verifies the current password before setting a new one.
func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, current, updated string) error {
	st, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(st.PasswordHash), []byte(current)); err != nil {
		return apperr.Unauthorized("current password is incorrect")
	}
	if len(updated) < 8 {
		return apperr.Invalid("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(updated), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Wrap(err, apperr.KindInternal, "hash password")
	}
	st.PasswordHash = string(hash)
	return s.staff.Update(ctx, st)
}

func (s *Service) ListStaff(ctx context.Context, limit, offset int) ([]*Staff, int, error) {
	return s.staff.List(ctx, limit, offset)
}

func validateContact(st *Staff) error {
	if st.Phone != nil && *st.Phone != "" && !phoneRe.MatchString(*st.Phone) {
		return apperr.Invalid("invalid phone number %q", *st.Phone)
	}
	if st.Email != nil && *st.Email != "" && !emailRe.MatchString(*st.Email) {
		return apperr.Invalid("invalid email address %q", *st.Email)
	}
	return nil
}
