// Package service holds the business rules behind both HTTP surfaces.
package service

import (
	"context"
	"strings"
	"sync"

	"mentorbridge/internal/models"
	"mentorbridge/internal/observability"
	"mentorbridge/internal/repository"
	"mentorbridge/internal/validation"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
)

// RegisterInput is a sign-up request from either surface.
type RegisterInput struct {
	Name       string
	Email      string
	Password   string
	Role       string
	Skills     []string
	Interests  []string
	Bio        string
	Experience string
}

// AuthService provides registration, credential checks and admin bootstrap.
type AuthService struct {
	users repository.UserRepository
	cost  int

	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthService returns an AuthService hashing with cost, or bcrypt.DefaultCost when cost is zero.
func NewAuthService(users repository.UserRepository, cost int) *AuthService {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{users: users, cost: cost}
}

// Register creates a mentor or mentee account.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (user *models.User, err error) {
	span, ctx := observability.StartServiceSpan(ctx, "AuthService", "Register")
	defer func() {
		span.SetError(err)
		span.End()
		observability.AuthAttempts.WithLabelValues("register", observability.Outcome(err, models.ErrorCode)).Inc()
	}()

	role, err := models.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}
	if !role.SelfRegistrable() {
		return nil, models.NewValidationError("Role must be mentor or mentee")
	}

	user = &models.User{
		Name:      strings.TrimSpace(in.Name),
		Email:     validation.NormalizeEmail(in.Email),
		Role:      role,
		Skills:    validation.CleanTerms(in.Skills),
		Interests: validation.CleanTerms(in.Interests),
		Bio:       strings.TrimSpace(in.Bio),
	}
	user.SetExperience(strings.TrimSpace(in.Experience))

	if err := validateUser(user); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.users.GetByEmail(ctx, user.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewDuplicateEmailError()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	user.Password = string(hash)

	// A concurrent registration loses on the unique email index and
	// surfaces as DuplicateEmail from the store.
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	span.AddAttributes(attribute.String("user.id", user.ID), attribute.String("user.role", user.Role.String()))
	return user, nil
}

// Login checks credentials. Unknown emails and wrong passwords are indistinguishable.
func (s *AuthService) Login(ctx context.Context, email, password string) (user *models.User, err error) {
	span, ctx := observability.StartServiceSpan(ctx, "AuthService", "Login")
	defer func() {
		span.SetError(err)
		span.End()
		observability.AuthAttempts.WithLabelValues("login", observability.Outcome(err, models.ErrorCode)).Inc()
	}()

	user, err = s.users.GetByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
		return nil, models.NewInvalidCredentialsError()
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, models.NewInvalidCredentialsError()
	}
	return user, nil
}

// EnsureAdmin creates the admin account when email is unused. It reports
// whether an account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) (*models.User, bool, error) {
	email = validation.NormalizeEmail(email)
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		if !existing.IsAdmin() {
			return nil, false, models.NewValidationError("Admin email belongs to a " + existing.Role.String() + " account")
		}
		return existing, false, nil
	}

	admin := &models.User{Name: strings.TrimSpace(name), Email: email, Role: models.RoleAdmin}
	if err := validateUser(admin); err != nil {
		return nil, false, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, false, models.NewValidationError(err.Error())
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, false, models.NewInternalError(err)
	}
	admin.Password = string(hash)

	if err := s.users.Create(ctx, admin); err != nil {
		return nil, false, err
	}
	return admin, true, nil
}

// dummy is compared against for unknown emails so both login failures cost one bcrypt run.
func (s *AuthService) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("mentorbridge-timing-equaliser"), s.cost)
	})
	return s.dummyHash
}

// validateUser applies the field rules shared by registration and profile edits.
func validateUser(u *models.User) error {
	if err := validation.ValidateName(u.Name); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(u.Email); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := validation.ValidateBio(u.Bio); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := validation.ValidateExperience(u.Experience); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := validation.ValidateTerms("skills", u.Skills); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := validation.ValidateTerms("interests", u.Interests); err != nil {
		return models.NewValidationError(err.Error())
	}
	return nil
}
