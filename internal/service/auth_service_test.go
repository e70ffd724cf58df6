package service

import (
	"context"
	"errors"
	"testing"

	"mentorbridge/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuth(users ...*models.User) (*AuthService, *memUsers) {
	mem, stub := newMemUsers(users...)
	return NewAuthService(stub, bcrypt.MinCost), mem
}

func validRegistration() RegisterInput {
	return RegisterInput{
		Name:       "  Ada Lovelace ",
		Email:      " Ada@Example.com ",
		Password:   "engine42",
		Role:       "Mentor",
		Skills:     []string{"go", " math ", "go", ""},
		Bio:        "analyst",
		Experience: "20 years",
	}
}

func TestAuthServiceRegister(t *testing.T) {
	svc, _ := newAuth()
	ctx := context.Background()

	user, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "Ada Lovelace", user.Name)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, models.RoleMentor, user.Role)
	assert.Equal(t, []string{"go", "math"}, user.Skills)
	assert.Equal(t, "20 years", user.Experience)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("engine42")))

	_, err = svc.Register(ctx, validRegistration())
	assert.True(t, models.HasCode(err, models.CodeDuplicateEmail))
}

func TestAuthServiceRegisterMenteeDropsExperience(t *testing.T) {
	svc, _ := newAuth()
	in := validRegistration()
	in.Role = "mentee"
	in.Interests = []string{"go"}

	user, err := svc.Register(context.Background(), in)
	require.NoError(t, err)
	assert.Empty(t, user.Experience)
	assert.Equal(t, []string{"go"}, user.Interests)
}

func TestAuthServiceRegisterValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterInput)
	}{
		{"admin role", func(in *RegisterInput) { in.Role = "admin" }},
		{"unknown role", func(in *RegisterInput) { in.Role = "coach" }},
		{"missing name", func(in *RegisterInput) { in.Name = "  " }},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }},
		{"short password", func(in *RegisterInput) { in.Password = "a1" }},
		{"password without digit", func(in *RegisterInput) { in.Password = "abcdefghij" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mem := newAuth()
			in := validRegistration()
			tt.mutate(&in)

			_, err := svc.Register(context.Background(), in)
			assert.True(t, models.HasCode(err, models.CodeValidation), "got %v", err)
			assert.Empty(t, mem.byID)
		})
	}
}

func TestAuthServiceRegisterStoreRace(t *testing.T) {
	stub := &userRepoStub{
		getByEmailFn: func(context.Context, string) (*models.User, error) { return nil, nil },
		createFn: func(context.Context, *models.User) error {
			return models.NewDuplicateEmailError()
		},
	}
	svc := NewAuthService(stub, bcrypt.MinCost)

	_, err := svc.Register(context.Background(), validRegistration())
	assert.True(t, models.HasCode(err, models.CodeDuplicateEmail))
}

func TestAuthServiceLogin(t *testing.T) {
	svc, _ := newAuth()
	ctx := context.Background()
	_, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	user, err := svc.Login(ctx, "ADA@example.com ", "engine42")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)

	_, err = svc.Login(ctx, "ada@example.com", "wrong-password1")
	assert.True(t, models.HasCode(err, models.CodeInvalidCredentials))

	_, err = svc.Login(ctx, "nobody@example.com", "engine42")
	assert.True(t, models.HasCode(err, models.CodeInvalidCredentials))
	assert.Equal(t, "Invalid email or password", models.PublicMessage(err))
}

func TestAuthServiceLoginStoreFailure(t *testing.T) {
	boom := models.NewInternalError(errors.New("db down"))
	stub := &userRepoStub{
		getByEmailFn: func(context.Context, string) (*models.User, error) { return nil, boom },
	}
	svc := NewAuthService(stub, bcrypt.MinCost)

	_, err := svc.Login(context.Background(), "a@example.com", "engine42")
	assert.ErrorIs(t, err, boom)
}

func TestAuthServiceEnsureAdmin(t *testing.T) {
	svc, mem := newAuth()
	ctx := context.Background()

	admin, created, err := svc.EnsureAdmin(ctx, "Admin", "Admin@Example.com", "rootpass1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.RoleAdmin, admin.Role)

	again, created, err := svc.EnsureAdmin(ctx, "Admin", "admin@example.com", "rootpass1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, admin.ID, again.ID)
	assert.Len(t, mem.byID, 1)

	_, err = svc.Register(ctx, RegisterInput{Name: "M", Email: "m@example.com", Password: "mentor123", Role: "mentor"})
	require.NoError(t, err)
	_, _, err = svc.EnsureAdmin(ctx, "Admin", "m@example.com", "rootpass1")
	assert.True(t, models.HasCode(err, models.CodeValidation))
}
