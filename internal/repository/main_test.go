package repository

import (
	"context"
	"testing"

	"mentorbridge/internal/models"
	"mentorbridge/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestRepos(t *testing.T) (*gorm.DB, UserRepository, MatchRepository) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	return db, NewUserRepository(db), NewMatchRepository(db)
}

func createUser(t *testing.T, repo UserRepository, name string, role models.Role, skills, interests []string) *models.User {
	t.Helper()
	u := &models.User{
		Name:      name,
		Email:     name + "@example.com",
		Password:  "hash",
		Role:      role,
		Skills:    skills,
		Interests: interests,
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}
