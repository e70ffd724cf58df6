package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"mentorbridge/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

func TestUserRepository_GetByEmail_Postgres(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "name", "email", "role", "skills", "interests"}).
			AddRow("u-1", "Ada", "ada@example.com", "mentor", `["go"]`, `[]`)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE email = $1 ORDER BY "users"."id" LIMIT $2`)).
			WithArgs("ada@example.com", 1).
			WillReturnRows(rows)

		user, err := repo.GetByEmail(ctx, "ada@example.com")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "u-1", user.ID)
		assert.Equal(t, []string{"go"}, user.Skills)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Absent", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE email = $1`)).
			WithArgs("nobody@example.com", 1).
			WillReturnError(gorm.ErrRecordNotFound)

		user, err := repo.GetByEmail(ctx, "nobody@example.com")
		assert.NoError(t, err)
		assert.Nil(t, user)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Driver Error", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE email = $1`)).
			WithArgs("x@example.com", 1).
			WillReturnError(errors.New("connection timeout"))

		user, err := repo.GetByEmail(ctx, "x@example.com")
		assert.Nil(t, user)
		assert.True(t, models.HasCode(err, models.CodeInternal))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_Create_UniqueViolationPostgres(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "users"`)).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint \"idx_users_email\""})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.User{Name: "Ada", Email: "ada@example.com", Role: models.RoleMentor})
	assert.True(t, models.HasCode(err, models.CodeDuplicateEmail))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueConstraintError(t *testing.T) {
	assert.True(t, isUniqueConstraintError(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueConstraintError(&pgconn.PgError{Code: "23503"}))
	assert.True(t, isUniqueConstraintError(errors.New("UNIQUE constraint failed: users.email")))
	assert.True(t, isUniqueConstraintError(gorm.ErrDuplicatedKey))
	assert.False(t, isUniqueConstraintError(errors.New("connection refused")))
	assert.False(t, isUniqueConstraintError(nil))
}

func TestUserRepository_SQLite(t *testing.T) {
	_, users, _ := newTestRepos(t)
	ctx := context.Background()

	ada := createUser(t, users, "ada", models.RoleMentor, []string{"go", "ml"}, nil)
	createUser(t, users, "bob", models.RoleMentor, []string{"rust"}, nil)
	createUser(t, users, "cy", models.RoleMentee, nil, []string{"go"})

	t.Run("GetByID", func(t *testing.T) {
		got, err := users.GetByID(ctx, ada.ID)
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", got.Email)
		assert.Equal(t, []string{"go", "ml"}, got.Skills)

		_, err = users.GetByID(ctx, "missing")
		assert.True(t, models.HasCode(err, models.CodeNotFound))
	})

	t.Run("Duplicate Email", func(t *testing.T) {
		err := users.Create(ctx, &models.User{Name: "Ada 2", Email: "ada@example.com", Password: "x", Role: models.RoleMentee})
		assert.True(t, models.HasCode(err, models.CodeDuplicateEmail))
	})

	t.Run("FindCandidates", func(t *testing.T) {
		found, err := users.FindCandidates(ctx, models.RoleMentor, models.FieldSkills, []string{"go", "python"})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, ada.ID, found[0].ID)

		found, err = users.FindCandidates(ctx, models.RoleMentor, models.FieldSkills, nil)
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("Update Drops Experience For Mentee", func(t *testing.T) {
		cy, err := users.GetByEmail(ctx, "cy@example.com")
		require.NoError(t, err)
		cy.Experience = "lots"
		cy.Bio = "learning"
		require.NoError(t, users.Update(ctx, cy))

		reloaded, err := users.GetByID(ctx, cy.ID)
		require.NoError(t, err)
		assert.Equal(t, "learning", reloaded.Bio)
		assert.Empty(t, reloaded.Experience)
	})

	t.Run("List", func(t *testing.T) {
		all, err := users.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})
}

func TestMatchRepository_CounterpartIDs_Postgres(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewMatchRepository(db)

	rows := sqlmock.NewRows([]string{"mentor_id", "mentee_id"}).
		AddRow("u-1", "u-2").
		AddRow("u-3", "u-1")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "mentor_id","mentee_id" FROM "matches" WHERE`)).
		WithArgs("u-1", "u-1").
		WillReturnRows(rows)

	ids, err := repo.CounterpartIDs(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u-2", "u-3"}, ids)
	// One statement only: neither participant is loaded.
	assert.NoError(t, mock.ExpectationsWereMet())
}
