package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"mentorbridge/internal/config"
	"mentorbridge/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig(t *testing.T) *config.Config {
	return &config.Config{
		Env:          "test",
		DBDriver:     config.DriverSQLite,
		DBSQLitePath: filepath.Join(t.TempDir(), "bootstrap.db"),
	}
}

func TestInitRuntimeSQLite(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.AdminEmail = "Root@Example.com"
	cfg.AdminPassword = "rootpass123"
	ctx := context.Background()

	rt, err := InitRuntime(ctx, cfg, Options{EnsureAdmin: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close(context.Background()) })

	assert.NotNil(t, rt.DB)
	assert.Nil(t, rt.Redis)

	deps := rt.ServerDeps()
	require.NotNil(t, deps.StorePing)
	assert.NoError(t, deps.StorePing(ctx))

	admin, err := rt.Users.GetByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Equal(t, "Administrator", admin.Name)
}

func TestInitRuntimeAdminNeedsPassword(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.AdminEmail = "root@example.com"

	_, err := InitRuntime(context.Background(), cfg, Options{EnsureAdmin: true})
	assert.ErrorContains(t, err, "ADMIN_PASSWORD")
}

func TestInitRuntimeRejectsUnknownDriver(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.DBDriver = "cassandra"

	_, err := InitRuntime(context.Background(), cfg, Options{})
	assert.Error(t, err)
}
