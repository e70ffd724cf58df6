package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMigrationStore struct {
	applied []int
	ran     []int
}

func (f *fakeMigrationStore) GetAppliedMigrations(context.Context) ([]int, error) {
	return f.applied, nil
}

func (f *fakeMigrationStore) ApplyMigration(_ context.Context, version int, _, _ string) error {
	f.ran = append(f.ran, version)
	f.applied = append(f.applied, version)
	return nil
}

func (f *fakeMigrationStore) RemoveMigration(context.Context, int) error { return nil }

func TestEmbeddedMigrationsRegistered(t *testing.T) {
	all := GetMigrations()
	require.Len(t, all, 2)
	assert.Equal(t, "000001_create_users", all[0].String())
	assert.Equal(t, "000002_create_matches", all[1].String())
	assert.Contains(t, all[1].UpScript, "idx_matches_pair")
	assert.NotEmpty(t, all[1].DownScript)

	m := GetMigrationByVersion(2)
	require.NotNil(t, m)
	assert.Equal(t, "create_matches", m.Name)
	assert.Nil(t, GetMigrationByVersion(99))
}

func TestApplyPendingSkipsApplied(t *testing.T) {
	store := &fakeMigrationStore{applied: []int{1}}
	require.NoError(t, applyPending(context.Background(), store, GetMigrations()))
	assert.Equal(t, []int{2}, store.ran)

	require.NoError(t, applyPending(context.Background(), store, GetMigrations()))
	assert.Equal(t, []int{2}, store.ran)
}

func TestApplyPendingRejectsUnknownVersions(t *testing.T) {
	store := &fakeMigrationStore{applied: []int{1, 7}}
	err := applyPending(context.Background(), store, GetMigrations())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000007")
}
