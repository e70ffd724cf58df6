package database

import (
	"testing"

	"mentorbridge/internal/models"

	"github.com/stretchr/testify/require"
)

func TestPersistentModels_IncludesUsersAndMatches(t *testing.T) {
	var hasUser, hasMatch bool
	for _, model := range PersistentModels() {
		switch model.(type) {
		case *models.User:
			hasUser = true
		case *models.Match:
			hasMatch = true
		}
	}
	require.True(t, hasUser, "PersistentModels should include User")
	require.True(t, hasMatch, "PersistentModels should include Match")
}
