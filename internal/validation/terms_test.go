package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitTerms(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"Simple", "go,python", []string{"go", "python"}},
		{"Whitespace And Empties", " go , python ,,ml ", []string{"go", "python", "ml"}},
		{"Duplicates Keep First", "ml,go,ml", []string{"ml", "go"}},
		{"Blank", "   ", nil},
		{"Only Separators", ",,,", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitTerms(tt.raw))
		})
	}
}

func TestCleanTermsNil(t *testing.T) {
	t.Parallel()
	assert.Nil(t, CleanTerms(nil))
	assert.Equal(t, []string{"a"}, CleanTerms([]string{" a ", "a", ""}))
}
