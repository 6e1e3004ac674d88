package sqlutil

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"quest_stage_history", "`quest_stage_history`"},
		{"History2", "`History2`"},
		{"odd`name", "`odd``name`"},
		{"", "``"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, QuoteIdentifier(tt.input))
		})
	}
}

func TestIsValidIdentifier(t *testing.T) {
	assert.True(t, IsValidIdentifier("quest_stage_history"))
	assert.True(t, IsValidIdentifier(strings.Repeat("a", 64)))

	assert.False(t, IsValidIdentifier(""))
	assert.False(t, IsValidIdentifier(strings.Repeat("a", 65)))
	assert.False(t, IsValidIdentifier("quests; DROP TABLE x"))
	assert.False(t, IsValidIdentifier("db.table"))
	assert.False(t, IsValidIdentifier("quest-history"))
}

func TestQuoteIdentifierSafe(t *testing.T) {
	quoted, err := QuoteIdentifierSafe("quest_stage_history")
	require.NoError(t, err)
	assert.Equal(t, "`quest_stage_history`", quoted)

	_, err = QuoteIdentifierSafe("bad`name")
	require.Error(t, err)

	var invalid *InvalidIdentifierError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "bad`name", invalid.Name)
	assert.Contains(t, err.Error(), "invalid identifier")
}
