package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "voicegate/pkg/domain-errors"
)

func TestParseProfileID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseProfileID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseProfileID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("nil UUID parses but reports IsNil", func(t *testing.T) {
		id, err := ParseProfileID(uuid.Nil.String())
		require.NoError(t, err)
		assert.True(t, id.IsNil())
	})

	t.Run("round trips through String", func(t *testing.T) {
		want := NewProfileID()
		got, err := ParseProfileID(want.String())
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.False(t, got.IsNil())
	})
}

func TestParseSessionID(t *testing.T) {
	want := NewSessionID()
	got, err := ParseSessionID(want.String())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
