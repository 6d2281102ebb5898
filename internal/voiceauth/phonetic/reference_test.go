package phonetic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicegate/internal/voiceauth/models"
	dErrors "voicegate/pkg/domain-errors"
)

func TestSelectReference(t *testing.T) {
	t.Run("single sample is its own reference", func(t *testing.T) {
		got, err := SelectReference([]models.PhonemeSequence{seq("a", "b")}, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, got)
	})

	t.Run("picks the medoid", func(t *testing.T) {
		samples := []models.PhonemeSequence{
			seq("a", "x", "c", "d", "e"),
			seq("a", "b", "c", "d", "e"),
			seq("a", "b", "c", "d", "y"),
		}
		got, err := SelectReference(samples, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, got)
	})

	t.Run("ties go to the lowest index", func(t *testing.T) {
		samples := []models.PhonemeSequence{
			seq("a", "b", "c", "d", "e"),
			seq("a", "b", "c", "d", "e"),
			seq("a", "b", "x", "d", "e"),
		}
		got, err := SelectReference(samples, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, got)
	})

	t.Run("multi character labels compare as symbols", func(t *testing.T) {
		samples := []models.PhonemeSequence{
			seq("sh", "i", "pau"),
			seq("s", "h", "i"),
			seq("sh", "i"),
		}
		got, err := SelectReference(samples, map[string]struct{}{"pau": {}})
		require.NoError(t, err)
		assert.Equal(t, 0, got)
	})

	t.Run("no samples is invalid", func(t *testing.T) {
		_, err := SelectReference(nil, nil)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestNormalizedEditDistance(t *testing.T) {
	assert.Equal(t, 0.0, NormalizedEditDistance(nil, nil))
	assert.Equal(t, 1.0, NormalizedEditDistance([]rune("ab"), nil))
	assert.InDelta(t, 0.25, NormalizedEditDistance([]rune("abcd"), []rune("abxd")), 1e-12)
}
