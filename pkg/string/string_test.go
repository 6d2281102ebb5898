package string

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"k", "o", "n"}, Tokens(" k, o  n,,"))
	assert.Empty(t, Tokens(" , "))
}

func TestToSnakeCase(t *testing.T) {
	assert.Equal(t, "max_consecutive_failures", ToSnakeCase("MaxConsecutiveFailures"))
	assert.Equal(t, "embedding", ToSnakeCase("Embedding"))
	assert.Equal(t, "profile_id", ToSnakeCase("ProfileID"))
}
