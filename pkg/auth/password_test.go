package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassword(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)

	assert.True(t, ComparePassword(hash, "hunter22"))
	assert.False(t, ComparePassword(hash, "hunter23"))
	assert.False(t, CompareDummy("hunter22"))
}
