package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	t.Parallel()

	h, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", h)

	assert.True(t, CheckPassword(h, "secret1"))
	assert.False(t, CheckPassword(h, "secret2"))
	assert.False(t, CheckPassword("not-a-hash", "secret1"))
}
