package auth

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResetToken(t *testing.T) {
	t.Parallel()

	token, err := NewResetToken()
	require.NoError(t, err)

	assert.Len(t, token, 64)
	_, err = hex.DecodeString(token)
	assert.NoError(t, err)

	other, err := NewResetToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}
