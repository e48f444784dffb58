package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("correct horse battery")
	require.NoError(t, err)
	require.NotEqual(t, "correct horse battery", hash)

	assert.True(t, Verify("correct horse battery", hash))
	assert.False(t, Verify("wrong guess", hash))
}

func TestValidatePassword(t *testing.T) {
	assert.False(t, ValidatePassword("seven77"))
	assert.True(t, ValidatePassword("eight888"))
}
