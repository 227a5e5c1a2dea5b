package util

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCommand(t *testing.T) {
	self, err := os.Executable()
	require.NoError(t, err)

	assert.True(t, HasCommand(self), "the running test binary resolves")
	assert.False(t, HasCommand("nosleep-no-such-helper"))
	assert.False(t, HasCommand(""))
}
