package tokencount

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimate_EmptyStringIsZero(t *testing.T) {
	n, err := Estimate("")
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestEstimate_NonEmptyStringIsPositive(t *testing.T) {
	n, err := Estimate("hello world, this is a test sentence")
	assert.NoError(t, err)
	assert.Greater(t, n, 0)
}

func TestEstimate_LongerTextHasMoreTokens(t *testing.T) {
	short, err := Estimate("hello")
	assert.NoError(t, err)
	long, err := Estimate("hello there, how are you doing today on this fine afternoon")
	assert.NoError(t, err)
	assert.Greater(t, long, short)
}
