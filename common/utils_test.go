package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoalesce(t *testing.T) {
	assert.Equal(t, "b", Coalesce("", "b", "c"))
	assert.Equal(t, 0, Coalesce(0, 0))
	assert.Equal(t, 3.5, Coalesce(0, 3.5))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 5, Clamp(9, 0, 5))
	assert.Equal(t, 0.0, Clamp(-1.0, 0, 5))
	assert.Equal(t, float32(2.5), Clamp(float32(2.5), 0, 5))
}

func TestIsShift(t *testing.T) {
	assert.True(t, IsShift(KeyLeftShift))
	assert.True(t, IsShift(KeyRightShift))
	assert.False(t, IsShift(KeyV))
}
