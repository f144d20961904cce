package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEnum(t *testing.T) {
	values := []string{"INFO", "WARNING", "ERROR"}

	assert.True(t, IsValidEnum("INFO", values))
	assert.True(t, IsValidEnum("", values))
	assert.False(t, IsValidEnum("DEBUG", values))
	assert.False(t, IsValidEnum("info", values))
}
