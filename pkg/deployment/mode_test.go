//go:build !release

package deployment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrent_DefaultBuildIsDevelopment(t *testing.T) {
	assert.Equal(t, Development, Current())
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "development", Development.String())
	assert.Equal(t, "production", Production.String())
	assert.Equal(t, "unknown", Mode(9).String())
}

func TestMode_Valid(t *testing.T) {
	assert.True(t, Development.Valid())
	assert.True(t, Production.Valid())
	assert.False(t, Mode(-1).Valid())
}
