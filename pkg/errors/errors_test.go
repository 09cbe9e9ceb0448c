package errors

import (
	goerrors "errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_Error(t *testing.T) {
	err := NewProcessError("failed to start companion", os.ErrPermission).
		WithContext("pid", 42).
		WithContext("entry", "/repo/server/app.cjs")

	assert.Equal(t,
		"process: failed to start companion [entry=/repo/server/app.cjs, pid=42]: permission denied",
		err.Error())
}

func TestDomainError_ErrorWithoutContextOrCause(t *testing.T) {
	err := NewValidationError("configuration cannot be nil", nil)
	assert.Equal(t, "validation: configuration cannot be nil", err.Error())
}

func TestDomainError_Unwrap(t *testing.T) {
	err := NewIOError("failed to read configuration file", os.ErrNotExist)

	assert.True(t, goerrors.Is(err, os.ErrNotExist))
	assert.Equal(t, os.ErrNotExist, goerrors.Unwrap(err))
}

func TestIsType(t *testing.T) {
	inner := NewPathError("executable has too few ancestors", nil)
	outer := NewInternalError("setup failed", inner)

	assert.True(t, IsType(outer, ErrorTypeInternal))
	assert.True(t, IsType(outer, ErrorTypePath))
	assert.True(t, IsPathError(outer))
	assert.False(t, IsNotFoundError(outer))
	assert.False(t, IsType(nil, ErrorTypePath))
	assert.False(t, IsType(os.ErrNotExist, ErrorTypeIO))
}

func TestWithContext_InitializesMap(t *testing.T) {
	err := &DomainError{Type: ErrorTypeNotFound, Message: "interpreter not found"}
	err.WithContext("interpreter", "node")

	require.NotNil(t, err.Context)
	assert.Equal(t, "node", err.Context["interpreter"])
}
