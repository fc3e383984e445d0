package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			err:      New(CodeInvalidInput, "object must not be nil"),
			expected: "[INVALID_INPUT] object must not be nil",
		},
		{
			name:     "with underlying error",
			err:      Wrap(CodeIntrospectionError, "field read failed", errors.New("value not addressable")),
			expected: "[INTROSPECTION_ERROR] field read failed: value not addressable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := Wrap(CodeConfigError, "bad configuration", underlying)

	unwrapped := err.Unwrap()
	assert.Equal(t, underlying, unwrapped)
}

func TestAppError_Is(t *testing.T) {
	err1 := New(CodeInvalidInput, "error 1")
	err2 := New(CodeInvalidInput, "error 2")
	err3 := New(CodeConfigError, "error 3")

	assert.True(t, errors.Is(err1, err2))
	assert.False(t, errors.Is(err1, err3))
}

func TestIsInvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "invalid input error",
			err:      ErrInvalidInput,
			expected: true,
		},
		{
			name:     "wrapped invalid input error",
			err:      Wrap(CodeInvalidInput, "nil object", errors.New("root was nil")),
			expected: true,
		},
		{
			name:     "other error",
			err:      ErrConfigError,
			expected: false,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsInvalidInput(tt.err))
		})
	}
}

func TestIsStrategyUnavailable(t *testing.T) {
	err := Wrap(CodeStrategyUnavailable, "instrumentation not installed", nil)
	assert.True(t, IsStrategyUnavailable(err))
	assert.False(t, IsStrategyUnavailable(ErrInvalidInput))
}

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "app error",
			err:      New(CodeConfigError, "bad depth"),
			expected: CodeConfigError,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			expected: CodeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetErrorCode(tt.err))
		})
	}
}

func TestGetErrorMessage(t *testing.T) {
	assert.Equal(t, "bad depth", GetErrorMessage(New(CodeConfigError, "bad depth")))
	assert.Equal(t, "plain", GetErrorMessage(errors.New("plain")))
	assert.Equal(t, "", GetErrorMessage(nil))
}
