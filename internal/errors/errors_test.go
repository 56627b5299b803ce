package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvisionError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ProvisionError
		expected string
	}{
		{
			name: "error with cause",
			err: &ProvisionError{
				Code:    ErrCodeRoleBinding,
				Message: "provider rejected binding",
				Cause:   errors.New("permission denied"),
			},
			expected: "provider rejected binding: permission denied",
		},
		{
			name: "error without cause",
			err: &ProvisionError{
				Code:    ErrCodeIncompleteState,
				Message: "endpoint not recorded",
			},
			expected: "endpoint not recorded",
		},
		{
			name: "error with step attribution",
			err: &ProvisionError{
				Code:    ErrCodeDeployment,
				Step:    "deploy-service",
				Message: "deployment never became ready",
				Cause:   errors.New("revision failed"),
			},
			expected: "deploy-service: deployment never became ready: revision failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestProvisionError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := ErrDeployment("deployment rejected", cause)

	require.ErrorIs(t, err, cause)
	assert.Equal(t, cause, err.Unwrap())
}

func TestProvisionError_Is(t *testing.T) {
	tests := []struct {
		name     string
		err      *ProvisionError
		target   error
		expected bool
	}{
		{
			name:     "same error code matches",
			err:      ErrRoleBinding("binding rejected", nil),
			target:   &ProvisionError{Code: ErrCodeRoleBinding},
			expected: true,
		},
		{
			name:     "different error code does not match",
			err:      ErrRoleBinding("binding rejected", nil),
			target:   &ProvisionError{Code: ErrCodeDeployment},
			expected: false,
		},
		{
			name:     "non provision error does not match",
			err:      ErrInvalidInput("domain is required", nil),
			target:   errors.New("domain is required"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, errors.Is(tt.err, tt.target))
		})
	}
}

func TestProvisionError_WithStep(t *testing.T) {
	t.Run("sets step when empty", func(t *testing.T) {
		err := ErrAccountCreation("quota exceeded", nil).WithStep("ensure-service-account")
		assert.Equal(t, "ensure-service-account", err.Step)
	})

	t.Run("preserves innermost step", func(t *testing.T) {
		err := &ProvisionError{Code: ErrCodeRoleBinding, Step: "bind-role", Message: "rejected"}
		assert.Equal(t, "bind-role", err.WithStep("deploy-service").Step)
	})
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(ErrEndpointUnavailable("no url yet", nil)))
	assert.False(t, IsTransient(ErrDeployment("rejected", nil)))
	assert.False(t, IsTransient(errors.New("plain error")))
}

func TestGetErrorCode_WrappedError(t *testing.T) {
	inner := ErrEndpointUnavailable("url not propagated", nil)
	wrapped := fmt.Errorf("discovery failed: %w", inner)

	assert.Equal(t, ErrCodeEndpointUnavailable, GetErrorCode(wrapped))
	assert.Empty(t, GetErrorCode(errors.New("plain")))
}

func TestGetErrorDetails(t *testing.T) {
	t.Run("returns cause detail", func(t *testing.T) {
		err := ErrAccountCreation("creation rejected", errors.New("quota exhausted"))
		assert.Equal(t, "quota exhausted", GetErrorDetails(err))
	})

	t.Run("falls back to message", func(t *testing.T) {
		err := ErrIncompleteState("endpoint not recorded")
		assert.Equal(t, "endpoint not recorded", GetErrorDetails(err))
	})

	t.Run("plain error passes through", func(t *testing.T) {
		assert.Equal(t, "plain", GetErrorDetails(errors.New("plain")))
	})
}
