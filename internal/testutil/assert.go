package testutil

import (
	stderrors "errors"
	"testing"

	apperrors "github.com/bridgectl/bridgectl/internal/errors"

	"github.com/stretchr/testify/assert"
)

// AssertErrorType checks if the error is of a specific type using errors.Is.
func AssertErrorType(t *testing.T, err, target error, _ ...any) bool {
	t.Helper()
	if !stderrors.Is(err, target) {
		return assert.Fail(t, "Error type mismatch", "Expected error type %T, got %T", target, err)
	}
	return true
}

// AssertProvisionCode checks if the error carries a specific provisioning
// error code.
func AssertProvisionCode(t *testing.T, err error, expectedCode string, _ ...any) bool {
	t.Helper()
	code := apperrors.GetErrorCode(err)
	if code != expectedCode {
		return assert.Fail(t, "Error code mismatch", "Expected error code %q, got %q", expectedCode, code)
	}
	return true
}

// AssertStep checks if the error is attributed to a specific pipeline step.
func AssertStep(t *testing.T, err error, expectedStep string, _ ...any) bool {
	t.Helper()
	step := apperrors.GetStep(err)
	if step != expectedStep {
		return assert.Fail(t, "Step mismatch", "Expected step %q, got %q", expectedStep, step)
	}
	return true
}
