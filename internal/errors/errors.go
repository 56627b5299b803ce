// Package errors provides error types and handling for bridgectl.
// It includes typed provisioning errors with error codes and step attribution.
package errors

import (
	"errors"
	"fmt"
)

// ProvisionError represents a provisioning failure with an associated error
// code and, when raised inside the pipeline, the name of the failing step.
type ProvisionError struct {
	// Code is an error code string for programmatic handling
	Code string
	// Step is the pipeline step the error occurred in, if any
	Step string
	// Message is a user-friendly error message
	Message string
	// Cause is the underlying error (for error wrapping)
	Cause error
}

// Error implements the error interface.
func (e *ProvisionError) Error() string {
	msg := e.Message
	if e.Step != "" {
		msg = e.Step + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ProvisionError) Unwrap() error {
	return e.Cause
}

// Is allows errors.Is to work with ProvisionError.
func (e *ProvisionError) Is(target error) bool {
	if t, ok := target.(*ProvisionError); ok {
		return e.Code != "" && e.Code == t.Code
	}
	return false
}

// WithStep attributes the error to a pipeline step. The step already set on
// an error is preserved so the innermost attribution wins.
func (e *ProvisionError) WithStep(step string) *ProvisionError {
	if e.Step == "" {
		e.Step = step
	}
	return e
}

// Predefined error codes.
const (
	// ErrCodeInvalidInput marks a missing or malformed parameter, caught
	// before any cloud call is made.
	ErrCodeInvalidInput = "INVALID_INPUT"

	// ErrCodeAccountCreation marks a provider rejection while creating the
	// service account. Fatal; operator remediation is required.
	ErrCodeAccountCreation = "ACCOUNT_CREATION_FAILED"

	// ErrCodeRoleBinding marks a provider rejection while attaching a
	// policy binding. Fatal.
	ErrCodeRoleBinding = "ROLE_BINDING_FAILED"

	// ErrCodeDeployment marks a failed or never-ready deployment. Fatal;
	// redeploying a half-applied revision risks duplicated resources.
	ErrCodeDeployment = "DEPLOYMENT_FAILED"

	// ErrCodeEndpointUnavailable marks a deployed service whose public URL
	// has not propagated yet. Transient within a bounded retry window.
	ErrCodeEndpointUnavailable = "ENDPOINT_UNAVAILABLE"

	// ErrCodeIncompleteState marks use of a resource state that is missing
	// required fields. A defect, not an environment failure.
	ErrCodeIncompleteState = "INCOMPLETE_STATE"

	// ErrCodeCanceled marks a pipeline stopped between steps by context
	// cancellation.
	ErrCodeCanceled = "CANCELED"
)

// Convenience constructors for the provisioning taxonomy

// ErrInvalidInput creates an invalid input error.
func ErrInvalidInput(message string, cause error) *ProvisionError {
	return &ProvisionError{Code: ErrCodeInvalidInput, Message: message, Cause: cause}
}

// ErrAccountCreation creates an account creation failure.
func ErrAccountCreation(message string, cause error) *ProvisionError {
	return &ProvisionError{Code: ErrCodeAccountCreation, Message: message, Cause: cause}
}

// ErrRoleBinding creates a role binding failure.
func ErrRoleBinding(message string, cause error) *ProvisionError {
	return &ProvisionError{Code: ErrCodeRoleBinding, Message: message, Cause: cause}
}

// ErrDeployment creates a deployment failure.
func ErrDeployment(message string, cause error) *ProvisionError {
	return &ProvisionError{Code: ErrCodeDeployment, Message: message, Cause: cause}
}

// ErrEndpointUnavailable creates a transient endpoint discovery failure.
func ErrEndpointUnavailable(message string, cause error) *ProvisionError {
	return &ProvisionError{Code: ErrCodeEndpointUnavailable, Message: message, Cause: cause}
}

// ErrIncompleteState creates an incomplete state error.
func ErrIncompleteState(message string) *ProvisionError {
	return &ProvisionError{Code: ErrCodeIncompleteState, Message: message}
}

// ErrCanceled creates a cancellation error.
func ErrCanceled(step string, cause error) *ProvisionError {
	return &ProvisionError{Code: ErrCodeCanceled, Step: step, Message: "provisioning canceled", Cause: cause}
}

// IsTransient reports whether the error may resolve on its own and is safe
// to retry within a bounded window.
func IsTransient(err error) bool {
	return GetErrorCode(err) == ErrCodeEndpointUnavailable
}

// GetErrorCode extracts the error code from an error.
// Returns empty string if the error is not a ProvisionError.
func GetErrorCode(err error) string {
	var provErr *ProvisionError
	if errors.As(err, &provErr) {
		return provErr.Code
	}
	return ""
}

// GetStep extracts the failing step name from an error.
// Returns empty string if the error is not a ProvisionError.
func GetStep(err error) string {
	var provErr *ProvisionError
	if errors.As(err, &provErr) {
		return provErr.Step
	}
	return ""
}

// GetErrorMessage extracts a user-friendly message from an error.
func GetErrorMessage(err error) string {
	var provErr *ProvisionError
	if errors.As(err, &provErr) {
		return provErr.Message
	}
	return err.Error()
}

// GetErrorDetails extracts detailed error information including the underlying cause.
// Returns the underlying error message if available, otherwise returns the main error message.
func GetErrorDetails(err error) string {
	var provErr *ProvisionError
	if errors.As(err, &provErr) {
		if provErr.Cause != nil {
			return provErr.Cause.Error()
		}
		return provErr.Message
	}
	return err.Error()
}
