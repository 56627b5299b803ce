package aws

import (
	"errors"
	"strings"

	"github.com/aws/smithy-go"
)

// isNotFound reports whether err says the requested IAM or Lambda resource
// does not exist. IAM reports NoSuchEntity over its query protocol while
// Lambda reports ResourceNotFoundException, so both codes are checked.
func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "NoSuchEntity", "NoSuchEntityException", "ResourceNotFoundException":
		return true
	}
	return false
}

// isConflict reports whether err says the resource already exists in the
// requested shape, which reads as success for idempotent provisioning.
func isConflict(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "ResourceConflictException", "EntityAlreadyExists", "EntityAlreadyExistsException":
		return true
	}
	return false
}

// isRoleNotPropagated reports whether err is Lambda rejecting a freshly
// created execution role that IAM has not finished propagating.
func isRoleNotPropagated(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.ErrorCode() == "InvalidParameterValueException" &&
		strings.Contains(apiErr.ErrorMessage(), "cannot be assumed")
}
