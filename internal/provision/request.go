// Package provision implements the provisioning pipeline for the SCIM
// bridge: resolving the request, running the ordered idempotent steps
// against a cloud provider, and emitting the resulting configuration
// artifact and residual operator steps.
package provision

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/bridgectl/bridgectl/internal/constants"
	apperrors "github.com/bridgectl/bridgectl/internal/errors"
)

// Request is the immutable input to one provisioning run. ProjectID, Domain,
// and AdminEmail must be supplied; every other field has a default.
type Request struct {
	ProjectID          string             `validate:"required"`
	Region             string             `validate:"required"`
	ServiceAccountName string             `validate:"required"`
	ServiceName        string             `validate:"required"`
	Image              string             `validate:"required"`
	Domain             string             `validate:"required,fqdn"`
	AdminEmail         string             `validate:"required,email"`
	Provider           constants.Provider `validate:"required"`
	Roles              []string           `validate:"required,min=1"`
}

var validate = validator.New()

// flagNames maps struct fields to the command-line flags they come from, so
// validation failures read in the operator's vocabulary.
var flagNames = map[string]string{
	"ProjectID":          "--project",
	"Region":             "--region",
	"ServiceAccountName": "--service-account",
	"ServiceName":        "--service-name",
	"Image":              "--image",
	"Domain":             "--domain",
	"AdminEmail":         "--admin-email",
	"Provider":           "--provider",
	"Roles":              "--role",
}

// Resolve validates the required inputs and fills in defaults, returning the
// completed request. Called before any collaborator is constructed, so an
// invalid request never reaches the cloud.
func Resolve(req Request) (*Request, error) {
	if req.Provider == "" {
		req.Provider = constants.DefaultProvider
	}

	switch req.Provider {
	case constants.GCP, constants.AWS:
	default:
		return nil, apperrors.ErrInvalidInput(
			fmt.Sprintf("unsupported provider %q (expected %q or %q)", req.Provider, constants.GCP, constants.AWS),
			nil,
		)
	}

	if req.Region == "" {
		req.Region = defaultRegion(req.Provider)
	}
	if req.ServiceAccountName == "" {
		req.ServiceAccountName = constants.DefaultServiceAccountName
	}
	if req.ServiceName == "" {
		req.ServiceName = constants.DefaultServiceName
	}
	if req.Image == "" {
		req.Image = constants.DefaultBridgeImage
	}
	if len(req.Roles) == 0 {
		req.Roles = defaultRoles(req.Provider)
	}
	req.Roles = dedupeRoles(req.Roles)

	if err := validate.Struct(&req); err != nil {
		return nil, invalidInputError(err)
	}

	return &req, nil
}

func defaultRegion(provider constants.Provider) string {
	if provider == constants.AWS {
		return constants.DefaultAWSRegion
	}
	return constants.DefaultGCPRegion
}

func defaultRoles(provider constants.Provider) []string {
	var roles []string
	if provider == constants.AWS {
		roles = constants.DefaultAWSRoles
	} else {
		roles = constants.DefaultGCPRoles
	}
	out := make([]string, len(roles))
	copy(out, roles)
	return out
}

// dedupeRoles removes repeated role identifiers while preserving first-seen
// order, so a duplicated --role flag does not produce a duplicate step.
func dedupeRoles(roles []string) []string {
	seen := make(map[string]struct{}, len(roles))
	out := make([]string, 0, len(roles))
	for _, role := range roles {
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		out = append(out, role)
	}
	return out
}

// invalidInputError converts validator failures into a single invalid-input
// error naming every offending flag.
func invalidInputError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.ErrInvalidInput("request validation failed", err)
	}

	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, describeFieldError(fe))
	}
	return apperrors.ErrInvalidInput(strings.Join(problems, "; "), err)
}

func describeFieldError(fe validator.FieldError) string {
	name := flagNames[fe.Field()]
	if name == "" {
		name = fe.Field()
	}

	switch fe.Tag() {
	case "required", "min":
		return name + " is required"
	case "email":
		return name + " must be a valid email address"
	case "fqdn":
		return name + " must be a fully qualified domain name"
	default:
		return fmt.Sprintf("%s is invalid (%s)", name, fe.Tag())
	}
}
