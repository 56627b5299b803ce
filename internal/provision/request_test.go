package provision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bridgectl/bridgectl/internal/constants"
	apperrors "github.com/bridgectl/bridgectl/internal/errors"
)

func TestResolve_AppliesDefaults(t *testing.T) {
	req, err := Resolve(Request{
		ProjectID:  "acme-prod",
		Domain:     "acme.com",
		AdminEmail: "admin@acme.com",
	})
	require.NoError(t, err)

	assert.Equal(t, constants.GCP, req.Provider)
	assert.Equal(t, constants.DefaultGCPRegion, req.Region)
	assert.Equal(t, constants.DefaultServiceAccountName, req.ServiceAccountName)
	assert.Equal(t, constants.DefaultServiceName, req.ServiceName)
	assert.Equal(t, constants.DefaultBridgeImage, req.Image)
	assert.Equal(t, constants.DefaultGCPRoles, req.Roles)
}

func TestResolve_AWSDefaults(t *testing.T) {
	req, err := Resolve(Request{
		ProjectID:  "123456789012",
		Domain:     "acme.com",
		AdminEmail: "admin@acme.com",
		Provider:   constants.AWS,
	})
	require.NoError(t, err)

	assert.Equal(t, constants.DefaultAWSRegion, req.Region)
	assert.Equal(t, constants.DefaultAWSRoles, req.Roles)
}

func TestResolve_ExplicitValuesPreserved(t *testing.T) {
	req, err := Resolve(Request{
		ProjectID:          "acme-prod",
		Region:             "europe-west1",
		ServiceAccountName: "custom-sa",
		ServiceName:        "custom-bridge",
		Image:              "1password/scim-bridge:v2.9.5",
		Domain:             "acme.com",
		AdminEmail:         "admin@acme.com",
		Roles:              []string{"roles/run.invoker"},
	})
	require.NoError(t, err)

	assert.Equal(t, "europe-west1", req.Region)
	assert.Equal(t, "custom-sa", req.ServiceAccountName)
	assert.Equal(t, "custom-bridge", req.ServiceName)
	assert.Equal(t, "1password/scim-bridge:v2.9.5", req.Image)
	assert.Equal(t, []string{"roles/run.invoker"}, req.Roles)
}

func TestResolve_MissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantMsg string
	}{
		{
			name: "missing project",
			req: Request{
				Domain:     "acme.com",
				AdminEmail: "admin@acme.com",
			},
			wantMsg: "--project is required",
		},
		{
			name: "missing domain",
			req: Request{
				ProjectID:  "acme-prod",
				AdminEmail: "admin@acme.com",
			},
			wantMsg: "--domain is required",
		},
		{
			name: "missing admin email",
			req: Request{
				ProjectID: "acme-prod",
				Domain:    "acme.com",
			},
			wantMsg: "--admin-email is required",
		},
		{
			name:    "missing everything",
			req:     Request{},
			wantMsg: "--project is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, err := Resolve(tt.req)
			require.Error(t, err)
			assert.Nil(t, resolved)
			assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetErrorCode(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestResolve_InvalidAdminEmail(t *testing.T) {
	_, err := Resolve(Request{
		ProjectID:  "acme-prod",
		Domain:     "acme.com",
		AdminEmail: "not-an-email",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetErrorCode(err))
	assert.Contains(t, err.Error(), "--admin-email must be a valid email address")
}

func TestResolve_InvalidDomain(t *testing.T) {
	_, err := Resolve(Request{
		ProjectID:  "acme-prod",
		Domain:     "not a domain",
		AdminEmail: "admin@acme.com",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetErrorCode(err))
	assert.Contains(t, err.Error(), "--domain must be a fully qualified domain name")
}

func TestResolve_UnsupportedProvider(t *testing.T) {
	_, err := Resolve(Request{
		ProjectID:  "acme-prod",
		Domain:     "acme.com",
		AdminEmail: "admin@acme.com",
		Provider:   "azure",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetErrorCode(err))
	assert.Contains(t, err.Error(), "unsupported provider")
}

func TestResolve_DeduplicatesRoles(t *testing.T) {
	req, err := Resolve(Request{
		ProjectID:  "acme-prod",
		Domain:     "acme.com",
		AdminEmail: "admin@acme.com",
		Roles: []string{
			"roles/storage.admin",
			"roles/iam.serviceAccountUser",
			"roles/storage.admin",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"roles/storage.admin", "roles/iam.serviceAccountUser"}, req.Roles)
}

func TestResolve_DefaultRolesAreCopied(t *testing.T) {
	req, err := Resolve(Request{
		ProjectID:  "acme-prod",
		Domain:     "acme.com",
		AdminEmail: "admin@acme.com",
	})
	require.NoError(t, err)

	req.Roles[0] = "roles/owner"
	assert.Equal(t, "roles/iam.serviceAccountUser", constants.DefaultGCPRoles[0])
}
