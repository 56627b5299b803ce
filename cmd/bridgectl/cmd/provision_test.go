package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bridgectl/bridgectl/internal/config"
	"github.com/bridgectl/bridgectl/internal/constants"
	apperrors "github.com/bridgectl/bridgectl/internal/errors"
	"github.com/bridgectl/bridgectl/internal/output"
	"github.com/bridgectl/bridgectl/internal/provision"
	"github.com/bridgectl/bridgectl/internal/testutil"
)

// mockServiceAccountClient is a manual mock for testing
type mockServiceAccountClient struct {
	describeFunc  func(ctx context.Context, req *provision.Request) (bool, string, error)
	createFunc    func(ctx context.Context, req *provision.Request) (string, error)
	describeCalls int
	createCalls   int
}

func (m *mockServiceAccountClient) DescribeServiceAccount(
	ctx context.Context, req *provision.Request,
) (bool, string, error) {
	m.describeCalls++
	if m.describeFunc != nil {
		return m.describeFunc(ctx, req)
	}
	return false, "", errors.New("not implemented")
}

func (m *mockServiceAccountClient) CreateServiceAccount(ctx context.Context, req *provision.Request) (string, error) {
	m.createCalls++
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	return "", errors.New("not implemented")
}

// mockPolicyClient is a manual mock for testing
type mockPolicyClient struct {
	bindFunc  func(ctx context.Context, req *provision.Request, serviceAccountID, roleID string) error
	bindCalls int
}

func (m *mockPolicyClient) BindRole(
	ctx context.Context, req *provision.Request, serviceAccountID, roleID string,
) error {
	m.bindCalls++
	if m.bindFunc != nil {
		return m.bindFunc(ctx, req, serviceAccountID, roleID)
	}
	return errors.New("not implemented")
}

// mockDeploymentClient is a manual mock for testing
type mockDeploymentClient struct {
	describeFunc  func(ctx context.Context, req *provision.Request) (bool, error)
	deployFunc    func(ctx context.Context, req *provision.Request, serviceAccountID string) error
	endpointFunc  func(ctx context.Context, req *provision.Request) (string, error)
	describeCalls int
	deployCalls   int
	endpointCalls int
}

func (m *mockDeploymentClient) DescribeService(ctx context.Context, req *provision.Request) (bool, error) {
	m.describeCalls++
	if m.describeFunc != nil {
		return m.describeFunc(ctx, req)
	}
	return false, errors.New("not implemented")
}

func (m *mockDeploymentClient) DeployService(ctx context.Context, req *provision.Request, serviceAccountID string) error {
	m.deployCalls++
	if m.deployFunc != nil {
		return m.deployFunc(ctx, req, serviceAccountID)
	}
	return errors.New("not implemented")
}

func (m *mockDeploymentClient) ServiceEndpoint(ctx context.Context, req *provision.Request) (string, error) {
	m.endpointCalls++
	if m.endpointFunc != nil {
		return m.endpointFunc(ctx, req)
	}
	return "", errors.New("not implemented")
}

// mockOutputInterface is a manual mock for testing
type mockOutputInterface struct {
	calls []call
}

type call struct {
	method string
	args   []any
}

func (m *mockOutputInterface) Infof(format string, a ...any) {
	m.calls = append(m.calls, call{method: "Infof", args: []any{format, a}})
}
func (m *mockOutputInterface) Errorf(format string, a ...any) {
	m.calls = append(m.calls, call{method: "Errorf", args: []any{format, a}})
}
func (m *mockOutputInterface) Successf(format string, a ...any) {
	m.calls = append(m.calls, call{method: "Successf", args: []any{format, a}})
}
func (m *mockOutputInterface) Warningf(format string, a ...any) {
	m.calls = append(m.calls, call{method: "Warningf", args: []any{format, a}})
}
func (m *mockOutputInterface) Blank() {
	m.calls = append(m.calls, call{method: "Blank", args: []any{}})
}
func (m *mockOutputInterface) Bold(text string) string {
	return text
}
func (m *mockOutputInterface) KeyValue(key, value string) {
	m.calls = append(m.calls, call{method: "KeyValue", args: []any{key, value}})
}
func (m *mockOutputInterface) Println(a ...any) {
	m.calls = append(m.calls, call{method: "Println", args: a})
}
func (m *mockOutputInterface) Subheader(text string) {
	m.calls = append(m.calls, call{method: "Subheader", args: []any{text}})
}
func (m *mockOutputInterface) List(items []string) {
	m.calls = append(m.calls, call{method: "List", args: []any{items}})
}
func (m *mockOutputInterface) Prompt(prompt string) string {
	m.calls = append(m.calls, call{method: "Prompt", args: []any{prompt}})
	// Return empty string by default - tests can override by checking calls
	return ""
}

const (
	testBridgeURL = "https://scim-bridge-abc123-uc.a.run.app"
	testAccountID = "scim-bridge-sa@acme-prod.iam.gserviceaccount.com"
)

// silenceOutput redirects the pipeline's step progress away from the test's
// stderr.
func silenceOutput(t *testing.T) {
	t.Helper()
	oldStderr := output.Stderr
	output.Stderr = &bytes.Buffer{}
	t.Cleanup(func() { output.Stderr = oldStderr })
}

func resolvedRequest(t *testing.T) *provision.Request {
	t.Helper()
	req, err := provision.Resolve(provision.Request{
		ProjectID:  "acme-prod",
		Domain:     "acme.com",
		AdminEmail: "admin@acme.com",
	})
	require.NoError(t, err)
	return req
}

// happyPipelineClients returns mocks simulating an empty project where every
// provider call succeeds.
func happyPipelineClients() (*mockServiceAccountClient, *mockPolicyClient, *mockDeploymentClient) {
	sa := &mockServiceAccountClient{
		describeFunc: func(_ context.Context, _ *provision.Request) (bool, string, error) {
			return false, "", nil
		},
		createFunc: func(_ context.Context, _ *provision.Request) (string, error) {
			return testAccountID, nil
		},
	}
	policies := &mockPolicyClient{
		bindFunc: func(_ context.Context, _ *provision.Request, _, _ string) error {
			return nil
		},
	}
	deployments := &mockDeploymentClient{
		describeFunc: func(_ context.Context, _ *provision.Request) (bool, error) {
			return false, nil
		},
		deployFunc: func(_ context.Context, _ *provision.Request, _ string) error {
			return nil
		},
		endpointFunc: func(_ context.Context, _ *provision.Request) (string, error) {
			return testBridgeURL, nil
		},
	}
	return sa, policies, deployments
}

func TestProvisionService_Provision(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(*mockServiceAccountClient, *mockPolicyClient, *mockDeploymentClient)
		preflight  PreflightChecker
		wantErr    bool
		wantCode   string
		verify     func(t *testing.T, m *mockOutputInterface, sa *mockServiceAccountClient, artifactPath string)
	}{
		{
			name:    "deploys the bridge and writes the config artifact",
			wantErr: false,
			verify: func(t *testing.T, m *mockOutputInterface, _ *mockServiceAccountClient, artifactPath string) {
				var urlShown, accountShown, successShown bool
				for _, call := range m.calls {
					if call.method == "KeyValue" && len(call.args) >= 2 {
						if call.args[0] == "Bridge URL" && call.args[1] == testBridgeURL {
							urlShown = true
						}
						if call.args[0] == "Service account" && call.args[1] == testAccountID {
							accountShown = true
						}
					}
					if call.method == "Successf" {
						successShown = true
					}
				}
				assert.True(t, urlShown, "Expected KeyValue call with Bridge URL")
				assert.True(t, accountShown, "Expected KeyValue call with Service account")
				assert.True(t, successShown, "Expected a success message")

				data, err := os.ReadFile(artifactPath)
				require.NoError(t, err)
				expected := "bridge:\n" +
					"  bridge_url: " + testBridgeURL + "\n" +
					"google:\n" +
					"  admin_email: admin@acme.com\n" +
					"  domain: acme.com\n"
				assert.Equal(t, expected, string(data))
			},
		},
		{
			name: "prints the remaining manual steps",
			verify: func(t *testing.T, m *mockOutputInterface, _ *mockServiceAccountClient, _ string) {
				var headerShown, detailsShown bool
				for _, call := range m.calls {
					if call.method == "Subheader" && call.args[0] == "Manual steps remaining" {
						headerShown = true
					}
					if call.method == "List" {
						detailsShown = true
					}
				}
				assert.True(t, headerShown, "Expected the manual steps subheader")
				assert.True(t, detailsShown, "Expected at least one list of step details")
			},
		},
		{
			name: "deployment failure recommends re-running",
			setupMocks: func(_ *mockServiceAccountClient, _ *mockPolicyClient, d *mockDeploymentClient) {
				d.deployFunc = func(_ context.Context, _ *provision.Request, _ string) error {
					return errors.New("quota exhausted")
				}
			},
			wantErr:  true,
			wantCode: apperrors.ErrCodeDeployment,
			verify: func(t *testing.T, m *mockOutputInterface, _ *mockServiceAccountClient, artifactPath string) {
				var retryAdvice bool
				for _, call := range m.calls {
					if call.method == "Warningf" && len(call.args) >= 1 {
						if format, ok := call.args[0].(string); ok && strings.Contains(format, "Re-running") {
							retryAdvice = true
						}
					}
				}
				assert.True(t, retryAdvice, "Expected re-run advice after a pipeline failure")

				_, err := os.Stat(artifactPath)
				assert.True(t, os.IsNotExist(err), "No artifact should be written for a failed run")
			},
		},
		{
			name: "preflight failure stops before the pipeline runs",
			preflight: PreflightFunc(func(_ context.Context, _ *provision.Request) error {
				return apperrors.ErrInvalidInput("project \"acme-prod\" does not exist", nil)
			}),
			wantErr:  true,
			wantCode: apperrors.ErrCodeInvalidInput,
			verify: func(t *testing.T, _ *mockOutputInterface, sa *mockServiceAccountClient, artifactPath string) {
				assert.Zero(t, sa.describeCalls, "Pipeline should not start when preflight fails")
				_, err := os.Stat(artifactPath)
				assert.True(t, os.IsNotExist(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			silenceOutput(t)

			sa, policies, deployments := happyPipelineClients()
			if tt.setupMocks != nil {
				tt.setupMocks(sa, policies, deployments)
			}

			mockOutput := &mockOutputInterface{}
			clients := provision.Clients{
				ServiceAccounts: sa,
				Policies:        policies,
				Deployments:     deployments,
			}
			service := NewProvisionService(clients, tt.preflight, mockOutput)

			artifactPath := filepath.Join(t.TempDir(), constants.ArtifactFileName)
			err := service.Provision(testutil.TestContext(), resolvedRequest(t), artifactPath)

			if tt.wantErr {
				assert.Error(t, err)
				if tt.wantCode != "" {
					assert.Equal(t, tt.wantCode, apperrors.GetErrorCode(err))
				}
			} else {
				assert.NoError(t, err)
			}

			if tt.verify != nil {
				tt.verify(t, mockOutput, sa, artifactPath)
			}
		})
	}
}

func TestProvisionService_ArtifactWriteFailure(t *testing.T) {
	silenceOutput(t)

	sa, policies, deployments := happyPipelineClients()
	mockOutput := &mockOutputInterface{}
	service := NewProvisionService(provision.Clients{
		ServiceAccounts: sa,
		Policies:        policies,
		Deployments:     deployments,
	}, nil, mockOutput)

	// Parent directory does not exist, so the write must fail after a
	// successful pipeline run.
	artifactPath := filepath.Join(t.TempDir(), "missing", constants.ArtifactFileName)
	err := service.Provision(testutil.TestContext(), resolvedRequest(t), artifactPath)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write config artifact")

	for _, call := range mockOutput.calls {
		assert.NotEqual(t, "Successf", call.method, "Should not report success when the artifact write fails")
	}
}

func TestProvisionCommand_Flags(t *testing.T) {
	require.NotNil(t, provisionCmd)

	for _, name := range []string{
		"project", "domain", "admin-email", "provider", "region",
		"service-account", "service-name", "image", "role", "output", "skip-api-enable",
	} {
		flag := provisionCmd.Flags().Lookup(name)
		require.NotNil(t, flag, "%s flag should be defined on the provision command", name)
	}

	outputFlag := provisionCmd.Flags().Lookup("output")
	require.Equal(t, constants.ArtifactFileName, outputFlag.DefValue)
}

func resetProvisionFlags() {
	provisionProject = ""
	provisionDomain = ""
	provisionAdminEmail = ""
	provisionProvider = ""
	provisionRegion = ""
	provisionServiceAccount = ""
	provisionServiceName = ""
	provisionImage = ""
	provisionRoles = nil
	provisionOutputPath = constants.ArtifactFileName
	provisionSkipAPIEnable = false
}

func TestBuildProvisionRequest_FlagsOverrideConfig(t *testing.T) {
	t.Cleanup(resetProvisionFlags)

	provisionProject = "flag-project"
	provisionAdminEmail = "flag-admin@acme.com"
	provisionRoles = []string{"roles/custom.role"}

	cfg := &config.Config{
		ProjectID:  "cfg-project",
		Domain:     "cfg.example.com",
		AdminEmail: "cfg-admin@example.com",
		Provider:   constants.AWS,
		Region:     "eu-west-1",
	}

	req := buildProvisionRequest(cfg)

	assert.Equal(t, "flag-project", req.ProjectID)
	assert.Equal(t, "flag-admin@acme.com", req.AdminEmail)
	assert.Equal(t, "cfg.example.com", req.Domain, "config value should fill the unset flag")
	assert.Equal(t, constants.AWS, req.Provider)
	assert.Equal(t, "eu-west-1", req.Region)
	assert.Equal(t, []string{"roles/custom.role"}, req.Roles)
}

func TestBuildProvisionRequest_NormalizesProvider(t *testing.T) {
	t.Cleanup(resetProvisionFlags)

	provisionProvider = "  AWS "

	req := buildProvisionRequest(&config.Config{})

	assert.Equal(t, constants.AWS, req.Provider)
}
