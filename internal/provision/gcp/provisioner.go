// Package gcp provisions the SCIM bridge on Google Cloud: a service account
// in IAM, project role bindings through Resource Manager, and the bridge
// container as a publicly reachable Cloud Run service.
package gcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/resourcemanager/apiv3/resourcemanagerpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bridgectl/bridgectl/internal/constants"
	"github.com/bridgectl/bridgectl/internal/provision"
)

// ProjectsClient abstracts project lookups at Resource Manager.
type ProjectsClient interface {
	GetProject(ctx context.Context, projectID string) (*resourcemanagerpb.Project, error)
}

// IAMClient abstracts service account and project policy operations.
type IAMClient interface {
	ServiceAccountExists(ctx context.Context, projectID, accountEmail string) (bool, error)
	CreateServiceAccount(ctx context.Context, projectID, accountID, displayName string) (string, error)
	AddIAMBinding(ctx context.Context, projectID, member, role string) error
}

// CloudRunClient abstracts Cloud Run service management.
type CloudRunClient interface {
	GetService(ctx context.Context, projectID, serviceName string) (exists bool, url string, err error)
	CreateService(ctx context.Context, projectID, serviceName, image, serviceAccount string) (string, error)
	AllowUnauthenticated(ctx context.Context, projectID, serviceName string) error
}

// ServiceUsageClient abstracts the Service Usage API.
type ServiceUsageClient interface {
	EnableServices(ctx context.Context, projectID string, services []string) error
}

// ServiceClients holds the Google Cloud API clients one provisioning run
// needs. Production code wires the live API clients; tests inject fakes.
type ServiceClients struct {
	Projects     ProjectsClient
	IAM          IAMClient
	CloudRun     CloudRunClient
	ServiceUsage ServiceUsageClient
}

// Provisioner implements the provisioning collaborators against Google
// Cloud.
type Provisioner struct {
	clients *ServiceClients

	policyRetryAttempts  int
	policyRetryBaseDelay time.Duration
}

var (
	_ provision.ServiceAccountClient = (*Provisioner)(nil)
	_ provision.PolicyClient         = (*Provisioner)(nil)
	_ provision.DeploymentClient     = (*Provisioner)(nil)
)

// New creates a Provisioner backed by the live Google Cloud APIs for the
// given region.
func New(ctx context.Context, region string) (*Provisioner, error) {
	if region == "" {
		region = constants.DefaultGCPRegion
	}

	clients, err := newDefaultServiceClients(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCP service clients: %w", err)
	}
	return NewWithClients(clients), nil
}

// NewWithClients creates a Provisioner with custom service clients.
func NewWithClients(clients *ServiceClients) *Provisioner {
	return &Provisioner{
		clients:              clients,
		policyRetryAttempts:  constants.PolicyRetryAttempts,
		policyRetryBaseDelay: constants.PolicyRetryBaseDelay,
	}
}

// DescribeServiceAccount reports whether the bridge's service account
// exists. The identifier is the account email, which GCP derives
// deterministically from the account name and project, so it is returned
// whether or not the account exists yet.
func (p *Provisioner) DescribeServiceAccount(ctx context.Context, req *provision.Request) (bool, string, error) {
	email := serviceAccountEmail(req.ServiceAccountName, req.ProjectID)
	exists, err := p.clients.IAM.ServiceAccountExists(ctx, req.ProjectID, email)
	if err != nil {
		return false, "", err
	}
	return exists, email, nil
}

// CreateServiceAccount creates the bridge's service account and returns its
// email.
func (p *Provisioner) CreateServiceAccount(ctx context.Context, req *provision.Request) (string, error) {
	return p.clients.IAM.CreateServiceAccount(
		ctx,
		req.ProjectID,
		req.ServiceAccountName,
		constants.ServiceAccountDisplayName,
	)
}

// BindRole grants roleID to the service account on the target project. The
// policy read-modify-write cycle loses its etag race when another actor
// modifies the policy concurrently, so aborted writes are retried a bounded
// number of times before the failure is surfaced.
func (p *Provisioner) BindRole(ctx context.Context, req *provision.Request, serviceAccountID, roleID string) error {
	member := "serviceAccount:" + serviceAccountID

	var lastErr error
	for attempt := 1; attempt <= p.policyRetryAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.policyBackoffDelay(attempt)):
			}
		}

		lastErr = p.clients.IAM.AddIAMBinding(ctx, req.ProjectID, member, roleID)
		if lastErr == nil {
			return nil
		}
		if !isConflict(lastErr) {
			return lastErr
		}
	}
	return fmt.Errorf("project policy changed concurrently on every attempt: %w", lastErr)
}

func (p *Provisioner) policyBackoffDelay(attempt int) time.Duration {
	return p.policyRetryBaseDelay * time.Duration(1<<(attempt-2))
}

// DescribeService reports whether the bridge service is already deployed.
func (p *Provisioner) DescribeService(ctx context.Context, req *provision.Request) (bool, error) {
	exists, _, err := p.clients.CloudRun.GetService(ctx, req.ProjectID, req.ServiceName)
	return exists, err
}

// DeployService deploys the bridge image as a Cloud Run service running as
// serviceAccountID, then opens it to unauthenticated callers. The bridge
// must be reachable by the identity provider and by 1Password's servers,
// neither of which can present Cloud Run credentials.
func (p *Provisioner) DeployService(ctx context.Context, req *provision.Request, serviceAccountID string) error {
	_, err := p.clients.CloudRun.CreateService(ctx, req.ProjectID, req.ServiceName, req.Image, serviceAccountID)
	if err != nil {
		return err
	}
	return p.clients.CloudRun.AllowUnauthenticated(ctx, req.ProjectID, req.ServiceName)
}

// ServiceEndpoint returns the service's public URL, or an empty string
// while Cloud Run has not propagated the URL yet.
func (p *Provisioner) ServiceEndpoint(ctx context.Context, req *provision.Request) (string, error) {
	exists, url, err := p.clients.CloudRun.GetService(ctx, req.ProjectID, req.ServiceName)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", nil
	}
	return url, nil
}

// CheckProject verifies the target project exists and is visible to the
// caller's credentials. GCP reports projects hidden by IAM as permission
// errors whose message says the project may not exist; those read as absent
// here, same as a plain not-found.
func (p *Provisioner) CheckProject(ctx context.Context, projectID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.ProjectLookupTimeout)
	defer cancel()

	_, err := p.clients.Projects.GetProject(ctx, projectID)
	if err != nil {
		switch status.Code(err) {
		case codes.NotFound:
			return false, nil
		case codes.PermissionDenied:
			if strings.Contains(err.Error(), "or it may not exist") {
				return false, nil
			}
		}

		return false, fmt.Errorf("failed to get project: %w", err)
	}

	return true, nil
}

// EnableServices enables the Google Cloud APIs the bridge deployment
// depends on.
func (p *Provisioner) EnableServices(ctx context.Context, req *provision.Request) error {
	return p.clients.ServiceUsage.EnableServices(ctx, req.ProjectID, constants.RequiredGCPServices)
}

// serviceAccountEmail builds the full email GCP assigns to a project-scoped
// service account.
func serviceAccountEmail(accountID, projectID string) string {
	return fmt.Sprintf("%s@%s.iam.gserviceaccount.com", accountID, projectID)
}
