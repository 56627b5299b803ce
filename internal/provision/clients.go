package provision

import "context"

// ServiceAccountClient abstracts service-account lifecycle operations at the
// identity provider.
type ServiceAccountClient interface {
	// DescribeServiceAccount reports whether the account named in the
	// request already exists, and its identifier when it does.
	DescribeServiceAccount(ctx context.Context, req *Request) (found bool, id string, err error)
	// CreateServiceAccount provisions the account and returns its
	// identifier.
	CreateServiceAccount(ctx context.Context, req *Request) (id string, err error)
}

// PolicyClient abstracts policy-binding operations at the identity provider.
type PolicyClient interface {
	// BindRole attaches roleID to the service account. Binding is
	// idempotent at the provider; rebinding an already-bound role succeeds
	// without change.
	BindRole(ctx context.Context, req *Request, serviceAccountID, roleID string) error
}

// DeploymentClient abstracts the managed-compute deployment target.
type DeploymentClient interface {
	// DescribeService reports whether the bridge service is already
	// deployed.
	DescribeService(ctx context.Context, req *Request) (found bool, err error)
	// DeployService runs the bridge image under the service account with
	// unauthenticated access allowed, blocking until the deployment
	// reports ready or fails.
	DeployService(ctx context.Context, req *Request, serviceAccountID string) error
	// ServiceEndpoint returns the public URL of the deployed service.
	// An empty URL with nil error means the service exists but its
	// endpoint has not propagated yet.
	ServiceEndpoint(ctx context.Context, req *Request) (string, error)
}

// Clients bundles the collaborators one provisioning run needs. Production
// code wires provider SDK implementations; tests inject fakes.
type Clients struct {
	ServiceAccounts ServiceAccountClient
	Policies        PolicyClient
	Deployments     DeploymentClient
}
