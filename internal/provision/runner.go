package provision

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bridgectl/bridgectl/internal/constants"
	apperrors "github.com/bridgectl/bridgectl/internal/errors"
	"github.com/bridgectl/bridgectl/internal/logger"
	"github.com/bridgectl/bridgectl/internal/output"
)

// Pipeline step names, used for error attribution and progress reporting.
const (
	StepEnsureServiceAccount = "ensure-service-account"
	StepBindRole             = "bind-role"
	StepDeployService        = "deploy-service"
	StepDiscoverEndpoint     = "discover-endpoint"
)

// Runner executes the provisioning steps in a fixed order: the service
// account must exist before roles are bound, roles must be bound before the
// service deploys under that identity, and the deployment must complete
// before its endpoint can be discovered. Each step checks current cloud
// state before mutating it, so re-running against partially provisioned
// infrastructure is the designed recovery path after any failure.
type Runner struct {
	req     *Request
	clients Clients
	state   *State

	retryAttempts  int
	retryBaseDelay time.Duration
}

// NewRunner creates a Runner for the given resolved request.
func NewRunner(req *Request, clients Clients) *Runner {
	return &Runner{
		req:            req,
		clients:        clients,
		state:          NewState(),
		retryAttempts:  constants.EndpointRetryAttempts,
		retryBaseDelay: constants.EndpointRetryBaseDelay,
	}
}

// NewRunnerWithRetry creates a Runner with custom endpoint discovery retry
// behavior. Used in tests to avoid real backoff delays.
func NewRunnerWithRetry(req *Request, clients Clients, attempts int, baseDelay time.Duration) *Runner {
	r := NewRunner(req, clients)
	r.retryAttempts = attempts
	r.retryBaseDelay = baseDelay
	return r
}

// State returns the resource state accumulated so far. After a failed run it
// reflects exactly the steps that completed.
func (r *Runner) State() *State {
	return r.state
}

type pipelineStep struct {
	name  string
	title string
	run   func(ctx context.Context) error
}

// Run executes the pipeline. The first failing step aborts the remainder; no
// rollback is attempted because every completed mutation is safe to leave in
// place and cheap to re-converge on the next run. Cancellation is honored
// between steps only: a step already in flight runs to completion or
// provider-side timeout, since a half-applied cloud mutation cannot be
// rolled back from here.
func (r *Runner) Run(ctx context.Context) (*State, error) {
	slog.Debug("starting provisioning pipeline",
		append([]any{
			"provider", r.req.Provider,
			"project", r.req.ProjectID,
			"region", r.req.Region,
		}, logger.GetDeadlineInfo(ctx)...)...)

	steps := r.buildSteps()
	total := len(steps)

	for i, s := range steps {
		if err := ctx.Err(); err != nil {
			return r.state, apperrors.ErrCanceled(s.name, err)
		}

		output.Step(i+1, total, s.title)
		if err := s.run(ctx); err != nil {
			output.StepError(i+1, total, s.title)
			return r.state, err
		}
		output.StepSuccess(i+1, total, s.title)
	}

	return r.state, nil
}

func (r *Runner) buildSteps() []pipelineStep {
	steps := []pipelineStep{
		{
			name:  StepEnsureServiceAccount,
			title: fmt.Sprintf("Ensuring service account %s", r.req.ServiceAccountName),
			run:   r.ensureServiceAccount,
		},
	}

	for _, role := range r.req.Roles {
		role := role
		steps = append(steps, pipelineStep{
			name:  StepBindRole,
			title: fmt.Sprintf("Binding role %s", role),
			run: func(ctx context.Context) error {
				return r.bindRole(ctx, role)
			},
		})
	}

	steps = append(steps,
		pipelineStep{
			name:  StepDeployService,
			title: fmt.Sprintf("Deploying %s to %s", r.req.ServiceName, r.req.Region),
			run:   r.deployService,
		},
		pipelineStep{
			name:  StepDiscoverEndpoint,
			title: "Discovering service endpoint",
			run:   r.discoverEndpoint,
		},
	)

	return steps
}

// ensureServiceAccount looks the account up first and only creates it when
// absent. A pre-existing account is recorded and reported as satisfied, not
// as an error.
func (r *Runner) ensureServiceAccount(ctx context.Context) error {
	found, id, err := r.clients.ServiceAccounts.DescribeServiceAccount(ctx, r.req)
	if err != nil {
		return apperrors.ErrAccountCreation("failed to look up service account", err).
			WithStep(StepEnsureServiceAccount)
	}

	if found {
		slog.Debug("service account already exists", "service_account", id)
		r.state.RecordServiceAccount(id)
		return nil
	}

	id, err = r.clients.ServiceAccounts.CreateServiceAccount(ctx, r.req)
	if err != nil {
		return apperrors.ErrAccountCreation("provider rejected service account creation", err).
			WithStep(StepEnsureServiceAccount)
	}

	slog.Debug("service account created", "service_account", id)
	r.state.RecordServiceAccount(id)
	return nil
}

// bindRole attaches a single role to the provisioned service account.
// Binding is idempotent at the provider, so no local existence check is
// needed; a rejection is fatal because it signals missing permissions only
// an operator can grant.
func (r *Runner) bindRole(ctx context.Context, roleID string) error {
	err := r.clients.Policies.BindRole(ctx, r.req, r.state.ServiceAccountID(), roleID)
	if err != nil {
		return apperrors.ErrRoleBinding(fmt.Sprintf("failed to bind role %s", roleID), err).
			WithStep(StepBindRole)
	}

	r.state.GrantRole(roleID)
	return nil
}

// deployService deploys the bridge image unless a deployment already exists.
// A failed deployment is fatal without retry: redeploying over a half-applied
// revision risks duplicated resources, so the operator must inspect the
// deployment logs first.
func (r *Runner) deployService(ctx context.Context) error {
	found, err := r.clients.Deployments.DescribeService(ctx, r.req)
	if err != nil {
		return apperrors.ErrDeployment("failed to look up existing deployment", err).
			WithStep(StepDeployService)
	}

	if found {
		slog.Debug("service already deployed", "service", r.req.ServiceName)
		return nil
	}

	if err := r.clients.Deployments.DeployService(ctx, r.req, r.state.ServiceAccountID()); err != nil {
		return apperrors.ErrDeployment("provider rejected deployment", err).
			WithStep(StepDeployService)
	}

	return nil
}

// discoverEndpoint polls the deployment target for the service's public URL.
// A missing endpoint right after deployment is expected propagation delay, so
// discovery retries with exponential backoff up to the attempt ceiling before
// surfacing the failure.
func (r *Runner) discoverEndpoint(ctx context.Context) error {
	var lastErr error

	for attempt := 1; attempt <= r.retryAttempts; attempt++ {
		if attempt > 1 {
			delay := r.backoffDelay(attempt)
			output.Warningf("Endpoint not ready (attempt %d/%d), retrying in %s", attempt-1, r.retryAttempts, delay)
			select {
			case <-ctx.Done():
				return apperrors.ErrCanceled(StepDiscoverEndpoint, ctx.Err())
			case <-time.After(delay):
			}
		}

		url, err := r.clients.Deployments.ServiceEndpoint(ctx, r.req)
		if err != nil {
			lastErr = err
			continue
		}
		if url == "" {
			lastErr = fmt.Errorf("service %s has no routable endpoint yet", r.req.ServiceName)
			continue
		}

		slog.Debug("endpoint discovered", "url", url, "attempt", attempt)
		r.state.RecordEndpoint(url)
		return nil
	}

	return apperrors.ErrEndpointUnavailable(
		fmt.Sprintf("no ready endpoint after %d attempts", r.retryAttempts),
		lastErr,
	).WithStep(StepDiscoverEndpoint)
}

// backoffDelay doubles the base delay for each attempt past the second.
func (r *Runner) backoffDelay(attempt int) time.Duration {
	return r.retryBaseDelay * time.Duration(1<<(attempt-2))
}
