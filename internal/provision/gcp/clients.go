package gcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	resourcemanager "cloud.google.com/go/resourcemanager/apiv3"
	"cloud.google.com/go/resourcemanager/apiv3/resourcemanagerpb"
	"google.golang.org/api/cloudresourcemanager/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iam/v1"
	"google.golang.org/api/run/v2"
	"google.golang.org/api/serviceusage/v1"

	"github.com/bridgectl/bridgectl/internal/constants"
)

// newDefaultServiceClients builds concrete service clients backed by the
// Google Cloud APIs.
func newDefaultServiceClients(ctx context.Context, region string) (*ServiceClients, error) {
	iamSvc, err := iam.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("create iam service: %w", err)
	}

	runSvc, err := run.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("create run service: %w", err)
	}

	rmSvc, err := cloudresourcemanager.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("create resource manager service: %w", err)
	}

	serviceUsageSvc, err := serviceusage.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("create service usage service: %w", err)
	}

	projectsClient, err := resourcemanager.NewProjectsClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create projects client: %w", err)
	}

	return &ServiceClients{
		Projects: &defaultProjectsClient{client: projectsClient},
		IAM: &defaultIAMClient{
			iamService:      iamSvc,
			resourceManager: rmSvc,
		},
		CloudRun: &defaultCloudRunClient{
			service: runSvc,
			region:  region,
		},
		ServiceUsage: &defaultServiceUsageClient{
			service: serviceUsageSvc,
		},
	}, nil
}

type defaultProjectsClient struct {
	client *resourcemanager.ProjectsClient
}

func (c *defaultProjectsClient) GetProject(ctx context.Context, projectID string) (*resourcemanagerpb.Project, error) {
	project, err := c.client.GetProject(ctx, &resourcemanagerpb.GetProjectRequest{Name: "projects/" + projectID})
	if err != nil {
		return nil, err
	}
	return project, nil
}

type defaultIAMClient struct {
	iamService      *iam.Service
	resourceManager *cloudresourcemanager.Service
}

func (c *defaultIAMClient) ServiceAccountExists(ctx context.Context, projectID, accountEmail string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.ServiceAccountTimeout)
	defer cancel()

	name := fmt.Sprintf("projects/%s/serviceAccounts/%s", projectID, accountEmail)
	_, err := c.iamService.Projects.ServiceAccounts.Get(name).Context(ctx).Do()
	if isNotFound(err) {
		return false, nil
	}
	return err == nil, wrapError("get service account", err)
}

func (c *defaultIAMClient) CreateServiceAccount(
	ctx context.Context,
	projectID, accountID, displayName string,
) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.ServiceAccountTimeout)
	defer cancel()

	req := &iam.CreateServiceAccountRequest{
		AccountId: accountID,
		ServiceAccount: &iam.ServiceAccount{
			DisplayName: displayName,
		},
	}

	sa, err := c.iamService.Projects.ServiceAccounts.Create("projects/"+projectID, req).
		Context(ctx).
		Do()
	if err != nil {
		return "", wrapError("create service account", err)
	}
	return sa.Email, nil
}

func (c *defaultIAMClient) AddIAMBinding(ctx context.Context, projectID, member, role string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.IAMBindingTimeout)
	defer cancel()

	resource := "projects/" + projectID
	policy, err := c.resourceManager.Projects.GetIamPolicy(resource, &cloudresourcemanager.GetIamPolicyRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return wrapError("get project iam policy", err)
	}

	if crmBindingExists(policy.Bindings, role, member) {
		return nil
	}
	policy.Bindings = append(policy.Bindings, &cloudresourcemanager.Binding{
		Role:    role,
		Members: []string{member},
	})

	_, err = c.resourceManager.Projects.SetIamPolicy(
		resource,
		&cloudresourcemanager.SetIamPolicyRequest{Policy: policy},
	).Context(ctx).Do()
	return wrapError("set project iam policy", err)
}

type defaultCloudRunClient struct {
	service *run.Service
	region  string
}

func (c *defaultCloudRunClient) serviceName(projectID, service string) string {
	return fmt.Sprintf("projects/%s/locations/%s/services/%s", projectID, c.region, service)
}

func (c *defaultCloudRunClient) parent(projectID string) string {
	return fmt.Sprintf("projects/%s/locations/%s", projectID, c.region)
}

func (c *defaultCloudRunClient) GetService(
	ctx context.Context,
	projectID, serviceName string,
) (exists bool, url string, err error) {
	svc, err := c.service.Projects.Locations.Services.Get(c.serviceName(projectID, serviceName)).
		Context(ctx).
		Do()
	if isNotFound(err) {
		return false, "", nil
	}
	if err != nil {
		return false, "", wrapError("get cloud run service", err)
	}
	return true, svc.Uri, nil
}

func (c *defaultCloudRunClient) CreateService(
	ctx context.Context,
	projectID, serviceName, image, serviceAccount string,
) (string, error) {
	runService := &run.GoogleCloudRunV2Service{
		Name: c.serviceName(projectID, serviceName),
		Template: &run.GoogleCloudRunV2RevisionTemplate{
			Containers: []*run.GoogleCloudRunV2Container{
				{Image: image},
			},
			ServiceAccount: serviceAccount,
		},
	}

	op, err := c.service.Projects.Locations.Services.Create(
		c.parent(projectID),
		runService,
	).ServiceId(serviceName).Context(ctx).Do()
	if err != nil {
		return "", wrapError("create cloud run service", err)
	}

	if waitErr := c.waitForRunOperation(ctx, op.Name); waitErr != nil {
		return "", wrapError("wait for cloud run creation", waitErr)
	}

	created, err := c.service.Projects.Locations.Services.Get(c.serviceName(projectID, serviceName)).
		Context(ctx).
		Do()
	if err != nil {
		return "", wrapError("get cloud run service uri", err)
	}
	return created.Uri, nil
}

func (c *defaultCloudRunClient) AllowUnauthenticated(ctx context.Context, projectID, serviceName string) error {
	resource := c.serviceName(projectID, serviceName)
	policy, err := c.service.Projects.Locations.Services.GetIamPolicy(resource).
		Context(ctx).
		Do()
	if err != nil {
		return wrapError("get cloud run iam policy", err)
	}

	const invokerRole = "roles/run.invoker"
	const member = "allUsers"

	if runBindingExists(policy.Bindings, invokerRole, member) {
		return nil
	}
	policy.Bindings = append(policy.Bindings, &run.GoogleIamV1Binding{
		Role:    invokerRole,
		Members: []string{member},
	})

	_, err = c.service.Projects.Locations.Services.SetIamPolicy(
		resource,
		&run.GoogleIamV1SetIamPolicyRequest{Policy: policy},
	).Context(ctx).Do()
	return wrapError("set cloud run iam policy", err)
}

func (c *defaultCloudRunClient) waitForRunOperation(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DeployTimeout)
	defer cancel()

	for {
		op, err := c.service.Projects.Locations.Operations.Get(name).Context(ctx).Do()
		if err != nil {
			return wrapError("poll cloud run operation", err)
		}
		if op.Done {
			if op.Error != nil {
				return fmt.Errorf("operation error: %s", op.Error.Message)
			}
			return nil
		}
		time.Sleep(constants.ResourcePollInterval)
	}
}

type defaultServiceUsageClient struct {
	service *serviceusage.Service
}

func (c *defaultServiceUsageClient) EnableServices(ctx context.Context, projectID string, services []string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.ServiceUsageOperationTimeout)
	defer cancel()

	parent := "projects/" + projectID
	req := &serviceusage.BatchEnableServicesRequest{
		ServiceIds: services,
	}

	op, err := c.service.Services.BatchEnable(parent, req).Context(ctx).Do()
	if err != nil {
		return wrapError("batch enable services", err)
	}

	if op.Done {
		if op.Error != nil {
			return fmt.Errorf("batch enable services: %s", op.Error.Message)
		}
		return nil
	}

	return wrapError("wait for service enablement", c.waitForOperation(ctx, op.Name))
}

func (c *defaultServiceUsageClient) waitForOperation(ctx context.Context, name string) error {
	for {
		op, err := c.service.Operations.Get(name).Context(ctx).Do()
		if err != nil {
			return wrapError("poll service usage operation", err)
		}
		if op.Done {
			if op.Error != nil {
				return fmt.Errorf("operation error: %s", op.Error.Message)
			}
			return nil
		}
		time.Sleep(constants.ResourcePollInterval)
	}
}

func wrapError(action string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", action, err)
}

func crmBindingExists(bindings []*cloudresourcemanager.Binding, role, member string) bool {
	for _, b := range bindings {
		if b.Role == role && slices.Contains(b.Members, member) {
			return true
		}
	}
	return false
}

func runBindingExists(bindings []*run.GoogleIamV1Binding, role, member string) bool {
	for _, b := range bindings {
		if b.Role == role && slices.Contains(b.Members, member) {
			return true
		}
	}
	return false
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusNotFound
	}
	return false
}

// isConflict reports whether err is the HTTP 409 Google returns when a
// policy write lost a concurrent-modification race on its etag.
func isConflict(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusConflict
	}
	return false
}
