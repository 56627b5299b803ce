// Package aws provisions the SCIM bridge on AWS: an execution role in IAM
// with the requested managed policies attached, and the bridge container as
// a Lambda function exposed through a public function URL.
package aws

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/bridgectl/bridgectl/internal/constants"
	"github.com/bridgectl/bridgectl/internal/provision"
)

// lambdaTrustPolicy lets the Lambda service assume the bridge's execution
// role.
const lambdaTrustPolicy = `{
  "Version": "2012-10-17",
  "Statement": [
    {
      "Effect": "Allow",
      "Principal": {"Service": "lambda.amazonaws.com"},
      "Action": "sts:AssumeRole"
    }
  ]
}`

// publicURLStatementID names the resource-policy statement that opens the
// function URL to unauthenticated callers.
const publicURLStatementID = "AllowPublicFunctionUrl"

// IAMClient defines the IAM operations the provisioner uses. The interface
// mirrors the SDK client so the real client satisfies it directly.
type IAMClient interface {
	GetRole(
		ctx context.Context,
		params *iam.GetRoleInput,
		optFns ...func(*iam.Options),
	) (*iam.GetRoleOutput, error)
	CreateRole(
		ctx context.Context,
		params *iam.CreateRoleInput,
		optFns ...func(*iam.Options),
	) (*iam.CreateRoleOutput, error)
	AttachRolePolicy(
		ctx context.Context,
		params *iam.AttachRolePolicyInput,
		optFns ...func(*iam.Options),
	) (*iam.AttachRolePolicyOutput, error)
}

// LambdaClient defines the Lambda operations the provisioner uses.
type LambdaClient interface {
	GetFunction(
		ctx context.Context,
		params *lambda.GetFunctionInput,
		optFns ...func(*lambda.Options),
	) (*lambda.GetFunctionOutput, error)
	CreateFunction(
		ctx context.Context,
		params *lambda.CreateFunctionInput,
		optFns ...func(*lambda.Options),
	) (*lambda.CreateFunctionOutput, error)
	CreateFunctionUrlConfig(
		ctx context.Context,
		params *lambda.CreateFunctionUrlConfigInput,
		optFns ...func(*lambda.Options),
	) (*lambda.CreateFunctionUrlConfigOutput, error)
	GetFunctionUrlConfig(
		ctx context.Context,
		params *lambda.GetFunctionUrlConfigInput,
		optFns ...func(*lambda.Options),
	) (*lambda.GetFunctionUrlConfigOutput, error)
	AddPermission(
		ctx context.Context,
		params *lambda.AddPermissionInput,
		optFns ...func(*lambda.Options),
	) (*lambda.AddPermissionOutput, error)
}

// STSClient defines the STS operations the provisioner uses.
type STSClient interface {
	GetCallerIdentity(
		ctx context.Context,
		params *sts.GetCallerIdentityInput,
		optFns ...func(*sts.Options),
	) (*sts.GetCallerIdentityOutput, error)
}

// Provisioner implements the provisioning collaborators against AWS.
type Provisioner struct {
	iam    IAMClient
	lambda LambdaClient
	sts    STSClient

	roleAssumeRetryAttempts int
	roleAssumeRetryDelay    time.Duration
	pollInterval            time.Duration
	deployTimeout           time.Duration
}

var (
	_ provision.ServiceAccountClient = (*Provisioner)(nil)
	_ provision.PolicyClient         = (*Provisioner)(nil)
	_ provision.DeploymentClient     = (*Provisioner)(nil)
)

// New creates a Provisioner backed by the live AWS APIs. If region is
// empty, the SDK default chain decides.
func New(ctx context.Context, region string) (*Provisioner, error) {
	var awsOpts []func(*awsconfig.LoadOptions) error
	if region != "" {
		awsOpts = append(awsOpts, awsconfig.WithRegion(region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return NewWithClients(
		iam.NewFromConfig(awsCfg),
		lambda.NewFromConfig(awsCfg),
		sts.NewFromConfig(awsCfg),
	), nil
}

// NewWithClients creates a Provisioner with custom clients.
func NewWithClients(iamClient IAMClient, lambdaClient LambdaClient, stsClient STSClient) *Provisioner {
	return &Provisioner{
		iam:                     iamClient,
		lambda:                  lambdaClient,
		sts:                     stsClient,
		roleAssumeRetryAttempts: constants.RoleAssumeRetryAttempts,
		roleAssumeRetryDelay:    constants.RoleAssumeRetryDelay,
		pollInterval:            constants.ResourcePollInterval,
		deployTimeout:           constants.DeployTimeout,
	}
}

// DescribeServiceAccount reports whether the bridge's execution role exists
// and returns its ARN when it does.
func (p *Provisioner) DescribeServiceAccount(ctx context.Context, req *provision.Request) (bool, string, error) {
	out, err := p.iam.GetRole(ctx, &iam.GetRoleInput{
		RoleName: aws.String(req.ServiceAccountName),
	})
	if err != nil {
		if isNotFound(err) {
			return false, "", nil
		}
		return false, "", fmt.Errorf("failed to get role: %w", err)
	}
	return true, aws.ToString(out.Role.Arn), nil
}

// CreateServiceAccount creates the bridge's execution role and returns its
// ARN.
func (p *Provisioner) CreateServiceAccount(ctx context.Context, req *provision.Request) (string, error) {
	out, err := p.iam.CreateRole(ctx, &iam.CreateRoleInput{
		RoleName:                 aws.String(req.ServiceAccountName),
		AssumeRolePolicyDocument: aws.String(lambdaTrustPolicy),
		Description:              aws.String(constants.ServiceAccountDisplayName),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create role: %w", err)
	}
	return aws.ToString(out.Role.Arn), nil
}

// BindRole attaches the managed policy named by roleID to the execution
// role. Attaching an already-attached policy succeeds unchanged, so no
// conflict handling is needed here.
func (p *Provisioner) BindRole(ctx context.Context, req *provision.Request, _ string, roleID string) error {
	_, err := p.iam.AttachRolePolicy(ctx, &iam.AttachRolePolicyInput{
		RoleName:  aws.String(req.ServiceAccountName),
		PolicyArn: aws.String(roleID),
	})
	if err != nil {
		return fmt.Errorf("failed to attach policy %s: %w", roleID, err)
	}
	return nil
}

// DescribeService reports whether the bridge function is already deployed.
func (p *Provisioner) DescribeService(ctx context.Context, req *provision.Request) (bool, error) {
	_, err := p.lambda.GetFunction(ctx, &lambda.GetFunctionInput{
		FunctionName: aws.String(req.ServiceName),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get function: %w", err)
	}
	return true, nil
}

// DeployService creates the bridge function from the container image,
// waits for it to become active, and exposes it through a public function
// URL so the identity provider and 1Password's servers can reach it.
func (p *Provisioner) DeployService(ctx context.Context, req *provision.Request, serviceAccountID string) error {
	if err := p.createFunction(ctx, req, serviceAccountID); err != nil {
		return err
	}
	if err := p.waitForFunctionActive(ctx, req.ServiceName); err != nil {
		return err
	}
	return p.exposeFunctionURL(ctx, req.ServiceName)
}

// createFunction creates the bridge function, retrying while a freshly
// created execution role propagates through IAM. Lambda rejects the role
// with an invalid-parameter error until propagation completes.
func (p *Provisioner) createFunction(ctx context.Context, req *provision.Request, roleARN string) error {
	input := &lambda.CreateFunctionInput{
		FunctionName: aws.String(req.ServiceName),
		Role:         aws.String(roleARN),
		PackageType:  lambdatypes.PackageTypeImage,
		Code: &lambdatypes.FunctionCode{
			ImageUri: aws.String(req.Image),
		},
		MemorySize: aws.Int32(constants.LambdaMemoryMB),
		Timeout:    aws.Int32(constants.LambdaTimeoutSeconds),
	}

	var lastErr error
	for attempt := 1; attempt <= p.roleAssumeRetryAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.roleAssumeRetryDelay):
			}
		}

		_, lastErr = p.lambda.CreateFunction(ctx, input)
		if lastErr == nil {
			return nil
		}
		if !isRoleNotPropagated(lastErr) {
			return fmt.Errorf("failed to create function: %w", lastErr)
		}
	}
	return fmt.Errorf("execution role never became assumable: %w", lastErr)
}

// waitForFunctionActive polls the function until Lambda reports it active.
func (p *Provisioner) waitForFunctionActive(ctx context.Context, functionName string) error {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	timeout := time.After(p.deployTimeout)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout:
			return errors.New("timeout waiting for function to become active")
		case <-ticker.C:
			out, err := p.lambda.GetFunction(ctx, &lambda.GetFunctionInput{
				FunctionName: aws.String(functionName),
			})
			if err != nil {
				return fmt.Errorf("failed to get function: %w", err)
			}

			switch out.Configuration.State {
			case lambdatypes.StateActive:
				return nil
			case lambdatypes.StateFailed:
				return fmt.Errorf(
					"function entered failed state: %s",
					aws.ToString(out.Configuration.StateReason),
				)
			case lambdatypes.StatePending, lambdatypes.StateInactive:
			}
		}
	}
}

// exposeFunctionURL creates the public function URL and grants anonymous
// invocation on it. Both calls report a conflict when a previous run
// already made them, which reads as success.
func (p *Provisioner) exposeFunctionURL(ctx context.Context, functionName string) error {
	_, err := p.lambda.CreateFunctionUrlConfig(ctx, &lambda.CreateFunctionUrlConfigInput{
		FunctionName: aws.String(functionName),
		AuthType:     lambdatypes.FunctionUrlAuthTypeNone,
	})
	if err != nil && !isConflict(err) {
		return fmt.Errorf("failed to create function url: %w", err)
	}

	_, err = p.lambda.AddPermission(ctx, &lambda.AddPermissionInput{
		FunctionName:        aws.String(functionName),
		StatementId:         aws.String(publicURLStatementID),
		Action:              aws.String("lambda:InvokeFunctionUrl"),
		Principal:           aws.String("*"),
		FunctionUrlAuthType: lambdatypes.FunctionUrlAuthTypeNone,
	})
	if err != nil && !isConflict(err) {
		return fmt.Errorf("failed to add invoke permission: %w", err)
	}
	return nil
}

// ServiceEndpoint returns the function URL, or an empty string while the
// URL config is not visible yet. The trailing slash Lambda appends is
// stripped so paths can be joined onto the endpoint.
func (p *Provisioner) ServiceEndpoint(ctx context.Context, req *provision.Request) (string, error) {
	out, err := p.lambda.GetFunctionUrlConfig(ctx, &lambda.GetFunctionUrlConfigInput{
		FunctionName: aws.String(req.ServiceName),
	})
	if err != nil {
		if isNotFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get function url: %w", err)
	}
	return strings.TrimSuffix(aws.ToString(out.FunctionUrl), "/"), nil
}

// CheckCredentials verifies the configured AWS credentials work and returns
// the account ID they belong to.
func (p *Provisioner) CheckCredentials(ctx context.Context) (string, error) {
	out, err := p.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("STS GetCallerIdentity failed: %w", err)
	}
	if out.Account == nil || *out.Account == "" {
		return "", errors.New("STS returned empty account ID")
	}
	return *out.Account, nil
}
