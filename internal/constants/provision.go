package constants

import "time"

// Provider identifies the cloud provider the bridge is provisioned on.
type Provider string

const (
	// GCP provisions the bridge on Google Cloud (Cloud Run + IAM).
	GCP Provider = "gcp"
	// AWS provisions the bridge on AWS (Lambda container image + IAM role).
	AWS Provider = "aws"
)

// DefaultProvider is used when no provider is configured.
const DefaultProvider = GCP

// DefaultGCPRegion is the default region for GCP deployments.
// Cloud Run treats us-central1 as its canonical default region.
const DefaultGCPRegion = "us-central1"

// DefaultAWSRegion is the default region for AWS deployments.
const DefaultAWSRegion = "us-east-1"

// DefaultServiceAccountName is the short name of the identity the bridge
// runs as. Combined with the project it forms the full identifier.
const DefaultServiceAccountName = "scim-bridge-sa"

// ServiceAccountDisplayName is the human-readable name attached to the
// provisioned identity.
const ServiceAccountDisplayName = "SCIM Bridge Service Account"

// DefaultServiceName is the name of the deployed bridge service.
const DefaultServiceName = "scim-bridge"

// DefaultBridgeImage is the vendor-published bridge container image deployed
// when no image override is given.
const DefaultBridgeImage = "1password/scim-bridge:latest"

// DefaultGCPRoles are the project roles bound to the bridge's service
// account on GCP. The bridge stores its session state in a storage bucket
// and acts as its own service account when deploying.
var DefaultGCPRoles = []string{
	"roles/iam.serviceAccountUser",
	"roles/storage.admin",
}

// DefaultAWSRoles are the managed policies attached to the bridge's
// execution role on AWS.
var DefaultAWSRoles = []string{
	"arn:aws:iam::aws:policy/service-role/AWSLambdaBasicExecutionRole",
}

// RequiredGCPServices are the APIs that must be enabled on the target
// project before provisioning can succeed.
var RequiredGCPServices = []string{
	"iam.googleapis.com",
	"run.googleapis.com",
}

// EndpointRetryAttempts bounds how many times endpoint discovery polls a
// freshly deployed service before giving up. Propagation delay is expected
// and transient; anything beyond this ceiling is surfaced to the operator.
const EndpointRetryAttempts = 3

// EndpointRetryBaseDelay is the first wait between endpoint discovery
// attempts; each subsequent wait doubles.
const EndpointRetryBaseDelay = 2 * time.Second

// PolicyRetryAttempts bounds retries of the IAM policy read-modify-write
// cycle when a concurrent modification aborts it.
const PolicyRetryAttempts = 3

// PolicyRetryBaseDelay is the first wait between policy write attempts;
// each subsequent wait doubles.
const PolicyRetryBaseDelay = time.Second

// RoleAssumeRetryAttempts bounds function-creation retries on AWS while a
// newly created execution role propagates through IAM. Lambda rejects the
// role until propagation completes.
const RoleAssumeRetryAttempts = 5

// RoleAssumeRetryDelay is the wait between those attempts.
const RoleAssumeRetryDelay = 3 * time.Second

// LambdaMemoryMB is the memory allocated to the bridge function on AWS.
const LambdaMemoryMB = 512

// LambdaTimeoutSeconds caps a single bridge request on AWS.
const LambdaTimeoutSeconds = 30

// DeployTimeout caps how long a single deployment operation may block.
const DeployTimeout = 10 * time.Minute

// ServiceAccountTimeout caps service account lookup and creation calls.
const ServiceAccountTimeout = 30 * time.Second

// IAMBindingTimeout caps a single IAM policy read-modify-write cycle.
const IAMBindingTimeout = 60 * time.Second

// ProjectLookupTimeout caps the project preflight check.
const ProjectLookupTimeout = 30 * time.Second

// ServiceUsageOperationTimeout caps how long API enablement may take.
const ServiceUsageOperationTimeout = 2 * time.Minute

// ResourcePollInterval is the interval between polls of a pending
// provider-side operation.
const ResourcePollInterval = 5 * time.Second

// TestContextTimeout is the timeout for test contexts.
const TestContextTimeout = 5 * time.Second

// SSOEntityID is the SAML entity ID the identity provider application must
// be registered with.
const SSOEntityID = "https://1password.com/sso"

// SSOStartURL is the sign-in start URL for the SAML application.
const SSOStartURL = "https://my.1password.com/signin"

// ACSPath is the assertion-consumer-service path the bridge serves,
// appended to the discovered endpoint.
const ACSPath = "/sso/acs"

// SCIMUsersPath is the SCIM collection the bridge serves; probing it with a
// bearer token verifies a live deployment end to end.
const SCIMUsersPath = "/scim/Users"
