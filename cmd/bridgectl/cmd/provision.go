package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bridgectl/bridgectl/internal/config"
	"github.com/bridgectl/bridgectl/internal/constants"
	apperrors "github.com/bridgectl/bridgectl/internal/errors"
	"github.com/bridgectl/bridgectl/internal/provision"
	"github.com/bridgectl/bridgectl/internal/provision/aws"
	"github.com/bridgectl/bridgectl/internal/provision/gcp"
)

var (
	// provision flags
	provisionProject        string
	provisionDomain         string
	provisionAdminEmail     string
	provisionProvider       string
	provisionRegion         string
	provisionServiceAccount string
	provisionServiceName    string
	provisionImage          string
	provisionRoles          []string
	provisionOutputPath     string
	provisionSkipAPIEnable  bool
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Provision the SCIM bridge on GCP or AWS",
	Long: `Provision the 1Password SCIM bridge: create a service account, bind the
roles it needs, deploy the bridge container, and discover its public URL.

Every step checks current cloud state before mutating it, so re-running the
command after a failure resumes where the last run stopped instead of
creating duplicates.

Examples:
  # Provision on GCP with defaults
  bridgectl provision --project acme-prod --domain acme.com --admin-email admin@acme.com

  # Provision on AWS (project is the twelve-digit account ID)
  bridgectl provision --provider aws --project 123456789012 --domain acme.com --admin-email admin@acme.com

  # Pin the bridge image and bind an extra role
  bridgectl provision --project acme-prod --domain acme.com --admin-email admin@acme.com \
    --image 1password/scim-bridge:v2.9.5 --role roles/secretmanager.secretAccessor`,
	SilenceUsage: true,
	RunE:         provisionRun,
}

func init() {
	rootCmd.AddCommand(provisionCmd)

	provisionCmd.Flags().StringVar(&provisionProject, "project", "",
		"Cloud project ID (GCP) or account ID (AWS)")
	provisionCmd.Flags().StringVar(&provisionDomain, "domain", "",
		"Google Workspace domain (e.g., example.com)")
	provisionCmd.Flags().StringVar(&provisionAdminEmail, "admin-email", "",
		"Google Workspace administrator email")
	provisionCmd.Flags().StringVar(&provisionProvider, "provider", "",
		fmt.Sprintf("Cloud provider: %s or %s (default %s)", constants.GCP, constants.AWS, constants.DefaultProvider))
	provisionCmd.Flags().StringVar(&provisionRegion, "region", "",
		fmt.Sprintf("Deployment region (default %s on GCP, %s on AWS)", constants.DefaultGCPRegion, constants.DefaultAWSRegion))
	provisionCmd.Flags().StringVar(&provisionServiceAccount, "service-account", "",
		fmt.Sprintf("Service account name (default %s)", constants.DefaultServiceAccountName))
	provisionCmd.Flags().StringVar(&provisionServiceName, "service-name", "",
		fmt.Sprintf("Deployed service name (default %s)", constants.DefaultServiceName))
	provisionCmd.Flags().StringVar(&provisionImage, "image", "",
		fmt.Sprintf("Bridge container image (default %s)", constants.DefaultBridgeImage))
	provisionCmd.Flags().StringSliceVar(&provisionRoles, "role", nil,
		"Role to bind to the service account (repeatable; overrides the provider default set)")
	provisionCmd.Flags().StringVar(&provisionOutputPath, "output", constants.ArtifactFileName,
		"Path the bridge configuration artifact is written to")
	provisionCmd.Flags().BoolVar(&provisionSkipAPIEnable, "skip-api-enable", false,
		"Skip enabling required cloud APIs during preflight (GCP only)")
}

func provisionRun(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	req, err := provision.Resolve(buildProvisionRequest(cfg))
	if err != nil {
		_ = cmd.Usage()
		return err
	}

	clients, preflight, err := buildProviderClients(ctx, req)
	if err != nil {
		return err
	}

	service := NewProvisionService(clients, preflight, NewOutputWrapper())
	return service.Provision(ctx, req, provisionOutputPath)
}

// buildProvisionRequest merges flag values over the persisted configuration.
// Flags win when set; request resolution fills provider-dependent defaults
// for whatever is still empty.
func buildProvisionRequest(cfg *config.Config) provision.Request {
	provider := provisionProvider
	if provider == "" {
		provider = string(cfg.Provider)
	}

	return provision.Request{
		ProjectID:          firstNonEmpty(provisionProject, cfg.ProjectID),
		Domain:             firstNonEmpty(provisionDomain, cfg.Domain),
		AdminEmail:         firstNonEmpty(provisionAdminEmail, cfg.AdminEmail),
		Provider:           constants.Provider(strings.ToLower(strings.TrimSpace(provider))),
		Region:             firstNonEmpty(provisionRegion, cfg.Region),
		ServiceAccountName: firstNonEmpty(provisionServiceAccount, cfg.ServiceAccountName),
		ServiceName:        provisionServiceName,
		Image:              firstNonEmpty(provisionImage, cfg.Image),
		Roles:              provisionRoles,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// buildProviderClients constructs the SDK-backed pipeline collaborators and
// the provider-specific preflight for the resolved request.
func buildProviderClients(ctx context.Context, req *provision.Request) (provision.Clients, PreflightChecker, error) {
	out := NewOutputWrapper()

	switch req.Provider {
	case constants.AWS:
		p, err := aws.New(ctx, req.Region)
		if err != nil {
			return provision.Clients{}, nil, err
		}
		clients := provision.Clients{
			ServiceAccounts: p,
			Policies:        p,
			Deployments:     p,
		}
		return clients, awsPreflight(p, out), nil
	default:
		p, err := gcp.New(ctx, req.Region)
		if err != nil {
			return provision.Clients{}, nil, err
		}
		clients := provision.Clients{
			ServiceAccounts: p,
			Policies:        p,
			Deployments:     p,
		}
		return clients, gcpPreflight(p, provisionSkipAPIEnable, out), nil
	}
}

// gcpPreflight verifies the target project is visible and enables the APIs
// the pipeline depends on.
func gcpPreflight(p *gcp.Provisioner, skipAPIEnable bool, out OutputInterface) PreflightChecker {
	return PreflightFunc(func(ctx context.Context, req *provision.Request) error {
		exists, err := p.CheckProject(ctx, req.ProjectID)
		if err != nil {
			return fmt.Errorf("project preflight failed: %w", err)
		}
		if !exists {
			return apperrors.ErrInvalidInput(
				fmt.Sprintf("project %q does not exist or you do not have access to it", req.ProjectID), nil)
		}
		out.Infof("Project %s is accessible", req.ProjectID)

		if skipAPIEnable {
			return nil
		}
		out.Infof("Enabling required APIs: %s", strings.Join(constants.RequiredGCPServices, ", "))
		if err := p.EnableServices(ctx, req); err != nil {
			return fmt.Errorf("failed to enable required APIs: %w", err)
		}
		return nil
	})
}

// awsPreflight verifies the credentials resolve to the targeted account, so
// the pipeline cannot provision into whatever account the ambient
// credentials happen to belong to.
func awsPreflight(p *aws.Provisioner, out OutputInterface) PreflightChecker {
	return PreflightFunc(func(ctx context.Context, req *provision.Request) error {
		account, err := p.CheckCredentials(ctx)
		if err != nil {
			return fmt.Errorf("credential preflight failed: %w", err)
		}
		if req.ProjectID != "" && account != req.ProjectID {
			return apperrors.ErrInvalidInput(
				fmt.Sprintf("credentials belong to account %s, not target account %s", account, req.ProjectID), nil)
		}
		out.Infof("Authenticated to AWS account %s", account)
		return nil
	})
}

// PreflightChecker verifies provider access and prerequisites before the
// pipeline mutates anything.
type PreflightChecker interface {
	Preflight(ctx context.Context, req *provision.Request) error
}

// PreflightFunc adapts a function to the PreflightChecker interface.
type PreflightFunc func(ctx context.Context, req *provision.Request) error

// Preflight executes the underlying function.
func (f PreflightFunc) Preflight(ctx context.Context, req *provision.Request) error {
	return f(ctx, req)
}

// ProvisionService runs the provisioning pipeline and reports the result.
type ProvisionService struct {
	clients   provision.Clients
	preflight PreflightChecker
	output    OutputInterface
}

// NewProvisionService creates a new ProvisionService with the provided dependencies.
func NewProvisionService(clients provision.Clients, preflight PreflightChecker, outputter OutputInterface) *ProvisionService {
	return &ProvisionService{
		clients:   clients,
		preflight: preflight,
		output:    outputter,
	}
}

// Provision runs preflight and the pipeline for an already-resolved request,
// writes the config artifact, and prints the endpoint plus the remaining
// manual steps.
func (s *ProvisionService) Provision(ctx context.Context, req *provision.Request, artifactPath string) error {
	s.output.KeyValue("Provider", string(req.Provider))
	s.output.KeyValue("Project", req.ProjectID)
	s.output.KeyValue("Region", req.Region)
	s.output.KeyValue("Domain", req.Domain)
	s.output.KeyValue("Admin email", req.AdminEmail)
	s.output.KeyValue("Image", req.Image)
	s.output.Blank()

	if s.preflight != nil {
		if err := s.preflight.Preflight(ctx, req); err != nil {
			return err
		}
	}

	runner := provision.NewRunner(req, s.clients)
	state, err := runner.Run(ctx)
	if err != nil {
		s.output.Blank()
		s.output.Warningf("Re-running the same command is safe: completed steps are detected and skipped")
		return err
	}

	artifact, err := provision.BuildArtifact(state, req)
	if err != nil {
		return err
	}
	if err = artifact.WriteFile(artifactPath); err != nil {
		return err
	}

	s.output.Blank()
	s.output.Successf("SCIM bridge deployed")
	s.output.KeyValue("Bridge URL", state.Endpoint())
	s.output.KeyValue("Service account", state.ServiceAccountID())
	s.output.KeyValue("Config artifact", artifactPath)

	printManualSteps(s.output, state, req)

	return nil
}

// printManualSteps renders the operator actions that remain outside the
// pipeline's automation boundary.
func printManualSteps(out OutputInterface, state *provision.State, req *provision.Request) {
	out.Subheader("Manual steps remaining")
	for i, step := range provision.ManualSteps(state, req) {
		out.Println(fmt.Sprintf("%d. %s", i+1, out.Bold(step.Title)))
		out.List(step.Details)
		out.Blank()
	}
}
