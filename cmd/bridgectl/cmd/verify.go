package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/bridgectl/bridgectl/internal/constants"
	apperrors "github.com/bridgectl/bridgectl/internal/errors"
	"github.com/bridgectl/bridgectl/internal/provision"
	"github.com/bridgectl/bridgectl/internal/verify"
)

var (
	// verify flags
	verifyEndpoint string
	verifyToken    string
	verifyConfig   string
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Probe a deployed SCIM bridge",
	Long: `Probe a deployed SCIM bridge over HTTP.

The bridge's status page and its SCIM endpoint are probed concurrently. With
a bearer token the SCIM probe exercises the full authentication path; without
one, a 401 from the SCIM endpoint still confirms the bridge is up and
enforcing authentication.

The endpoint comes from --endpoint, or from the config artifact written by a
provisioning run.

Examples:
  # Probe the bridge recorded in ./scim-bridge.yaml
  bridgectl verify --token $SCIM_TOKEN

  # Probe an explicit endpoint without a token
  bridgectl verify --endpoint https://scim-bridge-abc123-uc.a.run.app`,
	SilenceUsage: true,
	RunE:         verifyRun,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&verifyEndpoint, "endpoint", "",
		"Bridge URL to probe (overrides the config artifact)")
	verifyCmd.Flags().StringVar(&verifyToken, "token", "",
		"Bearer token for the SCIM probe")
	verifyCmd.Flags().StringVar(&verifyConfig, "config", constants.ArtifactFileName,
		"Path to the config artifact written by provision")
}

func verifyRun(cmd *cobra.Command, _ []string) error {
	endpoint := verifyEndpoint
	if endpoint == "" {
		artifact, err := provision.LoadArtifact(verifyConfig)
		if err != nil {
			_ = cmd.Usage()
			return apperrors.ErrInvalidInput(
				fmt.Sprintf("no --endpoint given and no usable config artifact at %s", verifyConfig), err)
		}
		endpoint = artifact.Bridge.BridgeURL
	}

	service := NewVerifyService(verify.New(slog.Default()), NewOutputWrapper())
	return service.VerifyBridge(cmd.Context(), endpoint, verifyToken)
}

// BridgeChecker probes a deployed bridge and classifies the result.
type BridgeChecker interface {
	Check(ctx context.Context, endpoint, token string) (*verify.Report, error)
}

// VerifyService probes a bridge deployment and reports its health.
type VerifyService struct {
	checker BridgeChecker
	output  OutputInterface
}

// NewVerifyService creates a new VerifyService with the provided dependencies.
func NewVerifyService(checker BridgeChecker, outputter OutputInterface) *VerifyService {
	return &VerifyService{
		checker: checker,
		output:  outputter,
	}
}

// VerifyBridge probes the endpoint and interprets the result. Without a
// token, an unauthorized SCIM response still counts as healthy; with one, it
// means the token was rejected.
func (s *VerifyService) VerifyBridge(ctx context.Context, endpoint, token string) error {
	report, err := s.checker.Check(ctx, endpoint, token)
	if err != nil {
		return err
	}

	s.output.KeyValue("Endpoint", report.Endpoint)
	s.output.KeyValue("Status page", fmt.Sprintf("HTTP %d", report.RootStatus))
	s.output.KeyValue("SCIM endpoint", fmt.Sprintf("HTTP %d", report.SCIMStatus))
	s.output.Blank()

	switch {
	case report.Ready():
		s.output.Successf("SCIM bridge is ready")
		return nil
	case report.Unauthorized() && token == "" && report.RootStatus == http.StatusOK:
		s.output.Successf("SCIM bridge is up and enforcing authentication")
		return nil
	case report.Unauthorized():
		return apperrors.ErrInvalidInput(
			fmt.Sprintf("bridge rejected the bearer token (HTTP %d)", report.SCIMStatus), nil)
	default:
		return apperrors.ErrEndpointUnavailable(
			fmt.Sprintf("bridge is reachable but not serving yet (status page HTTP %d, SCIM HTTP %d)",
				report.RootStatus, report.SCIMStatus), nil)
	}
}
