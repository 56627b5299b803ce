package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bridgectl/bridgectl/internal/config"
	"github.com/bridgectl/bridgectl/internal/constants"
	apperrors "github.com/bridgectl/bridgectl/internal/errors"
	"github.com/bridgectl/bridgectl/internal/output"
	"github.com/bridgectl/bridgectl/internal/provision"
	"github.com/bridgectl/bridgectl/internal/provision/aws"
	"github.com/bridgectl/bridgectl/internal/provision/gcp"
)

var (
	// preflight flags
	preflightProject  string
	preflightProvider string
	preflightRegion   string
)

var preflightCmd = &cobra.Command{
	Use:   "preflight",
	Short: "Check cloud access without provisioning anything",
	Long: `Verify cloud credentials and project access before a provisioning run.

All checks are read-only: nothing is created, bound, enabled, or deployed.

Examples:
  # Check access to a GCP project
  bridgectl preflight --project acme-prod

  # Check AWS credentials against a target account
  bridgectl preflight --provider aws --project 123456789012`,
	SilenceUsage: true,
	RunE:         preflightRun,
}

func init() {
	rootCmd.AddCommand(preflightCmd)

	preflightCmd.Flags().StringVar(&preflightProject, "project", "",
		"Cloud project ID (GCP) or account ID (AWS)")
	preflightCmd.Flags().StringVar(&preflightProvider, "provider", "",
		fmt.Sprintf("Cloud provider: %s or %s (default %s)", constants.GCP, constants.AWS, constants.DefaultProvider))
	preflightCmd.Flags().StringVar(&preflightRegion, "region", "",
		fmt.Sprintf("Region to build the provider client for (default %s on GCP, %s on AWS)",
			constants.DefaultGCPRegion, constants.DefaultAWSRegion))
}

func preflightRun(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	provider := firstNonEmpty(preflightProvider, string(cfg.Provider))
	req := &provision.Request{
		ProjectID: firstNonEmpty(preflightProject, cfg.ProjectID),
		Provider:  constants.Provider(strings.ToLower(strings.TrimSpace(provider))),
		Region:    firstNonEmpty(preflightRegion, cfg.Region),
	}
	if req.Provider == "" {
		req.Provider = constants.DefaultProvider
	}

	out := NewOutputWrapper()

	switch req.Provider {
	case constants.AWS:
		if req.Region == "" {
			req.Region = constants.DefaultAWSRegion
		}
		p, err := aws.New(ctx, req.Region)
		if err != nil {
			return err
		}
		if err := awsPreflight(p, out).Preflight(ctx, req); err != nil {
			return err
		}
	case constants.GCP:
		if req.ProjectID == "" {
			_ = cmd.Usage()
			return apperrors.ErrInvalidInput("--project is required", nil)
		}
		if req.Region == "" {
			req.Region = constants.DefaultGCPRegion
		}
		p, err := gcp.New(ctx, req.Region)
		if err != nil {
			return err
		}
		// The standalone check never mutates the project, so API enablement
		// is always skipped here.
		if err := gcpPreflight(p, true, out).Preflight(ctx, req); err != nil {
			return err
		}
	default:
		_ = cmd.Usage()
		return apperrors.ErrInvalidInput(
			fmt.Sprintf("unsupported provider %q (expected %q or %q)", req.Provider, constants.GCP, constants.AWS), nil)
	}

	output.Successf("Preflight checks passed")
	return nil
}
