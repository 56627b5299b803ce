package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bridgectl/bridgectl/internal/constants"
	"github.com/bridgectl/bridgectl/internal/provision"
)

var (
	// checklist flags
	checklistConfig string
)

var checklistCmd = &cobra.Command{
	Use:   "checklist",
	Short: "Re-print the manual steps for a provisioned bridge",
	Long: `Re-print the manual setup steps for an already provisioned bridge.

The steps are derived from the config artifact written by a provisioning run,
so they can be consulted again at any time without touching the cloud.

Examples:
  # Print the checklist for ./scim-bridge.yaml
  bridgectl checklist

  # Print the checklist for an artifact stored elsewhere
  bridgectl checklist --config /etc/bridgectl/scim-bridge.yaml`,
	SilenceUsage: true,
	RunE:         checklistRunE,
}

func init() {
	rootCmd.AddCommand(checklistCmd)

	checklistCmd.Flags().StringVar(&checklistConfig, "config", constants.ArtifactFileName,
		"Path to the config artifact written by provision")
}

func checklistRunE(_ *cobra.Command, _ []string) error {
	service := NewChecklistService(NewOutputWrapper())
	return service.Show(checklistConfig)
}

// ChecklistService re-renders the manual-step report from a config artifact.
type ChecklistService struct {
	output OutputInterface
}

// NewChecklistService creates a new ChecklistService with the provided dependencies.
func NewChecklistService(outputter OutputInterface) *ChecklistService {
	return &ChecklistService{output: outputter}
}

// Show loads the artifact at path and prints the manual steps for the bridge
// it describes.
func (s *ChecklistService) Show(path string) error {
	artifact, err := provision.LoadArtifact(path)
	if err != nil {
		return err
	}

	state := provision.NewState()
	state.RecordEndpoint(artifact.Bridge.BridgeURL)
	req := &provision.Request{
		Domain:     artifact.Google.Domain,
		AdminEmail: artifact.Google.AdminEmail,
	}

	s.output.KeyValue("Bridge URL", artifact.Bridge.BridgeURL)
	printManualSteps(s.output, state, req)
	return nil
}
