package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bridgectl/bridgectl/internal/constants"
	apperrors "github.com/bridgectl/bridgectl/internal/errors"
)

func writeTestArtifact(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), constants.ArtifactFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestChecklistService_Show(t *testing.T) {
	artifact := "bridge:\n" +
		"  bridge_url: " + testBridgeURL + "\n" +
		"google:\n" +
		"  admin_email: admin@acme.com\n" +
		"  domain: acme.com\n"
	path := writeTestArtifact(t, artifact)

	mockOutput := &mockOutputInterface{}
	service := NewChecklistService(mockOutput)

	require.NoError(t, service.Show(path))

	var urlShown, headerShown bool
	var acsShown, adminShown bool
	for _, call := range mockOutput.calls {
		switch call.method {
		case "KeyValue":
			if len(call.args) >= 2 && call.args[0] == "Bridge URL" && call.args[1] == testBridgeURL {
				urlShown = true
			}
		case "Subheader":
			if call.args[0] == "Manual steps remaining" {
				headerShown = true
			}
		case "List":
			if items, ok := call.args[0].([]string); ok {
				for _, item := range items {
					if strings.Contains(item, testBridgeURL+constants.ACSPath) {
						acsShown = true
					}
					if strings.Contains(item, "admin@acme.com") {
						adminShown = true
					}
				}
			}
		}
	}
	assert.True(t, urlShown, "Expected the bridge URL to be displayed")
	assert.True(t, headerShown, "Expected the manual steps subheader")
	assert.True(t, acsShown, "Expected the ACS URL derived from the artifact endpoint")
	assert.True(t, adminShown, "Expected the admin email from the artifact")
}

func TestChecklistService_Show_MissingArtifact(t *testing.T) {
	mockOutput := &mockOutputInterface{}
	service := NewChecklistService(mockOutput)

	err := service.Show(filepath.Join(t.TempDir(), "nope.yaml"))

	require.Error(t, err)
	assert.Empty(t, mockOutput.calls, "Nothing should be printed when the artifact cannot be read")
}

func TestChecklistService_Show_IncompleteArtifact(t *testing.T) {
	path := writeTestArtifact(t, "google:\n  admin_email: admin@acme.com\n  domain: acme.com\n")

	mockOutput := &mockOutputInterface{}
	service := NewChecklistService(mockOutput)

	err := service.Show(path)

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeIncompleteState, apperrors.GetErrorCode(err))
}

func TestChecklistCommand_Flags(t *testing.T) {
	require.NotNil(t, checklistCmd)

	configFlag := checklistCmd.Flags().Lookup("config")
	require.NotNil(t, configFlag, "config flag should be defined on the checklist command")
	require.Equal(t, constants.ArtifactFileName, configFlag.DefValue)
}
