package provision

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bridgectl/bridgectl/internal/constants"
	apperrors "github.com/bridgectl/bridgectl/internal/errors"
)

// ConfigArtifact is the configuration document the downstream bridge service
// consumes. Its two-section shape (key names and nesting) is a compatibility
// contract and must not change.
type ConfigArtifact struct {
	Bridge BridgeSection `yaml:"bridge"`
	Google GoogleSection `yaml:"google"`
}

// BridgeSection locates the deployed bridge.
type BridgeSection struct {
	BridgeURL string `yaml:"bridge_url"`
}

// GoogleSection carries the organization context the bridge syncs against.
type GoogleSection struct {
	AdminEmail string `yaml:"admin_email"`
	Domain     string `yaml:"domain"`
}

// BuildArtifact derives the config artifact from a completed run. Calling it
// before endpoint discovery has populated the state is a contract violation
// and yields an incomplete-state error rather than a partial document.
func BuildArtifact(state *State, req *Request) (*ConfigArtifact, error) {
	if state.Endpoint() == "" {
		return nil, apperrors.ErrIncompleteState("config artifact requested before endpoint discovery completed")
	}

	return &ConfigArtifact{
		Bridge: BridgeSection{BridgeURL: state.Endpoint()},
		Google: GoogleSection{AdminEmail: req.AdminEmail, Domain: req.Domain},
	}, nil
}

// Render serializes the artifact to YAML.
func (a *ConfigArtifact) Render() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(a); err != nil {
		return nil, fmt.Errorf("failed to render config artifact: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize config artifact: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile renders the artifact and writes it to path with owner-only
// permissions; the admin email and domain are operator data.
func (a *ConfigArtifact) WriteFile(path string) error {
	data, err := a.Render()
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, constants.ConfigFilePermissions); err != nil {
		return fmt.Errorf("failed to write config artifact: %w", err)
	}
	return nil
}

// LoadArtifact reads a previously written config artifact. Used by commands
// that operate on a completed provisioning run.
func LoadArtifact(path string) (*ConfigArtifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config artifact: %w", err)
	}

	var artifact ConfigArtifact
	if err := yaml.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("failed to parse config artifact: %w", err)
	}

	if artifact.Bridge.BridgeURL == "" {
		return nil, apperrors.ErrIncompleteState("config artifact is missing the bridge URL")
	}

	return &artifact, nil
}
