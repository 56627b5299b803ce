// Package cmd implements the CLI commands for the bridgectl tool.
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bridgectl/bridgectl/internal/config"
	"github.com/bridgectl/bridgectl/internal/constants"
	"github.com/bridgectl/bridgectl/internal/output"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Configure default project, domain, and admin email",
	Long: fmt.Sprintf(`Store default provisioning parameters interactively.
This creates or updates the configuration file at ~/%s/%s; flags and
environment variables still override the stored values on each run.`,
		constants.ConfigDirName, constants.ConfigFileName),
	Run: runConfigure,
}

func init() {
	rootCmd.AddCommand(configureCmd)
}

func runConfigure(_ *cobra.Command, _ []string) {
	service := NewConfigureService(
		NewOutputWrapper(),
		NewConfigSaver(),
		NewConfigLoader(),
		NewConfigPathGetter(),
	)
	if err := service.Configure(context.Background()); err != nil {
		output.Errorf(err.Error())
	}
}

// ConfigLoader defines an interface for loading configuration
type ConfigLoader interface {
	Load() (*config.Config, error)
}

// ConfigSaver defines an interface for saving configuration
type ConfigSaver interface {
	Save(*config.Config) error
}

// ConfigPathGetter defines an interface for retrieving the configuration path
type ConfigPathGetter interface {
	GetConfigPath() (string, error)
}

// ConfigLoaderFunc adapts a function to the ConfigLoader interface
type ConfigLoaderFunc func() (*config.Config, error)

// Load executes the underlying function to load configuration
func (f ConfigLoaderFunc) Load() (*config.Config, error) {
	return f()
}

// ConfigSaverFunc adapts a function to the ConfigSaver interface
type ConfigSaverFunc func(*config.Config) error

// Save executes the underlying function to persist configuration
func (f ConfigSaverFunc) Save(cfg *config.Config) error {
	return f(cfg)
}

// ConfigPathGetterFunc adapts a function to the ConfigPathGetter interface
type ConfigPathGetterFunc func() (string, error)

// GetConfigPath executes the underlying function to retrieve the config path
func (f ConfigPathGetterFunc) GetConfigPath() (string, error) {
	return f()
}

// NewConfigLoader creates a ConfigLoader backed by the config file alone.
// Environment variables are deliberately left out so configure never
// persists ambient values into the file.
func NewConfigLoader() ConfigLoader {
	return ConfigLoaderFunc(config.LoadCLI)
}

// NewConfigSaver creates a ConfigSaver using the global config.Save function
func NewConfigSaver() ConfigSaver {
	return ConfigSaverFunc(config.Save)
}

// NewConfigPathGetter creates a ConfigPathGetter using the global config.GetConfigPath function
func NewConfigPathGetter() ConfigPathGetter {
	return ConfigPathGetterFunc(config.GetConfigPath)
}

// ConfigureService handles configuration logic
type ConfigureService struct {
	output           OutputInterface
	configSaver      ConfigSaver
	configLoader     ConfigLoader
	configPathGetter ConfigPathGetter
}

// NewConfigureService creates a new ConfigureService with the provided dependencies
func NewConfigureService(
	outputter OutputInterface,
	configSaver ConfigSaver,
	configLoader ConfigLoader,
	configPathGetter ConfigPathGetter,
) *ConfigureService {
	return &ConfigureService{
		output:           outputter,
		configSaver:      configSaver,
		configLoader:     configLoader,
		configPathGetter: configPathGetter,
	}
}

// Configure runs the interactive configuration flow
func (s *ConfigureService) Configure(_ context.Context) error {
	existingConfig, err := s.configLoader.Load()
	configExists := err == nil

	if configExists {
		s.output.Successf("Found existing configuration")
	} else {
		existingConfig = &config.Config{}
		s.output.Infof("Creating new configuration")
	}

	projectID := s.output.Prompt("Enter cloud project ID (GCP) or account ID (AWS)")
	if projectID == "" {
		if configExists && existingConfig.ProjectID != "" {
			projectID = existingConfig.ProjectID
			s.output.Infof("Using existing project: %s", projectID)
		} else {
			return fmt.Errorf("project ID is required")
		}
	}

	domain := s.output.Prompt("Enter Google Workspace domain")
	if domain == "" {
		if configExists && existingConfig.Domain != "" {
			domain = existingConfig.Domain
			s.output.Infof("Using existing domain: %s", domain)
		} else {
			return fmt.Errorf("domain is required")
		}
	}

	adminEmail := s.output.Prompt("Enter Google Workspace administrator email")
	if adminEmail == "" {
		if configExists && existingConfig.AdminEmail != "" {
			adminEmail = existingConfig.AdminEmail
			s.output.Infof("Using existing admin email: %s", adminEmail)
		} else {
			return fmt.Errorf("administrator email is required")
		}
	}

	provider := strings.ToLower(strings.TrimSpace(
		s.output.Prompt(fmt.Sprintf("Enter cloud provider (%s or %s, empty keeps current)", constants.GCP, constants.AWS))))
	switch constants.Provider(provider) {
	case "":
		provider = string(existingConfig.Provider)
	case constants.GCP, constants.AWS:
	default:
		return fmt.Errorf("unsupported provider %q (expected %q or %q)", provider, constants.GCP, constants.AWS)
	}

	region := s.output.Prompt("Enter region (empty keeps current)")
	if region == "" {
		region = existingConfig.Region
	}

	cfg := &config.Config{
		ProjectID:          projectID,
		Domain:             domain,
		AdminEmail:         adminEmail,
		Provider:           constants.Provider(provider),
		Region:             region,
		ServiceAccountName: existingConfig.ServiceAccountName,
		Image:              existingConfig.Image,
	}

	if err = s.configSaver.Save(cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	configPath, err := s.configPathGetter.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	s.output.Successf("Configuration saved successfully")
	s.output.KeyValue("Configuration path", configPath)
	s.output.Infof("Configuration complete!")
	return nil
}
