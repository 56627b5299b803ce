// Package config manages configuration for the bridgectl CLI.
// It uses Viper for unified configuration management from files and environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/bridgectl/bridgectl/internal/constants"
)

// Config represents persisted defaults for provisioning runs.
// Values here seed the corresponding command-line flags; flags always win.
type Config struct {
	ProjectID          string             `mapstructure:"project_id" yaml:"project_id"`
	Domain             string             `mapstructure:"domain" yaml:"domain" validate:"omitempty,fqdn"`
	AdminEmail         string             `mapstructure:"admin_email" yaml:"admin_email" validate:"omitempty,email"`
	Provider           constants.Provider `mapstructure:"provider" yaml:"provider"`
	Region             string             `mapstructure:"region" yaml:"region"`
	ServiceAccountName string             `mapstructure:"service_account_name" yaml:"service_account_name"`
	Image              string             `mapstructure:"image" yaml:"image"`
	LogLevel           string             `mapstructure:"log_level" yaml:"log_level"`
}

var validate = validator.New()

// Load loads the configuration using Viper.
// Reads ~/.bridgectl/config.yaml when present, then applies environment
// variables on top. Environment variables take precedence over file values.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Config file is optional; env vars alone are a valid configuration
	if err := loadConfigFile(v); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	v.SetEnvPrefix("BRIDGECTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.Provider = normalizeProvider(cfg.Provider)

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadCLI loads configuration from the config file only.
// Returns an error if the config file doesn't exist.
func LoadCLI() (*Config, error) {
	v := viper.New()

	if err := loadConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Save saves the configuration to the user's home directory.
// Overwrites the existing config file if it exists.
func Save(config *Config) error {
	currentUser, err := user.Current()
	if err != nil {
		return fmt.Errorf("error getting current user: %w", err)
	}

	configDir := constants.ConfigDirPath(currentUser.HomeDir)

	if err = os.MkdirAll(configDir, constants.ConfigDirPermissions); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	configFilePath := filepath.Join(configDir, constants.ConfigFileName)

	v := viper.New()
	v.Set("project_id", config.ProjectID)
	v.Set("domain", config.Domain)
	v.Set("admin_email", config.AdminEmail)
	v.Set("provider", string(config.Provider))
	v.Set("region", config.Region)
	v.Set("service_account_name", config.ServiceAccountName)
	v.Set("image", config.Image)

	if err = v.WriteConfigAs(configFilePath); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	// Set proper permissions
	if err = os.Chmod(configFilePath, constants.ConfigFilePermissions); err != nil {
		return fmt.Errorf("error setting config file permissions: %w", err)
	}

	return nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	currentUser, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("error getting current user: %w", err)
	}

	configDir := constants.ConfigDirPath(currentUser.HomeDir)
	return filepath.Join(configDir, constants.ConfigFileName), nil
}

// GetLogLevel returns the slog.Level from the string configuration.
// Defaults to INFO if the level string is invalid.
func (c *Config) GetLogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Helper functions

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", string(constants.DefaultProvider))
	// Region has no default here: the right one depends on the provider and
	// is filled in during request resolution.
	v.SetDefault("service_account_name", constants.DefaultServiceAccountName)
	v.SetDefault("image", constants.DefaultBridgeImage)
	v.SetDefault("log_level", "INFO")
}

func loadConfigFile(v *viper.Viper) error {
	currentUser, err := user.Current()
	if err != nil {
		return fmt.Errorf("error getting current user: %w", err)
	}

	configDir := constants.ConfigDirPath(currentUser.HomeDir)
	configFile := filepath.Join(configDir, constants.ConfigFileName)

	v.SetConfigFile(configFile)
	v.SetConfigType("yaml")

	if readErr := v.ReadInConfig(); readErr != nil {
		return readErr
	}

	return nil
}

// bindEnvVars binds each config key to its BRIDGECTL_-prefixed variable.
// The bare fallback names (GCP_PROJECT_ID, DOMAIN, ...) are kept so existing
// deployment environments work without renaming anything.
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("project_id", "BRIDGECTL_PROJECT_ID", "GCP_PROJECT_ID")
	_ = v.BindEnv("domain", "BRIDGECTL_DOMAIN", "DOMAIN")
	_ = v.BindEnv("admin_email", "BRIDGECTL_ADMIN_EMAIL", "ADMIN_EMAIL")
	_ = v.BindEnv("provider", "BRIDGECTL_PROVIDER")
	_ = v.BindEnv("region", "BRIDGECTL_REGION", "GCP_REGION")
	_ = v.BindEnv("service_account_name", "BRIDGECTL_SERVICE_ACCOUNT_NAME", "SERVICE_ACCOUNT_NAME")
	_ = v.BindEnv("image", "BRIDGECTL_IMAGE", "SCIM_BRIDGE_IMAGE")
	_ = v.BindEnv("log_level", "BRIDGECTL_LOG_LEVEL")
}

// normalizeProvider trims whitespace and lowercases the provider identifier.
func normalizeProvider(provider constants.Provider) constants.Provider {
	normalized := strings.TrimSpace(string(provider))
	if normalized == "" {
		return ""
	}
	return constants.Provider(strings.ToLower(normalized))
}
