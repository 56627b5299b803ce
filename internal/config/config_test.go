package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bridgectl/bridgectl/internal/constants"
)

func TestConfig_GetLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
		expected slog.Level
	}{
		{
			name:     "DEBUG level",
			logLevel: "DEBUG",
			expected: slog.LevelDebug,
		},
		{
			name:     "INFO level",
			logLevel: "INFO",
			expected: slog.LevelInfo,
		},
		{
			name:     "WARN level",
			logLevel: "WARN",
			expected: slog.LevelWarn,
		},
		{
			name:     "ERROR level",
			logLevel: "ERROR",
			expected: slog.LevelError,
		},
		{
			name:     "invalid level defaults to INFO",
			logLevel: "INVALID",
			expected: slog.LevelInfo,
		},
		{
			name:     "empty string defaults to INFO",
			logLevel: "",
			expected: slog.LevelInfo,
		},
		{
			name:     "lowercase level",
			logLevel: "debug",
			expected: slog.LevelDebug,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.logLevel}
			result := cfg.GetLogLevel()
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestNormalizeProvider(t *testing.T) {
	tests := []struct {
		name     string
		provider constants.Provider
		expected constants.Provider
	}{
		{
			name:     "lowercase unchanged",
			provider: "gcp",
			expected: constants.GCP,
		},
		{
			name:     "uppercase lowered",
			provider: "GCP",
			expected: constants.GCP,
		},
		{
			name:     "mixed case lowered",
			provider: "Aws",
			expected: constants.AWS,
		},
		{
			name:     "surrounding whitespace trimmed",
			provider: "  aws  ",
			expected: constants.AWS,
		},
		{
			name:     "empty stays empty",
			provider: "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeProvider(tt.provider))
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BRIDGECTL_PROJECT_ID", "acme-prod")
	t.Setenv("BRIDGECTL_DOMAIN", "acme.example.com")
	t.Setenv("BRIDGECTL_ADMIN_EMAIL", "admin@acme.example.com")
	t.Setenv("BRIDGECTL_REGION", "europe-west1")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, "acme-prod", cfg.ProjectID)
	assert.Equal(t, "acme.example.com", cfg.Domain)
	assert.Equal(t, "admin@acme.example.com", cfg.AdminEmail)
	assert.Equal(t, "europe-west1", cfg.Region)
}

func TestLoad_FallbackEnvNames(t *testing.T) {
	t.Setenv("GCP_PROJECT_ID", "legacy-project")
	t.Setenv("SERVICE_ACCOUNT_NAME", "legacy-sa")
	t.Setenv("SCIM_BRIDGE_IMAGE", "1password/scim-bridge:v2.9.5")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, "legacy-project", cfg.ProjectID)
	assert.Equal(t, "legacy-sa", cfg.ServiceAccountName)
	assert.Equal(t, "1password/scim-bridge:v2.9.5", cfg.Image)
}

func TestLoad_PrefixedWinsOverFallback(t *testing.T) {
	t.Setenv("BRIDGECTL_PROJECT_ID", "new-project")
	t.Setenv("GCP_PROJECT_ID", "old-project")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, "new-project", cfg.ProjectID)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, constants.GCP, cfg.Provider)
	assert.Empty(t, cfg.Region, "region is defaulted per provider at request resolution, not here")
	assert.Equal(t, constants.DefaultServiceAccountName, cfg.ServiceAccountName)
	assert.Equal(t, constants.DefaultBridgeImage, cfg.Image)
}

func TestLoad_InvalidAdminEmail(t *testing.T) {
	t.Setenv("BRIDGECTL_ADMIN_EMAIL", "not-an-email")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoad_ProviderNormalized(t *testing.T) {
	t.Setenv("BRIDGECTL_PROVIDER", "AWS")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, constants.AWS, cfg.Provider)
}
