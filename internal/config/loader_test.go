package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sqlscribe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
	assert.Nil(t, cfg)

	cfg, err = Load(writeConfig(t, ""), nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultServiceURL, cfg.ServiceURL)
	assert.Equal(t, DefaultUIPort, cfg.UI.Port)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.True(t, cfg.UI.AutoOpen)
	assert.NotEmpty(t, cfg.HistoryPath)
}

func TestLoad_ConfigFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
service_url: https://queries.example.com
output: json
ui:
  port: 9000
  watch: true
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://queries.example.com", cfg.ServiceURL)
	assert.Equal(t, "json", cfg.OutputFormat)
	assert.Equal(t, 9000, cfg.UI.Port)
	assert.True(t, cfg.UI.Watch)
	assert.Equal(t, path, FileUsed())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "service_url: https://from-file.example.com\n")
	t.Setenv("SQLSCRIBE_SERVICE_URL", "https://from-env.example.com")
	t.Setenv("SQLSCRIBE_UI__PORT", "8123")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://from-env.example.com", cfg.ServiceURL)
	assert.Equal(t, 8123, cfg.UI.Port)
}

func TestLoad_FlagsOverrideEverything(t *testing.T) {
	path := writeConfig(t, "service_url: https://from-file.example.com\n")
	t.Setenv("SQLSCRIBE_SERVICE_URL", "https://from-env.example.com")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("service-url", "", "")
	flags.String("history", "", "")
	flags.Int("port", 0, "")
	flags.Bool("no-browser", false, "")
	require.NoError(t, flags.Parse([]string{
		"--service-url", "https://from-flag.example.com",
		"--history", "/tmp/activity.db",
		"--port", "9999",
		"--no-browser",
	}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "https://from-flag.example.com", cfg.ServiceURL)
	assert.Equal(t, "/tmp/activity.db", cfg.HistoryPath)
	assert.Equal(t, 9999, cfg.UI.Port)
	assert.False(t, cfg.UI.AutoOpen)
}

func TestLoad_UnsetFlagsDoNotOverride(t *testing.T) {
	path := writeConfig(t, "output: csv\n")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("output", "table", "")
	require.NoError(t, flags.Parse(nil))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "csv", cfg.OutputFormat)
}

func TestLoad_ExpandsEnvVarsInSecrets(t *testing.T) {
	path := writeConfig(t, "api_key: ${SQLSCRIBE_TEST_SECRET}\n")
	t.Setenv("SQLSCRIBE_TEST_SECRET", "sk-12345")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "sk-12345", cfg.APIKey)
}

func TestLoad_TrimsTrailingSlashOnServiceURL(t *testing.T) {
	path := writeConfig(t, "service_url: https://queries.example.com/\n")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://queries.example.com", cfg.ServiceURL)
}
