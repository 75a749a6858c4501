// Package config provides configuration loading for the sqlscribe
// console. Settings come from, in increasing precedence: built-in
// defaults, a sqlscribe.yaml file, SQLSCRIBE_* environment variables, and
// CLI flags.
package config

// UIConfig holds web console settings.
type UIConfig struct {
	Port          int    `koanf:"port"`
	SessionSecret string `koanf:"session_secret"`
	Watch         bool   `koanf:"watch"`
	AutoOpen      bool   `koanf:"auto_open"`

	// AccessToken, when set, gates every console route behind a shared
	// bearer token. Supports ${VAR} expansion.
	AccessToken string `koanf:"access_token"`
}

// Config holds all console configuration.
type Config struct {
	// ServiceURL is the base URL of the query service API.
	ServiceURL string `koanf:"service_url"`

	// APIKey authenticates against the query service. Supports ${VAR}
	// expansion so secrets can stay in the environment.
	APIKey string `koanf:"api_key"`

	// HistoryPath is the local activity database.
	HistoryPath string `koanf:"history_path"`

	Verbose      bool     `koanf:"verbose"`
	OutputFormat string   `koanf:"output"`
	UI           UIConfig `koanf:"ui"`
}
