package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// configDirName is the per-user directory under the home directory.
const configDirName = ".sqlscribe"

var configFileUsed string

// findConfigFile finds the config file to use.
// Priority: explicit path > ./sqlscribe.yaml > ./sqlscribe.yml > ~/.sqlscribe/.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	candidates := []string{"sqlscribe.yaml", "sqlscribe.yml"}
	for _, name := range candidates {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	for _, name := range candidates {
		candidate := filepath.Join(home, configDirName, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// defaultHistoryPath places the activity database under ~/.sqlscribe,
// falling back to the working directory when home is unknown.
func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultHistoryFile
	}
	return filepath.Join(home, configDirName, DefaultHistoryFile)
}

// Load loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults.
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"service_url":  DefaultServiceURL,
		"api_key":      "",
		"history_path": defaultHistoryPath(),
		"verbose":      false,
		"output":       DefaultOutput,
		"ui": map[string]interface{}{
			"port":      DefaultUIPort,
			"watch":     false,
			"auto_open": true,
		},
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file.
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Environment variables (SQLSCRIBE_ prefix).
	// Transform: SQLSCRIBE_SERVICE_URL -> service_url, SQLSCRIBE_UI__PORT -> ui.port.
	if err := k.Load(env.Provider("SQLSCRIBE_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "SQLSCRIBE_"))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags (highest priority).
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set.
			if !f.Changed {
				return "", nil
			}
			// Transform kebab-case to snake_case for config keys.
			key := strings.ReplaceAll(f.Name, "-", "_")

			// The CLI uses --history for brevity; the config key is history_path.
			if key == "history" {
				return "history_path", posflag.FlagVal(flags, f)
			}
			// UI flags live under the ui section.
			switch key {
			case "port", "session_secret", "watch", "access_token":
				return "ui." + key, posflag.FlagVal(flags, f)
			case "no_browser":
				if v, err := flags.GetBool(f.Name); err == nil {
					return "ui.auto_open", !v
				}
				return "", nil
			}

			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal.
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Secrets and endpoints may reference the environment.
	cfg.ServiceURL = expandEnvVars(cfg.ServiceURL)
	cfg.APIKey = expandEnvVars(cfg.APIKey)
	cfg.UI.AccessToken = expandEnvVars(cfg.UI.AccessToken)

	cfg.ServiceURL = strings.TrimRight(cfg.ServiceURL, "/")
	if cfg.ServiceURL == "" {
		return nil, fmt.Errorf("service_url must not be empty")
	}

	return &cfg, nil
}

// FileUsed returns the path of the config file that was loaded, if any.
func FileUsed() string {
	return configFileUsed
}

// expandEnvVars expands ${VAR} patterns with environment variable values.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})
}
