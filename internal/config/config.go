package config

import (
	"fmt"
	"os"
)

// Config holds the application configuration
type Config struct {
	EnvName     string
	HTTPPort    string
	HTTPSPort   string
	DataDir     string
	HashKey     string
	TLSCertFile string
	TLSKeyFile  string
}

// Environment port defaults. Staging is the fallback environment.
var envDefaults = map[string]struct{ httpPort, httpsPort string }{
	"staging":    {"3000", "3001"},
	"production": {"5000", "5001"},
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	envName := os.Getenv("ENV_NAME")
	if _, ok := envDefaults[envName]; !ok {
		envName = "staging"
	}
	defaults := envDefaults[envName]

	cfg := &Config{
		EnvName:   envName,
		HTTPPort:  defaults.httpPort,
		HTTPSPort: defaults.httpsPort,
		DataDir:   ".data",
	}

	if port := os.Getenv("HTTP_PORT"); port != "" {
		cfg.HTTPPort = port
	}
	if port := os.Getenv("HTTPS_PORT"); port != "" {
		cfg.HTTPSPort = port
	}
	if dir := os.Getenv("DATA_DIR"); dir != "" {
		cfg.DataDir = dir
	}

	// HASH_KEY is required; it keys every stored password digest.
	hashKey := os.Getenv("HASH_KEY")
	if hashKey == "" {
		return nil, fmt.Errorf("HASH_KEY environment variable is required")
	}
	cfg.HashKey = hashKey

	// HTTPS is enabled only when both cert and key are configured.
	cfg.TLSCertFile = os.Getenv("TLS_CERT_FILE")
	cfg.TLSKeyFile = os.Getenv("TLS_KEY_FILE")
	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		return nil, fmt.Errorf("TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}

	return cfg, nil
}

// TLSEnabled reports whether the HTTPS listener should be started.
func (c *Config) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}
