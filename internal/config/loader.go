package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvConfig names the environment variable that points at a config file.
const EnvConfig = "LEAKGATE_CONFIG"

// Load reads a YAML config file on top of Default, then applies environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault searches for a config file in standard locations and loads the
// first one found. Search order: $LEAKGATE_CONFIG, ./leakgate.yaml,
// ~/.leakgate/config.yaml. When none exists the built-in defaults are used.
// A .env file in the working directory is loaded into the environment first.
func LoadDefault() (*Config, error) {
	// Missing .env is the normal case.
	_ = godotenv.Load()

	if path := os.Getenv(EnvConfig); path != "" {
		return Load(path)
	}

	candidates := []string{"leakgate.yaml"}
	home, err := os.UserHomeDir()
	if err == nil {
		candidates = append(candidates, filepath.Join(home, ".leakgate", "config.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	cfg := Default()
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides individual settings from LEAKGATE_* variables.
func applyEnv(cfg *Config) error {
	for _, o := range []struct {
		key string
		dst *string
	}{
		{"LEAKGATE_SCANNER_PATH", &cfg.Scanner.Path},
		{"LEAKGATE_SCANNER_TIMEOUT", &cfg.Scanner.Timeout},
		{"LEAKGATE_MOUNT_PATH", &cfg.Mount.Path},
		{"LEAKGATE_MOUNT_PREFIX", &cfg.Mount.Prefix},
		{"LEAKGATE_RESULT_PATH", &cfg.Result.Path},
		{"LEAKGATE_REPORT_PATH", &cfg.Report.Path},
		{"LEAKGATE_REPORT_FORMAT", &cfg.Report.Format},
		{"LEAKGATE_DATABASE_URL", &cfg.Database.URL},
	} {
		if v, ok := os.LookupEnv(o.key); ok {
			*o.dst = v
		}
	}

	if v := os.Getenv("LEAKGATE_DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LEAKGATE_DEBUG: %w", err)
		}
		cfg.Log.Debug = debug
	}
	return nil
}

// ScanTimeout returns the parsed scanner timeout, or zero when unset.
func (c *Config) ScanTimeout() (time.Duration, error) {
	if c.Scanner.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Scanner.Timeout)
	if err != nil {
		return 0, fmt.Errorf("scanner.timeout: %w", err)
	}
	return d, nil
}
