package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces kuratord environment variables.
const envPrefix = "KURATOR_"

// maxConfigFileSize bounds config file reads.
const maxConfigFileSize = 1024 * 1024

// Load reads configuration with the following precedence, highest first:
//
//  1. Environment variables (KURATOR_SERVER_PORT, KURATOR_EXTRACTION_API_KEY, ...)
//  2. YAML config file (configPath, skipped when empty or missing)
//  3. Defaults from Default()
//
// Environment variables map to config keys by stripping the prefix,
// lowercasing, and splitting on the first underscore:
//
//	KURATOR_SERVER_PORT           -> server.port
//	KURATOR_EXTRACTION_API_KEY    -> extraction.api_key
//	KURATOR_RATE_LIMIT... is special-cased since the section name itself
//	contains an underscore.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		if err := loadFile(k, configPath); err != nil {
			return nil, err
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// loadFile merges a YAML file into the koanf tree. A missing file is not
// an error so fresh installs run on defaults.
func loadFile(k *koanf.Koanf, path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	return nil
}

// envTransform maps KURATOR_SECTION_FIELD_NAME to section.field_name.
func envTransform(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))

	// rate_limit is the one section whose name contains an underscore.
	if rest, ok := strings.CutPrefix(lower, "rate_limit_"); ok {
		return "rate_limit." + rest
	}

	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}
