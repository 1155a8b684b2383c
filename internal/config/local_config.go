package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LocalConfig is the subset of config.yaml fields that are sometimes
// read directly from the file rather than through the viper singleton:
// when the CWD has changed since initialization, or before Initialize
// has run.
type LocalConfig struct {
	Backend   string `yaml:"backend"`
	DB        string `yaml:"db"`
	Actor     string `yaml:"actor"`
	JSON      bool   `yaml:"json"`
	Pipelines string `yaml:"pipelines"`
}

// LoadLocalConfig reads and parses config.yaml directly from the given
// .caseflow directory. Returns an empty LocalConfig (not nil) if the
// file doesn't exist or can't be parsed.
func LoadLocalConfig(caseflowDir string) *LocalConfig {
	configPath := filepath.Join(caseflowDir, "config.yaml")
	data, err := os.ReadFile(configPath) // #nosec G304 - config file path from caseflowDir
	if err != nil {
		return &LocalConfig{}
	}

	var cfg LocalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return &LocalConfig{}
	}
	return &cfg
}

// LoadLocalConfigWithEnv reads config.yaml and applies environment
// variable overrides. Environment variables win.
func LoadLocalConfigWithEnv(caseflowDir string) *LocalConfig {
	cfg := LoadLocalConfig(caseflowDir)

	if backend := os.Getenv("CASEFLOW_BACKEND"); backend != "" {
		cfg.Backend = backend
	}
	if db := os.Getenv("CASEFLOW_DB"); db != "" {
		cfg.DB = db
	}
	if actor := os.Getenv("CASEFLOW_ACTOR"); actor != "" {
		cfg.Actor = actor
	}
	return cfg
}
